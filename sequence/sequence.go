// Package sequence provides the byte sequence value type shared by patterns,
// placeholders and fragments, along with the ordering used to enumerate
// placeholder candidates.
package sequence

import (
	"bytes"
	"fmt"
	"strings"
)

// ByteSequence is an ordered run of bytes. Once built, a ByteSequence must not
// be modified; functions that derive a new sequence always return a copy.
type ByteSequence []byte

// New returns a copy of the given bytes as a ByteSequence.
func New(data []byte) ByteSequence {
	seq := make(ByteSequence, len(data))
	copy(seq, data)
	return seq
}

// Zero returns a sequence of `length` null bytes, the smallest sequence of that
// length in enumeration order.
func Zero(length int) ByteSequence {
	return make(ByteSequence, length)
}

func (s ByteSequence) Len() int {
	return len(s)
}

// Equal returns true if both sequences have exactly the same bytes.
func (s ByteSequence) Equal(other ByteSequence) bool {
	return bytes.Equal(s, other)
}

// Contains returns true if `other` appears anywhere inside `s`. A sequence
// always contains itself.
func (s ByteSequence) Contains(other ByteSequence) bool {
	return bytes.Contains(s, other)
}

// Conflicts returns true if either sequence contains the other. Two
// placeholders that conflict could be confused with each other while decoding.
func (s ByteSequence) Conflicts(other ByteSequence) bool {
	if len(s) >= len(other) {
		return s.Contains(other)
	}
	return other.Contains(s)
}

// AppearsAt returns true if `s` occurs in `data` starting at `offset`.
func (s ByteSequence) AppearsAt(data []byte, offset int) bool {
	if offset < 0 || offset > len(data)-len(s) {
		return false
	}
	return bytes.Equal(data[offset:offset+len(s)], s)
}

// Locations returns the offsets of the non-overlapping occurrences of `s` in
// `data`, scanning forward from `start`. Each match advances the scan by the
// length of the sequence, a mismatch advances it by one byte.
func (s ByteSequence) Locations(data []byte, start int) []int {
	var locations []int
	if len(s) == 0 {
		return locations
	}

	for i := start; i <= len(data)-len(s); {
		if s.AppearsAt(data, i) {
			locations = append(locations, i)
			i += len(s)
		} else {
			i++
		}
	}
	return locations
}

// Count returns the number of non-overlapping occurrences of `s` in `data`.
func (s ByteSequence) Count(data []byte) int {
	return len(s.Locations(data, 0))
}

// Next returns the sequence immediately following `s` when sequences are
// treated as big-endian base-256 integers of a fixed width. When every byte of
// `s` is 0xff the width grows by one and the result is all zeroes. `s` itself
// is never modified.
func (s ByteSequence) Next() ByteSequence {
	next := New(s)
	for i := len(next) - 1; i >= 0; i-- {
		if next[i] < 0xff {
			next[i]++
			return next
		}
		next[i] = 0
	}

	// Carried out of the most significant byte, move on to the next length.
	return Zero(len(s) + 1)
}

// String returns the sequence as space-separated hexadecimal bytes, e.g.
// "61 62 0A".
func (s ByteSequence) String() string {
	parts := make([]string, len(s))
	for i, b := range s {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
