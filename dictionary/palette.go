// Package dictionary chooses which repeated patterns of a fragment get replaced
// and which placeholder stands in for each.
package dictionary

import (
	"fmt"

	"github.com/dargueta/dcp/sequence"
)

// EntryOverhead is the number of bytes an entry costs in a palette definition
// beyond its placeholder and pattern: one length byte for each.
const EntryOverhead = 2

// Entry pairs a pattern with the placeholder that replaces it.
type Entry struct {
	Placeholder sequence.ByteSequence
	Pattern     sequence.ByteSequence
	// Locations holds the offsets of the pattern in the fragment the entry was
	// selected for. It's only populated during compression and is never
	// serialized.
	Locations []int
}

// Value returns the net number of bytes saved by replacing `count` occurrences
// of a pattern of length `patternLength` with a placeholder of length
// `placeholderLength`, after paying for the entry's own definition.
func Value(count, patternLength, placeholderLength int) int {
	return count*(patternLength-placeholderLength) -
		(placeholderLength + patternLength + EntryOverhead)
}

// Value returns the estimated savings of this entry.
func (e Entry) Value() int {
	return Value(len(e.Locations), e.Pattern.Len(), e.Placeholder.Len())
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] -> [%s]", e.Placeholder, e.Pattern)
}

// Palette is an ordered list of entries. Order matters: it's the order entries
// were selected in, and the order the decoder tries placeholders in.
type Palette []Entry

// Disjoint returns true if no placeholder in the palette contains another.
func (p Palette) Disjoint() bool {
	for i := range p {
		for j := i + 1; j < len(p); j++ {
			if p[i].Placeholder.Conflicts(p[j].Placeholder) {
				return false
			}
		}
	}
	return true
}

// DefinitionSize returns the number of bytes the palette takes up when
// serialized, including the leading entry count.
func (p Palette) DefinitionSize() int {
	size := 1
	for _, entry := range p {
		size += EntryOverhead + entry.Placeholder.Len() + entry.Pattern.Len()
	}
	return size
}
