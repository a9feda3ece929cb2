package dictionary

import (
	"fmt"

	"github.com/dargueta/dcp"
	"github.com/dargueta/dcp/sequence"
)

// Searcher reports whether a sequence occurs in the data being compressed.
// [locationindex.Index] implements this.
type Searcher interface {
	Contains(seq sequence.ByteSequence) bool
}

// PlaceholderAllocator hands out placeholders in ascending base-256 order.
//
// A candidate is skipped if it occurs in the fragment or if it contains or is
// contained by a placeholder that's currently handed out. The cursor never
// rewinds, so every candidate behind it stays excluded: each one was either
// handed out already or was rejected when it was tried. The only way back is
// [PlaceholderAllocator.Return], which hands the same placeholder out again.
type PlaceholderAllocator struct {
	searcher  Searcher
	maxLength int
	cursor    sequence.ByteSequence
	pending   sequence.ByteSequence
	active    []sequence.ByteSequence
	drawn     int
}

// NewPlaceholderAllocator creates an allocator that gives up once it would need
// a placeholder longer than `maxLength` bytes.
func NewPlaceholderAllocator(searcher Searcher, maxLength int) *PlaceholderAllocator {
	return &PlaceholderAllocator{
		searcher:  searcher,
		maxLength: maxLength,
		cursor:    sequence.Zero(1),
	}
}

// Allocate returns the lowest placeholder that's safe to use. The placeholder
// is considered active until it's passed to [PlaceholderAllocator.Fail] or
// [PlaceholderAllocator.Return].
func (a *PlaceholderAllocator) Allocate() (sequence.ByteSequence, error) {
	if a.pending != nil {
		candidate := a.pending
		a.pending = nil
		if !a.conflicts(candidate) {
			a.active = append(a.active, candidate)
			return candidate, nil
		}
	}

	for a.cursor.Len() <= a.maxLength {
		candidate := a.cursor
		a.cursor = candidate.Next()

		if a.searcher.Contains(candidate) || a.conflicts(candidate) {
			continue
		}
		a.active = append(a.active, candidate)
		a.drawn++
		return candidate, nil
	}

	return nil, dcp.ErrPlaceholderExhausted.WithMessage(
		fmt.Sprintf(
			"no unused placeholder of at most %d bytes after %d draws",
			a.maxLength,
			a.drawn,
		),
	)
}

// Fail retires an active placeholder for good. It will never be handed out
// again.
func (a *PlaceholderAllocator) Fail(placeholder sequence.ByteSequence) {
	a.deactivate(placeholder)
}

// Return gives back an active placeholder that ended up not being used. The
// next call to [PlaceholderAllocator.Allocate] returns it again if it's still
// safe.
func (a *PlaceholderAllocator) Return(placeholder sequence.ByteSequence) {
	a.deactivate(placeholder)
	a.pending = placeholder
}

// Active returns the placeholders currently handed out, in allocation order.
func (a *PlaceholderAllocator) Active() []sequence.ByteSequence {
	return a.active
}

// Drawn returns the number of distinct placeholders handed out so far.
func (a *PlaceholderAllocator) Drawn() int {
	return a.drawn
}

func (a *PlaceholderAllocator) deactivate(placeholder sequence.ByteSequence) {
	for i, existing := range a.active {
		if existing.Equal(placeholder) {
			a.active = append(a.active[:i], a.active[i+1:]...)
			return
		}
	}
}

func (a *PlaceholderAllocator) conflicts(candidate sequence.ByteSequence) bool {
	for _, existing := range a.active {
		if existing.Conflicts(candidate) {
			return true
		}
	}
	return false
}
