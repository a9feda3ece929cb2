package dictionary

import (
	"github.com/boljen/go-bitmap"
	"github.com/dargueta/dcp/locationindex"
)

// Selector picks palette entries for one fragment, greedily taking the pattern
// with the highest [Value] that doesn't collide with anything already chosen.
type Selector struct {
	index          *locationindex.Index
	placeholders   *PlaceholderAllocator
	maxPaletteSize int
	// coverage has a bit set for every fragment byte that's part of an
	// occurrence of an already-chosen pattern.
	coverage bitmap.Bitmap
}

// NewSelector creates a selector over `index`, drawing placeholders of at most
// the index's maximum pattern length.
func NewSelector(index *locationindex.Index, maxPaletteSize int) *Selector {
	return &Selector{
		index:          index,
		placeholders:   NewPlaceholderAllocator(index, index.MaxPatternLength()),
		maxPaletteSize: maxPaletteSize,
		coverage:       bitmap.New(len(index.Fragment())),
	}
}

// Placeholders returns the allocator the selector draws placeholders from.
func (s *Selector) Placeholders() *PlaceholderAllocator {
	return s.placeholders
}

// Select builds the palette. It stops early once no candidate would save any
// bytes.
func (s *Selector) Select() (Palette, error) {
	palette := Palette{}

	for len(palette) < s.maxPaletteSize {
		placeholder, err := s.placeholders.Allocate()
		if err != nil {
			return nil, err
		}

		best, value := s.bestCandidate(placeholder.Len())
		if best == locationindex.NoHandle || value <= 0 || s.index.Count(best) < 2 {
			s.placeholders.Return(placeholder)
			break
		}

		locations := s.index.Locations(best)
		pattern := s.index.Pattern(best)
		for _, offset := range locations {
			for i := offset; i < offset+pattern.Len(); i++ {
				s.coverage.Set(i, true)
			}
		}
		s.index.MarkExhausted(best)

		palette = append(
			palette,
			Entry{
				Placeholder: placeholder,
				Pattern:     pattern,
				Locations:   locations,
			},
		)
	}
	return palette, nil
}

// Reassign gives entry `i` of the palette a fresh placeholder and retires the
// old one.
func (s *Selector) Reassign(palette Palette, i int) error {
	s.placeholders.Fail(palette[i].Placeholder)
	placeholder, err := s.placeholders.Allocate()
	if err != nil {
		return err
	}
	palette[i].Placeholder = placeholder
	return nil
}

// bestCandidate walks the index looking for the pattern with the highest value
// given a placeholder length. On ties the first pattern found wins, which is
// the one with the lowest bytes and then the shortest length. It returns
// [locationindex.NoHandle] if there are no candidates at all.
func (s *Selector) bestCandidate(placeholderLength int) (locationindex.Handle, int) {
	best := locationindex.NoHandle
	bestValue := 0
	maxLength := s.index.MaxPatternLength()

	s.index.Walk(func(handle locationindex.Handle) bool {
		depth := s.index.Depth(handle)
		count := s.index.Count(handle)
		if depth < 2 {
			return true
		}
		if count < 1 {
			return false
		}

		// Descendants occur at most `count` times and are at most `maxLength`
		// long, which bounds the value of anything below this node.
		descend := depth < maxLength &&
			(best == locationindex.NoHandle ||
				Value(count, maxLength, placeholderLength) > bestValue)

		if s.index.Exhausted(handle) {
			return descend
		}

		value := Value(count, depth, placeholderLength)
		if best != locationindex.NoHandle && value <= bestValue {
			return descend
		}

		if s.overlapsCoverage(handle) {
			s.index.MarkExhausted(handle)
			return descend
		}

		best = handle
		bestValue = value
		return depth < maxLength && Value(count, maxLength, placeholderLength) > bestValue
	})
	return best, bestValue
}

// overlapsCoverage returns true if any occurrence of the node's pattern shares
// a byte with an occurrence of an already-chosen pattern.
func (s *Selector) overlapsCoverage(handle locationindex.Handle) bool {
	length := s.index.Depth(handle)
	for _, offset := range s.index.Locations(handle) {
		for i := offset; i < offset+length; i++ {
			if s.coverage.Get(i) {
				return true
			}
		}
	}
	return false
}
