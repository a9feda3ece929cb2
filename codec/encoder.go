// Package codec turns a single fragment into a palette and payload and back,
// and defines the on-disk record that carries them.
package codec

import (
	"fmt"

	"github.com/dargueta/dcp"
	"github.com/dargueta/dcp/dictionary"
	"github.com/dargueta/dcp/locationindex"
)

// Encoding is the result of compressing one fragment.
type Encoding struct {
	Palette dictionary.Palette
	Payload []byte
	// Rounds is the number of encode passes needed before every placeholder
	// could be decoded unambiguously. It's 1 when the first set of placeholders
	// worked.
	Rounds int
}

// CompressFragment compresses a single fragment and returns its palette and
// payload. Decoding the payload with [DecodeFragment] and the same palette
// gives back the fragment exactly.
func CompressFragment(fragment []byte, options dcp.Options) (dictionary.Palette, []byte, error) {
	encoding, err := Encode(fragment, options)
	if err != nil {
		return nil, nil, err
	}
	return encoding.Palette, encoding.Payload, nil
}

// Encode compresses a single fragment, reporting how many validation rounds it
// took.
func Encode(fragment []byte, options dcp.Options) (Encoding, error) {
	if err := options.Validate(); err != nil {
		return Encoding{}, err
	}
	if len(fragment) > dcp.MaxFragmentSize {
		return Encoding{}, dcp.ErrInvalidConfig.WithMessage(
			fmt.Sprintf(
				"fragment is %d bytes, can't be more than %d",
				len(fragment),
				dcp.MaxFragmentSize,
			),
		)
	}

	index := locationindex.Build(fragment, options.MaxPatternLength)
	selector := dictionary.NewSelector(index, options.MaxPaletteSize)
	palette, err := selector.Select()
	if err != nil {
		return Encoding{}, err
	}

	for _, entry := range palette {
		options.Debugf(
			"replacing %d occurrences of %s saves %d bytes",
			len(entry.Locations),
			entry,
			entry.Value(),
		)
	}

	// starts[i] is one more than the index of the entry whose pattern starts
	// at offset i, or zero if no pattern starts there.
	starts := make([]int, len(fragment))
	for i := len(palette) - 1; i >= 0; i-- {
		for _, offset := range palette[i].Locations {
			starts[offset] = i + 1
		}
	}

	for round := 1; round <= options.MaxValidationRounds; round++ {
		payload, marks := encodePass(fragment, palette, starts)
		if len(payload) > MaxPayloadLength {
			options.Debugf(
				"payload of %d bytes is too large, storing fragment uncompressed",
				len(payload),
			)
			literal := make([]byte, len(fragment))
			copy(literal, fragment)
			return Encoding{Palette: dictionary.Palette{}, Payload: literal, Rounds: round}, nil
		}

		failed := findAmbiguousEntry(palette, payload, marks)
		if failed < 0 {
			return Encoding{Palette: palette, Payload: payload, Rounds: round}, nil
		}

		options.Debugf(
			"placeholder [%s] is ambiguous in the payload, drawing a new one for [%s]",
			palette[failed].Placeholder,
			palette[failed].Pattern,
		)
		err = selector.Reassign(palette, failed)
		if err != nil {
			return Encoding{}, err
		}
	}

	return Encoding{}, dcp.ErrValidationExhausted.WithMessage(
		fmt.Sprintf(
			"placeholders still ambiguous after %d rounds",
			options.MaxValidationRounds,
		),
	)
}

// encodePass replaces every recorded pattern occurrence with its placeholder.
// Along with the payload it returns `marks`, which has the same length as the
// payload and holds one more than the entry index wherever a placeholder was
// written, zero elsewhere.
func encodePass(fragment []byte, palette dictionary.Palette, starts []int) ([]byte, []int) {
	payload := make([]byte, 0, len(fragment))
	marks := make([]int, 0, len(fragment))

	for i := 0; i < len(fragment); {
		if starts[i] == 0 {
			payload = append(payload, fragment[i])
			marks = append(marks, 0)
			i++
			continue
		}

		entry := palette[starts[i]-1]
		payload = append(payload, entry.Placeholder...)
		marks = append(marks, starts[i])
		for j := 1; j < entry.Placeholder.Len(); j++ {
			marks = append(marks, 0)
		}
		i += entry.Pattern.Len()
	}
	return payload, marks
}

// findAmbiguousEntry returns the index of the first palette entry whose
// placeholder shows up in the payload somewhere it wasn't deliberately written,
// or -1 if the payload decodes exactly.
//
// The first check compares the number of times each placeholder occurs in the
// payload with the number of times its pattern occurs in the fragment. The
// second replays the decoder, which catches a stray occurrence overlapping a
// deliberate one without changing the count.
func findAmbiguousEntry(palette dictionary.Palette, payload []byte, marks []int) int {
	for i, entry := range palette {
		if entry.Placeholder.Count(payload) != len(entry.Locations) {
			return i
		}
	}

	for position := 0; position < len(payload); {
		matched := matchAt(palette, payload, position)
		expected := marks[position] - 1

		if matched != expected {
			if matched >= 0 {
				return matched
			}
			return expected
		}

		if matched >= 0 {
			position += palette[matched].Placeholder.Len()
		} else {
			position++
		}
	}
	return -1
}
