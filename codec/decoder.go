package codec

import (
	"github.com/dargueta/dcp/dictionary"
)

// matchAt returns the index of the first entry, in palette order, whose
// placeholder occurs at `offset` in `data`, or -1 if none do. Entries with
// empty placeholders never match.
func matchAt(palette dictionary.Palette, data []byte, offset int) int {
	for i, entry := range palette {
		if entry.Placeholder.Len() > 0 && entry.Placeholder.AppearsAt(data, offset) {
			return i
		}
	}
	return -1
}

// DecodeFragment expands a payload back into the original fragment by replacing
// every placeholder with its pattern. Bytes not starting a placeholder are
// copied unchanged.
func DecodeFragment(palette dictionary.Palette, payload []byte) []byte {
	output := make([]byte, 0, len(payload))

	for position := 0; position < len(payload); {
		matched := matchAt(palette, payload, position)
		if matched < 0 {
			output = append(output, payload[position])
			position++
			continue
		}

		output = append(output, palette[matched].Pattern...)
		position += palette[matched].Placeholder.Len()
	}
	return output
}

// Decode expands a record's payload.
func (r Record) Decode() []byte {
	return DecodeFragment(r.Palette, r.Payload)
}
