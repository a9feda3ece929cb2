package dictionary_test

import (
	"bytes"
	"testing"

	"github.com/dargueta/dcp/dictionary"
	"github.com/dargueta/dcp/locationindex"
	"github.com/dargueta/dcp/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selectPalette(t *testing.T, data []byte, maxPatternLength, maxPaletteSize int) dictionary.Palette {
	idx := locationindex.Build(data, maxPatternLength)
	palette, err := dictionary.NewSelector(idx, maxPaletteSize).Select()
	require.NoError(t, err)
	return palette
}

func TestValue(t *testing.T) {
	assert.Equal(t, 1, dictionary.Value(6, 2, 1), "ab in abababababab")
	assert.Equal(t, 2, dictionary.Value(3, 4, 1), "abab in abababababab")
	assert.Equal(t, 0, dictionary.Value(5, 2, 1), "aa in aaaaaaaaaa")
	assert.Equal(t, -6, dictionary.Value(1, 3, 2))
}

func TestSelect__PrefersLongerPattern(t *testing.T) {
	palette := selectPalette(t, []byte("abababababab"), 4, 1)

	require.Len(t, palette, 1)
	assert.Equal(t, sequence.ByteSequence{0x00}, palette[0].Placeholder)
	assert.Equal(t, sequence.ByteSequence("abab"), palette[0].Pattern)
	assert.Equal(t, []int{0, 4, 8}, palette[0].Locations)
	assert.Equal(t, 2, palette[0].Value())
}

func TestSelect__ZeroValueIsNotSelected(t *testing.T) {
	palette := selectPalette(t, []byte("aaaaaaaaaa"), 2, 255)
	assert.Empty(t, palette)
}

func TestSelect__NoRepeats(t *testing.T) {
	palette := selectPalette(t, []byte("0123456789abcdefghijklmnopqrstuvwxyz"), 8, 255)
	assert.Empty(t, palette)
}

func TestSelect__ZeroPaletteSize(t *testing.T) {
	palette := selectPalette(t, []byte("abababababab"), 4, 0)
	assert.Empty(t, palette)
}

func TestSelect__RespectsPaletteSize(t *testing.T) {
	data := []byte(
		"alpha beta gamma delta alpha beta gamma delta " +
			"alpha beta gamma delta alpha beta gamma delta",
	)
	full := selectPalette(t, data, 8, 255)
	require.Greater(t, len(full), 2, "test data should yield several entries")

	limited := selectPalette(t, data, 8, 2)
	require.Len(t, limited, 2)
	assert.Equal(t, full[:2], limited, "limiting the size must not change the order")
}

// Chosen patterns must never share bytes in the fragment, placeholders must be
// disjoint, and every entry must save something.
func TestSelect__EntriesAreIndependent(t *testing.T) {
	data := bytes.Repeat(
		[]byte("the quick brown fox jumps over the lazy dog; the end. "),
		12,
	)
	palette := selectPalette(t, data, 8, 255)
	require.NotEmpty(t, palette)
	assert.True(t, palette.Disjoint(), "placeholders conflict")

	covered := make([]bool, len(data))
	for _, entry := range palette {
		assert.Greater(t, entry.Value(), 0, "entry %s saves nothing", entry)
		assert.False(t, bytes.Contains(data, entry.Placeholder), "placeholder occurs in data")

		for _, offset := range entry.Locations {
			require.True(t, entry.Pattern.AppearsAt(data, offset))
			for i := offset; i < offset+entry.Pattern.Len(); i++ {
				require.Falsef(t, covered[i], "byte %d claimed by two patterns", i)
				covered[i] = true
			}
		}
	}
}

func TestSelect__PlaceholdersAscend(t *testing.T) {
	data := bytes.Repeat([]byte("xyzw-1234-"), 30)
	palette := selectPalette(t, data, 4, 255)
	require.NotEmpty(t, palette)

	for i, entry := range palette {
		assert.Equal(t, sequence.ByteSequence{byte(i)}, entry.Placeholder)
	}
}

func TestReassign(t *testing.T) {
	idx := locationindex.Build([]byte("abababababab"), 4)
	selector := dictionary.NewSelector(idx, 1)
	palette, err := selector.Select()
	require.NoError(t, err)
	require.Len(t, palette, 1)

	require.NoError(t, selector.Reassign(palette, 0))
	assert.Equal(t, sequence.ByteSequence{0x01}, palette[0].Placeholder)
	assert.Equal(t, []sequence.ByteSequence{{0x01}}, selector.Placeholders().Active())
}

func TestPalette__DefinitionSize(t *testing.T) {
	palette := dictionary.Palette{
		{Placeholder: sequence.ByteSequence{0}, Pattern: sequence.ByteSequence("abab")},
		{Placeholder: sequence.ByteSequence{1, 2}, Pattern: sequence.ByteSequence("xyz")},
	}
	assert.Equal(t, 1+(2+1+4)+(2+2+3), palette.DefinitionSize())
	assert.Equal(t, 1, dictionary.Palette{}.DefinitionSize())
}

func TestPalette__Disjoint(t *testing.T) {
	assert.True(t, dictionary.Palette{}.Disjoint())
	assert.False(
		t,
		dictionary.Palette{
			{Placeholder: sequence.ByteSequence{1}},
			{Placeholder: sequence.ByteSequence{2, 1}},
		}.Disjoint(),
	)
}
