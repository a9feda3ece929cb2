package fragments_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/dargueta/dcp"
	"github.com/dargueta/dcp/codec"
	"github.com/dargueta/dcp/fragments"
	dcptest "github.com/dargueta/dcp/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	data := []byte("0123456789")

	parts := fragments.Split(data, 4)
	require.Len(t, parts, 3)
	assert.Equal(t, []byte("0123"), parts[0])
	assert.Equal(t, []byte("4567"), parts[1])
	assert.Equal(t, []byte("89"), parts[2])

	parts = fragments.Split(data, 5)
	require.Len(t, parts, 2)
	assert.Equal(t, []byte("56789"), parts[1])

	parts = fragments.Split(data, 256)
	require.Len(t, parts, 1)
	assert.Equal(t, data, parts[0])
}

func TestSplit__Empty(t *testing.T) {
	parts := fragments.Split(nil, 256)
	require.Len(t, parts, 1)
	assert.Empty(t, parts[0])
}

func smallFragmentOptions(workers int) dcp.Options {
	options := dcp.DefaultOptions()
	options.FragmentSize = dcp.MinFragmentSize
	options.Workers = workers
	return options
}

func TestCompress__RoundTrip(t *testing.T) {
	text := bytes.Repeat([]byte("Sing, goddess, the anger of Peleus' son Achilles. "), 60)
	inputs := map[string][]byte{
		"text":             text,
		"random":           dcptest.RandomBytes(t, 3000),
		"exact multiple":   bytes.Repeat([]byte("xyzw"), dcp.MinFragmentSize),
		"single byte":      {0xff},
		"one over a limit": append(bytes.Repeat([]byte{'q'}, dcp.MinFragmentSize), 'r'),
	}

	for _, workers := range []int{1, 3, 16} {
		for name, input := range inputs {
			t.Run(
				fmt.Sprintf("%s/%d workers", name, workers),
				func(t *testing.T) {
					options := smallFragmentOptions(workers)
					compressed, stats, err := fragments.Compress(
						context.Background(), input, "txt", options,
					)
					require.NoError(t, err)
					require.Len(t, stats, len(fragments.Split(input, options.FragmentSize)))

					totalRecordSize := 0
					for i, s := range stats {
						assert.Equal(t, i, s.Index, "stats are out of order")
						totalRecordSize += s.RecordSize
					}
					assert.Equal(t, len(compressed), totalRecordSize)

					output, extension, err := fragments.Decompress(compressed)
					require.NoError(t, err)
					assert.Equal(t, "txt", extension)
					assert.True(t, bytes.Equal(input, output), "decompressed data is wrong")
				},
			)
		}
	}
}

func TestCompress__Empty(t *testing.T) {
	compressed, stats, err := fragments.Compress(
		context.Background(), []byte{}, "bin", dcp.DefaultOptions(),
	)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, []byte{3, 'b', 'i', 'n', 0, 0, 0}, compressed)

	output, extension, err := fragments.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, "bin", extension)
	assert.Empty(t, output)
}

func TestCompress__EveryRecordCarriesExtension(t *testing.T) {
	input := bytes.Repeat([]byte("abcdefgh"), 100)
	compressed, stats, err := fragments.Compress(
		context.Background(), input, "log", smallFragmentOptions(2),
	)
	require.NoError(t, err)
	require.Len(t, stats, 4)

	reader := bytes.NewReader(compressed)
	for i := 0; i < len(stats); i++ {
		record, err := codec.ReadRecord(reader)
		require.NoErrorf(t, err, "record %d", i)
		assert.Equalf(t, "log", record.Extension, "record %d", i)
	}
	_, err = codec.ReadRecord(reader)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCompress__InvalidOptions(t *testing.T) {
	options := dcp.DefaultOptions()
	options.FragmentSize = 10
	_, _, err := fragments.Compress(context.Background(), []byte("abc"), "", options)
	assert.ErrorIs(t, err, dcp.ErrInvalidConfig)

	longExtension := string(bytes.Repeat([]byte{'e'}, dcp.MaxExtensionLength+1))
	_, _, err = fragments.Compress(
		context.Background(), []byte("abc"), longExtension, dcp.DefaultOptions(),
	)
	assert.ErrorIs(t, err, dcp.ErrInvalidConfig)
}

func TestCompress__Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := fragments.Compress(ctx, []byte("abcabcabc"), "", dcp.DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecompress__Malformed(t *testing.T) {
	_, _, err := fragments.Decompress([]byte{})
	assert.ErrorIs(t, err, dcp.ErrMalformedStream, "empty input")

	compressed, _, err := fragments.Compress(
		context.Background(),
		bytes.Repeat([]byte("hello world "), 50),
		"txt",
		smallFragmentOptions(1),
	)
	require.NoError(t, err)

	_, _, err = fragments.Decompress(compressed[:len(compressed)-1])
	assert.ErrorIs(t, err, dcp.ErrMalformedStream, "truncated input")
}

func TestStatsCSV(t *testing.T) {
	stats := []fragments.FragmentStats{
		{Index: 0, InputSize: 256, PayloadSize: 40, RecordSize: 60, PaletteSize: 2, ValidationRounds: 1},
		{Index: 1, InputSize: 10, PayloadSize: 10, RecordSize: 14, PaletteSize: 0, ValidationRounds: 1},
	}

	var buffer bytes.Buffer
	require.NoError(t, fragments.WriteStatsCSV(stats, &buffer))
	assert.Contains(
		t,
		buffer.String(),
		"fragment,input_bytes,payload_bytes,record_bytes,palette_entries,validation_rounds",
	)

	parsed, err := fragments.ReadStatsCSV(&buffer)
	require.NoError(t, err)
	assert.Equal(t, stats, parsed)
}

func TestFragmentStats__Ratio(t *testing.T) {
	assert.Equal(t, 0.0, fragments.FragmentStats{}.Ratio())
	assert.Equal(t, 0.25, fragments.FragmentStats{InputSize: 400, RecordSize: 100}.Ratio())
}

func TestCompress__MatchesSingleFragmentEncoding(t *testing.T) {
	input := dcptest.RepeatedPhrases(t, 2000)
	options := dcp.DefaultOptions()

	compressed, _, err := fragments.Compress(context.Background(), input, "dat", options)
	require.NoError(t, err)
	assert.Equal(t, dcptest.EncodeFragment(t, input, "dat", options), compressed)

	dcptest.RequireDecodesTo(t, dcptest.LoadCompressedStream(t, compressed), input)
}
