// Package fragments splits input into independently compressed fragments and
// stitches the results back together.
//
// Each fragment gets its own index and palette, and nothing is shared between
// fragments. This keeps the size of the index bounded by the fragment size
// rather than the input size, and lets fragments be compressed in parallel.
package fragments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dargueta/dcp"
	"github.com/dargueta/dcp/codec"
	"github.com/hashicorp/go-multierror"
)

// Split slices `data` into consecutive fragments of at most `fragmentSize`
// bytes. Empty input gives a single empty fragment, so that compressed output
// always has at least one record. The fragments share memory with `data`.
func Split(data []byte, fragmentSize int) [][]byte {
	if len(data) == 0 {
		return [][]byte{data[:0]}
	}

	fragments := make([][]byte, 0, (len(data)+fragmentSize-1)/fragmentSize)
	for start := 0; start < len(data); start += fragmentSize {
		end := start + fragmentSize
		if end > len(data) {
			end = len(data)
		}
		fragments = append(fragments, data[start:end])
	}
	return fragments
}

type fragmentResult struct {
	record []byte
	stats  FragmentStats
	err    error
}

// Compress compresses `data` and returns the concatenated records along with
// statistics for every fragment. `extension` is stored in every record so the
// original file name can be restored later.
//
// If any fragment fails, no output is returned and the error lists every
// fragment that failed.
func Compress(
	ctx context.Context, data []byte, extension string, options dcp.Options,
) ([]byte, []FragmentStats, error) {
	if err := options.Validate(); err != nil {
		return nil, nil, err
	}
	if len(extension) > dcp.MaxExtensionLength {
		return nil, nil, dcp.ErrInvalidConfig.WithMessage(
			fmt.Sprintf(
				"extension is %d bytes, can't be more than %d",
				len(extension),
				dcp.MaxExtensionLength,
			),
		)
	}

	fragments := Split(data, options.FragmentSize)
	results := make([]fragmentResult, len(fragments))

	workers := options.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(fragments) {
		workers = len(fragments)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = compressOne(ctx, i, fragments[i], extension, options)
			}
		}()
	}

	for i := range fragments {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	var result *multierror.Error
	totalSize := 0
	for _, r := range results {
		if r.err != nil {
			result = multierror.Append(result, r.err)
			continue
		}
		totalSize += len(r.record)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, nil, err
	}

	output := make([]byte, 0, totalSize)
	stats := make([]FragmentStats, len(results))
	for i, r := range results {
		output = append(output, r.record...)
		stats[i] = r.stats
	}

	options.Debugf(
		"compressed %d bytes in %d fragments to %d bytes",
		len(data),
		len(fragments),
		len(output),
	)
	return output, stats, nil
}

func compressOne(
	ctx context.Context, index int, fragment []byte, extension string, options dcp.Options,
) fragmentResult {
	if err := ctx.Err(); err != nil {
		return fragmentResult{err: fragmentError(index, options, err)}
	}

	encoding, err := codec.Encode(fragment, options)
	if err != nil {
		return fragmentResult{err: fragmentError(index, options, err)}
	}

	record := codec.Record{
		Extension: extension,
		Palette:   encoding.Palette,
		Payload:   encoding.Payload,
	}
	serialized, err := record.MarshalBinary()
	if err != nil {
		return fragmentResult{err: fragmentError(index, options, err)}
	}

	stats := FragmentStats{
		Index:            index,
		InputSize:        len(fragment),
		PayloadSize:      len(encoding.Payload),
		RecordSize:       len(serialized),
		PaletteSize:      len(encoding.Palette),
		ValidationRounds: encoding.Rounds,
	}
	options.Debugf(
		"fragment %d: %d bytes -> %d bytes, %d entries, %d rounds",
		index,
		stats.InputSize,
		stats.RecordSize,
		stats.PaletteSize,
		stats.ValidationRounds,
	)
	return fragmentResult{record: serialized, stats: stats}
}

func fragmentError(index int, options dcp.Options, err error) error {
	return fmt.Errorf("fragment %d (%s): %w", index, options, err)
}

// Decompress decodes every record in `data` and returns the concatenated
// output along with the extension stored in the first record. Errors wrap
// [dcp.ErrMalformedStream] if the data is truncated or otherwise inconsistent.
func Decompress(data []byte) ([]byte, string, error) {
	reader := bytes.NewReader(data)
	output := make([]byte, 0, len(data))
	extension := ""

	for index := 0; ; index++ {
		record, err := codec.ReadRecord(reader)
		if errors.Is(err, io.EOF) {
			if index == 0 {
				return nil, "", dcp.ErrMalformedStream.WithMessage("no records found")
			}
			return output, extension, nil
		} else if err != nil {
			return nil, "", fmt.Errorf("fragment %d: %w", index, err)
		}

		if index == 0 {
			extension = record.Extension
		}
		output = append(output, record.Decode()...)
	}
}
