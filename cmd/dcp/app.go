package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dargueta/dcp"
	"github.com/dargueta/dcp/codec"
	"github.com/dargueta/dcp/fragments"
	"github.com/urfave/cli/v2"
)

// Exit codes returned by the command.
const (
	exitFailure   = 1
	exitUsage     = 2
	exitMalformed = 3
	exitEncode    = 4
)

type mode int

const (
	modeCompress mode = iota
	modeUncompress
	modeRoundTrip
)

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "dcp",
		Usage:     "Compress files by replacing repeated byte patterns with short placeholders",
		UsageText: "dcp (-c | -u | -cu) [-pc N] [-pl N] [-fs N] [-workers N] [-stats FILE] [-verbose] FILE",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "c", Usage: "compress FILE to a .dcp file"},
			&cli.BoolFlag{Name: "u", Usage: "uncompress a .dcp FILE"},
			&cli.BoolFlag{Name: "cu", Usage: "compress FILE, then uncompress the result and verify it"},
			&cli.IntFlag{
				Name:  "pc",
				Value: dcp.DefaultMaxPaletteSize,
				Usage: fmt.Sprintf(
					"maximum palette entries per fragment [%d, %d]",
					dcp.MinPaletteSize,
					dcp.MaxPaletteSize,
				),
			},
			&cli.IntFlag{
				Name:  "pl",
				Value: dcp.DefaultMaxPatternLength,
				Usage: fmt.Sprintf(
					"maximum pattern length [%d, %d]",
					dcp.MinPatternLength,
					dcp.MaxPatternLength,
				),
			},
			&cli.IntFlag{
				Name:  "fs",
				Value: dcp.DefaultFragmentSize,
				Usage: fmt.Sprintf(
					"fragment size in bytes [%d, %d]",
					dcp.MinFragmentSize,
					dcp.MaxFragmentSize,
				),
			},
			&cli.IntFlag{Name: "workers", Value: 1, Usage: "number of fragments compressed at once"},
			&cli.StringFlag{Name: "stats", Usage: "write per-fragment statistics as CSV to `FILE`"},
			&cli.BoolFlag{Name: "verbose", Usage: "log progress to stderr"},
		},
		Action: run,
		OnUsageError: func(c *cli.Context, err error, _ bool) error {
			return usageError(c, err.Error())
		},
	}
}

func usageError(c *cli.Context, message string) error {
	_ = cli.ShowAppHelp(c)
	return cli.Exit(message, exitUsage)
}

func selectedMode(c *cli.Context) (mode, error) {
	selected := []mode{}
	for flag, m := range map[string]mode{"c": modeCompress, "u": modeUncompress, "cu": modeRoundTrip} {
		if c.Bool(flag) {
			selected = append(selected, m)
		}
	}
	if len(selected) != 1 {
		return 0, usageError(c, "exactly one of -c, -u, or -cu is required")
	}
	return selected[0], nil
}

func optionsFromFlags(c *cli.Context) (dcp.Options, error) {
	options := dcp.DefaultOptions()
	options.MaxPaletteSize = c.Int("pc")
	options.MaxPatternLength = c.Int("pl")
	options.FragmentSize = c.Int("fs")
	options.Workers = c.Int("workers")
	if c.Bool("verbose") {
		options.Logger = log.New(c.App.ErrWriter, "dcp: ", log.Ltime)
	}

	err := options.Validate()
	if err != nil {
		return options, usageError(c, err.Error())
	}
	if options.Workers < 1 {
		return options, usageError(c, fmt.Sprintf("workers must be positive, got %d", options.Workers))
	}
	return options, nil
}

func run(c *cli.Context) error {
	m, err := selectedMode(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return usageError(c, fmt.Sprintf("expected exactly one FILE, got %d", c.NArg()))
	}
	options, err := optionsFromFlags(c)
	if err != nil {
		return err
	}

	started := time.Now()
	path := c.Args().First()

	switch m {
	case modeCompress:
		_, _, err = compressFile(c.Context, path, c.String("stats"), options)
	case modeUncompress:
		_, err = uncompressFile(path, options)
	case modeRoundTrip:
		err = roundTripFile(c.Context, path, c.String("stats"), options)
	}
	if err != nil {
		return cli.Exit(err.Error(), exitCode(err))
	}

	options.Debugf("finished in %s", time.Since(started))
	return nil
}

// exitCode maps an error to the code the process exits with.
func exitCode(err error) int {
	switch {
	case errors.Is(err, dcp.ErrInvalidConfig):
		return exitUsage
	case errors.Is(err, dcp.ErrMalformedStream):
		return exitMalformed
	case errors.Is(err, dcp.ErrPlaceholderExhausted), errors.Is(err, dcp.ErrValidationExhausted):
		return exitEncode
	default:
		return exitFailure
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dcp.ErrIOFailed.Wrap(err)
	}
	return data, nil
}

func writeFile(path string, data []byte, options dcp.Options) error {
	err := os.WriteFile(path, data, 0o644)
	if err != nil {
		return dcp.ErrIOFailed.Wrap(err)
	}
	options.Debugf("wrote %d bytes to %s", len(data), path)
	return nil
}

// compressFile compresses the file at `path` and writes the result next to
// it. It returns the path written to and the original data.
func compressFile(
	ctx context.Context, path, statsPath string, options dcp.Options,
) (string, []byte, error) {
	data, err := readFile(path)
	if err != nil {
		return "", nil, err
	}
	options.Debugf("loaded %d bytes from %s (%s)", len(data), path, options)

	_, extension := splitExtension(path)
	compressed, stats, err := fragments.Compress(ctx, data, extension, options)
	if err != nil {
		return "", nil, err
	}

	outputPath, err := compressedPath(path)
	if err != nil {
		return "", nil, dcp.ErrIOFailed.Wrap(err)
	}
	err = writeFile(outputPath, compressed, options)
	if err != nil {
		return "", nil, err
	}

	if statsPath != "" {
		err = writeStats(statsPath, stats)
		if err != nil {
			return "", nil, err
		}
	}
	return outputPath, data, nil
}

func writeStats(path string, stats []fragments.FragmentStats) error {
	var buffer bytes.Buffer
	err := fragments.WriteStatsCSV(stats, &buffer)
	if err != nil {
		return fmt.Errorf("failed to serialize statistics: %w", err)
	}
	err = os.WriteFile(path, buffer.Bytes(), 0o644)
	if err != nil {
		return dcp.ErrIOFailed.Wrap(err)
	}
	return nil
}

// uncompressFile decompresses the file at `path` and writes the result next to
// it, using the extension stored in the file. It returns the path written to.
func uncompressFile(path string, options dcp.Options) (string, error) {
	data, err := readFile(path)
	if err != nil {
		return "", err
	}

	output, extension, err := fragments.Decompress(data)
	if err != nil {
		return "", err
	}

	outputPath, err := uncompressedPath(path, extension)
	if err != nil {
		return "", dcp.ErrIOFailed.Wrap(err)
	}
	return outputPath, writeFile(outputPath, output, options)
}

// roundTripFile compresses the file at `path`, uncompresses what it wrote, and
// checks the compressed file against the original one fragment at a time.
func roundTripFile(ctx context.Context, path, statsPath string, options dcp.Options) error {
	compressedFile, original, err := compressFile(ctx, path, statsPath, options)
	if err != nil {
		return err
	}

	_, err = uncompressFile(compressedFile, options)
	if err != nil {
		return err
	}

	file, err := os.Open(compressedFile)
	if err != nil {
		return dcp.ErrIOFailed.Wrap(err)
	}
	defer file.Close()

	err = verify(file, original)
	if err != nil {
		return fmt.Errorf("round trip of %s through %s failed: %w", path, compressedFile, err)
	}
	options.Debugf("verified %s against %s", compressedFile, path)
	return nil
}

// verify reads every record from `stream` and compares it against the matching
// slice of `original`. Read errors report the stream offset they happened near.
func verify(stream io.ReadSeeker, original []byte) error {
	offset := 0
	for index := 0; ; index++ {
		record, err := codec.ReadRecord(stream)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			position, _ := stream.Seek(0, io.SeekCurrent)
			return fmt.Errorf("fragment %d, near byte %d: %w", index, position, err)
		}

		decoded := record.Decode()
		end := offset + len(decoded)
		if end > len(original) || !bytes.Equal(decoded, original[offset:end]) {
			return fmt.Errorf(
				"fragment %d decodes to %d bytes that don't match the input at offset %d",
				index,
				len(decoded),
				offset,
			)
		}
		offset = end
	}

	if offset != len(original) {
		return fmt.Errorf("decoded %d bytes, expected %d", offset, len(original))
	}
	return nil
}
