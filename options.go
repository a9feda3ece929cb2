package dcp

import (
	"fmt"
	"log"
)

// Bounds for the tuning parameters. Lengths and counts are serialized in one
// byte and fragment payload lengths in two, which is where the hard upper
// limits come from.
const (
	MinPatternLength = 2
	MaxPatternLength = 16

	MinPaletteSize = 0
	MaxPaletteSize = 255

	MinFragmentSize = 256
	MaxFragmentSize = 65535

	MaxExtensionLength = 255
)

const (
	DefaultMaxPatternLength    = 8
	DefaultMaxPaletteSize      = 255
	DefaultFragmentSize        = 16384
	DefaultMaxValidationRounds = 1 << 16
)

// FileExtension is the extension given to compressed files, including the dot.
const FileExtension = ".dcp"

// Options controls how data is compressed. Use [DefaultOptions] to get a value
// with every field populated.
type Options struct {
	// MaxPatternLength is the longest pattern the index will record, and also
	// the longest placeholder the allocator will try before giving up.
	MaxPatternLength int
	// MaxPaletteSize is the maximum number of dictionary entries per fragment.
	MaxPaletteSize int
	// FragmentSize is the maximum number of input bytes per fragment.
	FragmentSize int
	// MaxValidationRounds bounds the encode/validate loop of a single fragment.
	// It is not exposed on the command line.
	MaxValidationRounds int
	// Workers is the number of fragments compressed concurrently. Values less
	// than 1 are treated as 1.
	Workers int
	// Logger receives debug output. If nil, nothing is logged.
	Logger *log.Logger
}

// DefaultOptions returns the options used when nothing is overridden.
func DefaultOptions() Options {
	return Options{
		MaxPatternLength:    DefaultMaxPatternLength,
		MaxPaletteSize:      DefaultMaxPaletteSize,
		FragmentSize:        DefaultFragmentSize,
		MaxValidationRounds: DefaultMaxValidationRounds,
		Workers:             1,
	}
}

// Validate checks every tuning parameter against its bounds. The returned error,
// if any, wraps [ErrInvalidConfig].
func (o Options) Validate() error {
	if o.MaxPatternLength < MinPatternLength || o.MaxPatternLength > MaxPatternLength {
		return ErrInvalidConfig.WithMessage(
			fmt.Sprintf(
				"max pattern length must be in [%d, %d], got %d",
				MinPatternLength,
				MaxPatternLength,
				o.MaxPatternLength,
			),
		)
	}
	if o.MaxPaletteSize < MinPaletteSize || o.MaxPaletteSize > MaxPaletteSize {
		return ErrInvalidConfig.WithMessage(
			fmt.Sprintf(
				"max palette size must be in [%d, %d], got %d",
				MinPaletteSize,
				MaxPaletteSize,
				o.MaxPaletteSize,
			),
		)
	}
	if o.FragmentSize < MinFragmentSize || o.FragmentSize > MaxFragmentSize {
		return ErrInvalidConfig.WithMessage(
			fmt.Sprintf(
				"fragment size must be in [%d, %d], got %d",
				MinFragmentSize,
				MaxFragmentSize,
				o.FragmentSize,
			),
		)
	}
	if o.MaxValidationRounds < 1 {
		return ErrInvalidConfig.WithMessage(
			fmt.Sprintf("max validation rounds must be positive, got %d", o.MaxValidationRounds),
		)
	}
	return nil
}

// String summarizes the tuning parameters for error messages.
func (o Options) String() string {
	return fmt.Sprintf(
		"pattern length %d, palette size %d, fragment size %d",
		o.MaxPatternLength,
		o.MaxPaletteSize,
		o.FragmentSize,
	)
}

// Debugf writes a formatted message to the configured logger, if there is one.
func (o Options) Debugf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}
