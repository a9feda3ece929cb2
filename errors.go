package dcp

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Error is the interface implemented by every error this module returns. It
// lets callers refine a sentinel with extra context while keeping the sentinel
// reachable through [errors.Is].
type Error interface {
	error
	WithMessage(message string) Error
	Wrap(err error) Error
}

type baseDCPError string

const rootError = baseDCPError("")

// ErrInvalidConfig is returned when a tuning parameter is outside its
// documented bounds. It is reported before any data is processed.
var ErrInvalidConfig = rootError.WithMessage("Invalid configuration")

// ErrPlaceholderExhausted is returned when no unused, non-conflicting
// placeholder of at most the maximum pattern length exists for a fragment.
var ErrPlaceholderExhausted = rootError.WithMessage("Placeholder space exhausted")

// ErrValidationExhausted is returned when the encode/validate loop of a
// fragment does not reach a fixed point within its round limit.
var ErrValidationExhausted = rootError.WithMessage("Validation did not converge")

// ErrMalformedStream is returned by the decoder when a length field points past
// the end of the compressed data.
var ErrMalformedStream = rootError.WithMessage("Malformed compressed stream")

// ErrIOFailed is returned when reading or writing a file fails.
var ErrIOFailed = rootError.WithMessage("Input/output error")

func (e baseDCPError) Error() string {
	return string(e)
}

func (e baseDCPError) WithMessage(message string) Error {
	return customDCPError{
		message:       message,
		originalError: e,
	}
}

func (e baseDCPError) Wrap(err error) Error {
	return customDCPError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

// -----------------------------------------------------------------------------

type customDCPError struct {
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e customDCPError) Error() string {
	return e.message
}

func (e customDCPError) WithMessage(message string) Error {
	return customDCPError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e customDCPError) Wrap(err error) Error {
	return customDCPError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

func (e customDCPError) Unwrap() error {
	return e.originalError
}
