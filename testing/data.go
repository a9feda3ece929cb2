package testing

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/dargueta/dcp"
	"github.com/dargueta/dcp/codec"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// RandomBytes returns `size` bytes of random data. It is guaranteed to either
// return a valid slice or fail the test and abort.
func RandomBytes(t *testing.T, size int) []byte {
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoErrorf(t, err, "failed to generate %d random bytes", size)
	return data
}

// RepeatedPhrases builds `size` bytes of data that compresses well: a handful
// of random phrases of varying length, repeated in a fixed order and separated
// by single random bytes.
func RepeatedPhrases(t *testing.T, size int) []byte {
	phrases := make([][]byte, 5)
	for i := range phrases {
		phrases[i] = RandomBytes(t, 3+2*i)
	}
	separators := RandomBytes(t, 64)

	data := make([]byte, 0, size+16)
	for i := 0; len(data) < size; i++ {
		data = append(data, phrases[i%len(phrases)]...)
		data = append(data, separators[i%len(separators)])
	}
	return data[:size]
}

// EncodeFragment encodes a single fragment into a record with the given
// extension and returns its serialized form. The record is marshaled into a
// buffer of exactly [codec.Record.Size] bytes, so a size that's too small fails
// the test, and it must match what [codec.Record.MarshalBinary] produces.
func EncodeFragment(
	t *testing.T, fragment []byte, extension string, options dcp.Options,
) []byte {
	encoding, err := codec.Encode(fragment, options)
	require.NoError(t, err)

	record := codec.Record{
		Extension: extension,
		Palette:   encoding.Palette,
		Payload:   encoding.Payload,
	}
	buffer := make([]byte, record.Size())
	written, err := record.MarshalTo(buffer)
	require.NoError(t, err, "record doesn't fit in its reported size")
	require.Equal(t, record.Size(), written, "record is smaller than its reported size")

	serialized, err := record.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, serialized, buffer, "MarshalTo and MarshalBinary disagree")
	return buffer
}

// LoadCompressedStream wraps compressed data in a stream the way a caller
// reading from a file would see it.
//
//   - Writes to the stream do not affect `compressed`.
//   - The stream's size is fixed to `len(compressed)`. Attempting to write past
//     the end triggers an error.
func LoadCompressedStream(t *testing.T, compressed []byte) io.ReadWriteSeeker {
	require.Greater(t, len(compressed), 0, "compressed data is empty")
	return bytesextra.NewReadWriteSeeker(append([]byte(nil), compressed...))
}

// RequireDecodesTo reads every record from `stream` and fails the test unless
// the concatenated output equals `expected`.
func RequireDecodesTo(t *testing.T, stream io.Reader, expected []byte) {
	var output []byte
	for index := 0; ; index++ {
		record, err := codec.ReadRecord(stream)
		if errors.Is(err, io.EOF) {
			require.Greaterf(t, index, 0, "stream has no records")
			break
		}
		require.NoErrorf(t, err, "failed to read record %d", index)
		output = append(output, record.Decode()...)
	}

	require.Equal(t, len(expected), len(output), "decoded length is wrong")
	require.True(t, bytes.Equal(expected, output), "decoded data is wrong")
}
