package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dargueta/dcp"
	"github.com/dargueta/dcp/dictionary"
	"github.com/dargueta/dcp/sequence"
	"github.com/noxer/bytewriter"
)

// MaxPayloadLength is the largest payload a record can carry, since its length
// is stored in two bytes.
const MaxPayloadLength = 0xffff

// Record is one compressed fragment as stored on disk:
//
//	extLen(1) extension(extLen) payloadLen(2, big endian) paletteSize(1)
//	[placeholderLen(1) placeholder patternLen(1) pattern] * paletteSize
//	payload(payloadLen)
type Record struct {
	// Extension is the original file's extension without the leading dot.
	Extension string
	Palette   dictionary.Palette
	Payload   []byte
}

// Size returns the exact number of bytes the record occupies when serialized.
func (r Record) Size() int {
	return 1 + len(r.Extension) + 2 + r.Palette.DefinitionSize() + len(r.Payload)
}

func checkFieldLength(name string, length, limit int) error {
	if length > limit {
		return dcp.ErrInvalidConfig.WithMessage(
			fmt.Sprintf("%s is %d bytes, can't be more than %d", name, length, limit),
		)
	}
	return nil
}

func checkPalette(palette dictionary.Palette) error {
	err := checkFieldLength("palette", len(palette), dcp.MaxPaletteSize)
	if err != nil {
		return err
	}
	for i, entry := range palette {
		if entry.Placeholder.Len() == 0 {
			return dcp.ErrInvalidConfig.WithMessage(
				fmt.Sprintf("placeholder of palette entry %d is empty", i))
		}
		err = checkFieldLength(fmt.Sprintf("placeholder %d", i), entry.Placeholder.Len(), 0xff)
		if err != nil {
			return err
		}
		err = checkFieldLength(fmt.Sprintf("pattern %d", i), entry.Pattern.Len(), 0xff)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeField writes `data` unless it's empty. A bytewriter over a full slice
// rejects even zero-length writes, and a field can end the buffer.
func writeField(writer io.Writer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	_, err := writer.Write(data)
	return err
}

func writePalette(writer io.Writer, palette dictionary.Palette) error {
	err := writeField(writer, []byte{byte(len(palette))})
	if err != nil {
		return err
	}

	for _, entry := range palette {
		err = writeField(writer, []byte{byte(entry.Placeholder.Len())})
		if err != nil {
			return err
		}
		err = writeField(writer, entry.Placeholder)
		if err != nil {
			return err
		}
		err = writeField(writer, []byte{byte(entry.Pattern.Len())})
		if err != nil {
			return err
		}
		err = writeField(writer, entry.Pattern)
		if err != nil {
			return err
		}
	}
	return nil
}

// MarshalPalette serializes a palette on its own: the entry count followed by
// every entry, as it appears inside a record.
func MarshalPalette(palette dictionary.Palette) ([]byte, error) {
	if err := checkPalette(palette); err != nil {
		return nil, err
	}

	output := make([]byte, palette.DefinitionSize())
	err := writePalette(bytewriter.New(output), palette)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// MarshalBinary serializes the record.
func (r Record) MarshalBinary() ([]byte, error) {
	output := make([]byte, r.Size())
	_, err := r.MarshalTo(output)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// MarshalTo serializes the record into the start of `buffer` and returns the
// number of bytes written. `buffer` must hold at least [Record.Size] bytes.
func (r Record) MarshalTo(buffer []byte) (int, error) {
	err := checkFieldLength("extension", len(r.Extension), dcp.MaxExtensionLength)
	if err != nil {
		return 0, err
	}
	err = checkFieldLength("payload", len(r.Payload), MaxPayloadLength)
	if err != nil {
		return 0, err
	}
	err = checkPalette(r.Palette)
	if err != nil {
		return 0, err
	}
	if len(buffer) < r.Size() {
		return 0, fmt.Errorf(
			"buffer is %d bytes, record needs %d: %w",
			len(buffer),
			r.Size(),
			io.ErrShortBuffer,
		)
	}

	writer := bytewriter.New(buffer[:r.Size()])
	err = writeField(writer, append([]byte{byte(len(r.Extension))}, r.Extension...))
	if err != nil {
		return 0, err
	}
	err = binary.Write(writer, binary.BigEndian, uint16(len(r.Payload)))
	if err != nil {
		return 0, err
	}
	err = writePalette(writer, r.Palette)
	if err != nil {
		return 0, err
	}
	err = writeField(writer, r.Payload)
	if err != nil {
		return 0, err
	}
	return r.Size(), nil
}

// readField reads exactly len(buffer) bytes. Running out of input partway
// through a record is always an error, never a clean EOF.
func readField(reader io.Reader, buffer []byte, field string) error {
	_, err := io.ReadFull(reader, buffer)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return dcp.ErrMalformedStream.
			WithMessage(fmt.Sprintf("truncated %s", field)).
			Wrap(io.ErrUnexpectedEOF)
	}
	return dcp.ErrIOFailed.Wrap(err)
}

func readLengthPrefixed(reader io.Reader, field string) ([]byte, error) {
	var length [1]byte
	err := readField(reader, length[:], field+" length")
	if err != nil {
		return nil, err
	}

	data := make([]byte, length[0])
	err = readField(reader, data, field)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ReadRecord reads the next record from `reader`. If the reader is already at
// the end of its data, it returns [io.EOF]. A record that's cut short gives an
// error wrapping [dcp.ErrMalformedStream] and [io.ErrUnexpectedEOF].
func ReadRecord(reader io.Reader) (Record, error) {
	var extLength [1]byte
	_, err := io.ReadFull(reader, extLength[:])
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, dcp.ErrIOFailed.Wrap(err)
	}

	extension := make([]byte, extLength[0])
	err = readField(reader, extension, "extension")
	if err != nil {
		return Record{}, err
	}

	var header [3]byte
	err = readField(reader, header[:], "record header")
	if err != nil {
		return Record{}, err
	}
	payloadLength := binary.BigEndian.Uint16(header[:2])
	paletteSize := int(header[2])

	palette := make(dictionary.Palette, paletteSize)
	for i := range palette {
		placeholder, err := readLengthPrefixed(reader, fmt.Sprintf("placeholder %d", i))
		if err != nil {
			return Record{}, err
		}
		if len(placeholder) == 0 {
			return Record{}, dcp.ErrMalformedStream.WithMessage(
				fmt.Sprintf("placeholder %d is empty", i))
		}

		pattern, err := readLengthPrefixed(reader, fmt.Sprintf("pattern %d", i))
		if err != nil {
			return Record{}, err
		}

		palette[i] = dictionary.Entry{
			Placeholder: sequence.ByteSequence(placeholder),
			Pattern:     sequence.ByteSequence(pattern),
		}
	}

	payload := make([]byte, payloadLength)
	err = readField(reader, payload, "payload")
	if err != nil {
		return Record{}, err
	}

	return Record{
		Extension: string(extension),
		Palette:   palette,
		Payload:   payload,
	}, nil
}
