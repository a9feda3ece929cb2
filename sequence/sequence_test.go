package sequence_test

import (
	"testing"

	"github.com/dargueta/dcp/sequence"
	"github.com/stretchr/testify/assert"
)

type nextTestCase struct {
	Input    []byte
	Expected []byte
	Name     string
}

func TestNext(t *testing.T) {
	tests := []nextTestCase{
		{[]byte{0}, []byte{1}, "single byte"},
		{[]byte{0xfe}, []byte{0xff}, "single byte to max"},
		{[]byte{0xff}, []byte{0, 0}, "single byte overflow"},
		{[]byte{0, 0xff}, []byte{1, 0}, "carry"},
		{[]byte{0x12, 0xff, 0xff}, []byte{0x13, 0, 0}, "double carry"},
		{[]byte{0xff, 0xff}, []byte{0, 0, 0}, "two byte overflow"},
	}

	for _, test := range tests {
		t.Run(
			test.Name,
			func(t *testing.T) {
				input := sequence.New(test.Input)
				result := input.Next()
				assert.EqualValues(t, test.Expected, result)
				assert.EqualValues(t, test.Input, input, "input was modified")
			},
		)
	}
}

func TestLocations__NonOverlapping(t *testing.T) {
	seq := sequence.ByteSequence("aa")

	assert.Equal(t, []int{0, 2, 4}, seq.Locations([]byte("aaaaaaa"), 0))
	assert.Equal(t, []int{1, 3, 5}, seq.Locations([]byte("aaaaaaa"), 1))
	assert.Equal(t, []int{2, 5}, seq.Locations([]byte("xyaabaa"), 0))
	assert.Empty(t, seq.Locations([]byte("a"), 0))
	assert.Equal(t, 3, seq.Count([]byte("aaaaaaa")))
}

func TestConflicts(t *testing.T) {
	assert.True(t, sequence.ByteSequence{0}.Conflicts(sequence.ByteSequence{1, 0}))
	assert.True(t, sequence.ByteSequence{1, 0}.Conflicts(sequence.ByteSequence{0}))
	assert.True(t, sequence.ByteSequence{1, 0}.Conflicts(sequence.ByteSequence{1, 0}))
	assert.False(t, sequence.ByteSequence{1, 0}.Conflicts(sequence.ByteSequence{0, 1}))
	assert.False(t, sequence.ByteSequence{2}.Conflicts(sequence.ByteSequence{0, 1}))
}

func TestAppearsAt(t *testing.T) {
	data := []byte("hello")
	seq := sequence.ByteSequence("ll")

	assert.True(t, seq.AppearsAt(data, 2))
	assert.False(t, seq.AppearsAt(data, 3))
	assert.False(t, seq.AppearsAt(data, 4), "ran off the end")
	assert.False(t, seq.AppearsAt(data, -1))
}

func TestString(t *testing.T) {
	assert.Equal(t, "61 62 0A", sequence.ByteSequence("ab\n").String())
	assert.Equal(t, "", sequence.ByteSequence{}.String())
}
