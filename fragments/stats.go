package fragments

import (
	"io"

	"github.com/gocarina/gocsv"
)

// FragmentStats describes how a single fragment compressed.
type FragmentStats struct {
	Index            int `csv:"fragment"`
	InputSize        int `csv:"input_bytes"`
	PayloadSize      int `csv:"payload_bytes"`
	RecordSize       int `csv:"record_bytes"`
	PaletteSize      int `csv:"palette_entries"`
	ValidationRounds int `csv:"validation_rounds"`
}

// Ratio returns the record size relative to the input size. Empty fragments
// report 0.
func (s FragmentStats) Ratio() float64 {
	if s.InputSize == 0 {
		return 0
	}
	return float64(s.RecordSize) / float64(s.InputSize)
}

// WriteStatsCSV writes one row per fragment, preceded by a header row.
func WriteStatsCSV(stats []FragmentStats, output io.Writer) error {
	return gocsv.Marshal(&stats, output)
}

// ReadStatsCSV parses statistics written by [WriteStatsCSV].
func ReadStatsCSV(input io.Reader) ([]FragmentStats, error) {
	var stats []FragmentStats
	err := gocsv.Unmarshal(input, &stats)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
