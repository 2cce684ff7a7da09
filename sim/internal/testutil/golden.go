// Package testutil provides shared test infrastructure for the strategy
// simulator: the golden dataset of deterministic pit calculations and
// float assertion helpers.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
// Every case is computed from the default compound models at BasePace.
type GoldenDataset struct {
	BasePace   float64           `json:"base_pace"`
	Thresholds []GoldenThreshold `json:"thresholds"`
	PitLaps    []GoldenPitLap    `json:"pit_laps"`
}

// GoldenThreshold is one expected break-even lap time.
type GoldenThreshold struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	LapsRemaining int     `json:"laps_remaining"`
	Threshold     float64 `json:"threshold"`
}

// GoldenPitLap is one expected optimal pit-lap search result.
type GoldenPitLap struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	StintStart int     `json:"stint_start"`
	Lap        int     `json:"lap"`
	TotalTime  float64 `json:"total_time"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	if len(dataset.Thresholds) == 0 || len(dataset.PitLaps) == 0 {
		t.Fatal("Golden dataset is empty")
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
