// Package testutil provides shared test infrastructure for the requirement
// engine. It holds the golden requirement dataset types and assertion helpers
// used across ifr/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/golden_requirements.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one functional-flows scenario timeline with its expected
// daily requirements. The reach is passive: realized flow equals the
// requirement.
type GoldenTestCase struct {
	Name       string             `json:"name"`
	Start      string             `json:"start"`
	NaturalCFS float64            `json:"natural_flow_cfs"`
	Overrides  map[string]float64 `json:"natural_flow_overrides_cfs"` // dowy → cfs
	Annual     map[string]float64 `json:"annual_flow"`                // water year → volume
	Metrics    map[string]float64 `json:"metrics"`                    // column → value, shared by every year type
	InitialCFS float64            `json:"initial_flow_cfs"`

	ExpectedCFS []float64 `json:"expected_requirement_cfs"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", "golden_requirements.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
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
