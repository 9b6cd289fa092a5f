package ifr

import (
	"fmt"
	"math"
	"sort"
)

// TercileProbabilities are the quantiles whose thresholds a year's forecast
// must meet to move up one year type.
var TercileProbabilities = []float64{0, 0.33, 0.66}

// waterYearTypes maps the number of thresholds met to a year type.
var waterYearTypes = map[int]WaterYearType{1: Dry, 2: Moderate, 3: Wet}

// Classifier assigns a WaterYearType to a water year from an annual flow
// forecast, assuming perfect foresight of the year's total.
type Classifier struct {
	annual     *AnnualSeries
	thresholds []float64
}

// NewClassifier computes tercile thresholds over the whole annual series.
func NewClassifier(annual *AnnualSeries) (*Classifier, error) {
	values := annual.Values()
	if len(values) == 0 {
		return nil, fmt.Errorf("annual series %q is empty", annual.Name)
	}
	thresholds := make([]float64, len(TercileProbabilities))
	for i, p := range TercileProbabilities {
		thresholds[i] = Quantile(values, p)
	}
	return &Classifier{annual: annual, thresholds: thresholds}, nil
}

// Thresholds returns the tercile thresholds in ascending probability order.
func (c *Classifier) Thresholds() []float64 {
	out := make([]float64, len(c.thresholds))
	copy(out, c.thresholds)
	return out
}

// Classify returns the year type of water year wy.
func (c *Classifier) Classify(wy int) (WaterYearType, error) {
	v, err := c.annual.At(wy)
	if err != nil {
		return "", err
	}
	met := 0
	for _, q := range c.thresholds {
		if v >= q {
			met++
		}
	}
	// The 0th percentile is the series minimum, so at least one threshold is
	// met for any year in the series.
	if met < 1 {
		met = 1
	}
	return waterYearTypes[met], nil
}

// Quantile returns the p-quantile of values using linear interpolation
// between closest ranks, position p*(n-1) in the sorted data.
func Quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
