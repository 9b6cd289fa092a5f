package ifr

import (
	"fmt"
	"sort"
)

// WaterYearType is the discrete runoff classification of a water year.
type WaterYearType string

const (
	Dry      WaterYearType = "dry"
	Moderate WaterYearType = "moderate"
	Wet      WaterYearType = "wet"
)

// validWaterYearTypes maps accepted year-type names.
var validWaterYearTypes = map[WaterYearType]bool{Dry: true, Moderate: true, Wet: true}

// IsValidWaterYearType returns true if name is a recognized year type.
func IsValidWaterYearType(name string) bool {
	return validWaterYearTypes[WaterYearType(name)]
}

// Metrics holds the functional-flows metrics for one water-year type.
// Magnitudes are in cfs, timings in day of water year, durations in days.
type Metrics struct {
	WetTim      float64
	SPTim       float64
	SPMag       float64
	FATim       float64
	FADur       float64
	FAMag       float64
	DSMag50     float64
	WetBFLMag50 float64
	WetBFLMag10 float64
	Peak2       float64
	Peak5       float64
	Peak10      float64
	PeakDur2    float64
	PeakDur5    float64
	PeakDur10   float64
}

// MetricColumns lists the column names of the metrics table in the order
// they appear in the reference data.
var MetricColumns = []string{
	"Wet_Tim", "SP_Tim", "SP_Mag", "FA_Tim", "FA_Dur", "FA_Mag", "DS_Mag_50",
	"Wet_BFL_Mag_50", "Wet_BFL_Mag_10", "Peak_2", "Peak_5", "Peak_10",
	"Peak_Dur_2", "Peak_Dur_5", "Peak_Dur_10",
}

func (m *Metrics) field(column string) *float64 {
	switch column {
	case "Wet_Tim":
		return &m.WetTim
	case "SP_Tim":
		return &m.SPTim
	case "SP_Mag":
		return &m.SPMag
	case "FA_Tim":
		return &m.FATim
	case "FA_Dur":
		return &m.FADur
	case "FA_Mag":
		return &m.FAMag
	case "DS_Mag_50":
		return &m.DSMag50
	case "Wet_BFL_Mag_50":
		return &m.WetBFLMag50
	case "Wet_BFL_Mag_10":
		return &m.WetBFLMag10
	case "Peak_2":
		return &m.Peak2
	case "Peak_5":
		return &m.Peak5
	case "Peak_10":
		return &m.Peak10
	case "Peak_Dur_2":
		return &m.PeakDur2
	case "Peak_Dur_5":
		return &m.PeakDur5
	case "Peak_Dur_10":
		return &m.PeakDur10
	}
	return nil
}

// Get returns a metric by its table column name.
func (m Metrics) Get(column string) (float64, error) {
	f := m.field(column)
	if f == nil {
		return 0, lookupErr("functional flows metrics", column)
	}
	return *f, nil
}

// Set assigns a metric by its table column name.
func (m *Metrics) Set(column string, v float64) error {
	f := m.field(column)
	if f == nil {
		return lookupErr("functional flows metrics", column)
	}
	*f = v
	return nil
}

// Peak returns the magnitude (cfs) and duration (days) of the flood with the
// given return interval.
func (m Metrics) Peak(returnInterval int) (magnitudeCFS, durationDays float64, err error) {
	switch returnInterval {
	case 2:
		return m.Peak2, m.PeakDur2, nil
	case 5:
		return m.Peak5, m.PeakDur5, nil
	case 10:
		return m.Peak10, m.PeakDur10, nil
	}
	return 0, 0, lookupErr("functional flows metrics", fmt.Sprintf("Peak_%d", returnInterval))
}

// MetricsTable is the read-only metrics table keyed by water-year type.
type MetricsTable map[WaterYearType]Metrics

// For returns the metrics row for a year type.
func (t MetricsTable) For(wyt WaterYearType) (Metrics, error) {
	m, ok := t[wyt]
	if !ok {
		return Metrics{}, lookupErr("functional flows metrics", wyt)
	}
	return m, nil
}

// Validate checks that every year type has a row and that timings are ordered.
func (t MetricsTable) Validate() error {
	types := []WaterYearType{Dry, Moderate, Wet}
	for _, wyt := range types {
		m, ok := t[wyt]
		if !ok {
			return fmt.Errorf("metrics table has no %q column", wyt)
		}
		if m.WetTim > m.SPTim {
			return fmt.Errorf("%s: Wet_Tim (%v) after SP_Tim (%v)", wyt, m.WetTim, m.SPTim)
		}
		if m.FADur < 0 || m.PeakDur2 < 0 || m.PeakDur5 < 0 || m.PeakDur10 < 0 {
			return fmt.Errorf("%s: durations must be non-negative", wyt)
		}
	}
	return nil
}

// FloodDefinition describes the flood pulse for one return interval.
type FloodDefinition struct {
	ReturnInterval int
	MagnitudeCFS   float64
	DurationDays   int
}

// MagnitudeMCM is the daily release of the pulse in mcm/day.
func (f FloodDefinition) MagnitudeMCM() float64 { return CFSToMCM(f.MagnitudeCFS) }

// VolumeMCM is the total pulse volume over its duration.
func (f FloodDefinition) VolumeMCM() float64 { return f.MagnitudeMCM() * float64(f.DurationDays) }

// FloodDefinitions returns the flood table derived from a metrics row for the
// given return intervals, ordered from highest to lowest interval. Intervals
// with zero configured duration are omitted.
func FloodDefinitions(m Metrics, intervals []int) ([]FloodDefinition, error) {
	ris := make([]int, len(intervals))
	copy(ris, intervals)
	sort.Sort(sort.Reverse(sort.IntSlice(ris)))

	defs := make([]FloodDefinition, 0, len(ris))
	for _, ri := range ris {
		mag, dur, err := m.Peak(ri)
		if err != nil {
			return nil, err
		}
		if int(dur) <= 0 {
			continue
		}
		defs = append(defs, FloodDefinition{ReturnInterval: ri, MagnitudeCFS: mag, DurationDays: int(dur)})
	}
	return defs, nil
}
