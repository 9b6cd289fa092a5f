// Package trace provides per-day decision recording for requirement runs.
// This package has no dependencies on ifr/ — it stores pure data types.
package trace

import "time"

// DayRecord captures one scenario day's requirement and how it was reached.
// Functional-flows fields are zero for other rules.
type DayRecord struct {
	Scenario       string
	Date           time.Time
	DOWY           int
	Rule           string
	RequirementCMS float64

	WaterYearType string
	Period        string
	PeriodMCM     float64
	FloodMCM      float64
	NaturalMCM    float64
	GateOpen      bool
	GateClosed    bool // gate closed on this day
	FloodYear     int  // return interval of the active pulse, 0 if none
	FloodDays     int
	FloodStarted  bool
}

// FailureRecord captures a failed evaluation that the run logged and skipped.
type FailureRecord struct {
	Scenario string
	Date     time.Time
	Rule     string
	Reason   string
}
