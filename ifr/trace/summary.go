package trace

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TraceSummary aggregates statistics from a RunTrace.
type TraceSummary struct {
	TotalDays          int            `json:"total_days"`
	FailureCount       int            `json:"failures"`
	Scenarios          int            `json:"scenarios"`
	PeriodDays         map[string]int `json:"period_days"` // flow period → days
	GateClosures       int            `json:"gate_closures"`
	FloodPulses        map[int]int    `json:"flood_pulses"` // return interval → pulses started
	FloodDays          int            `json:"flood_days"`   // days with an active flood pulse
	MeanRequirementCMS float64        `json:"mean_requirement_cms"`
	MaxRequirementCMS  float64        `json:"max_requirement_cms"`
}

// Summarize computes aggregate statistics from a RunTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RunTrace) *TraceSummary {
	summary := &TraceSummary{
		PeriodDays:  make(map[string]int),
		FloodPulses: make(map[int]int),
	}
	if rt == nil {
		return summary
	}

	summary.TotalDays = len(rt.Days)
	summary.FailureCount = len(rt.Failures)

	scenarios := make(map[string]bool)
	requirements := make([]float64, 0, len(rt.Days))
	for _, d := range rt.Days {
		scenarios[d.Scenario] = true
		requirements = append(requirements, d.RequirementCMS)
		if d.Period != "" {
			summary.PeriodDays[d.Period]++
		}
		if d.GateClosed {
			summary.GateClosures++
		}
		if d.FloodStarted {
			summary.FloodPulses[d.FloodYear]++
		}
		if d.FloodYear != 0 {
			summary.FloodDays++
		}
	}
	for _, f := range rt.Failures {
		scenarios[f.Scenario] = true
	}
	summary.Scenarios = len(scenarios)

	if len(requirements) > 0 {
		summary.MeanRequirementCMS = stat.Mean(requirements, nil)
		summary.MaxRequirementCMS = floats.Max(requirements)
	}
	return summary
}
