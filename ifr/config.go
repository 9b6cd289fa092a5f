package ifr

import "fmt"

// EngineConfig groups the functional-flows engine tunables.
type EngineConfig struct {
	FloodIntervals       []int         // candidate return intervals; evaluated highest first
	RecessionRampRate    float64       // max daily recession after spring recession onset
	TwoYearFloodDays     float64       // days of Peak_2 forming the gate-closing reference volume
	InitialWaterYearType WaterYearType // year type before the first October 1
}

// DefaultEngineConfig returns the reference configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		FloodIntervals:       []int{10, 5, 2},
		RecessionRampRate:    DefaultRecessionRampRate,
		TwoYearFloodDays:     6,
		InitialWaterYearType: Moderate,
	}
}

// Validate checks intervals and parameter ranges.
func (c EngineConfig) Validate() error {
	for _, ri := range c.FloodIntervals {
		if ri != 2 && ri != 5 && ri != 10 {
			return fmt.Errorf("unsupported flood return interval %d", ri)
		}
	}
	if c.RecessionRampRate < 0 || c.RecessionRampRate > 1 {
		return fmt.Errorf("recession ramp rate must be in [0, 1], got %f", c.RecessionRampRate)
	}
	if c.TwoYearFloodDays <= 0 {
		return fmt.Errorf("two-year flood days must be positive, got %f", c.TwoYearFloodDays)
	}
	if !validWaterYearTypes[c.InitialWaterYearType] {
		return fmt.Errorf("unknown initial water year type %q", c.InitialWaterYearType)
	}
	return nil
}

// ReachKind selects whether a reach may run enhanced IFR policies.
type ReachKind string

const (
	Baseline ReachKind = "baseline"
	Enhanced ReachKind = "enhanced"
)

// Mode is the host model's time resolution.
type Mode string

const (
	Scheduling Mode = "scheduling"
	Planning   Mode = "planning"
)

// ValidReachKinds is the set of recognized reach kinds.
var ValidReachKinds = map[ReachKind]bool{"": true, Baseline: true, Enhanced: true}

// ValidModes is the set of recognized model modes.
var ValidModes = map[Mode]bool{"": true, Scheduling: true, Planning: true}

// PolicyConfig configures the scenario policy selector for one reach.
type PolicyConfig struct {
	Reach              string    // reach name, reported with failures
	Kind               ReachKind // "" means enhanced
	Mode               Mode      // "" means scheduling
	PercentNaturalFlow float64   // fraction of natural flow for the percentage policy
}

// DefaultPolicyConfig returns an enhanced, scheduling-mode reach using 40% of
// natural flow for the percentage policy.
func DefaultPolicyConfig(reach string) PolicyConfig {
	return PolicyConfig{Reach: reach, Kind: Enhanced, Mode: Scheduling, PercentNaturalFlow: 0.4}
}

// Validate checks names and ranges.
func (c PolicyConfig) Validate() error {
	if !ValidReachKinds[c.Kind] {
		return fmt.Errorf("unknown reach kind %q", c.Kind)
	}
	if !ValidModes[c.Mode] {
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.PercentNaturalFlow < 0 || c.PercentNaturalFlow > 1 {
		return fmt.Errorf("percent of natural flow must be in [0, 1], got %f", c.PercentNaturalFlow)
	}
	return nil
}
