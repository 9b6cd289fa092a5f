package ifr

import "time"

// FlowPeriod is the hydrologic regime period a day belongs to.
type FlowPeriod int

const (
	DrySeason FlowPeriod = iota
	FallPulse
	WetSeason
	SpringRecession
)

var flowPeriodNames = map[FlowPeriod]string{
	DrySeason:       "dry season",
	FallPulse:       "fall pulse",
	WetSeason:       "wet season",
	SpringRecession: "spring recession",
}

func (p FlowPeriod) String() string {
	if s, ok := flowPeriodNames[p]; ok {
		return s
	}
	return "unknown"
}

// ScenarioID identifies a scenario timeline.
type ScenarioID string

// ScenarioState is the recurrent per-scenario state of the functional-flows
// engine. Every field is committed once per successful evaluation.
type ScenarioState struct {
	WaterYearType      WaterYearType
	CurrentFlowPeriod  FlowPeriod
	OpenWetSeasonGates bool
	PrevRequirementCMS float64
	FloodDays          int
	FloodDuration      int
	PrevFloodMCM       float64
	FloodYear          int

	// LastDate is the date of the most recent evaluation, successful or not.
	LastDate time.Time
}

// newScenarioState returns the state a scenario starts with before its first
// evaluation.
func newScenarioState(initial WaterYearType) *ScenarioState {
	return &ScenarioState{
		WaterYearType:      initial,
		CurrentFlowPeriod:  DrySeason,
		OpenWetSeasonGates: true,
	}
}

// FloodActive reports whether a flood pulse is currently selected.
func (s ScenarioState) FloodActive() bool {
	return s.FloodYear != 0
}

// resetFlood clears all flood-pulse fields.
func (s *ScenarioState) resetFlood() {
	s.PrevFloodMCM = 0
	s.FloodDays = 0
	s.FloodDuration = 0
	s.FloodYear = 0
}
