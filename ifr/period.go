package ifr

import (
	"time"
)

// dayContext carries everything a period handler may read for one
// (date, scenario) evaluation. state is the working copy that is committed
// only if the whole evaluation succeeds.
type dayContext struct {
	date        time.Time
	dowy        int
	metrics     Metrics
	state       *ScenarioState
	naturalMCM  float64
	prevFlowMCM float64
	realized    FlowRecorder
	cfg         EngineConfig

	// floods and forecast are the flood-pulse tracker's only view of the
	// natural flow series.
	floods   []FloodDefinition
	forecast ForecastWindow

	gateClosed bool
}

// periodHandler returns the period's requirement magnitude in mcm/day.
type periodHandler func(c *dayContext) float64

var periodHandlers = map[FlowPeriod]periodHandler{
	DrySeason:       dryBaseflow,
	FallPulse:       fallPulse,
	WetSeason:       wetSeasonGate,
	SpringRecession: springRecession,
}

// ClassifyPeriod returns the flow period of dowy under a year type's metrics.
//
//	dowy < Wet_Tim                      dry season (fall pulse inside FA_Tim..FA_Tim+FA_Dur-1)
//	Wet_Tim <= dowy < SP_Tim            wet season
//	dowy >= SP_Tim                      spring recession (onset on SP_Tim, ramp-down after)
func ClassifyPeriod(dowy int, m Metrics) FlowPeriod {
	d := float64(dowy)
	switch {
	case d < m.WetTim:
		if m.FATim <= d && d <= m.FATim+m.FADur-1 {
			return FallPulse
		}
		return DrySeason
	case d < m.SPTim:
		return WetSeason
	default:
		return SpringRecession
	}
}

// InWetSeason reports whether dowy falls in the wet-season flood window.
func InWetSeason(dowy int, m Metrics) bool {
	d := float64(dowy)
	return m.WetTim <= d && d < m.SPTim
}

func dryBaseflow(c *dayContext) float64 {
	return CFSToMCM(c.metrics.DSMag50)
}

func fallPulse(c *dayContext) float64 {
	return CFSToMCM(c.metrics.FAMag)
}

// springRecession releases SP_Mag on the onset day and afterwards recedes
// from the previous day's realized flow, floored at the dry-season baseflow.
func springRecession(c *dayContext) float64 {
	if float64(c.dowy) == c.metrics.SPTim {
		return CFSToMCM(c.metrics.SPMag)
	}
	prevCFS := MCMToCFS(c.prevFlowMCM)
	return CFSToMCM(RampDown(c.metrics.DSMag50, prevCFS, c.cfg.RecessionRampRate))
}
