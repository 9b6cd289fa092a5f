package ifr

import "time"

// wetSeasonGate passes the full natural flow until the year's gate-closing
// condition fires, then holds the year-type baseflow for the rest of the wet
// season. The gate only reopens at the start of the next water year.
//
// Dry years close on the previous day's realized flow reaching Wet_BFL_Mag_50.
// Other years close once the realized volume since Wet_Tim reaches the 2-year
// flood reference volume (Peak_2 over TwoYearFloodDays).
func wetSeasonGate(c *dayContext) float64 {
	st, m := c.state, c.metrics

	if st.OpenWetSeasonGates {
		if st.WaterYearType == Dry {
			if MCMToCFS(c.prevFlowMCM) >= m.WetBFLMag50 {
				st.OpenWetSeasonGates = false
			}
		} else {
			antecedent := AntecedentWetSeasonMCM(c.date, c.dowy, m, c.realized)
			if antecedent >= TwoYearFloodReferenceMCM(m, c.cfg.TwoYearFloodDays) {
				st.OpenWetSeasonGates = false
			}
		}
		c.gateClosed = !st.OpenWetSeasonGates
	}

	if st.OpenWetSeasonGates {
		return c.naturalMCM
	}
	return CFSToMCM(WetSeasonBaseflowCFS(st.WaterYearType, m))
}

// WetSeasonBaseflowCFS is the baseflow held once the gate has closed.
func WetSeasonBaseflowCFS(wyt WaterYearType, m Metrics) float64 {
	if wyt == Dry {
		return m.WetBFLMag50
	}
	return m.WetBFLMag10
}

// AntecedentWetSeasonMCM sums realized flow over the wet_season_days recorded
// days before date, where wet_season_days = dowy - Wet_Tim + 1.
func AntecedentWetSeasonMCM(date time.Time, dowy int, m Metrics, realized FlowRecorder) float64 {
	if realized == nil {
		return 0
	}
	days := int(float64(dowy) - m.WetTim + 1)
	if days < 1 {
		return 0
	}
	return realized.Sum(date.AddDate(0, 0, -days), date.AddDate(0, 0, -1))
}

// TwoYearFloodReferenceMCM is the 2-year flood expressed as a volume over a
// fixed number of days.
func TwoYearFloodReferenceMCM(m Metrics, days float64) float64 {
	return CFSToMCM(m.Peak2) * days
}
