package ifr

import "fmt"

// floodOutcome is the flood-pulse tracker's contribution for one day.
type floodOutcome struct {
	MCM     float64
	Started bool
}

// trackFlood overlays flood pulses on the wet-season window.
//
// The tracker runs inside the wet season and on any day after it while a
// pulse magnitude is still held. An active pulse continues at its stored
// magnitude while FloodDays is below its Peak_Dur. Otherwise candidates are
// evaluated from the highest return interval down over the granted forecast
// window and the first whose forecast volume meets the target is selected.
// FloodDays keeps counting across consecutive selections and is cleared only
// when no candidate qualifies. A lower-interval pulse in progress therefore
// blocks detection of a higher one until it finishes.
func trackFlood(c *dayContext) (floodOutcome, error) {
	st, m := c.state, c.metrics

	if !InWetSeason(c.dowy, m) && st.PrevFloodMCM == 0 {
		return floodOutcome{}, nil
	}

	if st.FloodActive() {
		_, dur, err := m.Peak(st.FloodYear)
		if err != nil {
			return floodOutcome{}, err
		}
		if float64(st.FloodDays) < dur {
			st.FloodDays++
			return floodOutcome{MCM: st.PrevFloodMCM}, nil
		}
	}

	for _, def := range c.floods {
		forecast, err := c.forecast.Sum(def.DurationDays)
		if err != nil {
			return floodOutcome{}, fmt.Errorf("%d-year flood forecast: %w", def.ReturnInterval, err)
		}
		if forecast < def.VolumeMCM() {
			continue
		}
		mag := def.MagnitudeMCM()
		if mag == 0 {
			break
		}
		st.FloodYear = def.ReturnInterval
		st.FloodDuration = def.DurationDays
		st.FloodDays++
		st.PrevFloodMCM = mag
		return floodOutcome{MCM: mag, Started: true}, nil
	}

	st.resetFlood()
	return floodOutcome{}, nil
}

func maxFloodDuration(defs []FloodDefinition) int {
	longest := 0
	for _, d := range defs {
		longest = max(longest, d.DurationDays)
	}
	return longest
}
