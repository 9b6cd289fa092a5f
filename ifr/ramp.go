package ifr

import "math"

// Common recession rates.
const (
	// DefaultDownRampRate bounds the daily recession of ramped fixed requirements.
	DefaultDownRampRate = 0.25
	// DefaultRecessionRampRate bounds the daily recession after spring recession onset.
	DefaultRecessionRampRate = 0.07
)

// RampDown returns value unless that would drop more than rate (a fraction
// per day) below previous, in which case it returns previous*(1-rate). Flow
// may be held or raised freely. value and previous must share a unit.
func RampDown(value, previous, rate float64) float64 {
	return math.Max(value, previous*(1-rate))
}

// RampedRule bounds the recession of another rule's requirement relative to
// the reach's realized flow on the previous day.
type RampedRule struct {
	Inner Rule
	Rate  float64
	// InitialCMS seeds the previous flow on the first simulated day. When nil
	// the inner rule's own value is used, so the first day is never clipped.
	InitialCMS *float64
}

// Name implements Rule.
func (r *RampedRule) Name() string {
	return r.Inner.Name() + "+ramp"
}

// Requirement implements Rule.
func (r *RampedRule) Requirement(in Inputs) (float64, error) {
	v, err := r.Inner.Requirement(in)
	if err != nil {
		return 0, err
	}
	var prev float64
	switch {
	case !in.FirstStep:
		prev = MCMToCMS(in.PrevFlowMCM)
	case r.InitialCMS != nil:
		prev = *r.InitialCMS
	default:
		prev = v
	}
	return RampDown(v, prev, r.Rate), nil
}
