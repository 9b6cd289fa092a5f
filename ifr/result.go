package ifr

import (
	"fmt"
	"time"
)

// Result is the outcome of one requirement evaluation. Value is in cms and is
// zero whenever Err is set; the host decides whether a failure aborts the run.
type Result struct {
	Reach    string
	Scenario ScenarioID
	Date     time.Time
	Rule     string
	Value    float64
	Err      error

	// Decision is set for successful functional-flows evaluations.
	Decision *Decision
}

// OK reports whether the evaluation succeeded.
func (r Result) OK() bool { return r.Err == nil }

// ValueMCM returns the requirement as a daily volume.
func (r Result) ValueMCM() float64 { return CMSToMCM(r.Value) }

// Failure describes a failed evaluation with the offending rule's identity.
func (r Result) Failure() string {
	if r.Err == nil {
		return ""
	}
	return fmt.Sprintf("ERROR for %s rule %q on %s (scenario %s): %v",
		r.Reach, r.Rule, r.Date.Format(dateLayout), r.Scenario, r.Err)
}
