package runner

import (
	"fmt"

	"github.com/sierra-flows/ifrsim/ifr"
	"github.com/sierra-flows/ifrsim/internal/store"
)

// Save writes the run, every scenario day and the final functional-flows
// states to db. run.ID is set from the output.
func (o *Output) Save(db *store.DB, run store.Run) error {
	run.ID = o.RunID
	if err := db.SaveRun(run); err != nil {
		return err
	}

	var rows []store.ResultRow
	for _, s := range o.Scenarios {
		for _, res := range s.Results {
			rows = append(rows, store.NewResultRow(o.RunID, res))
		}
	}
	if err := db.SaveResults(rows); err != nil {
		return fmt.Errorf("run %s: %w", o.RunID, err)
	}

	states := make([]store.StateRow, 0, len(o.States))
	for _, s := range o.Scenarios {
		if st, ok := o.States[s.Scenario.ID]; ok {
			states = append(states, store.NewStateRow(o.RunID, s.Scenario.ID, st))
		}
	}
	if err := db.SaveStates(states); err != nil {
		return fmt.Errorf("run %s: %w", o.RunID, err)
	}
	return nil
}

// Requirements returns a scenario's daily requirement values (cms) in date
// order, or nil when the scenario is not part of the run.
func (o *Output) Requirements(id ifr.ScenarioID) []float64 {
	for _, s := range o.Scenarios {
		if s.Scenario.ID != id {
			continue
		}
		out := make([]float64, len(s.Results))
		for i, r := range s.Results {
			out[i] = r.Value
		}
		return out
	}
	return nil
}
