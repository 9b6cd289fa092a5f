// Package ifr computes dynamic minimum instream-flow requirements (IFR) for a
// regulated river reach, one (date, scenario) evaluation at a time.
//
// # Reading Guide
//
// Start with these files to understand the functional-flows engine:
//   - dowy.go, wateryear.go: water-year calendar and year-type classification
//   - period.go: the flow-period state machine (one handler per period)
//   - gate.go, flood.go: wet-season gate controller and flood-pulse tracker
//   - engine.go: the requirement combiner and per-scenario state ownership
//   - policy.go: the scenario policy selector returning a Result
//
// # Units
//
// Tables are specified in cfs; the engine works internally in mcm/day and
// returns cms. Conversions use the fixed factors CFSPerCMS (35.315) and
// MCMPerDayPerCMS (0.0864), see units.go.
//
// # State
//
// Every scenario owns exactly one ScenarioState. Evaluations for a scenario
// must arrive in strictly increasing daily order; different scenarios are
// independent and may be evaluated from different goroutines.
//
// Sub-packages:
//   - ifr/data/: CSV loaders for the flow series and metrics table
//   - ifr/runner/: scenario timeline runner used by the CLI
//   - ifr/trace/: per-day decision records and run summaries
package ifr
