package ifr

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// Inputs is everything the host supplies for one (date, scenario) evaluation.
type Inputs struct {
	Date     time.Time
	Scenario Scenario
	// PrevFlowMCM is the reach's realized flow on the previous day (mcm/day).
	// On the first simulated day it is the host's seed value.
	PrevFlowMCM float64
	// FirstStep marks the first simulated day of the scenario.
	FirstStep bool
	// Realized is the reach's realized flow history for this scenario.
	Realized FlowRecorder
}

// Decision describes how a functional-flows requirement was reached.
type Decision struct {
	Date           time.Time
	DOWY           int
	WaterYearType  WaterYearType
	Period         FlowPeriod
	PeriodMCM      float64
	FloodMCM       float64
	NaturalMCM     float64
	RequirementCMS float64

	Reclassified bool
	GateOpen     bool
	GateClosed   bool // the gate closed on this day
	FloodYear    int
	FloodDays    int
	FloodStarted bool
}

// Engine is the functional-flows requirement engine for one reach. It owns
// one ScenarioState per scenario. The metrics table and series are shared
// read-only. Evaluate may be called concurrently for different scenarios but
// never concurrently for the same scenario.
type Engine struct {
	cfg        EngineConfig
	metrics    MetricsTable
	fnf        *Series
	classifier *Classifier

	mu     sync.Mutex
	states map[ScenarioID]*ScenarioState
}

// NewEngine creates an engine over the metrics table, the daily full natural
// flow series (mcm/day) and the annual flow series used for year typing.
func NewEngine(cfg EngineConfig, metrics MetricsTable, fnf *Series, annual *AnnualSeries) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := metrics.Validate(); err != nil {
		return nil, err
	}
	if fnf == nil || fnf.Len() == 0 {
		return nil, fmt.Errorf("full natural flow series is empty")
	}
	classifier, err := NewClassifier(annual)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        cfg,
		metrics:    metrics,
		fnf:        fnf,
		classifier: classifier,
		states:     make(map[ScenarioID]*ScenarioState),
	}, nil
}

// NaturalFlow returns the same-day full natural flow (mcm/day).
func (e *Engine) NaturalFlow(t time.Time) (float64, error) {
	return e.fnf.At(t)
}

// Classifier returns the engine's water-year-type classifier.
func (e *Engine) Classifier() *Classifier {
	return e.classifier
}

func (e *Engine) stateFor(id ScenarioID) *ScenarioState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[id]
	if !ok {
		st = newScenarioState(e.cfg.InitialWaterYearType)
		e.states[id] = st
	}
	return st
}

// State returns a copy of a scenario's committed state. It must not race with
// an Evaluate call for the same scenario.
func (e *Engine) State(id ScenarioID) (ScenarioState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[id]
	if !ok {
		return ScenarioState{}, false
	}
	return *st, true
}

// Scenarios returns the IDs of all scenarios evaluated so far, sorted.
func (e *Engine) Scenarios() []ScenarioID {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]ScenarioID, 0, len(e.states))
	for id := range e.states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Evaluate computes the functional-flows requirement (cms) for one scenario
// day and commits the scenario's state. Days must be evaluated consecutively.
// On error no state field changes except the date cursor.
func (e *Engine) Evaluate(in Inputs) (Decision, error) {
	date := Day(in.Date)
	st := e.stateFor(in.Scenario.ID)

	if !st.LastDate.IsZero() && !date.Equal(st.LastDate.AddDate(0, 0, 1)) {
		return Decision{}, fmt.Errorf("%w: scenario %s evaluated for %s after %s",
			ErrOutOfOrder, in.Scenario.ID, date.Format(dateLayout), st.LastDate.Format(dateLayout))
	}
	st.LastDate = date

	next := *st
	dec, err := e.evaluate(&next, date, in)
	if err != nil {
		return Decision{}, err
	}
	*st = next
	return dec, nil
}

func (e *Engine) evaluate(st *ScenarioState, date time.Time, in Inputs) (Decision, error) {
	dowy := DayOfWaterYear(date)
	dec := Decision{Date: date, DOWY: dowy}

	if IsWaterYearStart(date) {
		wyt, err := e.classifier.Classify(WaterYear(date))
		if err != nil {
			return dec, err
		}
		st.WaterYearType = wyt
		st.OpenWetSeasonGates = true
		dec.Reclassified = true
	}
	if dowy == 1 {
		st.OpenWetSeasonGates = true
	}

	m, err := e.metrics.For(st.WaterYearType)
	if err != nil {
		return dec, err
	}
	natural, err := e.fnf.At(date)
	if err != nil {
		return dec, err
	}

	floods, err := FloodDefinitions(m, e.cfg.FloodIntervals)
	if err != nil {
		return dec, err
	}

	c := &dayContext{
		date:        date,
		dowy:        dowy,
		metrics:     m,
		state:       st,
		naturalMCM:  natural,
		prevFlowMCM: in.PrevFlowMCM,
		realized:    in.Realized,
		cfg:         e.cfg,
		floods:      floods,
		forecast:    e.fnf.Window(date, maxFloodDuration(floods)),
	}

	period := ClassifyPeriod(dowy, m)
	st.CurrentFlowPeriod = period
	periodMCM := periodHandlers[period](c)

	flood, err := trackFlood(c)
	if err != nil {
		return dec, err
	}

	reqMCM := math.Min(math.Max(periodMCM, flood.MCM), natural)
	st.PrevRequirementCMS = MCMToCMS(reqMCM)

	dec.WaterYearType = st.WaterYearType
	dec.Period = period
	dec.PeriodMCM = periodMCM
	dec.FloodMCM = flood.MCM
	dec.NaturalMCM = natural
	dec.RequirementCMS = st.PrevRequirementCMS
	dec.GateOpen = st.OpenWetSeasonGates
	dec.GateClosed = c.gateClosed
	dec.FloodYear = st.FloodYear
	dec.FloodDays = st.FloodDays
	dec.FloodStarted = flood.Started
	return dec, nil
}
