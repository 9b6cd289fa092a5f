// Package runner drives scenario timelines through the requirement selector
// for a date range, standing in for the host water-system model: each
// scenario's realized reach flow is its requirement (a passive reach), fed
// back as the next day's prior flow.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/sierra-flows/ifrsim/ifr"
	"github.com/sierra-flows/ifrsim/ifr/trace"
	"github.com/sierra-flows/ifrsim/internal/observability"
)

const tracerName = "github.com/sierra-flows/ifrsim/ifr/runner"

const dateLayout = "2006-01-02"

// Config controls a run.
type Config struct {
	Start          time.Time
	End            time.Time
	InitialFlowCFS float64 // prior flow seen on the first simulated day
	Workers        int     // concurrent scenario timelines; <= 1 runs serially
	Trace          trace.TraceConfig
}

// Validate checks the date range and worker count.
func (c Config) Validate() error {
	if c.Start.IsZero() || c.End.IsZero() {
		return fmt.Errorf("start and end dates are required")
	}
	if ifr.Day(c.End).Before(ifr.Day(c.Start)) {
		return fmt.Errorf("end %s before start %s", c.End.Format(dateLayout), c.Start.Format(dateLayout))
	}
	if c.InitialFlowCFS < 0 {
		return fmt.Errorf("initial flow must be non-negative, got %f", c.InitialFlowCFS)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if !trace.IsValidTraceLevel(string(c.Trace.Level)) {
		return fmt.Errorf("unknown trace level %q", c.Trace.Level)
	}
	return nil
}

// Runner evaluates scenario timelines against one reach.
type Runner struct {
	cfg       Config
	selector  *ifr.Selector
	engine    *ifr.Engine
	collector *observability.RunCollector
	runID     string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithCollector records evaluation metrics on c.
func WithCollector(c *observability.RunCollector) Option {
	return func(r *Runner) { r.collector = c }
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// New creates a Runner. engine is the one the selector dispatches
// functional-flows scenarios to; it may be nil, in which case no final
// scenario states are reported.
func New(cfg Config, selector *ifr.Selector, engine *ifr.Engine, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if selector == nil {
		return nil, fmt.Errorf("runner needs a policy selector")
	}
	cfg.Start, cfg.End = ifr.Day(cfg.Start), ifr.Day(cfg.End)
	r := &Runner{cfg: cfg, selector: selector, engine: engine}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	return r, nil
}

// RunID returns the run's identity.
func (r *Runner) RunID() string { return r.runID }

// ScenarioOutput is one scenario timeline's results in date order.
type ScenarioOutput struct {
	Scenario ifr.Scenario
	Results  []ifr.Result
	Failures int
	// Err is set when the timeline stopped early; Results holds the days
	// evaluated before it stopped.
	Err error
}

// Output is the outcome of a run.
type Output struct {
	RunID     string
	Scenarios []ScenarioOutput // in the order given to Run
	Trace     *trace.RunTrace
	// States holds the final committed engine state of each functional-flows
	// scenario.
	States map[ifr.ScenarioID]ifr.ScenarioState
}

// Failures returns the total number of failed days across scenarios.
func (o *Output) Failures() int {
	n := 0
	for _, s := range o.Scenarios {
		n += s.Failures
	}
	return n
}

// Run evaluates every scenario over the configured date range. Failed days
// are logged and recorded with a zero requirement, and the timeline
// continues. Run only returns an error for invalid input or cancellation.
func (r *Runner) Run(ctx context.Context, scenarios []ifr.Scenario) (*Output, error) {
	seen := make(map[ifr.ScenarioID]bool, len(scenarios))
	for _, s := range scenarios {
		if s.ID == "" {
			return nil, fmt.Errorf("scenario with policy %q has no ID", s.Policy)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate scenario %q", s.ID)
		}
		seen[s.ID] = true
	}

	out := &Output{
		RunID:     r.runID,
		Scenarios: make([]ScenarioOutput, len(scenarios)),
		Trace:     trace.NewRunTrace(r.runID, r.cfg.Trace),
		States:    make(map[ifr.ScenarioID]ifr.ScenarioState),
	}
	r.collector.SetScenarios(len(scenarios))

	logrus.WithFields(logrus.Fields{
		"run":       r.runID,
		"scenarios": len(scenarios),
		"start":     r.cfg.Start.Format(dateLayout),
		"end":       r.cfg.End.Format(dateLayout),
		"workers":   max(r.cfg.Workers, 1),
	}).Info("run started")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.cfg.Workers, 1))
	for i, s := range scenarios {
		g.Go(func() error {
			so, err := r.runScenario(gctx, s, out.Trace)
			out.Scenarios[i] = so
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if r.engine != nil {
		for _, s := range scenarios {
			if st, ok := r.engine.State(s.ID); ok {
				out.States[s.ID] = st
			}
		}
	}
	out.Trace.Sort()

	logrus.WithFields(logrus.Fields{
		"run":      r.runID,
		"failures": out.Failures(),
	}).Info("run finished")
	return out, nil
}

func (r *Runner) runScenario(ctx context.Context, s ifr.Scenario, rt *trace.RunTrace) (ScenarioOutput, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "scenario")
	defer span.End()
	span.SetAttributes(
		attribute.String("ifr.run_id", r.runID),
		attribute.String("ifr.scenario", string(s.ID)),
		attribute.String("ifr.policy", s.Policy),
		attribute.String("ifr.rule", r.selector.RuleName(s.Policy)),
	)
	began := time.Now()
	log := logrus.WithFields(logrus.Fields{"run": r.runID, "scenario": s.ID})

	so := ScenarioOutput{Scenario: s}
	realized := &ifr.FlowLog{}
	prevMCM := ifr.CFSToMCM(r.cfg.InitialFlowCFS)

	for d := r.cfg.Start; !d.After(r.cfg.End); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return so, err
		}

		res := r.selector.Evaluate(ifr.Inputs{
			Date:        d,
			Scenario:    s,
			PrevFlowMCM: prevMCM,
			FirstStep:   d.Equal(r.cfg.Start),
			Realized:    realized,
		})
		so.Results = append(so.Results, res)
		r.collector.ObserveResult(s.Policy, res)

		if !res.OK() {
			so.Failures++
			log.WithFields(logrus.Fields{
				"date": d.Format(dateLayout),
				"rule": res.Rule,
			}).Warn(res.Failure())
			rt.RecordFailure(trace.FailureRecord{Scenario: string(s.ID), Date: d, Rule: res.Rule, Reason: res.Err.Error()})
			span.AddEvent("evaluation failed", oteltrace.WithAttributes(
				attribute.String("ifr.date", d.Format(dateLayout)),
				attribute.String("error", res.Err.Error()),
			))
		}
		rt.RecordDay(dayRecord(res))

		prevMCM = res.ValueMCM()
		if err := realized.Append(d, prevMCM); err != nil {
			so.Err = err
			break
		}
	}

	if so.Err != nil {
		span.RecordError(so.Err)
		span.SetStatus(codes.Error, so.Err.Error())
		log.Errorf("scenario stopped: %v", so.Err)
	}
	span.SetAttributes(attribute.Int("ifr.failures", so.Failures), attribute.Int("ifr.days", len(so.Results)))
	r.collector.ObserveScenario(s.Policy, time.Since(began))
	log.WithField("failures", so.Failures).Debug("scenario finished")
	return so, nil
}

func dayRecord(res ifr.Result) trace.DayRecord {
	rec := trace.DayRecord{
		Scenario:       string(res.Scenario),
		Date:           res.Date,
		DOWY:           ifr.DayOfWaterYear(res.Date),
		Rule:           res.Rule,
		RequirementCMS: res.Value,
	}
	if d := res.Decision; d != nil {
		rec.WaterYearType = string(d.WaterYearType)
		rec.Period = d.Period.String()
		rec.PeriodMCM = d.PeriodMCM
		rec.FloodMCM = d.FloodMCM
		rec.NaturalMCM = d.NaturalMCM
		rec.GateOpen = d.GateOpen
		rec.GateClosed = d.GateClosed
		rec.FloodYear = d.FloodYear
		rec.FloodDays = d.FloodDays
		rec.FloodStarted = d.FloodStarted
	}
	return rec
}
