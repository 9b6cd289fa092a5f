package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sierra-flows/ifrsim/ifr"
	"github.com/sierra-flows/ifrsim/ifr/data"
	"github.com/sierra-flows/ifrsim/ifr/runner"
	"github.com/sierra-flows/ifrsim/ifr/trace"
	"github.com/sierra-flows/ifrsim/internal/observability"
	"github.com/sierra-flows/ifrsim/internal/store"
)

// ScenarioReport summarizes one scenario timeline.
type ScenarioReport struct {
	ID                 string  `json:"id"`
	Policy             string  `json:"policy"`
	Rule               string  `json:"rule"`
	Days               int     `json:"days"`
	Failures           int     `json:"failures"`
	MeanRequirementCMS float64 `json:"mean_requirement_cms"`
	MaxRequirementCMS  float64 `json:"max_requirement_cms"`
	Error              string  `json:"error,omitempty"`
}

// RunReport is printed to stdout at the end of a run.
type RunReport struct {
	RunID     string              `json:"run_id"`
	Reach     string              `json:"reach"`
	Start     string              `json:"start"`
	End       string              `json:"end"`
	Scenarios []ScenarioReport    `json:"scenarios"`
	Failures  int                 `json:"failures"`
	Trace     *trace.TraceSummary `json:"trace,omitempty"`
}

// buildSelector loads the reach's tables and wires the policy selector. The
// engine is nil when no scenario uses functional flows.
func buildSelector(cfg *RunConfig) (*ifr.Selector, *ifr.Engine, error) {
	fnf, err := data.LoadDailySeries(cfg.Data.FullNaturalFlow)
	if err != nil {
		return nil, nil, err
	}

	var engine *ifr.Engine
	if cfg.usesFunctionalFlows() {
		annual, err := data.LoadAnnualSeries(cfg.Data.AnnualFlow)
		if err != nil {
			return nil, nil, err
		}
		metrics, err := data.LoadMetrics(cfg.Data.Metrics)
		if err != nil {
			return nil, nil, err
		}
		engine, err = ifr.NewEngine(cfg.EngineConfig(), metrics, fnf, annual)
		if err != nil {
			return nil, nil, fmt.Errorf("functional flows engine: %w", err)
		}
		logrus.WithField("thresholds", engine.Classifier().Thresholds()).Debug("water year type thresholds")
	}

	selector, err := ifr.NewSelector(cfg.PolicyConfig(), fnf, engine, cfg.Rule())
	if err != nil {
		return nil, nil, err
	}
	return selector, engine, nil
}

// runReach validates and executes a run configuration and writes the run
// report as JSON to w.
func runReach(ctx context.Context, cfg *RunConfig, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	selector, engine, err := buildSelector(cfg)
	if err != nil {
		return err
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv())
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown)

	collector, err := observability.NewRunCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	rc, err := cfg.RunnerConfig()
	if err != nil {
		return err
	}
	r, err := runner.New(rc, selector, engine, runner.WithCollector(collector))
	if err != nil {
		return err
	}
	out, err := r.Run(ctx, cfg.ScenarioList())
	if err != nil {
		return err
	}

	if cfg.Output.SQLite != "" {
		db, err := store.Open(cfg.Output.SQLite)
		if err != nil {
			return err
		}
		defer db.Close()
		pc := cfg.PolicyConfig()
		if err := out.Save(db, store.Run{
			Reach:     cfg.Reach,
			Kind:      string(pc.Kind),
			Mode:      string(pc.Mode),
			StartDate: cfg.Start,
			EndDate:   cfg.End,
		}); err != nil {
			return err
		}
		logrus.Infof("Results saved to %s (run %s)", cfg.Output.SQLite, out.RunID)
	}
	if cfg.Output.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return err
		}
	}

	return writeReport(w, newRunReport(cfg, selector, out))
}

func newRunReport(cfg *RunConfig, selector *ifr.Selector, out *runner.Output) RunReport {
	report := RunReport{
		RunID:    out.RunID,
		Reach:    cfg.Reach,
		Start:    cfg.Start,
		End:      cfg.End,
		Failures: out.Failures(),
	}
	for _, s := range out.Scenarios {
		sr := ScenarioReport{
			ID:       string(s.Scenario.ID),
			Policy:   s.Scenario.Policy,
			Rule:     selector.RuleName(s.Scenario.Policy),
			Days:     len(s.Results),
			Failures: s.Failures,
		}
		if values := out.Requirements(s.Scenario.ID); len(values) > 0 {
			sr.MeanRequirementCMS = stat.Mean(values, nil)
			sr.MaxRequirementCMS = floats.Max(values)
		}
		if s.Err != nil {
			sr.Error = s.Err.Error()
		}
		report.Scenarios = append(report.Scenarios, sr)
	}
	if out.Trace.Config.Level == trace.TraceLevelDecisions {
		report.Trace = trace.Summarize(out.Trace)
	}
	return report
}

func writeReport(w io.Writer, report RunReport) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	_, err = fmt.Fprintf(w, "=== Run Report ===\n%s\n", raw)
	return err
}
