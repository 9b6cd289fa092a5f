package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sierra-flows/ifrsim/ifr"
	"github.com/sierra-flows/ifrsim/ifr/data"
	"github.com/sierra-flows/ifrsim/ifr/runner"
	"github.com/sierra-flows/ifrsim/ifr/trace"
)

const dateLayout = "2006-01-02"

// dataPathEnv names the directory relative data paths resolve against.
const dataPathEnv = "IFR_DATA_PATH"

// RunConfig is the YAML run configuration for one reach.
// Nil pointer fields mean "not set in YAML" and take the engine defaults.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type RunConfig struct {
	Reach              string           `yaml:"reach"`
	Kind               string           `yaml:"kind"`
	Mode               string           `yaml:"mode"`
	Start              string           `yaml:"start"`
	End                string           `yaml:"end"`
	InitialFlowCFS     float64          `yaml:"initial_flow_cfs"`
	Workers            int              `yaml:"workers"`
	PercentNaturalFlow *float64         `yaml:"percent_natural_flow"`
	Data               DataConfig       `yaml:"data"`
	Engine             EngineSection    `yaml:"engine"`
	DefaultRule        *DefaultRule     `yaml:"default_rule"`
	Scenarios          []ScenarioConfig `yaml:"scenarios"`
	Output             OutputConfig     `yaml:"output"`
}

// DataConfig names the reach's input tables.
type DataConfig struct {
	FullNaturalFlow string `yaml:"full_natural_flow"`
	AnnualFlow      string `yaml:"annual_flow"`
	Metrics         string `yaml:"metrics"`
}

// EngineSection overrides functional-flows engine tunables.
type EngineSection struct {
	FloodIntervals       []int    `yaml:"flood_intervals"`
	RecessionRampRate    *float64 `yaml:"recession_ramp_rate"`
	TwoYearFloodDays     *float64 `yaml:"two_year_flood_days"`
	InitialWaterYearType string   `yaml:"initial_water_year_type"`
}

// DefaultRule is the constant requirement applied to scenarios whose policy
// does not select an enhanced rule.
type DefaultRule struct {
	Label      string   `yaml:"label"`
	ValueCFS   float64  `yaml:"value_cfs"`
	RampRate   *float64 `yaml:"ramp_rate"`   // nil disables the down-ramp
	InitialCFS *float64 `yaml:"initial_cfs"` // previous flow seen on the first day
}

// ScenarioConfig is one scenario timeline.
type ScenarioConfig struct {
	ID     string `yaml:"id"`
	Policy string `yaml:"policy"`
}

// OutputConfig selects where run results go. Empty paths disable an output.
type OutputConfig struct {
	SQLite      string `yaml:"sqlite"`
	MetricsFile string `yaml:"metrics_file"`
	Trace       string `yaml:"trace"`
}

// LoadRunConfig reads and strictly parses a YAML run configuration.
func LoadRunConfig(path string) (*RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var cfg RunConfig
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	return &cfg, nil
}

// Validate checks names, dates and ranges.
func (c *RunConfig) Validate() error {
	if c.Reach == "" {
		return fmt.Errorf("reach name is required")
	}
	if err := c.PolicyConfig().Validate(); err != nil {
		return err
	}
	if err := c.EngineConfig().Validate(); err != nil {
		return err
	}
	start, end, err := c.Dates()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("end %s before start %s", c.End, c.Start)
	}
	if c.Data.FullNaturalFlow == "" {
		return fmt.Errorf("data.full_natural_flow is required")
	}
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("at least one scenario is required")
	}
	seen := make(map[string]bool, len(c.Scenarios))
	for i, s := range c.Scenarios {
		if s.ID == "" {
			return fmt.Errorf("scenario %d has no id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate scenario id %q", s.ID)
		}
		seen[s.ID] = true
		if c.needsEngine(s.Policy) && (c.Data.AnnualFlow == "" || c.Data.Metrics == "") {
			return fmt.Errorf("scenario %q uses %s but data.annual_flow or data.metrics is missing", s.ID, s.Policy)
		}
	}
	if r := c.DefaultRule; r != nil {
		if r.ValueCFS < 0 {
			return fmt.Errorf("default_rule.value_cfs must be non-negative, got %f", r.ValueCFS)
		}
		if r.RampRate != nil && (*r.RampRate < 0 || *r.RampRate > 1) {
			return fmt.Errorf("default_rule.ramp_rate must be in [0, 1], got %f", *r.RampRate)
		}
	}
	if !trace.IsValidTraceLevel(c.Output.Trace) {
		return fmt.Errorf("unknown output.trace level %q", c.Output.Trace)
	}
	return nil
}

// Dates parses the run's start and end dates.
func (c *RunConfig) Dates() (start, end time.Time, err error) {
	start, err = time.Parse(dateLayout, c.Start)
	if err != nil {
		return start, end, fmt.Errorf("invalid start date %q: %w", c.Start, err)
	}
	end, err = time.Parse(dateLayout, c.End)
	if err != nil {
		return start, end, fmt.Errorf("invalid end date %q: %w", c.End, err)
	}
	return start, end, nil
}

// PolicyConfig returns the selector configuration.
func (c *RunConfig) PolicyConfig() ifr.PolicyConfig {
	pc := ifr.DefaultPolicyConfig(c.Reach)
	if c.Kind != "" {
		pc.Kind = ifr.ReachKind(c.Kind)
	}
	if c.Mode != "" {
		pc.Mode = ifr.Mode(c.Mode)
	}
	if c.PercentNaturalFlow != nil {
		pc.PercentNaturalFlow = *c.PercentNaturalFlow
	}
	return pc
}

// EngineConfig returns the engine tunables with YAML overrides applied.
func (c *RunConfig) EngineConfig() ifr.EngineConfig {
	ec := ifr.DefaultEngineConfig()
	if len(c.Engine.FloodIntervals) > 0 {
		ec.FloodIntervals = c.Engine.FloodIntervals
	}
	if c.Engine.RecessionRampRate != nil {
		ec.RecessionRampRate = *c.Engine.RecessionRampRate
	}
	if c.Engine.TwoYearFloodDays != nil {
		ec.TwoYearFloodDays = *c.Engine.TwoYearFloodDays
	}
	if c.Engine.InitialWaterYearType != "" {
		ec.InitialWaterYearType = ifr.WaterYearType(c.Engine.InitialWaterYearType)
	}
	return ec
}

// Rule returns the default rule, or nil when none is configured.
func (c *RunConfig) Rule() ifr.Rule {
	r := c.DefaultRule
	if r == nil {
		return nil
	}
	base := &ifr.ConstantRule{Label: r.Label, CFS: r.ValueCFS}
	if r.RampRate == nil {
		return base
	}
	ramped := &ifr.RampedRule{Inner: base, Rate: *r.RampRate}
	if r.InitialCFS != nil {
		seed := ifr.CFSToCMS(*r.InitialCFS)
		ramped.InitialCMS = &seed
	}
	return ramped
}

// ScenarioList returns the configured scenarios in order.
func (c *RunConfig) ScenarioList() []ifr.Scenario {
	out := make([]ifr.Scenario, len(c.Scenarios))
	for i, s := range c.Scenarios {
		out[i] = ifr.Scenario{ID: ifr.ScenarioID(s.ID), Policy: s.Policy}
	}
	return out
}

// RunnerConfig returns the runner configuration for the run's date range.
func (c *RunConfig) RunnerConfig() (runner.Config, error) {
	start, end, err := c.Dates()
	if err != nil {
		return runner.Config{}, err
	}
	return runner.Config{
		Start:          start,
		End:            end,
		InitialFlowCFS: c.InitialFlowCFS,
		Workers:        c.Workers,
		Trace:          trace.TraceConfig{Level: trace.TraceLevel(c.Output.Trace)},
	}, nil
}

// ResolvePaths rewrites relative data paths against root.
func (c *RunConfig) ResolvePaths(root string) {
	c.Data.FullNaturalFlow = data.ResolvePath(root, c.Data.FullNaturalFlow)
	c.Data.AnnualFlow = data.ResolvePath(root, c.Data.AnnualFlow)
	c.Data.Metrics = data.ResolvePath(root, c.Data.Metrics)
}

// needsEngine reports whether a scenario policy is dispatched to the
// functional-flows engine. Baseline reaches send it to the default rule.
func (c *RunConfig) needsEngine(policy string) bool {
	return policy == ifr.PolicyFunctionalFlows && c.PolicyConfig().Kind != ifr.Baseline
}

// usesFunctionalFlows reports whether any scenario needs the engine.
func (c *RunConfig) usesFunctionalFlows() bool {
	for _, s := range c.Scenarios {
		if c.needsEngine(s.Policy) {
			return true
		}
	}
	return false
}
