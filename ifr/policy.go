package ifr

import (
	"fmt"
)

// Scenario policy names as they appear in scenario definitions.
const (
	PolicyNone            = "No IFRs"
	PolicyPercentNatural  = "SWRCB"
	PolicyFunctionalFlows = "Functional Flows"
)

// ValidPolicies is the set of recognized scenario policy names. Any other
// name, including "", selects the default rule.
var ValidPolicies = map[string]bool{PolicyNone: true, PolicyPercentNatural: true, PolicyFunctionalFlows: true}

// Scenario identifies a scenario timeline and its configured IFR policy.
type Scenario struct {
	ID     ScenarioID
	Policy string
}

// Rule computes a requirement in cms for one (date, scenario).
type Rule interface {
	Name() string
	Requirement(in Inputs) (float64, error)
}

// ConstantRule requires a fixed flow.
type ConstantRule struct {
	Label string
	CFS   float64
}

// Name implements Rule.
func (r *ConstantRule) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("constant %g cfs", r.CFS)
}

// Requirement implements Rule.
func (r *ConstantRule) Requirement(Inputs) (float64, error) {
	return CFSToCMS(r.CFS), nil
}

// Selector dispatches a scenario to its IFR rule and reports the outcome as a
// Result. It is the failure boundary: no error escapes Evaluate.
type Selector struct {
	cfg      PolicyConfig
	natural  *Series
	engine   *Engine
	fallback Rule
}

// NewSelector builds a selector for one reach over its daily full natural
// flow series (mcm/day). engine may be nil when no scenario uses functional
// flows; fallback may be nil for "no default rule".
func NewSelector(cfg PolicyConfig, natural *Series, engine *Engine, fallback Rule) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Kind == "" {
		cfg.Kind = Enhanced
	}
	if cfg.Mode == "" {
		cfg.Mode = Scheduling
	}
	return &Selector{cfg: cfg, natural: natural, engine: engine, fallback: fallback}, nil
}

// RuleName returns the name of the rule Evaluate would apply to a policy.
func (s *Selector) RuleName(policy string) string {
	enhanced := s.cfg.Kind == Enhanced
	switch {
	case policy == PolicyNone:
		return "none"
	case policy == PolicyPercentNatural && enhanced:
		return "percent-natural-flow"
	case policy == PolicyFunctionalFlows && enhanced:
		return "functional-flows"
	case s.fallback != nil:
		return s.fallback.Name()
	}
	return "none"
}

// Evaluate returns the requirement for one scenario day. Unknown policies
// without a default rule yield zero with no error.
func (s *Selector) Evaluate(in Inputs) Result {
	res := Result{Reach: s.cfg.Reach, Scenario: in.Scenario.ID, Date: Day(in.Date), Rule: s.RuleName(in.Scenario.Policy)}
	enhanced := s.cfg.Kind == Enhanced

	switch {
	case in.Scenario.Policy == PolicyNone:
		return res

	case in.Scenario.Policy == PolicyPercentNatural && enhanced:
		res.Value, res.Err = s.percentNatural(in)

	case in.Scenario.Policy == PolicyFunctionalFlows && enhanced:
		if s.cfg.Mode == Planning {
			return res
		}
		if s.engine == nil {
			res.Err = fmt.Errorf("reach %s has no functional flows engine", s.cfg.Reach)
			return res
		}
		dec, err := s.engine.Evaluate(in)
		if err != nil {
			res.Err = err
			return res
		}
		res.Value = dec.RequirementCMS
		res.Decision = &dec

	case s.fallback != nil:
		res.Value, res.Err = s.fallback.Requirement(in)
	}

	if res.Err != nil {
		res.Value = 0
	}
	return res
}

func (s *Selector) percentNatural(in Inputs) (float64, error) {
	if s.natural == nil {
		return 0, fmt.Errorf("reach %s has no natural flow series", s.cfg.Reach)
	}
	natural, err := s.natural.At(in.Date)
	if err != nil {
		return 0, err
	}
	return MCMToCMS(natural * s.cfg.PercentNaturalFlow), nil
}
