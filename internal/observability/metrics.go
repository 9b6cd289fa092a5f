package observability

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sierra-flows/ifrsim/ifr"
)

// Evaluation outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// RunCollector bundles Prometheus metrics for requirement runs and exports
// them as a node-exporter textfile when the run ends.
type RunCollector struct {
	gatherer prometheus.Gatherer

	Evaluations      *prometheus.CounterVec
	GateClosures     prometheus.Counter
	FloodPulses      *prometheus.CounterVec
	ScenarioDuration *prometheus.HistogramVec
	Scenarios        prometheus.Gauge
}

// NewRunCollector registers run metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewRunCollector(reg prometheus.Registerer) (*RunCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	evaluations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ifr_evaluations_total",
		Help: "Total number of requirement evaluations, labeled by scenario policy and outcome.",
	}, []string{"policy", "outcome"}), "ifr_evaluations_total")
	if err != nil {
		return nil, err
	}

	closures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ifr_wet_season_gate_closures_total",
		Help: "Number of times a wet-season gate closed.",
	}), "ifr_wet_season_gate_closures_total")
	if err != nil {
		return nil, err
	}

	pulses, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ifr_flood_pulses_total",
		Help: "Number of flood pulses started, labeled by return interval in years.",
	}, []string{"return_interval"}), "ifr_flood_pulses_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ifr_scenario_duration_seconds",
		Help:    "Wall time to evaluate one scenario timeline.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"policy"}), "ifr_scenario_duration_seconds")
	if err != nil {
		return nil, err
	}

	scenarios, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ifr_scenarios",
		Help: "Number of scenario timelines in the current run.",
	}), "ifr_scenarios")
	if err != nil {
		return nil, err
	}

	return &RunCollector{
		gatherer:         gatherer,
		Evaluations:      evaluations,
		GateClosures:     closures,
		FloodPulses:      pulses,
		ScenarioDuration: durations,
		Scenarios:        scenarios,
	}, nil
}

// ObserveResult records one evaluation. Gate closures and flood pulses are
// taken from the functional-flows decision when present.
func (c *RunCollector) ObserveResult(policy string, res ifr.Result) {
	if c == nil {
		return
	}
	outcome := OutcomeOK
	if !res.OK() {
		outcome = OutcomeError
	}
	c.Evaluations.WithLabelValues(policy, outcome).Inc()

	if d := res.Decision; d != nil {
		if d.GateClosed {
			c.GateClosures.Inc()
		}
		if d.FloodStarted {
			c.FloodPulses.WithLabelValues(strconv.Itoa(d.FloodYear)).Inc()
		}
	}
}

// ObserveScenario records the wall time of one scenario timeline.
func (c *RunCollector) ObserveScenario(policy string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.ScenarioDuration.WithLabelValues(policy).Observe(elapsed.Seconds())
}

// SetScenarios sets the scenario count of the current run.
func (c *RunCollector) SetScenarios(n int) {
	if c == nil {
		return
	}
	c.Scenarios.Set(float64(n))
}

// WriteTextfile writes every gathered metric to path in the text exposition
// format, atomically.
func (c *RunCollector) WriteTextfile(path string) error {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
