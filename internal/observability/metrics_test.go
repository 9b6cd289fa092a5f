package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/sierra-flows/ifrsim/ifr"
)

func TestObserveResultCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRunCollector(reg)
	if err != nil {
		t.Fatalf("NewRunCollector: %v", err)
	}

	collector.ObserveResult(ifr.PolicyPercentNatural, ifr.Result{Value: 1})
	collector.ObserveResult(ifr.PolicyPercentNatural, ifr.Result{Value: 2})
	collector.ObserveResult(ifr.PolicyFunctionalFlows, ifr.Result{Err: ifr.ErrOutOfOrder})

	if got := testutil.ToFloat64(collector.Evaluations.WithLabelValues(ifr.PolicyPercentNatural, OutcomeOK)); got != 2 {
		t.Fatalf("ifr_evaluations_total ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.Evaluations.WithLabelValues(ifr.PolicyFunctionalFlows, OutcomeError)); got != 1 {
		t.Fatalf("ifr_evaluations_total error = %v, want 1", got)
	}
}

func TestObserveResultCountsGateClosuresAndFloods(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRunCollector(reg)
	if err != nil {
		t.Fatalf("NewRunCollector: %v", err)
	}

	collector.ObserveResult(ifr.PolicyFunctionalFlows, ifr.Result{Decision: &ifr.Decision{GateClosed: true}})
	collector.ObserveResult(ifr.PolicyFunctionalFlows, ifr.Result{Decision: &ifr.Decision{FloodStarted: true, FloodYear: 10}})
	collector.ObserveResult(ifr.PolicyFunctionalFlows, ifr.Result{Decision: &ifr.Decision{FloodYear: 10, FloodDays: 2}})

	if got := testutil.ToFloat64(collector.GateClosures); got != 1 {
		t.Fatalf("gate closures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.FloodPulses.WithLabelValues("10")); got != 1 {
		t.Fatalf("10-year flood pulses = %v, want 1", got)
	}
}

func TestNewRunCollectorReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewRunCollector(reg)
	if err != nil {
		t.Fatalf("NewRunCollector: %v", err)
	}
	second, err := NewRunCollector(reg)
	if err != nil {
		t.Fatalf("second NewRunCollector: %v", err)
	}

	first.GateClosures.Inc()
	if got := testutil.ToFloat64(second.GateClosures); got != 1 {
		t.Fatalf("second collector gate closures = %v, want 1", got)
	}
}

func TestScenarioDurationHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRunCollector(reg)
	if err != nil {
		t.Fatalf("NewRunCollector: %v", err)
	}

	collector.ObserveScenario(ifr.PolicyFunctionalFlows, 20*time.Millisecond)

	if count := histogramSampleCount(t, reg, "ifr_scenario_duration_seconds", map[string]string{
		"policy": ifr.PolicyFunctionalFlows,
	}); count != 1 {
		t.Fatalf("ifr_scenario_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRunCollector(reg)
	if err != nil {
		t.Fatalf("NewRunCollector: %v", err)
	}
	collector.SetScenarios(3)
	collector.ObserveResult(ifr.PolicyNone, ifr.Result{})

	path := filepath.Join(t.TempDir(), "ifr.prom")
	if err := collector.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	body := string(raw)
	for _, want := range []string{"ifr_scenarios 3", `ifr_evaluations_total{outcome="ok",policy="No IFRs"} 1`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in textfile output:\n%s", want, body)
		}
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *RunCollector
	c.ObserveResult(ifr.PolicyNone, ifr.Result{})
	c.ObserveScenario(ifr.PolicyNone, time.Second)
	c.SetScenarios(1)
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, p := range pairs {
		if want[p.GetName()] != p.GetValue() {
			return false
		}
	}
	return true
}
