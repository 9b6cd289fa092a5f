package ifr

import (
	"fmt"
	"testing"
	"time"
)

// wyStart is October 1 of a leap year, so dowy(wyStart + n days) == n + 1.
var wyStart = time.Date(2000, time.October, 1, 0, 0, 0, 0, time.UTC)

func dowyDate(dowy int) time.Time {
	return wyStart.AddDate(0, 0, dowy-1)
}

// testMetrics uses compressed timings so a whole regime fits in a month.
func testMetrics() Metrics {
	return Metrics{
		WetTim:      10,
		SPTim:       20,
		SPMag:       500,
		FATim:       3,
		FADur:       2,
		FAMag:       200,
		DSMag50:     50,
		WetBFLMag50: 40,
		WetBFLMag10: 30,
		Peak2:       2000,
		Peak5:       2600,
		Peak10:      3000,
		PeakDur2:    5,
		PeakDur5:    2,
		PeakDur10:   2,
	}
}

func testTable() MetricsTable {
	return MetricsTable{Dry: testMetrics(), Moderate: testMetrics(), Wet: testMetrics()}
}

// annualFor returns an annual series where water year 2001 is classified as
// wyt and water years 2002..2009 hold 2..9.
func annualFor(wyt WaterYearType) *AnnualSeries {
	v := map[int]float64{}
	for y := 2002; y <= 2009; y++ {
		v[y] = float64(y - 2000)
	}
	switch wyt {
	case Dry:
		v[2001] = 1
	case Moderate:
		v[2001] = 5
	case Wet:
		v[2001] = 9
	}
	return NewAnnualSeries("Annual Full Natural Flow", v)
}

// naturalFlow builds a 400-day series at baseCFS with per-dowy overrides in cfs.
func naturalFlow(baseCFS float64, overrides map[int]float64) *Series {
	values := make([]float64, 400)
	for i := range values {
		cfs := baseCFS
		if o, ok := overrides[i+1]; ok {
			cfs = o
		}
		values[i] = CFSToMCM(cfs)
	}
	return NewSeries("Full Natural Flow", wyStart, values)
}

func newTestEngine(t *testing.T, wyt WaterYearType, fnf *Series) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultEngineConfig(), testTable(), fnf, annualFor(wyt))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// newTenYearFloodEngine disables the 2- and 5-year floods.
func newTenYearFloodEngine(t *testing.T, wyt WaterYearType, fnf *Series) *Engine {
	t.Helper()
	m := testMetrics()
	m.PeakDur2, m.PeakDur5 = 0, 0
	table := MetricsTable{Dry: m, Moderate: m, Wet: m}
	e, err := NewEngine(DefaultEngineConfig(), table, fnf, annualFor(wyt))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// runTo evaluates a passive reach (realized flow == requirement) from
// October 1 through dowy last, returning every decision.
func runTo(t *testing.T, e *Engine, id ScenarioID, last int, seedCFS float64) []Decision {
	t.Helper()
	decs, err := simulate(e, id, last, seedCFS)
	if err != nil {
		t.Fatal(err)
	}
	return decs
}

func simulate(e *Engine, id ScenarioID, last int, seedCFS float64) ([]Decision, error) {
	log := &FlowLog{}
	prev := CFSToMCM(seedCFS)
	var out []Decision
	for d := 1; d <= last; d++ {
		dec, err := e.Evaluate(Inputs{
			Date:        dowyDate(d),
			Scenario:    Scenario{ID: id, Policy: PolicyFunctionalFlows},
			PrevFlowMCM: prev,
			FirstStep:   d == 1,
			Realized:    log,
		})
		if err != nil {
			return out, fmt.Errorf("dowy %d: %w", d, err)
		}
		prev = CMSToMCM(dec.RequirementCMS)
		if err := log.Append(dec.Date, prev); err != nil {
			return out, err
		}
		out = append(out, dec)
	}
	return out, nil
}
