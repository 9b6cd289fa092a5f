package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sierra-flows/ifrsim/ifr"
	"github.com/sierra-flows/ifrsim/internal/store"
)

const testMetricsCSV = `metric,dry,moderate,wet
Wet_Tim,10,10,10
SP_Tim,20,20,20
SP_Mag,500,500,500
FA_Tim,3,3,3
FA_Dur,2,2,2
FA_Mag,200,200,200
DS_Mag_50,50,50,50
Wet_BFL_Mag_50,40,40,40
Wet_BFL_Mag_10,30,30,30
Peak_2,2000,2000,2000
Peak_5,2600,2600,2600
Peak_10,3000,3000,3000
Peak_Dur_2,5,5,5
Peak_Dur_5,2,2,2
Peak_Dur_10,2,2,2
`

// writeReachData writes 400 days of natural flow at 1000 cfs from
// 2000-10-01, an annual series and a metrics table into dir.
func writeReachData(t *testing.T, dir string) {
	t.Helper()
	var fnf strings.Builder
	fnf.WriteString("date,flow_mcm\n")
	start := time.Date(2000, time.October, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 400; i++ {
		fmt.Fprintf(&fnf, "%s,%.10f\n", start.AddDate(0, 0, i).Format(dateLayout), ifr.CFSToMCM(1000))
	}
	annual := "water_year,flow\n2001,5\n2002,2\n2003,3\n2004,4\n2005,6\n2006,7\n2007,8\n2008,9\n"

	require.NoError(t, os.WriteFile(filepath.Join(dir, "fnf.csv"), []byte(fnf.String()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "annual.csv"), []byte(annual), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metrics.csv"), []byte(testMetricsCSV), 0o644))
}

func parseReport(t *testing.T, out string) RunReport {
	t.Helper()
	require.True(t, strings.HasPrefix(out, "=== Run Report ===\n"), out)
	var report RunReport
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(out, "=== Run Report ===\n")), &report))
	return report
}

func TestRunReach_EndToEnd(t *testing.T) {
	// GIVEN reach data and a run config with SQLite and metrics outputs
	dir := t.TempDir()
	writeReachData(t, dir)
	cfg, err := LoadRunConfig(writeConfig(t, sampleRunConfig))
	require.NoError(t, err)
	cfg.Start, cfg.End = "2000-10-01", "2000-10-30"
	cfg.Engine = EngineSection{}
	cfg.ResolvePaths(dir)
	cfg.Output.SQLite = filepath.Join(dir, "results.db")
	cfg.Output.MetricsFile = filepath.Join(dir, "ifr.prom")

	// WHEN the reach is run
	var buf bytes.Buffer
	require.NoError(t, runReach(context.Background(), cfg, &buf))

	// THEN the report covers every scenario
	report := parseReport(t, buf.String())
	assert.Equal(t, "Lower Tuolumne", report.Reach)
	assert.Zero(t, report.Failures)
	require.Len(t, report.Scenarios, 3)
	assert.Equal(t, "functional-flows", report.Scenarios[0].Rule)
	assert.Equal(t, 30, report.Scenarios[0].Days)
	assert.InDelta(t, ifr.CFSToCMS(350), report.Scenarios[1].MeanRequirementCMS, 1e-6)
	assert.Equal(t, "FERC minimum+ramp", report.Scenarios[2].Rule)
	require.NotNil(t, report.Trace)
	assert.Equal(t, 90, report.Trace.TotalDays)
	assert.Equal(t, 10, report.Trace.PeriodDays["wet season"])

	// AND results are stored
	db, err := store.Open(cfg.Output.SQLite)
	require.NoError(t, err)
	defer db.Close()
	rows, err := db.Results(report.RunID, "ff")
	require.NoError(t, err)
	assert.Len(t, rows, 30)
	st, err := db.State(report.RunID, "ff")
	require.NoError(t, err)
	assert.Equal(t, "2000-10-30", st.LastDate)

	// AND metrics are exported
	prom, err := os.ReadFile(cfg.Output.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `ifr_evaluations_total{outcome="ok",policy="Functional Flows"} 30`)
}

func TestRunReach_WithoutFunctionalFlowsSkipsEngineData(t *testing.T) {
	// GIVEN only natural flow data and no functional-flows scenario
	dir := t.TempDir()
	writeReachData(t, dir)
	cfg := &RunConfig{
		Reach:     "Upper Merced",
		Kind:      "baseline",
		Start:     "2000-10-01",
		End:       "2000-10-05",
		Data:      DataConfig{FullNaturalFlow: "fnf.csv"},
		Scenarios: []ScenarioConfig{{ID: "pct", Policy: ifr.PolicyPercentNatural}},
	}
	cfg.ResolvePaths(dir)

	var buf bytes.Buffer
	require.NoError(t, runReach(context.Background(), cfg, &buf))

	// THEN the baseline reach falls through to no default rule
	report := parseReport(t, buf.String())
	assert.Equal(t, "none", report.Scenarios[0].Rule)
	assert.Zero(t, report.Scenarios[0].MaxRequirementCMS)
	assert.Nil(t, report.Trace)
}

func TestRunReach_BaselineFunctionalFlowsUsesDefaultRule(t *testing.T) {
	// GIVEN a baseline reach with a functional-flows scenario and no
	// annual flow or metrics data
	dir := t.TempDir()
	writeReachData(t, dir)
	cfg := &RunConfig{
		Reach:       "Upper Merced",
		Kind:        "baseline",
		Start:       "2000-10-01",
		End:         "2000-10-05",
		Data:        DataConfig{FullNaturalFlow: "fnf.csv"},
		DefaultRule: &DefaultRule{Label: "FERC minimum", ValueCFS: 70},
		Scenarios:   []ScenarioConfig{{ID: "ff", Policy: ifr.PolicyFunctionalFlows}},
	}
	cfg.ResolvePaths(dir)

	// WHEN the reach is run
	var buf bytes.Buffer
	require.NoError(t, runReach(context.Background(), cfg, &buf))

	// THEN the scenario falls through to the default rule
	report := parseReport(t, buf.String())
	require.Len(t, report.Scenarios, 1)
	assert.Equal(t, "FERC minimum", report.Scenarios[0].Rule)
	assert.InDelta(t, ifr.CFSToCMS(70), report.Scenarios[0].MaxRequirementCMS, 1e-9)
	assert.Zero(t, report.Failures)
}

func TestRunReach_MissingDataFile(t *testing.T) {
	cfg, err := LoadRunConfig(writeConfig(t, sampleRunConfig))
	require.NoError(t, err)
	cfg.ResolvePaths(t.TempDir())

	err = runReach(context.Background(), cfg, &bytes.Buffer{})

	assert.ErrorContains(t, err, "open daily flow CSV")
}

func TestWriteDaysOfWaterYear(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDaysOfWaterYear(&buf, []string{"2001-10-01", "2001-01-01", "2000-10-01"}))

	assert.Equal(t,
		"2001-10-01 dowy=0 water_year=2002\n"+
			"2001-01-01 dowy=92 water_year=2001\n"+
			"2000-10-01 dowy=1 water_year=2001\n",
		buf.String())

	assert.Error(t, writeDaysOfWaterYear(&buf, []string{"Jan 1"}))
}

func TestWriteWaterYearTypes(t *testing.T) {
	annual := ifr.NewAnnualSeries("annual", map[int]float64{2001: 1, 2002: 5, 2003: 9, 2004: 3})

	var buf bytes.Buffer
	require.NoError(t, writeWaterYearTypes(&buf, annual, 2003, 2004))

	// q0 = 1, q33 = 2.98, q66 = 4.96
	out := buf.String()
	assert.Contains(t, out, "thresholds: q0=1.000 q33=2.980 q66=4.960")
	assert.Regexp(t, `2003\s+9\.000\s+wet`, out)
	assert.Regexp(t, `2004\s+3\.000\s+moderate`, out)
	assert.NotContains(t, out, "2001")
	assert.NotContains(t, out, "2002")
}

func TestApplyRunFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cfg := &RunConfig{Start: "2000-10-01", End: "2001-09-30", Workers: 2}
	require.NoError(t, runCmd.Flags().Set("end", "2000-12-31"))
	require.NoError(t, runCmd.Flags().Set("workers", "8"))
	t.Cleanup(func() {
		runCmd.Flags().Lookup("end").Changed = false
		runCmd.Flags().Lookup("workers").Changed = false
	})

	applyRunFlags(runCmd, cfg)

	assert.Equal(t, "2000-10-01", cfg.Start)
	assert.Equal(t, "2000-12-31", cfg.End)
	assert.Equal(t, 8, cfg.Workers)
}
