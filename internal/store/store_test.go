package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sierra-flows/ifrsim/ifr"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ifr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var day = time.Date(2001, time.January, 15, 0, 0, 0, 0, time.UTC)

func TestSaveRun_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	run := Run{ID: "run-1", Reach: "Lower Tuolumne", Kind: "enhanced", Mode: "scheduling", StartDate: "2000-10-01", EndDate: "2001-09-30"}

	require.NoError(t, db.SaveRun(run))

	got, err := db.Run("run-1")
	require.NoError(t, err)
	assert.NotEmpty(t, got.CreatedAt)
	got.CreatedAt = ""
	assert.Equal(t, run, got)
}

func TestSaveResults_StoresDecisionFields(t *testing.T) {
	// GIVEN a functional-flows day, a percentage day and a failed day
	db := openTestDB(t)
	results := []ifr.Result{
		{Scenario: "ff", Date: day, Rule: "functional-flows", Value: 12.5, Decision: &ifr.Decision{
			WaterYearType: ifr.Wet, Period: ifr.WetSeason, FloodYear: 5,
		}},
		{Scenario: "ff", Date: day.AddDate(0, 0, 1), Rule: "functional-flows", Err: errors.New("boom")},
		{Scenario: "pct", Date: day, Rule: "percent-natural-flow", Value: 3},
	}
	rows := make([]ResultRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, NewResultRow("run-1", r))
	}

	// WHEN saved
	require.NoError(t, db.SaveResults(rows))

	// THEN they load back per scenario in date order
	got, err := db.Results("run-1", "ff")
	require.NoError(t, err)
	want := []ResultRow{
		{RunID: "run-1", Scenario: "ff", Date: "2001-01-15", Rule: "functional-flows", ValueCMS: 12.5, OK: true,
			WaterYearType: "wet", Period: "wet season", FloodYear: 5},
		{RunID: "run-1", Scenario: "ff", Date: "2001-01-16", Rule: "functional-flows", Error: "boom"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}

	failures, err := db.Failures("run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, failures)
}

func TestSaveResults_ReplacesSameDay(t *testing.T) {
	db := openTestDB(t)
	row := NewResultRow("run-1", ifr.Result{Scenario: "s", Date: day, Rule: "none"})
	require.NoError(t, db.SaveResults([]ResultRow{row}))
	row.ValueCMS = 4
	require.NoError(t, db.SaveResults([]ResultRow{row}))

	got, err := db.Results("run-1", "s")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4.0, got[0].ValueCMS)
}

func TestSaveStates_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	st := ifr.ScenarioState{
		WaterYearType:      ifr.Dry,
		CurrentFlowPeriod:  ifr.SpringRecession,
		OpenWetSeasonGates: false,
		PrevRequirementCMS: 2.25,
		FloodDays:          1,
		FloodDuration:      2,
		PrevFloodMCM:       7.5,
		FloodYear:          10,
		LastDate:           day,
	}

	require.NoError(t, db.SaveStates([]StateRow{NewStateRow("run-1", "ff", st)}))

	got, err := db.State("run-1", "ff")
	require.NoError(t, err)
	assert.Equal(t, StateRow{
		RunID: "run-1", Scenario: "ff", WaterYearType: "dry", FlowPeriod: "spring recession",
		PrevRequirementCMS: 2.25, FloodDays: 1, FloodDuration: 2, PrevFloodMCM: 7.5, FloodYear: 10,
		LastDate: "2001-01-15",
	}, got)
}

func TestState_Missing(t *testing.T) {
	db := openTestDB(t)
	_, err := db.State("run-1", "nope")
	assert.ErrorContains(t, err, "load state nope")
}

func TestOpen_ReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ifr.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveRun(Run{ID: "r", Reach: "x", Kind: "baseline", Mode: "planning", StartDate: "a", EndDate: "b"}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Run("r")
	assert.NoError(t, err)
}
