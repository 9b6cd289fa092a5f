// Package store persists run results and final scenario state to SQLite.
package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sierra-flows/ifrsim/ifr"
)

const dateLayout = "2006-01-02"

// DB wraps a SQLite connection for run persistence.
type DB struct {
	conn *sqlx.DB
}

// Run describes one run of the requirement pipeline over a reach.
type Run struct {
	ID        string `db:"run_id"`
	Reach     string `db:"reach"`
	Kind      string `db:"kind"`
	Mode      string `db:"mode"`
	StartDate string `db:"start_date"`
	EndDate   string `db:"end_date"`
	CreatedAt string `db:"created_at"` // RFC 3339
}

// ResultRow is one stored scenario day.
type ResultRow struct {
	RunID         string  `db:"run_id"`
	Scenario      string  `db:"scenario"`
	Date          string  `db:"date"`
	Rule          string  `db:"rule"`
	ValueCMS      float64 `db:"value_cms"`
	OK            bool    `db:"ok"`
	Error         string  `db:"error"`
	WaterYearType string  `db:"water_year_type"`
	Period        string  `db:"period"`
	FloodYear     int     `db:"flood_year"`
}

// StateRow is a scenario's committed engine state at the end of a run.
type StateRow struct {
	RunID              string  `db:"run_id"`
	Scenario           string  `db:"scenario"`
	WaterYearType      string  `db:"water_year_type"`
	FlowPeriod         string  `db:"flow_period"`
	OpenWetSeasonGates bool    `db:"open_wet_season_gates"`
	PrevRequirementCMS float64 `db:"prev_requirement_cms"`
	FloodDays          int     `db:"flood_days"`
	FloodDuration      int     `db:"flood_duration"`
	PrevFloodMCM       float64 `db:"prev_flood_mcm"`
	FloodYear          int     `db:"flood_year"`
	LastDate           string  `db:"last_date"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		reach TEXT NOT NULL,
		kind TEXT NOT NULL,
		mode TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_results (
		run_id TEXT NOT NULL,
		scenario TEXT NOT NULL,
		date TEXT NOT NULL,
		rule TEXT NOT NULL,
		value_cms REAL NOT NULL,
		ok INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		water_year_type TEXT NOT NULL DEFAULT '',
		period TEXT NOT NULL DEFAULT '',
		flood_year INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, scenario, date)
	);

	CREATE TABLE IF NOT EXISTS scenario_states (
		run_id TEXT NOT NULL,
		scenario TEXT NOT NULL,
		water_year_type TEXT NOT NULL,
		flow_period TEXT NOT NULL,
		open_wet_season_gates INTEGER NOT NULL,
		prev_requirement_cms REAL NOT NULL,
		flood_days INTEGER NOT NULL,
		flood_duration INTEGER NOT NULL,
		prev_flood_mcm REAL NOT NULL,
		flood_year INTEGER NOT NULL,
		last_date TEXT NOT NULL,
		PRIMARY KEY (run_id, scenario)
	);

	CREATE INDEX IF NOT EXISTS idx_daily_results_failed ON daily_results(run_id, ok);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun records a run's identity.
func (db *DB) SaveRun(run Run) error {
	if run.CreatedAt == "" {
		run.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := db.conn.NamedExec(`INSERT OR REPLACE INTO runs
		(run_id, reach, kind, mode, start_date, end_date, created_at)
		VALUES (:run_id, :reach, :kind, :mode, :start_date, :end_date, :created_at)`, run)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// NewResultRow flattens an evaluation result for storage.
func NewResultRow(runID string, res ifr.Result) ResultRow {
	row := ResultRow{
		RunID:    runID,
		Scenario: string(res.Scenario),
		Date:     res.Date.Format(dateLayout),
		Rule:     res.Rule,
		ValueCMS: res.Value,
		OK:       res.OK(),
	}
	if res.Err != nil {
		row.Error = res.Err.Error()
	}
	if d := res.Decision; d != nil {
		row.WaterYearType = string(d.WaterYearType)
		row.Period = d.Period.String()
		row.FloodYear = d.FloodYear
	}
	return row
}

// SaveResults writes result rows in one transaction.
func (db *DB) SaveResults(rows []ResultRow) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamed(`INSERT OR REPLACE INTO daily_results
		(run_id, scenario, date, rule, value_cms, ok, error, water_year_type, period, flood_year)
		VALUES (:run_id, :scenario, :date, :rule, :value_cms, :ok, :error, :water_year_type, :period, :flood_year)`)
	if err != nil {
		return fmt.Errorf("prepare daily results: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("save result %s/%s: %w", row.Scenario, row.Date, err)
		}
	}
	return tx.Commit()
}

// NewStateRow flattens a committed scenario state for storage.
func NewStateRow(runID string, id ifr.ScenarioID, st ifr.ScenarioState) StateRow {
	row := StateRow{
		RunID:              runID,
		Scenario:           string(id),
		WaterYearType:      string(st.WaterYearType),
		FlowPeriod:         st.CurrentFlowPeriod.String(),
		OpenWetSeasonGates: st.OpenWetSeasonGates,
		PrevRequirementCMS: st.PrevRequirementCMS,
		FloodDays:          st.FloodDays,
		FloodDuration:      st.FloodDuration,
		PrevFloodMCM:       st.PrevFloodMCM,
		FloodYear:          st.FloodYear,
	}
	if !st.LastDate.IsZero() {
		row.LastDate = st.LastDate.Format(dateLayout)
	}
	return row
}

// SaveStates writes final scenario states in one transaction.
func (db *DB) SaveStates(rows []StateRow) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, row := range rows {
		_, err := tx.NamedExec(`INSERT OR REPLACE INTO scenario_states
			(run_id, scenario, water_year_type, flow_period, open_wet_season_gates, prev_requirement_cms,
			 flood_days, flood_duration, prev_flood_mcm, flood_year, last_date)
			VALUES (:run_id, :scenario, :water_year_type, :flow_period, :open_wet_season_gates, :prev_requirement_cms,
			 :flood_days, :flood_duration, :prev_flood_mcm, :flood_year, :last_date)`, row)
		if err != nil {
			return fmt.Errorf("save state %s: %w", row.Scenario, err)
		}
	}
	return tx.Commit()
}

// Results returns a scenario's stored days in date order.
func (db *DB) Results(runID, scenario string) ([]ResultRow, error) {
	var rows []ResultRow
	err := db.conn.Select(&rows, `SELECT run_id, scenario, date, rule, value_cms, ok, error,
		water_year_type, period, flood_year
		FROM daily_results WHERE run_id = ? AND scenario = ? ORDER BY date`, runID, scenario)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	return rows, nil
}

// Failures returns the number of failed days stored for a run.
func (db *DB) Failures(runID string) (int, error) {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM daily_results WHERE run_id = ? AND ok = 0", runID); err != nil {
		return 0, fmt.Errorf("count failures: %w", err)
	}
	return count, nil
}

// State returns a scenario's final stored state.
func (db *DB) State(runID, scenario string) (StateRow, error) {
	var row StateRow
	err := db.conn.Get(&row, `SELECT run_id, scenario, water_year_type, flow_period, open_wet_season_gates,
		prev_requirement_cms, flood_days, flood_duration, prev_flood_mcm, flood_year, last_date
		FROM scenario_states WHERE run_id = ? AND scenario = ?`, runID, scenario)
	if err != nil {
		return StateRow{}, fmt.Errorf("load state %s: %w", scenario, err)
	}
	return row, nil
}

// Run returns a stored run.
func (db *DB) Run(runID string) (Run, error) {
	var run Run
	err := db.conn.Get(&run, `SELECT run_id, reach, kind, mode, start_date, end_date, created_at
		FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return Run{}, fmt.Errorf("load run %s: %w", runID, err)
	}
	return run, nil
}
