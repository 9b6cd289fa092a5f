package trace

import (
	"sort"
	"sync"
)

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone records failures only.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every scenario day.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// RunTrace collects records during a run. Scenario timelines record
// concurrently, so the record methods are safe for concurrent use.
type RunTrace struct {
	Config   TraceConfig
	RunID    string
	Days     []DayRecord
	Failures []FailureRecord

	mu sync.Mutex
}

// NewRunTrace creates a RunTrace ready for recording.
func NewRunTrace(runID string, config TraceConfig) *RunTrace {
	return &RunTrace{
		Config:   config,
		RunID:    runID,
		Days:     make([]DayRecord, 0),
		Failures: make([]FailureRecord, 0),
	}
}

// RecordDay appends a day record. It is a no-op below TraceLevelDecisions.
func (rt *RunTrace) RecordDay(record DayRecord) {
	if rt.Config.Level != TraceLevelDecisions {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.Days = append(rt.Days, record)
}

// RecordFailure appends a failure record. Failures are kept at every level.
func (rt *RunTrace) RecordFailure(record FailureRecord) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.Failures = append(rt.Failures, record)
}

// Sort orders records by scenario, then date.
func (rt *RunTrace) Sort() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	sort.SliceStable(rt.Days, func(i, j int) bool {
		a, b := rt.Days[i], rt.Days[j]
		if a.Scenario != b.Scenario {
			return a.Scenario < b.Scenario
		}
		return a.Date.Before(b.Date)
	})
	sort.SliceStable(rt.Failures, func(i, j int) bool {
		a, b := rt.Failures[i], rt.Failures[j]
		if a.Scenario != b.Scenario {
			return a.Scenario < b.Scenario
		}
		return a.Date.Before(b.Date)
	})
}
