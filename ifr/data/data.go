// Package data loads the reach input tables from CSV: the daily full natural
// flow series, the annual flow series used for water-year typing, and the
// functional-flows metrics table.
package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sierra-flows/ifrsim/ifr"
)

const dateLayout = "2006-01-02"

// Table names used when reporting lookup failures.
const (
	FullNaturalFlowTable   = "Full Natural Flow"
	AnnualNaturalFlowTable = "Annual Full Natural Flow"
)

// ResolvePath joins a relative path onto root. Absolute paths and an empty
// root leave path unchanged.
func ResolvePath(root, path string) string {
	if root == "" || path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func readRecords(path, what string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s CSV: %w", what, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s CSV: %w", what, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV empty or missing header", what)
	}
	return records, nil
}

// LoadDailySeries reads a date,flow_mcm CSV into a contiguous daily series.
// Dates must be strictly consecutive.
func LoadDailySeries(path string) (*ifr.Series, error) {
	records, err := readRecords(path, "daily flow")
	if err != nil {
		return nil, err
	}

	var start, prev time.Time
	values := make([]float64, 0, len(records)-1)
	for i, record := range records[1:] { // Skip header
		if len(record) < 2 {
			return nil, fmt.Errorf("daily flow CSV row %d: expected 2 columns", i+2)
		}
		d, err := time.Parse(dateLayout, record[0])
		if err != nil {
			return nil, fmt.Errorf("daily flow CSV row %d: invalid date: %w", i+2, err)
		}
		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("daily flow CSV row %d: invalid flow: %w", i+2, err)
		}
		if i == 0 {
			start = d
		} else if !d.Equal(prev.AddDate(0, 0, 1)) {
			return nil, fmt.Errorf("daily flow CSV row %d: %s does not follow %s",
				i+2, record[0], prev.Format(dateLayout))
		}
		prev = d
		values = append(values, v)
	}
	return ifr.NewSeries(FullNaturalFlowTable, start, values), nil
}

// LoadAnnualSeries reads a water_year,flow CSV.
func LoadAnnualSeries(path string) (*ifr.AnnualSeries, error) {
	records, err := readRecords(path, "annual flow")
	if err != nil {
		return nil, err
	}

	values := make(map[int]float64, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 2 {
			return nil, fmt.Errorf("annual flow CSV row %d: expected 2 columns", i+2)
		}
		wy, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("annual flow CSV row %d: invalid water year: %w", i+2, err)
		}
		if _, dup := values[wy]; dup {
			return nil, fmt.Errorf("annual flow CSV row %d: duplicate water year %d", i+2, wy)
		}
		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("annual flow CSV row %d: invalid flow: %w", i+2, err)
		}
		values[wy] = v
	}
	return ifr.NewAnnualSeries(AnnualNaturalFlowTable, values), nil
}

// LoadMetrics reads the functional-flows metrics table. The header names the
// water-year types (any order, case-insensitive) after a leading metric
// column; each row is one metric, e.g. "Peak_10,4200,8800,12500".
func LoadMetrics(path string) (ifr.MetricsTable, error) {
	records, err := readRecords(path, "metrics")
	if err != nil {
		return nil, err
	}

	header := records[0]
	types := make([]ifr.WaterYearType, len(header))
	for j := 1; j < len(header); j++ {
		name := strings.ToLower(strings.TrimSpace(header[j]))
		if !ifr.IsValidWaterYearType(name) {
			return nil, fmt.Errorf("metrics CSV header: unknown water year type %q", header[j])
		}
		types[j] = ifr.WaterYearType(name)
	}

	rows := make(map[ifr.WaterYearType]*ifr.Metrics, len(types))
	for _, wyt := range types[1:] {
		rows[wyt] = &ifr.Metrics{}
	}
	seen := map[string]bool{}
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("metrics CSV row %d: expected %d columns", i+2, len(header))
		}
		metric := strings.TrimSpace(record[0])
		if seen[metric] {
			return nil, fmt.Errorf("metrics CSV row %d: duplicate metric %q", i+2, metric)
		}
		seen[metric] = true
		for j := 1; j < len(record); j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[j]), 64)
			if err != nil {
				return nil, fmt.Errorf("metrics CSV row %d: invalid %s value: %w", i+2, types[j], err)
			}
			if err := rows[types[j]].Set(metric, v); err != nil {
				return nil, fmt.Errorf("metrics CSV row %d: %w", i+2, err)
			}
		}
	}
	for _, col := range ifr.MetricColumns {
		if !seen[col] {
			return nil, fmt.Errorf("metrics CSV: missing metric %q", col)
		}
	}

	table := make(ifr.MetricsTable, len(rows))
	for wyt, m := range rows {
		table[wyt] = *m
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("metrics CSV: %w", err)
	}
	return table, nil
}
