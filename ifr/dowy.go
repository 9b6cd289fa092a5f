package ifr

import "time"

// DayOfWaterYear returns the 1-based day index of t within its water year,
// which starts on October 1.
//
// The offsets are fixed so that timing columns in the reference metrics
// tables line up: in common years October 1 maps to 0 and January 1 to 92,
// in leap years October 1 maps to 1.
func DayOfWaterYear(t time.Time) int {
	if t.Month() >= time.October {
		return t.YearDay() - 275 + 1
	}
	return t.YearDay() + 92 - 1
}

// WaterYear returns the water year t belongs to. Water year N runs from
// October 1 of N-1 through September 30 of N.
func WaterYear(t time.Time) int {
	if t.Month() >= time.October {
		return t.Year() + 1
	}
	return t.Year()
}

// IsWaterYearStart reports whether t is October 1.
func IsWaterYearStart(t time.Time) bool {
	return t.Month() == time.October && t.Day() == 1
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
