// Package common provides shared utilities for Chitty
package common

import (
	"fmt"
	"time"
)

// MonthKeyLayout is the canonical year-month key layout. Keys sort
// lexicographically in chronological order (zero-padded month).
const MonthKeyLayout = "2006-01"

// ParseMonthKey parses a canonical month key into the first calendar day
// of that month in UTC. time.Parse alone would accept an unpadded month
// like "2024-3", which breaks lexicographic ordering, so the length is
// checked first.
func ParseMonthKey(key string) (time.Time, error) {
	if len(key) != len(MonthKeyLayout) {
		return time.Time{}, fmt.Errorf("invalid month key %q: must be YYYY-MM", key)
	}
	t, err := time.ParseInLocation(MonthKeyLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", key, err)
	}
	return t, nil
}

// FormatMonthKey formats a time as a canonical month key.
func FormatMonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyLayout)
}

// ValidMonthKey reports whether key is a well-formed month key.
func ValidMonthKey(key string) bool {
	_, err := ParseMonthKey(key)
	return err == nil
}

// AddMonths returns the month key n months after key. n may be negative.
func AddMonths(key string, n int) (string, error) {
	t, err := ParseMonthKey(key)
	if err != nil {
		return "", err
	}
	return FormatMonthKey(t.AddDate(0, n, 0)), nil
}

// CurrentMonthKey returns the month key for the current UTC month.
func CurrentMonthKey() string {
	return FormatMonthKey(time.Now())
}
