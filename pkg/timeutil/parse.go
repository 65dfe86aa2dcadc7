// Package timeutil provides shared time parsing and formatting utilities.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// isoLayouts are tried in order by ParseISO. Fractional seconds are accepted
// by time.Parse after the seconds field even when a layout does not spell
// them out, so each layout covers every sub-second precision.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// ParseISO parses an ISO-8601 style timestamp. Values without a zone are
// interpreted as UTC. A comma decimal separator ("10:30:45,123") is accepted.
//
// Examples:
//   - "2025-01-15T10:30:45.123456Z"
//   - "2025-01-15T10:30:45+02:00"
//   - "2025-01-15 10:30:45,123"
func ParseISO(input string) (time.Time, bool) {
	s := strings.TrimSpace(input)
	if len(s) < len("2006-01-02T15:04:05") {
		return time.Time{}, false
	}
	s = strings.Replace(s, ",", ".", 1)

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// CompleteDate builds a UTC instant from a month/day/clock triple that lacks a
// year, using the caller's reference year. Returns false for impossible dates
// (e.g. Feb 30), which time.Date would otherwise silently normalize.
func CompleteDate(year int, month time.Month, day int, clock time.Duration) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t.Add(clock), true
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%.1fh", d.Hours())
	}
	return fmt.Sprintf("%.1fd", d.Hours()/24)
}

// FormatBytes converts bytes to human-readable format (e.g., "1.5 MB").
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
