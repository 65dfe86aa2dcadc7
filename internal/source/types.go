package source

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Kind tags which corpus an entry came from.
type Kind string

const (
	KindStructured Kind = "structured" // audit trail, one JSON record per line
	KindTextual    Kind = "textual"    // process/application logs, free text
)

// Severity is the closed three-value classification attached to every entry.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Severities lists every severity in ascending order of urgency.
var Severities = []Severity{SeverityInfo, SeverityWarn, SeverityError}

// ParseSeverity folds a level token into the three-value enumeration.
// Fatal-style markers fold into error; anything unrecognized is info.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "e", "err", "error", "f", "fatal", "crit", "critical", "panic", "emerg", "alert", "severe":
		return SeverityError
	case "w", "warn", "warning":
		return SeverityWarn
	default:
		return SeverityInfo
	}
}

// DefaultSummaryLength bounds Entry.Summary when no other limit is configured.
const DefaultSummaryLength = 200

// Entry is the unified log entry produced by both parsers.
//
// A zero Timestamp means no recognizable timestamp was found. The zero
// instant 0001-01-01T00:00:00Z is how Go and Kubernetes serialize an unset
// time, so parsers treat a line stamped with it as untimed too.
type Entry struct {
	Source    Kind
	File      string
	Line      int // 1-based
	Severity  Severity
	Timestamp time.Time
	Summary   string // bounded one-line synopsis
	Content   string // original line, verbatim

	// Keys are the field values the resource pattern was tested against.
	// Nil means the pattern was tested against Content.
	Keys []string
}

// HasTimestamp reports whether a timestamp was extracted for the entry.
func (e Entry) HasTimestamp() bool {
	return !e.Timestamp.IsZero()
}

// MatchedBy reports whether m selects the entry the way its parser did:
// against Keys when present, otherwise against Content.
func (e Entry) MatchedBy(m interface{ Matches(string) bool }) bool {
	if e.Keys == nil {
		return m.Matches(e.Content)
	}
	for _, k := range e.Keys {
		if m.Matches(k) {
			return true
		}
	}
	return false
}

// Ptr returns a pointer that can be used to re-read the entry's source line.
func (e Entry) Ptr() string {
	return MakeLocalPtr(e.File, e.Line)
}

// FileStats tallies what happened while parsing a single file.
type FileStats struct {
	Path    string
	Kind    Kind
	Bytes   int64
	Lines   int
	Matched int
	Skipped int // lines that failed decoding or were oversized
	Untimed int // matched lines without a recognizable timestamp
	Err     error
}

// Summarize collapses s onto one line and bounds it to max runes, appending
// "..." when truncated. A non-positive max uses DefaultSummaryLength.
func Summarize(s string, max int) string {
	if max <= 0 {
		max = DefaultSummaryLength
	}
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
