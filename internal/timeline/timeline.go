// Package timeline merges entries from both parsers into one ordered view.
package timeline

import (
	"sort"
	"time"

	"github.com/jmurray2011/skein/internal/source"
)

// Timeline is the merged, ordered entry sequence and its time bounds.
// It is read-only once built.
type Timeline struct {
	entries []source.Entry
	timed   int
	min     time.Time
	max     time.Time
}

// Merge concatenates a then b and stable-sorts the result by timestamp.
// Entries without a timestamp keep their input order and follow every
// timestamped entry. The inputs are not modified.
func Merge(a, b []source.Entry) *Timeline {
	entries := make([]source.Entry, 0, len(a)+len(b))
	entries = append(entries, a...)
	entries = append(entries, b...)

	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].Timestamp, entries[j].Timestamp
		switch {
		case ti.IsZero():
			return false
		case tj.IsZero():
			return true
		default:
			return ti.Before(tj)
		}
	})

	tl := &Timeline{entries: entries}
	for _, e := range entries {
		if !e.HasTimestamp() {
			break
		}
		tl.timed++
	}
	if tl.timed > 0 {
		tl.min = entries[0].Timestamp
		tl.max = entries[tl.timed-1].Timestamp
	}
	return tl
}

// Entries returns the ordered entries. Callers must not modify the slice.
func (t *Timeline) Entries() []source.Entry { return t.entries }

// Len returns the number of entries.
func (t *Timeline) Len() int { return len(t.entries) }

// Timed returns the timestamped prefix of Entries.
func (t *Timeline) Timed() []source.Entry { return t.entries[:t.timed] }

// Untimed returns the entries without a timestamp, in encounter order.
func (t *Timeline) Untimed() []source.Entry { return t.entries[t.timed:] }

// Bounds returns the earliest and latest timestamps. ok is false when no
// entry has a timestamp.
func (t *Timeline) Bounds() (min, max time.Time, ok bool) {
	return t.min, t.max, t.timed > 0
}

// Span is max minus min, or zero without timestamps.
func (t *Timeline) Span() time.Duration {
	if t.timed == 0 {
		return 0
	}
	return t.max.Sub(t.min)
}

// SeverityCounts tallies entries by severity. Every severity is present.
func (t *Timeline) SeverityCounts() map[source.Severity]int {
	counts := make(map[source.Severity]int, len(source.Severities))
	for _, s := range source.Severities {
		counts[s] = 0
	}
	for _, e := range t.entries {
		counts[e.Severity]++
	}
	return counts
}

// SourceCounts tallies entries by corpus.
func (t *Timeline) SourceCounts() map[source.Kind]int {
	counts := map[source.Kind]int{source.KindStructured: 0, source.KindTextual: 0}
	for _, e := range t.entries {
		counts[e.Source]++
	}
	return counts
}
