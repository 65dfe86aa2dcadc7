package engine

import (
	"time"

	skerrors "github.com/jmurray2011/skein/internal/errors"
	"github.com/jmurray2011/skein/internal/source"
	"github.com/jmurray2011/skein/internal/timeline"
)

// SourceSummary reports what happened to one corpus during a run.
type SourceSummary struct {
	Name        string
	Kind        source.Kind
	Dir         string
	Files       []source.FileStats
	Entries     int
	Unavailable *skerrors.InputUnavailableError
}

// Totals aggregates the per-file statistics.
func (s SourceSummary) Totals() Totals {
	t := Totals{Files: len(s.Files), Entries: s.Entries}
	for _, f := range s.Files {
		t.Bytes += f.Bytes
		t.Lines += f.Lines
		t.Matched += f.Matched
		t.Skipped += f.Skipped
		t.Untimed += f.Untimed
		if f.Err != nil {
			t.Unreadable++
		}
	}
	return t
}

// Totals are summed FileStats.
type Totals struct {
	Files      int
	Unreadable int
	Bytes      int64
	Lines      int
	Matched    int
	Skipped    int
	Untimed    int
	Entries    int
}

// Add returns the field-wise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Files:      t.Files + o.Files,
		Unreadable: t.Unreadable + o.Unreadable,
		Bytes:      t.Bytes + o.Bytes,
		Lines:      t.Lines + o.Lines,
		Matched:    t.Matched + o.Matched,
		Skipped:    t.Skipped + o.Skipped,
		Untimed:    t.Untimed + o.Untimed,
		Entries:    t.Entries + o.Entries,
	}
}

// Result is the outcome of Engine.Run.
type Result struct {
	Pattern  string
	Timeline *timeline.Timeline
	Audit    SourceSummary
	Pods     SourceSummary
	Warnings []error
	Duration time.Duration
}

// Entries is shorthand for Timeline.Entries.
func (r *Result) Entries() []source.Entry { return r.Timeline.Entries() }

// Totals sums both sources.
func (r *Result) Totals() Totals { return r.Audit.Totals().Add(r.Pods.Totals()) }

// SkippedFiles lists files with at least one skipped line, for the
// diagnostic summary table.
func (r *Result) SkippedFiles() []source.FileStats {
	var out []source.FileStats
	for _, s := range []SourceSummary{r.Audit, r.Pods} {
		for _, f := range s.Files {
			if f.Skipped > 0 {
				out = append(out, f)
			}
		}
	}
	return out
}
