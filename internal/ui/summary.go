package ui

import (
	"fmt"
	"strconv"

	"github.com/jmurray2011/skein/internal/engine"
	"github.com/jmurray2011/skein/internal/source"
	"github.com/jmurray2011/skein/pkg/timeutil"
)

// RunSummary prints the diagnostic summary of a run to the error writer:
// per-source scan totals, severity counts, one table of files with skipped
// lines, and the warnings. Warnings are printed even in quiet mode.
func (r *Renderer) RunSummary(res *engine.Result, reportPath string) {
	for _, w := range res.Warnings {
		r.Warning("%v", w)
	}
	if r.quiet {
		return
	}

	r.section(r.err, "Summary")
	r.keyValue(r.err, "Pattern", res.Pattern, 1)

	rows := make([][]string, 0, 2)
	for _, s := range []engine.SourceSummary{res.Audit, res.Pods} {
		if s.Unavailable != nil {
			rows = append(rows, []string{s.Name, "-", "-", "-", "-", "-", "unavailable"})
			continue
		}
		t := s.Totals()
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(t.Files),
			timeutil.FormatBytes(t.Bytes),
			strconv.Itoa(t.Lines),
			strconv.Itoa(t.Matched),
			strconv.Itoa(t.Skipped),
			s.Dir,
		})
	}
	fmt.Fprintln(r.err)
	r.table(r.err, []string{"SOURCE", "FILES", "BYTES", "LINES", "MATCHED", "SKIPPED", "DIR"}, rows)

	counts := res.Timeline.SeverityCounts()
	fmt.Fprintln(r.err)
	for i := len(source.Severities) - 1; i >= 0; i-- {
		sev := source.Severities[i]
		fmt.Fprintf(r.err, "  %s %d", r.Badge(sev), counts[sev])
	}
	fmt.Fprintln(r.err)

	r.keyValue(r.err, "Entries", strconv.Itoa(res.Timeline.Len()), 1)
	if n := len(res.Timeline.Untimed()); n > 0 {
		r.keyValue(r.err, "Untimed", strconv.Itoa(n), 1)
	}
	if _, _, ok := res.Timeline.Bounds(); ok {
		r.keyValue(r.err, "Span", timeutil.FormatDuration(res.Timeline.Span()), 1)
	}
	r.keyValue(r.err, "Elapsed", timeutil.FormatDuration(res.Duration), 1)
	if reportPath != "" {
		r.keyValue(r.err, "Report", reportPath, 1)
	}

	if skipped := res.SkippedFiles(); len(skipped) > 0 {
		r.section(r.err, "Skipped lines")
		rows := make([][]string, len(skipped))
		for i, f := range skipped {
			rows[i] = []string{f.Path, strconv.Itoa(f.Skipped), strconv.Itoa(f.Lines)}
		}
		r.table(r.err, []string{"FILE", "SKIPPED", "OF"}, rows)
	}
}
