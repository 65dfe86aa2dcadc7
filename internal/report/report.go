// Package report renders a timeline as one self-contained HTML document.
// Styling, behaviour and data are inlined; the output references no
// external resources and can be opened offline.
package report

import (
	"bufio"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jmurray2011/skein/internal/pattern"
	"github.com/jmurray2011/skein/internal/source"
	"github.com/jmurray2011/skein/internal/timeline"
	"github.com/jmurray2011/skein/pkg/timeutil"
)

// Midpoint is the position of every marker when all timestamps coincide.
const Midpoint = 50.0

const timeLayout = "2006-01-02 15:04:05.000000 MST"

//go:embed report.html.tmpl
var reportTemplate string

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

// Position maps ts onto [0,100] relative to [min,max]. When min equals
// max every timestamp sits at Midpoint.
func Position(ts, min, max time.Time) float64 {
	span := max.Sub(min)
	if span <= 0 {
		return Midpoint
	}
	p := float64(ts.Sub(min)) / float64(span) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// ResourceCount is the number of entries matching one pattern component.
type ResourceCount struct {
	Name  string
	Count int
}

type severityCount struct {
	Severity source.Severity
	Count    int
}

type marker struct {
	ID       string
	Left     string
	Severity source.Severity
	Title    string
}

type row struct {
	ID       string
	Time     string
	Severity source.Severity
	Source   source.Kind
	Origin   string
	Ptr      string
	Summary  string
	Content  string
	Untimed  bool
}

type view struct {
	Meta        Metadata
	Resources   []ResourceCount
	Total       int
	Severities  []severityCount
	Structured  int
	Textual     int
	HasTimeline bool
	Start       string
	End         string
	Span        string
	Markers     []marker
	Rows        []row
	Untimed     int
}

// ResourceCounts counts, for each resource named by the pattern in meta,
// the entries a run for that resource alone would have selected.
func ResourceCounts(tl *timeline.Timeline, meta Metadata) []ResourceCount {
	var out []ResourceCount
	for _, name := range meta.Resources() {
		n := 0
		if m, err := pattern.Compile(name); err == nil {
			for _, e := range tl.Entries() {
				if e.MatchedBy(m) {
					n++
				}
			}
		}
		out = append(out, ResourceCount{Name: name, Count: n})
	}
	return out
}

func buildView(tl *timeline.Timeline, meta Metadata) view {
	v := view{
		Meta:      meta,
		Resources: ResourceCounts(tl, meta),
		Total:     tl.Len(),
		Untimed:   len(tl.Untimed()),
	}

	counts := tl.SeverityCounts()
	for _, s := range source.Severities {
		v.Severities = append(v.Severities, severityCount{Severity: s, Count: counts[s]})
	}
	bySource := tl.SourceCounts()
	v.Structured, v.Textual = bySource[source.KindStructured], bySource[source.KindTextual]

	min, max, ok := tl.Bounds()
	v.HasTimeline = ok
	if ok {
		v.Start = min.Format(timeLayout)
		v.End = max.Format(timeLayout)
		v.Span = timeutil.FormatDuration(tl.Span())
	}

	v.Rows = make([]row, 0, tl.Len())
	for i, e := range tl.Entries() {
		id := "e" + strconv.Itoa(i)
		r := row{
			ID:       id,
			Time:     "untimed",
			Severity: e.Severity,
			Source:   e.Source,
			Origin:   fmt.Sprintf("%s:%d", e.File, e.Line),
			Ptr:      e.Ptr(),
			Summary:  e.Summary,
			Content:  e.Content,
			Untimed:  !e.HasTimestamp(),
		}
		if e.HasTimestamp() {
			r.Time = e.Timestamp.Format(timeLayout)
			v.Markers = append(v.Markers, marker{
				ID:       id,
				Left:     strconv.FormatFloat(Position(e.Timestamp, min, max), 'f', 3, 64),
				Severity: e.Severity,
				Title:    r.Time + " " + e.Summary,
			})
		}
		v.Rows = append(v.Rows, r)
	}
	return v
}

// Render writes the report for tl to w. Output depends only on tl and meta.
func Render(w io.Writer, tl *timeline.Timeline, meta Metadata) error {
	if err := tmpl.Execute(w, buildView(tl, meta)); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// WriteFile renders the report to path. The document is written to a
// temporary file in the same directory and renamed into place, so path
// never holds a partial report.
func WriteFile(path string, tl *timeline.Timeline, meta Metadata) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".skein-report-*.html")
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	bw := bufio.NewWriter(tmp)
	if err := Render(bw, tl, meta); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
