// Package history records completed correlation runs in a local SQLite
// database so earlier investigations can be listed again.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmurray2011/skein/internal/engine"
	"github.com/jmurray2011/skein/internal/source"
)

const (
	appDir = "skein"
	dbFile = "history.db"
)

// DefaultPath returns the default database path under the user config dir.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("history: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, dbFile), nil
}

// Run is one recorded invocation of the engine.
type Run struct {
	ID         int64
	CreatedAt  time.Time
	Pattern    string
	AuditDir   string
	PodDir     string
	ReportPath string
	Entries    int
	Errors     int
	Warnings   int
	Infos      int
	Untimed    int
	Skipped    int
	Span       time.Duration
	DurationMs int64
}

// NewRun summarises res for storage.
func NewRun(res *engine.Result, reportPath string) *Run {
	counts := res.Timeline.SeverityCounts()
	return &Run{
		Pattern:    res.Pattern,
		AuditDir:   res.Audit.Dir,
		PodDir:     res.Pods.Dir,
		ReportPath: reportPath,
		Entries:    res.Timeline.Len(),
		Errors:     counts[source.SeverityError],
		Warnings:   counts[source.SeverityWarn],
		Infos:      counts[source.SeverityInfo],
		Untimed:    len(res.Timeline.Untimed()),
		Skipped:    res.Totals().Skipped,
		Span:       res.Timeline.Span(),
		DurationMs: res.Duration.Milliseconds(),
	}
}
