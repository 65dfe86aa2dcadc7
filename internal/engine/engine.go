// Package engine runs one correlation: compile the resource pattern, find
// the log files, parse both corpora in parallel and merge the results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/jmurray2011/skein/internal/audit"
	skerrors "github.com/jmurray2011/skein/internal/errors"
	"github.com/jmurray2011/skein/internal/local"
	"github.com/jmurray2011/skein/internal/logging"
	"github.com/jmurray2011/skein/internal/pattern"
	"github.com/jmurray2011/skein/internal/source"
	"github.com/jmurray2011/skein/internal/timeline"
)

// Source labels used in diagnostics and InputUnavailableError.Kind.
const (
	AuditSource = "audit"
	PodSource   = "pod"
)

// Config describes one run. Zero values select defaults except Pattern and
// ReferenceYear, which are required.
type Config struct {
	Pattern  string
	AuditDir string
	PodDir   string

	AuditGlobs []string
	PodGlobs   []string

	// Concurrency bounds how many files each parser reads at once.
	Concurrency int
	// ReferenceYear completes timestamps that carry no year.
	ReferenceYear int
	SummaryLength int
	MaxLineSize   int
	Fields        audit.FieldPaths
}

func (c Config) withDefaults() Config {
	if len(c.AuditGlobs) == 0 {
		c.AuditGlobs = audit.DefaultGlobs
	}
	if len(c.PodGlobs) == 0 {
		c.PodGlobs = local.DefaultPodGlobs
	}
	if c.Concurrency <= 0 {
		c.Concurrency = source.DefaultConcurrency
	}
	if c.SummaryLength <= 0 {
		c.SummaryLength = source.DefaultSummaryLength
	}
	if c.MaxLineSize <= 0 {
		c.MaxLineSize = source.MaxLineSize
	}
	return c
}

// Engine holds the compiled, validated state for a run.
type Engine struct {
	cfg     Config
	log     logging.Logger
	matcher pattern.Matcher
	audit   *audit.Parser
	lines   *local.LineParser
}

// New validates cfg and compiles everything that can fail before any file
// is opened. Every returned error is a ConfigurationError.
func New(cfg Config, log logging.Logger) (*Engine, error) {
	if log == nil {
		log = logging.NopLogger{}
	}
	cfg = cfg.withDefaults()

	m, err := pattern.Compile(cfg.Pattern)
	if err != nil {
		return nil, err
	}
	if cfg.ReferenceYear < 1 {
		return nil, skerrors.Configuration(fmt.Sprint(cfg.ReferenceYear), fmt.Errorf("reference year must be set"))
	}
	for _, globs := range [][]string{cfg.AuditGlobs, cfg.PodGlobs} {
		for _, g := range globs {
			if !doublestar.ValidatePattern(g) {
				return nil, skerrors.Configuration(g, fmt.Errorf("invalid file glob %q", g))
			}
		}
	}

	ap, err := audit.NewParser(m,
		audit.WithFieldPaths(cfg.Fields),
		audit.WithSummaryLength(cfg.SummaryLength),
		audit.WithMaxLineSize(cfg.MaxLineSize),
		audit.WithConcurrency(cfg.Concurrency),
	)
	if err != nil {
		return nil, err
	}

	lp := local.NewLineParser(m, cfg.ReferenceYear,
		local.WithSummaryLength(cfg.SummaryLength),
		local.WithMaxLineSize(cfg.MaxLineSize),
		local.WithConcurrency(cfg.Concurrency),
	)

	return &Engine{cfg: cfg, log: log, matcher: m, audit: ap, lines: lp}, nil
}

// Matcher returns the compiled resource pattern.
func (e *Engine) Matcher() pattern.Matcher { return e.matcher }

// parseAller is the ParseAll half of both parsers.
type parseAller interface {
	ParseAll(ctx context.Context, files []string) ([]source.Entry, []source.FileStats, error)
}

// Run executes the pipeline. Missing inputs and unreadable files become
// warnings on the Result; only cancellation returns an error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	res := &Result{
		Pattern: e.cfg.Pattern,
		Audit:   SourceSummary{Name: AuditSource, Kind: source.KindStructured, Dir: e.cfg.AuditDir},
		Pods:    SourceSummary{Name: PodSource, Kind: source.KindTextual, Dir: e.cfg.PodDir},
	}

	var auditEntries, podEntries []source.Entry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		auditEntries, err = e.runSource(gctx, &res.Audit, e.cfg.AuditGlobs, e.audit)
		return err
	})
	g.Go(func() error {
		var err error
		podEntries, err = e.runSource(gctx, &res.Pods, e.cfg.PodGlobs, e.lines)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range []*SourceSummary{&res.Audit, &res.Pods} {
		if s.Unavailable != nil {
			res.Warnings = append(res.Warnings, s.Unavailable)
		}
		for _, st := range s.Files {
			if st.Err != nil {
				res.Warnings = append(res.Warnings, st.Err)
			}
		}
	}

	res.Timeline = timeline.Merge(auditEntries, podEntries)
	res.Duration = time.Since(start)

	if res.Timeline.Len() == 0 {
		e.log.Info("pattern %q matched no entries", e.cfg.Pattern)
	}
	return res, nil
}

// runSource discovers and parses one corpus, filling sum.
func (e *Engine) runSource(ctx context.Context, sum *SourceSummary, globs []string, p parseAller) ([]source.Entry, error) {
	log := e.log.WithField("source", sum.Name)

	files, err := local.Discover(sum.Dir, globs)
	if err != nil {
		var iu *skerrors.InputUnavailableError
		if errors.As(err, &iu) {
			iu.Kind = sum.Name
			sum.Unavailable = iu
			// Surfaced to the user through Result.Warnings.
			log.Info("%s", iu.Error())
			return nil, nil
		}
		return nil, err
	}
	log.Info("found %d files in %s", len(files), sum.Dir)

	entries, stats, err := p.ParseAll(ctx, files)
	if err != nil {
		return nil, err
	}
	sum.Files = stats
	sum.Entries = len(entries)

	for _, st := range stats {
		switch {
		case st.Err != nil:
			log.WithField("file", st.Path).Info("skipped unreadable file: %v", st.Err)
		case st.Skipped > 0:
			log.WithField("file", st.Path).Debug("skipped %d of %d lines", st.Skipped, st.Lines)
		}
	}
	log.Info("matched %d entries", len(entries))
	return entries, nil
}
