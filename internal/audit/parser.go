// Package audit parses line-delimited structured audit logs, one JSON
// record per line, into unified entries.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmurray2011/skein/internal/pattern"
	"github.com/jmurray2011/skein/internal/source"
	"github.com/jmurray2011/skein/pkg/timeutil"
)

// DefaultGlobs select audit files under an audit-log directory.
var DefaultGlobs = []string{"**/*.log", "**/*.jsonl"}

// Record is one decoded audit line reduced to the fields the engine uses.
type Record struct {
	Verb      string
	Actor     string
	Code      int
	HasCode   bool // false for watch streams and records without a response
	Namespace string
	Kind      string
	Name      string
	Timestamp time.Time // zero when absent or unparseable
}

// Severity classifies the record by HTTP response code.
func (r Record) Severity() source.Severity {
	if !r.HasCode {
		return source.SeverityInfo
	}
	switch {
	case r.Code >= 500 && r.Code <= 599:
		return source.SeverityError
	case r.Code >= 400 && r.Code <= 499:
		return source.SeverityWarn
	default:
		return source.SeverityInfo
	}
}

// Summary renders "<verb> <kind>/<name> in <ns> by <actor> → HTTP <code>",
// leaving out whatever the record lacks.
func (r Record) Summary() string {
	var parts []string
	if r.Verb != "" {
		parts = append(parts, r.Verb)
	}
	switch {
	case r.Kind != "" && r.Name != "":
		parts = append(parts, r.Kind+"/"+r.Name)
	case r.Kind != "":
		parts = append(parts, r.Kind)
	case r.Name != "":
		parts = append(parts, r.Name)
	}
	if r.Namespace != "" {
		parts = append(parts, "in", r.Namespace)
	}
	if r.Actor != "" {
		parts = append(parts, "by", r.Actor)
	}
	if r.HasCode {
		parts = append(parts, "→ HTTP "+strconv.Itoa(r.Code))
	}
	if len(parts) == 0 {
		return "audit record"
	}
	return strings.Join(parts, " ")
}

// Parser reads audit files. It is safe for concurrent use across files.
type Parser struct {
	matcher       pattern.Matcher
	paths         compiledPaths
	fields        FieldPaths
	summaryLength int
	maxLineSize   int
	concurrency   int
}

// Option configures a Parser.
type Option func(*Parser)

// WithFieldPaths overrides the JMESPath expressions used to read records.
// Empty expressions keep their defaults.
func WithFieldPaths(f FieldPaths) Option {
	return func(p *Parser) { p.fields = f }
}

// WithSummaryLength bounds Entry.Summary to n runes.
func WithSummaryLength(n int) Option {
	return func(p *Parser) { p.summaryLength = n }
}

// WithMaxLineSize overrides source.MaxLineSize.
func WithMaxLineSize(n int) Option {
	return func(p *Parser) { p.maxLineSize = n }
}

// WithConcurrency limits how many files ParseAll reads at once.
func WithConcurrency(n int) Option {
	return func(p *Parser) { p.concurrency = n }
}

// NewParser builds a Parser. An invalid field path is a configuration error.
func NewParser(m pattern.Matcher, opts ...Option) (*Parser, error) {
	p := &Parser{
		matcher:       m,
		fields:        DefaultFieldPaths(),
		summaryLength: source.DefaultSummaryLength,
		maxLineSize:   source.MaxLineSize,
		concurrency:   source.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}

	paths, err := compilePaths(p.fields)
	if err != nil {
		return nil, err
	}
	p.paths = paths
	return p, nil
}

// Kind implements source.FileParser.
func (p *Parser) Kind() source.Kind { return source.KindStructured }

// Decode extracts a Record from one JSON line.
func (p *Parser) Decode(line []byte) (Record, error) {
	var data any
	if err := json.Unmarshal(line, &data); err != nil {
		return Record{}, err
	}
	if _, ok := data.(map[string]any); !ok {
		return Record{}, fmt.Errorf("record is %T, not an object", data)
	}

	r := Record{
		Verb:      stringValue(search(p.paths.verb, data)),
		Actor:     stringValue(search(p.paths.actor, data)),
		Namespace: stringValue(search(p.paths.namespace, data)),
		Kind:      stringValue(search(p.paths.kind, data)),
		Name:      stringValue(search(p.paths.name, data)),
	}
	r.Code, r.HasCode = intValue(search(p.paths.code, data))

	for _, expr := range p.paths.timestamp {
		if s := stringValue(search(expr, data)); s != "" {
			// The zero instant marks an unset time; try the next path.
			if ts, ok := timeutil.ParseISO(s); ok && !ts.IsZero() {
				r.Timestamp = ts
				break
			}
		}
	}
	return r, nil
}

// Matches reports whether the record's namespace or name satisfies the
// resource pattern. Absent fields never match.
func (p *Parser) Matches(r Record) bool {
	for _, k := range r.keys() {
		if p.matcher.Matches(k) {
			return true
		}
	}
	return false
}

// keys returns the non-empty fields Matches tests.
func (r Record) keys() []string {
	keys := make([]string, 0, 2)
	for _, k := range []string{r.Namespace, r.Name} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// ParseFile streams one audit file. Lines that are not JSON objects are
// counted in FileStats.Skipped.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]source.Entry, source.FileStats, error) {
	stats := source.FileStats{Path: path, Kind: source.KindStructured}

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var entries []source.Entry
	res, err := source.ScanLines(ctx, f, p.maxLineSize, func(num int, line []byte) error {
		if len(bytes.TrimSpace(line)) == 0 {
			return nil
		}
		r, derr := p.Decode(line)
		if derr != nil {
			stats.Skipped++
			return nil
		}
		if !p.Matches(r) {
			return nil
		}

		stats.Matched++
		if r.Timestamp.IsZero() {
			stats.Untimed++
		}
		entries = append(entries, source.Entry{
			Source:    source.KindStructured,
			File:      path,
			Line:      num,
			Severity:  r.Severity(),
			Timestamp: r.Timestamp,
			Summary:   source.Summarize(r.Summary(), p.summaryLength),
			Content:   string(line),
			Keys:      r.keys(),
		})
		return nil
	})

	stats.Bytes = res.Bytes
	stats.Lines = res.Lines
	stats.Skipped += res.Oversized
	if err != nil {
		return nil, stats, fmt.Errorf("reading %s: %w", path, err)
	}
	return entries, stats, nil
}

// ParseAll parses files with bounded concurrency; see source.ParseAll.
func (p *Parser) ParseAll(ctx context.Context, files []string) ([]source.Entry, []source.FileStats, error) {
	return source.ParseAll(ctx, p, files, p.concurrency)
}
