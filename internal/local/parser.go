package local

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmurray2011/skein/internal/pattern"
	"github.com/jmurray2011/skein/internal/source"
	"github.com/jmurray2011/skein/pkg/timeutil"
)

// Convention identifies the timestamp layout recognised on a line.
type Convention int

const (
	ConventionNone  Convention = iota
	ConventionKlog             // I0115 10:30:45.123456  1234 file.go:42] msg
	ConventionISO              // 2025-01-15T10:30:45.123Z msg
	ConventionSpace            // 2025-01-15 10:30:45,123 msg
	ConventionSyslog           // Jan 15 10:30:45 msg
)

func (c Convention) String() string {
	switch c {
	case ConventionKlog:
		return "klog"
	case ConventionISO:
		return "iso"
	case ConventionSpace:
		return "datetime"
	case ConventionSyslog:
		return "syslog"
	default:
		return "none"
	}
}

var (
	// klogPattern: severity char, mmdd, clock with microseconds, thread id, file:line.
	klogPattern = regexp.MustCompile(`^([IWEF])(\d{2})(\d{2}) (\d{2}):(\d{2}):(\d{2})\.(\d{6})\s+\d+\s+[^\]\s]+\]\s?(.*)$`)

	isoPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?)(?:\s+|$)(.*)$`)

	spacePattern = regexp.MustCompile(`^(\d{4}[-/]\d{2}[-/]\d{2} \d{2}:\d{2}:\d{2}(?:[.,]\d+)?)(?:\s+|$)(.*)$`)

	syslogPattern = regexp.MustCompile(`^([A-Z][a-z]{2})\s+(\d{1,2})\s+(\d{2}):(\d{2}):(\d{2})(?:\.(\d{1,9}))?(?:\s+|$)(.*)$`)

	// criPrefix is the container runtime wrapper on kubelet pod logs:
	// "<stream> <F|P> " after the timestamp.
	criPrefix = regexp.MustCompile(`^(?:stdout|stderr) [FP] `)

	levelKeyPattern     = regexp.MustCompile(`(?i)\b(?:level|lvl|severity)"?\s*[=:]\s*"?([a-z]+)`)
	levelBracketPattern = regexp.MustCompile(`(?i)\[(error|err|warn|warning|info|debug|trace|fatal|crit|critical|panic)\]`)
	levelWordPattern    = regexp.MustCompile(`\b(ERROR|ERR|WARN|WARNING|INFO|DEBUG|TRACE|FATAL|CRITICAL|PANIC)\b`)

	ansiEscapePattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

var months = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// stripANSI removes terminal color codes that some processes write to logs.
func stripANSI(s string) string {
	if !strings.Contains(s, "\x1b[") {
		return s
	}
	return ansiEscapePattern.ReplaceAllString(s, "")
}

// LineParser reads free-text process logs. Each line is first tested
// against the resource pattern; only matching lines are examined for a
// timestamp convention and severity.
type LineParser struct {
	matcher       pattern.Matcher
	referenceYear int
	summaryLength int
	maxLineSize   int
	concurrency   int
}

// Option configures a LineParser.
type Option func(*LineParser)

// WithSummaryLength bounds Entry.Summary to n runes.
func WithSummaryLength(n int) Option {
	return func(p *LineParser) { p.summaryLength = n }
}

// WithMaxLineSize overrides source.MaxLineSize.
func WithMaxLineSize(n int) Option {
	return func(p *LineParser) { p.maxLineSize = n }
}

// WithConcurrency limits how many files ParseAll reads at once.
func WithConcurrency(n int) Option {
	return func(p *LineParser) { p.concurrency = n }
}

// NewLineParser creates a parser. referenceYear completes timestamps that
// carry only month and day (klog, syslog).
func NewLineParser(m pattern.Matcher, referenceYear int, opts ...Option) *LineParser {
	p := &LineParser{
		matcher:       m,
		referenceYear: referenceYear,
		summaryLength: source.DefaultSummaryLength,
		maxLineSize:   source.MaxLineSize,
		concurrency:   source.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Kind implements source.FileParser.
func (p *LineParser) Kind() source.Kind { return source.KindTextual }

// ParseLine converts one raw line into an entry. It returns false when the
// line is blank or does not match the resource pattern.
func (p *LineParser) ParseLine(line string, lineNum int, filePath string) (source.Entry, bool) {
	if strings.TrimSpace(line) == "" || !p.matcher.Matches(line) {
		return source.Entry{}, false
	}

	clean := stripANSI(line)
	ts, sev, rest, _ := p.detect(clean)
	if rest == "" {
		rest = clean
	}

	return source.Entry{
		Source:    source.KindTextual,
		File:      filePath,
		Line:      lineNum,
		Severity:  sev,
		Timestamp: ts,
		Summary:   source.Summarize(rest, p.summaryLength),
		Content:   line,
	}, true
}

// detect tries each convention in order and stops at the first that
// parses. It returns the timestamp (zero when none), severity, and the line
// with the recognised prefix removed.
func (p *LineParser) detect(line string) (time.Time, source.Severity, string, Convention) {
	if m := klogPattern.FindStringSubmatch(line); m != nil {
		if ts, ok := p.klogTime(m); ok {
			return ts, source.ParseSeverity(m[1]), m[8], ConventionKlog
		}
	}

	if m := isoPattern.FindStringSubmatch(line); m != nil {
		if ts, ok := timeutil.ParseISO(m[1]); ok {
			rest := criPrefix.ReplaceAllString(m[2], "")
			// Pod logs often wrap klog output in a runtime timestamp.
			if k := klogPattern.FindStringSubmatch(rest); k != nil {
				return ts, source.ParseSeverity(k[1]), k[8], ConventionISO
			}
			return ts, levelFromText(rest), rest, ConventionISO
		}
	}

	if m := spacePattern.FindStringSubmatch(line); m != nil {
		if ts, ok := timeutil.ParseISO(m[1]); ok {
			return ts, levelFromText(m[2]), m[2], ConventionSpace
		}
	}

	if m := syslogPattern.FindStringSubmatch(line); m != nil {
		if ts, ok := p.syslogTime(m); ok {
			return ts, levelFromText(m[7]), m[7], ConventionSyslog
		}
	}

	return time.Time{}, source.SeverityInfo, "", ConventionNone
}

func (p *LineParser) klogTime(m []string) (time.Time, bool) {
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	clock, ok := clockOf(m[4], m[5], m[6], m[7])
	if !ok {
		return time.Time{}, false
	}
	return timeutil.CompleteDate(p.referenceYear, time.Month(month), day, clock)
}

func (p *LineParser) syslogTime(m []string) (time.Time, bool) {
	month, ok := months[m[1]]
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[2])
	clock, ok := clockOf(m[3], m[4], m[5], m[6])
	if !ok {
		return time.Time{}, false
	}
	return timeutil.CompleteDate(p.referenceYear, month, day, clock)
}

// clockOf converts hh, mm, ss and an optional fraction into a duration
// since midnight.
func clockOf(hh, mm, ss, frac string) (time.Duration, bool) {
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	s, _ := strconv.Atoi(ss)
	if h > 23 || m > 59 || s > 60 {
		return 0, false
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
	if frac != "" {
		// Right-pad to nanoseconds: "123" -> 123000000.
		ns, err := strconv.Atoi((frac + "000000000")[:9])
		if err != nil {
			return 0, false
		}
		d += time.Duration(ns)
	}
	return d, true
}

// levelFromText finds an explicit level token in a log line. Key/value and
// bracketed forms win over bare upper-case words.
func levelFromText(s string) source.Severity {
	if m := levelKeyPattern.FindStringSubmatch(s); m != nil {
		return source.ParseSeverity(m[1])
	}
	if m := levelBracketPattern.FindStringSubmatch(s); m != nil {
		return source.ParseSeverity(m[1])
	}
	if m := levelWordPattern.FindStringSubmatch(s); m != nil {
		return source.ParseSeverity(m[1])
	}
	return source.SeverityInfo
}

// ParseFile streams one process-log file and returns its matching entries
// in line order.
func (p *LineParser) ParseFile(ctx context.Context, path string) ([]source.Entry, source.FileStats, error) {
	stats := source.FileStats{Path: path, Kind: source.KindTextual}

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var entries []source.Entry
	res, err := source.ScanLines(ctx, f, p.maxLineSize, func(num int, b []byte) error {
		entry, ok := p.ParseLine(string(b), num, path)
		if !ok {
			return nil
		}
		stats.Matched++
		if !entry.HasTimestamp() {
			stats.Untimed++
		}
		entries = append(entries, entry)
		return nil
	})

	stats.Bytes = res.Bytes
	stats.Lines = res.Lines
	stats.Skipped = res.Oversized
	if err != nil {
		return nil, stats, fmt.Errorf("reading %s: %w", path, err)
	}
	return entries, stats, nil
}

// ParseAll parses files with bounded concurrency; see source.ParseAll.
func (p *LineParser) ParseAll(ctx context.Context, files []string) ([]source.Entry, []source.FileStats, error) {
	return source.ParseAll(ctx, p, files, p.concurrency)
}
