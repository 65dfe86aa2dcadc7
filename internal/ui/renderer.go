package ui

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmurray2011/skein/internal/source"
)

// Renderer handles all terminal output with consistent styling.
// Entries go to out; status, warnings and the run summary go to err.
type Renderer struct {
	out       io.Writer
	err       io.Writer
	noColor   bool
	quiet     bool
	highlight *regexp.Regexp
}

// NewRenderer creates a new Renderer with default settings.
func NewRenderer() *Renderer {
	return &Renderer{
		out: os.Stdout,
		err: os.Stderr,
	}
}

// Option is a functional option for configuring the Renderer.
type Option func(*Renderer)

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(r *Renderer) {
		r.out = w
	}
}

// WithError sets the diagnostic writer.
func WithError(w io.Writer) Option {
	return func(r *Renderer) {
		r.err = w
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) Option {
	return func(r *Renderer) {
		r.noColor = noColor
	}
}

// WithQuiet enables quiet mode (suppresses status messages and the summary).
func WithQuiet(quiet bool) Option {
	return func(r *Renderer) {
		r.quiet = quiet
	}
}

// WithHighlight marks matches of re in rendered entry content.
func WithHighlight(re *regexp.Regexp) Option {
	return func(r *Renderer) {
		r.highlight = re
	}
}

// NewRendererWithOptions creates a new Renderer with the given options.
func NewRendererWithOptions(opts ...Option) *Renderer {
	r := NewRenderer()
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Quiet reports whether quiet mode is on.
func (r *Renderer) Quiet() bool { return r.quiet }

// render applies styling if color is enabled.
func (r *Renderer) render(style lipgloss.Style, text string) string {
	if r.noColor {
		return text
	}
	return style.Render(text)
}

// --- Status and Messages ---

// Status prints a status message (suppressed in quiet mode).
func (r *Renderer) Status(format string, args ...any) {
	if r.quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.err, r.render(StatusStyle, msg))
}

// Info prints an informational message.
func (r *Renderer) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.out, msg)
}

// Success prints a success message.
func (r *Renderer) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.out, r.render(SuccessStyle, msg))
}

// Warning prints a warning message.
func (r *Renderer) Warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.err, r.render(WarningStyle, "Warning: "+msg))
}

// Error prints an error message.
func (r *Renderer) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.err, r.render(ErrorStyle, "Error: "+msg))
}

// Debug prints a debug message (only when verbose).
func (r *Renderer) Debug(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.err, r.render(MutedStyle, "[DEBUG] "+msg))
}

// --- Formatted Output ---

// KeyValue prints a key-value pair.
func (r *Renderer) KeyValue(key, value string) {
	r.keyValue(r.out, key, value, 0)
}

func (r *Renderer) keyValue(w io.Writer, key, value string, indent int) {
	prefix := strings.Repeat("  ", indent)
	label := r.render(LabelStyle, key+":")
	fmt.Fprintf(w, "%s%s %s\n", prefix, label, value)
}

func (r *Renderer) section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.render(SectionTitleStyle, title))
}

// Newline prints a blank line.
func (r *Renderer) Newline() {
	fmt.Fprintln(r.out)
}

// --- Entry Rendering ---

// Badge renders a fixed-width severity label.
func (r *Renderer) Badge(sev source.Severity) string {
	return r.render(SeverityStyle(sev), fmt.Sprintf(" %-5s ", strings.ToUpper(string(sev))))
}

// Entry renders one unified entry: a header with index, time, severity and
// location, then the verbatim content indented.
func (r *Renderer) Entry(index int, e source.Entry) {
	ts := "untimed"
	if e.HasTimestamp() {
		ts = e.Timestamp.UTC().Format("2006-01-02 15:04:05.000")
	}

	fmt.Fprint(r.out, r.render(MutedStyle, fmt.Sprintf("[%d] ", index)))
	fmt.Fprint(r.out, r.render(TimestampStyle, ts))
	fmt.Fprint(r.out, " ")
	fmt.Fprint(r.out, r.Badge(e.Severity))
	fmt.Fprint(r.out, " ")
	fmt.Fprint(r.out, r.render(LocationStyle, fmt.Sprintf("%s:%d", e.File, e.Line)))
	fmt.Fprintln(r.out, r.render(MutedStyle, " ("+string(e.Source)+")"))

	content := e.Content
	if r.highlight != nil && !r.noColor {
		content = r.highlight.ReplaceAllStringFunc(content, func(match string) string {
			return HighlightStyle.Render(match)
		})
	}
	fmt.Fprintf(r.out, "  %s\n", content)
}

// --- Table Rendering ---

// Table renders a simple table to the output writer.
func (r *Renderer) Table(headers []string, rows [][]string) {
	r.table(r.out, headers, rows)
}

func (r *Renderer) table(w io.Writer, headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerParts := make([]string, len(headers))
	for i, h := range headers {
		headerParts[i] = r.render(LabelStyle, fmt.Sprintf("%-*s", widths[i], h))
	}
	fmt.Fprintln(w, strings.Join(headerParts, "  "))

	sepParts := make([]string, len(headers))
	for i, width := range widths {
		sepParts[i] = strings.Repeat("-", width)
	}
	fmt.Fprintln(w, r.render(MutedStyle, strings.Join(sepParts, "  ")))

	for _, row := range rows {
		rowParts := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			rowParts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(rowParts, "  "), " "))
	}
}

// NoResults prints a "no results" message.
func (r *Renderer) NoResults() {
	fmt.Fprintln(r.out, r.render(MutedStyle, "No matching entries."))
}
