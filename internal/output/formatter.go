// Package output writes matched entries to stdout in a machine-readable or
// human-readable form.
package output

import (
	"io"
	"regexp"
	"strings"

	skerrors "github.com/jmurray2011/skein/internal/errors"
	"github.com/jmurray2011/skein/internal/logging"
	"github.com/jmurray2011/skein/internal/pattern"
	"github.com/jmurray2011/skein/internal/ui"
)

// Format specifies the output format type.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Formats lists the supported formats, default first.
var Formats = []string{string(FormatJSON), string(FormatText), string(FormatCSV)}

// ParseFormat validates s. An unknown format is a configuration error with
// suggestions.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, f) {
			return Format(f), nil
		}
	}
	return "", skerrors.UnknownChoiceError("output format", s, Formats)
}

// Formatter handles output formatting for different formats.
type Formatter struct {
	format   Format
	writer   io.Writer
	opts     []ui.Option
	renderer *ui.Renderer
}

// NewFormatter creates a new formatter with the specified format. Renderer
// options apply to text output only.
func NewFormatter(format string, writer io.Writer, opts ...ui.Option) *Formatter {
	f := &Formatter{
		format: Format(format),
		writer: writer,
		opts:   append([]ui.Option{ui.WithOutput(writer)}, opts...),
	}
	f.renderer = ui.NewRendererWithOptions(f.opts...)
	return f
}

// WithHighlight marks the resources named by spec in text output.
func (f *Formatter) WithHighlight(spec string) *Formatter {
	re, err := highlightPattern(spec)
	if err != nil {
		logging.Warn("Invalid highlight pattern %q: %v (highlighting disabled)", spec, err)
		return f
	}
	if re != nil {
		f.renderer = ui.NewRendererWithOptions(append(f.opts[:len(f.opts):len(f.opts)], ui.WithHighlight(re))...)
	}
	return f
}

// highlightPattern turns a resource pattern into a regexp. Literal
// patterns are quoted.
func highlightPattern(spec string) (*regexp.Regexp, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	if pattern.IsLiteral(spec) {
		spec = regexp.QuoteMeta(spec)
	}
	return regexp.Compile(spec)
}
