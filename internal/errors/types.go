package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ConfigurationError aborts a run before any input file is opened.
type ConfigurationError struct {
	Input       string
	Err         error
	Suggestions []string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nTry one of these:\n")
		for _, s := range e.Suggestions {
			b.WriteString("  ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configuration wraps err as a ConfigurationError for input.
func Configuration(input string, err error) error {
	return &ConfigurationError{Input: input, Err: err}
}

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return stderrors.As(err, &ce)
}

// InputUnavailableError describes a log directory that could not contribute
// entries. It is a warning: the run continues without that source.
type InputUnavailableError struct {
	Kind   string
	Dir    string
	Reason string
}

func (e *InputUnavailableError) Error() string {
	if e.Dir == "" {
		return fmt.Sprintf("%s logs unavailable: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s logs unavailable in %s: %s", e.Kind, e.Dir, e.Reason)
}

// IsInputUnavailable reports whether err is, or wraps, an InputUnavailableError.
func IsInputUnavailable(err error) bool {
	var ie *InputUnavailableError
	return stderrors.As(err, &ie)
}
