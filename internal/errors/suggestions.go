// Package errors provides typed run errors and messages with suggestions.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// SuggestiveError is an error that includes suggestions for fixing the problem.
type SuggestiveError struct {
	Message     string
	Suggestions []string
	HelpCommand string
}

func (e *SuggestiveError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, s := range e.Suggestions {
			b.WriteString("  ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}

	if e.HelpCommand != "" {
		b.WriteString("\nRun '")
		b.WriteString(e.HelpCommand)
		b.WriteString("' for more information.")
	}

	return b.String()
}

// UnknownChoiceError reports a value outside a closed set, such as an
// output format or log level, with the closest valid choices.
func UnknownChoiceError(what, value string, valid []string) error {
	similar := findSimilar(value, valid, 3)
	if len(similar) == 0 {
		similar = valid
	}
	return &ConfigurationError{
		Input:       value,
		Err:         fmt.Errorf("unknown %s %q", what, value),
		Suggestions: similar,
	}
}

// InvalidPatternError wraps a pattern compile failure with hints on the
// accepted pattern syntax.
func InvalidPatternError(pattern string, err error) error {
	return &ConfigurationError{
		Input: pattern,
		Err:   fmt.Errorf("invalid resource pattern %q: %w", pattern, err),
		Suggestions: []string{
			`Single resource:    my-pod`,
			`Several resources:  "ns-a|ns-b"`,
			`Wildcard:           "web-.*-0"`,
		},
	}
}

// MissingFlagError creates an error for a missing required flag.
func MissingFlagError(flag string, examples []string) error {
	return &SuggestiveError{
		Message:     fmt.Sprintf("%s is required", flag),
		Suggestions: examples,
	}
}

// findSimilar finds strings similar to target using Levenshtein distance.
func findSimilar(target string, candidates []string, maxDistance int) []string {
	type match struct {
		value    string
		distance int
	}

	var matches []match
	targetLower := strings.ToLower(target)

	for _, c := range candidates {
		d := levenshtein(targetLower, strings.ToLower(c))
		if d <= maxDistance {
			matches = append(matches, match{value: c, distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	var result []string
	for i := 0; i < len(matches) && i < 3; i++ {
		result = append(result, matches[i].value)
	}

	return result
}

// levenshtein calculates the edit distance between two strings using two
// rolling rows.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
