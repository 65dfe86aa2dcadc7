package output

import (
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jmurray2011/skein/internal/source"
)

// FormatEntries outputs entries in the configured format, preserving order.
func (f *Formatter) FormatEntries(entries []source.Entry) error {
	switch f.format {
	case FormatJSON:
		return f.formatEntriesJSON(entries)
	case FormatCSV:
		return f.formatEntriesCSV(entries)
	default:
		return f.formatEntriesText(entries)
	}
}

// formatEntriesText outputs entries in human-readable text format.
func (f *Formatter) formatEntriesText(entries []source.Entry) error {
	if len(entries) == 0 {
		f.renderer.NoResults()
		return nil
	}
	for i, e := range entries {
		f.renderer.Entry(i+1, e)
	}
	return nil
}

// jsonEntry is the wire shape of one entry. Timestamp is null for entries
// without a recognizable timestamp.
type jsonEntry struct {
	Source    source.Kind     `json:"source"`
	File      string          `json:"file"`
	Line      int             `json:"line"`
	Ptr       string          `json:"ptr"`
	Severity  source.Severity `json:"severity"`
	Timestamp *string         `json:"timestamp"`
	Summary   string          `json:"summary"`
	Content   string          `json:"content"`
}

func formatTimestamp(e source.Entry) string {
	if !e.HasTimestamp() {
		return ""
	}
	return e.Timestamp.UTC().Format(time.RFC3339Nano)
}

// formatEntriesJSON outputs entries as a JSON array. An empty result is [].
func (f *Formatter) formatEntriesJSON(entries []source.Entry) error {
	jsonEntries := make([]jsonEntry, len(entries))
	for i, e := range entries {
		jsonEntries[i] = jsonEntry{
			Source:   e.Source,
			File:     e.File,
			Line:     e.Line,
			Ptr:      e.Ptr(),
			Severity: e.Severity,
			Summary:  e.Summary,
			Content:  e.Content,
		}
		if ts := formatTimestamp(e); ts != "" {
			jsonEntries[i].Timestamp = &ts
		}
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonEntries)
}

// formatEntriesCSV outputs entries in CSV format.
func (f *Formatter) formatEntriesCSV(entries []source.Entry) error {
	writer := csv.NewWriter(f.writer)

	if err := writer.Write([]string{"timestamp", "severity", "source", "file", "line", "ptr", "summary", "content"}); err != nil {
		return err
	}

	for _, e := range entries {
		record := []string{
			formatTimestamp(e),
			string(e.Severity),
			string(e.Source),
			e.File,
			strconv.Itoa(e.Line),
			e.Ptr(),
			e.Summary,
			e.Content,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
