package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	skerrors "github.com/jmurray2011/skein/internal/errors"
	"github.com/jmurray2011/skein/internal/source"
	"github.com/jmurray2011/skein/internal/ui"
)

func TestNewFormatter(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		format string
		want   Format
	}{
		{"text", FormatText},
		{"json", FormatJSON},
		{"csv", FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f := NewFormatter(tt.format, &buf)
			if f.format != tt.want {
				t.Errorf("NewFormatter(%q).format = %v, want %v", tt.format, f.format, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if got, err := ParseFormat("JSON"); err != nil || got != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %v, %v", got, err)
	}

	_, err := ParseFormat("jsno")
	if !skerrors.IsConfiguration(err) {
		t.Fatalf("ParseFormat(jsno) error = %v, want ConfigurationError", err)
	}
	if !strings.Contains(err.Error(), "json") {
		t.Errorf("error should suggest json: %v", err)
	}
}

var sampleEntries = []source.Entry{
	{
		Source: source.KindStructured, File: "/a/audit.log", Line: 4, Severity: source.SeverityWarn,
		Timestamp: time.Date(2025, 1, 15, 10, 30, 0, 500, time.UTC),
		Summary:   "get pods/web-0 in ns-a by admin → HTTP 403", Content: `{"verb":"get"}`,
	},
	{
		Source: source.KindTextual, File: "/p/web.log", Line: 9, Severity: source.SeverityError,
		Summary: "panic, web-0", Content: "panic, web-0",
	},
}

func TestFormatEntriesJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter("json", &buf).FormatEntries(sampleEntries); err != nil {
		t.Fatal(err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	want := []map[string]any{
		{
			"source": "structured", "file": "/a/audit.log", "line": float64(4),
			"ptr": "file:///a/audit.log#4", "severity": "warn",
			"timestamp": "2025-01-15T10:30:00.0000005Z",
			"summary":   "get pods/web-0 in ns-a by admin → HTTP 403", "content": `{"verb":"get"}`,
		},
		{
			"source": "textual", "file": "/p/web.log", "line": float64(9),
			"ptr": "file:///p/web.log#9", "severity": "error", "timestamp": nil,
			"summary": "panic, web-0", "content": "panic, web-0",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatEntriesJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter("json", &buf).FormatEntries(nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty result = %q, want []", got)
	}
}

func TestFormatEntriesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter("csv", &buf).FormatEntries(sampleEntries); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	want := [][]string{
		{"timestamp", "severity", "source", "file", "line", "ptr", "summary", "content"},
		{"2025-01-15T10:30:00.0000005Z", "warn", "structured", "/a/audit.log", "4", "file:///a/audit.log#4",
			"get pods/web-0 in ns-a by admin → HTTP 403", `{"verb":"get"}`},
		{"", "error", "textual", "/p/web.log", "9", "file:///p/web.log#9", "panic, web-0", "panic, web-0"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatEntriesText(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter("text", &buf, ui.WithNoColor(true)).WithHighlight("web-0")
	if err := f.FormatEntries(sampleEntries); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	for _, want := range []string{"[1] 2025-01-15 10:30:00.000", "/a/audit.log:4", "[2] untimed", "  panic, web-0"} {
		if !strings.Contains(got, want) {
			t.Errorf("text output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatEntriesTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter("text", &buf, ui.WithNoColor(true)).FormatEntries(nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No matching entries.") {
		t.Errorf("got %q", buf.String())
	}
}

func TestHighlightPattern(t *testing.T) {
	tests := []struct {
		spec  string
		input string
		want  string
	}{
		{"web.0", "web.0 webx0", "web.0"},
		{"ns-a|ns-b", "ns-b", "ns-b"},
		{"pod-[0-9]", "pod-7", "pod-7"},
	}
	for _, tt := range tests {
		re, err := highlightPattern(tt.spec)
		if err != nil {
			t.Fatalf("highlightPattern(%q): %v", tt.spec, err)
		}
		if got := re.FindString(tt.input); got != tt.want {
			t.Errorf("highlightPattern(%q).FindString(%q) = %q, want %q", tt.spec, tt.input, got, tt.want)
		}
	}

	if re, err := highlightPattern(""); re != nil || err != nil {
		t.Errorf("empty spec = %v, %v", re, err)
	}
}
