package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	skerrors "github.com/jmurray2011/skein/internal/errors"
	"github.com/jmurray2011/skein/internal/logging"
	"github.com/jmurray2011/skein/internal/report"
	"github.com/jmurray2011/skein/internal/source"
)

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func auditLine(ns, name string, code int, sec int) string {
	return fmt.Sprintf(`{"verb":"get","user":{"username":"admin"},"objectRef":{"namespace":%q,"resource":"pods","name":%q},`+
		`"responseStatus":{"code":%d},"requestReceivedTimestamp":"2025-01-15T10:30:%02d.000000Z"}`, ns, name, code, sec)
}

func config(pattern, auditDir, podDir string) Config {
	return Config{Pattern: pattern, AuditDir: auditDir, PodDir: podDir, ReferenceYear: 2025, Concurrency: 2}
}

func run(t *testing.T, cfg Config, log logging.Logger) *Result {
	t.Helper()
	eng, err := New(cfg, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestNew_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty pattern", Config{ReferenceYear: 2025}},
		{"bad pattern", Config{Pattern: "web-[0", ReferenceYear: 2025}},
		{"no reference year", Config{Pattern: "web-0"}},
		{"bad glob", Config{Pattern: "web-0", ReferenceYear: 2025, PodGlobs: []string{"[a-"}}},
		{"bad field path", func() Config {
			c := Config{Pattern: "web-0", ReferenceYear: 2025}
			c.Fields.Name = "objectRef.["
			return c
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, nil)
			if !skerrors.IsConfiguration(err) {
				t.Errorf("New() error = %v, want ConfigurationError", err)
			}
		})
	}
}

func TestRun_MissingPodDirectory(t *testing.T) {
	auditDir := t.TempDir()
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, auditLine("ns-a", fmt.Sprintf("web-%d", i), 200, i))
	}
	lines = append(lines, auditLine("ns-z", "other", 200, 30))
	writeFile(t, auditDir, "kube-apiserver/audit.log", lines...)

	var logBuf bytes.Buffer
	log := logging.NewWithOutput(&logBuf)

	res := run(t, config("ns-a", auditDir, filepath.Join(t.TempDir(), "pods")), log)

	if res.Timeline.Len() != 10 {
		t.Fatalf("got %d entries, want 10", res.Timeline.Len())
	}
	for _, e := range res.Entries() {
		if e.Source != source.KindStructured {
			t.Errorf("entry from %s, want structured", e.Source)
		}
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(res.Warnings), res.Warnings)
	}
	var iu *skerrors.InputUnavailableError
	if !errors.As(res.Warnings[0], &iu) || iu.Kind != PodSource {
		t.Errorf("warning = %v, want pod InputUnavailableError", res.Warnings[0])
	}
	if res.Pods.Unavailable == nil {
		t.Error("Pods.Unavailable not set")
	}
	if !strings.Contains(logBuf.String(), "[INFO] pod logs unavailable") {
		t.Errorf("expected info diagnostic, got log: %s", logBuf.String())
	}

	// At the CLI's default level the warning reaches the user only once,
	// through Result.Warnings.
	logBuf.Reset()
	log.SetLevel(logging.LevelWarn)
	run(t, config("ns-a", auditDir, filepath.Join(t.TempDir(), "pods")), log)
	if logBuf.Len() != 0 {
		t.Errorf("logger should stay quiet at warn level, got: %s", logBuf.String())
	}
}

func TestRun_MultiResourcePattern(t *testing.T) {
	auditDir, podDir := t.TempDir(), t.TempDir()
	writeFile(t, auditDir, "audit.log",
		auditLine("ns-a", "web-0", 200, 1),
		auditLine("ns-b", "db-0", 200, 2),
		auditLine("ns-c", "cache-0", 200, 3),
	)
	writeFile(t, podDir, "ns-a_web-0/web/0.log",
		"2025-01-15T10:30:04Z serving ns-a/web-0",
		"2025-01-15T10:30:05Z talking to ns-c/cache-0",
	)
	writeFile(t, podDir, "ns-b_db-0/db/0.log",
		"2025-01-15T10:30:06Z ready in ns-b",
	)

	count := func(spec string) int {
		return run(t, config(spec, auditDir, podDir), nil).Timeline.Len()
	}

	a, b := count("ns-a"), count("ns-b")
	res := run(t, config("ns-a|ns-b", auditDir, podDir), nil)
	if res.Timeline.Len() != a+b {
		t.Errorf("ns-a|ns-b = %d entries, want %d + %d", res.Timeline.Len(), a, b)
	}
	for _, e := range res.Entries() {
		if strings.Contains(e.Content, "ns-c") && !strings.Contains(e.Content, "ns-a") && !strings.Contains(e.Content, "ns-b") {
			t.Errorf("ns-c only entry leaked into results: %s", e.Summary)
		}
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestRun_ResourceCountsMatchIndependentRuns(t *testing.T) {
	auditDir, podDir := t.TempDir(), t.TempDir()
	writeFile(t, auditDir, "audit.log",
		`{"verb":"patch","user":{"username":"system:serviceaccount:ns-b:deployer"},`+
			`"objectRef":{"namespace":"ns-a","resource":"deployments","name":"web"},"responseStatus":{"code":200},`+
			`"requestReceivedTimestamp":"2025-01-15T10:30:01Z"}`,
		auditLine("ns-b", "db-0", 200, 2),
	)
	writeFile(t, podDir, "web.log",
		"2025-01-15T10:30:03Z ns-a rollout done",
	)

	spec := "ns-a|ns-b"
	res := run(t, config(spec, auditDir, podDir), nil)

	want := []report.ResourceCount{
		{Name: "ns-a", Count: run(t, config("ns-a", auditDir, podDir), nil).Timeline.Len()},
		{Name: "ns-b", Count: run(t, config("ns-b", auditDir, podDir), nil).Timeline.Len()},
	}
	got := report.ResourceCounts(res.Timeline, report.Metadata{Pattern: spec})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResourceCounts mismatch (-want +got):\n%s", diff)
	}
	if want[0].Count != 2 || want[1].Count != 1 {
		t.Errorf("independent counts = %+v, want ns-a=2 ns-b=1", want)
	}
}

func TestRun_HTTPClassification(t *testing.T) {
	auditDir := t.TempDir()
	writeFile(t, auditDir, "audit.log",
		auditLine("ns-a", "web-0", 403, 1),
		auditLine("ns-a", "web-0", 500, 2),
		auditLine("ns-a", "web-0", 200, 3),
	)

	res := run(t, config("web-0", auditDir, ""), nil)

	var got []source.Severity
	for _, e := range res.Entries() {
		got = append(got, e.Severity)
	}
	want := []source.Severity{source.SeverityWarn, source.SeverityError, source.SeverityInfo}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("severities mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_UnparseableTimestampLast(t *testing.T) {
	auditDir, podDir := t.TempDir(), t.TempDir()
	writeFile(t, auditDir, "audit.log",
		auditLine("ns-a", "web-0", 200, 5),
	)
	writeFile(t, podDir, "web.log",
		"2025-01-15T10:30:01Z web-0 started",
		"web-0 stack trace without any timestamp",
		"2025-01-15T10:30:09Z web-0 stopped",
	)

	res := run(t, config("web-0", auditDir, podDir), nil)
	entries := res.Entries()

	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	untimed := 0
	for _, e := range entries {
		if strings.Contains(e.Content, "without any timestamp") {
			untimed++
		}
	}
	if untimed != 1 {
		t.Errorf("untimed line appears %d times, want 1", untimed)
	}
	last := entries[len(entries)-1]
	if last.HasTimestamp() || !strings.Contains(last.Content, "without any timestamp") {
		t.Errorf("last entry = %q, want the untimed line", last.Content)
	}

	var order []int
	for _, e := range entries[:3] {
		order = append(order, e.Timestamp.Second())
	}
	if diff := cmp.Diff([]int{1, 5, 9}, order); diff != "" {
		t.Errorf("timestamp order mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_EmptyResultIsNotAnError(t *testing.T) {
	auditDir := t.TempDir()
	writeFile(t, auditDir, "audit.log", auditLine("ns-a", "web-0", 200, 1))

	res := run(t, config("nothing-matches", auditDir, ""), nil)
	if res.Timeline.Len() != 0 {
		t.Errorf("got %d entries, want 0", res.Timeline.Len())
	}
	if res.Audit.Totals().Lines != 1 {
		t.Errorf("audit lines = %d, want 1", res.Audit.Totals().Lines)
	}
}

func TestRun_SkippedLinesSummarised(t *testing.T) {
	auditDir := t.TempDir()
	writeFile(t, auditDir, "audit.log",
		auditLine("ns-a", "web-0", 200, 1),
		`{"broken":`,
		`also broken`,
	)

	res := run(t, config("web-0", auditDir, ""), nil)

	skipped := res.SkippedFiles()
	if len(skipped) != 1 || skipped[0].Skipped != 2 {
		t.Errorf("SkippedFiles() = %+v, want one file with 2 skipped lines", skipped)
	}
	totals := res.Totals()
	if totals.Files != 1 || totals.Lines != 3 || totals.Matched != 1 || totals.Skipped != 2 || totals.Entries != 1 {
		t.Errorf("Totals() = %+v", totals)
	}
}

func TestRun_Deterministic(t *testing.T) {
	auditDir, podDir := t.TempDir(), t.TempDir()
	for i := 0; i < 6; i++ {
		writeFile(t, auditDir, fmt.Sprintf("a%d.log", i),
			auditLine("ns-a", "web-0", 200, i),
			auditLine("ns-a", "web-0", 200, 59-i),
		)
		writeFile(t, podDir, fmt.Sprintf("p%d.log", i),
			fmt.Sprintf("2025-01-15T10:30:%02dZ web-0 tick", i*7%60),
			"web-0 untimed "+fmt.Sprint(i),
		)
	}

	cfg := config("web-0", auditDir, podDir)
	first := run(t, cfg, nil).Entries()
	for i := 0; i < 3; i++ {
		again := run(t, cfg, nil).Entries()
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	auditDir := t.TempDir()
	var lines []string
	for i := 0; i < 5000; i++ {
		lines = append(lines, auditLine("ns-a", "web-0", 200, i%60))
	}
	writeFile(t, auditDir, "audit.log", lines...)

	eng, err := New(config("web-0", auditDir, ""), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := eng.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
