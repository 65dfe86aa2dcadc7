package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	skerrors "github.com/jmurray2011/skein/internal/errors"
	"github.com/jmurray2011/skein/internal/source"
)

// createTempFile writes content to dir/name, creating parent directories.
func createTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	createTempFile(t, dir, "ns-a_web-0/web/0.log", "x\n")
	createTempFile(t, dir, "ns-a_web-0/web/1.log", "x\n")
	createTempFile(t, dir, "ns-b_db-0/db/0.log", "x\n")
	createTempFile(t, dir, "node/kubelet.txt", "x\n")
	createTempFile(t, dir, "node/kubelet.gz", "x\n")
	createTempFile(t, dir, "top.log", "x\n")

	got, err := Discover(dir, DefaultPodGlobs)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	want := []string{
		filepath.Join(dir, "node/kubelet.txt"),
		filepath.Join(dir, "ns-a_web-0/web/0.log"),
		filepath.Join(dir, "ns-a_web-0/web/1.log"),
		filepath.Join(dir, "ns-b_db-0/db/0.log"),
		filepath.Join(dir, "top.log"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Discover mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_OverlappingGlobsDeduplicated(t *testing.T) {
	dir := t.TempDir()
	createTempFile(t, dir, "a/audit.log", "x\n")

	got, err := Discover(dir, []string{"**/*.log", "a/*.log", "./a/audit.log"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %v, want one file", got)
	}
}

func TestDiscover_Unavailable(t *testing.T) {
	empty := t.TempDir()
	createTempFile(t, empty, "readme.md", "not a log")

	file := createTempFile(t, t.TempDir(), "plain.log", "x")

	tests := []struct {
		name       string
		dir        string
		wantReason string
	}{
		{"missing", filepath.Join(t.TempDir(), "does-not-exist"), "does not exist"},
		{"no matches", empty, "no files match"},
		{"not a directory", file, "not a directory"},
		{"empty path", "", "no directory given"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Discover(tt.dir, DefaultPodGlobs)
			var iu *skerrors.InputUnavailableError
			if !errors.As(err, &iu) {
				t.Fatalf("Discover error = %v, want InputUnavailableError", err)
			}
			if !strings.Contains(iu.Reason, tt.wantReason) {
				t.Errorf("Reason = %q, want it to contain %q", iu.Reason, tt.wantReason)
			}
		})
	}
}

func TestDiscover_BadGlob(t *testing.T) {
	dir := t.TempDir()
	createTempFile(t, dir, "a.log", "x")

	_, err := Discover(dir, []string{"[a-"})
	if !skerrors.IsConfiguration(err) {
		t.Errorf("Discover bad glob error = %v, want ConfigurationError", err)
	}
}

func TestReadLine(t *testing.T) {
	dir := t.TempDir()
	path := createTempFile(t, dir, "app.log", "line 1\nline 2\r\nline 3")

	for n, want := range map[int]string{1: "line 1", 2: "line 2", 3: "line 3"} {
		got, err := ReadLine(context.Background(), path, n)
		if err != nil {
			t.Fatalf("ReadLine(%d): %v", n, err)
		}
		if got != want {
			t.Errorf("ReadLine(%d) = %q, want %q", n, got, want)
		}
	}

	if _, err := ReadLine(context.Background(), path, 4); err == nil {
		t.Error("expected error past end of file")
	}
	if _, err := ReadLine(context.Background(), path, 0); err == nil {
		t.Error("expected error for line 0")
	}
}

func TestGetRecord(t *testing.T) {
	dir := t.TempDir()
	path := createTempFile(t, dir, "pods/web.log", "first\nsecond web-0\n")

	info, line, err := GetRecord(context.Background(), source.MakeLocalPtr(path, 2))
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if info.FilePath != path || info.LineNum != 2 {
		t.Errorf("info = %+v", info)
	}
	if line != "second web-0" {
		t.Errorf("line = %q", line)
	}

	if _, _, err := GetRecord(context.Background(), "not-a-pointer"); err == nil {
		t.Error("expected error for invalid pointer")
	}
}
