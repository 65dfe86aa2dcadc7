package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	skerrors "github.com/jmurray2011/skein/internal/errors"
	"github.com/jmurray2011/skein/internal/source"
)

// DefaultPodGlobs select process-log files under a pod-log directory.
var DefaultPodGlobs = []string{"**/*.log", "**/*.txt"}

// Discover returns every regular file under dir matching any of globs,
// sorted and deduplicated. Globs are doublestar patterns relative to dir.
//
// A directory that is missing, unreadable, or holds no matching files
// yields an *errors.InputUnavailableError so callers can treat it as a
// warning rather than a failure.
func Discover(dir string, globs []string) ([]string, error) {
	if dir == "" {
		return nil, &skerrors.InputUnavailableError{Reason: "no directory given"}
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, &skerrors.InputUnavailableError{Dir: dir, Reason: "directory does not exist"}
	case err != nil:
		return nil, &skerrors.InputUnavailableError{Dir: dir, Reason: err.Error()}
	case !info.IsDir():
		return nil, &skerrors.InputUnavailableError{Dir: dir, Reason: "not a directory"}
	}

	if len(globs) == 0 {
		return nil, skerrors.Configuration("", fmt.Errorf("no file globs configured for %s", dir))
	}

	fsys := os.DirFS(dir)
	seen := make(map[string]bool)
	var files []string

	for _, g := range globs {
		g = filepath.ToSlash(strings.TrimPrefix(g, "./"))
		if !doublestar.ValidatePattern(g) {
			return nil, skerrors.Configuration(g, fmt.Errorf("invalid file glob %q", g))
		}

		matches, err := doublestar.Glob(fsys, g, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q in %s: %w", g, dir, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
			}
		}
	}

	if len(files) == 0 {
		return nil, &skerrors.InputUnavailableError{
			Dir:    dir,
			Reason: fmt.Sprintf("no files match %s", strings.Join(globs, ", ")),
		}
	}

	sort.Strings(files)
	return files, nil
}

// ReadLine returns line n (1-based) of the file at path, streaming the file
// rather than loading it.
func ReadLine(ctx context.Context, path string, n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("line number must be >= 1, got %d", n)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cannot open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var (
		line  string
		found bool
	)
	res, err := source.ScanLines(ctx, f, source.MaxLineSize, func(num int, b []byte) error {
		if num == n {
			line, found = string(b), true
			return source.ErrStopScan
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !found {
		if res.Lines >= n {
			return "", fmt.Errorf("line %d of %s exceeds %d bytes", n, path, source.MaxLineSize)
		}
		return "", fmt.Errorf("line %d not found in %s (%d lines)", n, path, res.Lines)
	}
	return line, nil
}

// GetRecord resolves a file pointer (see source.MakeLocalPtr) to its line.
func GetRecord(ctx context.Context, ptr string) (source.LocalPtrInfo, string, error) {
	info, ok := source.ParseLocalPtr(ptr)
	if !ok {
		return info, "", fmt.Errorf("invalid local pointer: %s", ptr)
	}
	line, err := ReadLine(ctx, info.FilePath, info.LineNum)
	return info, line, err
}
