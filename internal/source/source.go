package source

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of files parsed at once when the caller
// does not choose a limit.
const DefaultConcurrency = 4

// FileParser is implemented by both corpus parsers. ParseFile must not share
// mutable state between calls so files can be parsed concurrently.
type FileParser interface {
	// Kind identifies the corpus the parser reads.
	Kind() Kind

	// ParseFile streams a single file and returns its matching entries in
	// line order. Per-line failures are tallied in FileStats, not returned.
	ParseFile(ctx context.Context, path string) ([]Entry, FileStats, error)
}

// ParseAll runs p over files with at most concurrency files in flight.
// A file that cannot be read is recorded in its FileStats and skipped; only
// cancellation aborts the whole call.
// Results are concatenated in the order of files regardless of which file
// finished first, so output is deterministic for a fixed file list.
func ParseAll(ctx context.Context, p FileParser, files []string, concurrency int) ([]Entry, []FileStats, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	perFile := make([][]Entry, len(files))
	stats := make([]FileStats, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, file := range files {
		g.Go(func() error {
			entries, st, err := p.ParseFile(ctx, file)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// An unreadable file costs only its own entries.
				st.Path, st.Kind, st.Err = file, p.Kind(), err
				stats[i] = st
				return nil
			}
			perFile[i] = entries
			stats[i] = st
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	total := 0
	for _, entries := range perFile {
		total += len(entries)
	}
	results := make([]Entry, 0, total)
	for _, entries := range perFile {
		results = append(results, entries...)
	}

	return results, stats, nil
}
