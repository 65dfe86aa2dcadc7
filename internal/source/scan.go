package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
)

// MaxLineSize is the longest line handed to a parser (1MB). Longer lines are
// skipped without being held in memory.
const MaxLineSize = 1024 * 1024

// readChunkSize is the bufio buffer size; longer lines are assembled from
// several chunks.
const readChunkSize = 64 * 1024

// ctxCheckInterval is how many lines pass between cancellation checks.
const ctxCheckInterval = 1024

// ErrStopScan may be returned from a LineFunc to end ScanLines early
// without an error.
var ErrStopScan = errors.New("stop scan")

// LineFunc receives each line without its terminator, and its 1-based
// number. The slice is only valid until the callback returns.
type LineFunc func(num int, line []byte) error

// ScanResult summarises a ScanLines call.
type ScanResult struct {
	Lines     int   // lines seen, including oversized ones
	Oversized int   // lines dropped for exceeding the size limit
	Bytes     int64 // bytes consumed from r
}

// ScanLines streams r line by line, calling fn for each line of at most
// maxSize bytes. Oversized lines are counted and discarded while they are
// read, so one huge line never forces a huge allocation. A non-positive
// maxSize uses MaxLineSize.
func ScanLines(ctx context.Context, r io.Reader, maxSize int, fn LineFunc) (ScanResult, error) {
	if maxSize <= 0 {
		maxSize = MaxLineSize
	}
	limit := maxSize + 2 // room for "\r\n"

	var (
		res       ScanResult
		br        = bufio.NewReaderSize(r, readChunkSize)
		acc       []byte
		partial   bool
		oversized bool
	)

	for {
		chunk, err := br.ReadSlice('\n')
		res.Bytes += int64(len(chunk))

		if errors.Is(err, bufio.ErrBufferFull) {
			partial = true
			if !oversized {
				if len(acc)+len(chunk) > limit {
					oversized = true
					acc = acc[:0]
				} else {
					acc = append(acc, chunk...)
				}
			}
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return res, err
		}
		eof := err != nil
		if eof && len(chunk) == 0 && !partial {
			return res, nil
		}

		line := chunk
		if partial && !oversized {
			if len(acc)+len(chunk) > limit {
				oversized = true
			} else {
				acc = append(acc, chunk...)
				line = acc
			}
		}
		line = bytes.TrimSuffix(line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) > maxSize {
			oversized = true
		}

		res.Lines++
		var ferr error
		if res.Lines%ctxCheckInterval == 0 {
			ferr = ctx.Err()
		}
		if ferr == nil {
			if oversized {
				res.Oversized++
			} else {
				ferr = fn(res.Lines, line)
			}
		}

		acc = acc[:0]
		partial, oversized = false, false

		if ferr != nil {
			if errors.Is(ferr, ErrStopScan) {
				return res, nil
			}
			return res, ferr
		}
		if eof {
			return res, nil
		}
	}
}
