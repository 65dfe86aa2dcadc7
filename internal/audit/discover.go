package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/jmurray2011/skein/internal/source"
)

// FieldInfo describes one JMESPath-addressable leaf seen while sampling.
type FieldInfo struct {
	Path   string
	Count  int
	Sample string
}

// Sample is the result of DiscoverFields.
type Sample struct {
	Records int
	Fields  []FieldInfo
}

// Coverage returns how many sampled records carried path.
func (s Sample) Coverage(path string) int {
	for _, f := range s.Fields {
		if f.Path == path {
			return f.Count
		}
	}
	return 0
}

// maxSampleValue bounds FieldInfo.Sample.
const maxSampleValue = 60

// DiscoverFields decodes up to limit records from files, in order, and
// reports every leaf path with how many records carried it. Lines that are
// not JSON objects are ignored.
func DiscoverFields(ctx context.Context, files []string, limit int) (Sample, error) {
	seen := make(map[string]*FieldInfo)
	var s Sample

	for _, path := range files {
		if limit > 0 && s.Records >= limit {
			break
		}
		f, err := os.Open(path)
		if err != nil {
			return s, fmt.Errorf("cannot open file: %w", err)
		}
		_, err = source.ScanLines(ctx, f, source.MaxLineSize, func(_ int, line []byte) error {
			var obj map[string]any
			if json.Unmarshal(line, &obj) != nil {
				return nil
			}
			s.Records++
			for p, v := range leafPaths(obj, "") {
				fi, ok := seen[p]
				if !ok {
					fi = &FieldInfo{Path: p}
					seen[p] = fi
				}
				fi.Count++
				if fi.Sample == "" && v != "" {
					fi.Sample = source.Summarize(v, maxSampleValue)
				}
			}
			if limit > 0 && s.Records >= limit {
				return source.ErrStopScan
			}
			return nil
		})
		_ = f.Close()
		if err != nil {
			return s, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	s.Fields = make([]FieldInfo, 0, len(seen))
	for _, fi := range seen {
		s.Fields = append(s.Fields, *fi)
	}
	sort.Slice(s.Fields, func(i, j int) bool { return s.Fields[i].Path < s.Fields[j].Path })
	return s, nil
}

var bareIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteKey renders key as a JMESPath identifier.
func quoteKey(key string) string {
	if bareIdentifier.MatchString(key) {
		return key
	}
	b, _ := json.Marshal(key)
	return string(b)
}

// leafPaths flattens obj into JMESPath expressions. Arrays of objects become
// projections ("a[].b"); the first element stands in for the rest.
func leafPaths(obj map[string]any, prefix string) map[string]string {
	out := make(map[string]string)
	for key, value := range obj {
		path := quoteKey(key)
		if prefix != "" {
			path = prefix + "." + path
		}

		switch v := value.(type) {
		case map[string]any:
			for k, val := range leafPaths(v, path) {
				out[k] = val
			}
		case []any:
			if len(v) == 0 {
				out[path] = "[]"
				continue
			}
			if nested, ok := v[0].(map[string]any); ok {
				for k, val := range leafPaths(nested, path+"[]") {
					out[k] = val
				}
				continue
			}
			out[path+"[0]"] = sampleValue(v[0])
		default:
			out[path] = sampleValue(v)
		}
	}
	return out
}

func sampleValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return "null"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return strings.TrimSpace(string(b))
	}
}
