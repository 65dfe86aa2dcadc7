package audit

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/jmespath/go-jmespath"

	skerrors "github.com/jmurray2011/skein/internal/errors"
)

// FieldPaths holds the JMESPath expressions that locate each record field
// inside a decoded audit line. Timestamp expressions are tried in order and
// the first one yielding a parseable value wins.
type FieldPaths struct {
	Verb      string   `mapstructure:"verb" yaml:"verb"`
	Actor     string   `mapstructure:"actor" yaml:"actor"`
	Code      string   `mapstructure:"code" yaml:"code"`
	Namespace string   `mapstructure:"namespace" yaml:"namespace"`
	Kind      string   `mapstructure:"kind" yaml:"kind"`
	Name      string   `mapstructure:"name" yaml:"name"`
	Timestamp []string `mapstructure:"timestamp" yaml:"timestamp"`
}

// DefaultFieldPaths targets Kubernetes API server audit events.
func DefaultFieldPaths() FieldPaths {
	return FieldPaths{
		Verb:      "verb",
		Actor:     "user.username",
		Code:      "responseStatus.code",
		Namespace: "objectRef.namespace",
		Kind:      "objectRef.resource",
		Name:      "objectRef.name",
		Timestamp: []string{"requestReceivedTimestamp", "stageTimestamp"},
	}
}

// withDefaults fills empty expressions from DefaultFieldPaths.
func (f FieldPaths) withDefaults() FieldPaths {
	d := DefaultFieldPaths()
	if f.Verb == "" {
		f.Verb = d.Verb
	}
	if f.Actor == "" {
		f.Actor = d.Actor
	}
	if f.Code == "" {
		f.Code = d.Code
	}
	if f.Namespace == "" {
		f.Namespace = d.Namespace
	}
	if f.Kind == "" {
		f.Kind = d.Kind
	}
	if f.Name == "" {
		f.Name = d.Name
	}
	if len(f.Timestamp) == 0 {
		f.Timestamp = d.Timestamp
	}
	return f
}

type compiledPaths struct {
	verb, actor, code, namespace, kind, name *jmespath.JMESPath
	timestamp                                []*jmespath.JMESPath
}

func compilePaths(f FieldPaths) (compiledPaths, error) {
	f = f.withDefaults()

	var (
		cp  compiledPaths
		err error
	)
	compile := func(field, expr string) *jmespath.JMESPath {
		if err != nil {
			return nil
		}
		var c *jmespath.JMESPath
		c, err = jmespath.Compile(expr)
		if err != nil {
			err = skerrors.Configuration(expr, fmt.Errorf("invalid JMESPath for audit field %s %q: %w", field, expr, err))
		}
		return c
	}

	cp.verb = compile("verb", f.Verb)
	cp.actor = compile("actor", f.Actor)
	cp.code = compile("code", f.Code)
	cp.namespace = compile("namespace", f.Namespace)
	cp.kind = compile("kind", f.Kind)
	cp.name = compile("name", f.Name)
	for _, expr := range f.Timestamp {
		cp.timestamp = append(cp.timestamp, compile("timestamp", expr))
	}
	return cp, err
}

// search evaluates expr against data. Evaluation errors (type mismatches in
// the record) are treated as absent values.
func search(expr *jmespath.JMESPath, data any) any {
	v, err := expr.Search(data)
	if err != nil {
		return nil
	}
	return first(v)
}

// first reduces a projection result to its first element.
func first(v any) any {
	rv := reflect.ValueOf(v)
	if rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		if rv.Len() == 0 {
			return nil
		}
		return rv.Index(0).Interface()
	}
	return v
}

// stringValue renders a JSON value as display text. Objects and arrays are
// re-encoded; null becomes "".
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil || string(b) == "null" {
			return ""
		}
		return string(b)
	}
}

// intValue extracts an integer response code. Absent or non-integral
// values report false.
func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}
