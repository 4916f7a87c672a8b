package data

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
)

// ParseSet turns key=value assignments into a context. Dotted keys build
// nested maps, so "site.title=Home" binds site to {title: Home}. Values are
// read as YAML scalars: 3 is an int, true a bool, "3" a string.
func ParseSet(assignments []string) (core.Context, error) {
	ctx := core.Context{}
	for _, a := range assignments {
		key, raw, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", a)
		}
		segments := strings.Split(key, ".")
		for _, s := range segments {
			if s == "" {
				return nil, fmt.Errorf("invalid key %q in assignment %q", key, a)
			}
		}
		ctx.Merge(core.Context{segments[0]: nest(segments[1:], scalar(raw))})
	}
	return ctx, nil
}

func nest(segments []string, leaf core.Value) core.Value {
	if len(segments) == 0 {
		return leaf
	}
	return core.MapValue{segments[0]: nest(segments[1:], leaf)}
}

// scalar falls back to the raw text for anything that is not a YAML scalar.
func scalar(raw string) core.Value {
	if strings.TrimSpace(raw) == "" {
		return core.StringValue(raw)
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return core.StringValue(raw)
	}
	switch v.(type) {
	case map[string]any, []any:
		return core.StringValue(raw)
	}
	return core.FromGo(v)
}
