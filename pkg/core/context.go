package core

import "sort"

// Context is the render-time mapping from variable name to Value.
//
// Nested scopes (loop bodies) work on a Clone so that bindings introduced
// inside never reach the caller's mapping.
type Context map[string]Value

// ContextFrom converts host data into a Context. A nil map yields an empty
// context.
func ContextFrom(data map[string]any) Context {
	ctx := make(Context, len(data))
	for k, v := range data {
		ctx[k] = FromGo(v)
	}
	return ctx
}

// Clone returns a shallow copy of c.
func (c Context) Clone() Context {
	out := make(Context, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Lookup returns the value bound to name.
func (c Context) Lookup(name string) (Value, bool) {
	v, ok := c[name]
	return v, ok
}

// Names returns the bound names in sorted order.
func (c Context) Names() []string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Merge copies every binding of other into c, overwriting existing names.
// Nested maps are merged recursively rather than replaced.
func (c Context) Merge(other Context) {
	for k, v := range other {
		if dst, ok := c[k].(MapValue); ok {
			if src, ok := v.(MapValue); ok {
				c[k] = mergeMaps(dst, src)
				continue
			}
		}
		c[k] = v
	}
}

func mergeMaps(dst, src MapValue) MapValue {
	out := make(MapValue, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if d, ok := out[k].(MapValue); ok {
			if s, ok := v.(MapValue); ok {
				out[k] = mergeMaps(d, s)
				continue
			}
		}
		out[k] = v
	}
	return out
}
