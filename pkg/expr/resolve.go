package expr

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Resolve looks up a dotted path such as "user.address.city" in ctx.
func Resolve(ctx core.Context, path string) (core.Value, error) {
	return resolve(ctx, strings.Split(path, "."))
}

func resolve(ctx core.Context, segments []string) (core.Value, error) {
	head := segments[0]
	v, ok := ctx.Lookup(head)
	if !ok {
		return nil, core.NewContextError(core.ErrUndefined, head, msgUndefined, head)
	}

	prefix := head
	for _, seg := range segments[1:] {
		next, err := member(v, prefix, seg)
		if err != nil {
			return nil, err
		}
		v = next
		prefix += "." + seg
	}
	return v, nil
}

// member resolves one path segment against v. prefix is the path resolved
// so far, used in error messages.
func member(v core.Value, prefix, seg string) (core.Value, error) {
	path := prefix + "." + seg

	switch x := v.(type) {
	case core.MapValue:
		if e, ok := x[seg]; ok {
			return e, nil
		}
		return nil, core.NewContextError(core.ErrMissingIndex, path, msgMissingIndex, seg, prefix)
	case core.ListValue:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(x) {
			return nil, core.NewContextError(core.ErrMissingIndex, path, msgMissingIndex, seg, prefix)
		}
		return x[i], nil
	case core.ObjectValue:
		e, found, err := property(x, seg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if !found {
			return nil, core.NewContextError(core.ErrMissingProperty, path, msgMissingProperty, seg, prefix)
		}
		return e, nil
	}
	return nil, core.NewContextError(core.ErrNoProperties, path, msgNoProperties, prefix)
}

// property looks name up on a host object: first a field of that name
// (as written, then capitalized), then a zero-argument method of the
// capitalized name, then a getter named Get plus the capitalized name.
func property(obj core.ObjectValue, name string) (core.Value, bool, error) {
	rv := obj.Reflect()
	exported := capitalize(name)

	if sv, ok := structOf(rv); ok {
		for _, field := range []string{name, exported} {
			sf, ok := sv.Type().FieldByName(field)
			if ok && sf.IsExported() {
				return core.FromReflect(sv.FieldByIndex(sf.Index)), true, nil
			}
		}
	}

	for _, method := range []string{exported, "Get" + exported} {
		m := methodByName(rv, method)
		if !m.IsValid() || !callable(m.Type()) {
			continue
		}
		out := m.Call(nil)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, true, out[1].Interface().(error)
		}
		return core.FromReflect(out[0]), true, nil
	}
	return nil, false, nil
}

// methodByName finds a method on rv. A struct held by value is looked up
// through a pointer to a copy, so pointer-receiver methods are found too.
func methodByName(rv reflect.Value, name string) reflect.Value {
	if m := rv.MethodByName(name); m.IsValid() || rv.Kind() != reflect.Struct {
		return m
	}
	if rv.CanAddr() {
		return rv.Addr().MethodByName(name)
	}
	if !rv.CanInterface() {
		return reflect.Value{}
	}
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	return p.MethodByName(name)
}

// structOf dereferences pointers and interfaces down to a struct value.
func structOf(rv reflect.Value) (reflect.Value, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.Kind() == reflect.Struct
}

// callable reports whether a method takes no arguments and returns a value,
// optionally followed by an error.
func callable(t reflect.Type) bool {
	if t.NumIn() != 0 {
		return false
	}
	switch t.NumOut() {
	case 1:
		return true
	case 2:
		return t.Out(1) == errorType
	}
	return false
}

// capitalize upper-cases the first letter of name, leaving the rest intact.
// A Caser is stateful, so one is created per call.
func capitalize(name string) string {
	return cases.Title(language.Und, cases.NoLower).String(name)
}
