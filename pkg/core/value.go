package core

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// Value kinds
// =============================================================================

// ValueKind identifies the variant held by a Value.
type ValueKind int

// ValueKind constants, one per Value variant.
const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindObject
)

// String returns the type name used in error messages.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// =============================================================================
// Value union
// =============================================================================

// Value is the runtime datum produced by evaluating an expression.
// The set of implementations is closed; see the Kind constants.
type Value interface {
	Kind() ValueKind
	// String returns the text written when the value is output.
	String() string
	// Truth reports the value's truthiness: null, false, zero, the empty
	// string and empty collections are false.
	Truth() bool
	value()
}

// NullValue is the null value. Use Null.
type NullValue struct{}

// BoolValue is a boolean.
type BoolValue bool

// IntValue is a signed integer.
type IntValue int64

// FloatValue is a floating point number.
type FloatValue float64

// StringValue is a string.
type StringValue string

// ListValue is an ordered sequence.
type ListValue []Value

// MapValue is a keyed sequence.
type MapValue map[string]Value

// ObjectValue wraps an opaque host value exposing fields and zero-argument
// methods to dotted variable paths.
type ObjectValue struct {
	rv reflect.Value
}

// Null is the singleton null value.
var Null Value = NullValue{}

// True and False are the boolean values.
var (
	True  Value = BoolValue(true)
	False Value = BoolValue(false)
)

func (NullValue) Kind() ValueKind   { return KindNull }
func (BoolValue) Kind() ValueKind   { return KindBool }
func (IntValue) Kind() ValueKind    { return KindInt }
func (FloatValue) Kind() ValueKind  { return KindFloat }
func (StringValue) Kind() ValueKind { return KindString }
func (ListValue) Kind() ValueKind   { return KindList }
func (MapValue) Kind() ValueKind    { return KindMap }
func (ObjectValue) Kind() ValueKind { return KindObject }

func (NullValue) value()   {}
func (BoolValue) value()   {}
func (IntValue) value()    {}
func (FloatValue) value()  {}
func (StringValue) value() {}
func (ListValue) value()   {}
func (MapValue) value()    {}
func (ObjectValue) value() {}

func (NullValue) String() string { return "" }

func (b BoolValue) String() string { return strconv.FormatBool(bool(b)) }

func (i IntValue) String() string { return strconv.FormatInt(int64(i), 10) }

func (f FloatValue) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

func (s StringValue) String() string { return string(s) }

func (l ListValue) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (m MapValue) String() string {
	keys := m.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + m[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (o ObjectValue) String() string {
	if !o.rv.IsValid() {
		return ""
	}
	switch v := o.rv.Interface().(type) {
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

func (NullValue) Truth() bool     { return false }
func (b BoolValue) Truth() bool   { return bool(b) }
func (i IntValue) Truth() bool    { return i != 0 }
func (f FloatValue) Truth() bool  { return f != 0 }
func (s StringValue) Truth() bool { return s != "" }
func (l ListValue) Truth() bool   { return len(l) > 0 }
func (m MapValue) Truth() bool    { return len(m) > 0 }
func (o ObjectValue) Truth() bool { return o.rv.IsValid() }

// Keys returns the map keys in sorted order.
func (m MapValue) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the map values ordered by key.
func (m MapValue) Values() ListValue {
	keys := m.Keys()
	out := make(ListValue, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// NewObject wraps a host value.
func NewObject(v any) ObjectValue {
	return ObjectValue{rv: reflect.ValueOf(v)}
}

// Reflect returns the wrapped reflect.Value.
func (o ObjectValue) Reflect() reflect.Value { return o.rv }

// Interface returns the wrapped host value.
func (o ObjectValue) Interface() any {
	if !o.rv.IsValid() {
		return nil
	}
	return o.rv.Interface()
}

// TypeName returns the Go type of the wrapped value, for error messages.
func (o ObjectValue) TypeName() string {
	if !o.rv.IsValid() {
		return "nil"
	}
	return o.rv.Type().String()
}
