package core

import (
	"fmt"
	"reflect"
)

// FromGo converts a host value into a Value.
//
// Scalars map onto their variants, slices and arrays become lists, maps
// become keyed sequences (non-string keys are formatted with fmt.Sprint) and
// everything else, including structs and pointers to them, is wrapped as an
// opaque object. Nil pointers, maps, slices and interfaces become Null.
func FromGo(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case Value:
		return x
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(x)
	case int64:
		return IntValue(x)
	case float64:
		return FloatValue(x)
	case string:
		return StringValue(x)
	case []any:
		out := make(ListValue, len(x))
		for i, e := range x {
			out[i] = FromGo(e)
		}
		return out
	case map[string]any:
		out := make(MapValue, len(x))
		for k, e := range x {
			out[k] = FromGo(e)
		}
		return out
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Invalid:
		return Null
	case reflect.Bool:
		return BoolValue(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntValue(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return IntValue(int64(rv.Uint())) //nolint:gosec // template integers are int64
	case reflect.Float32, reflect.Float64:
		return FloatValue(rv.Float())
	case reflect.String:
		return StringValue(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return Null
		}
		return listFromReflect(rv)
	case reflect.Array:
		return listFromReflect(rv)
	case reflect.Map:
		if rv.IsNil() {
			return Null
		}
		out := make(MapValue, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key()
			var name string
			if key.Kind() == reflect.String {
				name = key.String()
			} else {
				name = fmt.Sprint(key.Interface())
			}
			out[name] = fromReflect(iter.Value())
		}
		return out
	case reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		return fromReflect(rv.Elem())
	case reflect.Pointer:
		if rv.IsNil() {
			return Null
		}
		return ObjectValue{rv: rv}
	default:
		return ObjectValue{rv: rv}
	}
}

func listFromReflect(rv reflect.Value) ListValue {
	out := make(ListValue, rv.Len())
	for i := range out {
		out[i] = fromReflect(rv.Index(i))
	}
	return out
}

// FromReflect converts a reflect.Value, as returned by field or method
// access on an object, into a Value.
func FromReflect(rv reflect.Value) Value {
	if rv.IsValid() && rv.CanInterface() {
		if v, ok := rv.Interface().(Value); ok {
			return v
		}
	}
	return fromReflect(rv)
}

// ToGo converts a Value back into plain Go data suitable for encoding:
// lists become []any, maps become map[string]any and objects are unwrapped.
func ToGo(v Value) any {
	switch x := v.(type) {
	case NullValue:
		return nil
	case BoolValue:
		return bool(x)
	case IntValue:
		return int64(x)
	case FloatValue:
		return float64(x)
	case StringValue:
		return string(x)
	case ListValue:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = ToGo(e)
		}
		return out
	case MapValue:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = ToGo(e)
		}
		return out
	case ObjectValue:
		return x.Interface()
	default:
		return nil
	}
}
