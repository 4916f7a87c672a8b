package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int
}

type label string

func (l label) String() string { return "label:" + string(l) }

func TestValueString(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"null", Null, ""},
		{"true", True, "true"},
		{"false", False, "false"},
		{"int", IntValue(-42), "-42"},
		{"float", FloatValue(3.5), "3.5"},
		{"whole float", FloatValue(3), "3"},
		{"string", StringValue("a\nb"), "a\nb"},
		{"list", ListValue{IntValue(1), StringValue("x")}, "[1, x]"},
		{"map sorted", MapValue{"b": IntValue(2), "a": IntValue(1)}, "{a: 1, b: 2}"},
		{"stringer object", NewObject(label("x")), "label:x"},
		{"plain object", NewObject(point{1, 2}), "{1 2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValueTruth(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  bool
	}{
		{"null", Null, false},
		{"false", False, false},
		{"true", True, true},
		{"zero", IntValue(0), false},
		{"one", IntValue(1), true},
		{"zero float", FloatValue(0), false},
		{"empty string", StringValue(""), false},
		{"string", StringValue("0"), true},
		{"empty list", ListValue{}, false},
		{"list", ListValue{Null}, true},
		{"empty map", MapValue{}, false},
		{"object", NewObject(&point{}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Truth())
		})
	}
}

func TestFromGo(t *testing.T) {
	var nilPtr *point

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null},
		{"bool", true, True},
		{"int", 7, IntValue(7)},
		{"int32", int32(7), IntValue(7)},
		{"uint8", uint8(7), IntValue(7)},
		{"float32", float32(0.5), FloatValue(0.5)},
		{"string", "s", StringValue("s")},
		{"named string", label("s"), StringValue("s")},
		{"nil pointer", nilPtr, Null},
		{"any slice", []any{1, "a"}, ListValue{IntValue(1), StringValue("a")}},
		{"typed slice", []int{1, 2}, ListValue{IntValue(1), IntValue(2)}},
		{"array", [2]string{"a", "b"}, ListValue{StringValue("a"), StringValue("b")}},
		{"nested map", map[string]any{"a": map[string]any{"b": 1}}, MapValue{"a": MapValue{"b": IntValue(1)}}},
		{"int keyed map", map[int]string{1: "one"}, MapValue{"1": StringValue("one")}},
		{"value passthrough", IntValue(3), IntValue(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromGo(tt.in))
		})
	}
}

func TestFromGoObject(t *testing.T) {
	p := &point{X: 1}
	v := FromGo(p)
	require.Equal(t, KindObject, v.Kind())

	obj := v.(ObjectValue)
	assert.Same(t, p, obj.Interface())
	assert.Equal(t, "*core.point", obj.TypeName())

	v = FromGo(point{X: 1})
	assert.Equal(t, KindObject, v.Kind())
}

func TestToGo(t *testing.T) {
	v := MapValue{
		"list": ListValue{IntValue(1), FloatValue(1.5), Null},
		"ok":   True,
	}
	assert.Equal(t, map[string]any{
		"list": []any{int64(1), 1.5, nil},
		"ok":   true,
	}, ToGo(v))
}

func TestContextCloneIsolation(t *testing.T) {
	ctx := ContextFrom(map[string]any{"a": 1})
	inner := ctx.Clone()
	inner["b"] = IntValue(2)

	_, ok := ctx.Lookup("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, inner.Names())
}

func TestContextMerge(t *testing.T) {
	ctx := ContextFrom(map[string]any{
		"site": map[string]any{"title": "a", "lang": "en"},
		"n":    1,
	})
	ctx.Merge(ContextFrom(map[string]any{
		"site": map[string]any{"title": "b"},
		"n":    2,
	}))

	assert.Equal(t, MapValue{"title": StringValue("b"), "lang": StringValue("en")}, ctx["site"])
	assert.Equal(t, IntValue(2), ctx["n"])
}
