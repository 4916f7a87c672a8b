package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
)

type address struct {
	City string
}

type user struct {
	Name    string
	Address *address
	secret  string
	age     int
}

func (u *user) Initials() string { return u.Name[:1] }

func (u *user) GetAge() int { return u.age }

func (u *user) Fail() (string, error) { return "", errors.New("boom") }

func (u *user) Greet(other string) string { return "hi " + other }

func evalString(t *testing.T, input string, ctx core.Context) core.Value {
	t.Helper()
	n, err := Parse(input, tokenStart)
	require.NoError(t, err)
	v, err := n.Evaluate(ctx)
	require.NoError(t, err)
	return v
}

func TestEvaluate(t *testing.T) {
	ctx := core.ContextFrom(map[string]any{
		"n":     10,
		"f":     2.5,
		"s":     "hello",
		"empty": "",
		"items": []any{"a", "b"},
		"m":     map[string]any{"k": "v", "nested": map[string]any{"deep": 1}},
	})

	tests := []struct {
		input string
		want  core.Value
	}{
		{"2 + 3 * 4", core.IntValue(14)},
		{"2 * 3 + 4", core.IntValue(14)},
		{"(2 * 3) + 4", core.IntValue(10)},
		{"10 - 2 - 3", core.IntValue(11)},
		{"7 / 2", core.FloatValue(3.5)},
		{"n / 5", core.IntValue(2)},
		{"n % 3", core.IntValue(1)},
		{"f * 2", core.FloatValue(5)},
		{"-n", core.IntValue(-10)},
		{"not empty", core.True},
		{"not s", core.False},
		{"n == 10", core.True},
		{"n != 10.0", core.False},
		{"n <= 10", core.True},
		{"n < 10", core.False},
		{"n >= 11", core.False},
		{"f > 2", core.True},
		{`"b" < "a"`, core.False},
		{`"b" in items`, core.True},
		{`"z" in items`, core.False},
		{`"ell" in s`, core.True},
		{`"v" in m`, core.True},
		{"m.k", core.StringValue("v")},
		{"m.nested.deep", core.IntValue(1)},
		{"items.1", core.StringValue("b")},
		{"true and s", core.True},
		{"false or empty", core.False},
		{"null", core.Null},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, evalString(t, tt.input, ctx))
		})
	}
}

func TestShortCircuit(t *testing.T) {
	ctx := core.Context{}

	// The undefined right operand is never evaluated.
	assert.Equal(t, core.False, evalString(t, "false and missing", ctx))
	assert.Equal(t, core.True, evalString(t, "true or missing", ctx))

	_, err := MustParse("true and missing").Evaluate(ctx)
	assert.ErrorIs(t, err, core.ErrUndefined)
}

func TestEvaluateObjects(t *testing.T) {
	u := &user{Name: "Ada", Address: &address{City: "London"}, secret: "x", age: 36}
	ctx := core.ContextFrom(map[string]any{"user": u})

	tests := []struct {
		input string
		want  core.Value
	}{
		{"user.Name", core.StringValue("Ada")},
		{"user.name", core.StringValue("Ada")},
		{"user.address.city", core.StringValue("London")},
		{"user.initials", core.StringValue("A")},
		{"user.Initials", core.StringValue("A")},
		{"user.age", core.IntValue(36)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, evalString(t, tt.input, ctx))
		})
	}
}

func TestEvaluateStructValue(t *testing.T) {
	// Held by value, not pointer: pointer-receiver methods still resolve.
	ctx := core.ContextFrom(map[string]any{
		"user": user{Name: "Bo", Address: &address{City: "Oslo"}, age: 41},
	})

	tests := []struct {
		input string
		want  core.Value
	}{
		{"user.name", core.StringValue("Bo")},
		{"user.address.city", core.StringValue("Oslo")},
		{"user.initials", core.StringValue("B")},
		{"user.age", core.IntValue(41)},
		{"user.GetAge", core.IntValue(41)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, evalString(t, tt.input, ctx))
		})
	}
}

func TestResolveErrors(t *testing.T) {
	ctx := core.ContextFrom(map[string]any{
		"user":  &user{Name: "Ada"},
		"m":     map[string]any{"a": map[string]any{}},
		"items": []any{1},
		"n":     1,
	})

	tests := []struct {
		path    string
		kind    error
		errPath string
		message string
	}{
		{"missing", core.ErrUndefined, "missing", "the variable 'missing' is not defined within this context"},
		{"m.a.b", core.ErrMissingIndex, "m.a.b", "the index 'b' of the variable 'm.a' does not exist"},
		{"items.3", core.ErrMissingIndex, "items.3", "the index '3' of the variable 'items' does not exist"},
		{"items.x", core.ErrMissingIndex, "items.x", "the index 'x' of the variable 'items' does not exist"},
		{"user.email", core.ErrMissingProperty, "user.email", "the property 'email' of the variable 'user' does not exist"},
		{"user.secret", core.ErrMissingProperty, "user.secret", "the property 'secret' of the variable 'user' does not exist"},
		{"user.greet", core.ErrMissingProperty, "user.greet", "the property 'greet' of the variable 'user' does not exist"},
		{"n.x", core.ErrNoProperties, "n.x", "the variable 'n' does not have any properties"},
		{"user.name.first", core.ErrNoProperties, "user.name.first", "the variable 'user.name' does not have any properties"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := Resolve(ctx, tt.path)
			require.ErrorIs(t, err, tt.kind)

			var ce *core.ContextError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.errPath, ce.Path)
			assert.Equal(t, tt.message, ce.Message)
		})
	}
}

func TestMethodError(t *testing.T) {
	ctx := core.ContextFrom(map[string]any{"user": &user{Name: "Ada"}})
	_, err := Resolve(ctx, "user.fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user.fail: boom")
}

func TestEvaluateErrors(t *testing.T) {
	ctx := core.ContextFrom(map[string]any{"s": "x"})

	tests := []struct {
		input string
		kind  error
	}{
		{`"x" in 5`, core.ErrUnsupportedType},
		{"1 / 0", core.ErrDivisionByZero},
		{"s + 1", core.ErrUnsupportedType},
		{"-s", core.ErrUnsupportedType},
		{"s < 1", core.ErrUnsupportedType},
		{"missing == 1", core.ErrUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := MustParse(tt.input).Evaluate(ctx)
			require.ErrorIs(t, err, tt.kind)

			var ce *core.ContextError
			require.ErrorAs(t, err, &ce)
			assert.True(t, ce.Pos.IsValid(), "context errors carry the operator position")
		})
	}
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Name", capitalize("name"))
	assert.Equal(t, "FirstName", capitalize("firstName"))
	assert.Equal(t, "URL", capitalize("URL"))
}
