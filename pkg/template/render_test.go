package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
)

func render(t *testing.T, text string, data map[string]any) string {
	t.Helper()
	tmpl, err := CompileString("test", text, nil)
	require.NoError(t, err)
	out, err := tmpl.Render(core.ContextFrom(data))
	require.NoError(t, err)
	return out
}

func TestRender_Literals(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`{{ 3.5 }}`, "3.5"},
		{`{{ 42 }}`, "42"},
		{`{{ "a\nb" }}`, "a\nb"},
		{`{{ "tab\there" }}`, "tab\there"},
		{`{{ true }}`, "true"},
		{`{{ false }}`, "false"},
		{`{{ null }}`, ""},
		{`{{ 2 + 3 * 4 }}`, "14"},
		{`{{ 2 * 3 + 4 }}`, "14"},
		{`{{ (2 * 3) + 4 }}`, "10"},
		{`{{ 7 / 2 }}`, "3.5"},
		{`{{ "b" in "abc" }}`, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, render(t, tt.input, nil))
		})
	}
}

func TestRender_If(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		data     map[string]any
		expected string
	}{
		{"true branch", "{% if true %}A{% else %}B{% end %}", nil, "A"},
		{"false branch", "{% if false %}A{% else %}B{% end %}", nil, "B"},
		{"no else", "{% if false %}A{% end %}", nil, ""},
		{"endif alias", "{% if x %}yes{% endif %}", map[string]any{"x": 1}, "yes"},
		{"elif first", "{% if n == 1 %}one{% elif n == 2 %}two{% else %}many{% end %}", map[string]any{"n": 1}, "one"},
		{"elif second", "{% if n == 1 %}one{% elif n == 2 %}two{% else %}many{% end %}", map[string]any{"n": 2}, "two"},
		{"elif else", "{% if n == 1 %}one{% elif n == 2 %}two{% else %}many{% end %}", map[string]any{"n": 3}, "many"},
		{"elif without else", "{% if n == 1 %}one{% elif n == 2 %}two{% end %}", map[string]any{"n": 3}, ""},
		{"empty string falsy", "{% if s %}T{% else %}F{% end %}", map[string]any{"s": ""}, "F"},
		{"zero falsy", "{% if n %}T{% else %}F{% end %}", map[string]any{"n": 0}, "F"},
		{"empty list falsy", "{% if l %}T{% else %}F{% end %}", map[string]any{"l": []any{}}, "F"},
		{"null falsy", "{% if v %}T{% else %}F{% end %}", map[string]any{"v": nil}, "F"},
		{"nested", "{% if a %}{% if b %}ab{% else %}a{% end %}{% end %}", map[string]any{"a": true, "b": false}, "a"},
		{"text kept around tags", "x {% if true %} y {% end %} z", nil, "x  y  z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, render(t, tt.input, tt.data))
		})
	}
}

func TestRender_For(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		data     map[string]any
		expected string
	}{
		{"list", "{% for i in items %}{{ i }}{% end %}", map[string]any{"items": []int{1, 2, 3}}, "123"},
		{"endfor alias", "{% for i in items %}{{ i }},{% endfor %}", map[string]any{"items": []string{"a", "b"}}, "a,b,"},
		{"map values by key", "{% for v in m %}{{ v }}{% end %}", map[string]any{"m": map[string]any{"b": 2, "a": 1}}, "12"},
		{"string characters", "{% for c in s %}[{{ c }}]{% end %}", map[string]any{"s": "ab"}, "[a][b]"},
		{"null iterates zero times", "{% for x in v %}x{% end %}", map[string]any{"v": nil}, ""},
		{"dotted collection", "{% for u in site.users %}{{ u.name }} {% end %}",
			map[string]any{"site": map[string]any{"users": []any{
				map[string]any{"name": "ada"}, map[string]any{"name": "bob"},
			}}}, "ada bob "},
		{"nested loops", "{% for a in xs %}{% for b in xs %}{{ a }}{{ b }} {% end %}{% end %}",
			map[string]any{"xs": []int{1, 2}}, "11 12 21 22 "},
		{"shadowing restores outer", "{{ i }}{% for i in xs %}{{ i }}{% end %}{{ i }}",
			map[string]any{"i": "o", "xs": []int{1, 2}}, "o12o"},
		{"parenthesised collection", "{% for x in (xs) %}{{ x }}{% end %}", map[string]any{"xs": []int{7}}, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, render(t, tt.input, tt.data))
		})
	}
}

func TestRender_LoopVariableDoesNotLeak(t *testing.T) {
	tmpl, err := CompileString("test", "{% for i in items %}{{ i }}{% end %}{{ i }}", nil)
	require.NoError(t, err)

	ctx := core.ContextFrom(map[string]any{"items": []int{1, 2, 3}})
	_, err = tmpl.Render(ctx)
	require.ErrorIs(t, err, core.ErrUndefined)

	_, ok := ctx.Lookup("i")
	assert.False(t, ok, "loop variable must not be bound in the caller's context")
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		data    map[string]any
		kind    error
		path    string
		message string
	}{
		{"undefined variable", "{{ missing }}", nil, core.ErrUndefined, "missing",
			"the variable 'missing' is not defined within this context"},
		{"missing dotted property", "{{ user.email }}", map[string]any{"user": map[string]any{"name": "a"}},
			core.ErrMissingIndex, "user.email", "the index 'email' of the variable 'user' does not exist"},
		{"deep missing", "{{ a.b.c }}", map[string]any{"a": map[string]any{"b": map[string]any{}}},
			core.ErrMissingIndex, "a.b.c", "the index 'c' of the variable 'a.b' does not exist"},
		{"no properties", "{{ n.x }}", map[string]any{"n": 5}, core.ErrNoProperties, "n.x",
			"the variable 'n' does not have any properties"},
		{"in on int", `{{ "x" in 5 }}`, nil, core.ErrUnsupportedType, "in",
			"unsupported type 'int' for operator 'in'"},
		{"for over int", "{% for x in n %}{% end %}", map[string]any{"n": 5}, core.ErrNotIterable, "int",
			"value of type 'int' is not iterable"},
		{"error in condition", "{% if missing %}{% end %}", nil, core.ErrUndefined, "missing",
			"the variable 'missing' is not defined within this context"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := CompileString("test", tt.input, nil)
			require.NoError(t, err)

			out, err := tmpl.Render(core.ContextFrom(tt.data))
			require.ErrorIs(t, err, tt.kind)
			assert.Empty(t, out)

			var ce *core.ContextError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.path, ce.Path)
			assert.Equal(t, tt.message, ce.Message)
			assert.Equal(t, "test", ce.Pos.File)
		})
	}
}

func TestRender_NoPartialOutput(t *testing.T) {
	tmpl, err := CompileString("test", "before {{ ok }} {{ missing }} after", nil)
	require.NoError(t, err)

	out, err := tmpl.Render(core.ContextFrom(map[string]any{"ok": 1}))
	require.Error(t, err)
	assert.Equal(t, "", out)
}

type product struct {
	Title string
	price float64
}

func (p *product) GetPrice() float64 { return p.price }

func (p *product) Slug() string { return "p-" + p.Title }

func TestRender_HostObjects(t *testing.T) {
	data := map[string]any{"p": &product{Title: "lamp", price: 9.5}}
	out := render(t, "{{ p.title }} {{ p.price }} {{ p.slug }}", data)
	assert.Equal(t, "lamp 9.5 p-lamp", out)
}

func TestRender_ConcurrentUse(t *testing.T) {
	tmpl, err := CompileString("test", "{% for i in xs %}{{ i * n }}{% end %}", nil)
	require.NoError(t, err)

	done := make(chan string, 8)
	for n := range 8 {
		go func() {
			out, err := tmpl.Render(core.ContextFrom(map[string]any{"xs": []int{1, 2}, "n": n}))
			if err != nil {
				done <- err.Error()
				return
			}
			done <- out
		}()
	}

	seen := make(map[string]bool)
	for range 8 {
		seen[<-done] = true
	}
	assert.True(t, seen["00"])
	assert.True(t, seen["714"])
	assert.Len(t, seen, 8)
}

func TestRender_LiteralDelimiters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"unclosed output", "a {{ b", "a {{ b"},
		{"inline script", "var f = function(){{ return 1; }", "var f = function(){{ return 1; }"},
		{"unclosed statement after output", "{{ x }}{% if", "1{% if"},
		{"prefixed end", "{% if true %}A{% endwhile %}", "A"},
		{"prefixed endfor", "{% for i in xs %}{{ i }}{% endfor_items %}", "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, render(t, tt.input, map[string]any{"x": 1, "xs": []int{1, 2}}))
		})
	}
}
