package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/token"
)

func TestParseGrouping(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1", "1"},
		{"2 + 3 * 4", "(2 + (3 * 4))"},
		{"2 * 3 + 4", "(2 * (3 + 4))"},
		{"(2 * 3) + 4", "((2 * 3) + 4)"},
		{"a and b or c", "(a and (b or c))"},
		{"not a and b", "(not (a and b))"},
		{"(not a) and b", "((not a) and b)"},
		{"-2 + 3", "(-(2 + 3))"},
		{"x in items", "(x in items)"},
		{`"a" == "b"`, `("a" == "b")`},
		{"1.0 < 2", "(1.0 < 2)"},
		{"null", "null"},
		{"((a))", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := Parse(tt.input, token.Position{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  core.Value
	}{
		{"true", core.True},
		{"false", core.False},
		{"null", core.Null},
		{"42", core.IntValue(42)},
		{"3.5", core.FloatValue(3.5)},
		{".25", core.FloatValue(0.25)},
		{`"plain"`, core.StringValue("plain")},
		{`"a\nb"`, core.StringValue("a\nb")},
		{`"q\"q"`, core.StringValue(`q"q`)},
		{`"t\tv\vf\fr\r"`, core.StringValue("t\tv\vf\fr\r")},
		{`"back\\slash"`, core.StringValue(`back\slash`)},
		{`"keep\x"`, core.StringValue(`keep\x`)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := Parse(tt.input, token.Position{})
			require.NoError(t, err)

			lit, ok := n.(*Literal)
			require.True(t, ok, "expected *Literal, got %T", n)
			assert.Equal(t, tt.want, lit.Value)
		})
	}
}

func TestParseVariable(t *testing.T) {
	n, err := Parse("user.address.city", token.Position{})
	require.NoError(t, err)

	v, ok := n.(*Variable)
	require.True(t, ok)
	assert.Equal(t, "user.address.city", v.Path)
	assert.Equal(t, []string{"user", "address", "city"}, v.Segments)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", expectedPrimary},
		{"dangling operator", "1 +", expectedPrimary},
		{"unclosed paren", "(1 + 2", "Close"},
		{"trailing primary", "a b", "EOF"},
		{"stray close", "1)", "EOF"},
		{"two numbers", "1.2.3", "EOF"},
		{"leading operator", "* 2", expectedPrimary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, token.Position{})
			require.Error(t, err)

			var se *core.SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.expected, se.Expected)
		})
	}
}

func TestParseEmptyExpression(t *testing.T) {
	for _, input := range []string{"", "   "} {
		_, err := Parse(input, token.Position{Line: 1, Column: 4})
		require.Error(t, err)

		var se *core.SyntaxError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, ErrEmptyExpression, se.Message)
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Parse("a verylongidentifiername", token.Position{Line: 1, Column: 4})
	require.Error(t, err)
	assert.Equal(t,
		`syntax error at line 1, column 6: unexpected Identifier "verylongid...", expected EOF`,
		err.Error())
}

func TestVariables(t *testing.T) {
	n := MustParse("a.b + c * (a.b - not d)")
	assert.Equal(t, []string{"a.b", "c", "d"}, Variables(n))
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("(") })
}

var tokenStart = token.Position{Line: 1, Column: 1}
