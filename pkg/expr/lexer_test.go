package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/token"
)

type kt struct {
	kind token.Kind
	text string
}

func TestLexer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []kt
	}{
		{
			name:  "string with escapes",
			input: `"a\"b\n"`,
			want:  []kt{{token.String, `"a\"b\n"`}},
		},
		{
			name:  "dotted identifier",
			input: "user.address.city",
			want:  []kt{{token.Identifier, "user.address.city"}},
		},
		{
			name:  "atoms",
			input: "true false null",
			want:  []kt{{token.Atom, "true"}, {token.Atom, "false"}, {token.Atom, "null"}},
		},
		{
			name:  "keyword operators",
			input: "a and b or c in d",
			want: []kt{
				{token.Identifier, "a"}, {token.Operator, "and"},
				{token.Identifier, "b"}, {token.Operator, "or"},
				{token.Identifier, "c"}, {token.Operator, "in"},
				{token.Identifier, "d"},
			},
		},
		{
			name:  "not is unary",
			input: "not x",
			want:  []kt{{token.UnaryOperator, "not"}, {token.Identifier, "x"}},
		},
		{
			name:  "keyword prefix is an identifier",
			input: "android notes",
			want:  []kt{{token.Identifier, "android"}, {token.Identifier, "notes"}},
		},
		{
			name:  "two character operators win",
			input: "a<=b!=c>=d==e",
			want: []kt{
				{token.Identifier, "a"}, {token.Operator, "<="},
				{token.Identifier, "b"}, {token.Operator, "!="},
				{token.Identifier, "c"}, {token.Operator, ">="},
				{token.Identifier, "d"}, {token.Operator, "=="},
				{token.Identifier, "e"},
			},
		},
		{
			name:  "numbers",
			input: "42 3.5 .5",
			want:  []kt{{token.Number, "42"}, {token.Number, "3.5"}, {token.Number, ".5"}},
		},
		{
			name:  "parens and arithmetic",
			input: "(1+2)*-3%4/5",
			want: []kt{
				{token.Open, "("}, {token.Number, "1"}, {token.Operator, "+"},
				{token.Number, "2"}, {token.Close, ")"}, {token.Operator, "*"},
				{token.Operator, "-"}, {token.Number, "3"}, {token.Operator, "%"},
				{token.Number, "4"}, {token.Operator, "/"}, {token.Number, "5"},
			},
		},
		{
			name:  "whitespace only",
			input: "  \t\n ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			require.NotEmpty(t, tokens)
			assert.Equal(t, token.EOF, tokens[len(tokens)-1].Kind)

			var got []kt
			for _, tok := range tokens[:len(tokens)-1] {
				got = append(got, kt{tok.Kind, tok.Text})
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"unknown character", "a & b", `invalid expression token at "& b"`},
		{"lone dot", "1.", `invalid expression token at "."`},
		{"unterminated string", `"abc`, "unterminated string literal"},
		{"escaped closing quote", `"abc\"`, "unterminated string literal"},
		{"brackets", "[1]", `invalid expression token at "[1]"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			require.Error(t, err)

			var se *core.SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.message, se.Message)
		})
	}
}

func TestLexerPositions(t *testing.T) {
	tokens, err := NewLexer("a +\n  b", token.Position{File: "page", Line: 3, Column: 10, Offset: 40}).Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 4)

	assert.Equal(t, token.Position{File: "page", Line: 3, Column: 10, Offset: 40}, tokens[0].Pos)
	assert.Equal(t, token.Position{File: "page", Line: 3, Column: 12, Offset: 42}, tokens[1].Pos)
	assert.Equal(t, token.Position{File: "page", Line: 4, Column: 3, Offset: 46}, tokens[2].Pos)
}
