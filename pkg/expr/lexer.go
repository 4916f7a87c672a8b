package expr

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/token"
)

// operators lists the symbolic binary operators, two-character forms first
// so that the longest match wins.
var operators = []string{"!=", "==", ">=", "<=", "<", ">", "+", "-", "*", "/", "%"}

// wordKinds classifies identifiers that are not variable paths.
var wordKinds = map[string]token.Kind{
	"true":  token.Atom,
	"false": token.Atom,
	"null":  token.Atom,
	"and":   token.Operator,
	"or":    token.Operator,
	"in":    token.Operator,
	"not":   token.UnaryOperator,
}

// Lexer tokenizes one expression.
//
// At each position, after skipping whitespace, the lexer tries in order: a
// double-quoted string, an identifier or dotted path, a symbolic operator, a
// number and a parenthesis.
type Lexer struct {
	input string
	pos   int            // current byte offset in input
	at    token.Position // source position of input[pos]
}

// NewLexer creates a lexer for input. base is the source position of the
// first byte of input, so that token positions point into the template.
func NewLexer(input string, base token.Position) *Lexer {
	if !base.IsValid() {
		base = token.Position{Line: 1, Column: 1}
	}
	return &Lexer{input: input, at: base}
}

// Tokenize returns all tokens of the input, terminated by an EOF token.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens, nil
		}
	}
}

// Tokenize is a convenience wrapper lexing input from line 1, column 1.
func Tokenize(input string) ([]token.Token, error) {
	return NewLexer(input, token.Position{}).Tokenize()
}

func (l *Lexer) next() (token.Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return token.Token{Kind: token.EOF, Pos: l.at}, nil
	}

	ch := l.input[l.pos]
	switch {
	case ch == '"':
		return l.readString()
	case isIdentStart(ch):
		return l.readWord(), nil
	}

	for _, op := range operators {
		if strings.HasPrefix(l.input[l.pos:], op) {
			return l.emit(token.Operator, len(op)), nil
		}
	}

	if n := l.numberLen(); n > 0 {
		return l.emit(token.Number, n), nil
	}

	switch ch {
	case '(':
		return l.emit(token.Open, 1), nil
	case ')':
		return l.emit(token.Close, 1), nil
	}

	return token.Token{}, &core.SyntaxError{
		Pos:     l.at,
		Message: fmt.Sprintf(ErrInvalidToken, l.input[l.pos:]),
	}
}

// emit consumes n bytes as a token of the given kind.
func (l *Lexer) emit(kind token.Kind, n int) token.Token {
	tok := token.Token{Kind: kind, Text: l.input[l.pos : l.pos+n], Pos: l.at}
	l.advance(n)
	return tok
}

func (l *Lexer) advance(n int) {
	l.at = l.at.Advance(l.input[l.pos : l.pos+n])
	l.pos += n
}

func (l *Lexer) skipWhitespace() {
	n := 0
	for l.pos+n < len(l.input) && isSpace(l.input[l.pos+n]) {
		n++
	}
	if n > 0 {
		l.advance(n)
	}
}

// readString reads a double-quoted literal. The token text keeps the quotes
// and escapes; the parser decodes them.
func (l *Lexer) readString() (token.Token, error) {
	i := l.pos + 1
	for i < len(l.input) {
		switch l.input[i] {
		case '\\':
			i += 2
			continue
		case '"':
			return l.emit(token.String, i+1-l.pos), nil
		}
		i++
	}
	return token.Token{}, &core.SyntaxError{Pos: l.at, Message: ErrUnterminatedString}
}

// readWord reads an identifier or dotted path and classifies keywords.
func (l *Lexer) readWord() token.Token {
	n := 1
	for l.pos+n < len(l.input) && isIdentPart(l.input[l.pos+n]) {
		n++
	}
	word := l.input[l.pos : l.pos+n]
	kind, ok := wordKinds[word]
	if !ok {
		kind = token.Identifier
	}
	return l.emit(kind, n)
}

// numberLen returns the length of the numeric literal at the current
// position: optional digits, an optional dot and at least one digit.
func (l *Lexer) numberLen() int {
	s := l.input[l.pos:]
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i+1 < len(s) && s[i] == '.' && isDigit(s[i+1]) {
		i += 2
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	return i
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '.'
}
