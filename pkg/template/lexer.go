package template

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/token"
)

// Delimiters
const (
	stmtOpen     = "{%"
	stmtClose    = "%}"
	outputOpen   = "{{"
	outputClose  = "}}"
	commentOpen  = "{#"
	commentClose = "#}"
)

var closers = map[string]string{
	stmtOpen:    stmtClose,
	outputOpen:  outputClose,
	commentOpen: commentClose,
}

// keywords are tried in order; a {% %} tag is the statement of the first
// keyword its content starts with. endif, endfor and anything else starting
// with end are End.
var keywords = []struct {
	word string
	kind token.Kind
}{
	{"if", token.If},
	{"elif", token.Elif},
	{"else", token.Else},
	{"for", token.For},
	{"block", token.Block},
	{"extends", token.Extends},
	{"end", token.End},
	{"include", token.Include},
	{"parent", token.Parent},
}

// keywordOf classifies statement content, returning its kind and the length
// of the matched keyword.
func keywordOf(content string) (token.Kind, int, bool) {
	for _, kw := range keywords {
		if strings.HasPrefix(content, kw.word) {
			return kw.kind, len(kw.word), true
		}
	}
	return token.EOF, 0, false
}

// Lexer splits template source on its delimiters.
//
// Literal spans become Text tokens, {{ }} tags Output tokens and {% %} tags
// the statement kind named by their keyword prefix. An opening delimiter
// with no closing delimiter after it is literal text. Statement and Output
// tokens carry the trimmed tag content and the position of its first byte.
type Lexer struct {
	input string
	pos   int            // current byte offset in input
	at    token.Position // source position of input[pos]

	unclosed map[string]bool // openers with no closer left in the input
}

// NewLexer creates a new lexer for the given input. file names the template
// in token positions.
func NewLexer(input, file string) *Lexer {
	return &Lexer{
		input: input,
		at:    token.Position{File: file, Line: 1, Column: 1},
	}
}

// Tokenize is shorthand for NewLexer(input, file).Tokenize().
func Tokenize(file, input string) ([]token.Token, error) {
	return NewLexer(input, file).Tokenize()
}

// Tokenize converts the input into a token stream terminated by EOF.
// Comments and whitespace-only text are dropped.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var tokens []token.Token

	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.Kind == token.Comment:
			continue
		case tok.Kind == token.Text && strings.TrimSpace(tok.Text) == "":
			continue
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens, nil
		}
	}
}

// nextToken returns the next token from the input.
func (l *Lexer) nextToken() (token.Token, error) {
	if l.pos >= len(l.input) {
		return token.Token{Kind: token.EOF, Pos: l.at}, nil
	}

	start, open := l.findOpen()
	if start > l.pos {
		return l.scanText(start), nil
	}

	content, pos := l.scanTag(open)

	switch open {
	case outputOpen:
		return token.Token{Kind: token.Output, Text: content, Pos: pos}, nil
	case commentOpen:
		return token.Token{Kind: token.Comment, Pos: pos}, nil
	}

	kind, _, ok := keywordOf(content)
	if !ok {
		return token.Token{}, &core.SyntaxError{
			Pos:      pos,
			Token:    token.Token{Kind: token.Text, Text: content, Pos: pos},
			Expected: "statement keyword",
			Message:  fmt.Sprintf(ErrInvalidStatement, content),
		}
	}
	return token.Token{Kind: kind, Text: content, Pos: pos}, nil
}

// findOpen returns the offset of the next opening delimiter at or after the
// current position that has a closing delimiter after it, or len(input)
// when there is none.
func (l *Lexer) findOpen() (int, string) {
	for i := l.pos; i < len(l.input)-1; i++ {
		if l.input[i] != '{' {
			continue
		}
		var open string
		switch l.input[i+1] {
		case '%':
			open = stmtOpen
		case '{':
			open = outputOpen
		case '#':
			open = commentOpen
		default:
			continue
		}
		if l.unclosed[open] {
			continue
		}
		if strings.Contains(l.input[i+len(open):], closers[open]) {
			return i, open
		}
		// No closer from here means none from any later offset either.
		if l.unclosed == nil {
			l.unclosed = make(map[string]bool)
		}
		l.unclosed[open] = true
	}
	return len(l.input), ""
}

// scanText consumes literal text up to end.
func (l *Lexer) scanText(end int) token.Token {
	tok := token.Token{Kind: token.Text, Text: l.input[l.pos:end], Pos: l.at}
	l.advance(end - l.pos)
	return tok
}

// scanTag consumes an opening delimiter, its content and the first
// following closing delimiter, which findOpen has seen. It returns the
// trimmed content and the position of its first byte.
func (l *Lexer) scanTag(opener string) (string, token.Position) {
	l.advance(len(opener))
	end := strings.Index(l.input[l.pos:], closers[opener])

	raw := l.input[l.pos : l.pos+end]
	lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
	pos := l.at.Advance(raw[:lead])

	l.advance(end + len(closers[opener]))
	return strings.TrimSpace(raw), pos
}

func (l *Lexer) advance(n int) {
	l.at = l.at.Advance(l.input[l.pos : l.pos+n])
	l.pos += n
}
