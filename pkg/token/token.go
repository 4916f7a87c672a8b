// Package token defines the tokens shared by the structural template
// tokenizer and the expression lexer.
//
// Structural kinds classify the units produced by splitting a template on
// its delimiters. Expression kinds classify the pieces of a single
// expression. EOF terminates both streams.
package token

import "fmt"

// Kind represents the type of a lexical token.
type Kind int

const (
	EOF Kind = iota

	// Structural kinds
	Text
	If
	Elif
	Else
	For
	Block
	Extends
	Include
	Parent
	End
	Output
	Comment

	// Expression kinds
	String
	Number
	Atom
	Identifier
	Operator
	UnaryOperator
	Open
	Close
)

var kindNames = map[Kind]string{
	EOF:           "EOF",
	Text:          "Text",
	If:            "If",
	Elif:          "Elif",
	Else:          "Else",
	For:           "For",
	Block:         "Block",
	Extends:       "Extends",
	Include:       "Include",
	Parent:        "Parent",
	End:           "End",
	Output:        "Output",
	Comment:       "Comment",
	String:        "String",
	Number:        "Number",
	Atom:          "Atom",
	Identifier:    "Identifier",
	Operator:      "Operator",
	UnaryOperator: "UnaryOperator",
	Open:          "Open",
	Close:         "Close",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsStatement reports whether k is produced from a {% %} tag.
func (k Kind) IsStatement() bool {
	return k >= If && k <= End
}

// IsExpression reports whether k belongs to the expression grammar.
func (k Kind) IsExpression() bool {
	return k >= String && k <= Close
}

// Token is an immutable (text, kind) pair with the position it was read at.
//
// For statement tokens Text holds the tag payload following the keyword,
// for Output tokens the raw expression and for Text tokens the literal span.
type Token struct {
	Kind Kind
	Text string
	Pos  Position
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

// Preview returns the first n bytes of the token text, with an ellipsis when
// the text was cut. Used to keep error messages short.
func (t Token) Preview(n int) string {
	if len(t.Text) <= n {
		return t.Text
	}
	return t.Text[:n] + "..."
}
