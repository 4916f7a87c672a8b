package core

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leaptmpl/pkg/token"
)

// Sentinel kinds carried by ContextError. Match them with errors.Is.
var (
	ErrUndefined           = errors.New("undefined variable")
	ErrMissingIndex        = errors.New("missing index")
	ErrMissingProperty     = errors.New("missing property")
	ErrNoProperties        = errors.New("value has no properties")
	ErrUnsupportedType     = errors.New("unsupported operand type")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrNotIterable         = errors.New("value is not iterable")
	ErrParentOutsideBlock  = errors.New("parent outside a block")
	ErrParentWithoutParent = errors.New("parent without parent block")
	ErrSelfExtends         = errors.New("template extends itself")
	ErrCycle               = errors.New("template cycle")
)

// SyntaxError is a compile-time error: an unexpected token, an unknown
// statement, a malformed header or an invalid expression token.
type SyntaxError struct {
	Pos      token.Position
	Token    token.Token // offending token, zero when not applicable
	Expected string      // expected alternative(s), empty when not applicable
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error %s: %s", where(e.Pos), e.Message)
}

// NewSyntaxError creates a syntax error at pos.
func NewSyntaxError(pos token.Position, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// ContextError is an error that depends on the data a template is rendered
// with, or on how templates are composed. Kind is one of the sentinel
// errors of this package.
type ContextError struct {
	Kind    error
	Path    string // offending variable path, operator or template name
	Message string
	Pos     token.Position
}

func (e *ContextError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("context error %s: %s", where(e.Pos), e.Message)
	}
	return "context error: " + e.Message
}

func (e *ContextError) Unwrap() error {
	return e.Kind
}

// NewContextError creates a context error of the given kind.
func NewContextError(kind error, path, format string, args ...any) *ContextError {
	return &ContextError{Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)}
}

// WithPosition attaches a source position to err when it is a ContextError
// that has none yet. Other errors are returned unchanged.
func WithPosition(err error, pos token.Position) error {
	var ce *ContextError
	if errors.As(err, &ce) && !ce.Pos.IsValid() {
		ce.Pos = pos
	}
	return err
}

func where(pos token.Position) string {
	if pos.File != "" {
		return fmt.Sprintf("in %s at line %d, column %d", pos.File, pos.Line, pos.Column)
	}
	return fmt.Sprintf("at line %d, column %d", pos.Line, pos.Column)
}
