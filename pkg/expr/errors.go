package expr

// Common error messages
const (
	ErrUnexpectedToken    = "unexpected %s %q, expected %s"
	ErrInvalidToken       = "invalid expression token at %q"
	ErrUnterminatedString = "unterminated string literal"
	ErrInvalidNumber      = "invalid number literal %q"
	ErrInvalidAtom        = "invalid atom %q"
	ErrEmptyExpression    = "empty expression"
)

// Context error messages, following the dotted path being resolved.
const (
	msgUndefined       = "the variable '%s' is not defined within this context"
	msgMissingIndex    = "the index '%s' of the variable '%s' does not exist"
	msgMissingProperty = "the property '%s' of the variable '%s' does not exist"
	msgNoProperties    = "the variable '%s' does not have any properties"
)
