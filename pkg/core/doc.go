// Package core defines the shared runtime language of leaptmpl.
//
// This package contains:
//   - The Value union produced by expression evaluation
//   - The render Context mapping names to values
//   - Operator semantics (arithmetic, comparison, membership, truthiness)
//   - The SyntaxError / ContextError taxonomy and its sentinel kinds
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// The expression and template packages depend on core, not the reverse.
package core
