// Package expr provides the scalar expression tree embedded in relation
// plan nodes.
//
// Expression is a sealed interface - only types in this package implement
// it. Identifiers (column and function names) are carried as plain strings;
// this layer never resolves names. Resolution against a schema catalog is
// the external analyzer's job.
//
// The tree is a strict tree, not a DAG: no node is shared. If the same
// sub-expression must appear in two places it is constructed twice. Interior
// nodes exclusively own their ordered child sequences.
package expr

import "github.com/roach88/planwire/internal/literal"

// Expression represents a scalar computation node.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the wire codec and the validator.
//
// Expression types:
//   - Literal: an embedded constant value
//   - UnresolvedAttribute: a column reference pending resolution
//   - UnresolvedFunction: a function call pending resolution
//   - ExpressionString: raw source text, parsed by the engine's own parser
//   - UnresolvedStar: expand to all columns in scope
//   - Alias: rename the wrapped expression's output column(s)
type Expression interface {
	expression() // Marker method - seals interface to this package
}

// Literal embeds a constant value as an expression.
type Literal struct {
	Value literal.Literal
}

// UnresolvedAttribute is a column reference carried as an unparsed
// identifier string. The analyzer binds it to a concrete schema entity.
type UnresolvedAttribute struct {
	UnparsedIdentifier string
}

// UnresolvedFunction is a function call whose name is carried as unparsed
// name parts. Arguments are an ordered, exclusively-owned child sequence.
type UnresolvedFunction struct {
	Parts     []string
	Arguments []Expression
}

// ExpressionString carries raw expression source text for engines that
// prefer to defer parsing to their own parser. It is opaque to this layer.
type ExpressionString struct {
	Expression string
}

// UnresolvedStar expands to all columns in scope. It carries no payload;
// scope is determined by the analyzer.
type UnresolvedStar struct{}

// Alias wraps exactly one expression with one or more output names. More
// than one name denotes a positional multi-column alias, used when the
// wrapped expression is a table-generating function producing several output
// columns at once. Zero names is invalid.
type Alias struct {
	Expr     Expression
	Name     []string
	Metadata *string
}

func (*Literal) expression()             {}
func (*UnresolvedAttribute) expression() {}
func (*UnresolvedFunction) expression()  {}
func (*ExpressionString) expression()    {}
func (*UnresolvedStar) expression()      {}
func (*Alias) expression()               {}

// Attr builds an unresolved column reference.
func Attr(identifier string) *UnresolvedAttribute {
	return &UnresolvedAttribute{UnparsedIdentifier: identifier}
}

// Fn builds an unresolved function call over the given arguments.
func Fn(name string, args ...Expression) *UnresolvedFunction {
	return &UnresolvedFunction{Parts: []string{name}, Arguments: args}
}

// Lit builds a literal expression from a literal value.
func Lit(v literal.Value) *Literal {
	return &Literal{Value: literal.New(v)}
}

// As wraps an expression under a single output name.
func As(e Expression, name string) *Alias {
	return &Alias{Expr: e, Name: []string{name}}
}

// KindName returns a stable lower-case name for an expression kind, used in
// error messages and node paths.
func KindName(e Expression) string {
	switch e.(type) {
	case *Literal:
		return "literal"
	case *UnresolvedAttribute:
		return "unresolved_attribute"
	case *UnresolvedFunction:
		return "unresolved_function"
	case *ExpressionString:
		return "expression_string"
	case *UnresolvedStar:
		return "unresolved_star"
	case *Alias:
		return "alias"
	default:
		return "unset"
	}
}
