// Package validate is a single-pass, stateless conformance checker for
// relation trees. It runs after decode and before a plan is handed to any
// consumer, enforcing the cross-field invariants the sealed-union shape
// cannot express: variant population, child arity, mutually exclusive
// fields, numeric ranges, and collection arity and uniqueness.
//
// The walk is pre-order and stops at the first violation. Nothing is
// repaired or defaulted; a failed validation is terminal for the plan
// instance. Checks needing a resolved schema, such as matching a positional
// rename list against the input's column count, belong to the analyzer and
// are deliberately absent here.
package validate
