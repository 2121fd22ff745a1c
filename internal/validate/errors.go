package validate

import (
	"errors"
	"fmt"

	"github.com/roach88/planwire/internal/plan"
)

// Code categorizes validation failures.
type Code string

const (
	// CodeOneofUnset indicates an envelope with no variant populated, or a
	// Read with neither table source set.
	CodeOneofUnset Code = "ONEOF_UNSET"

	// CodeOneofMultiSet indicates a Read with both table sources set. The
	// outer envelopes cannot reach this state after construction; only the
	// decoder reports multi-set for those.
	CodeOneofMultiSet Code = "ONEOF_MULTI_SET"

	// CodeStructural indicates a missing required field that is not a child
	// relation, such as an absent filter condition or range end.
	CodeStructural Code = "STRUCTURAL"

	// CodeSemanticConflict indicates mutually exclusive fields both
	// populated, such as a join condition alongside using-columns.
	CodeSemanticConflict Code = "SEMANTIC_CONFLICT"

	// CodeArity indicates a missing required child relation or a collection
	// length constraint violation.
	CodeArity Code = "ARITY"

	// CodeRange indicates an out-of-bounds scalar: negative limit, zero
	// step, precision past the decimal maximum, and so on.
	CodeRange Code = "RANGE"

	// CodeUnsupportedVariant indicates the test-only Unknown placeholder,
	// which never validates.
	CodeUnsupportedVariant Code = "UNSUPPORTED_VARIANT"

	// CodeDepthExceeded indicates the tree nests deeper than the configured
	// ceiling.
	CodeDepthExceeded Code = "DEPTH_EXCEEDED"
)

// Error reports the first rule violation found, identifying the offending
// node by its root-to-node path.
type Error struct {
	Code    Code
	Path    plan.Path
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validate %s at %s: %s", e.Code, e.Path, e.Message)
}

// IsCode reports whether err is a validation error with the given code.
func IsCode(err error, code Code) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Code == code
}
