package wire

import (
	"errors"
	"fmt"

	"github.com/roach88/planwire/internal/plan"
)

// Code categorizes decode failures.
type Code string

const (
	// CodeMalformed indicates bytes that are not valid protobuf wire data.
	CodeMalformed Code = "MALFORMED"

	// CodeTruncated indicates a length-delimited field that runs past the
	// end of the buffer.
	CodeTruncated Code = "TRUNCATED"

	// CodeWireType indicates a recognized field carried the wrong wire type.
	CodeWireType Code = "WIRE_TYPE"

	// CodeUnsupportedVariant indicates a variant tag newer than this build
	// recognizes. Distinct from the test-only Unknown sentinel, which has
	// its own tag and is handled by the validator.
	CodeUnsupportedVariant Code = "UNSUPPORTED_VARIANT"

	// CodeOneofMultiSet indicates more than one populated field in a oneof.
	CodeOneofMultiSet Code = "ONEOF_MULTI_SET"

	// CodeDepthExceeded indicates the tree nests deeper than the configured
	// ceiling.
	CodeDepthExceeded Code = "DEPTH_EXCEEDED"
)

// DecodeError reports a decode failure with the root-to-node path of the
// offending node. Decoding is terminal for the plan instance: nothing is
// repaired, defaulted, or retried.
type DecodeError struct {
	Code    Code
	Path    plan.Path
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at %s: %s", e.Code, e.Path, e.Message)
}

// EncodeError reports an unencodable tree, such as a node with no variant
// set or a tree nested past the depth ceiling.
type EncodeError struct {
	Code    Code
	Path    plan.Path
	Message string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s at %s: %s", e.Code, e.Path, e.Message)
}

// IsCode reports whether err is a wire error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code Code) bool {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Code == code
	}
	var ee *EncodeError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// IsDepthExceeded reports whether err is a depth-ceiling failure.
func IsDepthExceeded(err error) bool {
	return IsCode(err, CodeDepthExceeded)
}

// IsUnsupportedVariant reports whether err is an unknown-variant-tag failure.
func IsUnsupportedVariant(err error) bool {
	return IsCode(err, CodeUnsupportedVariant)
}
