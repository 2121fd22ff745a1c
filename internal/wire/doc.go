// Package wire encodes and decodes relation plan trees using the protobuf
// wire format, hand-written over protowire so the tag numbering stays an
// explicit, reviewable part of the compatibility surface.
//
// Compatibility rules: tag numbers are never reused or renumbered; new
// fields and variants are appended only at unused numbers; a retired tag is
// never repurposed.
//
// Decode policy: within the Relation, Expression, Literal and DataType
// envelopes, an unrecognized field number is an unsupported-variant error,
// never a silently dropped node - a silently absent plan node would corrupt
// the tree's semantics. Inside variant payload messages, unknown scalar
// fields are skipped, which is the ordinary forward-compatible path for
// appended fields. A second populated oneof field in one envelope is a
// multi-set error. Nothing is coerced or defaulted; decoding stays
// permissive about cross-field invariants (those belong to the validator)
// and strict about structure.
//
// Both Encode and Decode enforce a configurable depth ceiling and fail with
// a dedicated depth-exceeded error instead of exhausting the call stack on
// pathological or adversarial input.
package wire
