package wire

import "google.golang.org/protobuf/encoding/protowire"

// Relation envelope. Field 1 is common metadata; everything else is the
// rel_type oneof. Stat functions live in the 100 block and NA functions in
// the 90 block; 999 is the test-only unknown sentinel.
const (
	relCommonTag    protowire.Number = 1
	relReadTag      protowire.Number = 2
	relProjectTag   protowire.Number = 3
	relFilterTag    protowire.Number = 4
	relJoinTag      protowire.Number = 5
	relSetOpTag     protowire.Number = 6
	relSortTag      protowire.Number = 7
	relLimitTag     protowire.Number = 8
	relOffsetTag    protowire.Number = 9
	relAggregateTag protowire.Number = 10
	relSQLTag       protowire.Number = 11
	relLocalTag     protowire.Number = 12
	relSampleTag    protowire.Number = 13
	relRangeTag     protowire.Number = 14
	relSubqueryTag  protowire.Number = 15
	relRepartitionTag protowire.Number = 16
	relRenameSameTag  protowire.Number = 17
	relRenameMapTag   protowire.Number = 18
	relShowStringTag  protowire.Number = 19
	relFillNATag      protowire.Number = 90
	relSummaryTag     protowire.Number = 100
	relCrosstabTag    protowire.Number = 101
	relUnknownTag     protowire.Number = 999
)

// Expression envelope: the expr_type oneof.
const (
	exprLiteralTag   protowire.Number = 1
	exprAttributeTag protowire.Number = 2
	exprFunctionTag  protowire.Number = 3
	exprStringTag    protowire.Number = 4
	exprStarTag      protowire.Number = 5
	exprAliasTag     protowire.Number = 6
)

// Literal envelope. The kind numbering is Substrait-derived; the gaps
// (4, 6, 8, 9, 15, 18) are retired reservations and must never be
// repurposed. 50 and 51 are the uniform metadata fields, outside the oneof.
const (
	litBooleanTag     protowire.Number = 1
	litI8Tag          protowire.Number = 2
	litI16Tag         protowire.Number = 3
	litI32Tag         protowire.Number = 5
	litI64Tag         protowire.Number = 7
	litFP32Tag        protowire.Number = 10
	litFP64Tag        protowire.Number = 11
	litStringTag      protowire.Number = 12
	litBinaryTag      protowire.Number = 13
	litTimestampTag   protowire.Number = 14
	litDateTag        protowire.Number = 16
	litTimeTag        protowire.Number = 17
	litIntervalYMTag  protowire.Number = 19
	litIntervalDSTag  protowire.Number = 20
	litFixedCharTag   protowire.Number = 21
	litVarCharTag     protowire.Number = 22
	litFixedBinaryTag protowire.Number = 23
	litDecimalTag     protowire.Number = 24
	litStructTag      protowire.Number = 25
	litMapTag         protowire.Number = 26
	litTimestampTZTag protowire.Number = 27
	litUUIDTag        protowire.Number = 28
	litNullTag        protowire.Number = 29
	litListTag        protowire.Number = 30
	litEmptyListTag   protowire.Number = 31
	litEmptyMapTag    protowire.Number = 32
	litUserDefinedTag protowire.Number = 33

	litNullableTag      protowire.Number = 50
	litTypeVariationTag protowire.Number = 51
)

// DataType envelope: the kind oneof.
const (
	typBoolTag        protowire.Number = 1
	typI8Tag          protowire.Number = 2
	typI16Tag         protowire.Number = 3
	typI32Tag         protowire.Number = 4
	typI64Tag         protowire.Number = 5
	typFP32Tag        protowire.Number = 6
	typFP64Tag        protowire.Number = 7
	typStringTag      protowire.Number = 8
	typBinaryTag      protowire.Number = 9
	typTimestampTag   protowire.Number = 10
	typTimestampTZTag protowire.Number = 11
	typDateTag        protowire.Number = 12
	typTimeTag        protowire.Number = 13
	typIntervalYMTag  protowire.Number = 14
	typIntervalDSTag  protowire.Number = 15
	typUUIDTag        protowire.Number = 16
	typFixedCharTag   protowire.Number = 17
	typVarCharTag     protowire.Number = 18
	typFixedBinaryTag protowire.Number = 19
	typDecimalTag     protowire.Number = 20
	typStructTag      protowire.Number = 21
	typListTag        protowire.Number = 22
	typMapTag         protowire.Number = 23
	typUserDefinedTag protowire.Number = 24
)
