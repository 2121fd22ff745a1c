// Package literal provides the recursive constant-value model embedded in
// expressions and in LocalRelation rows.
//
// A Literal is an envelope around a sealed Value union of ~25 scalar and
// compound kinds. Two fields apply uniformly across every kind except typed
// null: Nullable declares that the literal's static type admits null
// (independent of this instance's concrete value), and
// TypeVariationReference indexes an out-of-band extension-type table.
package literal

import (
	"github.com/google/uuid"

	"github.com/roach88/planwire/internal/types"
)

// Literal is a single constant value together with its uniform type metadata.
// Compound kinds (Struct, List, Map) recurse through nested Literals; the
// tree has no shared nodes and is immutable once constructed.
type Literal struct {
	// Value holds exactly one of the literal kinds. Nil is a structural
	// error surfaced by validation, never a legal state on the wire.
	Value Value

	// Nullable declares the literal's static type permits null. It says
	// nothing about this instance's concrete value.
	Nullable bool

	// TypeVariationReference indexes an extension-type table carried
	// elsewhere in the plan. Zero means no variation.
	TypeVariationReference uint32
}

// Value is a sealed interface over the literal kinds.
//
// Scalar kinds are named basic types (Boolean, I64, String, ...). Compound
// and multi-field kinds are pointer structs (Decimal, Struct, List, Map,
// the intervals, Null, UserDefined, ...).
type Value interface {
	literalValue() // Marker method - seals interface to this package
}

// Boolean is a boolean literal.
type Boolean bool

// I8 is an 8-bit signed integer literal.
type I8 int8

// I16 is a 16-bit signed integer literal.
type I16 int16

// I32 is a 32-bit signed integer literal.
type I32 int32

// I64 is a 64-bit signed integer literal.
type I64 int64

// FP32 is a 32-bit floating point literal.
type FP32 float32

// FP64 is a 64-bit floating point literal.
type FP64 float64

// String is a UTF-8 string literal.
type String string

// Binary is a byte-sequence literal.
type Binary []byte

// Timestamp is microseconds since the epoch, an absolute instant.
type Timestamp int64

// TimestampTZ is microseconds since the epoch, carrying an implicit session
// or local zone context. The representation is identical to Timestamp; only
// the interpretation differs.
type TimestampTZ int64

// Date is whole days since the epoch.
type Date int32

// Time is microseconds since midnight, with no date component.
type Time int64

// FixedChar is a fixed-length character literal; its length is its type.
type FixedChar string

// FixedBinary is a fixed-length byte-sequence literal.
type FixedBinary []byte

// UUID is a 16-byte universally unique identifier literal.
type UUID []byte

// VarChar is a variable-length character literal with a declared maximum
// length. The value must fit the declared length.
type VarChar struct {
	Value  string
	Length uint32
}

// IntervalYearToMonth is a calendar interval stored decomposed as
// (years, months) rather than a single scalar, avoiding unit-conversion
// ambiguity between producer and consumer calendars.
type IntervalYearToMonth struct {
	Years  int32
	Months int32
}

// IntervalDayToSecond is a calendar interval stored decomposed as
// (days, seconds, microseconds).
type IntervalDayToSecond struct {
	Days         int32
	Seconds      int32
	Microseconds int32
}

// Decimal is a fixed-precision decimal. Value is always exactly 16 bytes of
// little-endian two's-complement integer magnitude regardless of Precision;
// consumers rescale using Precision and Scale. Precision is at most 38.
type Decimal struct {
	Value     []byte
	Precision int32
	Scale     int32
}

// Struct is an ordered, possibly heterogeneous sequence of literals.
type Struct struct {
	Fields []Literal
}

// List is an ordered, homogeneously-typed sequence of literals. Homogeneity
// requires resolved types and is checked by the analyzer, not this layer.
type List struct {
	Values []Literal
}

// MapEntry is one ordered key/value pair of a Map literal.
type MapEntry struct {
	Key   Literal
	Value Literal
}

// Map is an ordered sequence of key/value literal pairs.
type Map struct {
	Entries []MapEntry
}

// Null is a typed null. It is the one kind that carries its resolved type
// inline, and the one kind the uniform Nullable flag does not apply to.
type Null struct {
	Type types.DataType
}

// EmptyList is a zero-element list with its element type spelled out, since
// an empty List literal carries no element to infer the type from.
type EmptyList struct {
	Element types.List
}

// EmptyMap is a zero-element map with its key and value types spelled out.
type EmptyMap struct {
	Map types.Map
}

// UserDefined is the designated escape hatch: an opaque payload meaningful
// only to an engine that recognizes TypeReference. The core model stores and
// round-trips the payload byte-for-byte without interpreting it.
type UserDefined struct {
	TypeReference uint32
	Payload       []byte
}

func (Boolean) literalValue()              {}
func (I8) literalValue()                   {}
func (I16) literalValue()                  {}
func (I32) literalValue()                  {}
func (I64) literalValue()                  {}
func (FP32) literalValue()                 {}
func (FP64) literalValue()                 {}
func (String) literalValue()               {}
func (Binary) literalValue()               {}
func (Timestamp) literalValue()            {}
func (TimestampTZ) literalValue()          {}
func (Date) literalValue()                 {}
func (Time) literalValue()                 {}
func (FixedChar) literalValue()            {}
func (FixedBinary) literalValue()          {}
func (UUID) literalValue()                 {}
func (*VarChar) literalValue()             {}
func (*IntervalYearToMonth) literalValue() {}
func (*IntervalDayToSecond) literalValue() {}
func (*Decimal) literalValue()             {}
func (*Struct) literalValue()              {}
func (*List) literalValue()                {}
func (*Map) literalValue()                 {}
func (*Null) literalValue()                {}
func (*EmptyList) literalValue()           {}
func (*EmptyMap) literalValue()            {}
func (*UserDefined) literalValue()         {}

// New wraps a Value in a Literal with default metadata.
func New(v Value) Literal {
	return Literal{Value: v}
}

// NewNullable wraps a Value in a Literal whose static type permits null.
func NewNullable(v Value) Literal {
	return Literal{Value: v, Nullable: true}
}

// NewUUID builds a UUID literal value from a parsed uuid.
func NewUUID(u uuid.UUID) UUID {
	b := make([]byte, 16)
	copy(b, u[:])
	return UUID(b)
}

// AsUUID parses the 16-byte value back into a uuid. It fails if the value is
// not exactly 16 bytes.
func (u UUID) AsUUID() (uuid.UUID, error) {
	return uuid.FromBytes(u)
}

// KindName returns a stable lower-case name for a literal kind, used in
// error messages, node paths and canonical rendering.
func KindName(v Value) string {
	switch v.(type) {
	case Boolean:
		return "boolean"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case FP32:
		return "fp32"
	case FP64:
		return "fp64"
	case String:
		return "string"
	case Binary:
		return "binary"
	case Timestamp:
		return "timestamp"
	case TimestampTZ:
		return "timestamp_tz"
	case Date:
		return "date"
	case Time:
		return "time"
	case FixedChar:
		return "fixed_char"
	case FixedBinary:
		return "fixed_binary"
	case UUID:
		return "uuid"
	case *VarChar:
		return "var_char"
	case *IntervalYearToMonth:
		return "interval_year_to_month"
	case *IntervalDayToSecond:
		return "interval_day_to_second"
	case *Decimal:
		return "decimal"
	case *Struct:
		return "struct"
	case *List:
		return "list"
	case *Map:
		return "map"
	case *Null:
		return "null"
	case *EmptyList:
		return "empty_list"
	case *EmptyMap:
		return "empty_map"
	case *UserDefined:
		return "user_defined"
	default:
		return "unset"
	}
}
