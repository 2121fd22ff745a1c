// Package types defines the resolved data-type model used by typed literals
// (null, empty list, empty map) and by LocalRelation schemas.
//
// This package contains type definitions only. literal, plan and wire all
// import types; types imports nothing internal. This keeps the type model the
// foundational layer with no circular dependencies.
//
// DataType is a sealed interface using the marker method pattern. Only types
// in this package implement it, which enables exhaustive type switches in the
// wire codec and the validator.
package types

// DataType represents a fully-resolved type.
//
// This is a sealed interface - only types in this package implement it.
// Simple kinds (Bool, I64, String, ...) are empty value structs; parameterized
// kinds (Decimal, FixedChar, Struct, List, Map, ...) are pointer structs so
// the recursive kinds have owned indirections.
type DataType interface {
	dataType() // Marker method - seals interface to this package
}

// Bool is the boolean type.
type Bool struct{}

// I8 is the 8-bit signed integer type.
type I8 struct{}

// I16 is the 16-bit signed integer type.
type I16 struct{}

// I32 is the 32-bit signed integer type.
type I32 struct{}

// I64 is the 64-bit signed integer type.
type I64 struct{}

// FP32 is the 32-bit IEEE-754 floating point type.
type FP32 struct{}

// FP64 is the 64-bit IEEE-754 floating point type.
type FP64 struct{}

// String is the variable-length UTF-8 string type.
type String struct{}

// Binary is the variable-length byte sequence type.
type Binary struct{}

// Timestamp is microseconds since the epoch, interpreted as an absolute
// instant.
type Timestamp struct{}

// TimestampTZ is microseconds since the epoch, interpreted in the session or
// local time zone context.
type TimestampTZ struct{}

// Date is whole days since the epoch.
type Date struct{}

// Time is microseconds since midnight, with no date component.
type Time struct{}

// IntervalYearToMonth is a calendar interval decomposed as (years, months).
type IntervalYearToMonth struct{}

// IntervalDayToSecond is a calendar interval decomposed as
// (days, seconds, microseconds).
type IntervalDayToSecond struct{}

// UUID is the 16-byte universally unique identifier type.
type UUID struct{}

// FixedChar is a fixed-length character string type.
type FixedChar struct {
	Length int32
}

// VarChar is a variable-length character string type with a declared maximum.
type VarChar struct {
	Length int32
}

// FixedBinary is a fixed-length byte sequence type.
type FixedBinary struct {
	Length int32
}

// Decimal is a fixed-precision decimal type. Precision is at most 38.
type Decimal struct {
	Precision int32
	Scale     int32
}

// Field is a named element of a Struct type.
type Field struct {
	Name string
	Type DataType
}

// Struct is an ordered sequence of named, typed fields.
type Struct struct {
	Fields []Field
}

// List is a homogeneously-typed ordered collection.
type List struct {
	Element DataType
}

// Map is an ordered collection of key/value pairs.
type Map struct {
	Key   DataType
	Value DataType
}

// UserDefined references an engine-specific type by its index into the
// out-of-band extension-type table. The core model never interprets it.
type UserDefined struct {
	TypeReference uint32
}

func (Bool) dataType()                 {}
func (I8) dataType()                   {}
func (I16) dataType()                  {}
func (I32) dataType()                  {}
func (I64) dataType()                  {}
func (FP32) dataType()                 {}
func (FP64) dataType()                 {}
func (String) dataType()               {}
func (Binary) dataType()               {}
func (Timestamp) dataType()            {}
func (TimestampTZ) dataType()          {}
func (Date) dataType()                 {}
func (Time) dataType()                 {}
func (IntervalYearToMonth) dataType()  {}
func (IntervalDayToSecond) dataType()  {}
func (UUID) dataType()                 {}
func (*FixedChar) dataType()           {}
func (*VarChar) dataType()             {}
func (*FixedBinary) dataType()         {}
func (*Decimal) dataType()             {}
func (*Struct) dataType()              {}
func (*List) dataType()                {}
func (*Map) dataType()                 {}
func (*UserDefined) dataType()         {}

// Name returns a stable lower-case name for the type kind, used in error
// messages and canonical rendering.
func Name(t DataType) string {
	switch t.(type) {
	case Bool:
		return "bool"
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
	case IntervalYearToMonth:
		return "interval_year_to_month"
	case IntervalDayToSecond:
		return "interval_day_to_second"
	case UUID:
		return "uuid"
	case *FixedChar:
		return "fixed_char"
	case *VarChar:
		return "var_char"
	case *FixedBinary:
		return "fixed_binary"
	case *Decimal:
		return "decimal"
	case *Struct:
		return "struct"
	case *List:
		return "list"
	case *Map:
		return "map"
	case *UserDefined:
		return "user_defined"
	default:
		return "unknown"
	}
}
