package validus

import (
	"math"
	"strconv"
)

// Kind identifies the representation of a Value.
type Kind uint8

const (
	KindNumber Kind = iota
	KindBool
	KindString
	KindInf
)

// Value is a scalar attribute value. Absence is not a Value: lookups that can
// miss return (Value, bool), and the accessor never substitutes zero or false
// for a missing attribute.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

// Number returns a numeric value. Infinite inputs become the distinguished
// inf value.
func Number(f float64) Value {
	if math.IsInf(f, 0) {
		return Value{kind: KindInf, num: f}
	}
	return Value{kind: KindNumber, num: f}
}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Str returns a string value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Inf returns the distinguished positive-infinity value.
func Inf() Value { return Value{kind: KindInf, num: math.Inf(1)} }

// NegInf returns the distinguished negative-infinity value.
func NegInf() Value { return Value{kind: KindInf, num: math.Inf(-1)} }

// ValueOf converts a plain Go scalar (as produced by YAML, JSON or SQL
// decoding) into a Value. The boolean is false for nil and for non-scalar
// types.
func ValueOf(v interface{}) (Value, bool) {
	switch x := v.(type) {
	case nil:
		return Value{}, false
	case bool:
		return Bool(x), true
	case int:
		return Number(float64(x)), true
	case int32:
		return Number(float64(x)), true
	case int64:
		return Number(float64(x)), true
	case uint64:
		return Number(float64(x)), true
	case float32:
		return Number(float64(x)), true
	case float64:
		return Number(x), true
	case string:
		return Str(x), true
	}
	return Value{}, false
}

// Kind returns the value's representation kind.
func (v Value) Kind() Kind { return v.kind }

// IsInf reports whether v is the distinguished infinity (either sign).
func (v Value) IsInf() bool { return v.kind == KindInf }

// Num returns the numeric representation and whether the value is numeric
// (finite numbers and inf both report true).
func (v Value) Num() (float64, bool) {
	if v.kind == KindNumber || v.kind == KindInf {
		return v.num, true
	}
	return 0, false
}

// Truthy reports how the value reads as a bare attribute test: nonzero
// numbers, true booleans, non-empty strings and inf are truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0
	case KindBool:
		return v.b
	case KindString:
		return v.str != ""
	case KindInf:
		return true
	}
	return false
}

// Equal reports value equality. inf equals only inf of the same sign and
// never any finite number; values of different kinds are never equal.
func (v Value) Equal(o Value) bool {
	if v.kind == KindInf || o.kind == KindInf {
		return v.kind == KindInf && o.kind == KindInf &&
			math.Signbit(v.num) == math.Signbit(o.num)
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.str == o.str
	}
	return false
}

// Less reports v < o. Ordering is defined for pairs of finite numbers and
// pairs of strings; every comparison involving inf or mixed kinds reports
// ok=false, since only the equality test is defined for the distinguished
// value.
func (v Value) Less(o Value) (less, ok bool) {
	if v.kind == KindNumber && o.kind == KindNumber {
		return v.num < o.num, true
	}
	if v.kind == KindString && o.kind == KindString {
		return v.str < o.str, true
	}
	return false, false
}

// Interface returns the plain Go representation, for handing values to
// generic consumers such as template or expression environments.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNumber, KindInf:
		return v.num
	case KindBool:
		return v.b
	case KindString:
		return v.str
	}
	return nil
}

// String renders the value for messages: numbers in shortest form, booleans
// as true/false, inf as "inf" or "-inf".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.str
	case KindInf:
		if math.Signbit(v.num) {
			return "-inf"
		}
		return "inf"
	}
	return ""
}
