package audience

import "fmt"

// Kind enumerates the closed set of attribute value types supported by
// audience evaluation. There is no implicit coercion between kinds: a
// numeric string never compares equal to a number.
type Kind int8

const (
	KindAbsent Kind = iota
	KindString
	KindBool
	KindNumber
)

// Value is an immutable attribute value of one of the supported kinds.
// The zero Value is absent.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number creates a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload and whether the value is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the numeric payload and whether the value is a number.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Boolean returns the boolean payload and whether the value is a boolean.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindNumber:
		return fmt.Sprintf("%g", v.num)
	default:
		return "<absent>"
	}
}

// Attributes maps attribute names to typed values. Absent keys are legal
// and evaluate per three-valued logic, not as errors.
type Attributes map[string]Value

// AttributesOf converts a loosely typed map into Attributes. Supported
// dynamic types are string, bool and the common numeric types; values of
// any other type are dropped, which makes the comparisons that reference
// them resolve to Unknown.
func AttributesOf(m map[string]any) Attributes {
	if len(m) == 0 {
		return nil
	}
	attrs := make(Attributes, len(m))
	for name, raw := range m {
		switch v := raw.(type) {
		case string:
			attrs[name] = String(v)
		case bool:
			attrs[name] = Bool(v)
		case float64:
			attrs[name] = Number(v)
		case float32:
			attrs[name] = Number(float64(v))
		case int:
			attrs[name] = Number(float64(v))
		case int32:
			attrs[name] = Number(float64(v))
		case int64:
			attrs[name] = Number(float64(v))
		}
	}
	return attrs
}
