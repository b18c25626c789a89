package types

// StrValue represents a string. Go strings are immutable, so a StrValue may be
// shared by any number of stack slots, operands and variables without copying.
type StrValue struct {
	val string
}

// NewStr creates a new string value
func NewStr(s string) StrValue {
	return StrValue{val: s}
}

// EmptyStr is the empty string value.
var EmptyStr = StrValue{}

// String returns the raw text
func (s StrValue) String() string {
	return s.val
}

// Type returns the type code for strings
func (s StrValue) Type() TypeCode {
	return TYPE_STR
}

// Truthy: the empty string is false, a numeric string has the truth of its
// number, any other string is true.
func (s StrValue) Truthy() bool {
	if s.val == "" {
		return false
	}
	if n, ok := ParseNumber(s.val); ok {
		return n.Truthy()
	}
	return true
}

// Equal compares two strings case-sensitively
func (s StrValue) Equal(other Value) bool {
	if o, ok := other.(StrValue); ok {
		return s.val == o.val
	}
	return false
}

// Value returns the internal string value
func (s StrValue) Value() string {
	return s.val
}
