package types

import "strconv"

// IntValue represents an integer. Regmatch marks the value as the result of a
// successful regmatch() so callers can tell a match from a plain 1.
type IntValue struct {
	Val      int64
	Regmatch bool
}

// Type returns the type code for integers
func (i IntValue) Type() TypeCode {
	return TYPE_INT
}

// String returns the decimal representation
func (i IntValue) String() string {
	return strconv.FormatInt(i.Val, 10)
}

// Equal checks value equality; the regmatch flag does not participate
func (i IntValue) Equal(other Value) bool {
	o, ok := other.(IntValue)
	if !ok {
		return false
	}
	return i.Val == o.Val
}

// Truthy returns whether the integer is non-zero
func (i IntValue) Truthy() bool {
	return i.Val != 0
}

// NewInt creates a new IntValue
func NewInt(val int64) IntValue {
	return IntValue{Val: val}
}

// NewBool creates the integer form of a boolean
func NewBool(b bool) IntValue {
	if b {
		return IntValue{Val: 1}
	}
	return IntValue{Val: 0}
}

// NewRegmatch creates a regmatch-flagged integer
func NewRegmatch(matched bool) IntValue {
	v := NewBool(matched)
	v.Regmatch = matched
	return v
}

// False is the designated failure result of a statement.
var False Value = IntValue{Val: 0}

// True is the designated success result of a statement.
var True Value = IntValue{Val: 1}
