package types

import (
	"math"
	"strconv"
	"strings"
)

// FloatValue represents a floating point number
type FloatValue struct {
	Val float64
}

// Type returns the type code for floats
func (f FloatValue) Type() TypeCode {
	return TYPE_FLOAT
}

// String returns the text form; whole numbers keep a trailing ".0"
func (f FloatValue) String() string {
	if math.IsNaN(f.Val) {
		return "NaN"
	}
	if math.IsInf(f.Val, 1) {
		return "Inf"
	}
	if math.IsInf(f.Val, -1) {
		return "-Inf"
	}
	s := strconv.FormatFloat(f.Val, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Equal checks deep equality
func (f FloatValue) Equal(other Value) bool {
	o, ok := other.(FloatValue)
	if !ok {
		return false
	}
	if math.IsNaN(f.Val) || math.IsNaN(o.Val) {
		return false
	}
	return f.Val == o.Val
}

// Truthy returns whether the float is non-zero
func (f FloatValue) Truthy() bool {
	return f.Val != 0
}

// NewFloat creates a new FloatValue
func NewFloat(val float64) FloatValue {
	return FloatValue{Val: val}
}
