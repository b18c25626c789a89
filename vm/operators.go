package vm

import (
	"math"
	"strings"

	"fugue/pattern"
	"fugue/types"
)

// Operators take already-resolved operands: identifiers have been replaced
// by their variable values before any of these run.

// ============================================================================
// UNARY OPERATORS
// ============================================================================

// unaryNot implements logical NOT: !x
func unaryNot(operand types.Value) types.Result {
	return types.Ok(types.NewBool(!operand.Truthy()))
}

// unaryMinus implements negation: -x
func unaryMinus(operand types.Value) types.Result {
	n, code := types.ToNumeric(operand)
	if code != types.E_NONE {
		return notNumber(operand)
	}
	switch v := n.(type) {
	case types.IntValue:
		if v.Val == math.MinInt64 {
			return types.Ok(types.NewFloat(-float64(v.Val)))
		}
		return types.Ok(types.NewInt(-v.Val))
	case types.FloatValue:
		return types.Ok(types.NewFloat(-v.Val))
	case types.TimeValue:
		return types.Ok(types.NewTime(-v.Sec, -v.Usec))
	}
	return types.Err(types.E_TYPE)
}

// unaryPlus converts its operand to a number: +x
func unaryPlus(operand types.Value) types.Result {
	n, code := types.ToNumeric(operand)
	if code != types.E_NONE {
		return notNumber(operand)
	}
	return types.Ok(n)
}

// ============================================================================
// ARITHMETIC OPERATORS
// ============================================================================

// add implements addition: left + right
// Integer overflow promotes to float; a time operand makes the result a time.
func add(left, right types.Value) types.Result {
	l, r, res := numericOperands(left, right)
	if !res.IsNormal() {
		return res
	}
	switch {
	case isTime(l) || isTime(r):
		return types.Ok(microsToTime(toMicros(l) + toMicros(r)))
	case isFloat(l) || isFloat(r):
		return floatResult(toFloat64(l) + toFloat64(r))
	}
	a, b := l.(types.IntValue).Val, r.(types.IntValue).Val
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return floatResult(float64(a) + float64(b))
	}
	return types.Ok(types.NewInt(sum))
}

// subtract implements subtraction: left - right
func subtract(left, right types.Value) types.Result {
	l, r, res := numericOperands(left, right)
	if !res.IsNormal() {
		return res
	}
	switch {
	case isTime(l) || isTime(r):
		return types.Ok(microsToTime(toMicros(l) - toMicros(r)))
	case isFloat(l) || isFloat(r):
		return floatResult(toFloat64(l) - toFloat64(r))
	}
	a, b := l.(types.IntValue).Val, r.(types.IntValue).Val
	diff := a - b
	if (a >= 0 && b < 0 && diff < 0) || (a < 0 && b > 0 && diff >= 0) {
		return floatResult(float64(a) - float64(b))
	}
	return types.Ok(types.NewInt(diff))
}

// multiply implements multiplication: left * right
// One time operand scales a duration; two times multiply to a float.
func multiply(left, right types.Value) types.Result {
	l, r, res := numericOperands(left, right)
	if !res.IsNormal() {
		return res
	}
	switch {
	case isTime(l) && isTime(r):
		return floatResult(toFloat64(l) * toFloat64(r))
	case isTime(l) || isTime(r):
		return types.Ok(types.TimeFromFloat(toFloat64(l) * toFloat64(r)))
	case isFloat(l) || isFloat(r):
		return floatResult(toFloat64(l) * toFloat64(r))
	}
	a, b := l.(types.IntValue).Val, r.(types.IntValue).Val
	if a == 0 || b == 0 {
		return types.Ok(types.NewInt(0))
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return floatResult(float64(a) * float64(b))
	}
	return types.Ok(types.NewInt(p))
}

// divide implements division: left / right
// Integer division truncates. Dividing by zero is E_DIV for every type.
func divide(left, right types.Value) types.Result {
	l, r, res := numericOperands(left, right)
	if !res.IsNormal() {
		return res
	}
	if toFloat64(r) == 0 {
		return types.Err(types.E_DIV)
	}
	switch {
	case isTime(l) && isTime(r):
		return floatResult(toFloat64(l) / toFloat64(r))
	case isTime(l) || isTime(r):
		return types.Ok(types.TimeFromFloat(toFloat64(l) / toFloat64(r)))
	case isFloat(l) || isFloat(r):
		return floatResult(toFloat64(l) / toFloat64(r))
	}
	a, b := l.(types.IntValue).Val, r.(types.IntValue).Val
	if a == math.MinInt64 && b == -1 {
		return floatResult(-float64(a))
	}
	return types.Ok(types.NewInt(a / b))
}

// ============================================================================
// COMPARISON OPERATORS
// ============================================================================

func equal(left, right types.Value) types.Result {
	return types.Ok(types.NewBool(compare(left, right) == 0))
}

func notEqual(left, right types.Value) types.Result {
	return types.Ok(types.NewBool(compare(left, right) != 0))
}

func lessThan(left, right types.Value) types.Result {
	return types.Ok(types.NewBool(compare(left, right) < 0))
}

func lessThanEqual(left, right types.Value) types.Result {
	return types.Ok(types.NewBool(compare(left, right) <= 0))
}

func greaterThan(left, right types.Value) types.Result {
	return types.Ok(types.NewBool(compare(left, right) > 0))
}

func greaterThanEqual(left, right types.Value) types.Result {
	return types.Ok(types.NewBool(compare(left, right) >= 0))
}

// strEqual implements =~, a case-sensitive comparison of the text forms
func strEqual(left, right types.Value) types.Result {
	return types.Ok(types.NewBool(left.String() == right.String()))
}

func strNotEqual(left, right types.Value) types.Result {
	return types.Ok(types.NewBool(left.String() != right.String()))
}

// globMatch implements =/, matching left against the glob on the right
func globMatch(left, right types.Value) types.Result {
	return types.Ok(types.NewBool(pattern.Glob(right.String(), left.String())))
}

func globNoMatch(left, right types.Value) types.Result {
	return types.Ok(types.NewBool(!pattern.Glob(right.String(), left.String())))
}

// compare orders two values. Two strings compare as text unless both are
// numeric; anything that cannot be made numeric also falls back to text.
// Comparison never fails.
func compare(left, right types.Value) int {
	ls, lIsStr := left.(types.StrValue)
	rs, rIsStr := right.(types.StrValue)
	if lIsStr && rIsStr && (!types.IsNumericString(ls.Value()) || !types.IsNumericString(rs.Value())) {
		return strings.Compare(ls.Value(), rs.Value())
	}
	l, lcode := types.ToNumeric(left)
	r, rcode := types.ToNumeric(right)
	if lcode != types.E_NONE || rcode != types.E_NONE {
		return strings.Compare(left.String(), right.String())
	}

	if a, ok := l.(types.IntValue); ok {
		if b, ok := r.(types.IntValue); ok {
			return cmpInt(a.Val, b.Val)
		}
	}
	if a, ok := l.(types.TimeValue); ok {
		if b, ok := r.(types.TimeValue); ok {
			return cmpInt(a.Micros(), b.Micros())
		}
	}
	a, b := toFloat64(l), toFloat64(r)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// numericOperands converts both operands to Int, Float or Time
func numericOperands(left, right types.Value) (types.Value, types.Value, types.Result) {
	l, code := types.ToNumeric(left)
	if code != types.E_NONE {
		return nil, nil, notNumber(left)
	}
	r, code := types.ToNumeric(right)
	if code != types.E_NONE {
		return nil, nil, notNumber(right)
	}
	return l, r, types.Ok(nil)
}

func notNumber(v types.Value) types.Result {
	return types.Errf(types.E_TYPE, "%q is not a number", v.String())
}

func isTime(v types.Value) bool {
	_, ok := v.(types.TimeValue)
	return ok
}

func isFloat(v types.Value) bool {
	_, ok := v.(types.FloatValue)
	return ok
}

// toFloat64 converts a numeric Value to float64; times are seconds
func toFloat64(v types.Value) float64 {
	switch n := v.(type) {
	case types.IntValue:
		return float64(n.Val)
	case types.FloatValue:
		return n.Val
	case types.TimeValue:
		return n.Float()
	}
	return 0
}

// toMicros converts a numeric Value, read as seconds, to microseconds
func toMicros(v types.Value) int64 {
	switch n := v.(type) {
	case types.TimeValue:
		return n.Micros()
	case types.IntValue:
		return n.Val * 1000000
	case types.FloatValue:
		return int64(math.Round(n.Val * 1000000))
	}
	return 0
}

func microsToTime(us int64) types.TimeValue {
	return types.NewTime(0, us)
}

func floatResult(f float64) types.Result {
	return types.Ok(types.NewFloat(f))
}
