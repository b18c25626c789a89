package builtins

import (
	"math"

	"fugue/types"
)

// fnAbs returns the absolute value
// abs(x) -> int|float|time
func fnAbs(env Env, args []types.Value) types.Result {
	v, code := types.ToNumeric(args[0])
	if code != types.E_NONE {
		return types.Errf(code, "abs: not a number")
	}
	switch n := v.(type) {
	case types.IntValue:
		if n.Val == math.MinInt64 {
			return types.Ok(types.NewFloat(-float64(n.Val)))
		}
		if n.Val < 0 {
			return types.Ok(types.NewInt(-n.Val))
		}
		return types.Ok(n)
	case types.FloatValue:
		return types.Ok(types.NewFloat(math.Abs(n.Val)))
	case types.TimeValue:
		if n.Micros() < 0 {
			return types.Ok(types.NewTime(0, -n.Micros()))
		}
		return types.Ok(n)
	}
	return types.Err(types.E_TYPE)
}

// fnMod returns the integer remainder
// mod(a, b) -> int
func fnMod(env Env, args []types.Value) types.Result {
	a, code := types.ToInt(args[0])
	if code != types.E_NONE {
		return types.Err(code)
	}
	b, code := types.ToInt(args[1])
	if code != types.E_NONE {
		return types.Err(code)
	}
	if b == 0 {
		return types.Err(types.E_DIV)
	}
	if b == -1 {
		return types.Ok(types.NewInt(0))
	}
	return types.Ok(types.NewInt(a % b))
}

// fnTrunc truncates toward zero
// trunc(x) -> int
func fnTrunc(env Env, args []types.Value) types.Result {
	f, code := types.ToFloat(args[0])
	if code != types.E_NONE {
		return types.Err(code)
	}
	if v, ok := args[0].(types.IntValue); ok {
		return types.Ok(types.NewInt(v.Val))
	}
	t := math.Trunc(f)
	if math.IsNaN(t) || t < math.MinInt64 || t >= math.MaxInt64 {
		return types.Errf(types.E_RANGE, "trunc: value out of range")
	}
	return types.Ok(types.NewInt(int64(t)))
}

// fnSqrt returns the square root as a float
func fnSqrt(env Env, args []types.Value) types.Result {
	f, code := types.ToFloat(args[0])
	if code != types.E_NONE {
		return types.Err(code)
	}
	if f < 0 {
		return types.Errf(types.E_RANGE, "sqrt: negative argument")
	}
	return types.Ok(types.NewFloat(math.Sqrt(f)))
}

// fnRand returns a random integer
// rand() -> [0, maxint), rand(max) -> [0, max), rand(min, max) -> [min, max]
func fnRand(env Env, args []types.Value) types.Result {
	lo, hi := int64(0), int64(math.MaxInt64)
	switch len(args) {
	case 1:
		n, code := types.ToInt(args[0])
		if code != types.E_NONE {
			return types.Err(code)
		}
		hi = n
	case 2:
		a, code := types.ToInt(args[0])
		if code != types.E_NONE {
			return types.Err(code)
		}
		b, code := types.ToInt(args[1])
		if code != types.E_NONE {
			return types.Err(code)
		}
		if b == math.MaxInt64 {
			return types.Errf(types.E_RANGE, "rand: bound too large")
		}
		lo, hi = a, b+1
	}
	if hi <= lo || hi-lo <= 0 {
		return types.Errf(types.E_RANGE, "rand: empty range")
	}
	return types.Ok(types.NewInt(lo + env.Rand(hi-lo)))
}

// fnTime returns the current time
func fnTime(env Env, args []types.Value) types.Result {
	return types.Ok(types.TimeFromGo(env.Now()))
}
