package vm

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"fugue/types"
)

// evalAt evaluates src with the given optimization level
func evalAt(it *Interp, level int64, src string) types.Result {
	it.Globals().Set("optimize", types.NewInt(level))
	return it.EvalExpr(src)
}

func sameResult(a, b types.Result) bool {
	if a.Flow != b.Flow {
		return false
	}
	if a.IsError() {
		return a.Error == b.Error
	}
	return a.Val.String() == b.Val.String()
}

func TestFoldingPreservesValues(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	it := New(nil, nil)
	ops := []string{"+", "-", "*", "/", "<", "==", "!=", ">=", "&&", "||"}

	properties.Property("folded and unfolded expressions agree", prop.ForAll(
		func(a, b, c int64, i, j int) bool {
			src := fmt.Sprintf("%d %s %d %s %d", a, ops[i], b, ops[j], c)
			unfolded := evalAt(it, 0, src)
			folded := evalAt(it, 1, src)
			return sameResult(unfolded, folded) && it.sp == 0
		},
		gen.Int64Range(-1000, 1000),
		gen.Int64Range(-5, 5),
		gen.Int64Range(-1000, 1000),
		gen.IntRange(0, len(ops)-1),
		gen.IntRange(0, len(ops)-1),
	))

	properties.Property("conditional folding agrees", prop.ForAll(
		func(a, b, c int64) bool {
			src := fmt.Sprintf("(%d ? %d : %d) + 1", a, b, c)
			return sameResult(evalAt(it, 0, src), evalAt(it, 1, src))
		},
		gen.Int64Range(-2, 2),
		gen.Int64Range(-100, 100),
		gen.Int64Range(-100, 100),
	))

	properties.TestingRun(t)
}

func TestArithmeticProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	it := New(nil, nil)

	properties.Property("integer addition matches Go", prop.ForAll(
		func(a, b int64) bool {
			r := it.EvalExpr(fmt.Sprintf("%d + %d", a, b))
			return r.IsNormal() && r.Val.String() == fmt.Sprint(a+b)
		},
		gen.Int64Range(-1<<40, 1<<40),
		gen.Int64Range(-1<<40, 1<<40),
	))

	properties.Property("division truncates toward zero", prop.ForAll(
		func(a, b int64) bool {
			if b == 0 {
				return it.EvalExpr(fmt.Sprintf("%d / %d", a, b)).Error == types.E_DIV
			}
			r := it.EvalExpr(fmt.Sprintf("%d / %d", a, b))
			return r.IsNormal() && r.Val.String() == fmt.Sprint(a/b)
		},
		gen.Int64Range(-10000, 10000),
		gen.Int64Range(-50, 50),
	))

	properties.Property("numeric strings compare as numbers", prop.ForAll(
		func(a, b int64) bool {
			r := lessThan(types.NewStr(fmt.Sprint(a)), types.NewStr(fmt.Sprint(b)))
			return r.Val.Truthy() == (a < b)
		},
		gen.Int64(),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestInvocationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("arguments split on blanks", prop.ForAll(
		func(words []string) bool {
			inv := newInvocation("m", "  "+strings.Join(words, " \t ")+" ", false)
			if inv.argc() != len(words) {
				return false
			}
			for i, w := range words {
				if inv.arg(i+1) != w || inv.arg(i-len(words)) != w {
					return false
				}
			}
			return inv.all() == strings.Join(words, " \t ")
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("shift drops leading arguments", prop.ForAll(
		func(words []string, n int) bool {
			inv := newInvocation("m", strings.Join(words, " "), false)
			inv.shift(n)
			want := max(len(words)-n, 0)
			if inv.argc() != want {
				return false
			}
			return want == 0 || inv.arg(1) == words[n]
		},
		gen.SliceOf(gen.Identifier()),
		gen.IntRange(0, 6),
	))

	properties.TestingRun(t)
}
