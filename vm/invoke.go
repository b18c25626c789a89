package vm

import (
	"errors"

	"fugue/macro"
	"fugue/types"
)

// invocation is the argument vector of one macro call. argv holds spans of
// text, so shifting reslices without copying the argument text.
type invocation struct {
	name   string
	text   string
	argv   [][2]int
	asFunc bool
}

func newInvocation(name, text string, asFunc bool) *invocation {
	inv := &invocation{name: name, text: text, asFunc: asFunc}
	i := 0
	for i < len(text) {
		for i < len(text) && isBlank(text[i]) {
			i++
		}
		if i >= len(text) {
			break
		}
		start := i
		for i < len(text) && !isBlank(text[i]) {
			i++
		}
		inv.argv = append(inv.argv, [2]int{start, i})
	}
	return inv
}

// arg returns parameter n: n > 0 counts from the front, n < 0 from the end,
// and 0 is the macro name
func (inv *invocation) arg(n int) string {
	switch {
	case n == 0:
		return inv.name
	case n < 0:
		n += len(inv.argv)
	default:
		n--
	}
	if n < 0 || n >= len(inv.argv) {
		return ""
	}
	span := inv.argv[n]
	return inv.text[span[0]:span[1]]
}

func (inv *invocation) argc() int {
	return len(inv.argv)
}

// all returns the argument text from the first to the last parameter
func (inv *invocation) all() string {
	if len(inv.argv) == 0 {
		return ""
	}
	return inv.text[inv.argv[0][0]:inv.argv[len(inv.argv)-1][1]]
}

func (inv *invocation) shift(n int) {
	inv.argv = inv.argv[min(n, len(inv.argv)):]
}

func (it *Interp) invocation() *invocation {
	return it.calls[len(it.calls)-1]
}

// program returns the compiled body of m, compiling it on first use and
// again when the optimization level has changed
func (it *Interp) program(m *macro.Macro) (*Program, error) {
	if p, ok := m.Compiled.(*Program); ok && p.OptLevel == it.optLevel() {
		return p, nil
	}
	p, err := it.Compile(m.Body)
	if err != nil {
		return nil, err
	}
	m.Compiled = p
	return p, nil
}

// invoke runs macro m with argument text args in a new scope level and
// frame. Return and exit flows end here; the value is the macro's return
// value or its last command result.
func (it *Interp) invoke(m *macro.Macro, args string, asFunc bool) types.Result {
	if limit := it.maxRecur(); it.depth >= limit {
		it.logger.Warningf("recursion limit %d reached calling %s", limit, m.Name)
		return types.Errf(types.E_MAXREC, "%s: too many recursion levels", m.Name)
	}
	prog, err := it.program(m)
	if err != nil {
		it.logger.Errorf("compiling macro %s: %v", m.Name, err)
		var se *SyntaxError
		if errors.As(err, &se) {
			return types.Errf(se.Code, "%s: %s", m.Name, se.Msg)
		}
		return errorResult(err)
	}

	level := it.scope.Depth()
	it.scope.Push()
	it.calls = append(it.calls, newInvocation(m.Name, args, asFunc))
	it.depth++
	defer func() {
		it.depth--
		it.calls = it.calls[:len(it.calls)-1]
		it.scope.Truncate(level)
	}()

	it.tracer.MacroCall(it.depth, m.Name, args, asFunc)
	it.pushFrame()
	r := it.run(prog)
	it.popFrame()

	switch r.Flow {
	case types.FlowReturn:
		r = types.Ok(r.Val)
	case types.FlowExit:
		switch {
		case r.Count == 1:
			r = types.Ok(it.lastResult)
		case r.Count > 1:
			r = types.Exit(r.Count - 1)
		}
	}
	it.tracer.MacroReturn(it.depth, m.Name, r.Val)
	return r
}
