package vm

import (
	"errors"
	"strings"
	"time"

	"fugue/builtins"
	"fugue/macro"
	"fugue/pattern"
	"fugue/textio"
	"fugue/types"
	"fugue/vars"
)

var _ builtins.Env = (*Interp)(nil)

// Output returns the current frame's output
func (it *Interp) Output() textio.Sink {
	return it.frame().out
}

// Errors returns the diagnostics sink
func (it *Interp) Errors() textio.Sink {
	return it.errs
}

// Input returns the current frame's input
func (it *Interp) Input() textio.Source {
	return it.frame().in
}

// Send sends a line to the server
func (it *Interp) Send(line string) error {
	it.tracer.Send(line)
	if it.sender == nil {
		return types.NewError(types.E_IO, "not connected")
	}
	return it.sender.Send(line)
}

func (it *Interp) Scope() *vars.Chain {
	return it.scope
}

func (it *Interp) Macros() *macro.Registry {
	return it.macros
}

func (it *Interp) Commands() *builtins.Registry {
	return it.commands
}

// Define compiles body and installs it as macro name. A body that does not
// compile leaves any existing definition alone.
func (it *Interp) Define(name, body string) error {
	prog, err := it.Compile(body)
	if err != nil {
		it.logger.Infof("macro %s not defined: %v", name, err)
		var se *SyntaxError
		if errors.As(err, &se) {
			return types.NewError(se.Code, "%s: %s", name, se.Msg)
		}
		return err
	}
	m := it.macros.Define(name, body)
	m.Compiled = prog
	return nil
}

// Eval runs text as a statement list. The positional parameters are those
// of the caller, shifted by shift.
func (it *Interp) Eval(text string, shift int) types.Result {
	prog, err := it.Compile(text)
	if err != nil {
		return syntaxResult(err)
	}
	if limit := it.maxRecur(); it.depth >= limit {
		it.logger.Warningf("recursion limit %d reached in /eval", limit)
		return types.Errf(types.E_MAXREC, "eval: too many recursion levels")
	}

	inv := *it.invocation()
	inv.shift(shift)
	it.calls = append(it.calls, &inv)
	it.depth++
	defer func() {
		it.depth--
		it.calls = it.calls[:len(it.calls)-1]
	}()

	it.pushFrame()
	r := it.run(prog)
	it.popFrame()
	return r
}

// EvalExpr evaluates text as an expression. Errors are returned to the
// caller rather than reported.
func (it *Interp) EvalExpr(text string) types.Result {
	if strings.TrimSpace(text) == "" {
		return types.Ok(types.EmptyStr)
	}
	prog, err := it.CompileExpr(text)
	if err != nil {
		return syntaxResult(err)
	}
	r := it.run(prog)
	if !r.IsNormal() {
		return r
	}
	return types.Ok(it.resolve(it.Pop()))
}

// CallMacro invokes a macro as a function
func (it *Interp) CallMacro(name, args string) (types.Result, bool) {
	m, ok := it.macros.Lookup(name)
	if !ok {
		return types.Result{}, false
	}
	return it.invoke(m, args, true), true
}

// Shift drops n leading positional parameters of the current invocation
func (it *Interp) Shift(n int) {
	it.invocation().shift(n)
}

// Regmatch matches subject against the regexp expr. A successful match
// becomes the source of %P0-%P9, %PL and %PR.
func (it *Interp) Regmatch(expr, subject string) (bool, error) {
	m, err := pattern.Find(expr, subject)
	if err != nil {
		return false, err
	}
	if m == nil {
		return false, nil
	}
	it.match = m
	return true, nil
}

func (it *Interp) Depth() int {
	return it.depth
}

// InFunction reports whether the current macro was called from an
// expression
func (it *Interp) InFunction() bool {
	return it.invocation().asFunc
}

func (it *Interp) Now() time.Time {
	return it.now()
}

// Rand returns a random number in [0, n)
func (it *Interp) Rand(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return it.rng.Int63n(n)
}

// ExecLine runs one line typed by the user or read by /load. The sub
// variable decides how much of it is interpreted: "off" runs it as a single
// literal command or send, "on" also splits it at %;, and "full" compiles
// it like a macro body. Errors are reported.
func (it *Interp) ExecLine(line string) types.Result {
	v, _ := it.globals.Get("sub")
	mode, _ := v.(types.EnumValue)
	switch mode.Val {
	case subFull:
		return it.execProgram(line)
	case subOn:
		var r types.Result
		for _, stmt := range strings.Split(line, "%;") {
			if r = it.execLiteral(strings.TrimLeft(stmt, " \t")); r.Flow == types.FlowExit {
				break
			}
		}
		return r
	}
	return it.execLiteral(line)
}

// execLiteral runs line without substitution
func (it *Interp) execLiteral(line string) types.Result {
	var r types.Result
	if strings.HasPrefix(line, "/") {
		it.mecho(line)
		name, offset := splitCommand(line)
		if name == "" {
			r = types.Errf(types.E_CMDNF, "missing command name")
		} else {
			r = it.command(name, line, offset)
		}
	} else if err := it.Send(line); err != nil {
		r = errorResult(err)
	} else {
		r = types.Ok(types.True)
	}
	return it.settleTop(r)
}

// execProgram compiles and runs line as a statement list
func (it *Interp) execProgram(line string) types.Result {
	prog, err := it.Compile(line)
	if err != nil {
		return it.settleTop(syntaxResult(err))
	}
	it.pushFrame()
	r := it.run(prog)
	it.popFrame()
	return it.settleTop(r)
}

// settleTop records the result of a top-level line
func (it *Interp) settleTop(r types.Result) types.Result {
	switch r.Flow {
	case types.FlowNormal, types.FlowReturn:
		it.lastResult = r.Value()
	case types.FlowError:
		it.Report(r.Error, r.Msg)
		it.lastResult = types.False
	}
	return r
}

func syntaxResult(err error) types.Result {
	var se *SyntaxError
	if errors.As(err, &se) {
		return types.Errf(se.Code, "%s", se.Msg)
	}
	return errorResult(err)
}
