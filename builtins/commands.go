package builtins

import (
	"fmt"
	"os"
	"strings"

	"fugue/pattern"
	"fugue/textio"
	"fugue/types"
)

// cmdEcho writes its arguments to the output
// /echo [-a<attrs>] [-e] text
func cmdEcho(env Env, line string, offset int) types.Result {
	opts, rest, err := getopts(line, offset, "a:e")
	if err != nil {
		return types.Errf(types.E_ARGS, "echo: %v", err)
	}
	attr, err := textio.ParseAttrs(opts['a'])
	if err != nil {
		return types.Errf(types.E_ARGS, "echo: %v", err)
	}
	sink := env.Output()
	if _, ok := opts['e']; ok {
		sink = env.Errors()
	}
	if err := sink.WriteLine(textio.Line{Text: line[rest:], Attr: attr}); err != nil {
		return types.Errf(types.E_IO, "echo: %v", err)
	}
	return types.Ok(types.True)
}

// cmdSend sends its arguments to the server
func cmdSend(env Env, line string, offset int) types.Result {
	if err := env.Send(line[offset:]); err != nil {
		return types.Errf(types.E_IO, "send: %v", err)
	}
	return types.Ok(types.True)
}

// cmdCat copies every input line to the output
func cmdCat(env Env, line string, offset int) types.Result {
	n := int64(0)
	in := env.Input()
	for {
		l, ok := in.ReadLine()
		if !ok {
			break
		}
		if err := env.Output().WriteLine(l); err != nil {
			return types.Errf(types.E_IO, "cat: %v", err)
		}
		n++
	}
	return types.Ok(types.NewInt(n))
}

// cmdSet assigns a global variable
// /set name=value, /set name value, /set name, /set
func cmdSet(env Env, line string, offset int) types.Result {
	args := line[offset:]
	if strings.TrimSpace(args) == "" {
		return listVars(env, "")
	}
	name, value, hasValue := splitAssign(args)
	if !isName(name) {
		return types.Errf(types.E_ARGS, "set: illegal variable name %q", name)
	}
	if !hasValue {
		v, ok := env.Scope().Lookup(name)
		if !ok {
			return types.Errf(types.E_VARNF, "%s not set", name)
		}
		env.Output().WriteLine(textio.Line{Text: fmt.Sprintf("%% %s=%s", name, v.String())})
		return types.Ok(types.True)
	}
	if _, err := env.Scope().Globals().Set(name, types.NewStr(value)); err != nil {
		return errResult(err)
	}
	return types.Ok(types.True)
}

// cmdLet assigns a variable in the innermost local level
func cmdLet(env Env, line string, offset int) types.Result {
	name, value, hasValue := splitAssign(line[offset:])
	if !isName(name) || !hasValue {
		return types.Errf(types.E_ARGS, "let: usage: /let name=value")
	}
	if _, err := env.Scope().SetLocal(name, types.NewStr(value)); err != nil {
		return errResult(err)
	}
	return types.Ok(types.True)
}

// cmdSetenv assigns a global variable and exports it to the environment
func cmdSetenv(env Env, line string, offset int) types.Result {
	name, value, hasValue := splitAssign(line[offset:])
	if !isName(name) || !hasValue {
		return types.Errf(types.E_ARGS, "setenv: usage: /setenv name=value")
	}
	if _, err := env.Scope().Globals().Set(name, types.NewStr(value)); err != nil {
		return errResult(err)
	}
	if err := os.Setenv(name, value); err != nil {
		return types.Errf(types.E_IO, "setenv: %v", err)
	}
	return types.Ok(types.True)
}

// cmdUnset removes the nearest binding of each named variable
func cmdUnset(env Env, line string, offset int) types.Result {
	names := strings.Fields(line[offset:])
	if len(names) == 0 {
		return types.Errf(types.E_ARGS, "unset: missing variable name")
	}
	for _, name := range names {
		if err := env.Scope().Unset(name); err != nil {
			return errResult(err)
		}
	}
	return types.Ok(types.True)
}

// cmdListvar lists global variables matching an optional glob
func cmdListvar(env Env, line string, offset int) types.Result {
	return listVars(env, strings.TrimSpace(line[offset:]))
}

func listVars(env Env, glob string) types.Result {
	globals := env.Scope().Globals()
	n := int64(0)
	for _, name := range globals.Names() {
		if glob != "" && !pattern.Glob(glob, name) {
			continue
		}
		v, _ := globals.Get(name)
		env.Output().WriteLine(textio.Line{Text: fmt.Sprintf("/set %s=%s", name, v.String())})
		n++
	}
	return types.Ok(types.NewInt(n))
}

// cmdTest evaluates an expression; its value becomes the command result
func cmdTest(env Env, line string, offset int) types.Result {
	return env.EvalExpr(line[offset:])
}

// cmdExpr evaluates an expression and prints its value
func cmdExpr(env Env, line string, offset int) types.Result {
	r := env.EvalExpr(line[offset:])
	if r.IsNormal() {
		env.Output().WriteLine(textio.Line{Text: r.Value().String()})
	}
	return r
}

// cmdEval runs its arguments as a statement list
// /eval [-s<n>] text
func cmdEval(env Env, line string, offset int) types.Result {
	opts, rest, err := getopts(line, offset, "s:")
	if err != nil {
		return types.Errf(types.E_ARGS, "eval: %v", err)
	}
	shift, ok := parseCount(opts['s'], 0)
	if !ok || shift < 0 {
		return types.Errf(types.E_ARGS, "eval: invalid shift %q", opts['s'])
	}
	return env.Eval(line[rest:], int(shift))
}

// cmdFor runs a command once for each integer from start to end
// /for var start end command
func cmdFor(env Env, line string, offset int) types.Result {
	name, rest := splitWord(line[offset:])
	startText, rest := splitWord(rest)
	endText, body := splitWord(rest)
	if !isName(name) || endText == "" {
		return types.Errf(types.E_ARGS, "for: usage: /for var start end command")
	}
	start, ok1 := parseCount(startText, 0)
	end, ok2 := parseCount(endText, 0)
	if !ok1 || !ok2 {
		return types.Errf(types.E_TYPE, "for: bounds must be numbers")
	}
	for i := start; i <= end; i++ {
		if _, err := env.Scope().SetLocal(name, types.NewInt(i)); err != nil {
			return errResult(err)
		}
		r := env.Eval(body, 0)
		if r.Flow == types.FlowReturn || r.Flow == types.FlowExit {
			return r
		}
	}
	return types.Ok(types.True)
}

// cmdLoad executes a file of command lines
func cmdLoad(env Env, line string, offset int) types.Result {
	path := strings.TrimSpace(line[offset:])
	if path == "" {
		return types.Errf(types.E_ARGS, "load: missing file name")
	}
	return env.Load(path)
}

// cmdDef defines a macro
// /def [-q] name = body
func cmdDef(env Env, line string, offset int) types.Result {
	opts, rest, err := getopts(line, offset, "q")
	if err != nil {
		return types.Errf(types.E_ARGS, "def: %v", err)
	}
	args := line[rest:]
	eq := strings.IndexByte(args, '=')
	if eq < 0 {
		return types.Errf(types.E_ARGS, "def: missing '='")
	}
	name := strings.TrimSpace(args[:eq])
	if !isName(name) {
		return types.Errf(types.E_ARGS, "def: illegal macro name %q", name)
	}
	body := strings.TrimLeft(args[eq+1:], " \t")

	_, quiet := opts['q']
	existed := env.Macros().Has(name)
	if err := env.Define(name, body); err != nil {
		return errResult(err)
	}
	if existed && !quiet {
		env.Errors().WriteLine(textio.Line{Text: fmt.Sprintf("%% Redefined macro %s", name)})
	}
	return types.Ok(types.True)
}

// cmdUndef removes macros by name
func cmdUndef(env Env, line string, offset int) types.Result {
	names := strings.Fields(line[offset:])
	if len(names) == 0 {
		return types.Errf(types.E_ARGS, "undef: missing macro name")
	}
	for _, name := range names {
		if !env.Macros().Remove(name) {
			return types.Errf(types.E_CMDNF, "undef: macro %s not defined", name)
		}
	}
	return types.Ok(types.True)
}

// cmdList prints macro definitions matching an optional glob
func cmdList(env Env, line string, offset int) types.Result {
	ms := env.Macros().List(strings.TrimSpace(line[offset:]))
	for _, m := range ms {
		env.Output().WriteLine(textio.Line{Text: fmt.Sprintf("/def %s = %s", m.Name, m.Body)})
	}
	return types.Ok(types.NewInt(int64(len(ms))))
}

// cmdShift drops leading positional parameters
func cmdShift(env Env, line string, offset int) types.Result {
	n, ok := parseCount(line[offset:], 1)
	if !ok || n < 0 {
		return types.Errf(types.E_ARGS, "shift: invalid count")
	}
	env.Shift(int(n))
	return types.Ok(types.True)
}

// cmdReturn leaves the current macro with an optional expression value
func cmdReturn(env Env, line string, offset int) types.Result {
	v, r := returnValue(env, line[offset:])
	if !r.IsNormal() {
		return r
	}
	return types.Return(v)
}

// cmdResult is /return that also prints the value when the macro was not
// called as a function
func cmdResult(env Env, line string, offset int) types.Result {
	v, r := returnValue(env, line[offset:])
	if !r.IsNormal() {
		return r
	}
	if !env.InFunction() {
		env.Output().WriteLine(textio.Line{Text: v.String()})
	}
	return types.Return(v)
}

func returnValue(env Env, expr string) (types.Value, types.Result) {
	if strings.TrimSpace(expr) == "" {
		return types.EmptyStr, types.Ok(types.EmptyStr)
	}
	r := env.EvalExpr(expr)
	return r.Value(), r
}

// cmdExit leaves n macro levels; 0 leaves them all
func cmdExit(env Env, line string, offset int) types.Result {
	n, ok := parseCount(line[offset:], 1)
	if !ok || n < 0 {
		return types.Errf(types.E_ARGS, "exit: invalid count")
	}
	return types.Exit(int(n))
}
