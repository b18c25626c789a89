package builtins

import (
	"fugue/textio"
	"fugue/types"
)

// fnEcho writes text with optional attributes
// echo(text [, attrs]) -> int
func fnEcho(env Env, args []types.Value) types.Result {
	var attr textio.Attr
	if len(args) == 2 {
		a, err := textio.ParseAttrs(args[1].String())
		if err != nil {
			return types.Errf(types.E_ARGS, "echo: %v", err)
		}
		attr = a
	}
	if err := env.Output().WriteLine(textio.Line{Text: args[0].String(), Attr: attr}); err != nil {
		return types.Errf(types.E_IO, "echo: %v", err)
	}
	return types.Ok(types.True)
}

// fnSend sends text to the server
func fnSend(env Env, args []types.Value) types.Result {
	if err := env.Send(args[0].String()); err != nil {
		return types.Errf(types.E_IO, "send: %v", err)
	}
	return types.Ok(types.True)
}

// fnTfread reads one line of input, -1 at end of input
func fnTfread(env Env, args []types.Value) types.Result {
	l, ok := env.Input().ReadLine()
	if !ok {
		return types.Ok(types.NewInt(-1))
	}
	return types.Ok(types.NewStr(l.Text))
}

// fnIsvar reports whether a variable is bound
func fnIsvar(env Env, args []types.Value) types.Result {
	_, ok := env.Scope().Lookup(args[0].String())
	return types.Ok(types.NewBool(ok))
}

// fnIsmacro reports whether a macro is defined
func fnIsmacro(env Env, args []types.Value) types.Result {
	return types.Ok(types.NewBool(env.Macros().Has(args[0].String())))
}
