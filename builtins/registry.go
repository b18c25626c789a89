package builtins

import (
	"sort"
	"time"

	"fugue/macro"
	"fugue/textio"
	"fugue/types"
	"fugue/vars"
)

// Env is the interpreter surface builtins work against
type Env interface {
	Output() textio.Sink
	Errors() textio.Sink
	Input() textio.Source
	Report(code types.ErrorCode, msg string)
	Send(line string) error

	Scope() *vars.Chain
	Macros() *macro.Registry
	Commands() *Registry

	// Define compiles body and installs it as a macro
	Define(name, body string) error
	// Eval runs text as a statement list with the positional
	// parameters shifted by shift. Return and exit flows propagate.
	Eval(text string, shift int) types.Result
	// EvalExpr evaluates text as an expression
	EvalExpr(text string) types.Result
	// CallMacro invokes a macro as a function; ok is false if it is undefined
	CallMacro(name, args string) (res types.Result, ok bool)
	// Load executes a file of command lines
	Load(path string) types.Result

	Shift(n int)
	Regmatch(expr, subject string) (bool, error)
	Depth() int
	InFunction() bool
	Now() time.Time
	Rand(n int64) int64
}

// Handler implements a builtin command. line is the whole statement text and
// offset is where the arguments begin within it.
type Handler func(env Env, line string, offset int) types.Result

// FuncHandler implements an expression function
type FuncHandler func(env Env, args []types.Value) types.Result

// Command is an entry of the command table
type Command struct {
	Name string
	Fn   Handler
}

// Function is an entry of the expression function table. MaxArgs < 0 means
// no upper bound.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      FuncHandler
}

// Registry holds the builtin commands and expression functions
type Registry struct {
	commands map[string]*Command
	funcs    map[string]*Function
	shadowed func(name string) bool
}

// NewRegistry creates a registry with every standard builtin registered
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		funcs:    make(map[string]*Function),
	}

	// Output and transport
	r.Register("echo", cmdEcho)
	r.Register("send", cmdSend)
	r.Register("cat", cmdCat)

	// Variables
	r.Register("set", cmdSet)
	r.Register("let", cmdLet)
	r.Register("setenv", cmdSetenv)
	r.Register("unset", cmdUnset)
	r.Register("listvar", cmdListvar)

	// Evaluation
	r.Register("test", cmdTest)
	r.Register("expr", cmdExpr)
	r.Register("eval", cmdEval)
	r.Register("for", cmdFor)
	r.Register("load", cmdLoad)

	// Macros and flow
	r.Register("def", cmdDef)
	r.Register("undef", cmdUndef)
	r.Register("list", cmdList)
	r.Register("shift", cmdShift)
	r.Register("return", cmdReturn)
	r.Register("result", cmdResult)
	r.Register("exit", cmdExit)

	// String functions
	r.RegisterFunc("strlen", 1, 1, fnStrlen)
	r.RegisterFunc("substr", 2, 3, fnSubstr)
	r.RegisterFunc("strcat", 0, -1, fnStrcat)
	r.RegisterFunc("strstr", 2, 3, fnStrstr)
	r.RegisterFunc("strrep", 2, 2, fnStrrep)
	r.RegisterFunc("strcmp", 2, 2, fnStrcmp)
	r.RegisterFunc("strncmp", 3, 3, fnStrncmp)
	r.RegisterFunc("tolower", 1, 1, fnTolower)
	r.RegisterFunc("toupper", 1, 1, fnToupper)
	r.RegisterFunc("ascii", 1, 1, fnAscii)
	r.RegisterFunc("char", 1, 1, fnChar)
	r.RegisterFunc("replace", 3, 3, fnReplace)
	r.RegisterFunc("regmatch", 2, 2, fnRegmatch)

	// Math functions
	r.RegisterFunc("abs", 1, 1, fnAbs)
	r.RegisterFunc("mod", 2, 2, fnMod)
	r.RegisterFunc("trunc", 1, 1, fnTrunc)
	r.RegisterFunc("sqrt", 1, 1, fnSqrt)
	r.RegisterFunc("rand", 0, 2, fnRand)
	r.RegisterFunc("time", 0, 0, fnTime)

	// Interpreter functions
	r.RegisterFunc("echo", 1, 2, fnEcho)
	r.RegisterFunc("send", 1, 1, fnSend)
	r.RegisterFunc("tfread", 0, 0, fnTfread)
	r.RegisterFunc("isvar", 1, 1, fnIsvar)
	r.RegisterFunc("ismacro", 1, 1, fnIsmacro)

	return r
}

// Register adds or replaces a builtin command
func (r *Registry) Register(name string, fn Handler) {
	r.commands[name] = &Command{Name: name, Fn: fn}
}

// RegisterFunc adds or replaces an expression function
func (r *Registry) RegisterFunc(name string, min, max int, fn FuncHandler) {
	r.funcs[name] = &Function{Name: name, MinArgs: min, MaxArgs: max, Fn: fn}
}

// SetShadowCheck installs the callback reporting whether a user macro
// currently hides a builtin of the same name
func (r *Registry) SetShadowCheck(fn func(name string) bool) {
	r.shadowed = fn
}

// Lookup finds a builtin command. shadowed is true when a user macro of the
// same name currently takes precedence.
func (r *Registry) Lookup(name string) (cmd *Command, shadowed bool) {
	cmd, ok := r.commands[name]
	if !ok {
		return nil, false
	}
	if r.shadowed != nil {
		shadowed = r.shadowed(name)
	}
	return cmd, shadowed
}

// Function finds an expression function
func (r *Registry) Function(name string) (*Function, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// CheckArgs validates an argument count against the function's bounds
func (f *Function) CheckArgs(n int) types.Result {
	if n < f.MinArgs || (f.MaxArgs >= 0 && n > f.MaxArgs) {
		return types.Errf(types.E_ARGS, "%s: incorrect number of arguments", f.Name)
	}
	return types.Ok(types.True)
}

// Names returns the sorted command names
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
