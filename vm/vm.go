package vm

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"fugue/builtins"
	"fugue/macro"
	"fugue/pattern"
	"fugue/textio"
	"fugue/trace"
	"fugue/types"
	"fugue/vars"
)

// StackSize bounds the evaluation stack
const StackSize = 1024

// Sender delivers lines to the server
type Sender interface {
	Send(line string) error
}

// Interp is one interpreter instance: the evaluation stack, the frame and
// invocation stacks, the variable scopes and the command and macro tables.
// It is not safe for concurrent use.
type Interp struct {
	stack  []types.Value
	sp     int
	frames []*Frame
	calls  []*invocation

	globals  *vars.Store
	scope    *vars.Chain
	macros   *macro.Registry
	commands *builtins.Registry
	errs     textio.Sink
	sender   Sender
	tracer   *trace.Tracer
	logger   commonlog.Logger
	rng      *rand.Rand
	now      func() time.Time

	depth      int
	lastResult types.Value
	match      *pattern.Match
}

var (
	mechoModes = types.NewEnumTable("off", "on", "all")
	subModes   = types.NewEnumTable("off", "on", "full")
)

const (
	mechoOff = iota
	mechoOn
	mechoAll
)

const (
	subOff = iota
	subOn
	subFull
)

// New creates an interpreter writing output to out and diagnostics to errs
func New(out, errs textio.Sink) *Interp {
	if out == nil {
		out = textio.Discard
	}
	if errs == nil {
		errs = textio.Discard
	}
	globals := vars.NewStore()
	it := &Interp{
		stack:      make([]types.Value, StackSize),
		globals:    globals,
		scope:      vars.NewChain(globals),
		macros:     macro.NewRegistry(),
		commands:   builtins.NewRegistry(),
		errs:       errs,
		logger:     commonlog.GetLogger("fugue.vm"),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
		lastResult: types.EmptyStr,
	}
	it.frames = []*Frame{newFrame(textio.NewQueue(), out, 0)}
	it.calls = []*invocation{{}}
	it.commands.SetShadowCheck(it.macros.Has)

	globals.DefineSpecial("max_recur", types.NewInt(100), vars.IntRange(1, 100000))
	globals.DefineSpecial("optimize", types.NewInt(1), vars.IntRange(0, 2))
	globals.DefineSpecial("mecho", types.EnumValue{Val: mechoOff, Table: mechoModes}, vars.Enum(mechoModes))
	globals.DefineSpecial("mprefix", types.NewStr("+"), vars.Text())
	globals.DefineSpecial("sub", types.EnumValue{Val: subOff, Table: subModes}, vars.Enum(subModes))
	return it
}

// SetSender connects the interpreter to a server
func (it *Interp) SetSender(s Sender) {
	it.sender = s
}

// SetInput replaces the top-level input source
func (it *Interp) SetInput(in textio.Source) {
	it.frames[0].in = in
}

// SetTracer installs a macro call tracer; nil disables tracing
func (it *Interp) SetTracer(t *trace.Tracer) {
	it.tracer = t
}

// SetClock replaces the time source used by time()
func (it *Interp) SetClock(now func() time.Time) {
	it.now = now
}

// Seed reseeds the random source used by rand() and %R
func (it *Interp) Seed(seed int64) {
	it.rng = rand.New(rand.NewSource(seed))
}

// Globals returns the global variable table
func (it *Interp) Globals() *vars.Store {
	return it.globals
}

// LastResult returns the result of the most recent command
func (it *Interp) LastResult() types.Value {
	return it.lastResult
}

func (it *Interp) optLevel() int {
	v, _ := it.globals.Get("optimize")
	n, _ := types.ToInt(v)
	return int(n)
}

func (it *Interp) maxRecur() int {
	v, _ := it.globals.Get("max_recur")
	n, _ := types.ToInt(v)
	return int(n)
}

// ============================================================================
// STACK
// ============================================================================

// Push pushes a value onto the stack
func (it *Interp) Push(v types.Value) {
	if it.sp >= len(it.stack) {
		panic(internalf("stack overflow"))
	}
	it.stack[it.sp] = v
	it.sp++
}

// Pop pops a value from the stack
func (it *Interp) Pop() types.Value {
	if it.sp <= 0 {
		panic(internalf("stack underflow"))
	}
	it.sp--
	v := it.stack[it.sp]
	it.stack[it.sp] = nil
	return v
}

// Peek returns the top of the stack without popping it
func (it *Interp) Peek() types.Value {
	if it.sp <= 0 {
		panic(internalf("stack underflow"))
	}
	return it.stack[it.sp-1]
}

// PopN pops n values, returned in push order
func (it *Interp) PopN(n int) []types.Value {
	if n > it.sp {
		panic(internalf("stack underflow"))
	}
	vals := make([]types.Value, n)
	copy(vals, it.stack[it.sp-n:it.sp])
	it.truncate(it.sp - n)
	return vals
}

// truncate drops values above height sp
func (it *Interp) truncate(sp int) {
	for it.sp > sp {
		it.sp--
		it.stack[it.sp] = nil
	}
}

// resolve replaces an identifier by its variable's value; an unset variable
// reads as the empty string
func (it *Interp) resolve(v types.Value) types.Value {
	id, ok := v.(types.IdentValue)
	if !ok {
		return v
	}
	if val, ok := it.scope.Lookup(id.Name); ok {
		return val
	}
	return types.EmptyStr
}

// ============================================================================
// PURE OPERATORS
// ============================================================================

var unaryOps = map[OpCode]func(types.Value) types.Result{
	OP_NOT:  unaryNot,
	OP_NEG:  unaryMinus,
	OP_PLUS: unaryPlus,
}

var binaryOps = map[OpCode]func(l, r types.Value) types.Result{
	OP_ADD:    add,
	OP_SUB:    subtract,
	OP_MUL:    multiply,
	OP_DIV:    divide,
	OP_EQ:     equal,
	OP_NE:     notEqual,
	OP_LT:     lessThan,
	OP_LE:     lessThanEqual,
	OP_GT:     greaterThan,
	OP_GE:     greaterThanEqual,
	OP_STREQ:  strEqual,
	OP_STRNE:  strNotEqual,
	OP_MATCH:  globMatch,
	OP_NMATCH: globNoMatch,
}

// pureOp pops the operands of a side-effect-free opcode and computes its
// value. The caller pushes the result.
func (it *Interp) pureOp(op OpCode) types.Result {
	switch op.Info().Arity {
	case 1:
		a := it.Pop()
		if op == OP_POP {
			return types.Ok(nil)
		}
		return unaryOps[op](it.resolve(a))
	case 2:
		r := it.resolve(it.Pop())
		l := it.resolve(it.Pop())
		return binaryOps[op](l, r)
	}
	panic(internalf("%s is not a pure operator", op))
}

// evalPure runs a pure opcode on constant operands for the constant folder.
// It shares the evaluation stack with run time and leaves it as it was.
func (it *Interp) evalPure(op OpCode, vals []types.Value) types.Result {
	sp := it.sp
	for _, v := range vals {
		it.Push(v)
	}
	r := it.pureOp(op)
	it.truncate(sp)
	return r
}

// ============================================================================
// EXECUTION
// ============================================================================

// run executes a program in the current frame. Runtime errors are reported
// and contained at the innermost enclosing statement; return and exit flows
// unwind to the caller.
func (it *Interp) run(prog *Program) types.Result {
	if it.sp+prog.MaxDepth > len(it.stack) {
		it.logger.Warningf("evaluation stack exhausted running %q", prog.Source)
		return types.Errf(types.E_MAXREC, "evaluation stack exhausted")
	}
	base := len(it.frames)
	baseSP := it.sp
	code := prog.Code

	breaking := 0  // loops still to leave
	skipFrom := 0  // ip of the break
	skipDepth := 0 // substitutions and pipes entered while skipping

	for ip := 0; ip < len(code); {
		ins := &code[ip]

		if breaking > 0 {
			switch ins.Op {
			case OP_CMDSUB, OP_PIPE:
				skipDepth++
			case OP_ENDSUB, OP_ENDSUB_PUSH, OP_ENDPIPE:
				if skipDepth > 0 {
					skipDepth--
				} else {
					it.popFrame()
				}
			case OP_DONE:
				if skipDepth == 0 && ins.Int <= skipFrom {
					breaking--
					if breaking == 0 {
						f := it.frame()
						it.truncate(f.sp)
						f.reset()
					}
				}
			}
			ip++
			continue
		}

		switch ins.Op {
		case OP_JUMP, OP_DONE:
			ip = ins.Int
			continue
		case OP_JZ:
			if !it.resolve(it.Pop()).Truthy() {
				ip = ins.Int
				continue
			}
		case OP_JNZ:
			if it.resolve(it.Pop()).Truthy() {
				ip = ins.Int
				continue
			}
		case OP_JRZ:
			if !it.lastResult.Truthy() {
				ip = ins.Int
				continue
			}
		case OP_JNEMPTY:
			if it.resolve(it.Peek()).String() != "" {
				ip = ins.Int
				continue
			}
		case OP_BREAK:
			breaking, skipFrom, skipDepth = max(ins.Int, 1), ip, 0
		default:
			r := it.exec(ins)
			switch r.Flow {
			case types.FlowNormal:
			case types.FlowError:
				next, ok := it.contain(prog, ip, base, r)
				if !ok {
					it.unwind(base)
					it.truncate(baseSP)
					return r
				}
				ip = next
				continue
			case types.FlowBreak:
				breaking, skipFrom, skipDepth = max(r.Count, 1), ip, 0
			default:
				it.unwind(base)
				it.truncate(baseSP)
				return r
			}
		}
		ip++
	}

	if breaking > 0 {
		// a break with fewer enclosing loops stops at the program boundary
		it.unwind(base)
		it.truncate(baseSP)
		it.frame().reset()
		if prog.Expr {
			it.Push(types.EmptyStr)
		}
	}

	want := baseSP
	if prog.Expr {
		want++
	}
	if len(it.frames) != base || it.sp != want {
		panic(internalf("unbalanced program %q: frames %d want %d, stack %d want %d",
			prog.Source, len(it.frames), base, it.sp, want))
	}
	return types.Ok(it.lastResult)
}

// contain reports a runtime error and abandons the innermost statement
// around ip. It returns where to resume, or false if no statement of prog
// encloses ip.
func (it *Interp) contain(prog *Program, ip, base int, r types.Result) (int, bool) {
	ext, ok := prog.extentAt(ip)
	if !ok {
		return 0, false
	}
	it.Report(r.Error, r.Msg)
	it.tracer.Error(it.depth, it.invocation().name, r.Error, r.Msg)

	it.unwind(base + ext.Depth)
	f := it.frame()
	it.truncate(f.sp)
	f.reset()
	if ext.Cond {
		// a failed condition is false
		it.Push(types.NewBool(prog.Code[ext.End].Op == OP_JNZ))
	} else {
		it.lastResult = types.False
	}
	return ext.End, true
}

// exec executes one non-jump instruction
func (it *Interp) exec(ins *Instruction) types.Result {
	switch ins.Op {
	case OP_PUSH:
		it.Push(ins.Val)

	case OP_DUP:
		it.Push(it.Peek())

	case OP_ASSIGN:
		v := it.resolve(it.Pop())
		return it.assign(it.Pop(), v)

	case OP_PREINC, OP_PREDEC:
		target := it.Pop()
		delta := int64(1)
		if ins.Op == OP_PREDEC {
			delta = -1
		}
		r := add(it.resolve(target), types.NewInt(delta))
		if !r.IsNormal() {
			return r
		}
		return it.assign(target, r.Val)

	case OP_CALL:
		return it.call(ins.Int)

	case OP_APPEND:
		it.frame().append(ins.Str)

	case OP_APPENDVAL:
		it.frame().append(it.resolve(it.Pop()).String())

	case OP_BUFPUSH:
		f := it.frame()
		f.bufs = append(f.bufs, &strings.Builder{})

	case OP_BUFPOP:
		f := it.frame()
		if len(f.bufs) <= 1 {
			panic(internalf("line buffer underflow"))
		}
		s := f.buf().String()
		f.bufs = f.bufs[:len(f.bufs)-1]
		it.Push(types.NewStr(s))

	case OP_CMDSUB, OP_PIPE:
		it.pushCapture()

	case OP_ENDSUB, OP_ENDSUB_PUSH:
		f := it.popFrame()
		if it.sp != f.sp {
			panic(internalf("stack height %d leaving substitution, want %d", it.sp, f.sp))
		}
		text := strings.Join(f.capture.Texts(), " ")
		if ins.Op == OP_ENDSUB_PUSH {
			it.Push(types.NewStr(text))
		} else {
			it.frame().append(text)
		}

	case OP_PIPENEXT:
		it.pipeNext(ins.Int == 1)

	case OP_ENDPIPE:
		it.popFrame()

	case OP_SEND, OP_COMMAND, OP_MACRO, OP_BUILTIN, OP_EXECUTE:
		return it.dispatch(ins)

	default:
		info := ins.Op.Info()
		switch {
		case info.Pure:
			r := it.pureOp(ins.Op)
			if !r.IsNormal() {
				return r
			}
			if info.Result == ResultPush {
				it.Push(r.Val)
			}
		case info.Category == CatSubst:
			it.substitute(ins)
		default:
			panic(internalf("unknown opcode %d", ins.Op))
		}
	}
	return types.Ok(nil)
}

// assign stores v in the variable named by target and pushes the stored
// value
func (it *Interp) assign(target, v types.Value) types.Result {
	id, ok := target.(types.IdentValue)
	if !ok {
		return types.Errf(types.E_ASSIGN, "illegal assignment to %q", target.String())
	}
	stored, err := it.scope.Assign(id.Name, v)
	if err != nil {
		return errorResult(err)
	}
	it.Push(stored)
	return types.Ok(nil)
}

// call invokes a function with n arguments. Names resolve to the expression
// function table, then to builtin commands, then to user macros.
func (it *Interp) call(n int) types.Result {
	args := it.PopN(n)
	for i := range args {
		args[i] = it.resolve(args[i])
	}
	name := it.Pop().String()

	if fn, ok := it.commands.Function(name); ok {
		if r := fn.CheckArgs(n); !r.IsNormal() {
			return r
		}
		return it.pushCallResult(fn.Fn(it, args))
	}

	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	text := strings.Join(parts, " ")

	if cmd, shadowed := it.commands.Lookup(name); cmd != nil && !shadowed {
		return it.pushCallResult(cmd.Fn(it, "/"+name+" "+text, len(name)+2))
	}
	if r, ok := it.CallMacro(name, text); ok {
		return it.pushCallResult(r)
	}
	return types.Errf(types.E_CMDNF, "%s: no such function", name)
}

func (it *Interp) pushCallResult(r types.Result) types.Result {
	switch r.Flow {
	case types.FlowError, types.FlowExit:
		return r
	}
	it.Push(r.Value())
	return types.Ok(nil)
}

// substitute produces the value of a %- or $-substitution. Push forms put
// it on the stack, append forms add it to the line buffer.
func (it *Interp) substitute(ins *Instruction) {
	op := ins.Op
	push := op.Info().Result == ResultPush
	if push {
		op--
	}
	inv := it.invocation()

	var v types.Value
	switch op {
	case OP_POSARG:
		v = types.NewStr(inv.arg(ins.Int))
	case OP_ALLARGS:
		v = types.NewStr(inv.all())
	case OP_ARGC:
		v = types.NewInt(int64(inv.argc()))
	case OP_LASTRES:
		v = it.lastResult
	case OP_RANDARG:
		v = types.EmptyStr
		if n := inv.argc(); n > 0 {
			v = types.NewStr(inv.arg(int(it.Rand(int64(n))) + 1))
		}
	case OP_VARSUB:
		v = it.resolve(types.NewIdent(ins.Str))
	case OP_REGSUB:
		switch ins.Int {
		case -1:
			v = types.NewStr(it.match.Left())
		case -2:
			v = types.NewStr(it.match.Right())
		default:
			v = types.NewStr(it.match.Group(ins.Int))
		}
	case OP_BODYSUB:
		v = types.EmptyStr
		if m, ok := it.macros.Lookup(ins.Str); ok {
			v = types.NewStr(m.Body)
		}
	default:
		panic(internalf("%s is not a substitution", ins.Op))
	}

	if push {
		it.Push(v)
	} else {
		it.frame().append(v.String())
	}
}

// ============================================================================
// DISPATCH
// ============================================================================

// dispatch runs the statement built in the line buffer
func (it *Interp) dispatch(ins *Instruction) types.Result {
	f := it.frame()
	line := f.take()
	if it.sp != f.sp {
		panic(internalf("stack height %d at end of statement, want %d", it.sp, f.sp))
	}

	var r types.Result
	switch ins.Op {
	case OP_SEND:
		if err := it.Send(line); err != nil {
			return errorResult(err)
		}
		r = types.Ok(types.True)

	case OP_COMMAND:
		it.mecho(line)
		if _, shadowed := it.commands.Lookup(ins.Str); shadowed {
			r = it.command(ins.Str, line, ins.Int)
		} else {
			r = ins.Cmd.Fn(it, line, ins.Int)
		}

	case OP_BUILTIN:
		it.mecho(line)
		r = ins.Cmd.Fn(it, line, ins.Int)

	case OP_MACRO:
		it.mecho(line)
		r = it.command(ins.Str, line, ins.Int)

	case OP_EXECUTE:
		it.mecho(line)
		name, offset := splitCommand(line)
		if name == "" {
			return types.Errf(types.E_CMDNF, "missing command name")
		}
		r = it.command(name, line, offset)
	}

	if r.IsNormal() {
		it.lastResult = r.Value()
	}
	return r
}

// command runs the command named name: "@name" forces the builtin,
// otherwise a macro hides a builtin of the same name
func (it *Interp) command(name, line string, offset int) types.Result {
	if strings.HasPrefix(name, "@") {
		cmd, _ := it.commands.Lookup(name[1:])
		if cmd == nil {
			return types.Errf(types.E_CMDNF, "/%s: no such builtin", name)
		}
		return cmd.Fn(it, line, offset)
	}
	if m, ok := it.macros.Lookup(name); ok {
		return it.invoke(m, line[offset:], false)
	}
	if cmd, _ := it.commands.Lookup(name); cmd != nil {
		return cmd.Fn(it, line, offset)
	}
	return types.Errf(types.E_CMDNF, "%s: no such command", name)
}

// splitCommand splits "/name args" into the name and the offset of args
func splitCommand(line string) (string, int) {
	i := 1
	for i < len(line) && line[i] != ' ' && line[i] != '\t' {
		i++
	}
	name := line[min(1, len(line)):i]
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return name, i
}

// mecho echoes a command line before it runs: "on" inside macros, "all"
// everywhere
func (it *Interp) mecho(line string) {
	v, _ := it.globals.Get("mecho")
	mode, _ := v.(types.EnumValue)
	if mode.Val == mechoOff || (mode.Val == mechoOn && it.depth == 0) {
		return
	}
	prefix, _ := it.globals.Get("mprefix")
	it.errs.WriteLine(textio.Line{Text: strings.Repeat(prefix.String(), it.depth+1) + " " + line})
}

// Report writes a diagnostic: "% <category>: <message>"
func (it *Interp) Report(code types.ErrorCode, msg string) {
	text := "% " + msg
	if cat := code.Category(); cat != "" {
		text = "% " + cat + ": " + msg
	}
	it.errs.WriteLine(textio.Line{Text: text})
}

// errorResult converts a Go error to an error Result, keeping the code of a
// MacroError
func errorResult(err error) types.Result {
	var me *types.MacroError
	if errors.As(err, &me) {
		return types.Errf(me.Code, "%s", me.Error())
	}
	return types.Errf(types.E_IO, "%v", err)
}
