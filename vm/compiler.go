package vm

import (
	"fmt"
	"strings"

	"fugue/types"
)

// compiler turns macro source into a Program in a single pass. Literal text
// accumulates in lit and is flushed as one APPEND when anything else is
// emitted.
type compiler struct {
	it   *Interp
	src  string
	pos  int
	prog *Program
	opt  int

	lit       strings.Builder
	barrier   int // no folding or merging with instructions below this index
	comeFrom  int // jumps targeting the next instruction to be emitted
	unpatched int
	depth     int // stack height after the last instruction, counting both arms of a branch
	maxDepth  int

	subDepth   int // open $( ) substitutions
	frameDepth int // open substitutions and pipelines
	parens     int // unbalanced '(' in the current statement text
}

// Compile compiles a statement list
func (it *Interp) Compile(src string) (*Program, error) {
	return it.compile(src, false)
}

// CompileExpr compiles an expression; the program leaves its value on the
// stack.
func (it *Interp) CompileExpr(src string) (*Program, error) {
	return it.compile(src, true)
}

func (it *Interp) compile(src string, expr bool) (*Program, error) {
	c := &compiler{
		it:  it,
		src: src,
		opt: it.optLevel(),
	}
	c.prog = &Program{Source: src, OptLevel: c.opt, Expr: expr}

	var err error
	if expr {
		err = c.exprProgram()
	} else {
		_, err = c.stmtList()
	}
	if err != nil {
		return nil, err
	}
	c.flush()
	if c.maxDepth > StackSize {
		return nil, c.errorf("expression too complex")
	}
	c.prog.MaxDepth = c.maxDepth

	if c.unpatched != 0 {
		panic(internalf("%d unpatched jumps compiling %q", c.unpatched, src))
	}
	if err := c.prog.Validate(); err != nil {
		panic(internalf("compiling %q: %v", src, err))
	}
	return c.prog, nil
}

// emit flushes pending literal text and adds an instruction. It returns the
// index of the instruction, or -1 if the optimizer removed it.
func (c *compiler) emit(ins Instruction) int {
	c.flush()
	c.track(ins)
	return c.add(ins)
}

func (c *compiler) emitOp(op OpCode) int {
	return c.emit(Instruction{Op: op})
}

// flush emits the pending literal text
func (c *compiler) flush() {
	if c.lit.Len() == 0 {
		return
	}
	s := c.lit.String()
	c.lit.Reset()
	c.add(Instruction{Op: OP_APPEND, Str: s})
}

func (c *compiler) add(ins Instruction) int {
	if c.opt > 0 {
		if idx, done := c.peephole(ins); done {
			return idx
		}
	}
	return c.push(ins)
}

// track follows the stack height through ins. Rewrites by the optimizer
// only lower it, so the unoptimized height bounds the program.
func (c *compiler) track(ins Instruction) {
	info := opTable[ins.Op]
	pops := info.Arity
	if pops < 0 {
		pops = ins.Int + 1
	}
	c.depth -= pops
	if info.Result == ResultPush {
		c.depth++
	}
	c.maxDepth = max(c.maxDepth, c.depth)
}

// push appends an instruction without optimization
func (c *compiler) push(ins Instruction) int {
	ins.ComeFrom += c.comeFrom
	c.comeFrom = 0
	c.prog.Code = append(c.prog.Code, ins)
	return len(c.prog.Code) - 1
}

// emitJump emits a forward jump with a placeholder target and returns the
// index to patch, or -1 if the jump was optimized away
func (c *compiler) emitJump(op OpCode) int {
	idx := c.emit(Instruction{Op: op, Int: -1})
	if idx >= 0 && c.prog.Code[idx].Int < 0 {
		c.unpatched++
	}
	return idx
}

// patchJump points the jump at idx to the next instruction to be emitted
func (c *compiler) patchJump(idx int) {
	if idx < 0 {
		return
	}
	c.flush()
	target := len(c.prog.Code)
	c.prog.Code[idx].Int = target
	c.unpatched--
	c.barrier = target
	c.comeFrom++
}

// label marks the next instruction as a backward jump target
func (c *compiler) label() int {
	c.flush()
	c.barrier = len(c.prog.Code)
	c.comeFrom++
	return c.barrier
}

// stmtStart begins a statement; nothing folds across statement boundaries
func (c *compiler) stmtStart() int {
	c.flush()
	c.barrier = len(c.prog.Code)
	return c.barrier
}

// ============================================================================
// ERRORS
// ============================================================================

func (c *compiler) errorf(format string, args ...interface{}) error {
	return &SyntaxError{
		Code:   types.E_SYNTAX,
		Msg:    fmt.Sprintf(format, args...),
		Source: c.src,
		Pos:    c.pos,
	}
}

// expected reports what the parser wanted and what it found instead
func (c *compiler) expected(what string) error {
	return c.errorf("expected %s, found %s", what, c.found())
}

func (c *compiler) found() string {
	if c.pos >= len(c.src) {
		return "end of input"
	}
	rest := c.src[c.pos:]
	end := strings.IndexAny(rest, " \t\n")
	if end < 0 {
		end = len(rest)
	}
	if end == 0 {
		end = 1
	}
	if end > 12 {
		end = 12
	}
	if rest[0] == '/' {
		return rest[:end]
	}
	return fmt.Sprintf("%q", rest[:end])
}

// ============================================================================
// LEXICAL HELPERS
// ============================================================================

func isBlank(ch byte) bool {
	return ch == ' ' || ch == '\t'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isNameStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || isDigit(ch)
}

func (c *compiler) skipBlanks() {
	for c.pos < len(c.src) && isBlank(c.src[c.pos]) {
		c.pos++
	}
}

// at reports whether the source continues with s
func (c *compiler) at(s string) bool {
	return strings.HasPrefix(c.src[c.pos:], s)
}

// stmtEndAt reports whether a statement separator or the ')' closing the
// current command substitution is at i
func (c *compiler) stmtEndAt(i int) bool {
	switch c.src[i] {
	case '\n':
		return true
	case '%':
		return i+1 < len(c.src) && (c.src[i+1] == ';' || c.src[i+1] == '|')
	case ')':
		return c.subDepth > 0 && c.parens == 0
	}
	return false
}

func (c *compiler) atStmtEnd() bool {
	return c.pos >= len(c.src) || c.stmtEndAt(c.pos)
}

// scanStmt returns the index where the statement starting at i ends,
// skipping over nested substitutions without compiling them
func (c *compiler) scanStmt(i int) int {
	parens := 0
	for i < len(c.src) {
		switch c.src[i] {
		case '\\':
			i += 2
			continue
		case '\n':
			return i
		case '%':
			if i+1 < len(c.src) {
				switch c.src[i+1] {
				case ';', '|':
					return i
				case '%':
					i += 2
					continue
				case '{':
					i = skipBalanced(c.src, i+1, '{', '}')
					continue
				}
			}
		case '$':
			if i+1 < len(c.src) {
				switch c.src[i+1] {
				case '$':
					i += 2
					continue
				case '(':
					i = skipBalanced(c.src, i+1, '(', ')')
					continue
				case '[':
					i = skipBalanced(c.src, i+1, '[', ']')
					continue
				case '{':
					i = skipBalanced(c.src, i+1, '{', '}')
					continue
				}
			}
		case '(':
			parens++
		case ')':
			if parens == 0 && c.subDepth > 0 {
				return i
			}
			if parens > 0 {
				parens--
			}
		}
		i++
	}
	return i
}

// skipBalanced returns the index just past the close matching the open at i.
// Quoted strings are skipped inside brackets.
func skipBalanced(s string, i int, open, close byte) int {
	depth := 0
	for i < len(s) {
		ch := s[i]
		switch {
		case ch == '\\':
			i += 2
			continue
		case (ch == '"' || ch == '\'') && open == '[':
			i++
			for i < len(s) && s[i] != ch {
				if s[i] == '\\' {
					i++
				}
				i++
			}
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return i
}
