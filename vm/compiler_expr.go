package vm

import (
	"strings"

	"fugue/types"
)

// Binary operators by precedence level. Longer spellings come first so the
// scan is longest-match.
var (
	relOps = []struct {
		tok string
		op  OpCode
	}{
		{"==", OP_EQ}, {"!=", OP_NE}, {"<=", OP_LE}, {">=", OP_GE},
		{"=~", OP_STREQ}, {"!~", OP_STRNE}, {"=/", OP_MATCH}, {"!/", OP_NMATCH},
		{"<", OP_LT}, {">", OP_GT},
	}
	addOps = map[byte]OpCode{'+': OP_ADD, '-': OP_SUB}
	mulOps = map[byte]OpCode{'*': OP_MUL, '/': OP_DIV}
)

// exprProgram compiles a whole source as one expression
func (c *compiler) exprProgram() error {
	if err := c.expr(); err != nil {
		return err
	}
	c.skipSpace()
	if c.pos < len(c.src) {
		return c.expected("end of expression")
	}
	return nil
}

func (c *compiler) skipSpace() {
	for c.pos < len(c.src) && (isBlank(c.src[c.pos]) || c.src[c.pos] == '\n') {
		c.pos++
	}
}

// consume skips ch if it is next
func (c *compiler) consume(ch byte) bool {
	if c.pos < len(c.src) && c.src[c.pos] == ch {
		c.pos++
		return true
	}
	return false
}

// expr compiles the comma level; every value but the last is discarded
func (c *compiler) expr() error {
	if err := c.assignExpr(); err != nil {
		return err
	}
	for {
		c.skipSpace()
		if !c.consume(',') {
			return nil
		}
		c.emitOp(OP_POP)
		if err := c.assignExpr(); err != nil {
			return err
		}
	}
}

// assignExpr compiles name := value, right-associative
func (c *compiler) assignExpr() error {
	if err := c.condExpr(); err != nil {
		return err
	}
	c.skipSpace()
	if !c.at(":=") {
		return nil
	}
	c.pos += 2
	if err := c.assignExpr(); err != nil {
		return err
	}
	c.emitOp(OP_ASSIGN)
	return nil
}

// condExpr compiles a ? b : c
//
//	a JZ ELSE; b; JUMP END; ELSE: c; END:
func (c *compiler) condExpr() error {
	if err := c.orExpr(); err != nil {
		return err
	}
	c.skipSpace()
	if !c.consume('?') {
		return nil
	}
	jz := c.emitJump(OP_JZ)
	if err := c.assignExpr(); err != nil {
		return err
	}
	c.skipSpace()
	if !c.consume(':') {
		return c.expected("':'")
	}
	end := c.emitJump(OP_JUMP)
	c.depth-- // the else arm starts without the then value
	c.patchJump(jz)
	if err := c.condExpr(); err != nil {
		return err
	}
	c.patchJump(end)
	return nil
}

// orExpr compiles a || b, yielding the deciding operand
//
//	a DUP JNZ END; POP; b; END:
func (c *compiler) orExpr() error {
	if err := c.andExpr(); err != nil {
		return err
	}
	for {
		c.skipSpace()
		if !c.consume('|') {
			return nil
		}
		c.consume('|')
		c.emitOp(OP_DUP)
		end := c.emitJump(OP_JNZ)
		c.emitOp(OP_POP)
		if err := c.andExpr(); err != nil {
			return err
		}
		c.patchJump(end)
	}
}

// andExpr compiles a && b
//
//	a DUP JZ END; POP; b; END:
func (c *compiler) andExpr() error {
	if err := c.relExpr(); err != nil {
		return err
	}
	for {
		c.skipSpace()
		if !c.consume('&') {
			return nil
		}
		c.consume('&')
		c.emitOp(OP_DUP)
		end := c.emitJump(OP_JZ)
		c.emitOp(OP_POP)
		if err := c.relExpr(); err != nil {
			return err
		}
		c.patchJump(end)
	}
}

func (c *compiler) relExpr() error {
	if err := c.addExpr(); err != nil {
		return err
	}
	for {
		c.skipSpace()
		op, ok := c.relOperator()
		if !ok {
			return nil
		}
		if err := c.addExpr(); err != nil {
			return err
		}
		c.emitOp(op)
	}
}

func (c *compiler) relOperator() (OpCode, bool) {
	for _, r := range relOps {
		if c.at(r.tok) {
			c.pos += len(r.tok)
			return r.op, true
		}
	}
	return 0, false
}

func (c *compiler) addExpr() error {
	if err := c.mulExpr(); err != nil {
		return err
	}
	for {
		c.skipSpace()
		if c.pos >= len(c.src) {
			return nil
		}
		op, ok := addOps[c.src[c.pos]]
		if !ok {
			return nil
		}
		c.pos++
		if err := c.mulExpr(); err != nil {
			return err
		}
		c.emitOp(op)
	}
}

func (c *compiler) mulExpr() error {
	if err := c.unary(); err != nil {
		return err
	}
	for {
		c.skipSpace()
		if c.pos >= len(c.src) {
			return nil
		}
		op, ok := mulOps[c.src[c.pos]]
		if !ok {
			return nil
		}
		c.pos++
		if err := c.unary(); err != nil {
			return err
		}
		c.emitOp(op)
	}
}

func (c *compiler) unary() error {
	c.skipSpace()
	var op OpCode
	switch {
	case c.at("++"):
		c.pos += 2
		op = OP_PREINC
	case c.at("--"):
		c.pos += 2
		op = OP_PREDEC
	case c.at("!"):
		c.pos++
		op = OP_NOT
	case c.at("-"):
		c.pos++
		op = OP_NEG
	case c.at("+"):
		c.pos++
		op = OP_PLUS
	default:
		return c.primary()
	}
	if err := c.unary(); err != nil {
		return err
	}
	c.emitOp(op)
	return nil
}

func (c *compiler) primary() error {
	c.skipSpace()
	if c.pos >= len(c.src) {
		return c.expected("operand")
	}
	ch := c.src[c.pos]
	switch {
	case isDigit(ch) || (ch == '.' && c.pos+1 < len(c.src) && isDigit(c.src[c.pos+1])):
		return c.number()
	case ch == '"' || ch == '\'':
		return c.stringLiteral(ch)
	case isNameStart(ch):
		return c.name()
	case ch == '(':
		c.pos++
		if err := c.expr(); err != nil {
			return err
		}
		c.skipSpace()
		if !c.consume(')') {
			return c.expected("')'")
		}
		return nil
	case ch == '%':
		return c.percent(true)
	case ch == '$':
		return c.dollar(true)
	}
	return c.expected("operand")
}

// number compiles an integer, hex, float or time literal
func (c *compiler) number() error {
	start := c.pos
	if c.at("0x") || c.at("0X") {
		c.pos += 2
		for c.pos < len(c.src) && strings.IndexByte("0123456789abcdefABCDEF", c.src[c.pos]) >= 0 {
			c.pos++
		}
	} else {
		for c.pos < len(c.src) && (isDigit(c.src[c.pos]) || c.src[c.pos] == '.' || c.src[c.pos] == ':') {
			c.pos++
		}
		if c.pos < len(c.src) && (c.src[c.pos] == 'e' || c.src[c.pos] == 'E') {
			j := c.pos + 1
			if j < len(c.src) && (c.src[j] == '+' || c.src[j] == '-') {
				j++
			}
			if j < len(c.src) && isDigit(c.src[j]) {
				for j < len(c.src) && isDigit(c.src[j]) {
					j++
				}
				c.pos = j
			}
		}
	}
	tok := c.src[start:c.pos]
	v, ok := types.ParseNumber(tok)
	if !ok {
		c.pos = start
		return c.errorf("bad number %q", tok)
	}
	c.emit(Instruction{Op: OP_PUSH, Val: v})
	return nil
}

// stringLiteral compiles a quoted string; a backslash quotes the next
// character
func (c *compiler) stringLiteral(quote byte) error {
	start := c.pos
	c.pos++
	var b strings.Builder
	for c.pos < len(c.src) {
		ch := c.src[c.pos]
		switch {
		case ch == quote:
			c.pos++
			c.emit(Instruction{Op: OP_PUSH, Val: types.NewStr(b.String())})
			return nil
		case ch == '\\' && c.pos+1 < len(c.src):
			b.WriteByte(c.src[c.pos+1])
			c.pos += 2
		default:
			b.WriteByte(ch)
			c.pos++
		}
	}
	c.pos = start
	return c.errorf("unterminated string")
}

// name compiles an identifier reference or a function call
//
//	PUSH funcref; args...; CALL n
func (c *compiler) name() error {
	start := c.pos
	for c.pos < len(c.src) && isNameChar(c.src[c.pos]) {
		c.pos++
	}
	name := c.src[start:c.pos]

	save := c.pos
	c.skipSpace()
	if !c.consume('(') {
		c.pos = save
		c.emit(Instruction{Op: OP_PUSH, Val: types.NewIdent(name)})
		return nil
	}

	c.emit(Instruction{Op: OP_PUSH, Val: types.NewFuncRef(name)})
	n := 0
	c.skipSpace()
	if !c.consume(')') {
		for {
			if err := c.assignExpr(); err != nil {
				return err
			}
			n++
			c.skipSpace()
			if c.consume(')') {
				break
			}
			if !c.consume(',') {
				return c.expected("',' or ')'")
			}
		}
	}
	c.emit(Instruction{Op: OP_CALL, Int: n})
	return nil
}
