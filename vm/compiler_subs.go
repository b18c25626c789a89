package vm

import (
	"strconv"
)

type textMode int

const (
	textStmt    textMode = iota // statement text; ends at a separator
	textDefault                 // the default of %{sel-default}; ends at '}'
)

// text compiles literal text and substitutions into the line buffer. Blanks
// before the end of a statement are dropped.
func (c *compiler) text(mode textMode) error {
	for c.pos < len(c.src) {
		ch := c.src[c.pos]
		if mode == textStmt && c.stmtEndAt(c.pos) {
			return nil
		}
		if mode == textDefault && ch == '}' {
			return nil
		}
		switch ch {
		case ' ', '\t':
			if mode == textStmt {
				j := c.pos
				for j < len(c.src) && isBlank(c.src[j]) {
					j++
				}
				if j >= len(c.src) || c.stmtEndAt(j) {
					c.pos = j
					return nil
				}
			}
		case '\\':
			if c.pos+1 < len(c.src) {
				c.lit.WriteByte(c.src[c.pos+1])
				c.pos += 2
				continue
			}
		case '%':
			if err := c.percent(false); err != nil {
				return err
			}
			continue
		case '$':
			if err := c.dollar(false); err != nil {
				return err
			}
			continue
		case '(':
			if mode == textStmt {
				c.parens++
			}
		case ')':
			if mode == textStmt && c.parens > 0 {
				c.parens--
			}
		}
		c.lit.WriteByte(ch)
		c.pos++
	}
	return nil
}

// selector is a parsed %-substitution
type selector struct {
	op  OpCode // append form
	n   int
	str string
}

// scanSelector parses the selector at pos; %sel and %{sel} accept the same
// selectors.
func (c *compiler) scanSelector() (selector, bool) {
	if c.pos >= len(c.src) {
		return selector{}, false
	}
	switch ch := c.src[c.pos]; {
	case ch == '*':
		c.pos++
		return selector{op: OP_ALLARGS}, true
	case ch == '#':
		c.pos++
		return selector{op: OP_ARGC}, true
	case ch == '?':
		c.pos++
		return selector{op: OP_LASTRES}, true
	case ch == '-' && c.pos+1 < len(c.src) && isDigit(c.src[c.pos+1]):
		c.pos++
		n, ok := c.scanInt()
		return selector{op: OP_POSARG, n: -n}, ok
	case isDigit(ch):
		n, ok := c.scanInt()
		return selector{op: OP_POSARG, n: n}, ok
	case isNameStart(ch):
		start := c.pos
		for c.pos < len(c.src) && isNameChar(c.src[c.pos]) {
			c.pos++
		}
		return classifyName(c.src[start:c.pos]), true
	}
	return selector{}, false
}

func (c *compiler) scanInt() (int, bool) {
	start := c.pos
	for c.pos < len(c.src) && isDigit(c.src[c.pos]) {
		c.pos++
	}
	n, err := strconv.Atoi(c.src[start:c.pos])
	return n, err == nil
}

// classifyName maps the reserved selector names; anything else is a variable
func classifyName(name string) selector {
	switch {
	case name == "L":
		return selector{op: OP_POSARG, n: -1}
	case name == "R":
		return selector{op: OP_RANDARG}
	case name == "PL":
		return selector{op: OP_REGSUB, n: -1}
	case name == "PR":
		return selector{op: OP_REGSUB, n: -2}
	case len(name) == 2 && name[0] == 'P' && isDigit(name[1]):
		return selector{op: OP_REGSUB, n: int(name[1] - '0')}
	case len(name) > 1 && name[0] == 'L' && allDigits(name[1:]):
		n, err := strconv.Atoi(name[1:])
		if err == nil && n > 0 {
			return selector{op: OP_POSARG, n: -n}
		}
	}
	return selector{op: OP_VARSUB, str: name}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}

func (c *compiler) emitSelector(sel selector, push bool) {
	op := sel.op
	if push {
		op = op.PushForm()
	}
	c.emit(Instruction{Op: op, Int: sel.n, Str: sel.str})
}

// percent compiles a %-substitution. In push mode the value goes on the
// stack instead of the line buffer.
func (c *compiler) percent(push bool) error {
	start := c.pos
	c.pos++
	if !push && c.at("%") {
		c.lit.WriteByte('%')
		c.pos++
		return nil
	}
	if c.at("{") {
		return c.bracedPercent(start, push)
	}
	sel, ok := c.scanSelector()
	if !ok {
		return c.badSelector(start, push)
	}
	c.emitSelector(sel, push)
	return nil
}

// bracedPercent compiles %{sel} and %{sel-default}
//
//	sel_PUSH; JNEMPTY L; POP; BUFPUSH; default; BUFPOP; L: [APPENDVAL]
func (c *compiler) bracedPercent(start int, push bool) error {
	c.pos++
	sel, ok := c.scanSelector()
	if !ok {
		return c.badSelector(start, push)
	}
	if c.at("}") {
		c.pos++
		c.emitSelector(sel, push)
		return nil
	}
	if !c.at("-") {
		return c.badSelector(start, push)
	}
	c.pos++

	c.emitSelector(sel, true)
	skip := c.emitJump(OP_JNEMPTY)
	c.emitOp(OP_POP)
	c.emitOp(OP_BUFPUSH)
	if err := c.text(textDefault); err != nil {
		return err
	}
	if !c.at("}") {
		return c.expected("'}'")
	}
	c.pos++
	c.emitOp(OP_BUFPOP)
	c.patchJump(skip)
	if !push {
		c.emitOp(OP_APPENDVAL)
	}
	return nil
}

// badSelector leaves an unrecognized % as literal text in a statement; in an
// expression it is an error
func (c *compiler) badSelector(start int, push bool) error {
	if push {
		c.pos = start
		return c.expected("substitution")
	}
	c.pos = start + 1
	c.lit.WriteByte('%')
	return nil
}

// dollar compiles $[expr], $(stmts), ${name} and $name
func (c *compiler) dollar(push bool) error {
	start := c.pos
	c.pos++
	if c.pos >= len(c.src) {
		return c.literalDollar(start, push)
	}
	switch ch := c.src[c.pos]; {
	case ch == '$' && !push:
		c.lit.WriteByte('$')
		c.pos++
		return nil

	case ch == '[':
		c.pos++
		if err := c.expr(); err != nil {
			return err
		}
		c.skipSpace()
		if !c.consume(']') {
			return c.expected("']'")
		}
		if !push {
			c.emitOp(OP_APPENDVAL)
		}
		return nil

	case ch == '(':
		c.pos++
		return c.commandSub(push)

	case ch == '{':
		end := c.pos + 1
		for end < len(c.src) && c.src[end] != '}' {
			end++
		}
		if end >= len(c.src) {
			c.pos = start + 1
			return c.expected("'}'")
		}
		name := c.src[c.pos+1 : end]
		c.pos = end + 1
		c.emitBody(name, push)
		return nil

	case isNameStart(ch):
		begin := c.pos
		for c.pos < len(c.src) && isNameChar(c.src[c.pos]) {
			c.pos++
		}
		c.emitBody(c.src[begin:c.pos], push)
		return nil
	}
	return c.literalDollar(start, push)
}

func (c *compiler) literalDollar(start int, push bool) error {
	if push {
		c.pos = start
		return c.expected("substitution")
	}
	c.pos = start + 1
	c.lit.WriteByte('$')
	return nil
}

func (c *compiler) emitBody(name string, push bool) {
	op := OP_BODYSUB
	if push {
		op = OP_BODYSUB_PUSH
	}
	c.emit(Instruction{Op: op, Str: name})
}

// commandSub compiles the statement list of $( ... ) in a capturing frame
func (c *compiler) commandSub(push bool) error {
	c.emitOp(OP_CMDSUB)
	c.frameDepth++
	c.subDepth++
	saved := c.parens
	c.parens = 0

	if _, err := c.stmtList(); err != nil {
		return err
	}
	if !c.consume(')') {
		return c.expected("')'")
	}

	c.parens = saved
	c.subDepth--
	c.frameDepth--
	if push {
		c.emitOp(OP_ENDSUB_PUSH)
	} else {
		c.emitOp(OP_ENDSUB)
	}
	return nil
}
