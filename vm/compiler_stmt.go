package vm

import (
	"fmt"
	"strconv"
	"strings"

	"fugue/types"
)

var keywords = map[string]bool{
	"if":     true,
	"elseif": true,
	"else":   true,
	"endif":  true,
	"then":   true,
	"while":  true,
	"do":     true,
	"done":   true,
	"break":  true,
}

// keyword returns the control keyword at the start of the current statement
func (c *compiler) keyword() string {
	if c.pos >= len(c.src) || c.src[c.pos] != '/' {
		return ""
	}
	i := c.pos + 1
	for i < len(c.src) && c.src[i] >= 'a' && c.src[i] <= 'z' {
		i++
	}
	word := c.src[c.pos+1 : i]
	if !keywords[word] {
		return ""
	}
	if i < len(c.src) && !isBlank(c.src[i]) && c.src[i] != '(' && !c.stmtEndAt(i) {
		return ""
	}
	return word
}

// stmtList compiles statements until the end of input, the ')' closing a
// command substitution, or one of terms. A terminator keyword is consumed
// and returned; the last of terms names the block's closing keyword.
func (c *compiler) stmtList(terms ...string) (string, error) {
	for {
		c.skipBlanks()
		if c.pos >= len(c.src) || (c.subDepth > 0 && c.src[c.pos] == ')') {
			if len(terms) > 0 {
				return "", c.expected("/" + terms[len(terms)-1])
			}
			return "", nil
		}
		switch {
		case c.at("%;"):
			c.pos += 2
			continue
		case c.src[c.pos] == '\n':
			c.pos++
			continue
		case c.at("%|"):
			return "", c.expected("command before %|")
		}

		if kw := c.keyword(); kw != "" {
			c.pos += 1 + len(kw)
			for _, t := range terms {
				if t == kw {
					return kw, nil
				}
			}
			if err := c.control(kw, terms); err != nil {
				return "", err
			}
			continue
		}
		if err := c.statement(); err != nil {
			return "", err
		}
	}
}

func (c *compiler) control(kw string, terms []string) error {
	switch kw {
	case "if":
		return c.ifStmt()
	case "while":
		return c.whileStmt()
	case "break":
		return c.breakStmt()
	}
	if len(terms) > 0 {
		return c.errorf("expected /%s, found /%s", terms[len(terms)-1], kw)
	}
	return c.errorf("unexpected /%s", kw)
}

// statement compiles a simple statement, or a pipeline of them
func (c *compiler) statement() error {
	if !c.pipeAhead() {
		return c.simpleStmt()
	}
	c.emitOp(OP_PIPE)
	c.frameDepth++
	for {
		if err := c.simpleStmt(); err != nil {
			return err
		}
		if !c.at("%|") {
			break
		}
		c.pos += 2
		c.skipBlanks()
		if c.atStmtEnd() || c.keyword() != "" {
			return c.expected("command after %|")
		}
		more := 0
		if c.pipeAhead() {
			more = 1
		}
		c.emit(Instruction{Op: OP_PIPENEXT, Int: more})
	}
	c.frameDepth--
	c.emitOp(OP_ENDPIPE)
	return nil
}

// pipeAhead reports whether the statement at pos is followed by %|
func (c *compiler) pipeAhead() bool {
	if !strings.Contains(c.src[c.pos:], "%|") {
		return false
	}
	end := c.scanStmt(c.pos)
	return strings.HasPrefix(c.src[end:], "%|")
}

// simpleStmt compiles one line: a command or text for the server
func (c *compiler) simpleStmt() error {
	start := c.stmtStart()
	c.parens = 0

	dispatch := Instruction{Op: OP_SEND}
	if c.src[c.pos] == '/' {
		ins, err := c.commandHead()
		if err != nil {
			return err
		}
		dispatch = ins
	}
	if err := c.text(textStmt); err != nil {
		return err
	}
	c.emit(dispatch)
	c.prog.Stmts = append(c.prog.Stmts, StmtExtent{
		Start: start,
		End:   len(c.prog.Code),
		Depth: c.frameDepth,
	})
	return nil
}

// commandHead binds a lexically constant command name at compile time. The
// name and the blanks after it become literal text; the dispatch operand
// records where the arguments begin.
func (c *compiler) commandHead() (Instruction, error) {
	i := c.pos + 1
	force := i < len(c.src) && c.src[i] == '@'
	if force {
		i++
	}
	nameStart := i
	for i < len(c.src) && !isBlank(c.src[i]) && !c.stmtEndAt(i) {
		i++
	}
	name := c.src[nameStart:i]
	if name == "" || strings.ContainsAny(name, "%$\\") {
		return Instruction{Op: OP_EXECUTE}, nil
	}
	for i < len(c.src) && isBlank(c.src[i]) {
		i++
	}
	offset := i - c.pos
	c.lit.WriteString(c.src[c.pos:i])
	headPos := c.pos
	c.pos = i

	cmd, _ := c.it.commands.Lookup(name)
	switch {
	case force && cmd == nil:
		return Instruction{}, &SyntaxError{
			Code:   types.E_BINDING,
			Msg:    fmt.Sprintf("/@%s: no such builtin", name),
			Source: c.src,
			Pos:    headPos,
		}
	case force:
		return Instruction{Op: OP_BUILTIN, Cmd: cmd, Str: name, Int: offset}, nil
	case cmd != nil:
		return Instruction{Op: OP_COMMAND, Cmd: cmd, Str: name, Int: offset}, nil
	}
	return Instruction{Op: OP_MACRO, Str: name, Int: offset}, nil
}

// ifStmt compiles /if ... [/elseif ...]... [/else ...] /endif
//
//	cond JZ L1; body; JUMP END; L1: cond JZ L2; body; JUMP END; L2: else; END:
func (c *compiler) ifStmt() error {
	var ends []int
	for {
		jz, err := c.condition("then")
		if err != nil {
			return err
		}
		term, err := c.stmtList("elseif", "else", "endif")
		if err != nil {
			return err
		}
		switch term {
		case "elseif":
			ends = append(ends, c.emitJump(OP_JUMP))
			c.patchJump(jz)
			continue
		case "else":
			ends = append(ends, c.emitJump(OP_JUMP))
			c.patchJump(jz)
			if _, err := c.stmtList("endif"); err != nil {
				return err
			}
		default:
			c.patchJump(jz)
		}
		for _, j := range ends {
			c.patchJump(j)
		}
		return nil
	}
}

// whileStmt compiles /while ... /done
//
//	TOP: cond JZ END; body; DONE TOP; END:
func (c *compiler) whileStmt() error {
	top := c.label()
	jz, err := c.condition("do")
	if err != nil {
		return err
	}
	if _, err := c.stmtList("done"); err != nil {
		return err
	}
	c.emit(Instruction{Op: OP_DONE, Int: top})
	c.patchJump(jz)
	return nil
}

// condition compiles "(expr)" or "stmts /kw". It returns the conditional
// jump to patch with the false branch.
func (c *compiler) condition(kw string) (int, error) {
	c.skipBlanks()
	if c.pos >= len(c.src) || c.src[c.pos] != '(' {
		if _, err := c.stmtList(kw); err != nil {
			return 0, err
		}
		return c.emitJump(OP_JRZ), nil
	}

	c.pos++
	start := c.stmtStart()
	if err := c.expr(); err != nil {
		return 0, err
	}
	c.skipSpace()
	if !c.consume(')') {
		return 0, c.expected("')'")
	}
	jz := c.emitJump(OP_JZ)
	if jz >= 0 && c.prog.Code[jz].Op != OP_JUMP {
		c.prog.Stmts = append(c.prog.Stmts, StmtExtent{
			Start: start,
			End:   jz,
			Depth: c.frameDepth,
			Cond:  true,
		})
	}
	return jz, nil
}

// breakStmt compiles /break [n]
func (c *compiler) breakStmt() error {
	c.skipBlanks()
	n := 1
	start := c.pos
	for c.pos < len(c.src) && isDigit(c.src[c.pos]) {
		c.pos++
	}
	if c.pos > start {
		v, err := strconv.Atoi(c.src[start:c.pos])
		if err != nil || v < 1 {
			c.pos = start
			return c.expected("break count")
		}
		n = v
	}
	c.skipBlanks()
	if !c.atStmtEnd() {
		return c.expected("end of /break")
	}
	c.emit(Instruction{Op: OP_BREAK, Int: n})
	return nil
}
