package vm

import (
	"fmt"
	"strconv"
	"strings"

	"fugue/builtins"
	"fugue/types"
)

// Instruction is one compiled step. Which operand fields are meaningful is
// fixed by the opcode's Operand shape.
type Instruction struct {
	Op       OpCode
	Int      int
	Str      string
	Val      types.Value
	Cmd      *builtins.Command
	ComeFrom int // number of jumps targeting this instruction
}

// StmtExtent covers the instructions of one statement, [Start, End). A Cond
// extent covers a loop or if condition; End is its conditional jump.
type StmtExtent struct {
	Start int
	End   int
	Depth int // frames opened by enclosing substitutions and pipes
	Cond  bool
}

// Program represents compiled macro code
type Program struct {
	Code     []Instruction
	Source   string
	OptLevel int
	Expr     bool // leaves one value on the stack
	Stmts    []StmtExtent
	MaxDepth int // most values the program holds on the stack at once
}

// extentAt returns the innermost extent containing ip
func (p *Program) extentAt(ip int) (StmtExtent, bool) {
	var best StmtExtent
	found := false
	for _, e := range p.Stmts {
		if ip < e.Start || ip >= e.End {
			continue
		}
		if !found || e.Start > best.Start || (e.Start == best.Start && e.End < best.End) {
			best = e
			found = true
		}
	}
	return best, found
}

// Validate checks that every jump has been patched to a target inside the
// program.
func (p *Program) Validate() error {
	for i, ins := range p.Code {
		if ins.Op >= opCount {
			return fmt.Errorf("instruction %d: unknown opcode %d", i, ins.Op)
		}
		if ins.Op.IsJump() && (ins.Int < 0 || ins.Int > len(p.Code)) {
			return fmt.Errorf("instruction %d: unpatched %s", i, ins.Op)
		}
	}
	return nil
}

// Disassemble lists the program one instruction per line
func (p *Program) Disassemble() string {
	var b strings.Builder
	for i, ins := range p.Code {
		fmt.Fprintf(&b, "%4d  %-13s", i, ins.Op)
		if operand := ins.operandString(); operand != "" {
			b.WriteString(" ")
			b.WriteString(operand)
		}
		if ins.ComeFrom > 0 {
			fmt.Fprintf(&b, "  <- %d", ins.ComeFrom)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (ins Instruction) operandString() string {
	switch ins.Op.Info().Operand {
	case OperandInt:
		return strconv.Itoa(ins.Int)
	case OperandStr:
		return strconv.Quote(ins.Str)
	case OperandValue:
		if ins.Val == nil {
			return "<nil>"
		}
		if ins.Val.Type() == types.TYPE_STR {
			return strconv.Quote(ins.Val.String())
		}
		return fmt.Sprintf("%s(%s)", ins.Val.Type(), ins.Val.String())
	case OperandCmd:
		return fmt.Sprintf("%s @%d", ins.Str, ins.Int)
	}
	return ""
}
