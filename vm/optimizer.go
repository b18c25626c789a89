package vm

import (
	"fugue/types"
)

// peephole rewrites the tail of the program as ins is added. It reports
// done when it has taken care of ins, with the index of the instruction
// that stands for it (-1 if none). Nothing at or below the barrier is
// touched, so no rewrite crosses a jump target or a statement boundary.
func (c *compiler) peephole(ins Instruction) (int, bool) {
	switch ins.Op {
	case OP_APPEND:
		if prev := c.last(); prev != nil && prev.Op == OP_APPEND {
			prev.Str += ins.Str
			return len(c.prog.Code) - 1, true
		}

	case OP_APPENDVAL:
		if v, ok := c.lastConst(); ok {
			c.drop(1)
			return c.add(Instruction{Op: OP_APPEND, Str: v.String()}), true
		}

	case OP_JZ, OP_JNZ:
		if prev := c.last(); prev != nil && prev.Op == OP_NOT {
			c.drop(1)
			if ins.Op == OP_JZ {
				ins.Op = OP_JNZ
			} else {
				ins.Op = OP_JZ
			}
			return c.add(ins), true
		}
		if v, ok := c.lastConst(); ok {
			c.drop(1)
			if v.Truthy() == (ins.Op == OP_JNZ) {
				ins.Op = OP_JUMP
				return c.push(ins), true
			}
			return -1, true
		}
	}

	info := ins.Op.Info()
	if info.Pure && info.Arity > 0 {
		return c.fold(ins.Op, info)
	}
	return 0, false
}

// fold evaluates a side-effect-free operator whose operands are all
// constants and replaces them with the result
func (c *compiler) fold(op OpCode, info OpInfo) (int, bool) {
	n := len(c.prog.Code)
	if n-info.Arity < c.barrier {
		return 0, false
	}
	vals := make([]types.Value, info.Arity)
	for i := range vals {
		ins := &c.prog.Code[n-info.Arity+i]
		if !isConstPush(ins) {
			return 0, false
		}
		vals[i] = ins.Val
	}

	res := c.it.evalPure(op, vals)
	if !res.IsNormal() {
		// leave it for run time, where the error is reported
		return 0, false
	}
	c.drop(info.Arity)
	if info.Result == ResultNone {
		return -1, true
	}
	return c.push(Instruction{Op: OP_PUSH, Val: res.Val}), true
}

// last returns the final instruction if it is above the barrier
func (c *compiler) last() *Instruction {
	n := len(c.prog.Code)
	if n == 0 || n-1 < c.barrier {
		return nil
	}
	return &c.prog.Code[n-1]
}

func (c *compiler) lastConst() (types.Value, bool) {
	ins := c.last()
	if ins == nil || !isConstPush(ins) {
		return nil, false
	}
	return ins.Val, true
}

// drop removes the last k instructions. Jumps into them now target the next
// instruction emitted.
func (c *compiler) drop(k int) {
	n := len(c.prog.Code)
	for _, ins := range c.prog.Code[n-k:] {
		c.comeFrom += ins.ComeFrom
	}
	c.prog.Code = c.prog.Code[:n-k]
}

// isConstPush reports whether ins pushes a value that needs no run-time
// resolution
func isConstPush(ins *Instruction) bool {
	if ins.Op != OP_PUSH || ins.Val == nil {
		return false
	}
	switch ins.Val.(type) {
	case types.IdentValue, types.FuncRefValue, types.CmdRefValue:
		return false
	}
	return true
}
