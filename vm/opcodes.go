package vm

// OpCode represents a bytecode instruction
type OpCode byte

// Expression opcodes
const (
	OP_PUSH   OpCode = iota // Push Val
	OP_POP                  // Discard top of stack
	OP_DUP                  // Duplicate top of stack
	OP_ADD                  // Pop b, a; push a + b
	OP_SUB                  // Pop b, a; push a - b
	OP_MUL                  // Pop b, a; push a * b
	OP_DIV                  // Pop b, a; push a / b
	OP_EQ                   // Pop b, a; push a == b
	OP_NE                   // Pop b, a; push a != b
	OP_LT                   // Pop b, a; push a < b
	OP_LE                   // Pop b, a; push a <= b
	OP_GT                   // Pop b, a; push a > b
	OP_GE                   // Pop b, a; push a >= b
	OP_STREQ                // Pop b, a; push a =~ b
	OP_STRNE                // Pop b, a; push a !~ b
	OP_MATCH                // Pop b, a; push a =/ b
	OP_NMATCH               // Pop b, a; push a !/ b
	OP_NOT                  // Pop a; push !a
	OP_NEG                  // Pop a; push -a
	OP_PLUS                 // Pop a; push +a
	OP_ASSIGN               // Pop v, ident; assign; push v
	OP_PREINC               // Pop ident; increment; push new value
	OP_PREDEC               // Pop ident; decrement; push new value
	OP_CALL                 // Pop Int args and a function ref; push result
)

// Substitution opcodes. Every value-producing substitution has an append
// form followed immediately by its push form.
const (
	OP_APPEND       OpCode = OP_CALL + 1 + iota // Append Str to the line buffer
	OP_APPENDVAL                                // Pop a; append a
	OP_POSARG                                   // Positional parameter Int (>0 nth, <0 from end, 0 name)
	OP_POSARG_PUSH                              //
	OP_ALLARGS                                  // %*
	OP_ALLARGS_PUSH                             //
	OP_ARGC                                     // %#
	OP_ARGC_PUSH                                //
	OP_LASTRES                                  // %?
	OP_LASTRES_PUSH                             //
	OP_RANDARG                                  // %R
	OP_RANDARG_PUSH                             //
	OP_VARSUB                                   // Variable Str
	OP_VARSUB_PUSH                              //
	OP_REGSUB                                   // Regmatch group Int (0-9, -1 left, -2 right)
	OP_REGSUB_PUSH                              //
	OP_BODYSUB                                  // Body of macro Str
	OP_BODYSUB_PUSH                             //
	OP_BUFPUSH                                  // Start a nested line buffer
	OP_BUFPOP                                   // End the nested buffer; push its text
	OP_CMDSUB                                   // Enter a capturing frame
	OP_ENDSUB                                   // Leave it; append the captured text
	OP_ENDSUB_PUSH                              // Leave it; push the captured text
)

// Jump opcodes. Int is the target instruction index.
const (
	OP_JUMP    OpCode = OP_ENDSUB_PUSH + 1 + iota // Unconditional jump
	OP_JZ                                         // Pop; jump if false
	OP_JNZ                                        // Pop; jump if true
	OP_JRZ                                        // Jump if the last command result is false
	OP_JNEMPTY                                    // Jump if top of stack is not empty (no pop)
	OP_DONE                                       // End of a loop body; jump back to its top
)

// Control opcodes
const (
	OP_SEND     OpCode = OP_DONE + 1 + iota // Send the line buffer to the server
	OP_COMMAND                              // Run builtin Cmd (unless shadowed); Str name, Int arg offset
	OP_MACRO                                // Run macro Str by name; Int arg offset
	OP_BUILTIN                              // Run builtin Cmd even if shadowed
	OP_EXECUTE                              // Parse the line buffer as a command at run time
	OP_BREAK                                // Leave Int enclosing loops
	OP_PIPE                                 // Enter a pipeline frame capturing output
	OP_PIPENEXT                             // Feed the capture to the next stage; Int 1 = capture again
	OP_ENDPIPE                              // Leave the pipeline frame
	opCount
)

// Category is the family an opcode belongs to
type Category byte

const (
	CatExpr Category = iota
	CatSubst
	CatJump
	CatControl
)

func (c Category) String() string {
	switch c {
	case CatExpr:
		return "expr"
	case CatSubst:
		return "subst"
	case CatJump:
		return "jump"
	case CatControl:
		return "control"
	}
	return "?"
}

// Operand is the shape of an instruction's operand
type Operand byte

const (
	OperandNone Operand = iota
	OperandInt
	OperandStr
	OperandValue
	OperandCmd // Cmd plus Str name and Int offset
)

// ResultShape says where an instruction's value goes
type ResultShape byte

const (
	ResultNone ResultShape = iota
	ResultPush
	ResultAppend
)

// OpInfo describes one opcode
type OpInfo struct {
	Name     string
	Category Category
	Operand  Operand
	Result   ResultShape
	Arity    int  // values popped; -1 when it depends on the operand
	Pure     bool // no side effects; may be folded at compile time
}

var opTable = [opCount]OpInfo{
	OP_PUSH:   {"PUSH", CatExpr, OperandValue, ResultPush, 0, false},
	OP_POP:    {"POP", CatExpr, OperandNone, ResultNone, 1, true},
	OP_DUP:    {"DUP", CatExpr, OperandNone, ResultPush, 0, false},
	OP_ADD:    {"ADD", CatExpr, OperandNone, ResultPush, 2, true},
	OP_SUB:    {"SUB", CatExpr, OperandNone, ResultPush, 2, true},
	OP_MUL:    {"MUL", CatExpr, OperandNone, ResultPush, 2, true},
	OP_DIV:    {"DIV", CatExpr, OperandNone, ResultPush, 2, true},
	OP_EQ:     {"EQ", CatExpr, OperandNone, ResultPush, 2, true},
	OP_NE:     {"NE", CatExpr, OperandNone, ResultPush, 2, true},
	OP_LT:     {"LT", CatExpr, OperandNone, ResultPush, 2, true},
	OP_LE:     {"LE", CatExpr, OperandNone, ResultPush, 2, true},
	OP_GT:     {"GT", CatExpr, OperandNone, ResultPush, 2, true},
	OP_GE:     {"GE", CatExpr, OperandNone, ResultPush, 2, true},
	OP_STREQ:  {"STREQ", CatExpr, OperandNone, ResultPush, 2, true},
	OP_STRNE:  {"STRNE", CatExpr, OperandNone, ResultPush, 2, true},
	OP_MATCH:  {"MATCH", CatExpr, OperandNone, ResultPush, 2, true},
	OP_NMATCH: {"NMATCH", CatExpr, OperandNone, ResultPush, 2, true},
	OP_NOT:    {"NOT", CatExpr, OperandNone, ResultPush, 1, true},
	OP_NEG:    {"NEG", CatExpr, OperandNone, ResultPush, 1, true},
	OP_PLUS:   {"PLUS", CatExpr, OperandNone, ResultPush, 1, true},
	OP_ASSIGN: {"ASSIGN", CatExpr, OperandNone, ResultPush, 2, false},
	OP_PREINC: {"PREINC", CatExpr, OperandNone, ResultPush, 1, false},
	OP_PREDEC: {"PREDEC", CatExpr, OperandNone, ResultPush, 1, false},
	OP_CALL:   {"CALL", CatExpr, OperandInt, ResultPush, -1, false},

	OP_APPEND:       {"APPEND", CatSubst, OperandStr, ResultAppend, 0, false},
	OP_APPENDVAL:    {"APPENDVAL", CatSubst, OperandNone, ResultAppend, 1, false},
	OP_POSARG:       {"POSARG", CatSubst, OperandInt, ResultAppend, 0, false},
	OP_POSARG_PUSH:  {"POSARG_PUSH", CatSubst, OperandInt, ResultPush, 0, false},
	OP_ALLARGS:      {"ALLARGS", CatSubst, OperandNone, ResultAppend, 0, false},
	OP_ALLARGS_PUSH: {"ALLARGS_PUSH", CatSubst, OperandNone, ResultPush, 0, false},
	OP_ARGC:         {"ARGC", CatSubst, OperandNone, ResultAppend, 0, false},
	OP_ARGC_PUSH:    {"ARGC_PUSH", CatSubst, OperandNone, ResultPush, 0, false},
	OP_LASTRES:      {"LASTRES", CatSubst, OperandNone, ResultAppend, 0, false},
	OP_LASTRES_PUSH: {"LASTRES_PUSH", CatSubst, OperandNone, ResultPush, 0, false},
	OP_RANDARG:      {"RANDARG", CatSubst, OperandNone, ResultAppend, 0, false},
	OP_RANDARG_PUSH: {"RANDARG_PUSH", CatSubst, OperandNone, ResultPush, 0, false},
	OP_VARSUB:       {"VARSUB", CatSubst, OperandStr, ResultAppend, 0, false},
	OP_VARSUB_PUSH:  {"VARSUB_PUSH", CatSubst, OperandStr, ResultPush, 0, false},
	OP_REGSUB:       {"REGSUB", CatSubst, OperandInt, ResultAppend, 0, false},
	OP_REGSUB_PUSH:  {"REGSUB_PUSH", CatSubst, OperandInt, ResultPush, 0, false},
	OP_BODYSUB:      {"BODYSUB", CatSubst, OperandStr, ResultAppend, 0, false},
	OP_BODYSUB_PUSH: {"BODYSUB_PUSH", CatSubst, OperandStr, ResultPush, 0, false},
	OP_BUFPUSH:      {"BUFPUSH", CatSubst, OperandNone, ResultNone, 0, false},
	OP_BUFPOP:       {"BUFPOP", CatSubst, OperandNone, ResultPush, 0, false},
	OP_CMDSUB:       {"CMDSUB", CatSubst, OperandNone, ResultNone, 0, false},
	OP_ENDSUB:       {"ENDSUB", CatSubst, OperandNone, ResultAppend, 0, false},
	OP_ENDSUB_PUSH:  {"ENDSUB_PUSH", CatSubst, OperandNone, ResultPush, 0, false},

	OP_JUMP:    {"JUMP", CatJump, OperandInt, ResultNone, 0, false},
	OP_JZ:      {"JZ", CatJump, OperandInt, ResultNone, 1, false},
	OP_JNZ:     {"JNZ", CatJump, OperandInt, ResultNone, 1, false},
	OP_JRZ:     {"JRZ", CatJump, OperandInt, ResultNone, 0, false},
	OP_JNEMPTY: {"JNEMPTY", CatJump, OperandInt, ResultNone, 0, false},
	OP_DONE:    {"DONE", CatJump, OperandInt, ResultNone, 0, false},

	OP_SEND:     {"SEND", CatControl, OperandNone, ResultNone, 0, false},
	OP_COMMAND:  {"COMMAND", CatControl, OperandCmd, ResultNone, 0, false},
	OP_MACRO:    {"MACRO", CatControl, OperandCmd, ResultNone, 0, false},
	OP_BUILTIN:  {"BUILTIN", CatControl, OperandCmd, ResultNone, 0, false},
	OP_EXECUTE:  {"EXECUTE", CatControl, OperandNone, ResultNone, 0, false},
	OP_BREAK:    {"BREAK", CatControl, OperandInt, ResultNone, 0, false},
	OP_PIPE:     {"PIPE", CatControl, OperandNone, ResultNone, 0, false},
	OP_PIPENEXT: {"PIPENEXT", CatControl, OperandInt, ResultNone, 0, false},
	OP_ENDPIPE:  {"ENDPIPE", CatControl, OperandNone, ResultNone, 0, false},
}

// Info returns the table entry for op
func (op OpCode) Info() OpInfo {
	if op >= opCount {
		return OpInfo{Name: "UNKNOWN"}
	}
	return opTable[op]
}

// String returns the name of an opcode
func (op OpCode) String() string {
	return op.Info().Name
}

// IsJump reports whether Int holds a jump target
func (op OpCode) IsJump() bool {
	return op < opCount && opTable[op].Category == CatJump
}

// PushForm returns the push variant of an append-form substitution
func (op OpCode) PushForm() OpCode {
	if op < opCount && opTable[op].Result == ResultAppend && op+1 < opCount &&
		opTable[op+1].Result == ResultPush && opTable[op+1].Category == CatSubst {
		return op + 1
	}
	return op
}
