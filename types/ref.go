package types

// FuncRefValue is the callee of a function call expression: an expression
// function or a user macro, resolved by name when the call runs.
type FuncRefValue struct {
	Name string
}

// NewFuncRef creates a function reference
func NewFuncRef(name string) FuncRefValue {
	return FuncRefValue{Name: name}
}

// Type returns the type code for function references
func (f FuncRefValue) Type() TypeCode {
	return TYPE_FUNC
}

// String returns the function name
func (f FuncRefValue) String() string {
	return f.Name
}

// Equal compares names
func (f FuncRefValue) Equal(other Value) bool {
	o, ok := other.(FuncRefValue)
	return ok && o.Name == f.Name
}

// Truthy is always true for a reference
func (f FuncRefValue) Truthy() bool {
	return true
}

// CmdRefValue refers to a builtin command called in function position.
type CmdRefValue struct {
	Name string
}

// NewCmdRef creates a command reference
func NewCmdRef(name string) CmdRefValue {
	return CmdRefValue{Name: name}
}

// Type returns the type code for command references
func (c CmdRefValue) Type() TypeCode {
	return TYPE_CMD
}

// String returns the command name
func (c CmdRefValue) String() string {
	return c.Name
}

// Equal compares names
func (c CmdRefValue) Equal(other Value) bool {
	o, ok := other.(CmdRefValue)
	return ok && o.Name == c.Name
}

// Truthy is always true for a reference
func (c CmdRefValue) Truthy() bool {
	return true
}
