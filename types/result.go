package types

import "fmt"

// ControlFlow represents the control flow state of a statement's outcome
type ControlFlow int

const (
	FlowNormal ControlFlow = iota // Normal execution
	FlowError                     // Runtime error, already described by Msg
	FlowBreak                     // Unwind Count enclosing loops
	FlowReturn                    // Leave the current macro with Val
	FlowExit                      // Leave Count macro levels (0 = all)
)

// Result represents the outcome of an operator, function or command.
// This unifies normal values, control flow and errors.
type Result struct {
	Val   Value       // The value (FlowNormal, FlowReturn)
	Flow  ControlFlow // Control flow state
	Error ErrorCode   // Only set when Flow == FlowError
	Msg   string      // Detail for FlowError
	Count int         // Levels for FlowBreak and FlowExit
}

// Ok creates a Result for normal execution with a value
func Ok(v Value) Result {
	return Result{Val: v, Flow: FlowNormal}
}

// Err creates a Result for a runtime error
func Err(e ErrorCode) Result {
	return Result{Flow: FlowError, Error: e, Msg: e.Message()}
}

// Errf creates a Result for a runtime error with a formatted message
func Errf(e ErrorCode, format string, args ...interface{}) Result {
	return Result{Flow: FlowError, Error: e, Msg: fmt.Sprintf(format, args...)}
}

// Break creates a Result that unwinds n loops
func Break(n int) Result {
	return Result{Flow: FlowBreak, Count: n, Val: True}
}

// Return creates a Result for /return
func Return(v Value) Result {
	return Result{Val: v, Flow: FlowReturn}
}

// Exit creates a Result that leaves n macro levels (0 = all of them)
func Exit(n int) Result {
	return Result{Flow: FlowExit, Count: n, Val: True}
}

// IsNormal returns true if this is normal execution
func (r Result) IsNormal() bool {
	return r.Flow == FlowNormal
}

// IsError returns true if this is a runtime error
func (r Result) IsError() bool {
	return r.Flow == FlowError
}

// IsReturn returns true if this is a return
func (r Result) IsReturn() bool {
	return r.Flow == FlowReturn
}

// IsBreak returns true if this is a break
func (r Result) IsBreak() bool {
	return r.Flow == FlowBreak
}

// Value returns the result value, substituting False for errors and nil
func (r Result) Value() Value {
	if r.Flow == FlowError || r.Val == nil {
		return False
	}
	return r.Val
}

// MacroError wraps an ErrorCode as a Go error
type MacroError struct {
	Code ErrorCode
	Msg  string
}

func (e *MacroError) Error() string {
	if e.Msg == "" {
		return e.Code.Message()
	}
	return e.Msg
}

// NewError creates a MacroError with a formatted message
func NewError(code ErrorCode, format string, args ...interface{}) *MacroError {
	return &MacroError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// AsError converts an error Result to a Go error, nil otherwise
func (r Result) AsError() error {
	if r.Flow != FlowError {
		return nil
	}
	return &MacroError{Code: r.Error, Msg: r.Msg}
}
