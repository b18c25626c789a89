package vm

import (
	"fmt"

	"fugue/types"
)

// SyntaxError is a compile-time failure. Code is E_SYNTAX or E_BINDING.
type SyntaxError struct {
	Code   types.ErrorCode
	Msg    string
	Source string
	Pos    int
}

func (e *SyntaxError) Error() string {
	return e.Msg
}

// Unwrap exposes the error as a MacroError so callers can read its code
func (e *SyntaxError) Unwrap() error {
	return &types.MacroError{Code: e.Code, Msg: e.Msg}
}

// InternalError is a broken interpreter invariant: a stack underflow or
// overflow, an unpatched jump or an unknown opcode. It is raised by panic
// and is never contained by statement error handling.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Msg
}

func internalf(format string, args ...interface{}) *InternalError {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}
