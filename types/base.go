package types

// ErrorCode classifies a compile-time or run-time failure.
type ErrorCode int

const (
	E_NONE     ErrorCode = 0
	E_SYNTAX   ErrorCode = 1  // malformed statement or expression
	E_BINDING  ErrorCode = 2  // explicit builtin reference that does not exist
	E_TYPE     ErrorCode = 3  // operand of the wrong type ("not a number")
	E_DIV      ErrorCode = 4  // division by zero
	E_RANGE    ErrorCode = 5  // value out of range
	E_ARGS     ErrorCode = 6  // wrong number of arguments
	E_VARNF    ErrorCode = 7  // variable not found
	E_CMDNF    ErrorCode = 8  // command or function not found
	E_MAXREC   ErrorCode = 9  // recursion limit exceeded
	E_ASSIGN   ErrorCode = 10 // assignment to something that is not an identifier
	E_IO       ErrorCode = 11 // file or socket failure
	E_INTERNAL ErrorCode = 12 // broken interpreter invariant
)

// String returns the symbolic name of an error code
func (e ErrorCode) String() string {
	switch e {
	case E_NONE:
		return "E_NONE"
	case E_SYNTAX:
		return "E_SYNTAX"
	case E_BINDING:
		return "E_BINDING"
	case E_TYPE:
		return "E_TYPE"
	case E_DIV:
		return "E_DIV"
	case E_RANGE:
		return "E_RANGE"
	case E_ARGS:
		return "E_ARGS"
	case E_VARNF:
		return "E_VARNF"
	case E_CMDNF:
		return "E_CMDNF"
	case E_MAXREC:
		return "E_MAXREC"
	case E_ASSIGN:
		return "E_ASSIGN"
	case E_IO:
		return "E_IO"
	case E_INTERNAL:
		return "E_INTERNAL"
	default:
		return "E_UNKNOWN"
	}
}

// Message returns a human-readable message for an error code
func (e ErrorCode) Message() string {
	switch e {
	case E_NONE:
		return "No error"
	case E_SYNTAX:
		return "Syntax error"
	case E_BINDING:
		return "No such builtin"
	case E_TYPE:
		return "Type mismatch"
	case E_DIV:
		return "Division by zero"
	case E_RANGE:
		return "Range error"
	case E_ARGS:
		return "Incorrect number of arguments"
	case E_VARNF:
		return "Variable not found"
	case E_CMDNF:
		return "Command not found"
	case E_MAXREC:
		return "Too many recursions"
	case E_ASSIGN:
		return "Illegal assignment target"
	case E_IO:
		return "I/O error"
	case E_INTERNAL:
		return "Internal error"
	default:
		return "Unknown error"
	}
}

// Category names the diagnostic class an error code belongs to. Severity is
// carried in the message text, never in a separate channel.
func (e ErrorCode) Category() string {
	switch e {
	case E_SYNTAX, E_BINDING:
		return "Syntax error"
	case E_INTERNAL:
		return "Internal error"
	case E_NONE:
		return ""
	default:
		return "Error"
	}
}

// ErrorFromString converts a string like "E_DIV" to an ErrorCode
func ErrorFromString(s string) (ErrorCode, bool) {
	for code := E_NONE; code <= E_INTERNAL; code++ {
		if code.String() == s {
			return code, true
		}
	}
	return E_NONE, false
}

// Value is the interface all macro-language values implement
type Value interface {
	Type() TypeCode
	String() string   // text form used for substitution and display
	Equal(Value) bool // same type and payload
	Truthy() bool
}
