package types

// TypeCode is the tag of a Value. The tag always agrees with the concrete
// Go type carrying the payload.
type TypeCode int

const (
	TYPE_INT   TypeCode = 0
	TYPE_TIME  TypeCode = 1
	TYPE_FLOAT TypeCode = 2
	TYPE_STR   TypeCode = 3
	TYPE_ENUM  TypeCode = 4
	TYPE_IDENT TypeCode = 5
	TYPE_FUNC  TypeCode = 6
	TYPE_CMD   TypeCode = 7
)

// String returns the string representation of the type code
func (t TypeCode) String() string {
	switch t {
	case TYPE_INT:
		return "integer"
	case TYPE_TIME:
		return "time"
	case TYPE_FLOAT:
		return "float"
	case TYPE_STR:
		return "string"
	case TYPE_ENUM:
		return "enum"
	case TYPE_IDENT:
		return "identifier"
	case TYPE_FUNC:
		return "function"
	case TYPE_CMD:
		return "command"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether values of this type take part in arithmetic
// without string parsing.
func (t TypeCode) IsNumeric() bool {
	return t == TYPE_INT || t == TYPE_TIME || t == TYPE_FLOAT || t == TYPE_ENUM
}
