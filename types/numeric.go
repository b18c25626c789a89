package types

import (
	"strconv"
	"strings"
)

// ParseNumber parses the whole of s as an integer, float or time literal.
// Leading and trailing blanks are ignored. An integer literal that does not
// fit in 64 bits is returned as a float.
func ParseNumber(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if strings.Contains(s, ":") {
		if t, ok := ParseTimeLiteral(s); ok {
			return t, true
		}
		return nil, false
	}
	body := strings.TrimLeft(s, "+-")
	if len(body) > 2 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		n, err := strconv.ParseInt(body[2:], 16, 64)
		if err != nil {
			return nil, false
		}
		if strings.HasPrefix(s, "-") {
			n = -n
		}
		return NewInt(n), true
	}
	if !looksDecimal(body) {
		return nil, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NewInt(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return nil, false
		}
	}
	return NewFloat(f), true
}

// looksDecimal rejects spellings ParseFloat accepts but the language does not
// (inf, nan, hex floats, underscores).
func looksDecimal(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
		case c == 'e' || c == 'E':
			if digits == 0 {
				return false
			}
		case (c == '+' || c == '-') && i > 0 && (s[i-1] == 'e' || s[i-1] == 'E'):
		default:
			return false
		}
	}
	return digits > 0
}

// ToNumeric returns v as an Int, Float or Time. Enums become their ordinal,
// the empty string becomes 0, and a non-numeric string is E_TYPE.
func ToNumeric(v Value) (Value, ErrorCode) {
	switch n := v.(type) {
	case IntValue:
		return IntValue{Val: n.Val}, E_NONE
	case FloatValue, TimeValue:
		return v, E_NONE
	case EnumValue:
		return NewInt(n.Val), E_NONE
	case StrValue:
		if strings.TrimSpace(n.val) == "" {
			return NewInt(0), E_NONE
		}
		if num, ok := ParseNumber(n.val); ok {
			return num, E_NONE
		}
		return nil, E_TYPE
	default:
		return nil, E_TYPE
	}
}

// ToInt converts v to an integer, truncating floats and times
func ToInt(v Value) (int64, ErrorCode) {
	n, code := ToNumeric(v)
	if code != E_NONE {
		return 0, code
	}
	switch n := n.(type) {
	case IntValue:
		return n.Val, E_NONE
	case FloatValue:
		return int64(n.Val), E_NONE
	case TimeValue:
		return n.Sec, E_NONE
	}
	return 0, E_TYPE
}

// ToFloat converts v to a float
func ToFloat(v Value) (float64, ErrorCode) {
	n, code := ToNumeric(v)
	if code != E_NONE {
		return 0, code
	}
	switch n := n.(type) {
	case IntValue:
		return float64(n.Val), E_NONE
	case FloatValue:
		return n.Val, E_NONE
	case TimeValue:
		return n.Float(), E_NONE
	}
	return 0, E_TYPE
}

// IsNumericString reports whether s parses as a number
func IsNumericString(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}
