package types

import (
	"strconv"
	"strings"
)

// EnumTable is the ordered symbol table of an enumerated variable
type EnumTable struct {
	Names []string
}

// NewEnumTable builds a table from its symbols, ordinal = position
func NewEnumTable(names ...string) *EnumTable {
	return &EnumTable{Names: names}
}

// Parse resolves a symbol (case-insensitive) or an ordinal in range
func (t *EnumTable) Parse(s string) (EnumValue, bool) {
	for i, name := range t.Names {
		if strings.EqualFold(name, s) {
			return EnumValue{Val: int64(i), Table: t}, true
		}
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		if n >= 0 && n < int64(len(t.Names)) {
			return EnumValue{Val: n, Table: t}, true
		}
	}
	return EnumValue{}, false
}

// EnumValue is an integer with a symbolic spelling
type EnumValue struct {
	Val   int64
	Table *EnumTable
}

// Type returns the type code for enums
func (e EnumValue) Type() TypeCode {
	return TYPE_ENUM
}

// String returns the symbol, or the ordinal when it has none
func (e EnumValue) String() string {
	if e.Table != nil && e.Val >= 0 && e.Val < int64(len(e.Table.Names)) {
		return e.Table.Names[e.Val]
	}
	return strconv.FormatInt(e.Val, 10)
}

// Equal compares ordinals
func (e EnumValue) Equal(other Value) bool {
	o, ok := other.(EnumValue)
	if !ok {
		return false
	}
	return e.Val == o.Val
}

// Truthy returns whether the ordinal is non-zero
func (e EnumValue) Truthy() bool {
	return e.Val != 0
}

// OffOn is the table shared by boolean-like settings.
var OffOn = NewEnumTable("off", "on")
