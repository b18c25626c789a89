package types

import "hash/fnv"

// IdentValue names a variable. It is resolved lazily against the scope chain
// by the interpreter; on its own it carries only the name and its hash.
type IdentValue struct {
	Name string
	Hash uint32
}

// NewIdent creates an identifier reference with its hash cached
func NewIdent(name string) IdentValue {
	h := fnv.New32a()
	h.Write([]byte(name))
	return IdentValue{Name: name, Hash: h.Sum32()}
}

// Type returns the type code for identifiers
func (i IdentValue) Type() TypeCode {
	return TYPE_IDENT
}

// String returns the identifier name
func (i IdentValue) String() string {
	return i.Name
}

// Equal compares names
func (i IdentValue) Equal(other Value) bool {
	o, ok := other.(IdentValue)
	if !ok {
		return false
	}
	return i.Hash == o.Hash && i.Name == o.Name
}

// Truthy is never consulted on an unresolved identifier
func (i IdentValue) Truthy() bool {
	return i.Name != ""
}
