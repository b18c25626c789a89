// Package macro holds the user macro table. The interpreter compiles a body
// on first use and caches the result on the entry.
package macro

import (
	"sort"

	"fugue/pattern"
)

// Macro is a named macro body
type Macro struct {
	Name     string
	Body     string
	Num      int // definition sequence number
	Compiled any // compiled program, owned by the interpreter
}

// Registry maps names to macros
type Registry struct {
	byName map[string]*Macro
	next   int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Macro)}
}

// Define creates or replaces a macro. Replacing drops any compiled body.
func (r *Registry) Define(name, body string) *Macro {
	r.next++
	m := &Macro{Name: name, Body: body, Num: r.next}
	r.byName[name] = m
	return m
}

// Lookup finds a macro by name
func (r *Registry) Lookup(name string) (*Macro, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// Has reports whether a macro exists
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Remove deletes a macro, returning false if it did not exist
func (r *Registry) Remove(name string) bool {
	if _, ok := r.byName[name]; !ok {
		return false
	}
	delete(r.byName, name)
	return true
}

// List returns the macros whose names match glob (all when glob is empty),
// in definition order.
func (r *Registry) List(glob string) []*Macro {
	var out []*Macro
	for name, m := range r.byName {
		if glob == "" || pattern.Glob(glob, name) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Num < out[j].Num })
	return out
}

// Len returns the number of macros
func (r *Registry) Len() int {
	return len(r.byName)
}
