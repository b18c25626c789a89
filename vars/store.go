package vars

import (
	"sort"

	"fugue/types"
)

// Validator checks a new value for a special variable. It returns the value
// to store (possibly normalized) or an error, in which case the previous value
// is restored.
type Validator func(old, v types.Value) (types.Value, error)

// Store is the global variable table
type Store struct {
	vars     map[string]types.Value
	specials map[string]Validator
}

// NewStore creates an empty global table
func NewStore() *Store {
	return &Store{
		vars:     make(map[string]types.Value),
		specials: make(map[string]Validator),
	}
}

// DefineSpecial registers a reflected variable with its initial value
func (s *Store) DefineSpecial(name string, initial types.Value, validate Validator) {
	s.specials[name] = validate
	s.vars[name] = initial
}

// IsSpecial reports whether name has a validator
func (s *Store) IsSpecial(name string) bool {
	_, ok := s.specials[name]
	return ok
}

// Get looks up a global variable
func (s *Store) Get(name string) (types.Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Set assigns a global variable. A special variable's validator may rewrite
// or reject the value; on rejection the old value stays in place.
func (s *Store) Set(name string, v types.Value) (types.Value, error) {
	validate, special := s.specials[name]
	if !special {
		s.vars[name] = v
		return v, nil
	}

	old, had := s.vars[name]
	s.vars[name] = v
	stored, err := validate(old, v)
	if err != nil {
		if had {
			s.vars[name] = old
		} else {
			delete(s.vars, name)
		}
		return old, err
	}
	s.vars[name] = stored
	return stored, nil
}

// Unset removes a global variable. Special variables cannot be removed.
func (s *Store) Unset(name string) error {
	if _, special := s.specials[name]; special {
		return types.NewError(types.E_RANGE, "cannot unset special variable %s", name)
	}
	if _, ok := s.vars[name]; !ok {
		return types.NewError(types.E_VARNF, "variable %s not found", name)
	}
	delete(s.vars, name)
	return nil
}

// Names returns the sorted names of all global variables
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
