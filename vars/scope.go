package vars

import "fugue/types"

// Chain is the stack of local-variable levels, searched innermost first and
// falling back to the global Store.
type Chain struct {
	levels  []map[string]types.Value
	globals *Store
}

// NewChain creates a chain with no local levels
func NewChain(globals *Store) *Chain {
	return &Chain{globals: globals}
}

// Globals returns the store the chain falls back to
func (c *Chain) Globals() *Store {
	return c.globals
}

// Push opens a new local level
func (c *Chain) Push() {
	c.levels = append(c.levels, make(map[string]types.Value))
}

// Pop discards the innermost level and every variable in it
func (c *Chain) Pop() {
	if len(c.levels) == 0 {
		return
	}
	c.levels[len(c.levels)-1] = nil
	c.levels = c.levels[:len(c.levels)-1]
}

// Depth returns the number of open local levels
func (c *Chain) Depth() int {
	return len(c.levels)
}

// Truncate pops levels until at most depth remain
func (c *Chain) Truncate(depth int) {
	for len(c.levels) > depth {
		c.Pop()
	}
}

// Lookup resolves name to the nearest local, then the global
func (c *Chain) Lookup(name string) (types.Value, bool) {
	if level := c.find(name); level != nil {
		return level[name], true
	}
	return c.globals.Get(name)
}

// SetLocal binds name in the innermost level; with no local level open it
// sets the global instead.
func (c *Chain) SetLocal(name string, v types.Value) (types.Value, error) {
	if len(c.levels) == 0 {
		return c.globals.Set(name, v)
	}
	c.levels[len(c.levels)-1][name] = v
	return v, nil
}

// Assign updates the nearest local holding name, otherwise the global
func (c *Chain) Assign(name string, v types.Value) (types.Value, error) {
	if level := c.find(name); level != nil {
		level[name] = v
		return v, nil
	}
	return c.globals.Set(name, v)
}

// Unset removes the nearest binding of name
func (c *Chain) Unset(name string) error {
	if level := c.find(name); level != nil {
		delete(level, name)
		return nil
	}
	return c.globals.Unset(name)
}

func (c *Chain) find(name string) map[string]types.Value {
	for i := len(c.levels) - 1; i >= 0; i-- {
		if _, ok := c.levels[i][name]; ok {
			return c.levels[i]
		}
	}
	return nil
}
