package vars

import (
	"testing"

	"fugue/types"
)

func TestChainLookupOrder(t *testing.T) {
	g := NewStore()
	g.Set("x", types.NewStr("global"))
	c := NewChain(g)

	c.Push()
	c.SetLocal("x", types.NewStr("outer"))
	c.Push()

	if v, _ := c.Lookup("x"); v.String() != "outer" {
		t.Errorf("inner level should see outer local, got %v", v)
	}

	c.SetLocal("x", types.NewStr("inner"))
	if v, _ := c.Lookup("x"); v.String() != "inner" {
		t.Errorf("innermost local should win, got %v", v)
	}

	c.Pop()
	if v, _ := c.Lookup("x"); v.String() != "outer" {
		t.Errorf("after Pop, got %v", v)
	}

	c.Pop()
	if v, _ := c.Lookup("x"); v.String() != "global" {
		t.Errorf("after both Pops, got %v", v)
	}
}

func TestChainAssign(t *testing.T) {
	g := NewStore()
	c := NewChain(g)

	c.Push()
	c.SetLocal("n", types.NewInt(1))
	c.Push()
	c.Assign("n", types.NewInt(2))
	c.Assign("fresh", types.NewInt(3))
	c.Pop()

	if v, _ := c.Lookup("n"); !v.Equal(types.NewInt(2)) {
		t.Errorf("Assign should update the nearest local, got %v", v)
	}
	if v, ok := g.Get("fresh"); !ok || !v.Equal(types.NewInt(3)) {
		t.Errorf("Assign of an unbound name should set the global, got %v %v", v, ok)
	}
	if _, ok := g.Get("n"); ok {
		t.Error("local assignment leaked into globals")
	}
}

func TestChainTopLevelLet(t *testing.T) {
	g := NewStore()
	c := NewChain(g)
	c.SetLocal("y", types.NewInt(7))
	if v, ok := g.Get("y"); !ok || !v.Equal(types.NewInt(7)) {
		t.Error("SetLocal with no open level should set the global")
	}
}

func TestChainTruncateAndUnset(t *testing.T) {
	c := NewChain(NewStore())
	c.Push()
	c.Push()
	c.Push()
	c.SetLocal("z", types.NewInt(1))
	c.Truncate(1)
	if c.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", c.Depth())
	}
	if _, ok := c.Lookup("z"); ok {
		t.Error("variables of truncated levels must be released")
	}
	c.SetLocal("w", types.NewInt(1))
	if err := c.Unset("w"); err != nil {
		t.Errorf("Unset(w) = %v", err)
	}
	if _, ok := c.Lookup("w"); ok {
		t.Error("w still bound after Unset")
	}
}
