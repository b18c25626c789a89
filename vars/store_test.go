package vars

import (
	"errors"
	"testing"

	"fugue/types"
)

func TestStoreSetGet(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get("x"); ok {
		t.Fatal("new store should be empty")
	}
	if _, err := s.Set("x", types.NewStr("hello")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok := s.Get("x")
	if !ok || v.String() != "hello" {
		t.Errorf("Get(x) = %v, %v", v, ok)
	}
}

func TestSpecialRollback(t *testing.T) {
	s := NewStore()
	s.DefineSpecial("max_recur", types.NewInt(100), IntRange(0, 1000))

	t.Run("accepts and normalizes", func(t *testing.T) {
		stored, err := s.Set("max_recur", types.NewStr("50"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !stored.Equal(types.NewInt(50)) {
			t.Errorf("stored %s %v, want integer 50", stored.Type(), stored)
		}
	})

	t.Run("rejects and restores", func(t *testing.T) {
		_, err := s.Set("max_recur", types.NewInt(5000))
		var me *types.MacroError
		if !errors.As(err, &me) || me.Code != types.E_RANGE {
			t.Fatalf("expected E_RANGE, got %v", err)
		}
		v, _ := s.Get("max_recur")
		if !v.Equal(types.NewInt(50)) {
			t.Errorf("previous value not restored, got %v", v)
		}
	})

	t.Run("non-numeric", func(t *testing.T) {
		_, err := s.Set("max_recur", types.NewStr("lots"))
		var me *types.MacroError
		if !errors.As(err, &me) || me.Code != types.E_TYPE {
			t.Fatalf("expected E_TYPE, got %v", err)
		}
	})

	t.Run("cannot unset", func(t *testing.T) {
		if err := s.Unset("max_recur"); err == nil {
			t.Error("special variables cannot be unset")
		}
	})
}

func TestEnumSpecial(t *testing.T) {
	table := types.NewEnumTable("off", "on", "all")
	s := NewStore()
	s.DefineSpecial("mecho", types.EnumValue{Val: 0, Table: table}, Enum(table))

	stored, err := s.Set("mecho", types.NewStr("ALL"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.String() != "all" {
		t.Errorf("stored %q, want all", stored.String())
	}
	if _, err := s.Set("mecho", types.NewStr("loud")); err == nil {
		t.Error("expected rejection of unknown symbol")
	}
	if v, _ := s.Get("mecho"); v.String() != "all" {
		t.Errorf("mecho = %q after rejected set", v.String())
	}
}

func TestStoreNames(t *testing.T) {
	s := NewStore()
	s.Set("b", types.NewInt(1))
	s.Set("a", types.NewInt(2))
	names := s.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v", names)
	}
	if err := s.Unset("a"); err != nil {
		t.Errorf("Unset(a) = %v", err)
	}
	if err := s.Unset("a"); err == nil {
		t.Error("second Unset(a) should fail")
	}
}
