package types

import (
	"errors"
	"testing"
)

func TestResultConstructors(t *testing.T) {
	t.Run("Ok", func(t *testing.T) {
		r := Ok(NewInt(42))
		if !r.IsNormal() {
			t.Error("Ok() should create normal result")
		}
		if !r.Val.Equal(NewInt(42)) {
			t.Errorf("Expected value 42, got %v", r.Val)
		}
	})

	t.Run("Err", func(t *testing.T) {
		r := Err(E_DIV)
		if !r.IsError() {
			t.Error("Err() should create error result")
		}
		if r.Error != E_DIV || r.Msg != "Division by zero" {
			t.Errorf("Expected E_DIV with default message, got %v %q", r.Error, r.Msg)
		}
		if !r.Value().Equal(False) {
			t.Error("an error result's value is False")
		}
	})

	t.Run("Errf", func(t *testing.T) {
		r := Errf(E_ARGS, "%s: expected %d arguments", "substr", 3)
		if r.Msg != "substr: expected 3 arguments" {
			t.Errorf("unexpected message %q", r.Msg)
		}
	})

	t.Run("Return", func(t *testing.T) {
		r := Return(NewStr("done"))
		if !r.IsReturn() || r.Value().String() != "done" {
			t.Errorf("Return() = %+v", r)
		}
	})

	t.Run("Break", func(t *testing.T) {
		r := Break(2)
		if !r.IsBreak() || r.Count != 2 {
			t.Errorf("Break(2) = %+v", r)
		}
	})

	t.Run("Exit", func(t *testing.T) {
		r := Exit(0)
		if r.Flow != FlowExit || r.Count != 0 {
			t.Errorf("Exit(0) = %+v", r)
		}
	})

	t.Run("nil value", func(t *testing.T) {
		if !(Result{}).Value().Equal(False) {
			t.Error("a result without a value reads as False")
		}
	})
}

func TestResultAsError(t *testing.T) {
	if Ok(True).AsError() != nil {
		t.Error("normal result should not convert to an error")
	}

	err := Errf(E_VARNF, "no such variable: %s", "foo").AsError()
	var me *MacroError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MacroError, got %T", err)
	}
	if me.Code != E_VARNF || err.Error() != "no such variable: foo" {
		t.Errorf("unexpected error %v (%v)", err, me.Code)
	}

	if (&MacroError{Code: E_IO}).Error() != "I/O error" {
		t.Error("empty message falls back to the code's message")
	}
}
