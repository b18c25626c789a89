package types

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"42", NewInt(42)},
		{" 7 ", NewInt(7)},
		{"-12", NewInt(-12)},
		{"+5", NewInt(5)},
		{"0x1f", NewInt(31)},
		{"-0x10", NewInt(-16)},
		{"3.5", NewFloat(3.5)},
		{"1e3", NewFloat(1000)},
		{".5", NewFloat(0.5)},
		{"9223372036854775808", NewFloat(9223372036854775808)},
		{"1:30", NewTime(5400, 0)},
		{"0:00:01.25", NewTime(1, 250000)},
		{"", nil},
		{"abc", nil},
		{"12abc", nil},
		{"inf", nil},
		{"NaN", nil},
		{"1_000", nil},
		{"1.2.3", nil},
		{"e5", nil},
		{"1:5", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			if tt.want == nil {
				if ok {
					t.Errorf("ParseNumber(%q) = %v, expected failure", tt.in, got)
				}
				return
			}
			if !ok {
				t.Fatalf("ParseNumber(%q) failed, want %v", tt.in, tt.want)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseNumber(%q) = %s %v, want %s %v", tt.in, got.Type(), got, tt.want.Type(), tt.want)
			}
		})
	}
}

func TestToNumeric(t *testing.T) {
	t.Run("empty string is zero", func(t *testing.T) {
		v, code := ToNumeric(NewStr(""))
		if code != E_NONE || !v.Equal(NewInt(0)) {
			t.Errorf("got %v, %v", v, code)
		}
	})

	t.Run("non-numeric string", func(t *testing.T) {
		if _, code := ToNumeric(NewStr("foo")); code != E_TYPE {
			t.Errorf("expected E_TYPE, got %v", code)
		}
	})

	t.Run("enum ordinal", func(t *testing.T) {
		v, code := ToNumeric(EnumValue{Val: 1, Table: OffOn})
		if code != E_NONE || !v.Equal(NewInt(1)) {
			t.Errorf("got %v, %v", v, code)
		}
	})

	t.Run("regmatch flag dropped", func(t *testing.T) {
		v, _ := ToNumeric(NewRegmatch(true))
		if v.(IntValue).Regmatch {
			t.Error("arithmetic operands should not carry the regmatch flag")
		}
	})

	t.Run("identifier", func(t *testing.T) {
		if _, code := ToNumeric(NewIdent("x")); code != E_TYPE {
			t.Errorf("expected E_TYPE, got %v", code)
		}
	})
}

func TestToIntAndFloat(t *testing.T) {
	if n, code := ToInt(NewFloat(3.9)); code != E_NONE || n != 3 {
		t.Errorf("ToInt(3.9) = %d, %v", n, code)
	}
	if n, code := ToInt(NewStr("0x10")); code != E_NONE || n != 16 {
		t.Errorf("ToInt(\"0x10\") = %d, %v", n, code)
	}
	if f, code := ToFloat(NewTime(1, 500000)); code != E_NONE || f != 1.5 {
		t.Errorf("ToFloat(1.5s) = %v, %v", f, code)
	}
	if IsNumericString("x1") || !IsNumericString("1") {
		t.Error("IsNumericString mismatch")
	}
}
