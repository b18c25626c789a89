package vm

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"fugue/textio"
	"fugue/trace"
	"fugue/types"
)

func newTestInterp(t *testing.T) (*Interp, *textio.Queue, *textio.Queue) {
	t.Helper()
	out, errs := textio.NewQueue(), textio.NewQueue()
	it := New(out, errs)
	it.Seed(1)
	return it, out, errs
}

// checkBalanced verifies that a top-level line left no frames, stack
// values, invocations or macro levels behind
func checkBalanced(t *testing.T, it *Interp) {
	t.Helper()
	if it.sp != 0 {
		t.Errorf("stack height %d after top-level line", it.sp)
	}
	if len(it.frames) != 1 {
		t.Errorf("%d frames after top-level line", len(it.frames))
	}
	if len(it.calls) != 1 || it.depth != 0 {
		t.Errorf("call stack %d, depth %d after top-level line", len(it.calls), it.depth)
	}
	if it.scope.Depth() != 0 {
		t.Errorf("scope depth %d after top-level line", it.scope.Depth())
	}
}

func execAll(t *testing.T, it *Interp, lines ...string) {
	t.Helper()
	for _, line := range lines {
		it.ExecLine(line)
		checkBalanced(t, it)
	}
}

type recordSender struct {
	lines []string
	err   error
}

func (s *recordSender) Send(line string) error {
	if s.err != nil {
		return s.err
	}
	s.lines = append(s.lines, line)
	return nil
}

func TestMacros(t *testing.T) {
	tests := []struct {
		name     string
		defs     []string
		run      []string
		wantOut  []string
		wantErrs []string
	}{
		{
			name:    "positional parameters",
			defs:    []string{"/def f = /echo %1 %-1 %# %*"},
			run:     []string{"/f a b c"},
			wantOut: []string{"a c 3 a b c"},
		},
		{
			name:    "name and last parameter",
			defs:    []string{"/def f = /echo %0 %L %L2 %9."},
			run:     []string{"/f a b c"},
			wantOut: []string{"f c b ."},
		},
		{
			name:    "shift",
			defs:    []string{"/def f = /shift%;/echo %1 %#"},
			run:     []string{"/f a b c"},
			wantOut: []string{"b 2"},
		},
		{
			name:    "defaults",
			defs:    []string{"/def f = /echo %{1-none} %{x-dflt} %{2-}."},
			run:     []string{"/f", "/f given"},
			wantOut: []string{"none dflt .", "given dflt ."},
		},
		{
			name:    "percent escape",
			defs:    []string{"/def f = /echo 100%% \\%1 $$"},
			run:     []string{"/f a"},
			wantOut: []string{"100% %1 $"},
		},
		{
			name:    "expression",
			defs:    []string{"/def f = /echo $[%1 * 2 + 1]"},
			run:     []string{"/f 4"},
			wantOut: []string{"9"},
		},
		{
			name:    "macro as function",
			defs:    []string{"/def sq = /return %1 * %1", "/def f = /echo $[sq(4)]"},
			run:     []string{"/f"},
			wantOut: []string{"16"},
		},
		{
			name:    "if chain",
			defs:    []string{"/def f = /if (%1 == 1) /echo one%;/elseif (%1 == 2) /echo two%;/else /echo other%;/endif"},
			run:     []string{"/f 1", "/f 2", "/f 3"},
			wantOut: []string{"one", "two", "other"},
		},
		{
			name:    "command condition",
			defs:    []string{"/def f = /if /test %1%;/then /echo yes%;/else /echo no%;/endif"},
			run:     []string{"/f 1", "/f 0"},
			wantOut: []string{"yes", "no"},
		},
		{
			name:    "while",
			defs:    []string{"/def f = /let i=0%;/while (i < %1) /let i=$[i+1]%;/echo %i%;/done"},
			run:     []string{"/f 3"},
			wantOut: []string{"1", "2", "3"},
		},
		{
			name: "break out of two loops",
			defs: []string{"/def f = /let i=0%;/while (1) /let i=$[i+1]%;/while (1) " +
				"/if (i == 3) /break 2%;/endif%;/break%;/done%;/done%;/echo i=%i"},
			run:     []string{"/f"},
			wantOut: []string{"i=3"},
		},
		{
			name:    "for loop",
			defs:    []string{"/def f = /for i 1 3 /echo %%i"},
			run:     []string{"/f"},
			wantOut: []string{"1", "2", "3"},
		},
		{
			name:    "eval with shift",
			defs:    []string{"/def f = /eval -s1 /echo %%1"},
			run:     []string{"/f a b"},
			wantOut: []string{"b"},
		},
		{
			name:    "pipeline",
			defs:    []string{"/def up = /echo <$(/cat)>", "/def f = /echo %1 %| /up"},
			run:     []string{"/f hi"},
			wantOut: []string{"<hi>"},
		},
		{
			name:    "command substitution joins lines",
			defs:    []string{"/def g = /echo x%;/echo y", "/def f = /echo [$(/g)]"},
			run:     []string{"/f"},
			wantOut: []string{"[x y]"},
		},
		{
			name:    "command substitution in expression",
			defs:    []string{"/def f = /echo $[strlen($(/echo abc))]"},
			run:     []string{"/f"},
			wantOut: []string{"3"},
		},
		{
			name:    "body substitution",
			defs:    []string{"/def g = hello", "/def f = /echo ${g}"},
			run:     []string{"/f"},
			wantOut: []string{"hello"},
		},
		{
			name:    "last result",
			defs:    []string{"/def f = /test 2+3%;/echo %?"},
			run:     []string{"/f"},
			wantOut: []string{"5"},
		},
		{
			name:    "variables",
			defs:    []string{"/def f = /set x=5%;/test y := x * 2%;/echo %x %y"},
			run:     []string{"/f"},
			wantOut: []string{"5 10"},
		},
		{
			name: "exit leaves n levels",
			defs: []string{
				"/def inner = /exit 2%;/echo inner",
				"/def outer = /inner%;/echo outer",
				"/def top = /outer%;/echo top",
			},
			run:     []string{"/top"},
			wantOut: []string{"top"},
		},
		{
			name:    "return from inside if",
			defs:    []string{"/def f = /if (1) /return 5%;/endif%;/echo no", "/def g = /echo $[f()]"},
			run:     []string{"/g"},
			wantOut: []string{"5"},
		},
		{
			name:    "macro shadows builtin",
			defs:    []string{"/def echo = /@echo [%*]", "/def f = /echo x"},
			run:     []string{"/f"},
			wantOut: []string{"[x]"},
		},
		{
			name:    "regmatch groups",
			defs:    []string{`/def f = /test regmatch("([a-z]+)@([a-z]+)", "%1")%;/echo %P1 at %P2 [%PL] [%PR]`},
			run:     []string{"/f <bob@host>"},
			wantOut: []string{"bob at host [<] [>]"},
		},
		{
			name:     "runtime error abandons one statement",
			defs:     []string{"/def f = /echo $[1/0]%;/echo after"},
			run:      []string{"/f"},
			wantOut:  []string{"after"},
			wantErrs: []string{"% Error: Division by zero"},
		},
		{
			name:     "failed condition is false",
			defs:     []string{"/def f = /if (1/0) /echo yes%;/else /echo no%;/endif"},
			run:      []string{"/f"},
			wantOut:  []string{"no"},
			wantErrs: []string{"% Error: Division by zero"},
		},
		{
			name:     "errors inside a loop",
			defs:     []string{"/def f = /let i=0%;/while (i < 2) /let i=$[i+1]%;/echo $[1/0]%;/done%;/echo done"},
			run:      []string{"/f"},
			wantOut:  []string{"done"},
			wantErrs: []string{"% Error: Division by zero", "% Error: Division by zero"},
		},
		{
			name:     "unknown command",
			defs:     []string{"/def f = /nosuch%;/echo after"},
			run:      []string{"/f"},
			wantOut:  []string{"after"},
			wantErrs: []string{"% Error: nosuch: no such command"},
		},
		{
			name:     "error in command substitution",
			defs:     []string{"/def f = /echo [$(/echo $[1/0])]"},
			run:      []string{"/f"},
			wantOut:  []string{"[]"},
			wantErrs: []string{"% Error: Division by zero"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, out, errs := newTestInterp(t)
			execAll(t, it, tt.defs...)
			if errs.Len() != 0 {
				t.Fatalf("defining: %v", errs.Texts())
			}
			execAll(t, it, tt.run...)
			if got := out.Texts(); !reflect.DeepEqual(got, tt.wantOut) {
				t.Errorf("output = %q, want %q", got, tt.wantOut)
			}
			if got := errs.Texts(); !reflect.DeepEqual(got, tt.wantErrs) {
				t.Errorf("errors = %q, want %q", got, tt.wantErrs)
			}
		})
	}
}

func TestShortCircuit(t *testing.T) {
	tests := []struct {
		expr   string
		want   string
		called bool
	}{
		{"0 & mark()", "0", false},
		{"1 | mark()", "1", false},
		{"1 & mark()", "1", true},
		{"0 | mark()", "1", true},
		{"0 ? mark() : 2", "2", false},
		{"1 ? 2 : mark()", "2", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			it, _, errs := newTestInterp(t)
			execAll(t, it, "/def mark = /set called=1%;/return 1")
			r := it.EvalExpr(tt.expr)
			checkBalanced(t, it)
			if !r.IsNormal() {
				t.Fatalf("EvalExpr(%q) failed: %s", tt.expr, r.Msg)
			}
			if r.Val.String() != tt.want {
				t.Errorf("EvalExpr(%q) = %s, want %s", tt.expr, r.Val, tt.want)
			}
			_, called := it.Globals().Get("called")
			if called != tt.called {
				t.Errorf("mark called = %v, want %v", called, tt.called)
			}
			if errs.Len() != 0 {
				t.Errorf("errors: %v", errs.Texts())
			}
		})
	}
}

func TestEvalExpr(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"", ""},
		{"1 + 2", "3"},
		{"7 / 2", "3"},
		{"7.0 / 2", "3.5"},
		{"2 * (3 + 4)", "14"},
		{"-3 * 2", "-6"},
		{"!0", "1"},
		{"0x1f", "31"},
		{"1:30", "5400"},
		{"1, 2, 3", "3"},
		{"0 || 5", "5"},
		{"3 && 4", "4"},
		{`"abc" < "abd"`, "1"},
		{`"10" > "9"`, "1"},
		{`"ab" =~ "ab"`, "1"},
		{`"Hello" =/ "h*"`, "1"},
		{`"x" !/ "y*"`, "1"},
		{`strlen("abc")`, "3"},
		{`'single' =~ "single"`, "1"},
		{`"a\"b"`, `a"b`},
		{"unset_var", ""},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			it, _, _ := newTestInterp(t)
			r := it.EvalExpr(tt.expr)
			checkBalanced(t, it)
			if !r.IsNormal() {
				t.Fatalf("EvalExpr(%q) failed: %s %s", tt.expr, r.Error, r.Msg)
			}
			if got := r.Val.String(); got != tt.want {
				t.Errorf("EvalExpr(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvalExprErrors(t *testing.T) {
	tests := []struct {
		expr string
		code types.ErrorCode
	}{
		{"1 / 0", types.E_DIV},
		{"nosuchfn()", types.E_CMDNF},
		{"3 := 2", types.E_ASSIGN},
		{`"a" + 1`, types.E_TYPE},
		{"strlen()", types.E_ARGS},
		{"1 +", types.E_SYNTAX},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			it, _, errs := newTestInterp(t)
			r := it.EvalExpr(tt.expr)
			checkBalanced(t, it)
			if !r.IsError() || r.Error != tt.code {
				t.Errorf("EvalExpr(%q) = %+v, want %s", tt.expr, r, tt.code)
			}
			if errs.Len() != 0 {
				t.Errorf("EvalExpr reported %v; errors belong to the caller", errs.Texts())
			}
		})
	}
}

func TestAssignment(t *testing.T) {
	it, _, _ := newTestInterp(t)
	steps := []struct {
		expr string
		want string
	}{
		{"x := 5", "5"},
		{"x + 1", "6"},
		{"++x", "6"},
		{"--x", "5"},
		{"a := b := 2", "2"},
		{"a + b", "4"},
	}
	for _, s := range steps {
		r := it.EvalExpr(s.expr)
		if !r.IsNormal() || r.Val.String() != s.want {
			t.Errorf("EvalExpr(%q) = %+v, want %s", s.expr, r, s.want)
		}
	}
	if v, _ := it.Globals().Get("x"); v == nil || v.String() != "5" {
		t.Errorf("global x = %v, want 5", v)
	}
}

func TestExecLineModes(t *testing.T) {
	tests := []struct {
		name     string
		sub      string
		line     string
		wantOut  []string
		wantErrs []string
	}{
		{"off keeps separators", "off", "/echo a%;b", []string{"a%;b"}, nil},
		{"off keeps substitutions", "off", "/echo %1 $[1+1]", []string{"%1 $[1+1]"}, nil},
		{"on splits", "on", "/echo a%; /echo b", []string{"a", "b"}, nil},
		{"full compiles", "full", "/echo $[1+1]%;/echo %{x-d}", []string{"2", "d"}, nil},
		{"full reports syntax errors", "full", "/if (1) /echo x", nil,
			[]string{"% Syntax error: expected /endif, found end of input"}},
		{"unknown command", "off", "/nosuch x", nil, []string{"% Error: nosuch: no such command"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, out, errs := newTestInterp(t)
			if _, err := it.Globals().Set("sub", types.NewStr(tt.sub)); err != nil {
				t.Fatal(err)
			}
			execAll(t, it, tt.line)
			if got := out.Texts(); !reflect.DeepEqual(got, tt.wantOut) {
				t.Errorf("output = %q, want %q", got, tt.wantOut)
			}
			if got := errs.Texts(); !reflect.DeepEqual(got, tt.wantErrs) {
				t.Errorf("errors = %q, want %q", got, tt.wantErrs)
			}
		})
	}
}

func TestRecursionLimit(t *testing.T) {
	it, out, errs := newTestInterp(t)
	if _, err := it.Globals().Set("max_recur", types.NewInt(5)); err != nil {
		t.Fatal(err)
	}
	execAll(t, it, "/def r = /r", "/r")
	want := []string{"% Error: r: too many recursion levels"}
	if got := errs.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("errors = %q, want %q", got, want)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q", out.Texts())
	}
}

func TestMecho(t *testing.T) {
	tests := []struct {
		mode   string
		prefix string
		want   []string
	}{
		{"off", "+", nil},
		{"on", "+", []string{"++ /echo hi"}},
		{"all", "+", []string{"+ /f", "++ /echo hi"}},
		{"on", ">", []string{">> /echo hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.mode+tt.prefix, func(t *testing.T) {
			it, out, errs := newTestInterp(t)
			execAll(t, it, "/def f = /echo hi")
			it.Globals().Set("mecho", types.NewStr(tt.mode))
			it.Globals().Set("mprefix", types.NewStr(tt.prefix))
			execAll(t, it, "/f")
			if got := errs.Texts(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("echoed = %q, want %q", got, tt.want)
			}
			if got := out.Texts(); !reflect.DeepEqual(got, []string{"hi"}) {
				t.Errorf("output = %q", got)
			}
		})
	}
}

func TestSend(t *testing.T) {
	it, _, errs := newTestInterp(t)
	execAll(t, it, "say unconnected")
	want := []string{"% Error: not connected"}
	if got := errs.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("errors = %q, want %q", got, want)
	}
	if it.LastResult().Truthy() {
		t.Errorf("failed send left result %s", it.LastResult())
	}

	s := &recordSender{}
	it.SetSender(s)
	errs.Reset()
	execAll(t, it, "/def greet = :waves to %1%;/send -- hi %1", "/greet bob", "plain text")
	wantSent := []string{":waves to bob", "-- hi bob", "plain text"}
	if !reflect.DeepEqual(s.lines, wantSent) {
		t.Errorf("sent = %q, want %q", s.lines, wantSent)
	}
	if errs.Len() != 0 {
		t.Errorf("errors = %q", errs.Texts())
	}

	s.err = errors.New("connection reset")
	execAll(t, it, "/greet bob")
	if errs.Len() != 2 {
		t.Errorf("errors = %q, want one per failed send", errs.Texts())
	}
}

func TestRedefinition(t *testing.T) {
	it, out, errs := newTestInterp(t)
	execAll(t, it, "/def f = /echo one", "/def f = /echo two", "/def -q f = /echo three", "/f")
	if got := errs.Texts(); !reflect.DeepEqual(got, []string{"% Redefined macro f"}) {
		t.Errorf("errors = %q", got)
	}
	if got := out.Texts(); !reflect.DeepEqual(got, []string{"three"}) {
		t.Errorf("output = %q", got)
	}

	errs.Reset()
	execAll(t, it, "/def f = /if (1) /echo broken", "/f")
	if errs.Len() != 1 || !strings.Contains(errs.Texts()[0], "expected /endif") {
		t.Errorf("errors = %q", errs.Texts())
	}
	if got := out.Texts(); !reflect.DeepEqual(got, []string{"three", "three"}) {
		t.Errorf("a bad body replaced the macro: output = %q", got)
	}
}

func TestRecompileOnOptimizeChange(t *testing.T) {
	it, out, _ := newTestInterp(t)
	execAll(t, it, "/def f = /echo $[2*3]", "/f")
	m, _ := it.Macros().Lookup("f")
	first := m.Compiled.(*Program)
	it.Globals().Set("optimize", types.NewInt(0))
	execAll(t, it, "/f")
	second := m.Compiled.(*Program)
	if first == second || second.OptLevel != 0 {
		t.Errorf("macro was not recompiled at the new level")
	}
	if got := out.Texts(); !reflect.DeepEqual(got, []string{"6", "6"}) {
		t.Errorf("output = %q", got)
	}
}

func TestTracer(t *testing.T) {
	it, _, _ := newTestInterp(t)
	var buf bytes.Buffer
	it.SetTracer(trace.New(true, []string{"f*"}, &buf))
	execAll(t, it, "/def g = /echo g", "/def f = /g%;/return 7", "/f x")
	got := buf.String()
	for _, want := range []string{`CALL f args="x"`, `RETURN f => "7"`} {
		if !strings.Contains(got, want) {
			t.Errorf("trace missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "CALL g") {
		t.Errorf("filtered macro traced:\n%s", got)
	}
}

func TestStackPrimitives(t *testing.T) {
	it, _, _ := newTestInterp(t)
	it.Push(types.NewInt(1))
	it.Push(types.NewInt(2))
	it.Push(types.NewInt(3))
	if it.Peek().String() != "3" {
		t.Errorf("Peek = %s", it.Peek())
	}
	vals := it.PopN(2)
	if vals[0].String() != "2" || vals[1].String() != "3" {
		t.Errorf("PopN = %v, want push order", vals)
	}
	if it.Pop().String() != "1" {
		t.Error("Pop returned the wrong value")
	}

	defer func() {
		r := recover()
		if _, ok := r.(*InternalError); !ok {
			t.Errorf("underflow panicked with %v, want *InternalError", r)
		}
	}()
	it.Pop()
}

func TestStackExhaustion(t *testing.T) {
	it, out, errs := newTestInterp(t)
	if _, err := it.Globals().Set("sub", types.NewStr("full")); err != nil {
		t.Fatal(err)
	}
	n := StackSize + 10
	execAll(t, it, "/let x=1%; /echo $["+strings.Repeat("x+(", n)+"x"+strings.Repeat(")", n)+"]")
	want := []string{"% Syntax error: expression too complex"}
	if got := errs.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("errors = %q, want %q", got, want)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q", out.Texts())
	}

	// each nested call leaves its left operand on the stack
	it, out, errs = newTestInterp(t)
	if _, err := it.Globals().Set("max_recur", types.NewInt(100000)); err != nil {
		t.Fatal(err)
	}
	execAll(t, it, "/def f = /return 1+f()", "/f")
	want = []string{"% Error: evaluation stack exhausted"}
	if got := errs.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("errors = %q, want %q", got, want)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q", out.Texts())
	}
}
