package trace

import (
	"bytes"
	"strings"
	"testing"

	"fugue/types"
)

func TestTracerFilters(t *testing.T) {
	var buf bytes.Buffer
	tr := New(true, []string{"greet*"}, &buf)

	tr.MacroCall(1, "greeting", "bob", false)
	tr.MacroCall(1, "other", "x", false)
	tr.MacroReturn(1, "greeting", types.NewStr("hi bob"))

	out := buf.String()
	if !strings.Contains(out, `CALL greeting args="bob"`) {
		t.Errorf("missing call line in %q", out)
	}
	if strings.Contains(out, "other") {
		t.Errorf("filtered macro traced: %q", out)
	}
	if !strings.Contains(out, `RETURN greeting => "hi bob"`) {
		t.Errorf("missing return line in %q", out)
	}
}

func TestTracerDisabled(t *testing.T) {
	var buf bytes.Buffer
	tr := New(false, nil, &buf)
	tr.MacroCall(0, "m", "", true)
	tr.Send("look")
	if buf.Len() != 0 {
		t.Errorf("disabled tracer wrote %q", buf.String())
	}

	var nilTracer *Tracer
	if nilTracer.IsEnabled() {
		t.Error("nil tracer reports enabled")
	}
	nilTracer.MacroCall(0, "m", "", false)
}

func TestTracerSendTruncates(t *testing.T) {
	var buf bytes.Buffer
	tr := New(true, nil, &buf)
	tr.Send(strings.Repeat("x", 100))
	if !strings.Contains(buf.String(), "...") {
		t.Errorf("long send not truncated: %q", buf.String())
	}
}
