package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"fugue/pattern"
	"fugue/types"
)

// Tracer provides macro execution tracing for debugging
type Tracer struct {
	enabled bool
	filters []string
	writer  io.Writer
	mu      sync.Mutex
}

// New creates a tracer. filters are globs matched against macro names; an
// empty list traces every macro.
func New(enabled bool, filters []string, writer io.Writer) *Tracer {
	if writer == nil {
		writer = os.Stderr
	}
	return &Tracer{
		enabled: enabled,
		filters: filters,
		writer:  writer,
	}
}

// IsEnabled returns whether tracing is enabled. A nil tracer is disabled.
func (t *Tracer) IsEnabled() bool {
	return t != nil && t.enabled
}

// SetEnabled turns tracing on or off
func (t *Tracer) SetEnabled(on bool) {
	t.mu.Lock()
	t.enabled = on
	t.mu.Unlock()
}

// matchesFilter checks if a macro name matches any of the filter patterns
func (t *Tracer) matchesFilter(name string) bool {
	if len(t.filters) == 0 {
		return true
	}
	for _, glob := range t.filters {
		if pattern.Glob(glob, name) {
			return true
		}
	}
	return false
}

func (t *Tracer) printf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, format, args...)
}

// MacroCall logs a macro invocation
func (t *Tracer) MacroCall(depth int, name, args string, asFunc bool) {
	if !t.IsEnabled() || !t.matchesFilter(name) {
		return
	}
	kind := "CALL"
	if asFunc {
		kind = "FCALL"
	}
	t.printf("[TRACE] %s%s %s args=%q\n", indent(depth), kind, name, args)
}

// MacroReturn logs the value a macro produced
func (t *Tracer) MacroReturn(depth int, name string, result types.Value) {
	if !t.IsEnabled() || !t.matchesFilter(name) {
		return
	}
	resultStr := ""
	if result != nil {
		resultStr = result.String()
	}
	t.printf("[TRACE] %sRETURN %s => %q\n", indent(depth), name, resultStr)
}

// Error logs a runtime error contained inside a macro
func (t *Tracer) Error(depth int, name string, code types.ErrorCode, msg string) {
	if !t.IsEnabled() || !t.matchesFilter(name) {
		return
	}
	t.printf("[TRACE] %sERROR %s %s: %s\n", indent(depth), name, code, msg)
}

// Send logs a line sent to the server
func (t *Tracer) Send(line string) {
	if !t.IsEnabled() {
		return
	}
	// Truncate long lines for readability
	display := line
	if len(display) > 60 {
		display = display[:57] + "..."
	}
	t.printf("[TRACE]   SEND %q\n", display)
}

func indent(depth int) string {
	if depth <= 0 {
		return ""
	}
	return strings.Repeat("  ", depth)
}
