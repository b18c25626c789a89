package textio

import (
	"bufio"
	"io"
	"sync"
)

const (
	ansiReset     = "\x1b[0m"
	ansiBold      = "\x1b[1m"
	ansiUnderline = "\x1b[4m"
	ansiReverse   = "\x1b[7m"
)

// Writer renders lines to a terminal or file. Gagged lines are dropped.
type Writer struct {
	mu   sync.Mutex
	w    *bufio.Writer
	ansi bool
}

// NewWriter wraps w; ansi enables escape sequences for attributes
func NewWriter(w io.Writer, ansi bool) *Writer {
	return &Writer{w: bufio.NewWriter(w), ansi: ansi}
}

// WriteLine writes one line and flushes
func (w *Writer) WriteLine(l Line) error {
	if l.Attr&AttrGag != 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	styled := w.ansi && l.Attr&(AttrBold|AttrHilite|AttrUnderline|AttrReverse) != 0
	if styled {
		if l.Attr&(AttrBold|AttrHilite) != 0 {
			w.w.WriteString(ansiBold)
		}
		if l.Attr&AttrUnderline != 0 {
			w.w.WriteString(ansiUnderline)
		}
		if l.Attr&AttrReverse != 0 {
			w.w.WriteString(ansiReverse)
		}
	}
	w.w.WriteString(l.Text)
	if styled {
		w.w.WriteString(ansiReset)
	}
	if l.Attr&AttrBell != 0 {
		w.w.WriteByte('\a')
	}
	w.w.WriteByte('\n')
	return w.w.Flush()
}

// Discard is a Sink that drops everything
var Discard Sink = discard{}

type discard struct{}

func (discard) WriteLine(Line) error { return nil }
