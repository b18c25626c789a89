// Package textio carries attributed lines between the interpreter and its
// input and output handles.
package textio

import (
	"fmt"
	"strings"
)

// Attr is a set of display attributes carried alongside a line
type Attr uint16

const (
	AttrGag       Attr = 1 << iota // g: suppress display
	AttrHilite                     // h
	AttrBold                       // B
	AttrUnderline                  // u
	AttrReverse                    // r
	AttrBell                       // b
)

var attrLetters = []struct {
	letter byte
	attr   Attr
}{
	{'g', AttrGag},
	{'h', AttrHilite},
	{'B', AttrBold},
	{'u', AttrUnderline},
	{'r', AttrReverse},
	{'b', AttrBell},
}

// ParseAttrs parses a string of attribute letters such as "hB".
// 'n' (none) is accepted and contributes nothing.
func ParseAttrs(s string) (Attr, error) {
	var a Attr
outer:
	for i := 0; i < len(s); i++ {
		if s[i] == 'n' {
			continue
		}
		for _, l := range attrLetters {
			if l.letter == s[i] {
				a |= l.attr
				continue outer
			}
		}
		return 0, fmt.Errorf("invalid display attribute %q", s[i])
	}
	return a, nil
}

// String returns the attribute letters
func (a Attr) String() string {
	var b strings.Builder
	for _, l := range attrLetters {
		if a&l.attr != 0 {
			b.WriteByte(l.letter)
		}
	}
	return b.String()
}

// Line is one line of text and its attributes
type Line struct {
	Text string
	Attr Attr
}

// Sink accepts lines
type Sink interface {
	WriteLine(Line) error
}

// Source produces lines; ok is false at end of input
type Source interface {
	ReadLine() (Line, bool)
}

// Queue is a FIFO of lines, usable as both a Sink and a Source
type Queue struct {
	lines []Line
	head  int
}

// NewQueue creates a queue holding the given texts
func NewQueue(texts ...string) *Queue {
	q := &Queue{}
	for _, t := range texts {
		q.lines = append(q.lines, Line{Text: t})
	}
	return q
}

// WriteLine appends a line
func (q *Queue) WriteLine(l Line) error {
	q.lines = append(q.lines, l)
	return nil
}

// ReadLine removes and returns the oldest line
func (q *Queue) ReadLine() (Line, bool) {
	if q.head >= len(q.lines) {
		return Line{}, false
	}
	l := q.lines[q.head]
	q.head++
	return l, true
}

// Len returns the number of unread lines
func (q *Queue) Len() int {
	return len(q.lines) - q.head
}

// Lines returns the unread lines without consuming them
func (q *Queue) Lines() []Line {
	return q.lines[q.head:]
}

// Texts returns the text of the unread lines, nil when there are none
func (q *Queue) Texts() []string {
	var out []string
	for _, l := range q.Lines() {
		out = append(out, l.Text)
	}
	return out
}

// Reset discards everything
func (q *Queue) Reset() {
	q.lines = q.lines[:0]
	q.head = 0
}
