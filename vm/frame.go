package vm

import (
	"strings"

	"fugue/textio"
)

// Frame is the I/O redirection record of one execution context. Frames are
// pushed for macro bodies, command substitutions and pipelines, and popped
// in strict reverse order.
type Frame struct {
	in      textio.Source
	out     textio.Sink
	capture *textio.Queue // where out points while capturing, else nil
	sp      int           // stack height when the frame was entered
	bufs    []*strings.Builder
}

func newFrame(in textio.Source, out textio.Sink, sp int) *Frame {
	return &Frame{in: in, out: out, sp: sp, bufs: []*strings.Builder{{}}}
}

func (f *Frame) buf() *strings.Builder {
	return f.bufs[len(f.bufs)-1]
}

func (f *Frame) append(s string) {
	f.buf().WriteString(s)
}

// take returns the statement line and clears the buffer
func (f *Frame) take() string {
	b := f.buf()
	s := b.String()
	b.Reset()
	return s
}

// reset drops any partially built line
func (f *Frame) reset() {
	f.bufs = f.bufs[:1]
	f.bufs[0].Reset()
}

func (it *Interp) frame() *Frame {
	return it.frames[len(it.frames)-1]
}

// pushFrame enters a frame that inherits the current input and output
func (it *Interp) pushFrame() *Frame {
	cur := it.frame()
	f := newFrame(cur.in, cur.out, it.sp)
	it.frames = append(it.frames, f)
	return f
}

// pushCapture enters a frame whose output is captured
func (it *Interp) pushCapture() *Frame {
	f := it.pushFrame()
	f.capture = textio.NewQueue()
	f.out = f.capture
	return f
}

func (it *Interp) popFrame() *Frame {
	if len(it.frames) <= 1 {
		panic(internalf("frame stack underflow"))
	}
	f := it.frame()
	it.frames[len(it.frames)-1] = nil
	it.frames = it.frames[:len(it.frames)-1]
	return f
}

// unwind pops frames down to depth
func (it *Interp) unwind(depth int) {
	for len(it.frames) > depth {
		it.popFrame()
	}
}

// pipeNext feeds the captured output of the finished stage to the next one.
// The last stage writes to the enclosing frame's output.
func (it *Interp) pipeNext(more bool) {
	f := it.frame()
	if f.capture == nil {
		panic(internalf("pipe stage without capture"))
	}
	f.in = f.capture
	if more {
		f.capture = textio.NewQueue()
		f.out = f.capture
		return
	}
	f.capture = nil
	f.out = it.frames[len(it.frames)-2].out
}
