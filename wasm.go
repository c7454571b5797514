package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var errPopOutermost = errors.New("cannot pop the outermost frame")

// wasmFrame is one instruction-stream region: locals are emitted ahead of
// the body when the frame is popped.
type wasmFrame struct {
	locals bytes.Buffer
	body   bytes.Buffer
	indent int
}

// WasmContext owns the static-memory arena and the stack of instruction
// frames used while generating WAT.
type WasmContext struct {
	memory []byte
	frames []*wasmFrame
	labels int
}

func NewWasmContext() *WasmContext {
	return &WasmContext{frames: []*wasmFrame{{}}}
}

// AddString appends s plus a NUL terminator to the arena and returns its
// offset and the stored length.
func (w *WasmContext) AddString(s string) (offset, length int) {
	offset = len(w.memory)
	w.memory = append(w.memory, s...)
	w.memory = append(w.memory, 0)
	return offset, len(s) + 1
}

// AddUint32 appends v in little-endian order.
func (w *WasmContext) AddUint32(v uint32) (offset, length int) {
	offset = len(w.memory)
	w.memory = binary.LittleEndian.AppendUint32(w.memory, v)
	return offset, 4
}

// Memory returns the arena contents.
func (w *WasmContext) Memory() []byte {
	return w.memory
}

func (w *WasmContext) top() *wasmFrame {
	return w.frames[len(w.frames)-1]
}

func (w *WasmContext) Body() *bytes.Buffer {
	return &w.top().body
}

func (w *WasmContext) Locals() *bytes.Buffer {
	return &w.top().locals
}

// Depth returns the number of open frames.
func (w *WasmContext) Depth() int {
	return len(w.frames)
}

// Push opens a nested frame one indentation level deeper.
func (w *WasmContext) Push() {
	w.frames = append(w.frames, &wasmFrame{indent: w.top().indent + 1})
}

// Pop appends the top frame's locals then body to its parent's body.
func (w *WasmContext) Pop() error {
	if len(w.frames) == 1 {
		return errPopOutermost
	}
	child := w.top()
	w.frames = w.frames[:len(w.frames)-1]
	parent := w.top()
	parent.body.Write(child.locals.Bytes())
	parent.body.Write(child.body.Bytes())
	return nil
}

// NextLabel returns a fresh label number.
func (w *WasmContext) NextLabel() int {
	n := w.labels
	w.labels++
	return n
}

// Line writes one indented line into the current body. extra adds to the
// frame's indentation.
func (w *WasmContext) Line(extra int, format string, args ...any) {
	f := w.top()
	f.body.WriteString(strings.Repeat("  ", f.indent+extra))
	fmt.Fprintf(&f.body, format, args...)
	f.body.WriteByte('\n')
}

// Local declares an i64 local in the current frame, one level deeper than
// the frame itself.
func (w *WasmContext) Local(name string) {
	f := w.top()
	f.locals.WriteString(strings.Repeat("  ", f.indent+1))
	fmt.Fprintf(&f.locals, "(local $%s i64)\n", name)
}
