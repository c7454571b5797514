package main

import (
	"testing"

	"github.com/nalgeon/be"
)

// =============================================================================
// STATIC MEMORY
// =============================================================================

func TestAddString(t *testing.T) {
	w := NewWasmContext()

	offset, length := w.AddString("abc")
	be.Equal(t, offset, 0)
	be.Equal(t, length, 4)

	offset, length = w.AddString("de")
	be.Equal(t, offset, 4)
	be.Equal(t, length, 3)

	be.Equal(t, len(w.Memory()), 7)
	be.Equal(t, w.Memory(), []byte("abc\x00de\x00"))
}

func TestAddEmptyString(t *testing.T) {
	w := NewWasmContext()
	offset, length := w.AddString("")
	be.Equal(t, offset, 0)
	be.Equal(t, length, 1)
	be.Equal(t, w.Memory(), []byte{0})
}

func TestAddUint32(t *testing.T) {
	w := NewWasmContext()
	w.AddString("x")

	offset, length := w.AddUint32(0x04030201)
	be.Equal(t, offset, 2)
	be.Equal(t, length, 4)
	be.Equal(t, w.Memory(), []byte{'x', 0, 1, 2, 3, 4})
}

// =============================================================================
// FRAMES
// =============================================================================

func TestPushPopOrdersLocalsBeforeBody(t *testing.T) {
	w := NewWasmContext()
	w.Line(0, "(func $f")
	w.Push()
	w.Line(0, "(local.set $x (i64.const 1))")
	w.Local("x")
	w.Local("y")
	be.Equal(t, w.Depth(), 2)
	be.Err(t, w.Pop(), nil)
	w.Line(0, ")")

	be.Equal(t, w.Depth(), 1)
	be.Equal(t, w.Body().String(), `(func $f
    (local $x i64)
    (local $y i64)
  (local.set $x (i64.const 1))
)
`)
}

func TestNestedFrames(t *testing.T) {
	w := NewWasmContext()
	w.Push()
	w.Line(0, "outer")
	w.Push()
	w.Line(0, "inner")
	w.Local("i")
	be.Err(t, w.Pop(), nil)
	w.Local("o")
	be.Err(t, w.Pop(), nil)

	be.Equal(t, w.Body().String(), "    (local $o i64)\n  outer\n      (local $i i64)\n    inner\n")
}

func TestPopOutermostFrame(t *testing.T) {
	w := NewWasmContext()
	w.Line(0, "kept")
	be.Err(t, w.Pop(), errPopOutermost)
	be.Equal(t, w.Depth(), 1)
	be.Equal(t, w.Body().String(), "kept\n")
}

func TestLineIndentation(t *testing.T) {
	w := NewWasmContext()
	w.Line(2, "(i64.const %d)", 7)
	be.Equal(t, w.Body().String(), "    (i64.const 7)\n")
	be.Equal(t, w.Locals().Len(), 0)
}

func TestNextLabel(t *testing.T) {
	w := NewWasmContext()
	be.Equal(t, w.NextLabel(), 0)
	w.Push()
	be.Equal(t, w.NextLabel(), 1)
	be.Err(t, w.Pop(), nil)
	be.Equal(t, w.NextLabel(), 2)
}
