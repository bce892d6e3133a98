package register

import (
	"encoding/binary"
	"sync/atomic"
)

// Window is a little-endian, byte-slice backed Memory covering
// [Origin, Origin+Size). It stands in for a peripheral's register window in
// simulations and tests.
//
// Accesses falling outside the window are dropped; loads return zero. Each
// dropped access is counted and reported by Faults.
type Window struct {
	origin uintptr
	data   []byte
	faults atomic.Uint64
}

// NewWindow returns a zeroed window of size bytes starting at origin.
func NewWindow(origin uintptr, size int) *Window {
	return &Window{origin: origin, data: make([]byte, size)}
}

func (w *Window) Origin() uintptr { return w.origin }

func (w *Window) Size() int { return len(w.data) }

// Bytes exposes the backing store. Offsets are relative to Origin.
func (w *Window) Bytes() []byte { return w.data }

// Faults returns the number of accesses that fell outside the window.
func (w *Window) Faults() uint64 { return w.faults.Load() }

func (w *Window) slice(addr uintptr, size int) []byte {
	if addr < w.origin {
		return nil
	}
	off := addr - w.origin
	if off > uintptr(len(w.data)) || uintptr(len(w.data))-off < uintptr(size) {
		return nil
	}
	return w.data[off : off+uintptr(size)]
}

func (w *Window) Load(addr uintptr, size int) uint64 {
	b := w.slice(addr, size)
	if b == nil {
		w.faults.Add(1)
		return 0
	}
	switch size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	}
	w.faults.Add(1)
	return 0
}

func (w *Window) Store(addr uintptr, size int, value uint64) {
	b := w.slice(addr, size)
	if b == nil {
		w.faults.Add(1)
		return
	}
	switch size {
	case 1:
		b[0] = uint8(value)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(value))
	case 8:
		binary.LittleEndian.PutUint64(b, value)
	default:
		w.faults.Add(1)
	}
}

var _ Memory = (*Window)(nil)
