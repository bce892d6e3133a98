package register

import "testing"

func TestWindowWidths(t *testing.T) {
	w := NewWindow(0x1000, 16)

	w.Store(0x1000, 8, 0x0807060504030201)
	for i, want := range []byte{1, 2, 3, 4, 5, 6, 7, 8} {
		if got := w.Bytes()[i]; got != want {
			t.Fatalf("byte %d = %d, want %d", i, got, want)
		}
	}
	if got := w.Load(0x1000, 4); got != 0x04030201 {
		t.Fatalf("word = 0x%x, want 0x04030201", got)
	}
	if got := w.Load(0x1002, 2); got != 0x0403 {
		t.Fatalf("half = 0x%x, want 0x0403", got)
	}
	if got := w.Load(0x1007, 1); got != 0x08 {
		t.Fatalf("byte = 0x%x, want 0x08", got)
	}
	if w.Faults() != 0 {
		t.Fatalf("unexpected faults: %d", w.Faults())
	}
}

func TestWindowDropsOutOfRange(t *testing.T) {
	w := NewWindow(0x1000, 8)

	w.Store(0x0fff, 1, 0xff)
	w.Store(0x1006, 4, 0xffffffff)
	if got := w.Load(0x1008, 1); got != 0 {
		t.Fatalf("load past end = %d, want 0", got)
	}
	if got := w.Faults(); got != 3 {
		t.Fatalf("faults = %d, want 3", got)
	}
	for i, b := range w.Bytes() {
		if b != 0 {
			t.Fatalf("byte %d modified by dropped store: 0x%x", i, b)
		}
	}
}

func TestTypedRegisters(t *testing.T) {
	w := NewWindow(0, 8)

	rw := NewRW[uint16](w, 2)
	rw.Write(0xbeef)
	if got := rw.Read(); got != 0xbeef {
		t.Fatalf("RW read = 0x%x, want 0xbeef", got)
	}
	rw.Modify(func(v uint16) uint16 { return v &^ 0x00ff })
	if got := rw.Read(); got != 0xbe00 {
		t.Fatalf("after modify = 0x%x, want 0xbe00", got)
	}

	wo := NewWO[uint8](w, 4)
	wo.Write(0x5a)
	ro := NewRO[uint8](w, 4)
	if got := ro.Read(); got != 0x5a {
		t.Fatalf("RO read = 0x%x, want 0x5a", got)
	}

	if rw.Access() != ReadWrite || ro.Access() != ReadOnly || wo.Access() != WriteOnly {
		t.Fatalf("unexpected access modes %v %v %v", rw.Access(), ro.Access(), wo.Access())
	}
	if rw.Address() != 2 || ro.Address() != 4 {
		t.Fatalf("unexpected addresses %d %d", rw.Address(), ro.Address())
	}
}

func TestAccessString(t *testing.T) {
	if got := Access(9).String(); got != "Access(9)" {
		t.Fatalf("String() = %q", got)
	}
}

func TestOffset(t *testing.T) {
	w := NewWindow(0x2800_0000, 0x10)
	mem := Offset{Memory: w, Delta: 0x2800_0000}

	NewRW[uint16](mem, 4).Write(0xbeef)
	if got := w.Load(0x2800_0004, 2); got != 0xbeef {
		t.Fatalf("relocated store landed elsewhere: 0x%x", got)
	}
	if got := NewRO[uint8](mem, 5).Read(); got != 0xbe {
		t.Fatalf("relocated load = 0x%x, want 0xbe", got)
	}
	mem.Load(0x10, 1)
	if w.Faults() != 1 {
		t.Fatalf("access past the relocated window not dropped")
	}
}
