package clic

import (
	"bytes"
	"testing"

	"github.com/tinyrange/clic/register"
)

// newTestInterrupts returns a control word array at address 0 backed by a
// window large enough for every test interrupt plus one spare word.
func newTestInterrupts() (Interrupts, *register.Window) {
	win := register.NewWindow(0, ControlWordSize*(int(testInterrupts.Max())+2))
	return newInterrupts(win, 0), win
}

func TestLaneAddress(t *testing.T) {
	irqs := newInterrupts(register.Direct{}, 0x2000)
	tests := []struct {
		source testInterrupt
		lane   Lane
		want   uintptr
	}{
		{i1, LanePending, 0x2004},
		{i1, LaneEnable, 0x2005},
		{i1, LaneAttribute, 0x2006},
		{i1, LanePriority, 0x2007},
		{i4, LanePending, 0x2010},
		{i4, LanePriority, 0x2013},
	}
	for _, tt := range tests {
		if got := irqs.LaneAddress(tt.source, tt.lane); got != tt.want {
			t.Errorf("LaneAddress(%d, %v) = 0x%x, want 0x%x", tt.source, tt.lane, got, tt.want)
		}
	}
}

func TestEnable(t *testing.T) {
	irqs, win := newTestInterrupts()

	irqs.Enable(i1)
	irqs.Enable(i2)
	irqs.Enable(i3)
	irqs.Enable(i4)
	irqs.Disable(i2)
	irqs.Disable(i4)

	if !irqs.IsEnabled(i1) {
		t.Errorf("i1 not enabled")
	}
	if irqs.IsEnabled(i2) {
		t.Errorf("i2 enabled")
	}
	if !irqs.IsEnabled(i3) {
		t.Errorf("i3 not enabled")
	}
	if irqs.IsEnabled(i4) {
		t.Errorf("i4 enabled")
	}
	if win.Faults() != 0 {
		t.Fatalf("accesses outside the window: %d", win.Faults())
	}
}

func TestPriorities(t *testing.T) {
	irqs, _ := newTestInterrupts()

	irqs.SetPriority(i1, p0)
	irqs.SetPriority(i2, p1)
	irqs.SetPriority(i3, p2)
	irqs.SetPriority(i4, p3)

	for _, tt := range []struct {
		source testInterrupt
		want   uint8
	}{{i1, 0}, {i2, 1}, {i3, 2}, {i4, 3}} {
		if got := irqs.Priority(tt.source); got != tt.want {
			t.Errorf("Priority(%d) = %d, want %d", tt.source, got, tt.want)
		}
	}
}

func TestPriorityRoundTrip(t *testing.T) {
	irqs, _ := newTestInterrupts()
	for _, src := range testInterrupts.Sources() {
		for _, lvl := range testPriorities.Levels() {
			irqs.SetPriority(src, lvl)
			if got := irqs.Priority(src); got != lvl.Number() {
				t.Fatalf("Priority(%d) = %d after SetPriority(%d)", src, got, lvl)
			}
		}
	}
}

func TestPending(t *testing.T) {
	irqs, _ := newTestInterrupts()

	irqs.Pend(i1)
	irqs.Pend(i2)
	irqs.Pend(i3)
	irqs.Pend(i4)
	irqs.Unpend(i2)
	irqs.Unpend(i4)

	if !irqs.IsPending(i1) {
		t.Errorf("i1 not pending")
	}
	if irqs.IsPending(i2) {
		t.Errorf("i2 pending")
	}
	if !irqs.IsPending(i3) {
		t.Errorf("i3 not pending")
	}
	if irqs.IsPending(i4) {
		t.Errorf("i4 pending")
	}
}

func TestLaneIndependence(t *testing.T) {
	ops := []struct {
		name string
		lane Lane
		do   func(Interrupts, testInterrupt)
	}{
		{"Enable", LaneEnable, func(r Interrupts, s testInterrupt) { r.Enable(s) }},
		{"Pend", LanePending, func(r Interrupts, s testInterrupt) { r.Pend(s) }},
		{"SetPriority", LanePriority, func(r Interrupts, s testInterrupt) { r.SetPriority(s, p3) }},
	}

	for _, op := range ops {
		for _, src := range testInterrupts.Sources() {
			irqs, win := newTestInterrupts()
			// Fill with a pattern so that a stray zero write shows up too.
			for i := range win.Bytes() {
				win.Bytes()[i] = 0xa5
			}
			before := bytes.Clone(win.Bytes())

			op.do(irqs, src)

			touched := int(irqs.LaneAddress(src, op.lane))
			for i, b := range win.Bytes() {
				if i == touched {
					continue
				}
				if b != before[i] {
					t.Fatalf("%s(%d) changed byte %d (source %d, %v lane) from 0x%x to 0x%x",
						op.name, src, i, i/ControlWordSize, Lane(i%ControlWordSize), before[i], b)
				}
			}
		}
	}
}

func TestIdempotence(t *testing.T) {
	ops := []struct {
		name string
		do   func(Interrupts)
	}{
		{"Enable", func(r Interrupts) { r.Enable(i2) }},
		{"Disable", func(r Interrupts) { r.Disable(i2) }},
		{"Pend", func(r Interrupts) { r.Pend(i2) }},
		{"Unpend", func(r Interrupts) { r.Unpend(i2) }},
	}
	for _, op := range ops {
		once, winOnce := newTestInterrupts()
		twice, winTwice := newTestInterrupts()

		op.do(once)
		op.do(twice)
		op.do(twice)

		if !bytes.Equal(winOnce.Bytes(), winTwice.Bytes()) {
			t.Errorf("%s twice differs from once: %x vs %x", op.name, winTwice.Bytes(), winOnce.Bytes())
		}
	}
}

func TestStrictFlagEncoding(t *testing.T) {
	irqs, win := newTestInterrupts()

	// Only 1 reads as set; other non-zero encodings do not.
	win.Bytes()[irqs.LaneAddress(i3, LaneEnable)] = 0x81
	win.Bytes()[irqs.LaneAddress(i3, LanePending)] = 0x02
	if irqs.IsEnabled(i3) {
		t.Errorf("IsEnabled with lane value 0x81 = true")
	}
	if irqs.IsPending(i3) {
		t.Errorf("IsPending with lane value 0x02 = true")
	}
}

func TestRawPriorityOutsideContract(t *testing.T) {
	irqs, win := newTestInterrupts()
	win.Bytes()[irqs.LaneAddress(i1, LanePriority)] = 0xff

	got := irqs.Priority(i1)
	if got != 0xff {
		t.Fatalf("Priority = 0x%x, want raw 0xff", got)
	}
	if _, err := testPriorities.FromNumber(got); err == nil {
		t.Fatalf("0xff accepted as a test priority")
	}
}

func TestInterruptsComparable(t *testing.T) {
	win := register.NewWindow(0, 16)
	if newInterrupts(win, 0x10) != newInterrupts(win, 0x10) {
		t.Fatalf("equal blocks compare unequal")
	}
	if newInterrupts(win, 0x10) == newInterrupts(win, 0x14) {
		t.Fatalf("different blocks compare equal")
	}
}
