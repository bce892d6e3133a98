package rv64

import (
	"testing"

	"github.com/tinyrange/clic"
	"github.com/tinyrange/clic/csr"
)

type source uint16

const (
	uart source = iota + 1
	timer
	gpio
	spi source = 63
)

var sources = clic.MustInterruptTable(63, uart, timer, gpio, spi)

func (s source) Number() uint16                    { return uint16(s) }
func (source) MaxInterruptNumber() uint16          { return sources.Max() }
func (source) FromNumber(n uint16) (source, error) { return sources.FromNumber(n) }

type level uint8

func (l level) Number() uint8                   { return uint8(l) }
func (level) MaxPriorityNumber() uint8          { return 255 }
func (level) FromNumber(n uint8) (level, error) { return level(n), nil }

type simCLIC struct{}

func (simCLIC) Base() uintptr { return uintptr(CLICBase) }

func newTestMachine(t *testing.T) (*Machine, clic.CLIC[simCLIC]) {
	t.Helper()
	m := NewMachine(DefaultConfig())
	return m, clic.New[simCLIC](m.Memory(), m.Hart())
}

func TestMachineControlWordLayout(t *testing.T) {
	m, c := newTestMachine(t)
	irqs := c.Interrupts()

	irqs.Enable(gpio)
	irqs.SetPriority(gpio, level(0x5a))
	irqs.Pend(gpio)

	if got := m.CLIC.ie[gpio]; got != 1 {
		t.Fatalf("clicintie[%d] = %d, want 1", gpio, got)
	}
	if got := m.CLIC.ctl[gpio]; got != 0x5a {
		t.Fatalf("clicintctl[%d] = 0x%x, want 0x5a", gpio, got)
	}
	if got := m.CLIC.ip[gpio]; got != 1 {
		t.Fatalf("clicintip[%d] = %d, want 1", gpio, got)
	}
	for _, s := range []source{uart, timer, spi} {
		if m.CLIC.ie[s] != 0 || m.CLIC.ip[s] != 0 || m.CLIC.ctl[s] != 0 {
			t.Fatalf("source %d touched by accesses to %d", s, gpio)
		}
	}

	word, err := m.Bus.Read32(CLICBase + CLICIntBase + 4*uint64(gpio))
	if err != nil {
		t.Fatalf("read control word: %v", err)
	}
	if want := uint32(0x5a_c0_01_01); word != want {
		t.Fatalf("control word = 0x%08x, want 0x%08x", word, want)
	}

	// The last implemented source is still inside the window.
	irqs.Enable(spi)
	if !irqs.IsEnabled(spi) {
		t.Fatalf("source %d not enabled", spi)
	}
	if f := m.Bus.Faults(); f != 0 {
		t.Fatalf("bus faults = %d, want 0", f)
	}
}

func TestMachineGlobalEnable(t *testing.T) {
	m, c := newTestMachine(t)
	irqs := c.Interrupts()

	irqs.SetPriority(uart, level(0x40))
	irqs.Enable(uart)
	irqs.Pend(uart)

	if _, ok := m.CheckInterrupt(); ok {
		t.Fatalf("interrupt delivered with mstatus.MIE clear")
	}
	if c.IsEnabled() {
		t.Fatalf("IsEnabled() = true after reset")
	}

	c.Enable()
	if !c.IsEnabled() {
		t.Fatalf("IsEnabled() = false after Enable")
	}
	if id, ok := m.CheckInterrupt(); !ok || id != uint16(uart) {
		t.Fatalf("CheckInterrupt() = %d, %v; want %d, true", id, ok, uart)
	}

	c.Disable()
	if _, ok := m.CheckInterrupt(); ok {
		t.Fatalf("interrupt delivered after Disable")
	}
	// The global gate leaves per-source state alone.
	if !irqs.IsEnabled(uart) || !irqs.IsPending(uart) {
		t.Fatalf("Disable changed per-source state")
	}
}

func TestMachineThreshold(t *testing.T) {
	m, c := newTestMachine(t)
	irqs := c.Interrupts()

	irqs.SetPriority(timer, level(0x80))
	irqs.Enable(timer)
	irqs.Pend(timer)
	c.Enable()

	for _, tt := range []struct {
		threshold uint
		taken     bool
	}{
		{0x00, true},
		{0x7f, true},
		{0x80, false},
		{0xff, false},
	} {
		c.SetThreshold(tt.threshold)
		if got := c.Threshold(); got != tt.threshold {
			t.Fatalf("Threshold() = 0x%x, want 0x%x", got, tt.threshold)
		}
		if _, ok := m.CheckInterrupt(); ok != tt.taken {
			t.Errorf("threshold 0x%x: interrupt taken = %v, want %v", tt.threshold, ok, tt.taken)
		}
	}
}

func TestMachineThresholdRoundTrip(t *testing.T) {
	m, c := newTestMachine(t)
	for v := uint(0); v <= 255; v++ {
		c.SetThreshold(v)
		if got := c.Threshold(); got != v {
			t.Fatalf("Threshold() = %d after SetThreshold(%d)", got, v)
		}
	}
	if got := m.CPU.Mintthresh; got != 255 {
		t.Fatalf("mintthresh = %d, want 255", got)
	}
}

func TestMachinePreemption(t *testing.T) {
	m, c := newTestMachine(t)
	irqs := c.Interrupts()

	irqs.SetPriority(uart, level(0x40))
	irqs.SetPriority(gpio, level(0xc0))
	irqs.Enable(uart)
	irqs.Enable(gpio)
	m.Hart().Write(csr.Mepc, 0)
	c.Enable()

	irqs.Pend(uart)
	if id, ok := m.TakeInterrupt(); !ok || id != uint16(uart) {
		t.Fatalf("TakeInterrupt() = %d, %v; want %d, true", id, ok, uart)
	}
	if c.IsEnabled() {
		t.Fatalf("mstatus.MIE still set inside the handler")
	}
	if mil := m.CPU.Mintstatus >> MintstatusMILShift; mil != 0x40 {
		t.Fatalf("mintstatus.mil = 0x%x, want 0x40", mil)
	}
	if m.CPU.Mcause&McauseInterrupt == 0 || m.CPU.Mcause&McauseExccodeMax != uint64(uart) {
		t.Fatalf("mcause = 0x%x", m.CPU.Mcause)
	}

	// Re-enabling inside the handler allows only higher levels through.
	c.Enable()
	irqs.Unpend(uart)
	irqs.SetPriority(timer, level(0x40))
	irqs.Enable(timer)
	irqs.Pend(timer)
	if _, ok := m.CheckInterrupt(); ok {
		t.Fatalf("same-level interrupt preempted the handler")
	}

	irqs.Pend(gpio)
	if id, ok := m.TakeInterrupt(); !ok || id != uint16(gpio) {
		t.Fatalf("TakeInterrupt() = %d, %v; want %d, true", id, ok, gpio)
	}
	if mpil := (m.CPU.Mcause >> McauseMPILShift) & 0xff; mpil != 0x40 {
		t.Fatalf("mcause.mpil = 0x%x, want 0x40", mpil)
	}

	irqs.Unpend(gpio)
	m.Return()
	if mil := m.CPU.Mintstatus >> MintstatusMILShift; mil != 0x40 {
		t.Fatalf("mintstatus.mil after mret = 0x%x, want 0x40", mil)
	}
	if !c.IsEnabled() {
		t.Fatalf("mstatus.MIE not restored by mret")
	}
}

func TestMachineSelectiveVectoring(t *testing.T) {
	m, c := newTestMachine(t)
	irqs := c.Interrupts()

	const table = RAMBase + 0x40
	const handler = RAMBase + 0x1000
	m.Hart().Write(csr.Mtvec, RAMBase+0x200|csr.MtvecModeCLIC)
	m.Hart().Write(csr.Mtvt, table)
	if err := m.Bus.Write(table+VectorEntrySize*uint64(gpio), VectorEntrySize, handler|1); err != nil {
		t.Fatalf("write vector entry: %v", err)
	}
	m.Memory().Store(irqs.LaneAddress(gpio, clic.LaneAttribute), 1, uint64(AttrSHV))

	irqs.SetPriority(gpio, level(0x80))
	irqs.SetPriority(uart, level(0x80))
	irqs.Enable(gpio)
	irqs.Enable(uart)
	c.Enable()

	irqs.Pend(gpio)
	if id, ok := m.TakeInterrupt(); !ok || id != uint16(gpio) {
		t.Fatalf("TakeInterrupt() = %d, %v; want %d, true", id, ok, gpio)
	}
	if m.CPU.PC != handler {
		t.Fatalf("pc = 0x%x, want vectored handler 0x%x", m.CPU.PC, handler)
	}
	irqs.Unpend(gpio)
	m.Return()

	irqs.Pend(uart)
	if id, ok := m.TakeInterrupt(); !ok || id != uint16(uart) {
		t.Fatalf("TakeInterrupt() = %d, %v; want %d, true", id, ok, uart)
	}
	if m.CPU.PC != RAMBase+0x200 {
		t.Fatalf("pc = 0x%x, want common handler 0x%x", m.CPU.PC, RAMBase+0x200)
	}
}

func TestMachineVectorFetchFault(t *testing.T) {
	m, c := newTestMachine(t)
	irqs := c.Interrupts()

	// Nothing is mapped below RAM.
	const table = 0x4000_0000
	m.Hart().Write(csr.Mtvec, RAMBase+0x200|csr.MtvecModeCLIC)
	m.Hart().Write(csr.Mtvt, table)
	m.Memory().Store(irqs.LaneAddress(timer, clic.LaneAttribute), 1, uint64(AttrSHV))

	irqs.SetPriority(timer, level(0x80))
	irqs.Enable(timer)
	c.Enable()
	irqs.Pend(timer)

	if _, ok := m.TakeInterrupt(); !ok {
		t.Fatalf("interrupt not taken")
	}
	if want := McauseMINHV | CauseInsnAccessFault; m.CPU.Mcause&(McauseInterrupt|McauseMINHV|McauseExccodeMax) != want {
		t.Fatalf("mcause = 0x%x, want minhv and exccode %d", m.CPU.Mcause, CauseInsnAccessFault)
	}
	if want := uint64(table + VectorEntrySize*uint64(timer)); m.CPU.Mepc != want {
		t.Fatalf("mepc = 0x%x, want entry address 0x%x", m.CPU.Mepc, want)
	}
	if m.CPU.PC != RAMBase+0x200 {
		t.Fatalf("pc = 0x%x, want common handler", m.CPU.PC)
	}
}

func TestMachineLines(t *testing.T) {
	m, c := newTestMachine(t)
	irqs := c.Interrupts()

	irqs.SetPriority(spi, level(0x10))
	irqs.Enable(spi)
	c.Enable()

	m.SetLine(uint16(spi), true)
	if !irqs.IsPending(spi) {
		t.Fatalf("level-triggered source not pending with its line high")
	}
	if id, ok := m.TakeInterrupt(); !ok || id != uint16(spi) {
		t.Fatalf("TakeInterrupt() = %d, %v; want %d, true", id, ok, spi)
	}
	// Level-triggered sources stay pending until the device drops the line.
	if !irqs.IsPending(spi) {
		t.Fatalf("level-triggered source cleared by the trap")
	}
	m.SetLine(uint16(spi), false)
	if irqs.IsPending(spi) {
		t.Fatalf("source pending after its line dropped")
	}
}

func TestMachineReset(t *testing.T) {
	m, c := newTestMachine(t)
	irqs := c.Interrupts()

	irqs.Enable(uart)
	irqs.SetPriority(uart, level(7))
	c.SetThreshold(3)
	c.Enable()

	m.Reset()
	if irqs.IsEnabled(uart) || c.IsEnabled() || c.Threshold() != 0 {
		t.Fatalf("state survived reset")
	}
	if got := irqs.Priority(uart); got != 0 {
		t.Fatalf("Priority() = %d after reset, want 0", got)
	}
}
