package rv64

import (
	"log/slog"
	"sync"

	"github.com/tinyrange/clic/csr"
	"github.com/tinyrange/clic/register"
)

// Config describes a simulated machine.
type Config struct {
	// RAMSize is the size of the RAM at RAMBase, which holds the mtvt vector
	// table of selectively vectored interrupts.
	RAMSize  uint64
	CLICBase uint64
	CLIC     CLICConfig
}

// DefaultConfig returns a machine with 64 KiB of RAM and a 64 source CLIC
// with all clicintctl bits implemented.
func DefaultConfig() Config {
	return Config{
		RAMSize:  64 << 10,
		CLICBase: CLICBase,
		CLIC: CLICConfig{
			NumInterrupts: 64,
			CtlBits:       8,
		},
	}
}

// Machine is a single hart with a CLIC on its bus. All methods are safe for
// concurrent use; they are serialized by one lock, as accesses from a single
// hart would be.
type Machine struct {
	mu sync.Mutex

	CPU  *CPU
	Bus  *Bus
	CLIC *CLICDevice

	clicBase uint64
}

// NewMachine creates a machine from cfg.
func NewMachine(cfg Config) *Machine {
	bus := NewBus(cfg.RAMSize)
	cpu := NewCPU(0)
	clic := NewCLIC(cpu, cfg.CLIC)

	// Add devices to bus
	bus.AddDevice(cfg.CLICBase, clic)

	return &Machine{
		CPU:      cpu,
		Bus:      bus,
		CLIC:     clic,
		clicBase: cfg.CLICBase,
	}
}

// CLICBase returns the address the CLIC is mapped at.
func (m *Machine) CLICBase() uint64 { return m.clicBase }

// Reset resets the hart and the CLIC. RAM is left untouched.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CPU.Reset()
	m.CLIC.Reset()
}

// Memory returns the machine's physical address space.
func (m *Machine) Memory() register.Memory { return lockedMemory{m} }

// Hart returns the CSR file of the hart.
func (m *Machine) Hart() csr.File { return lockedHart{m} }

// SetLine drives the input wire of interrupt id.
func (m *Machine) SetLine(id uint16, high bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CLIC.SetLine(id, high)
}

// CheckInterrupt reports the interrupt the hart would take now, if any.
func (m *Machine) CheckInterrupt() (uint16, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.checkInterrupt()
}

func (m *Machine) checkInterrupt() (uint16, bool) {
	if m.CPU.Mstatus&MstatusMIE == 0 || m.CPU.Mip&MipMEIP == 0 {
		return 0, false
	}
	id, _, ok := m.CLIC.pending()
	return id, ok
}

// TakeInterrupt performs the trap into the handler of the interrupt
// CheckInterrupt reports. It saves the interrupted context in mepc and
// mcause, masks interrupts and raises mintstatus.mil to the interrupt's
// level.
func (m *Machine) TakeInterrupt() (uint16, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.checkInterrupt()
	if !ok {
		return 0, false
	}
	_, level, _ := m.CLIC.pending()
	cpu := m.CPU

	mpil := (cpu.Mintstatus >> MintstatusMILShift) & 0xff
	cause := McauseInterrupt | uint64(id)&McauseExccodeMax | mpil<<McauseMPILShift |
		uint64(cpu.Priv)<<McauseMPPShift
	if cpu.Mstatus&MstatusMIE != 0 {
		cause |= McauseMPIE
	}

	cpu.Mepc = cpu.PC
	cpu.Mcause = cause
	cpu.Mstatus &^= MstatusMIE | MstatusMPP
	cpu.Mstatus |= MstatusMPIE | uint64(cpu.Priv)<<MstatusMPPShift
	cpu.Mintstatus = cpu.Mintstatus&^(0xff<<MintstatusMILShift) | uint64(level)<<MintstatusMILShift
	cpu.Priv = PrivMachine
	cpu.PC = cpu.Mtvec &^ csr.MtvecModeMask

	m.CLIC.acknowledge(id)
	if m.CLIC.attr[id]&AttrSHV != 0 {
		m.vector(id)
	}
	slog.Debug("rv64: interrupt taken", "id", id, "level", level, "mcause", cause, "pc", cpu.PC)
	return id, true
}

// VectorEntrySize is the size of an mtvt entry.
const VectorEntrySize = 8

// vector fetches the handler of a selectively vectored interrupt from the
// table at mtvt. A failed fetch is reported as an instruction access fault
// with mcause.minhv set and mepc holding the entry address, and the hart
// continues at the common handler.
func (m *Machine) vector(id uint16) {
	cpu := m.CPU
	entry := cpu.Mtvt + VectorEntrySize*uint64(id)
	handler, err := m.Bus.Read(entry, VectorEntrySize)
	if err != nil {
		slog.Debug("rv64: vector table fetch failed", "id", id, "entry", entry, "err", err)
		cpu.Mcause = cpu.Mcause&^(McauseInterrupt|McauseExccodeMax) | McauseMINHV | CauseInsnAccessFault
		cpu.Mepc = entry
		return
	}
	cpu.PC = handler &^ 1
}

// Return performs mret: the previous interrupt level, privilege and
// interrupt enable are restored from mcause and mstatus.
func (m *Machine) Return() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cpu := m.CPU
	mpil := (cpu.Mcause >> McauseMPILShift) & 0xff
	cpu.Mintstatus = cpu.Mintstatus&^(0xff<<MintstatusMILShift) | mpil<<MintstatusMILShift

	cpu.Priv = uint8((cpu.Mstatus & MstatusMPP) >> MstatusMPPShift)
	if cpu.Mstatus&MstatusMPIE != 0 {
		cpu.Mstatus |= MstatusMIE
	} else {
		cpu.Mstatus &^= MstatusMIE
	}
	cpu.Mstatus |= MstatusMPIE
	cpu.Mstatus &^= MstatusMPP
	cpu.PC = cpu.Mepc

	m.CLIC.update()
}

type lockedMemory struct{ m *Machine }

func (l lockedMemory) Load(addr uintptr, size int) uint64 {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return l.m.Bus.Load(addr, size)
}

func (l lockedMemory) Store(addr uintptr, size int, value uint64) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	l.m.Bus.Store(addr, size, value)
}

type lockedHart struct{ m *Machine }

func (l lockedHart) Read(n uint16) uint64 {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return Hart{l.m.CPU}.Read(n)
}

func (l lockedHart) Write(n uint16, value uint64) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	Hart{l.m.CPU}.Write(n, value)
}

func (l lockedHart) Set(n uint16, mask uint64) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	Hart{l.m.CPU}.Set(n, mask)
}

func (l lockedHart) Clear(n uint16, mask uint64) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	Hart{l.m.CPU}.Clear(n, mask)
}
