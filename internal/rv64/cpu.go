// Package rv64 simulates the machine-mode interrupt path of an RV64 hart
// with a CLIC: the hart's CSR file, a memory bus and the CLIC register
// window. It runs no instructions; it exists so the CLIC access layer can be
// exercised against the controller's real register semantics.
package rv64

import (
	"fmt"

	"github.com/tinyrange/clic/csr"
)

// Memory layout constants
const (
	RAMBase  uint64 = 0x8000_0000
	CLICBase uint64 = 0x0280_0000 // SiFive-style CLIC location
)

// Privilege levels
const (
	PrivUser       uint8 = 0
	PrivSupervisor uint8 = 1
	PrivMachine    uint8 = 3
)

// mstatus bits
const (
	MstatusMIE             = csr.MstatusMIE
	MstatusMPIE            = csr.MstatusMPIE
	MstatusMPP      uint64 = 3 << 11
	MstatusMPPShift        = 11
)

// mip/mie bits
const (
	MipMEIP uint64 = 1 << 11 // Machine external interrupt pending
)

// CLIC-mode mcause fields
const (
	McauseInterrupt  uint64 = 1 << 63
	McauseMINHV      uint64 = 1 << 30 // vector table fetch in progress
	McauseMPIE       uint64 = 1 << 27
	McauseMPPShift          = 28
	McauseMPILShift         = 16
	McauseExccodeMax uint64 = 0xfff
)

// mintstatus fields
const (
	MintstatusMILShift = 24
)

// Exception causes
const (
	CauseInsnAccessFault uint64 = 1
	CauseIllegalInsn     uint64 = 2
)

// CPU holds the machine-mode CSR state of a hart that matters to the CLIC.
type CPU struct {
	// Current privilege level
	Priv uint8

	Mstatus    uint64
	Mie        uint64
	Mip        uint64
	Mtvec      uint64
	Mtvt       uint64
	Mscratch   uint64
	Mepc       uint64
	Mcause     uint64
	Mhartid    uint64
	Mintthresh uint64
	Mintstatus uint64

	// PC stands in for the interrupted program counter saved to mepc.
	PC uint64

	// irq re-evaluates the interrupt line after CSR writes that can change
	// which interrupt is taken.
	irq interface{ update() }
}

// NewCPU creates a hart in machine mode with interrupts masked.
func NewCPU(hartid uint64) *CPU {
	return &CPU{
		Priv:    PrivMachine,
		Mhartid: hartid,
		Mtvec:   csr.MtvecModeCLIC,
		PC:      RAMBase,
	}
}

// Reset resets the hart to its initial state.
func (cpu *CPU) Reset() {
	hartid, irq := cpu.Mhartid, cpu.irq
	*cpu = *NewCPU(hartid)
	cpu.irq = irq
}

// ExceptionError represents a CPU exception
type ExceptionError struct {
	Cause uint64
	Tval  uint64
}

func (e ExceptionError) Error() string {
	return fmt.Sprintf("exception: cause=%d tval=0x%x", e.Cause, e.Tval)
}

// Exception creates an exception with the given cause and tval
func Exception(cause uint64, tval uint64) error {
	return ExceptionError{Cause: cause, Tval: tval}
}
