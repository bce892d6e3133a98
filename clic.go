// Package clic provides typed access to the RISC-V Core-Local Interrupt
// Controller (CLIC).
//
// A platform describes its CLIC with three pieces of data: an enumeration of
// interrupt sources (InterruptNumber), an enumeration of priority levels
// (PriorityNumber) and a zero-sized binding type whose Base method returns
// the address of the controller (Peripheral). CLIC is parameterized over the
// binding, so each platform gets its own controller type:
//
//	type Binding struct{}
//
//	func (Binding) Base() uintptr { return 0x0280_0000 }
//
//	c := clic.New[Binding](register.Direct{}, hart)
//	c.Interrupts().Enable(UART0)
//
// Platform packages are usually generated by cmd/clicgen from a YAML
// description.
package clic

import (
	"github.com/tinyrange/clic/csr"
	"github.com/tinyrange/clic/register"
)

const (
	// InterruptsOffset is the offset of the control word array from the base
	// of the CLIC.
	InterruptsOffset = 0x1000

	// MaxInterrupts is the number of control words a CLIC can have.
	MaxInterrupts = 4096
)

// Peripheral binds a CLIC to a target. Implementations are zero-sized types
// whose Base method returns a constant.
//
// The binding is trusted: Base must be the address the CLIC is mapped at on
// the target, in the address space of the Memory given to New.
type Peripheral interface {
	Base() uintptr
}

// CLIC is the controller bound by P. It is a small value and may be copied.
type CLIC[P Peripheral] struct {
	mem  register.Memory
	hart csr.File
}

// New returns the CLIC of P. mem is the address space holding the register
// window and hart the CSR file of the hart the controller is local to.
func New[P Peripheral](mem register.Memory, hart csr.File) CLIC[P] {
	return CLIC[P]{mem: mem, hart: hart}
}

// Base returns the base address bound by P.
func (c CLIC[P]) Base() uintptr {
	var p P
	return p.Base()
}

// Disable clears mstatus.MIE. While it is clear no CLIC interrupt is taken,
// whatever the state of the individual sources.
func (c CLIC[P]) Disable() {
	c.hart.Clear(csr.Mstatus, csr.MstatusMIE)
}

// Enable sets mstatus.MIE.
//
// Enabling interrupts may break critical sections that expect them to be
// masked.
func (c CLIC[P]) Enable() {
	c.hart.Set(csr.Mstatus, csr.MstatusMIE)
}

// IsEnabled reports whether mstatus.MIE is set.
func (c CLIC[P]) IsEnabled() bool {
	return c.hart.Read(csr.Mstatus)&csr.MstatusMIE != 0
}

// SetThreshold writes the mintthresh CSR. Pending interrupts whose level
// does not exceed the threshold are not taken.
//
// Lowering the threshold can immediately admit an interrupt that was being
// filtered.
func (c CLIC[P]) SetThreshold(threshold uint) {
	c.hart.Write(csr.Mintthresh, uint64(threshold))
}

// Threshold returns the current value of the mintthresh CSR.
func (c CLIC[P]) Threshold() uint {
	return uint(c.hart.Read(csr.Mintthresh))
}

// Interrupts returns the per-source control registers.
func (c CLIC[P]) Interrupts() Interrupts {
	return newInterrupts(c.mem, c.Base()+InterruptsOffset)
}
