// Package csr describes access to a RISC-V hart's control and status
// registers.
//
// CSR instructions cannot be issued from portable Go, so the hart is reached
// through a File supplied by the platform: a bare-metal runtime wraps the
// csrr*/csrw* instructions, a simulator wraps its own state.
package csr

// File is the CSR file of one hart. The methods mirror the csrrw, csrrs and
// csrrc instructions with the old value discarded.
type File interface {
	// Read returns the value of CSR n (csrrs rd, n, x0).
	Read(n uint16) uint64
	// Write replaces the value of CSR n (csrrw x0, n, rs).
	Write(n uint16, value uint64)
	// Set sets the bits of mask in CSR n (csrrs x0, n, rs).
	Set(n uint16, mask uint64)
	// Clear clears the bits of mask in CSR n (csrrc x0, n, rs).
	Clear(n uint16, mask uint64)
}

// Machine-mode CSR numbers used by the CLIC.
const (
	Mstatus uint16 = 0x300
	Mie     uint16 = 0x304
	Mtvec   uint16 = 0x305
	Mtvt    uint16 = 0x307 // CLIC trap-handler vector table base
	Mepc    uint16 = 0x341
	Mcause  uint16 = 0x342
	Mip     uint16 = 0x344
	Mhartid uint16 = 0xF14

	// MintstatusLegacy is the pre-ratification number of mintstatus still
	// used by several CLIC implementations.
	MintstatusLegacy uint16 = 0x346
	Mintthresh       uint16 = 0x347 // interrupt-level threshold
	Mintstatus       uint16 = 0xFB1
)

// mstatus bits
const (
	MstatusMIE  uint64 = 1 << 3
	MstatusMPIE uint64 = 1 << 7
)

// Mtvec mode field values. Mode 3 selects CLIC mode.
const (
	MtvecModeDirect   uint64 = 0
	MtvecModeVectored uint64 = 1
	MtvecModeCLIC     uint64 = 3
	MtvecModeMask     uint64 = 3
)

// Privilege returns the lowest privilege level allowed to access CSR n,
// encoded in bits 9:8 of the number.
func Privilege(n uint16) uint8 { return uint8((n >> 8) & 3) }

// ReadOnly reports whether CSR n is read-only, encoded as 0b11 in bits 11:10.
func ReadOnly(n uint16) bool { return (n >> 10) == 3 }
