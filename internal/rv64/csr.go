package rv64

import (
	"log/slog"

	"github.com/tinyrange/clic/csr"
)

// csrRead reads a CSR value
func (cpu *CPU) csrRead(n uint16) (uint64, error) {
	// Check privilege level
	if cpu.Priv < csr.Privilege(n) {
		return 0, Exception(CauseIllegalInsn, 0)
	}

	switch n {
	case csr.Mstatus:
		return cpu.Mstatus, nil
	case csr.Mie:
		return cpu.Mie, nil
	case csr.Mip:
		return cpu.Mip, nil
	case csr.Mtvec:
		return cpu.Mtvec, nil
	case csr.Mtvt:
		return cpu.Mtvt, nil
	case csrMscratch:
		return cpu.Mscratch, nil
	case csr.Mepc:
		return cpu.Mepc, nil
	case csr.Mcause:
		return cpu.Mcause, nil
	case csr.Mhartid:
		return cpu.Mhartid, nil
	case csr.Mintthresh:
		return cpu.Mintthresh, nil
	case csr.Mintstatus, csr.MintstatusLegacy:
		return cpu.Mintstatus, nil
	default:
		return 0, Exception(CauseIllegalInsn, uint64(n))
	}
}

const csrMscratch uint16 = 0x340

// csrWrite writes a CSR value
func (cpu *CPU) csrWrite(n uint16, val uint64) error {
	// Check privilege level
	if cpu.Priv < csr.Privilege(n) {
		return Exception(CauseIllegalInsn, 0)
	}

	// Check if read-only (top 2 bits = 11)
	if csr.ReadOnly(n) {
		return Exception(CauseIllegalInsn, uint64(n))
	}

	switch n {
	case csr.Mstatus:
		const mstatusMask = MstatusMIE | MstatusMPIE | MstatusMPP
		cpu.Mstatus = (cpu.Mstatus &^ mstatusMask) | (val & mstatusMask)
	case csr.Mie:
		// Ignored in CLIC mode; sources are enabled through clicintie.
		cpu.Mie = val & MipMEIP
	case csr.Mip:
		// MEIP is driven by the CLIC and not writable.
	case csr.Mtvec:
		cpu.Mtvec = val
	case csr.Mtvt:
		cpu.Mtvt = val &^ 0x3f // 64-byte aligned
	case csrMscratch:
		cpu.Mscratch = val
	case csr.Mepc:
		cpu.Mepc = val &^ 1
	case csr.Mcause:
		cpu.Mcause = val
	case csr.Mintthresh:
		cpu.Mintthresh = val & 0xff
	case csr.MintstatusLegacy:
		// Read-only alias of mintstatus.
	default:
		return Exception(CauseIllegalInsn, uint64(n))
	}

	if n == csr.Mstatus || n == csr.Mintthresh {
		if cpu.irq != nil {
			cpu.irq.update()
		}
	}
	return nil
}

// Hart exposes the CSR file of cpu as a csr.File. Illegal accesses are
// logged and otherwise ignored; reads return 0.
type Hart struct {
	cpu *CPU
}

func (h Hart) Read(n uint16) uint64 {
	v, err := h.cpu.csrRead(n)
	if err != nil {
		slog.Debug("rv64: csr read", "csr", n, "error", err)
		return 0
	}
	return v
}

func (h Hart) Write(n uint16, value uint64) {
	if err := h.cpu.csrWrite(n, value); err != nil {
		slog.Debug("rv64: csr write", "csr", n, "error", err)
	}
}

func (h Hart) Set(n uint16, mask uint64) {
	v, err := h.cpu.csrRead(n)
	if err != nil {
		slog.Debug("rv64: csr set", "csr", n, "error", err)
		return
	}
	h.Write(n, v|mask)
}

func (h Hart) Clear(n uint16, mask uint64) {
	v, err := h.cpu.csrRead(n)
	if err != nil {
		slog.Debug("rv64: csr clear", "csr", n, "error", err)
		return
	}
	h.Write(n, v&^mask)
}

var _ csr.File = Hart{}
