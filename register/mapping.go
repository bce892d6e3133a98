package register

import (
	"errors"
	"log/slog"
	"unsafe"
)

// ErrUnsupported is returned by Map and MapUIO on platforms without mmap
// support for device memory.
var ErrUnsupported = errors.New("register: device mapping not supported on this platform")

// Mapping is a peripheral window mapped into this process. It implements
// Memory over the peripheral's physical addresses, so a platform base address
// can be used unchanged from user space.
//
// Accesses outside the mapped range are dropped and logged.
type Mapping struct {
	path string
	phys uintptr
	size int

	mapped []byte // whole pages as returned by mmap
	offset int    // offset of phys within mapped
}

func (m *Mapping) Phys() uintptr { return m.phys }

func (m *Mapping) Size() int { return m.size }

func (m *Mapping) pointer(addr uintptr, size int) unsafe.Pointer {
	if m.mapped == nil || addr < m.phys {
		return nil
	}
	off := addr - m.phys
	if off > uintptr(m.size) || uintptr(m.size)-off < uintptr(size) {
		return nil
	}
	return unsafe.Pointer(&m.mapped[m.offset+int(off)])
}

func (m *Mapping) Load(addr uintptr, size int) uint64 {
	p := m.pointer(addr, size)
	if p == nil {
		slog.Warn("register: load outside mapping", "path", m.path, "addr", addr, "size", size)
		return 0
	}
	return loadPtr(p, size)
}

func (m *Mapping) Store(addr uintptr, size int, value uint64) {
	p := m.pointer(addr, size)
	if p == nil {
		slog.Warn("register: store outside mapping", "path", m.path, "addr", addr, "size", size)
		return
	}
	storePtr(p, size, value)
}

var _ Memory = (*Mapping)(nil)
