package register

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Direct is the address space of the running program. Addresses are
// dereferenced as pointers, which is what a bare-metal target or an already
// mapped window needs.
//
// Using Direct with an address that is not mapped faults like any other
// invalid pointer dereference.
type Direct struct{}

func (Direct) Load(addr uintptr, size int) uint64 {
	return loadPtr(unsafe.Pointer(addr), size)
}

func (Direct) Store(addr uintptr, size int, value uint64) {
	storePtr(unsafe.Pointer(addr), size, value)
}

// Go has no volatile qualifier. Word and double word accesses go through
// sync/atomic; byte and half word accesses are plain dereferences that are
// not elided because they sit behind an interface call.
func loadPtr(p unsafe.Pointer, size int) uint64 {
	switch size {
	case 1:
		return uint64(*(*uint8)(p))
	case 2:
		return uint64(*(*uint16)(p))
	case 4:
		return uint64(atomic.LoadUint32((*uint32)(p)))
	case 8:
		return atomic.LoadUint64((*uint64)(p))
	default:
		panic(fmt.Sprintf("register: invalid access size %d", size))
	}
}

func storePtr(p unsafe.Pointer, size int, value uint64) {
	switch size {
	case 1:
		*(*uint8)(p) = uint8(value)
	case 2:
		*(*uint16)(p) = uint16(value)
	case 4:
		atomic.StoreUint32((*uint32)(p), uint32(value))
	case 8:
		atomic.StoreUint64((*uint64)(p), value)
	default:
		panic(fmt.Sprintf("register: invalid access size %d", size))
	}
}

var _ Memory = Direct{}
