// Package register provides typed access to single memory-mapped registers.
//
// A register is an address inside a Memory plus a width. The access mode of a
// register (read-only, write-only or read-write) is part of its type, so a
// write-only register simply has no Read method.
package register

import (
	"fmt"
	"unsafe"
)

// Word is the set of register widths supported by Memory implementations.
type Word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Memory is an address space holding memory-mapped registers.
//
// Size is always 1, 2, 4 or 8. Implementations perform exactly one access of
// the requested width per call and never merge or split accesses.
type Memory interface {
	Load(addr uintptr, size int) uint64
	Store(addr uintptr, size int, value uint64)
}

// Access is the access mode of a register.
type Access uint8

const (
	ReadOnly Access = iota + 1
	WriteOnly
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "RO"
	case WriteOnly:
		return "WO"
	case ReadWrite:
		return "RW"
	default:
		return fmt.Sprintf("Access(%d)", uint8(a))
	}
}

func widthOf[T Word]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

// RO is a read-only register.
type RO[T Word] struct {
	mem  Memory
	addr uintptr
}

// NewRO returns the read-only register of type T at addr.
func NewRO[T Word](mem Memory, addr uintptr) RO[T] {
	return RO[T]{mem: mem, addr: addr}
}

func (r RO[T]) Read() T { return T(r.mem.Load(r.addr, widthOf[T]())) }

func (r RO[T]) Address() uintptr { return r.addr }

func (RO[T]) Access() Access { return ReadOnly }

// WO is a write-only register.
type WO[T Word] struct {
	mem  Memory
	addr uintptr
}

// NewWO returns the write-only register of type T at addr.
func NewWO[T Word](mem Memory, addr uintptr) WO[T] {
	return WO[T]{mem: mem, addr: addr}
}

func (r WO[T]) Write(value T) { r.mem.Store(r.addr, widthOf[T](), uint64(value)) }

func (r WO[T]) Address() uintptr { return r.addr }

func (WO[T]) Access() Access { return WriteOnly }

// RW is a read-write register.
type RW[T Word] struct {
	mem  Memory
	addr uintptr
}

// NewRW returns the read-write register of type T at addr.
func NewRW[T Word](mem Memory, addr uintptr) RW[T] {
	return RW[T]{mem: mem, addr: addr}
}

func (r RW[T]) Read() T { return T(r.mem.Load(r.addr, widthOf[T]())) }

func (r RW[T]) Write(value T) { r.mem.Store(r.addr, widthOf[T](), uint64(value)) }

// Modify performs a read-modify-write of the register. The two accesses are
// not atomic with respect to other agents touching the same register.
func (r RW[T]) Modify(fn func(T) T) { r.Write(fn(r.Read())) }

func (r RW[T]) Address() uintptr { return r.addr }

func (RW[T]) Access() Access { return ReadWrite }
