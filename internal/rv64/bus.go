package rv64

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/tinyrange/clic/register"
)

// Device represents a memory-mapped device
type Device interface {
	// Read reads from the device at the given offset
	Read(offset uint64, size int) (uint64, error)
	// Write writes to the device at the given offset
	Write(offset uint64, size int, value uint64) error
	// Size returns the size of the device's address space
	Size() uint64
}

// Endianness
var cpuEndian = binary.LittleEndian

// MemoryRegion represents a contiguous region of RAM
type MemoryRegion struct {
	Data []byte
}

// NewMemoryRegion creates a new memory region of the given size
func NewMemoryRegion(size uint64) *MemoryRegion {
	return &MemoryRegion{
		Data: make([]byte, size),
	}
}

// Read implements Device
func (m *MemoryRegion) Read(offset uint64, size int) (uint64, error) {
	if offset+uint64(size) > uint64(len(m.Data)) {
		return 0, fmt.Errorf("memory read out of bounds: offset=0x%x size=%d len=%d", offset, size, len(m.Data))
	}

	switch size {
	case 1:
		return uint64(m.Data[offset]), nil
	case 2:
		return uint64(cpuEndian.Uint16(m.Data[offset:])), nil
	case 4:
		return uint64(cpuEndian.Uint32(m.Data[offset:])), nil
	case 8:
		return cpuEndian.Uint64(m.Data[offset:]), nil
	default:
		return 0, fmt.Errorf("invalid read size: %d", size)
	}
}

// Write implements Device
func (m *MemoryRegion) Write(offset uint64, size int, value uint64) error {
	if offset+uint64(size) > uint64(len(m.Data)) {
		return fmt.Errorf("memory write out of bounds: offset=0x%x size=%d len=%d", offset, size, len(m.Data))
	}

	switch size {
	case 1:
		m.Data[offset] = byte(value)
	case 2:
		cpuEndian.PutUint16(m.Data[offset:], uint16(value))
	case 4:
		cpuEndian.PutUint32(m.Data[offset:], uint32(value))
	case 8:
		cpuEndian.PutUint64(m.Data[offset:], value)
	default:
		return fmt.Errorf("invalid write size: %d", size)
	}
	return nil
}

// Size implements Device
func (m *MemoryRegion) Size() uint64 {
	return uint64(len(m.Data))
}

// DeviceMapping maps a device to an address range
type DeviceMapping struct {
	Base   uint64
	Size   uint64
	Device Device
}

// Bus connects the hart to memory and devices
type Bus struct {
	RAM     *MemoryRegion
	RAMBase uint64
	Devices []DeviceMapping

	faults atomic.Uint64
}

// NewBus creates a new bus with the given RAM size
func NewBus(ramSize uint64) *Bus {
	return &Bus{
		RAM:     NewMemoryRegion(ramSize),
		RAMBase: RAMBase,
	}
}

// AddDevice adds a device mapping to the bus
func (bus *Bus) AddDevice(base uint64, dev Device) {
	bus.Devices = append(bus.Devices, DeviceMapping{
		Base:   base,
		Size:   dev.Size(),
		Device: dev,
	})
}

// findDevice finds a device at the given address
func (bus *Bus) findDevice(addr uint64) (Device, uint64, error) {
	// Fast path for RAM
	if addr >= bus.RAMBase && addr < bus.RAMBase+bus.RAM.Size() {
		return bus.RAM, addr - bus.RAMBase, nil
	}

	// Check devices
	for _, mapping := range bus.Devices {
		if addr >= mapping.Base && addr < mapping.Base+mapping.Size {
			return mapping.Device, addr - mapping.Base, nil
		}
	}

	return nil, 0, fmt.Errorf("no device at address 0x%x", addr)
}

// Read reads from the bus
func (bus *Bus) Read(addr uint64, size int) (uint64, error) {
	dev, offset, err := bus.findDevice(addr)
	if err != nil {
		return 0, err
	}
	return dev.Read(offset, size)
}

// Write writes to the bus
func (bus *Bus) Write(addr uint64, size int, value uint64) error {
	dev, offset, err := bus.findDevice(addr)
	if err != nil {
		return err
	}
	return dev.Write(offset, size, value)
}

// Read8 reads a byte from the bus
func (bus *Bus) Read8(addr uint64) (uint8, error) {
	val, err := bus.Read(addr, 1)
	return uint8(val), err
}

// Read32 reads a word from the bus
func (bus *Bus) Read32(addr uint64) (uint32, error) {
	val, err := bus.Read(addr, 4)
	return uint32(val), err
}

// Write8 writes a byte to the bus
func (bus *Bus) Write8(addr uint64, value uint8) error {
	return bus.Write(addr, 1, uint64(value))
}

// Write32 writes a word to the bus
func (bus *Bus) Write32(addr uint64, value uint32) error {
	return bus.Write(addr, 4, uint64(value))
}

// Faults returns the number of Load and Store accesses that failed, which is
// what an access fault would have been on hardware.
func (bus *Bus) Faults() uint64 {
	return bus.faults.Load()
}

// Load implements register.Memory. Failed reads return 0.
func (bus *Bus) Load(addr uintptr, size int) uint64 {
	v, err := bus.Read(uint64(addr), size)
	if err != nil {
		bus.faults.Add(1)
		slog.Debug("rv64: load access fault", "addr", addr, "size", size, "error", err)
		return 0
	}
	return v
}

// Store implements register.Memory. Failed writes are dropped.
func (bus *Bus) Store(addr uintptr, size int, value uint64) {
	if err := bus.Write(uint64(addr), size, value); err != nil {
		bus.faults.Add(1)
		slog.Debug("rv64: store access fault", "addr", addr, "size", size, "error", err)
	}
}

var _ register.Memory = (*Bus)(nil)
