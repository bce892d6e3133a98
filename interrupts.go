package clic

import (
	"fmt"

	"github.com/tinyrange/clic/register"
)

// ControlWordSize is the size in bytes of one source's control word.
const ControlWordSize = 4

// Lane is the byte offset of a field inside a control word.
type Lane uintptr

const (
	LanePending   Lane = 0 // clicintip
	LaneEnable    Lane = 1 // clicintie
	LaneAttribute Lane = 2 // clicintattr, not exposed here
	LanePriority  Lane = 3 // clicintctl
)

func (l Lane) String() string {
	switch l {
	case LanePending:
		return "pending"
	case LaneEnable:
		return "enable"
	case LaneAttribute:
		return "attribute"
	case LanePriority:
		return "priority"
	default:
		return fmt.Sprintf("Lane(%d)", uintptr(l))
	}
}

// Interrupts is the CLIC's array of per-source control words. Each source
// owns one 4-byte word; every method touches exactly one byte lane of it.
//
// No method checks its source. A source's number is trusted to come from a
// conforming InterruptNumber, which is the only place invalid numbers can be
// rejected.
type Interrupts struct {
	mem  register.Memory
	addr uintptr
}

func newInterrupts(mem register.Memory, addr uintptr) Interrupts {
	return Interrupts{mem: mem, addr: addr}
}

// Address returns the address of the control word of interrupt 0.
func (r Interrupts) Address() uintptr { return r.addr }

// LaneAddress returns the address of lane l of source's control word. All
// accesses made by Interrupts go through it.
func (r Interrupts) LaneAddress(source InterruptNumber, l Lane) uintptr {
	return r.addr + ControlWordSize*uintptr(source.Number()) + uintptr(l)
}

func (r Interrupts) lane(source InterruptNumber, l Lane) register.RW[uint8] {
	return register.NewRW[uint8](r.mem, r.LaneAddress(source, l))
}

// IsEnabled reports whether source is enabled. Only the value 1 counts as
// enabled.
func (r Interrupts) IsEnabled(source InterruptNumber) bool {
	return r.lane(source, LaneEnable).Read() == 1
}

// Enable enables source.
//
// Enabling a source can break critical sections that rely on it being
// masked; the caller must not be inside one.
func (r Interrupts) Enable(source InterruptNumber) {
	r.lane(source, LaneEnable).Write(1)
}

// Disable disables source.
func (r Interrupts) Disable(source InterruptNumber) {
	r.lane(source, LaneEnable).Write(0)
}

// Priority returns the raw priority level of source. The value comes from
// hardware and may not be a level of the platform's PriorityNumber, for
// example right after reset.
func (r Interrupts) Priority(source InterruptNumber) uint8 {
	return r.lane(source, LanePriority).Read()
}

// SetPriority sets the priority level of source.
//
// Raising a priority can let source preempt code that expected it to be
// filtered by the threshold.
func (r Interrupts) SetPriority(source InterruptNumber, priority PriorityNumber) {
	r.lane(source, LanePriority).Write(priority.Number())
}

// IsPending reports whether source is pending. Only the value 1 counts as
// pending.
func (r Interrupts) IsPending(source InterruptNumber) bool {
	return r.lane(source, LanePending).Read() == 1
}

// Pend marks source as pending. If source is enabled and above the
// threshold the interrupt may be taken before Pend returns.
func (r Interrupts) Pend(source InterruptNumber) {
	r.lane(source, LanePending).Write(1)
}

// Unpend clears the pending state of source, which discards an interrupt
// that has not been taken yet.
func (r Interrupts) Unpend(source InterruptNumber) {
	r.lane(source, LanePending).Write(0)
}
