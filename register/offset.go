package register

// Offset relocates a Memory: an access at addr reaches addr+Delta of the
// underlying Memory. Peripheral bindings whose base is only known at run
// time use a zero base and an Offset by the real one.
type Offset struct {
	Memory Memory
	Delta  uintptr
}

func (o Offset) Load(addr uintptr, size int) uint64 {
	return o.Memory.Load(addr+o.Delta, size)
}

func (o Offset) Store(addr uintptr, size int, value uint64) {
	o.Memory.Store(addr+o.Delta, size, value)
}

var _ Memory = Offset{}
