//go:build !linux

package register

func Map(path string, phys uintptr, size int) (*Mapping, error) {
	return nil, ErrUnsupported
}

func MapUIO(path string, index int, phys uintptr, size int) (*Mapping, error) {
	return nil, ErrUnsupported
}

func (m *Mapping) Close() error { return nil }
