//go:build linux

package register

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Map maps size bytes of physical memory starting at phys through a
// /dev/mem style device node, where the file offset is the physical address.
func Map(path string, phys uintptr, size int) (*Mapping, error) {
	page := uintptr(unix.Getpagesize())
	start := phys &^ (page - 1)
	return mapFile(path, int64(start), phys, int(phys-start), size)
}

// MapUIO maps region index of a UIO device (/dev/uioN). The kernel exposes
// region N at file offset N*pagesize; phys is the physical address the region
// starts at, as reported in /sys/class/uio/uioN/maps/mapN/addr.
func MapUIO(path string, index int, phys uintptr, size int) (*Mapping, error) {
	if index < 0 {
		return nil, fmt.Errorf("register: map %s: invalid region index %d", path, index)
	}
	page := unix.Getpagesize()
	return mapFile(path, int64(index*page), phys, int(phys&uintptr(page-1)), size)
}

func mapFile(path string, fileOffset int64, phys uintptr, pageOffset int, size int) (*Mapping, error) {
	if size <= 0 {
		return nil, fmt.Errorf("register: map %s: invalid size %d", path, size)
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("register: open %s: %w", path, err)
	}
	defer unix.Close(fd)

	page := unix.Getpagesize()
	length := (pageOffset + size + page - 1) &^ (page - 1)

	data, err := unix.Mmap(fd, fileOffset, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("register: mmap %s at 0x%x: %w", path, fileOffset, err)
	}

	return &Mapping{
		path:   path,
		phys:   phys,
		size:   size,
		mapped: data,
		offset: pageOffset,
	}, nil
}

// Close unmaps the window. The Mapping must not be used afterwards.
func (m *Mapping) Close() error {
	if m.mapped == nil {
		return nil
	}
	data := m.mapped
	m.mapped = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("register: munmap %s: %w", m.path, err)
	}
	return nil
}
