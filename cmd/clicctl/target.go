package main

import (
	"fmt"
	"io"

	"github.com/tinyrange/clic"
	"github.com/tinyrange/clic/internal/platform"
	"github.com/tinyrange/clic/internal/rv64"
	"github.com/tinyrange/clic/register"
)

// described binds a CLIC whose base is only known from the platform
// description; its accesses are relocated by register.Offset.
type described struct{}

func (described) Base() uintptr { return 0 }

// target is the CLIC of a described platform and the path used to reach it.
type target struct {
	desc *platform.Description
	ctl  clic.CLIC[described]

	// machine is set when the target is simulated.
	machine *rv64.Machine
	closer  io.Closer
}

// windowSize is the span of the register block up to the last control word
// of the description.
func windowSize(desc *platform.Description) int {
	return clic.InterruptsOffset + clic.ControlWordSize*(int(desc.MaxInterrupt)+1)
}

// simulate builds a simulated machine whose CLIC implements the sources and
// clicintctl bits of desc at its base address.
func simulate(desc *platform.Description) *target {
	m := rv64.NewMachine(rv64.Config{
		CLICBase: desc.Base,
		CLIC: rv64.CLICConfig{
			NumInterrupts: int(desc.MaxInterrupt) + 1,
			CtlBits:       desc.IntCtlBits(),
		},
	})
	mem := register.Offset{Memory: m.Memory(), Delta: uintptr(desc.Base)}
	return &target{
		desc:    desc,
		ctl:     clic.New[described](mem, m.Hart()),
		machine: m,
	}
}

// open maps the CLIC of desc from dev. With uio >= 0, dev is a UIO device
// and uio the index of the map region holding the CLIC.
func open(desc *platform.Description, dev string, uio int) (*target, error) {
	var (
		m   *register.Mapping
		err error
	)
	if uio >= 0 {
		m, err = register.MapUIO(dev, uio, uintptr(desc.Base), windowSize(desc))
	} else {
		m, err = register.Map(dev, uintptr(desc.Base), windowSize(desc))
	}
	if err != nil {
		return nil, fmt.Errorf("map CLIC: %w", err)
	}

	// mstatus and mintthresh are not reachable from user space; only the
	// control-register block is used on hardware.
	mem := register.Offset{Memory: m, Delta: uintptr(desc.Base)}
	return &target{
		desc:   desc,
		ctl:    clic.New[described](mem, nil),
		closer: m,
	}, nil
}

func (t *target) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}
