package rv64

import (
	"fmt"
	"log/slog"
)

// CLIC register offsets
const (
	CLICCfgOffset  = 0x0000 // cliccfg
	CLICInfoOffset = 0x0004 // clicinfo (RO)
	CLICIntBase    = 0x1000 // clicintip/ie/attr/ctl array, 4 bytes per source
)

// CLIC limits
const (
	CLICMaxSources = 4096
	CLICSize       = CLICIntBase + 4*CLICMaxSources
	CLICVersion    = 0x09 // clicinfo.version, draft 0.9
)

// clicintattr fields
const (
	AttrSHV       uint8 = 1 << 0 // selective hardware vectoring
	AttrEdge      uint8 = 1 << 1 // trig[0]: edge rather than level
	AttrActiveLow uint8 = 1 << 2 // trig[1]: falling edge / active low
	AttrModeM     uint8 = 3 << 6 // mode, fixed to machine mode
	attrWritable        = AttrSHV | AttrEdge | AttrActiveLow
)

// CLICConfig sizes the simulated controller.
type CLICConfig struct {
	// NumInterrupts is the number of implemented control words (clicinfo
	// num_interrupt). Words past it read as zero and ignore writes.
	NumInterrupts int
	// CtlBits is the number of implemented upper bits of clicintctl
	// (CLICINTCTLBITS). Unimplemented lower bits read as one.
	CtlBits uint8
}

// CLICDevice models the memory-mapped registers of a CLIC and its
// interrupt selection logic for one hart.
type CLICDevice struct {
	cpu *CPU

	numInterrupts int
	ctlBits       uint8

	// cliccfg.nlbits
	nlbits uint8

	ip   []uint8
	ie   []uint8
	attr []uint8
	ctl  []uint8
	line []bool
}

// NewCLIC creates a CLIC attached to cpu. Out of range configuration values
// are clamped.
func NewCLIC(cpu *CPU, cfg CLICConfig) *CLICDevice {
	n := min(max(cfg.NumInterrupts, 1), CLICMaxSources)
	c := &CLICDevice{
		cpu:           cpu,
		numInterrupts: n,
		ctlBits:       min(cfg.CtlBits, 8),
		ip:            make([]uint8, n),
		ie:            make([]uint8, n),
		attr:          make([]uint8, n),
		ctl:           make([]uint8, n),
		line:          make([]bool, n),
	}
	c.Reset()
	cpu.irq = c
	return c
}

// Reset returns every register to its reset value. All interrupt levels
// are encoded in clicintctl (nlbits = 8) so that the threshold compares
// against the priority written through the access layer.
func (c *CLICDevice) Reset() {
	c.nlbits = 8
	for i := range c.ip {
		c.ip[i] = 0
		c.ie[i] = 0
		c.attr[i] = AttrModeM
		c.ctl[i] = c.ctlMask()
		c.line[i] = false
	}
	c.update()
}

func (c *CLICDevice) NumInterrupts() int { return c.numInterrupts }

// Size implements Device
func (c *CLICDevice) Size() uint64 {
	return CLICSize
}

// ctlMask is the value unimplemented clicintctl bits read as.
func (c *CLICDevice) ctlMask() uint8 {
	return uint8(0xff >> c.ctlBits)
}

// Read implements Device
func (c *CLICDevice) Read(offset uint64, size int) (uint64, error) {
	if err := checkSize(size); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < size; i++ {
		v |= uint64(c.readByte(offset+uint64(i))) << (8 * i)
	}
	return v, nil
}

// Write implements Device
func (c *CLICDevice) Write(offset uint64, size int, value uint64) error {
	if err := checkSize(size); err != nil {
		return err
	}
	for i := 0; i < size; i++ {
		c.writeByte(offset+uint64(i), uint8(value>>(8*i)))
	}
	c.update()
	return nil
}

func checkSize(size int) error {
	switch size {
	case 1, 2, 4, 8:
		return nil
	default:
		return fmt.Errorf("clic: invalid access size %d", size)
	}
}

func (c *CLICDevice) info() uint32 {
	return uint32(c.numInterrupts&0x1fff) | CLICVersion<<13 | uint32(c.ctlBits)<<21
}

func (c *CLICDevice) readByte(off uint64) uint8 {
	switch {
	case off < CLICCfgOffset+4:
		if off == CLICCfgOffset {
			return c.nlbits << 1
		}
		return 0
	case off < CLICInfoOffset+4:
		return uint8(c.info() >> (8 * (off - CLICInfoOffset)))
	case off < CLICIntBase:
		return 0
	}

	id, lane := (off-CLICIntBase)/4, (off-CLICIntBase)%4
	if id >= uint64(c.numInterrupts) {
		return 0
	}
	switch lane {
	case 0:
		return c.ip[id]
	case 1:
		return c.ie[id]
	case 2:
		return c.attr[id]
	default:
		return c.ctl[id]
	}
}

func (c *CLICDevice) writeByte(off uint64, v uint8) {
	switch {
	case off == CLICCfgOffset:
		c.nlbits = min((v>>1)&0xf, 8)
		return
	case off < CLICIntBase:
		// clicinfo is read-only, the rest is reserved
		return
	}

	id, lane := (off-CLICIntBase)/4, (off-CLICIntBase)%4
	if id >= uint64(c.numInterrupts) {
		slog.Debug("clic: write to unimplemented interrupt", "id", id, "lane", lane)
		return
	}
	switch lane {
	case 0:
		c.ip[id] = v & 1
	case 1:
		c.ie[id] = v & 1
	case 2:
		c.attr[id] = AttrModeM | v&attrWritable
	default:
		c.ctl[id] = v | c.ctlMask()
	}
}

// Level returns the interrupt level encoded in a clicintctl value: its
// upper nlbits bits, with the remaining bits read as one.
func (c *CLICDevice) Level(ctl uint8) uint8 {
	if c.nlbits >= 8 {
		return ctl
	}
	keep := uint8(0xff << (8 - c.nlbits))
	return ctl&keep | ^keep
}

// SetLine drives the input wire of interrupt id. Level-triggered sources
// follow the wire; edge-triggered sources latch pending on the active edge.
func (c *CLICDevice) SetLine(id uint16, high bool) {
	if int(id) >= c.numInterrupts {
		return
	}
	attr := c.attr[id]
	wasActive := c.line[id] != (attr&AttrActiveLow != 0)
	active := high != (attr&AttrActiveLow != 0)
	c.line[id] = high

	if attr&AttrEdge == 0 {
		c.ip[id] = b2u(active)
	} else if active && !wasActive {
		c.ip[id] = 1
	}
	c.update()
}

// highest returns the pending and enabled interrupt with the greatest
// clicintctl value, ties going to the higher id.
func (c *CLICDevice) highest() (id uint16, ctl uint8, ok bool) {
	for i := 0; i < c.numInterrupts; i++ {
		if c.ip[i] == 0 || c.ie[i] == 0 {
			continue
		}
		if !ok || c.ctl[i] >= ctl {
			id, ctl, ok = uint16(i), c.ctl[i], true
		}
	}
	return id, ctl, ok
}

// pending returns the interrupt the hart would take if mstatus.MIE were
// set: the highest one whose level exceeds both mintthresh and the level
// currently being serviced.
func (c *CLICDevice) pending() (id uint16, level uint8, ok bool) {
	id, ctl, ok := c.highest()
	if !ok {
		return 0, 0, false
	}
	level = c.Level(ctl)
	floor := max(uint8(c.cpu.Mintthresh), uint8(c.cpu.Mintstatus>>MintstatusMILShift))
	if level <= floor {
		return 0, 0, false
	}
	return id, level, true
}

// update recomputes the interrupt request line to the hart.
func (c *CLICDevice) update() {
	if _, _, ok := c.pending(); ok {
		c.cpu.Mip |= MipMEIP
	} else {
		c.cpu.Mip &^= MipMEIP
	}
}

// acknowledge is called when the hart takes interrupt id. Edge-triggered
// sources have their pending bit cleared.
func (c *CLICDevice) acknowledge(id uint16) {
	if c.attr[id]&AttrEdge != 0 {
		c.ip[id] = 0
	}
	c.update()
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var _ Device = (*CLICDevice)(nil)
