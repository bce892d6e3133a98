package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/tinyrange/clic/internal/platform"
)

func dump(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)

	platformPath := fs.String("platform", "", "Platform description")
	dev := fs.String("dev", "/dev/mem", "Device to map the CLIC from")
	uio := fs.Int("uio", -1, "Map region of dev holding the CLIC when dev is a UIO device")
	sim := fs.Bool("sim", false, "Read a simulated CLIC instead of hardware")
	debug := fs.Bool("debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	logger := newLogger(*debug)

	if *platformPath == "" {
		return fmt.Errorf("platform is required")
	}
	desc, err := platform.Load(*platformPath)
	if err != nil {
		return err
	}

	var t *target
	if *sim {
		t = simulate(desc)
	} else {
		t, err = open(desc, *dev, *uio)
		if err != nil {
			return err
		}
	}
	defer t.Close()

	logger.Debug("dumping CLIC", "package", desc.Package, "base", fmt.Sprintf("0x%x", desc.Base), "sim", *sim)
	return writeDump(w, t, isTerminal(w))
}

func writeDump(w io.Writer, t *target, styled bool) error {
	levels := map[uint8]string{}
	for _, l := range t.desc.Priorities.Levels {
		levels[l.Value] = l.Name
	}

	irqs := t.ctl.Interrupts()
	tbl := &table{
		styled: styled,
		header: []string{"NAME", "NUMBER", "PENDING", "ENABLED", "PRIORITY", "LEVEL"},
	}
	for _, s := range t.desc.Sources() {
		prio := irqs.Priority(s)
		level, ok := levels[prio]
		if !ok {
			level = tbl.style(offStyle, "-")
		}
		tbl.add(
			s.Name,
			strconv.Itoa(int(s.Line)),
			tbl.flag(irqs.IsPending(s)),
			tbl.flag(irqs.IsEnabled(s)),
			strconv.Itoa(int(prio)),
			level,
		)
	}

	fmt.Fprintf(w, "CLIC %s at 0x%x (%s)\n", t.desc.Package, t.desc.Base, t.desc.CLICVersion)
	if t.machine != nil {
		fmt.Fprintf(w, "mstatus.MIE %s, mintthresh %d\n", tbl.flag(t.ctl.IsEnabled()), t.ctl.Threshold())
	}
	fmt.Fprintln(w)
	return tbl.write(w)
}
