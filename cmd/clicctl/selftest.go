package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/tinyrange/clic"
	"github.com/tinyrange/clic/internal/platform"
)

// errSelftest is returned when at least one check failed.
var errSelftest = errors.New("selftest failed")

func selftest(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("selftest", flag.ExitOnError)

	platformPath := fs.String("platform", "", "Platform description")
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

	var bar *progressbar.ProgressBar
	steps := int64(len(desc.Interrupts) + 2)
	if isTerminal(os.Stderr) {
		bar = progressbar.Default(steps, "selftest")
	} else {
		bar = progressbar.DefaultSilent(steps, "selftest")
	}
	defer bar.Close()

	failures := runSelftest(simulate(desc), func() { bar.Add(1) })
	bar.Finish()

	logger.Debug("selftest done", "package", desc.Package, "failures", len(failures))
	return report(w, failures, isTerminal(w))
}

// failure is one failed check.
type failure struct {
	source string
	check  string
	detail string
}

func report(w io.Writer, failures []failure, styled bool) error {
	if len(failures) == 0 {
		fmt.Fprintln(w, "ok")
		return nil
	}

	tbl := &table{styled: styled, header: []string{"SOURCE", "CHECK", "DETAIL"}}
	for _, f := range failures {
		tbl.add(f.source, tbl.style(failStyle, f.check), f.detail)
	}
	if err := tbl.write(w); err != nil {
		return err
	}
	return fmt.Errorf("%w: %d checks", errSelftest, len(failures))
}

// runSelftest checks the access layer against the simulated target t:
// every described source, then the hart-wide threshold and global enable.
// step is called after each group of checks.
func runSelftest(t *target, step func()) []failure {
	var failures []failure
	fail := func(source, check, format string, args ...any) {
		failures = append(failures, failure{source: source, check: check, detail: fmt.Sprintf(format, args...)})
	}

	for _, s := range t.desc.Sources() {
		t.machine.Reset()
		checkSource(t, s, func(check, format string, args ...any) { fail(s.Name, check, format, args...) })
		step()
	}

	t.machine.Reset()
	checkThreshold(t, func(check, format string, args ...any) { fail("-", check, format, args...) })
	step()

	t.machine.Reset()
	checkGlobalGate(t, func(check, format string, args ...any) { fail("-", check, format, args...) })
	step()

	return failures
}

type failFunc func(check, format string, args ...any)

// lane reads lane l of source's control word straight off the simulated bus.
func (t *target) lane(s platform.Source, l clic.Lane) uint8 {
	addr := t.desc.Base + clic.InterruptsOffset + clic.ControlWordSize*uint64(s.Line) + uint64(l)
	v, err := t.machine.Bus.Read8(addr)
	if err != nil {
		return 0
	}
	return v
}

func (t *target) setLane(s platform.Source, l clic.Lane, v uint8) {
	addr := t.desc.Base + clic.InterruptsOffset + clic.ControlWordSize*uint64(s.Line) + uint64(l)
	t.machine.Bus.Write8(addr, v)
}

func checkSource(t *target, s platform.Source, fail failFunc) {
	irqs := t.ctl.Interrupts()

	// offset correctness
	for _, l := range []clic.Lane{clic.LanePending, clic.LaneEnable, clic.LaneAttribute, clic.LanePriority} {
		want := irqs.Address() + clic.ControlWordSize*uintptr(s.Line) + uintptr(l)
		if got := irqs.LaneAddress(s, l); got != want {
			fail("offset", "%s lane at 0x%x, want 0x%x", l, got, want)
		}
	}
	irqs.Enable(s)
	if got := t.lane(s, clic.LaneEnable); got != 1 {
		fail("offset", "Enable wrote clicintie = %d", got)
	}
	irqs.Disable(s)

	// lane independence
	levels := t.desc.Levels()
	top := levels[len(levels)-1]
	t.setLane(s, clic.LanePending, 1)
	irqs.SetPriority(s, top)
	before := t.lane(s, clic.LanePriority)
	irqs.Enable(s)
	irqs.Disable(s)
	if t.lane(s, clic.LanePending) != 1 || t.lane(s, clic.LanePriority) != before {
		fail("lanes", "enable lane accesses changed pending or priority")
	}
	irqs.Enable(s)
	irqs.SetPriority(s, levels[0])
	if t.lane(s, clic.LanePending) != 1 || t.lane(s, clic.LaneEnable) != 1 {
		fail("lanes", "SetPriority changed pending or enable")
	}
	irqs.Unpend(s)
	if t.lane(s, clic.LaneEnable) != 1 {
		fail("lanes", "Unpend changed enable")
	}

	// idempotence
	irqs.Enable(s)
	irqs.Enable(s)
	if !irqs.IsEnabled(s) {
		fail("idempotence", "not enabled after Enable twice")
	}
	irqs.Disable(s)
	irqs.Disable(s)
	if irqs.IsEnabled(s) {
		fail("idempotence", "enabled after Disable twice")
	}
	irqs.Pend(s)
	irqs.Pend(s)
	if !irqs.IsPending(s) {
		fail("idempotence", "not pending after Pend twice")
	}
	irqs.Unpend(s)
	if irqs.IsPending(s) {
		fail("idempotence", "pending after Unpend")
	}

	// priority round-trip
	for _, l := range levels {
		irqs.SetPriority(s, l)
		if got := irqs.Priority(s); got != l.Value {
			fail("priority", "%s (%d) reads back as %d; ctl_bits %d cannot hold it", l.Name, l.Value, got, t.desc.IntCtlBits())
		}
	}
}

func checkThreshold(t *target, fail failFunc) {
	for v := uint(0); v <= 255; v++ {
		t.ctl.SetThreshold(v)
		if got := t.ctl.Threshold(); got != v {
			fail("threshold", "SetThreshold(%d) reads back as %d", v, got)
			return
		}
	}
}

func checkGlobalGate(t *target, fail failFunc) {
	irqs := t.ctl.Interrupts()
	for i, s := range t.desc.Sources() {
		if i%2 == 0 {
			irqs.Enable(s)
		}
		irqs.Pend(s)
	}

	snapshot := func() []uint32 {
		var words []uint32
		for _, s := range t.desc.Sources() {
			addr := t.desc.Base + clic.InterruptsOffset + clic.ControlWordSize*uint64(s.Line)
			v, _ := t.machine.Bus.Read32(addr)
			words = append(words, v)
		}
		return words
	}

	before := snapshot()
	t.ctl.Enable()
	if !t.ctl.IsEnabled() {
		fail("global", "not enabled after Enable")
	}
	t.ctl.Disable()
	if t.ctl.IsEnabled() {
		fail("global", "enabled after Disable")
	}
	after := snapshot()
	for i := range before {
		if before[i] != after[i] {
			fail("global", "control word %d changed from 0x%08x to 0x%08x", i, before[i], after[i])
		}
	}
}
