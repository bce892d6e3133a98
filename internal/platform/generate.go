package platform

import (
	"fmt"
	"strings"

	"golang.org/x/tools/imports"
)

// Generate returns the source of a Go package binding the platform
// described by d: its interrupt and priority enumerations, the CLIC
// binding type and package-level functions forwarding to the bound
// controller.
func Generate(d *Description) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("platform: generate: %w", err)
	}

	var w strings.Builder

	writePreamble(&w, d)
	writeInterrupts(&w, d)
	writePriorities(&w, d)
	writeBinding(&w, d)

	src, err := imports.Process(d.Package+".go", []byte(w.String()), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("platform: format generated source: %w", err)
	}
	return src, nil
}

func writePreamble(w *strings.Builder, d *Description) {
	fmt.Fprintln(w, "// Code generated by clicgen. DO NOT EDIT.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "// Package %s binds the CLIC (%s) at 0x%x.\n", d.Package, d.CLICVersion, d.Base)
	fmt.Fprintf(w, "package %s\n\n", d.Package)
	fmt.Fprintln(w, "import (")
	fmt.Fprintln(w, `"strconv"`)
	fmt.Fprintln(w)
	fmt.Fprintln(w, `"github.com/tinyrange/clic"`)
	fmt.Fprintln(w, `"github.com/tinyrange/clic/csr"`)
	fmt.Fprintln(w, `"github.com/tinyrange/clic/register"`)
	fmt.Fprintln(w, ")")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "const (")
	fmt.Fprintln(w, "// CLICBase is the physical address of the CLIC register block.")
	fmt.Fprintf(w, "CLICBase uintptr = 0x%x\n\n", d.Base)
	fmt.Fprintln(w, "// CtlBits is the number of implemented clicintctl bits.")
	fmt.Fprintf(w, "CtlBits = %d\n", d.IntCtlBits())
	fmt.Fprintln(w, ")")
	fmt.Fprintln(w)
}

func writeInterrupts(w *strings.Builder, d *Description) {
	sources := d.Sources()

	fmt.Fprintln(w, "// Interrupt is an interrupt source of the platform.")
	fmt.Fprintln(w, "type Interrupt uint16")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "const (")
	for _, s := range sources {
		fmt.Fprintf(w, "%s Interrupt = %d\n", s.Name, s.Line)
	}
	fmt.Fprintln(w, ")")
	fmt.Fprintln(w)

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	fmt.Fprintf(w, "var interrupts = clic.MustInterruptTable(%d, %s)\n\n", d.MaxInterrupt, strings.Join(names, ", "))

	fmt.Fprintln(w, "// Number implements clic.InterruptNumber.")
	fmt.Fprintln(w, "func (i Interrupt) Number() uint16 { return uint16(i) }")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "func (Interrupt) MaxInterruptNumber() uint16 { return interrupts.Max() }")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "func (Interrupt) FromNumber(n uint16) (Interrupt, error) { return interrupts.FromNumber(n) }")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "func (i Interrupt) String() string {")
	fmt.Fprintln(w, "switch i {")
	for _, s := range sources {
		fmt.Fprintf(w, "case %s:\nreturn %q\n", s.Name, s.Name)
	}
	fmt.Fprintln(w, "}")
	fmt.Fprintln(w, `return "Interrupt(" + strconv.Itoa(int(i)) + ")"`)
	fmt.Fprintln(w, "}")
	fmt.Fprintln(w)
}

func writePriorities(w *strings.Builder, d *Description) {
	levels := d.Levels()

	fmt.Fprintln(w, "// Priority is a priority level of the platform.")
	fmt.Fprintln(w, "type Priority uint8")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "const (")
	for _, l := range levels {
		fmt.Fprintf(w, "%s Priority = %d\n", l.Name, l.Value)
	}
	fmt.Fprintln(w, ")")
	fmt.Fprintln(w)

	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.Name
	}
	fmt.Fprintf(w, "var priorities = clic.MustPriorityTable(%d, %s)\n\n", d.MaxPriority(), strings.Join(names, ", "))

	fmt.Fprintln(w, "// Number implements clic.PriorityNumber.")
	fmt.Fprintln(w, "func (p Priority) Number() uint8 { return uint8(p) }")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "func (Priority) MaxPriorityNumber() uint8 { return priorities.Max() }")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "func (Priority) FromNumber(n uint8) (Priority, error) { return priorities.FromNumber(n) }")
	fmt.Fprintln(w)
}

func writeBinding(w *strings.Builder, d *Description) {
	fmt.Fprintln(w, "// CLIC binds the controller at CLICBase.")
	fmt.Fprintln(w, "type CLIC struct{}")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "func (CLIC) Base() uintptr { return CLICBase }")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "var controller *clic.CLIC[CLIC]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "// Bind makes mem and hart the path to the controller for the functions")
	fmt.Fprintln(w, "// of this package. The functions panic if Bind has not been called.")
	fmt.Fprintln(w, "func Bind(mem register.Memory, hart csr.File) clic.CLIC[CLIC] {")
	fmt.Fprintln(w, "c := clic.New[CLIC](mem, hart)")
	fmt.Fprintln(w, "controller = &c")
	fmt.Fprintln(w, "return c")
	fmt.Fprintln(w, "}")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "func bound() clic.CLIC[CLIC] {")
	fmt.Fprintln(w, "if controller == nil {")
	fmt.Fprintf(w, "panic(%q)\n", d.Package+": Bind must be called before using the CLIC")
	fmt.Fprintln(w, "}")
	fmt.Fprintln(w, "return *controller")
	fmt.Fprintln(w, "}")
	fmt.Fprintln(w)

	forwards := []struct{ doc, sig, call string }{
		{
			"Enable sets mstatus.MIE.\n//\n// Enabling interrupts may break critical sections that expect them to be\n// masked.",
			"Enable()", "bound().Enable()",
		},
		{"Disable clears mstatus.MIE.", "Disable()", "bound().Disable()"},
		{"IsEnabled reports whether mstatus.MIE is set.", "IsEnabled() bool", "return bound().IsEnabled()"},
		{
			"SetThreshold writes mintthresh.\n//\n// Lowering the threshold can immediately admit an interrupt that was being\n// filtered.",
			"SetThreshold(threshold uint)", "bound().SetThreshold(threshold)",
		},
		{"Threshold reads mintthresh.", "Threshold() uint", "return bound().Threshold()"},
		{"Interrupts returns the control-register block.", "Interrupts() clic.Interrupts", "return bound().Interrupts()"},
	}
	for _, f := range forwards {
		fmt.Fprintf(w, "// %s\nfunc %s {\n%s\n}\n\n", f.doc, f.sig, f.call)
	}
}
