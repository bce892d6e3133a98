// Package platform reads CLIC platform descriptions and generates the Go
// package that binds a platform's interrupt sources and priority levels to
// the clic access layer.
package platform

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"slices"
	"strings"

	"github.com/tinyrange/clic"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// DefaultCLICVersion is assumed when a description names no clic_version.
const DefaultCLICVersion = "v0.9"

// Description is a platform description file.
type Description struct {
	// Package is the name of the generated Go package.
	Package string `yaml:"package"`
	// Base is the physical address of the CLIC register block.
	Base uint64 `yaml:"base"`
	// CLICVersion is the CLIC draft the hardware implements.
	CLICVersion string `yaml:"clic_version,omitempty"`
	// MaxInterrupt is the highest source number. Defaults to the highest
	// number declared in Interrupts.
	MaxInterrupt uint16 `yaml:"max_interrupt,omitempty"`
	// CtlBits is the number of implemented clicintctl bits, 0 to 8. Left
	// out, all 8 are implemented; use IntCtlBits to read it.
	CtlBits *uint8 `yaml:"ctl_bits,omitempty"`

	Interrupts []Source   `yaml:"interrupts"`
	Priorities Priorities `yaml:"priorities"`
}

// Source is a named interrupt source.
type Source struct {
	Name string `yaml:"name"`
	Line uint16 `yaml:"number"`
}

// Number implements clic.InterruptNumber.
func (s Source) Number() uint16 { return s.Line }

// Level is a named priority level.
type Level struct {
	Name  string `yaml:"name"`
	Value uint8  `yaml:"number"`
}

// Number implements clic.PriorityNumber.
func (l Level) Number() uint8 { return l.Value }

// Priorities is either a level count, `{levels: N}`, naming levels P0 to
// P(N-1), or an explicit list of named levels.
type Priorities struct {
	Levels []Level
}

func (p *Priorities) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&p.Levels)
	}

	var count struct {
		Levels int `yaml:"levels"`
	}
	if err := node.Decode(&count); err != nil {
		return err
	}
	if count.Levels < 1 || count.Levels > 256 {
		return fmt.Errorf("line %d: levels must be between 1 and 256, got %d", node.Line, count.Levels)
	}
	p.Levels = make([]Level, count.Levels)
	for i := range p.Levels {
		p.Levels[i] = Level{Name: fmt.Sprintf("P%d", i), Value: uint8(i)}
	}
	return nil
}

func (p Priorities) MarshalYAML() (any, error) {
	return p.Levels, nil
}

// reserved are identifiers the generated package declares itself.
var reserved = []string{
	"Interrupt", "Priority", "CLIC", "CLICBase", "CtlBits",
	"Bind", "Enable", "Disable", "IsEnabled", "SetThreshold", "Threshold", "Interrupts",
}

// Load reads and validates the description at path.
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("platform: read %s: %w", path, err)
	}
	desc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("platform: %s: %w", path, err)
	}
	return desc, nil
}

// Parse decodes and validates a description.
func Parse(data []byte) (*Description, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parse description: %w", err)
	}
	desc.normalize()
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &desc, nil
}

func (d *Description) normalize() {
	if d.CLICVersion == "" {
		d.CLICVersion = DefaultCLICVersion
	}
	if !strings.HasPrefix(d.CLICVersion, "v") {
		d.CLICVersion = "v" + d.CLICVersion
	}
	if d.CtlBits == nil {
		bits := uint8(8)
		d.CtlBits = &bits
	}
	if d.MaxInterrupt == 0 {
		for _, s := range d.Interrupts {
			d.MaxInterrupt = max(d.MaxInterrupt, s.Line)
		}
	}
}

// Validate checks the description. Source and level numbers are held to the
// same obligations the clic tables enforce at run time.
func (d *Description) Validate() error {
	var errs []error

	if !token.IsIdentifier(d.Package) {
		errs = append(errs, fmt.Errorf("package %q is not a valid identifier", d.Package))
	}
	if d.Base%4096 != 0 {
		errs = append(errs, fmt.Errorf("base 0x%x is not 4 KiB aligned", d.Base))
	}
	if !semver.IsValid(d.CLICVersion) {
		errs = append(errs, fmt.Errorf("clic_version %q is not a semantic version", d.CLICVersion))
	} else if semver.Major(d.CLICVersion) != "v0" {
		errs = append(errs, fmt.Errorf("clic_version %s is not supported, only v0 drafts are", d.CLICVersion))
	}
	if bits := d.IntCtlBits(); bits > 8 {
		errs = append(errs, fmt.Errorf("ctl_bits %d exceeds 8", bits))
	}

	names := map[string]string{}
	checkName := func(kind, name string) {
		switch {
		case !token.IsIdentifier(name) || !token.IsExported(name):
			errs = append(errs, fmt.Errorf("%s name %q is not an exported identifier", kind, name))
		case slices.Contains(reserved, name):
			errs = append(errs, fmt.Errorf("%s name %q is reserved", kind, name))
		case names[name] != "":
			errs = append(errs, fmt.Errorf("%s name %q is already declared as %s", kind, name, names[name]))
		default:
			names[name] = kind
		}
	}

	lines := make([]uint16, 0, len(d.Interrupts))
	for _, s := range d.Interrupts {
		checkName("interrupt", s.Name)
		lines = append(lines, s.Line)
	}
	if _, err := clic.NewInterruptTable(d.MaxInterrupt, lines...); err != nil {
		errs = append(errs, err)
	}

	values := make([]uint8, 0, len(d.Priorities.Levels))
	for _, l := range d.Priorities.Levels {
		checkName("priority", l.Name)
		values = append(values, l.Value)
	}
	if _, err := clic.NewPriorityTable(d.MaxPriority(), values...); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// IntCtlBits returns the number of implemented clicintctl bits, 8 when the
// description does not say.
func (d *Description) IntCtlBits() uint8 {
	if d.CtlBits == nil {
		return 8
	}
	return *d.CtlBits
}

// MaxPriority returns the highest declared priority level.
func (d *Description) MaxPriority() uint8 {
	var m uint8
	for _, l := range d.Priorities.Levels {
		m = max(m, l.Value)
	}
	return m
}

// Sources returns the interrupt sources ordered by number.
func (d *Description) Sources() []Source {
	s := slices.Clone(d.Interrupts)
	slices.SortFunc(s, func(a, b Source) int { return int(a.Line) - int(b.Line) })
	return s
}

// Levels returns the priority levels ordered by number.
func (d *Description) Levels() []Level {
	l := slices.Clone(d.Priorities.Levels)
	slices.SortFunc(l, func(a, b Level) int { return int(a.Value) - int(b.Value) })
	return l
}

// Source returns the interrupt source called name.
func (d *Description) Source(name string) (Source, bool) {
	i := slices.IndexFunc(d.Interrupts, func(s Source) bool { return s.Name == name })
	if i < 0 {
		return Source{}, false
	}
	return d.Interrupts[i], true
}
