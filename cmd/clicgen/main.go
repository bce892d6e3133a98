// Command clicgen generates the Go binding package of a CLIC platform from
// its YAML description.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tinyrange/clic/internal/platform"
)

type clicgen struct {
	logger *slog.Logger
}

func (g *clicgen) Main(args []string) error {
	fs := flag.NewFlagSet("clicgen", flag.ExitOnError)

	in := fs.String("in", "", "Platform description to read")
	out := fs.String("out", "", "Directory to write clic.go to")
	debug := fs.Bool("debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	g.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *in == "" {
		return fmt.Errorf("in is required")
	}
	if *out == "" {
		return fmt.Errorf("out is required")
	}

	desc, err := platform.Load(*in)
	if err != nil {
		return err
	}
	g.logger.Debug("loaded description",
		"package", desc.Package,
		"base", fmt.Sprintf("0x%x", desc.Base),
		"interrupts", len(desc.Interrupts),
		"levels", len(desc.Priorities.Levels),
	)

	src, err := platform.Generate(desc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", *out, err)
	}
	path := filepath.Join(*out, "clic.go")
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	g.logger.Info("generated platform package", "package", desc.Package, "path", path)
	return nil
}

func main() {
	g := &clicgen{}
	if err := g.Main(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "clicgen: %v\n", err)
		os.Exit(1)
	}
}
