// Command clicctl inspects and exercises the CLIC of a described platform,
// either through /dev/mem or a UIO device or on the simulator.
package main

import (
	"fmt"
	"log/slog"
	"os"
)

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func run(args []string) error {
	usage := func() {
		fmt.Fprintf(os.Stderr, "usage: clicctl <command> [flags]\n")
		fmt.Fprintf(os.Stderr, "commands:\n")
		fmt.Fprintf(os.Stderr, "  dump: print the control word of every described interrupt\n")
		fmt.Fprintf(os.Stderr, "  selftest: check the access layer against the simulator\n")
		os.Exit(1)
	}

	if len(args) < 1 {
		usage()
	}

	switch args[0] {
	case "dump":
		return dump(args[1:], os.Stdout)
	case "selftest":
		return selftest(args[1:], os.Stdout)
	default:
		usage()
		return nil
	}
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "clicctl: %v\n", err)
		os.Exit(1)
	}
}
