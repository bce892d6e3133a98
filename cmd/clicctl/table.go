package main

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

var (
	headerStyle = ansi.Style{}.Bold()
	onStyle     = ansi.Style{}.ForegroundColor(ansi.Green)
	offStyle    = ansi.Style{}.Faint()
	failStyle   = ansi.Style{}.Bold().ForegroundColor(ansi.Red)
)

// isTerminal reports whether w is a terminal that escape sequences can be
// written to.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// table is a column-aligned text table. Cells may contain SGR sequences;
// widths are measured on the visible text.
type table struct {
	styled bool
	header []string
	rows   [][]string
}

func (t *table) style(s ansi.Style, text string) string {
	if !t.styled {
		return text
	}
	return s.Styled(text)
}

// flag renders a one-bit register field.
func (t *table) flag(v bool) string {
	if v {
		return t.style(onStyle, "yes")
	}
	return t.style(offStyle, "no")
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) write(w io.Writer) error {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = ansi.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], ansi.StringWidth(cell))
		}
	}

	var b strings.Builder
	line := func(cells []string, style func(string) string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(style(cell))
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-ansi.StringWidth(cell)))
			}
		}
		b.WriteByte('\n')
	}

	line(t.header, func(s string) string { return t.style(headerStyle, s) })
	for _, row := range t.rows {
		line(row, func(s string) string { return s })
	}

	_, err := io.WriteString(w, b.String())
	return err
}
