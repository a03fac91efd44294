package diag

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// Render writes a human-readable rendering of d to w: the "file:line:col:
// severity: message" header, a source snippet with an underline beneath
// the offending range, and any hints — truncating the snippet to the
// terminal width when w is a terminal, as pkg/util/termio does for
// go-corset's CLI diagnostics.
func Render(w io.Writer, d *Diagnostic) {
	fmt.Fprintln(w, d.Error())
	if !d.HasRange {
		return
	}
	width := terminalWidth(w)
	line, col := d.Range.Start.Buffer.GetLineColumn(d.Range.Start.Offset)
	_ = line
	text := string(d.Range.Text())
	if len(text) > width && width > 0 {
		text = text[:width]
	}
	fmt.Fprintf(w, "    %s\n", text)
	fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", col-col), strings.Repeat("^", max(1, len(text))))
	for _, h := range d.Hints {
		fmt.Fprintf(w, "  hint: %s\n", h)
	}
}

func terminalWidth(w io.Writer) int {
	type fdWriter interface {
		Fd() uintptr
	}
	if f, ok := w.(fdWriter); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 120
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
