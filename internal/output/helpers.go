package output

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// renderBar draws a fixed-width bar for percent in [0, 100].
func renderBar(percent float64, width int) string {
	if width <= 0 {
		width = 40
	}
	percent = max(0, min(percent, 100))
	filled := max(0, min(int(percent*float64(width)/100), width))
	bar := StyleSymbols["bullet"]
	bar += strings.Repeat(StyleSymbols["hline"], filled)
	bar += strings.Repeat(" ", width-filled)
	bar += StyleSymbols["bullet"]
	return bar
}

// terminalWidth reports the width of w when it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80, true
	}
	return width, true
}
