package cli

import (
	"bytes"
	"io"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	defaultWidth  = 80
	maxProseWidth = 100
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// isInputTerminal reports whether stdin is interactive, so prompting is
// possible.
func isInputTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalWidth returns the stdout width, or defaultWidth when stdout is
// not a terminal.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// highlight writes src to w, syntax-coloured as lang when w is a colour
// terminal.
func highlight(w io.Writer, src, lang string) error {
	profile := termenv.EnvColorProfile()
	if !isTerminal(w) || profile == termenv.Ascii {
		_, err := io.WriteString(w, src)
		return err
	}
	formatter := "terminal256"
	if profile == termenv.TrueColor {
		formatter = "terminal16m"
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, src, lang, formatter, "monokai"); err != nil {
		_, err = io.WriteString(w, src)
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// renderProse renders markdown for w. Terminals get styled output sized to
// the window; pipes get plain wrapped text.
func renderProse(w io.Writer, md string) string {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(min(terminalWidth(), maxProseWidth))}
	if isTerminal(w) {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle("notty"))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
