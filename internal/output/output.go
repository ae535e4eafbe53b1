// Package output writes status lines for parley's headless commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	CheckMark   = "✓"
	XMark       = "✗"
	WarningMark = "!"
	InfoMark    = "ℹ"
)

// Writer handles CLI output.
type Writer struct {
	Out     io.Writer
	Err     io.Writer
	colored bool

	successColor *color.Color
	errorColor   *color.Color
	warningColor *color.Color
	infoColor    *color.Color
	mutedColor   *color.Color
}

// Default returns a Writer for stdout/stderr, colored when stdout is a terminal.
func Default() *Writer {
	return NewWriter(os.Stdout, os.Stderr, IsTerminal(os.Stdout))
}

// NewWriter creates a Writer with custom writers.
func NewWriter(out, err io.Writer, colored bool) *Writer {
	w := &Writer{
		Out:          out,
		Err:          err,
		successColor: color.New(color.FgGreen),
		errorColor:   color.New(color.FgRed),
		warningColor: color.New(color.FgYellow),
		infoColor:    color.New(color.FgCyan),
		mutedColor:   color.New(color.FgHiBlack),
	}
	w.SetColor(colored)
	return w
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColor turns ANSI colors on or off for this writer.
func (w *Writer) SetColor(enabled bool) {
	w.colored = enabled
	for _, c := range []*color.Color{w.successColor, w.errorColor, w.warningColor, w.infoColor, w.mutedColor} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// Colored reports whether styled output is enabled.
func (w *Writer) Colored() bool {
	return w.colored
}

// Println writes a line to stdout.
func (w *Writer) Println(args ...interface{}) {
	fmt.Fprintln(w.Out, args...)
}

// PrintJSON outputs structured data as indented JSON.
func (w *Writer) PrintJSON(v interface{}) error {
	enc := json.NewEncoder(w.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (w *Writer) writeStatus(writer io.Writer, tone *color.Color, prefix, message string) {
	tone.Fprint(writer, prefix+" ")
	fmt.Fprintln(writer, message)
}

// Success writes a message with a checkmark.
func (w *Writer) Success(format string, args ...interface{}) {
	w.writeStatus(w.Out, w.successColor, CheckMark, fmt.Sprintf(format, args...))
}

// Failure writes an error message with an X mark to stderr.
func (w *Writer) Failure(format string, args ...interface{}) {
	w.writeStatus(w.Err, w.errorColor, XMark, fmt.Sprintf(format, args...))
}

// Warning writes a warning message.
func (w *Writer) Warning(format string, args ...interface{}) {
	w.writeStatus(w.Out, w.warningColor, WarningMark, fmt.Sprintf(format, args...))
}

// Info writes an info message.
func (w *Writer) Info(format string, args ...interface{}) {
	w.writeStatus(w.Out, w.infoColor, InfoMark, fmt.Sprintf(format, args...))
}

// Muted writes gray text.
func (w *Writer) Muted(format string, args ...interface{}) {
	w.mutedColor.Fprintln(w.Out, fmt.Sprintf(format, args...))
}
