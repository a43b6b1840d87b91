// Package diag prints assembler diagnostics, colored when writing to a
// terminal.
package diag

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/luminous-foundation/rasm/pkg/asm"
)

const (
	reset = "\x1b[0m"
	bold  = "\x1b[1m"
	red   = "\x1b[31m"
	cyan  = "\x1b[36m"
)

type Printer struct {
	w     io.Writer
	color bool
}

// New returns a Printer for f. Color is enabled when f is a terminal and
// the NO_COLOR environment variable is unset.
func New(f *os.File) *Printer {
	fd := f.Fd()
	color := (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && os.Getenv("NO_COLOR") == ""
	if !color {
		return &Printer{w: f}
	}
	return &Printer{w: colorable.NewColorable(f), color: true}
}

// NewPlain returns a Printer that never emits escape sequences.
func NewPlain(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + reset
}

// Error prints err. An *asm.Error is printed as
//
//	file:line:col ERROR: message
//	file:line:col NOTE: note
//
// anything else as a single unlocated ERROR line.
func (p *Printer) Error(err error) {
	var e *asm.Error
	if !errors.As(err, &e) {
		fmt.Fprintf(p.w, "%s %v\n", p.paint(bold+red, "ERROR:"), err)
		return
	}
	fmt.Fprintf(p.w, "%s %s %s\n", p.paint(bold, e.Loc.String()), p.paint(bold+red, "ERROR:"), e.Msg)
	for _, n := range e.Notes {
		p.Note(n.Loc, n.Msg)
	}
}

func (p *Printer) Note(loc asm.Location, msg string) {
	fmt.Fprintf(p.w, "%s %s %s\n", p.paint(bold, loc.String()), p.paint(bold+cyan, "NOTE:"), msg)
}

// Errorf prints an unlocated error, such as a failure to read the input.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint(bold+red, "ERROR:"), fmt.Sprintf(format, args...))
}
