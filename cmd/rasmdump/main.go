// Command rasmdump prints every stage of assembling a file: tokens, the
// extracted and expanded tables, resolved labels and the bytecode.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/k0kubun/pp/v3"

	"github.com/luminous-foundation/rasm/pkg/asm"
	"github.com/luminous-foundation/rasm/pkg/diag"
	"github.com/luminous-foundation/rasm/pkg/vfs"
)

const testSource = `.macro inc v {
ADD v 1 v
}

VOID main() {
VAR I32 i
MOV 0 i
: top
inc i
JL i 10 :top
RET
}
`

func main() {
	if err := dump(os.Stdout, os.Args[1:]); err != nil {
		diag.New(os.Stderr).Error(err)
		os.Exit(1)
	}
}

func dump(w io.Writer, args []string) error {
	file := "example.rasm"
	src := []byte(testSource)
	cfg := asm.DefaultConfig()

	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		src = data
		file = filepath.Base(args[0])

		disk := vfs.NewDisk()
		if err := disk.LoadFrom(filepath.Dir(args[0]), vfs.SourceExt); err != nil {
			return err
		}
		cfg.Resolver = disk
	}

	fmt.Fprintf(w, "Source:\n%s\n", src)

	lines, err := asm.TokenizeSource(file, string(src))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Tokens (%d lines)\n", len(lines))
	for _, l := range lines {
		fmt.Fprintf(w, "  %d: %s\n", l.Loc().Line, l)
	}
	fmt.Fprintln(w)

	mod, err := asm.Extract(lines)
	if err != nil {
		return err
	}
	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(false)
	fmt.Fprintln(w, "Declarations")
	printer.Println(map[string]int{
		"macros":    len(mod.Macros),
		"structs":   len(mod.Structs),
		"externs":   len(mod.Externs),
		"includes":  len(mod.Includes),
		"functions": len(mod.Functions),
		"data":      len(mod.Data),
		"program":   len(mod.Program),
	})
	fmt.Fprintln(w)

	prog, err := asm.AssembleLines(file, lines, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Tables")
	asm.Dump(w, prog)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Bytecode (%d bytes)\n", len(prog.Code))
	fmt.Fprint(w, hex.Dump(prog.Code))
	return nil
}
