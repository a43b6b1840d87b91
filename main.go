package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/luminous-foundation/rasm/pkg/asm"
	"github.com/luminous-foundation/rasm/pkg/diag"
	"github.com/luminous-foundation/rasm/pkg/utils"
	"github.com/luminous-foundation/rasm/pkg/vfs"
)

const outputExt = ".rbc"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, diag.New(os.Stderr)))
}

func run(args []string, stdout, stderr io.Writer, report *diag.Printer) int {
	fs := flag.NewFlagSet("rasm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inPath := fs.String("in", "", "input assembly file path")
	outPath := fs.String("out", "", "output bytecode file path (default: input with "+outputExt+" extension)")
	debug := fs.Int("debug", 0, "debug level: 1 dumps tables, 2 also dumps every macro expansion pass")
	depth := fs.Int("depth", asm.DefaultMacroDepthLimit, "maximum number of macro expansion passes")
	rootDir := fs.String("root", "", "source tree root used to resolve includes (default: the input's directory)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *inPath == "" {
		fmt.Fprintln(stderr, "nothing to do: provide -in <file> to assemble")
		fs.Usage()
		return 2
	}
	if *depth <= 0 {
		fmt.Fprintln(stderr, "-depth must be positive")
		return 2
	}

	source, err := os.ReadFile(*inPath)
	if err != nil {
		report.Errorf("failed to read input file %q: %v", *inPath, err)
		return 1
	}

	root, rel, err := utils.SourcePaths(*inPath, *rootDir)
	if err != nil {
		report.Errorf("cannot locate input %q: %v", *inPath, err)
		return 2
	}
	file, err := vfs.Clean(rel)
	if err != nil {
		report.Errorf("input %q is not under root %q: %v", *inPath, root, err)
		return 2
	}

	disk := vfs.NewDisk()
	if err := disk.LoadFrom(root, vfs.SourceExt); err != nil {
		report.Errorf("failed to load source tree %q: %v", root, err)
		return 1
	}

	cfg := asm.DefaultConfig()
	cfg.MacroDepthLimit = *depth
	cfg.Debug = *debug
	cfg.Resolver = disk
	if *debug > 0 {
		cfg.Log = stderr
	}

	prog, err := asm.Assemble(file, source, cfg)
	if err != nil {
		report.Error(err)
		return 1
	}

	output := *outPath
	if output == "" {
		output = defaultOutputPath(*inPath)
	}
	if err := writeBinary(output, prog.Code); err != nil {
		report.Errorf("failed to write bytecode file %q: %v", output, err)
		return 1
	}
	fmt.Fprintf(stdout, "assembled %d bytes -> %s\n", len(prog.Code), output)

	// Imported modules are written next to the main output.
	out := vfs.NewDisk()
	for _, imp := range importsOf(prog) {
		if err := out.Write(imp.Name+outputExt, imp.Code); err != nil {
			report.Errorf("failed to stage module %q: %v", imp.Name, err)
			return 1
		}
		fmt.Fprintf(stdout, "assembled %d bytes -> %s\n", len(imp.Code), filepath.Join(filepath.Dir(output), imp.Name+outputExt))
	}
	if err := out.PersistTo(filepath.Dir(output)); err != nil {
		report.Errorf("failed to write imported modules: %v", err)
		return 1
	}
	return 0
}

// importsOf lists every module p imports, directly or not, once each, in
// first-seen order.
func importsOf(p *asm.Program) []*asm.Program {
	seen := map[*asm.Program]bool{p: true}
	var out []*asm.Program
	var walk func(*asm.Program)
	walk = func(p *asm.Program) {
		for _, imp := range p.Imports {
			if seen[imp] {
				continue
			}
			seen[imp] = true
			out = append(out, imp)
			walk(imp)
		}
	}
	walk(p)
	return out
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + outputExt
	}
	return strings.TrimSuffix(inPath, ext) + outputExt
}

func writeBinary(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
