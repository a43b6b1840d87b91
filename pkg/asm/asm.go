package asm

import (
	"io"
	"log"
	"path"
	"strings"
)

// Config controls a single assembly run. The zero value is usable; see
// DefaultConfig.
type Config struct {
	// MacroDepthLimit caps the number of macro expansion passes.
	MacroDepthLimit int
	// Debug enables table dumps on Log: 1 after extraction and expansion,
	// 2 additionally after every macro expansion pass.
	Debug int
	Log   io.Writer
	// Resolver locates included modules. Includes fail to resolve when nil.
	Resolver Resolver
}

func DefaultConfig() Config {
	return Config{MacroDepthLimit: DefaultMacroDepthLimit}
}

// Program is the result of assembling one module.
type Program struct {
	Name string // module name, the file's base name without extension
	File string
	Code []byte
	// Module holds the declarations after macro expansion and label
	// resolution.
	Module *Module
	Labels map[string]uint64
	// Imports holds one entry per Module.Includes entry, in the same order.
	Imports []*Program
}

// Assembler compiles a root module and everything it includes. A module
// included more than once is compiled once.
type Assembler struct {
	cfg   Config
	log   *log.Logger
	dump  *dumper
	stack []string
	done  map[string]*Program
}

func NewAssembler(cfg Config) *Assembler {
	if cfg.MacroDepthLimit <= 0 {
		cfg.MacroDepthLimit = DefaultMacroDepthLimit
	}
	w := cfg.Log
	if w == nil {
		w = io.Discard
	}
	return &Assembler{
		cfg:  cfg,
		log:  log.New(w, "rasm: ", 0),
		dump: newDumper(w),
		done: make(map[string]*Program),
	}
}

// Assemble compiles src, read from file, into bytecode.
func Assemble(file string, src []byte, cfg Config) (*Program, error) {
	return NewAssembler(cfg).Assemble(file, src)
}

// AssembleLines compiles already tokenized lines.
func AssembleLines(file string, lines []Line, cfg Config) (*Program, error) {
	return NewAssembler(cfg).AssembleLines(file, lines)
}

func (a *Assembler) Assemble(file string, src []byte) (*Program, error) {
	lines, err := TokenizeSource(file, string(src))
	if err != nil {
		return nil, err
	}
	return a.AssembleLines(file, lines)
}

func (a *Assembler) AssembleLines(file string, lines []Line) (*Program, error) {
	a.stack = append(a.stack, file)
	defer func() { a.stack = a.stack[:len(a.stack)-1] }()

	lines, err := checkLines(file, lines)
	if err != nil {
		return nil, err
	}
	mod, err := Extract(lines)
	if err != nil {
		return nil, err
	}
	if a.cfg.Debug >= 1 {
		a.log.Printf("%s: extracted declarations", file)
		a.dump.module(mod)
	}

	var trace func(int, []*Macro)
	if a.cfg.Debug >= 2 {
		trace = func(pass int, table []*Macro) {
			a.log.Printf("%s: macro expansion pass %d", file, pass)
			a.dump.macros(table)
		}
	}
	macros, passes, err := expandMacros(mod.Macros, a.cfg.MacroDepthLimit, trace)
	if err != nil {
		return nil, err
	}
	a.log.Printf("%s: macros resolved after %d pass(es)", file, passes)

	expanded := &Module{
		Macros:   macros,
		Externs:  mod.Externs,
		Structs:  mod.Structs,
		Data:     mod.Data,
		Includes: mod.Includes,
	}
	if expanded.Program, err = ExpandLines(mod.Program, macros); err != nil {
		return nil, err
	}
	for _, f := range mod.Functions {
		body, err := ExpandLines(f.Body, macros)
		if err != nil {
			return nil, err
		}
		nf := *f
		nf.Body = body
		expanded.Functions = append(expanded.Functions, &nf)
	}

	units := make([][]Line, 0, len(expanded.Functions)+1)
	units = append(units, expanded.Program)
	for _, f := range expanded.Functions {
		units = append(units, f.Body)
	}
	units, labels, err := resolveLabels(units, true)
	if err != nil {
		return nil, err
	}
	expanded.Program = units[0]
	for i, f := range expanded.Functions {
		f.Body = units[i+1]
	}

	imports, err := a.imports(file, expanded.Includes)
	if err != nil {
		return nil, err
	}

	code, err := Emit(expanded, imports)
	if err != nil {
		return nil, err
	}

	p := &Program{
		Name:    moduleName(file),
		File:    file,
		Code:    code,
		Module:  expanded,
		Labels:  labels,
		Imports: imports,
	}
	if a.cfg.Debug >= 1 {
		a.log.Printf("%s: expanded declarations", file)
		a.dump.module(expanded)
		a.dump.labels(labels)
		a.log.Printf("%s: %d byte(s) of bytecode", file, len(code))
	}
	return p, nil
}

// checkLines drops lines without tokens and rejects lines whose tokens and
// locations are out of step.
func checkLines(file string, lines []Line) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for i, line := range lines {
		if len(line.Tokens) != len(line.Locs) {
			loc := line.Loc()
			if loc.File == "" {
				loc = Location{File: file, Line: i + 1, Col: 1}
			}
			return nil, newError(GrammarError, loc, "line has %d token(s) but %d location(s)", len(line.Tokens), len(line.Locs))
		}
		if line.Len() == 0 {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

func moduleName(file string) string {
	base := path.Base(strings.ReplaceAll(file, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
