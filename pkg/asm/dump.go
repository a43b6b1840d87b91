package asm

import (
	"io"
	"sort"

	"github.com/k0kubun/pp/v3"
)

// dumper pretty-prints assembler tables for debugging.
type dumper struct {
	pp *pp.PrettyPrinter
}

func newDumper(w io.Writer) *dumper {
	p := pp.New()
	p.SetOutput(w)
	p.SetColoringEnabled(false)
	return &dumper{pp: p}
}

type macroView struct {
	Name string
	Args []string
	Body []string
}

type functionView struct {
	Signature string
	Body      []string
}

type moduleView struct {
	Macros    []macroView
	Structs   []string
	Externs   []string
	Includes  []string
	Data      []string
	Functions []functionView
	Program   []string
}

func lineStrings(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}

func viewMacros(ms []*Macro) []macroView {
	out := make([]macroView, len(ms))
	for i, m := range ms {
		out[i] = macroView{Name: m.Name, Args: m.Args, Body: lineStrings(m.Body)}
	}
	return out
}

func viewModule(m *Module) moduleView {
	v := moduleView{
		Macros:  viewMacros(m.Macros),
		Program: lineStrings(m.Program),
	}
	for _, s := range m.Structs {
		v.Structs = append(v.Structs, s.String())
	}
	for _, e := range m.Externs {
		v.Externs = append(v.Externs, e.String())
	}
	for _, inc := range m.Includes {
		v.Includes = append(v.Includes, inc.Target)
	}
	for _, d := range m.Data {
		v.Data = append(v.Data, d.String())
	}
	for _, f := range m.Functions {
		v.Functions = append(v.Functions, functionView{Signature: f.String(), Body: lineStrings(f.Body)})
	}
	return v
}

func (d *dumper) module(m *Module) {
	d.pp.Println(viewModule(m))
}

func (d *dumper) macros(ms []*Macro) {
	d.pp.Println(viewMacros(ms))
}

type labelView struct {
	Name  string
	Index uint64
}

func sortedLabels(labels map[string]uint64) []labelView {
	out := make([]labelView, 0, len(labels))
	for name, idx := range labels {
		out = append(out, labelView{Name: name, Index: idx})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (d *dumper) labels(labels map[string]uint64) {
	d.pp.Println(sortedLabels(labels))
}

// Dump writes the tables of p and of everything it imports to w.
func Dump(w io.Writer, p *Program) {
	d := newDumper(w)
	seen := make(map[*Program]bool)
	var walk func(*Program)
	walk = func(p *Program) {
		if seen[p] {
			return
		}
		seen[p] = true
		d.pp.Println(p.File)
		d.module(p.Module)
		d.labels(p.Labels)
		for _, imp := range p.Imports {
			walk(imp)
		}
	}
	walk(p)
}
