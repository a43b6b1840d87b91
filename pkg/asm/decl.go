package asm

import (
	"fmt"
	"slices"
	"strings"
)

// Param is a (type, name) pair: a function or extern argument, or a struct field.
type Param struct {
	Type Type
	Name string
}

// Macro is a `.macro NAME ARG* { ... }` definition.
type Macro struct {
	Loc  Location
	Name string
	Args []string
	Body []Line
}

// Function is a `TYPE NAME(TYPE NAME, ...) { ... }` definition.
type Function struct {
	Loc    Location
	Name   string
	Return Type
	Params []Param
	Body   []Line
}

// Extern declares a function provided by a dynamic library. Access is the
// symbol looked up in Lib; it equals Name unless given explicitly.
type Extern struct {
	Loc    Location
	Name   string
	Access string
	Return Type
	Params []Param
	Lib    string
}

type Struct struct {
	Loc    Location
	Name   string
	Fields []Param
}

// Data is one item of the `.data` section with its encoded payload.
type Data struct {
	Loc   Location
	Name  string
	Type  Type
	Bytes []byte
}

// Include is an `.include "path"` or `.include NAME` directive.
type Include struct {
	Loc    Location
	Target string
	Quoted bool
}

func (p Param) String() string { return p.Type.String() + " " + p.Name }

func paramList(ps []Param) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

func (f *Function) String() string {
	return fmt.Sprintf("%s %s(%s)", f.Return, f.Name, paramList(f.Params))
}

func (e *Extern) String() string {
	return fmt.Sprintf("%s %s(%s) %q @ %q", e.Return, e.Name, paramList(e.Params), e.Access, e.Lib)
}

func (s *Struct) String() string {
	return fmt.Sprintf("struct %s { %s }", s.Name, paramList(s.Fields))
}

func (d *Data) String() string {
	return fmt.Sprintf("%s %s (%d bytes)", d.Name, d.Type, len(d.Bytes))
}

// Module holds every declaration extracted from one source file, in
// declaration order, plus the top-level lines that belong to no declaration.
type Module struct {
	Macros    []*Macro
	Functions []*Function
	Externs   []*Extern
	Structs   []*Struct
	Data      []*Data
	Includes  []*Include
	Program   []Line
}

func (m *Module) Function(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (m *Module) Extern(name string) *Extern {
	for _, e := range m.Externs {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func (m *Module) Macro(name string) *Macro {
	for _, mac := range m.Macros {
		if mac.Name == name {
			return mac
		}
	}
	return nil
}

func (m *Module) Struct(name string) *Struct {
	for _, s := range m.Structs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

type extractor struct {
	lines   []Line
	claimed []bool
	mod     *Module
}

// Extract scans lines once per declaration kind and returns the resulting
// tables. Macros are extracted first; later scans skip lines that an earlier
// scan already claimed.
func Extract(lines []Line) (*Module, error) {
	lines = slices.DeleteFunc(slices.Clone(lines), func(l Line) bool { return l.Len() == 0 })
	x := &extractor{
		lines:   lines,
		claimed: make([]bool, len(lines)),
		mod:     &Module{},
	}

	scans := []func() error{
		x.macros,
		x.structs,
		x.externs,
		x.includes,
		x.data,
		x.functions,
	}
	for _, scan := range scans {
		if err := scan(); err != nil {
			return nil, err
		}
	}

	for i, line := range lines {
		if x.claimed[i] {
			continue
		}
		if line.Tokens[0].Kind == Dot {
			if line.Len() > 1 && line.Tokens[1].Kind == Ident {
				return nil, newError(GrammarError, line.Loc(), "unknown directive .%s", line.Tokens[1].Text)
			}
			return nil, expected(line, 1, "directive name")
		}
		x.mod.Program = append(x.mod.Program, line.clone())
	}
	return x.mod, nil
}

func (x *extractor) claim(from, to int) {
	for i := from; i <= to && i < len(x.claimed); i++ {
		x.claimed[i] = true
	}
}

// isDirective reports whether line starts with `. name`.
func isDirective(line Line, name string) bool {
	if line.Len() < 2 || line.Tokens[0].Kind != Dot {
		return false
	}
	return line.Tokens[1].Kind == Ident && strings.EqualFold(line.Tokens[1].Text, name)
}

func isStructDirective(line Line) bool {
	return line.Len() >= 2 && line.Tokens[0].Kind == Dot &&
		line.Tokens[1].Kind == TypeTok && line.Tokens[1].Type.Is(STRUCT)
}

func isLone(line Line, k Kind) bool {
	return line.Len() == 1 && line.Tokens[0].Kind == k
}

// openBlock checks that a header line ends in `{` at index j, or that the
// next line is a lone `{`. It returns the index of the line holding the brace.
func (x *extractor) openBlock(i, j int) (int, error) {
	line := x.lines[i]
	if j < line.Len() {
		if line.Tokens[j].Kind != LCurly {
			return 0, expected(line, j, "LCURLY")
		}
		if j != line.Len()-1 {
			return 0, expected(line, j+1, "end of line")
		}
		return i, nil
	}
	if i+1 >= len(x.lines) || x.claimed[i+1] || !isLone(x.lines[i+1], LCurly) {
		if i+1 < len(x.lines) {
			return 0, expected(x.lines[i+1], 0, "LCURLY")
		}
		return 0, expected(line, j, "LCURLY")
	}
	return i + 1, nil
}

// closeBlock collects lines after open until a line that contains `}`.
// It returns the body and the index of the closing line.
func (x *extractor) closeBlock(open int, what string, start Location) ([]Line, int, error) {
	var body []Line
	for i := open + 1; i < len(x.lines); i++ {
		line := x.lines[i]
		if line.Contains(RCurly) {
			if !isLone(line, RCurly) {
				return nil, 0, newError(GrammarError, line.Loc(), "closing brace of %s must be on its own line", what)
			}
			return body, i, nil
		}
		body = append(body, line.clone())
	}
	return nil, 0, newError(GrammarError, start, "unterminated %s, expected RCURLY", what)
}

func (x *extractor) macros() error {
	seen := make(map[string]*Macro)
	for i := 0; i < len(x.lines); i++ {
		line := x.lines[i]
		if !isDirective(line, "macro") {
			continue
		}
		if line.Len() < 3 || line.Tokens[2].Kind != Ident {
			return expected(line, 2, "IDENT")
		}
		m := &Macro{Loc: line.Loc(), Name: line.Tokens[2].Text}

		j := 3
		for ; j < line.Len() && line.Tokens[j].Kind != LCurly; j++ {
			tok := line.Tokens[j]
			if tok.Kind == Comma {
				continue
			}
			if tok.Kind != Ident {
				return expected(line, j, "IDENT")
			}
			for _, a := range m.Args {
				if a == tok.Text {
					return newError(DuplicateDefinitionError, line.Locs[j], "found duplicate macro argument %q in macro %q", tok.Text, m.Name)
				}
			}
			m.Args = append(m.Args, tok.Text)
		}

		open, err := x.openBlock(i, j)
		if err != nil {
			return err
		}
		body, end, err := x.closeBlock(open, "macro "+m.Name, m.Loc)
		if err != nil {
			return err
		}
		m.Body = body

		if prev, ok := seen[m.Name]; ok {
			e := newError(DuplicateDefinitionError, m.Loc, "redefinition of macro %q", m.Name)
			e.Notes = append(e.Notes, Note{Loc: prev.Loc, Msg: "previously defined here"})
			return e
		}
		seen[m.Name] = m
		x.mod.Macros = append(x.mod.Macros, m)
		x.claim(i, end)
		i = end
	}
	return nil
}

func (x *extractor) structs() error {
	for i := 0; i < len(x.lines); i++ {
		line := x.lines[i]
		if x.claimed[i] || !isStructDirective(line) {
			continue
		}
		if line.Len() < 3 || line.Tokens[2].Kind != Ident {
			return expected(line, 2, "IDENT")
		}
		s := &Struct{Loc: line.Loc(), Name: line.Tokens[2].Text}

		open, err := x.openBlock(i, 3)
		if err != nil {
			return err
		}
		body, end, err := x.closeBlock(open, "struct "+s.Name, s.Loc)
		if err != nil {
			return err
		}

		names := make(map[string]bool)
		for _, fl := range body {
			for j := 0; j < fl.Len(); j += 2 {
				if fl.Tokens[j].Kind != TypeTok {
					return expected(fl, j, "TYPE")
				}
				if j+1 >= fl.Len() || fl.Tokens[j+1].Kind != Ident {
					return expected(fl, j+1, "IDENT")
				}
				name := fl.Tokens[j+1].Text
				if names[name] {
					return newError(DuplicateDefinitionError, fl.Locs[j+1], "duplicate field %q in struct %q", name, s.Name)
				}
				names[name] = true
				s.Fields = append(s.Fields, Param{Type: fl.Tokens[j].Type, Name: name})
				if j+2 < fl.Len() && fl.Tokens[j+2].Kind == Comma {
					j++
				}
			}
		}

		if prev := x.mod.Struct(s.Name); prev != nil {
			e := newError(DuplicateDefinitionError, s.Loc, "redefinition of struct %q", s.Name)
			e.Notes = append(e.Notes, Note{Loc: prev.Loc, Msg: "previously defined here"})
			return e
		}
		x.mod.Structs = append(x.mod.Structs, s)
		x.claim(i, end)
		i = end
	}
	return nil
}

// signature parses `TYPE NAME ( (TYPE NAME ,?)* )` starting at token j and
// returns the index just past the closing paren.
func signature(line Line, j int) (ret Type, name string, params []Param, next int, err error) {
	if j >= line.Len() || line.Tokens[j].Kind != TypeTok {
		return nil, "", nil, 0, expected(line, j, "TYPE")
	}
	ret = line.Tokens[j].Type
	if j+1 >= line.Len() || line.Tokens[j+1].Kind != Ident {
		return nil, "", nil, 0, expected(line, j+1, "IDENT")
	}
	name = line.Tokens[j+1].Text
	if j+2 >= line.Len() || line.Tokens[j+2].Kind != LParen {
		return nil, "", nil, 0, expected(line, j+2, "LPAREN")
	}

	k := j + 3
	seen := make(map[string]bool)
	for {
		if k >= line.Len() {
			return nil, "", nil, 0, expected(line, k, "RPAREN")
		}
		if line.Tokens[k].Kind == RParen {
			return ret, name, params, k + 1, nil
		}
		if line.Tokens[k].Kind != TypeTok {
			return nil, "", nil, 0, expected(line, k, "TYPE")
		}
		if k+1 >= line.Len() || line.Tokens[k+1].Kind != Ident {
			return nil, "", nil, 0, expected(line, k+1, "IDENT")
		}
		pname := line.Tokens[k+1].Text
		if seen[pname] {
			return nil, "", nil, 0, newError(DuplicateDefinitionError, line.Locs[k+1], "duplicate argument %q in %q", pname, name)
		}
		seen[pname] = true
		params = append(params, Param{Type: line.Tokens[k].Type, Name: pname})
		k += 2
		if k < line.Len() && line.Tokens[k].Kind == Comma {
			k++
		}
	}
}

func (x *extractor) externs() error {
	for i, line := range x.lines {
		if x.claimed[i] || !isDirective(line, "extern") {
			continue
		}
		ret, name, params, k, err := signature(line, 2)
		if err != nil {
			return err
		}
		e := &Extern{Loc: line.Loc(), Name: name, Access: name, Return: ret, Params: params}

		rest := line.Tokens[k:]
		if len(rest) == 0 || rest[len(rest)-1].Kind != String {
			return expected(line, line.Len(), "STRING")
		}
		e.Lib = rest[len(rest)-1].Text
		rest = rest[:len(rest)-1]
		if len(rest) > 0 && rest[len(rest)-1].IsIdent("@") {
			rest = rest[:len(rest)-1]
		}
		if len(rest) == 1 && rest[0].Kind == String {
			e.Access = rest[0].Text
			rest = rest[1:]
		}
		if len(rest) != 0 {
			return expected(line, k, "STRING")
		}

		if err := x.checkCallable(name, e.Loc); err != nil {
			return err
		}
		x.mod.Externs = append(x.mod.Externs, e)
		x.claim(i, i)
	}
	return nil
}

func (x *extractor) checkCallable(name string, loc Location) error {
	var prev Location
	switch {
	case x.mod.Extern(name) != nil:
		prev = x.mod.Extern(name).Loc
	case x.mod.Function(name) != nil:
		prev = x.mod.Function(name).Loc
	default:
		return nil
	}
	e := newError(DuplicateDefinitionError, loc, "redefinition of %q", name)
	e.Notes = append(e.Notes, Note{Loc: prev, Msg: "previously defined here"})
	return e
}

func (x *extractor) includes() error {
	for i, line := range x.lines {
		if x.claimed[i] || !isDirective(line, "include") {
			continue
		}
		if line.Len() != 3 {
			return expected(line, min(line.Len(), 3), "STRING or IDENT")
		}
		tok := line.Tokens[2]
		switch tok.Kind {
		case String:
			x.mod.Includes = append(x.mod.Includes, &Include{Loc: line.Loc(), Target: tok.Text, Quoted: true})
		case Ident:
			x.mod.Includes = append(x.mod.Includes, &Include{Loc: line.Loc(), Target: tok.Text})
		default:
			return expected(line, 2, "STRING or IDENT")
		}
		x.claim(i, i)
	}
	return nil
}

func (x *extractor) data() error {
	inSection := false
	for i, line := range x.lines {
		if x.claimed[i] {
			continue
		}
		if isDirective(line, "data") {
			if line.Len() != 2 {
				return expected(line, 2, "end of line")
			}
			inSection = true
			x.claim(i, i)
			continue
		}
		if !inSection {
			continue
		}

		if line.Tokens[0].Kind != Ident {
			return expected(line, 0, "IDENT")
		}
		if line.Len() < 2 || line.Tokens[1].Kind != TypeTok {
			return expected(line, 1, "TYPE")
		}
		if line.Len() != 3 {
			return expected(line, min(line.Len(), 3), "a single value")
		}
		d := &Data{Loc: line.Loc(), Name: line.Tokens[0].Text, Type: line.Tokens[1].Type}

		val := line.Tokens[2]
		switch val.Kind {
		case String:
			d.Bytes = []byte(val.Text)
		case Number:
			d.Bytes = encodeNumber(nil, val.Num)
		case TypeTok:
			d.Bytes = encodeType(nil, val.Type)
		default:
			return newError(UnimplementedFeatureError, line.Locs[2], "data values of kind %s are not supported yet", val.Kind)
		}

		for _, prev := range x.mod.Data {
			if prev.Name == d.Name {
				e := newError(DuplicateDefinitionError, d.Loc, "redefinition of data value %q", d.Name)
				e.Notes = append(e.Notes, Note{Loc: prev.Loc, Msg: "previously defined here"})
				return e
			}
		}
		x.mod.Data = append(x.mod.Data, d)
		x.claim(i, i)
	}
	return nil
}

func isFunctionHeader(line Line) bool {
	return line.Len() >= 3 &&
		line.Tokens[0].Kind == TypeTok &&
		line.Tokens[1].Kind == Ident &&
		line.Tokens[2].Kind == LParen
}

func (x *extractor) functions() error {
	for i := 0; i < len(x.lines); i++ {
		line := x.lines[i]
		if x.claimed[i] || !isFunctionHeader(line) {
			continue
		}
		ret, name, params, k, err := signature(line, 0)
		if err != nil {
			return err
		}
		f := &Function{Loc: line.Loc(), Name: name, Return: ret, Params: params}

		open, err := x.openBlock(i, k)
		if err != nil {
			return err
		}
		body, end, err := x.functionBody(open, f)
		if err != nil {
			return err
		}
		f.Body = body

		if err := x.checkCallable(name, f.Loc); err != nil {
			return err
		}
		x.mod.Functions = append(x.mod.Functions, f)
		x.claim(i, end)
		i = end
	}
	return nil
}

// functionBody collects body lines, keeping nested `{ ... }` blocks, until
// the `}` that closes the function.
func (x *extractor) functionBody(open int, f *Function) ([]Line, int, error) {
	var body []Line
	depth := 1
	for i := open + 1; i < len(x.lines); i++ {
		line := x.lines[i]
		if isLone(line, RCurly) {
			depth--
			if depth == 0 {
				return body, i, nil
			}
		} else if last, _ := line.Last(); last.Kind == LCurly {
			depth++
		}
		body = append(body, line.clone())
	}
	return nil, 0, newError(GrammarError, f.Loc, "unterminated function %q, expected RCURLY", f.Name)
}
