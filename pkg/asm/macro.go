package asm

import (
	"fmt"
	"sort"
)

// DefaultMacroDepthLimit is the number of expansion passes after which macro
// expansion is considered unresolved.
const DefaultMacroDepthLimit = 16

// ExpandMacros rewrites macro bodies until no body invokes another macro.
//
// Every pass builds a new table: each body line whose first token names a
// macro is replaced by that macro's original definition, with its formal
// arguments substituted positionally from the invoking line. A chain of D
// nested invocations therefore needs D rewriting passes plus one pass that
// changes nothing, and resolves iff D < limit. The number of passes used is
// returned alongside the expanded table.
func ExpandMacros(macros []*Macro, limit int) ([]*Macro, int, error) {
	return expandMacros(macros, limit, nil)
}

// expandMacros calls trace, if set, with the table produced by every pass.
func expandMacros(macros []*Macro, limit int, trace func(pass int, table []*Macro)) ([]*Macro, int, error) {
	if limit <= 0 {
		limit = DefaultMacroDepthLimit
	}
	defs := macroTable(macros)

	current := macros
	var changed []*Macro
	for pass := 1; pass <= limit; pass++ {
		changed = changed[:0]
		next := make([]*Macro, len(current))
		for i, m := range current {
			body, n, err := substitute(m.Body, defs, false)
			if err != nil {
				return nil, pass, err
			}
			if n > 0 {
				changed = append(changed, m)
			}
			next[i] = &Macro{Loc: m.Loc, Name: m.Name, Args: m.Args, Body: body}
		}
		if trace != nil {
			trace(pass, next)
		}
		if len(changed) == 0 {
			return next, pass, nil
		}
		current = next
	}

	sort.Slice(changed, func(i, j int) bool { return changed[i].Name < changed[j].Name })
	primary := changed[0]
	e := newError(MacroDepthExceededError, primary.Loc,
		"macro %q is still unresolved after %d expansion passes (recursive or nested too deeply)", primary.Name, limit)
	for _, m := range changed[1:] {
		e.Notes = append(e.Notes, Note{Loc: m.Loc, Msg: fmt.Sprintf("macro %q is also unresolved", m.Name)})
	}
	return nil, limit, e
}

// ExpandLines performs a single substitution pass over lines using an already
// expanded macro table. Every inserted line takes the location of the line
// that invoked the macro; substituted arguments keep their own locations.
func ExpandLines(lines []Line, macros []*Macro) ([]Line, error) {
	out, _, err := substitute(lines, macroTable(macros), true)
	return out, err
}

func macroTable(macros []*Macro) map[string]*Macro {
	table := make(map[string]*Macro, len(macros))
	for _, m := range macros {
		table[m.Name] = m
	}
	return table
}

// substitute replaces every macro invocation in lines by the invoked body.
// It returns the new lines and the number of invocations replaced.
func substitute(lines []Line, table map[string]*Macro, stamp bool) ([]Line, int, error) {
	out := make([]Line, 0, len(lines))
	count := 0
	for _, line := range lines {
		if line.Len() == 0 {
			continue
		}
		head := line.Tokens[0]
		m, ok := table[head.Text]
		if head.Kind != Ident || !ok {
			out = append(out, line)
			continue
		}
		args := invocationArgs(line)
		if args.Len() != len(m.Args) {
			return nil, count, newError(GrammarError, line.Loc(),
				"macro %q expects %d argument(s), got %d", m.Name, len(m.Args), args.Len())
		}
		count++

		for _, bl := range m.Body {
			var nl Line
			for k, tok := range bl.Tokens {
				loc := bl.Locs[k]
				if stamp {
					loc = line.Loc()
				}
				if tok.Kind == Ident {
					if idx := argIndex(m.Args, tok.Text); idx >= 0 {
						tok, loc = args.Tokens[idx], args.Locs[idx]
					}
				}
				nl.push(tok, loc)
			}
			out = append(out, nl)
		}
	}
	return out, count, nil
}

// invocationArgs returns the actual arguments of a macro invocation. Commas
// between arguments are optional, as they are between instruction operands.
func invocationArgs(line Line) Line {
	var args Line
	for i := 1; i < line.Len(); i++ {
		if line.Tokens[i].Kind != Comma {
			args.push(line.Tokens[i], line.Locs[i])
		}
	}
	return args
}

func argIndex(args []string, name string) int {
	for i, a := range args {
		if a == name {
			return i
		}
	}
	return -1
}
