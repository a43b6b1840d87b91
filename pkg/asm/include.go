package asm

import (
	"errors"
	"strings"
)

// Source is a resolved module.
type Source struct {
	Name string // module name written after the import marker
	Path string // unique key, used for cycle detection and deduplication
	Data []byte
}

// Resolver locates the module named by an include directive. from is the
// path of the including file; quoted reports whether target was a string
// literal (a path) rather than a bare module name.
type Resolver interface {
	Resolve(from, target string, quoted bool) (Source, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(from, target string, quoted bool) (Source, error)

func (f ResolverFunc) Resolve(from, target string, quoted bool) (Source, error) {
	return f(from, target, quoted)
}

// imports assembles every include of file, returning one program per
// include.
func (a *Assembler) imports(file string, includes []*Include) ([]*Program, error) {
	if len(includes) == 0 {
		return nil, nil
	}
	progs := make([]*Program, 0, len(includes))
	for _, inc := range includes {
		p, err := a.include(file, inc)
		if err != nil {
			return nil, err
		}
		progs = append(progs, p)
	}
	return progs, nil
}

func (a *Assembler) include(file string, inc *Include) (*Program, error) {
	if a.cfg.Resolver == nil {
		return nil, newError(UnresolvedReferenceError, inc.Loc, "cannot include %q: no resolver configured", inc.Target)
	}
	src, err := a.cfg.Resolver.Resolve(file, inc.Target, inc.Quoted)
	if err != nil {
		e := newError(UnresolvedReferenceError, inc.Loc, "cannot include %q: %v", inc.Target, err)
		e.Err = err
		return nil, e
	}

	for i, open := range a.stack {
		if open == src.Path {
			chain := append(append([]string(nil), a.stack[i:]...), src.Path)
			return nil, newError(ImportCycleError, inc.Loc, "import cycle: %s", strings.Join(chain, " -> "))
		}
	}
	if p, ok := a.done[src.Path]; ok {
		return p, nil
	}

	a.log.Printf("%s: including %s", file, src.Path)
	p, err := a.Assemble(src.Path, src.Data)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Notes = append(e.Notes, Note{Loc: inc.Loc, Msg: "included here"})
		}
		return nil, err
	}
	if src.Name != "" {
		p.Name = src.Name
	}
	a.done[src.Path] = p
	return p, nil
}
