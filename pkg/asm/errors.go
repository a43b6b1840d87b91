package asm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a fatal diagnostic.
type ErrorKind int

const (
	GrammarError ErrorKind = iota
	DuplicateDefinitionError
	UnresolvedReferenceError
	MacroDepthExceededError
	UnimplementedFeatureError
	ImportCycleError
)

var (
	ErrGrammar       = errors.New("grammar error")
	ErrDuplicate     = errors.New("duplicate definition")
	ErrUnresolved    = errors.New("unresolved reference")
	ErrMacroDepth    = errors.New("macro depth exceeded")
	ErrUnimplemented = errors.New("unimplemented feature")
	ErrImportCycle   = errors.New("import cycle")
)

var kindErrs = [...]error{
	GrammarError:              ErrGrammar,
	DuplicateDefinitionError:  ErrDuplicate,
	UnresolvedReferenceError:  ErrUnresolved,
	MacroDepthExceededError:   ErrMacroDepth,
	UnimplementedFeatureError: ErrUnimplemented,
	ImportCycleError:          ErrImportCycle,
}

func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(kindErrs) {
		return kindErrs[k].Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Note is a supplementary message attached to an Error.
type Note struct {
	Loc Location
	Msg string
}

func (n Note) String() string {
	return fmt.Sprintf("%s: note: %s", n.Loc, n.Msg)
}

// Error is a located, fatal diagnostic. errors.Is matches it against the
// sentinel for its kind, and against the wrapped cause if there is one.
type Error struct {
	Kind  ErrorKind
	Loc   Location
	Msg   string
	Notes []Note
	Err   error
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Loc, e.Msg)
	for _, n := range e.Notes {
		sb.WriteString("\n")
		sb.WriteString(n.String())
	}
	return sb.String()
}

func (e *Error) Is(target error) bool {
	return int(e.Kind) < len(kindErrs) && kindErrs[e.Kind] == target
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, loc Location, format string, args ...any) *Error {
	return &Error{Kind: kind, Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// expected reports a token of the wrong kind at position i of line.
func expected(line Line, i int, what string) *Error {
	if i >= line.Len() {
		return newError(GrammarError, line.At(i), "unexpected end of line, expected %s", what)
	}
	return newError(GrammarError, line.Locs[i], "unexpected token %s, expected %s", line.Tokens[i], what)
}
