package asm

import (
	"encoding/binary"
	"strings"
)

var numTags = [...]Tag{
	NumSigned:   I64,
	NumUnsigned: U64,
	NumFloat:    F64,
}

// encodeNumber appends a type tag followed by the 8-byte big-endian value.
func encodeNumber(dst []byte, n Num) []byte {
	dst = append(dst, byte(numTags[n.Kind]))
	return binary.BigEndian.AppendUint64(dst, n.Bits())
}

func encodeType(dst []byte, t Type) []byte {
	for _, tag := range t {
		dst = append(dst, byte(tag))
	}
	return dst
}

// encodeName appends a length-prefixed name with any leading * or & sigil
// removed.
func encodeName(dst []byte, name string, loc Location) ([]byte, error) {
	return encodeString(dst, stripSigil(name), loc)
}

func encodeString(dst []byte, s string, loc Location) ([]byte, error) {
	if len(s) > 255 {
		return nil, newError(GrammarError, loc, "%q is %d bytes long, the limit is 255", abbreviate(s), len(s))
	}
	dst = append(dst, byte(len(s)))
	return append(dst, s...), nil
}

func abbreviate(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:16] + "..."
}

func stripSigil(name string) string {
	return strings.TrimLeft(name, "*&")
}

func hasSigil(name string) bool {
	return strings.HasPrefix(name, "*") || strings.HasPrefix(name, "&")
}

func isDeref(tok Token) bool {
	return (tok.Kind == Ident || tok.Kind == Var) && strings.HasPrefix(tok.Text, "*")
}

func encodeToken(dst []byte, tok Token, loc Location) ([]byte, error) {
	switch tok.Kind {
	case Ident, Var:
		return encodeName(dst, tok.Text, loc)
	case String:
		return encodeString(dst, tok.Text, loc)
	case Number:
		return encodeNumber(dst, tok.Num), nil
	case TypeTok:
		return encodeType(dst, tok.Type), nil
	}
	return nil, newError(GrammarError, loc, "unexpected token %s, expected an operand", tok)
}

func encodeParams(dst []byte, params []Param, loc Location) ([]byte, error) {
	var err error
	for _, p := range params {
		dst = encodeType(dst, p.Type)
		if dst, err = encodeName(dst, p.Name, loc); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// bit is 1 for a variable operand and 0 for an immediate.
func bit(tok Token) int {
	if tok.Kind == Ident || tok.Kind == Var {
		return 1
	}
	return 0
}

// operands is the instruction's arguments with commas removed.
type operands struct {
	toks []Token
	locs []Location
}

func (o operands) len() int { return len(o.toks) }

// encoder turns instruction lines into bytes. vars holds the variables
// declared so far in the current code unit.
type encoder struct {
	callable func(name string) bool
	isStruct func(name string) bool
	vars     map[string]bool
}

// unit encodes the lines of one code unit. params are declared before the
// first line.
func (e *encoder) unit(dst []byte, lines []Line, params []Param) ([]byte, error) {
	e.vars = make(map[string]bool, len(params))
	for _, p := range params {
		e.vars[p.Name] = true
	}
	var err error
	for _, line := range lines {
		if dst, err = e.instruction(dst, line); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// codeLine strips the brace that opens or closes a nested block. Braces carry
// no code, so the result may be empty.
func codeLine(line Line) Line {
	if last, _ := line.Last(); last.Kind == LCurly || last.Kind == RCurly {
		return Line{Tokens: line.Tokens[:line.Len()-1], Locs: line.Locs[:line.Len()-1]}
	}
	return line
}

// lookupInstruction returns the opcode named by the first token of line.
func lookupInstruction(line Line) (*Opcode, error) {
	head := line.Tokens[0]
	if head.Kind != Ident {
		return nil, expected(line, 0, "instruction")
	}
	o, ok := LookupOpcode(head.Text)
	if !ok {
		return nil, newError(UnresolvedReferenceError, line.Loc(), "unknown instruction %q", head.Text)
	}
	return o, nil
}

func (e *encoder) instruction(dst []byte, line Line) ([]byte, error) {
	line = codeLine(line)
	if line.Len() == 0 {
		return dst, nil
	}
	o, err := lookupInstruction(line)
	if err != nil {
		return nil, err
	}

	var ops operands
	for i := 1; i < line.Len(); i++ {
		if line.Tokens[i].Kind == Comma {
			continue
		}
		ops.toks = append(ops.toks, line.Tokens[i])
		ops.locs = append(ops.locs, line.Locs[i])
	}
	if err := o.check(line, ops); err != nil {
		return nil, err
	}

	v, err := e.variation(o, ops)
	if err != nil {
		return nil, err
	}
	dst = append(dst, o.Base+byte(v))
	for i, tok := range ops.toks {
		if dst, err = encodeToken(dst, tok, ops.locs[i]); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// check validates operand count and the shape of each operand.
func (o *Opcode) check(line Line, ops operands) error {
	if ops.len() < o.MinArgs || ops.len() > len(o.Operands) {
		want := "exactly"
		n := len(o.Operands)
		if o.MinArgs != n {
			want = "at most"
			if ops.len() < o.MinArgs {
				want, n = "at least", o.MinArgs
			}
		}
		return newError(GrammarError, line.Loc(), "%s takes %s %d operand(s), got %d", o.Name, want, n, ops.len())
	}
	for i, tok := range ops.toks {
		ok := false
		var what string
		switch o.Operands[i] {
		case anyOp:
			ok = tok.Kind == Number || tok.Kind == String || tok.Kind == TypeTok || tok.Kind == Ident || tok.Kind == Var
			what = "NUMBER, STRING, TYPE, IDENT or VAR"
		case varOp, nameOp:
			ok = tok.Kind == Ident || tok.Kind == Var
			what = "IDENT or VAR"
		case typeOp:
			ok = tok.Kind == TypeTok || tok.Kind == Ident || tok.Kind == Var
			what = "TYPE, IDENT or VAR"
		}
		if !ok {
			return newError(GrammarError, ops.locs[i], "unexpected token %s as operand %d of %s, expected %s", tok, i+1, o.Name, what)
		}
	}
	return nil
}

func (e *encoder) variation(o *Opcode, ops operands) (int, error) {
	t := ops.toks
	switch o.Rule {
	case ruleCall:
		return e.target(t[0]), nil
	case ruleCallC:
		return e.target(t[0]) + 2*bit(t[1]), nil
	case ruleMov:
		v := bit(t[0])
		if isDeref(t[0]) {
			v = 2
		}
		if isDeref(t[1]) {
			v += 3
		}
		return v, nil
	case ruleVar:
		v := bit(t[0])
		if hasSigil(t[1].Text) {
			v += 2
		}
		e.vars[stripSigil(t[1].Text)] = true
		return v, nil
	case ruleRet:
		if len(t) == 0 {
			return 0, nil
		}
		return 1 + bit(t[0]), nil
	case ruleInst:
		name := stripSigil(t[0].Text)
		if e.vars[name] {
			return 1, nil
		}
		if e.isStruct != nil && !e.isStruct(name) {
			return 0, newError(UnresolvedReferenceError, ops.locs[0], "unknown struct %q", name)
		}
		return 0, nil
	case rulePmov:
		return 2*bit(t[0]) + bit(t[2]), nil
	case ruleAlloc:
		return 2*bit(t[0]) + bit(t[1]), nil
	case ruleFree:
		if len(t) == 1 {
			return 0, nil
		}
		return 1 + bit(t[1]), nil
	}

	v := 0
	for i := 0; i < o.Bits && i < len(t); i++ {
		v = v<<1 | bit(t[i])
	}
	return v, nil
}

// target is 0 for a known function or extern and 1 for a call through a
// variable.
func (e *encoder) target(tok Token) int {
	if tok.Kind == Ident && e.callable != nil && e.callable(tok.Text) {
		return 0
	}
	return 1
}
