package asm

import "golang.org/x/text/cases"

// operand describes the token shapes accepted at one operand position.
type operand uint8

const (
	anyOp  operand = iota // immediate (NUMBER, STRING, TYPE) or variable
	varOp                 // variable: IDENT or VAR
	typeOp                // TYPE, or a variable holding a type
	nameOp                // IDENT or VAR naming a function, struct or variable
)

// rule selects how the variation added to an opcode's base byte is computed.
type rule uint8

const (
	// ruleGeneric: the first Bits operands are read as a binary number,
	// operand 0 most significant, 0 for an immediate and 1 for a variable.
	ruleGeneric rule = iota
	ruleCall         // 0 known function or extern, 1 variable target
	ruleCallC        // ruleCall for operand 0, plus 2 if the argument count is a variable
	ruleMov          // src literal 0, variable 1, *deref 2; plus 3 if dst is *deref
	ruleVar          // plus 1 if identifier-first, plus 2 if the name carries * or &
	ruleRet          // no operand 0; one operand 1 + generic bit
	ruleInst         // 1 if operand 0 is a declared variable
	rulePmov         // value variable 2, offset variable 1
	ruleAlloc        // type held in a variable 2, size variable 1
	ruleFree         // one operand 0; two operands 1 + size bit
)

// Opcode describes one mnemonic. Base+variation must stay below the
// sentinel range starting at 0xF8.
type Opcode struct {
	Name       string
	Base       byte
	Operands   []operand
	MinArgs    int // fewer operands than len(Operands) are allowed down to MinArgs
	Bits       int
	Rule       rule
	Variations int
}

func op(name string, base byte, variations int, r rule, bits int, ops ...operand) *Opcode {
	return &Opcode{Name: name, Base: base, Operands: ops, MinArgs: len(ops), Bits: bits, Rule: r, Variations: variations}
}

func optional(o *Opcode, minArgs int) *Opcode {
	o.MinArgs = minArgs
	return o
}

// Opcodes lists every instruction in opcode order.
var Opcodes = []*Opcode{
	op("NOP", 0x00, 1, ruleGeneric, 0),
	op("PUSH", 0x01, 2, ruleGeneric, 1, anyOp),
	op("POP", 0x03, 1, ruleGeneric, 0, varOp),
	op("PEEK", 0x04, 2, ruleGeneric, 1, anyOp, varOp), // index, dst
	op("CALL", 0x06, 2, ruleCall, 0, nameOp),
	op("ADD", 0x08, 4, ruleGeneric, 2, anyOp, anyOp, varOp),
	op("SUB", 0x0C, 4, ruleGeneric, 2, anyOp, anyOp, varOp),
	op("MUL", 0x10, 4, ruleGeneric, 2, anyOp, anyOp, varOp),
	op("DIV", 0x14, 4, ruleGeneric, 2, anyOp, anyOp, varOp),
	op("JMP", 0x18, 2, ruleGeneric, 1, anyOp),
	op("JNE", 0x1A, 8, ruleGeneric, 3, anyOp, anyOp, anyOp), // a, b, target
	op("JE", 0x22, 8, ruleGeneric, 3, anyOp, anyOp, anyOp),
	op("JGE", 0x2A, 8, ruleGeneric, 3, anyOp, anyOp, anyOp),
	op("JG", 0x32, 8, ruleGeneric, 3, anyOp, anyOp, anyOp),
	op("JLE", 0x3A, 8, ruleGeneric, 3, anyOp, anyOp, anyOp),
	op("JL", 0x42, 8, ruleGeneric, 3, anyOp, anyOp, anyOp),
	op("MOV", 0x4A, 6, ruleMov, 0, anyOp, varOp), // src, dst
	op("AND", 0x50, 4, ruleGeneric, 2, anyOp, anyOp, varOp),
	op("OR", 0x54, 4, ruleGeneric, 2, anyOp, anyOp, varOp),
	op("XOR", 0x58, 4, ruleGeneric, 2, anyOp, anyOp, varOp),
	op("NOT", 0x5C, 2, ruleGeneric, 1, anyOp, varOp),
	op("LSH", 0x5E, 4, ruleGeneric, 2, anyOp, anyOp, varOp),
	op("RSH", 0x62, 4, ruleGeneric, 2, anyOp, anyOp, varOp),
	op("VAR", 0x66, 4, ruleVar, 0, typeOp, varOp), // type, name
	optional(op("RET", 0x6A, 3, ruleRet, 1, anyOp), 0),
	op("DEREF", 0x6D, 2, ruleGeneric, 1, varOp, varOp), // ptr, dst
	op("REF", 0x6F, 1, ruleGeneric, 0, varOp, varOp),   // src, dst
	op("INST", 0x70, 2, ruleInst, 0, nameOp, varOp),    // struct, dst
	op("MOD", 0x72, 4, ruleGeneric, 2, anyOp, anyOp, varOp),
	op("PMOV", 0x76, 4, rulePmov, 0, anyOp, varOp, anyOp),  // value, ptr, offset
	op("ALLOC", 0x7A, 4, ruleAlloc, 0, typeOp, anyOp, varOp), // type, size, dst
	optional(op("FREE", 0x7E, 3, ruleFree, 0, varOp, anyOp), 1), // ptr [, size]
	op("CALLC", 0x81, 4, ruleCallC, 0, nameOp, anyOp), // target, argument count
	op("CMP", 0x85, 4, ruleGeneric, 2, anyOp, anyOp, varOp),
}

var opcodeIndex = func() map[string]*Opcode {
	fold := cases.Fold()
	m := make(map[string]*Opcode, len(Opcodes))
	for _, o := range Opcodes {
		m[fold.String(o.Name)] = o
	}
	return m
}()

// LookupOpcode finds a mnemonic, ignoring case.
func LookupOpcode(name string) (*Opcode, bool) {
	o, ok := opcodeIndex[cases.Fold().String(name)]
	return o, ok
}

// IsMnemonic reports whether tok is an identifier naming an instruction.
func IsMnemonic(tok Token) bool {
	if tok.Kind != Ident {
		return false
	}
	_, ok := LookupOpcode(tok.Text)
	return ok
}
