package asm

import "strings"

// Tag is a primitive type tag. Its value is the byte written to bytecode.
type Tag byte

const (
	VOID    Tag = 0x00
	I8      Tag = 0x01
	I16     Tag = 0x02
	I32     Tag = 0x03
	I64     Tag = 0x04
	U8      Tag = 0x05
	U16     Tag = 0x06
	U32     Tag = 0x07
	U64     Tag = 0x08
	F16     Tag = 0x09
	F32     Tag = 0x0A
	F64     Tag = 0x0B
	POINTER Tag = 0x0C
	TYPE    Tag = 0x0D
	STRUCT  Tag = 0x0E
	NAME    Tag = 0x0F
)

var tagNames = map[Tag]string{
	VOID: "VOID", I8: "I8", I16: "I16", I32: "I32", I64: "I64",
	U8: "U8", U16: "U16", U32: "U32", U64: "U64",
	F16: "F16", F32: "F32", F64: "F64",
	POINTER: "POINTER", TYPE: "TYPE", STRUCT: "STRUCT", NAME: "NAME",
}

func (t Tag) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return "?"
}

// typeKeywords maps case-folded source keywords to tags.
var typeKeywords = map[string]Tag{
	"void":    VOID,
	"i8":      I8,
	"i16":     I16,
	"i32":     I32,
	"i64":     I64,
	"u8":      U8,
	"u16":     U16,
	"u32":     U32,
	"u64":     U64,
	"f16":     F16,
	"f32":     F32,
	"f64":     F64,
	"pointer": POINTER,
	"*":       POINTER,
	"type":    TYPE,
	"struct":  STRUCT,
	"name":    NAME,
}

// Type is an ordered list of tags read outer-to-inner: `* * I32` is
// [POINTER POINTER I32], a pointer to a pointer to an i32. A Type produced by
// the lexer always has at least one tag.
type Type []Tag

// T builds a Type from tags.
func T(tags ...Tag) Type { return Type(tags) }

func (t Type) Equal(o Type) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}
	return true
}

// Is reports whether t is exactly the single tag tag.
func (t Type) Is(tag Tag) bool {
	return len(t) == 1 && t[0] == tag
}

func (t Type) String() string {
	parts := make([]string, len(t))
	for i, tag := range t {
		parts[i] = tag.String()
	}
	return strings.Join(parts, " ")
}
