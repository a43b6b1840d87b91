package asm

import (
	"fmt"
	"strings"
	"testing"
)

// smallProgram is a counter loop in a single function.
const smallProgram = loopProgram

// mediumProgram exercises macros, structs, externs, several functions and
// a data section.
const mediumProgram = `
.macro inc v {
ADD v 1 v
}
.macro dec v {
SUB v 1 v
}
.macro swap a b t {
MOV a t
MOV b a
MOV t b
}

.struct Point {
I32 x, I32 y
}

.extern I32 puts(* U8 s) "libc.so"

I32 abs(I32 v) {
JGE v 0 :abs_done
MUL v -1 v
: abs_done
RET v
}

VOID countdown(I32 n) {
: cd_loop
JLE n 0 :cd_done
dec n
JMP :cd_loop
: cd_done
RET
}

VOID main() {
VAR I32 a
VAR I32 b
VAR I32 t
VAR Point p
INST Point p
MOV 3 a
MOV 4 b
swap a b t
CALL abs
CALL countdown
PUSH "greeting"
CALL puts
inc a
RET
}

.data
greeting * U8 "hello, world"
`

// largeProgram repeats a function body with local labels many times.
func largeProgram(funcs int) string {
	var sb strings.Builder
	sb.WriteString(".macro inc v {\nADD v 1 v\n}\n")
	for i := 0; i < funcs; i++ {
		fmt.Fprintf(&sb, "VOID f%d(I32 n) {\nVAR I32 i\nMOV 0 i\n: top%d\ninc i\nJL i n :top%d\nRET i\n}\n", i, i, i)
	}
	return sb.String()
}

func benchmarkAssemble(b *testing.B, src string) {
	b.Helper()
	data := []byte(src)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		if _, err := Assemble("bench.rasm", data, DefaultConfig()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Small(b *testing.B) {
	benchmarkAssemble(b, smallProgram)
}

func BenchmarkAssemble_Medium(b *testing.B) {
	benchmarkAssemble(b, mediumProgram)
}

func BenchmarkAssemble_Large(b *testing.B) {
	benchmarkAssemble(b, largeProgram(200))
}

func BenchmarkTokenize(b *testing.B) {
	src := largeProgram(200)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := TokenizeSource("bench.rasm", src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExpandMacros(b *testing.B) {
	lines, err := TokenizeSource("bench.rasm", macroChain(DefaultMacroDepthLimit-1))
	if err != nil {
		b.Fatal(err)
	}
	mod, err := Extract(lines)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := ExpandMacros(mod.Macros, DefaultMacroDepthLimit); err != nil {
			b.Fatal(err)
		}
	}
}

func TestBenchmarkPrograms(t *testing.T) {
	for name, src := range map[string]string{"medium": mediumProgram, "large": largeProgram(10)} {
		if _, err := Assemble(name+".rasm", []byte(src), DefaultConfig()); err != nil {
			t.Errorf("%s program: %v", name, err)
		}
	}
}
