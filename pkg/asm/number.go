package asm

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// NumKind selects which field of a Num is in use.
type NumKind uint8

const (
	NumSigned NumKind = iota
	NumUnsigned
	NumFloat
)

// Num is a numeric literal. Exactly one representation is live, chosen by Kind.
// Float values are stored as their IEEE-754 bits so Num stays comparable.
type Num struct {
	Kind NumKind
	bits uint64
}

func Signed(v int64) Num { return Num{Kind: NumSigned, bits: uint64(v)} }

func Unsigned(v uint64) Num { return Num{Kind: NumUnsigned, bits: v} }

func Float(v float64) Num { return Num{Kind: NumFloat, bits: math.Float64bits(v)} }

func (n Num) Int64() int64 {
	switch n.Kind {
	case NumFloat:
		return int64(math.Float64frombits(n.bits))
	}
	return int64(n.bits)
}

func (n Num) Uint64() uint64 {
	switch n.Kind {
	case NumFloat:
		return uint64(math.Float64frombits(n.bits))
	}
	return n.bits
}

func (n Num) Float64() float64 {
	switch n.Kind {
	case NumSigned:
		return float64(int64(n.bits))
	case NumUnsigned:
		return float64(n.bits)
	}
	return math.Float64frombits(n.bits)
}

// Bits returns the canonical 64-bit payload written to bytecode.
func (n Num) Bits() uint64 { return n.bits }

func (n Num) String() string {
	switch n.Kind {
	case NumSigned:
		return strconv.FormatInt(int64(n.bits), 10)
	case NumUnsigned:
		return strconv.FormatUint(n.bits, 10)
	}
	return strconv.FormatFloat(math.Float64frombits(n.bits), 'g', -1, 64)
}

var errBadNumber = errors.New("invalid number")

// ParseNumber parses s as unsigned, then signed, then floating point.
// Integers may carry a 0x, 0o or 0b prefix.
func ParseNumber(s string) (Num, error) {
	base := 10
	digits := strings.TrimPrefix(s, "-")
	if len(digits) > 2 && digits[0] == '0' {
		switch digits[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			base = 0
		}
	}

	if u, err := strconv.ParseUint(s, base, 64); err == nil {
		return Unsigned(u), nil
	}
	if i, err := strconv.ParseInt(s, base, 64); err == nil {
		return Signed(i), nil
	}
	if base == 10 {
		if f, err := strconv.ParseFloat(s, 64); err == nil && isDecimal(s) {
			return Float(f), nil
		}
	}
	return Num{}, errBadNumber
}

// Add, Sub, Mul and Div combine two numbers. Mixed signed/unsigned operands
// produce a signed result; any float operand produces a float.
func (n Num) Add(o Num) Num {
	return n.combine(o,
		func(a, b int64) int64 { return a + b },
		func(a, b uint64) uint64 { return a + b },
		func(a, b float64) float64 { return a + b })
}

func (n Num) Sub(o Num) Num {
	return n.combine(o,
		func(a, b int64) int64 { return a - b },
		func(a, b uint64) uint64 { return a - b },
		func(a, b float64) float64 { return a - b })
}

func (n Num) Mul(o Num) Num {
	return n.combine(o,
		func(a, b int64) int64 { return a * b },
		func(a, b uint64) uint64 { return a * b },
		func(a, b float64) float64 { return a * b })
}

// Div divides n by o. Integer division by zero returns an error.
func (n Num) Div(o Num) (Num, error) {
	if o.Kind != NumFloat && n.Kind != NumFloat && o.bits == 0 {
		return Num{}, errors.New("division by zero")
	}
	return n.combine(o,
		func(a, b int64) int64 { return a / b },
		func(a, b uint64) uint64 { return a / b },
		func(a, b float64) float64 { return a / b }), nil
}

func (n Num) combine(o Num, si func(a, b int64) int64, ui func(a, b uint64) uint64, fl func(a, b float64) float64) Num {
	switch {
	case n.Kind == NumFloat || o.Kind == NumFloat:
		return Float(fl(n.Float64(), o.Float64()))
	case n.Kind == NumUnsigned && o.Kind == NumUnsigned:
		return Unsigned(ui(n.bits, o.bits))
	}
	return Signed(si(n.Int64(), o.Int64()))
}

func isDecimal(s string) bool {
	return strings.Trim(s, "0123456789.-+eE") == ""
}
