package asm

import (
	"bytes"
	"math"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input   string
		want    Num
		wantErr bool
	}{
		{"42", Unsigned(42), false},
		{"0", Unsigned(0), false},
		{"-42", Signed(-42), false},
		{"0x1F", Unsigned(31), false},
		{"-0x10", Signed(-16), false},
		{"0b101", Unsigned(5), false},
		{"0o17", Unsigned(15), false},
		{"18446744073709551615", Unsigned(math.MaxUint64), false},
		{"-9223372036854775808", Signed(math.MinInt64), false},
		{"2.5", Float(2.5), false},
		{"-0.5", Float(-0.5), false},
		{"1e3", Float(1000), false},
		{"abc", Num{}, true},
		{"1.2.3", Num{}, true},
		{"0xZZ", Num{}, true},
		{"-", Num{}, true},
	}
	for _, tc := range tests {
		got, err := ParseNumber(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseNumber(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseNumber(%q) = %v (kind %d), want %v (kind %d)", tc.input, got, got.Kind, tc.want, tc.want.Kind)
		}
	}
}

func TestNumArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Num
		want Num
	}{
		{"unsigned add", Unsigned(2).Add(Unsigned(3)), Unsigned(5)},
		{"mixed add", Signed(-2).Add(Unsigned(3)), Signed(1)},
		{"signed sub", Unsigned(2).Sub(Signed(5)), Signed(-3)},
		{"float mul", Float(1.5).Mul(Unsigned(2)), Float(3)},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}

	if _, err := Unsigned(1).Div(Unsigned(0)); err == nil {
		t.Error("integer division by zero should fail")
	}
	q, err := Float(1).Div(Float(4))
	if err != nil || q != Float(0.25) {
		t.Errorf("1.0 / 4.0 = %v, %v; want 0.25", q, err)
	}
}

func TestEncodeNumber(t *testing.T) {
	tests := []struct {
		n    Num
		want []byte
	}{
		{Unsigned(5), []byte{0x08, 0, 0, 0, 0, 0, 0, 0, 5}},
		{Signed(-1), []byte{0x04, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{Float(1), []byte{0x0B, 0x3F, 0xF0, 0, 0, 0, 0, 0, 0}},
		{Unsigned(0x0102030405060708), []byte{0x08, 1, 2, 3, 4, 5, 6, 7, 8}},
	}
	for _, tc := range tests {
		if got := encodeNumber(nil, tc.n); !bytes.Equal(got, tc.want) {
			t.Errorf("encodeNumber(%v) = % x, want % x", tc.n, got, tc.want)
		}
	}
}
