package debugger

import (
	"math"
	"strings"
	"testing"
)

func TestParseNatural(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{"007", 7, true},
		{"18446744073709551615", math.MaxUint64, true},
		{"18446744073709551616", 0, false},
		{"", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"12a", 0, false},
		{" 1", 0, false},
		{"1.0", 0, false},
		{"١٢", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNatural(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseNatural(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseInteger(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"17", 17, true},
		{"-17", -17, true},
		{"-0", 0, true},
		{"-9223372036854775808", math.MinInt64, true},
		{"9223372036854775807", math.MaxInt64, true},
		{"9223372036854775808", 0, false},
		{"-", 0, false},
		{"--1", 0, false},
		{"+5", 0, false},
		{"1_000", 0, false},
		{"0x10", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseInteger(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseInteger(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1", 1, true},
		{"-2.5", -2.5, true},
		{"0.125", 0.125, true},
		{"3.", 0, false},
		{".5", 0, false},
		{"1e3", 0, false},
		{"1.2.3", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseFloat(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseFloat(%q) = %g, %v; want %g, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if _, ok := ParseFloat(strings.Repeat("9", 400)); ok {
		t.Errorf("out-of-range float should not match")
	}
}

func TestParseIndex(t *testing.T) {
	if v, ok := ParseIndex("3", 4); !ok || v != 3 {
		t.Fatalf("ParseIndex(3, 4) = %d, %v", v, ok)
	}
	for _, in := range []string{"4", "-1", "x"} {
		if _, ok := ParseIndex(in, 4); ok {
			t.Errorf("ParseIndex(%q, 4) should not match", in)
		}
	}
}
