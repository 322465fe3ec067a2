package util

import (
	"math"
	"testing"
)

func TestCountDecimals(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int
	}{
		{name: "integer", in: 1, want: 0},
		{name: "zero", in: 0, want: 0},
		{name: "negative integer", in: -42, want: 0},
		{name: "two places", in: 0.01, want: 2},
		{name: "one place", in: 0.5, want: 1},
		{name: "four places", in: 0.0001, want: 4},
		{name: "scientific notation", in: 1e-8, want: 8},
		{name: "scientific notation below clamp", in: 1e-10, want: 8},
		{name: "scientific notation with mantissa decimals", in: 2.5e-7, want: 8},
		{name: "clamped long fraction", in: 1.23456789, want: 8},
		{name: "clamped nine places", in: 0.123456789, want: 8},
		{name: "tick size", in: 0.00001, want: 5},
		{name: "negative fraction", in: -0.001, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountDecimals(tt.in)
			if got != tt.want {
				t.Errorf("CountDecimals(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestCountDecimalsRange(t *testing.T) {
	inputs := []float64{0, 1, -1, 0.1, 0.00000001, 1e-12, 123456.789, math.Pi}
	for _, in := range inputs {
		got := CountDecimals(in)
		if got < 0 || got > 8 {
			t.Errorf("CountDecimals(%v) = %d, outside [0, 8]", in, got)
		}
	}
}
