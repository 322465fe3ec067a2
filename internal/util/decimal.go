package util

import (
	"math"
	"strconv"
	"strings"
)

const maxDecimalPlaces = 8

// CountDecimals returns the number of significant decimal places of v,
// clamped to [0, 8]. Venue increments often arrive as floats that stringify
// in scientific notation (1e-8), so both representations are handled. The
// caller is responsible for passing a finite number.
func CountDecimals(v float64) int {
	if v == math.Trunc(v) {
		return 0
	}

	s := strconv.FormatFloat(v, 'g', -1, 64)

	if idx := strings.IndexAny(s, "eE"); idx != -1 {
		mantissa := s[:idx]
		exponent, err := strconv.Atoi(s[idx+1:])
		if err != nil {
			return maxDecimalPlaces
		}

		mantissaDecimals := 0
		if dot := strings.Index(mantissa, "."); dot != -1 {
			mantissaDecimals = len(mantissa) - dot - 1
		}

		decimals := mantissaDecimals - exponent
		if decimals < 0 {
			decimals = -decimals
		}
		return clampDecimals(decimals)
	}

	if dot := strings.Index(s, "."); dot != -1 {
		return clampDecimals(len(s) - dot - 1)
	}

	return 0
}

func clampDecimals(n int) int {
	if n < 0 {
		return 0
	}
	if n > maxDecimalPlaces {
		return maxDecimalPlaces
	}
	return n
}
