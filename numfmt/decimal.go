// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: numfmt/decimal.go
// Summary: Correctly rounded, width-bounded rendering of a single real number.
// Usage: Format is the entry point; the complex formatter calls formatDigits directly.

package numfmt

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

const (
	// MinTotalChars is the smallest width every finite float64 fits in
	// ("-1E-308"). Smaller budgets are raised to it.
	MinTotalChars = 7

	fixedLow      = -5
	fixedHigh     = 14
	fixedHighWide = 39

	// fullPrecision disables rounding beyond the shortest round-trip digits.
	fullPrecision = 17
)

// Format renders value with at most roundingDigits+1 significant digits,
// rounding half-up on the shortest round-trip decimal digits, and
// truncates the result to maxTotalChars. A roundingDigits outside 1..15
// keeps every round-trip digit. Wide extends fixed-point notation to
// numbers with up to 39 integer digits.
func Format(value float64, maxTotalChars, roundingDigits int, wide bool) string {
	return Truncate(formatDigits(value, roundingDigits, wide), max(maxTotalChars, MinTotalChars))
}

func formatDigits(value float64, roundingDigits int, wide bool) string {
	switch {
	case math.IsNaN(value):
		return "NaN"
	case math.IsInf(value, 1):
		return "∞"
	case math.IsInf(value, -1):
		return "-∞"
	}

	str := strconv.FormatFloat(math.Abs(value), 'e', -1, 64)
	ePos := strings.LastIndexByte(str, 'e')
	exp, _ := strconv.Atoi(str[ePos+1:])
	mantissa := str[:ePos]

	// Fold the point into the exponent: exp counts digits before the point.
	dotPos := strings.IndexByte(mantissa, '.')
	if dotPos < 0 {
		dotPos = len(mantissa)
	}
	exp += dotPos
	buf := []byte(strings.Replace(mantissa, ".", "", 1))

	roundingStart := fullPrecision
	if roundingDigits > 0 && roundingDigits < 16 {
		roundingStart = roundingDigits + 1
	}
	for p := 0; p < len(buf) && buf[p] == '0'; p++ {
		roundingStart++
	}

	if roundingStart < len(buf) {
		if buf[roundingStart] >= '5' {
			p := roundingStart - 1
			for ; p >= 0 && buf[p] == '9'; p-- {
				buf[p] = '0'
			}
			if p >= 0 {
				buf[p]++
			} else {
				buf = append([]byte{'1'}, buf...)
				roundingStart++
				exp++
			}
		}
		buf = buf[:roundingStart]
	}

	high := fixedHigh
	if wide {
		high = fixedHighWide
	}

	var out []byte
	scientific := exp < fixedLow || exp > high
	if scientific {
		out = make([]byte, 0, len(buf)+8)
		out = append(out, buf[0], '.')
		out = append(out, buf[1:]...)
		exp--
	} else {
		for len(buf) < exp {
			buf = append(buf, '0')
		}
		if exp <= 0 {
			out = append(out, '0', '.')
			out = append(out, strings.Repeat("0", -exp)...)
			out = append(out, buf...)
		} else {
			out = append(out, buf[:exp]...)
			out = append(out, '.')
			out = append(out, buf[exp:]...)
		}
	}

	out = stripFraction(out)
	if scientific {
		out = append(out, 'E')
		out = strconv.AppendInt(out, int64(exp), 10)
	}
	if value < 0 {
		out = append([]byte{'-'}, out...)
	}
	return string(out)
}

// stripFraction drops trailing zeros after the point and then the point.
func stripFraction(b []byte) []byte {
	if bytes.IndexByte(b, '.') < 0 {
		return b
	}
	for len(b) > 0 && b[len(b)-1] == '0' {
		b = b[:len(b)-1]
	}
	if len(b) > 0 && b[len(b)-1] == '.' {
		b = b[:len(b)-1]
	}
	return b
}
