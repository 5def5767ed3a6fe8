// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: numfmt/truncate.go
// Summary: Fits a formatted number into a character budget.

package numfmt

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Truncate shortens a Format-style string to maxLen characters. The
// exponent suffix is always kept. When the decimal point would fall
// outside the kept head the number is re-expressed in scientific
// notation first; each such step leaves the point right after the
// leading digit, so the recursion ends on the next call.
func Truncate(str string, maxLen int) string {
	if utf8.RuneCountInString(str) <= maxLen {
		return str
	}

	ePos := strings.LastIndexByte(str, 'E')
	tail := ""
	if ePos >= 0 {
		tail = str[ePos:]
	}
	headLen := len(str) - len(tail)
	keepLen := min(headLen, maxLen-len(tail))

	start := 0
	if strings.HasPrefix(str, "-") {
		start = 1
	}
	if keepLen < start+1 {
		return str
	}

	dotPos := strings.IndexByte(str[:headLen], '.')
	if dotPos < 0 {
		dotPos = headLen
	}
	if dotPos > keepLen {
		exponent := 0
		if ePos >= 0 {
			exponent, _ = strconv.Atoi(str[ePos+1:])
		}
		exponent += dotPos - start - 1
		digits := strings.Replace(str[start:headLen], ".", "", 1)
		return Truncate(str[:start]+digits[:1]+"."+digits[1:]+"E"+strconv.Itoa(exponent), maxLen)
	}

	head := str[:keepLen]
	if !hasSignificant(head) && hasSignificant(str[:headLen]) {
		return Truncate(toScientific(str[:headLen], tail), maxLen)
	}
	if strings.IndexByte(head, '.') >= 0 {
		head = strings.TrimRight(head, "0")
	}
	return strings.TrimSuffix(head, ".") + tail
}

func hasSignificant(s string) bool {
	return strings.ContainsAny(s, "123456789")
}

// toScientific renews a fixed-point head (with an optional exponent tail)
// so that its first significant digit leads.
func toScientific(head, tail string) string {
	sign := ""
	if strings.HasPrefix(head, "-") {
		sign, head = "-", head[1:]
	}
	intDigits := strings.IndexByte(head, '.')
	if intDigits < 0 {
		intDigits = len(head)
	}
	digits := strings.Replace(head, ".", "", 1)
	first := strings.IndexAny(digits, "123456789")

	exponent := intDigits - first - 1
	if tail != "" {
		e, _ := strconv.Atoi(tail[1:])
		exponent += e
	}
	mantissa := digits[first : first+1]
	if rest := strings.TrimRight(digits[first+1:], "0"); rest != "" {
		mantissa += "." + rest
	}
	return sign + mantissa + "E" + strconv.Itoa(exponent)
}
