// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: numfmt/complex.go
// Summary: Renders real/imaginary pairs under a shared line budget.

package numfmt

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNotANumber is returned when either part of a result is NaN.
	ErrNotANumber = errors.New("not a number")
	// ErrOverflow is returned when the whole-number digits of a part do
	// not fit the line budget in the display base.
	ErrOverflow = errors.New("value too large for display")
)

// minPrecision is the lowest precision tried before falling back to
// hard truncation.
const minPrecision = 7

// FormatComplex renders re+im·i within maxLineLength characters per part.
// Each part is formatted at decreasing precision until it fits; non-decimal
// bases are applied to the fitted decimal text.
func FormatComplex(re, im float64, maxLineLength int, base Base) (string, error) {
	if math.IsNaN(re) || math.IsNaN(im) {
		return "", ErrNotANumber
	}
	maxLineLength = max(maxLineLength, MinTotalChars)

	reText := fitPart(re, maxLineLength)
	imText := fitPart(im, maxLineLength)
	if base != BaseDecimal {
		var err error
		if reText, err = convertPart(reText, base, maxLineLength); err != nil {
			return "", fmt.Errorf("failed to convert real part: %w", err)
		}
		if imText, err = convertPart(imText, base, maxLineLength); err != nil {
			return "", fmt.Errorf("failed to convert imaginary part: %w", err)
		}
	}

	if im == 0 {
		if re == 0 {
			return "0", nil
		}
		return reText, nil
	}

	imagText := imText + "i"
	switch imText {
	case "1":
		imagText = "i"
	case "-1":
		imagText = "-i"
	}
	if re == 0 {
		return imagText, nil
	}
	if strings.HasPrefix(imagText, "-") {
		return reText + imagText, nil
	}
	return reText + "+" + imagText, nil
}

func fitPart(v float64, maxLen int) string {
	var s string
	for precision := maxLen; precision >= minPrecision; precision-- {
		s = formatDigits(v, precision, false)
		if utf8.RuneCountInString(s) <= maxLen {
			return s
		}
	}
	return Truncate(s, maxLen)
}

// convertPart rewrites fitted decimal text in base. Fractional digits are
// cut to the budget; whole-number digits never are.
func convertPart(text string, base Base, maxLen int) (string, error) {
	out, err := ConvertBase(text, base)
	if err != nil {
		return "", err
	}
	if len(out) <= maxLen {
		return out, nil
	}
	whole := out
	if dot := strings.IndexByte(out, '.'); dot >= 0 {
		whole = out[:dot]
	}
	if len(whole) > maxLen {
		return "", fmt.Errorf("%w: %d digits in %s", ErrOverflow, len(whole), base)
	}
	return strings.TrimSuffix(out[:maxLen], "."), nil
}
