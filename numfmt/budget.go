// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: numfmt/budget.go
// Summary: Formatter configuration shared by the display and the command line.

package numfmt

// Budget bundles the formatter settings. It is configuration and is not
// changed while a result is being rendered.
type Budget struct {
	MaxTotalChars  int
	RoundingDigits int
	Wide           bool
	Base           Base
}

// DefaultBudget matches the shipped calculator defaults.
func DefaultBudget() Budget {
	return Budget{
		MaxTotalChars:  16,
		RoundingDigits: 13,
		Base:           BaseDecimal,
	}
}

// Normalized raises the width to MinTotalChars and fills an unset base.
func (b Budget) Normalized() Budget {
	if b.MaxTotalChars < MinTotalChars {
		b.MaxTotalChars = MinTotalChars
	}
	if b.Base == 0 {
		b.Base = BaseDecimal
	}
	return b
}

// Real formats a single real value under the budget.
func (b Budget) Real(v float64) string {
	b = b.Normalized()
	return Format(v, b.MaxTotalChars, b.RoundingDigits, b.Wide)
}

// Complex formats a complex value under the budget.
func (b Budget) Complex(re, im float64) (string, error) {
	b = b.Normalized()
	return FormatComplex(re, im, b.MaxTotalChars, b.Base)
}
