// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: expr/locale.go
// Summary: Decimal marker and grouping separator modes.

package expr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLocale is returned by ParseLocale for unsupported names.
var ErrUnknownLocale = errors.New("unknown locale")

// Locale selects which literal is the decimal marker and which is an
// ignored grouping separator.
type Locale struct {
	Name     string
	Decimal  rune
	Grouping rune
}

var (
	LocaleDot   = Locale{Name: "dot", Decimal: '.', Grouping: ','}
	LocaleComma = Locale{Name: "comma", Decimal: ',', Grouping: '.'}
)

// ParseLocale resolves a configured locale name. The empty name means dot.
func ParseLocale(name string) (Locale, error) {
	switch name {
	case "", LocaleDot.Name:
		return LocaleDot, nil
	case LocaleComma.Name:
		return LocaleComma, nil
	}
	return LocaleDot, fmt.Errorf("%w: %q", ErrUnknownLocale, name)
}

func (l Locale) String() string { return l.Name }

// Localize rewrites result text, which always uses '.', with the locale's
// decimal marker.
func (l Locale) Localize(result string) string {
	if l.Decimal == 0 || l.Decimal == '.' {
		return result
	}
	return strings.Map(func(r rune) rune {
		if r == '.' {
			return l.Decimal
		}
		return r
	}, result)
}
