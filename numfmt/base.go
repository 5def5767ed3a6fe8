// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: numfmt/base.go
// Summary: Display base selection and decimal-to-base conversion.

package numfmt

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrUnknownBase is returned by ParseBase for unsupported names.
var ErrUnknownBase = errors.New("unknown base")

// Base is the radix results are displayed in.
type Base int

const (
	BaseBinary  Base = 2
	BaseDecimal Base = 10
	BaseHex     Base = 16
)

const digitChars = "0123456789ABCDEF"

// fractional digits kept when converting, per base.
var fracDigits = map[Base]int{
	BaseBinary: 24,
	BaseHex:    10,
}

// ParseBase resolves a configured base name ("dec", "hex", "bin").
func ParseBase(name string) (Base, error) {
	switch strings.ToLower(name) {
	case "", "dec", "decimal":
		return BaseDecimal, nil
	case "hex", "hexadecimal":
		return BaseHex, nil
	case "bin", "binary":
		return BaseBinary, nil
	}
	return BaseDecimal, fmt.Errorf("%w: %q", ErrUnknownBase, name)
}

func (b Base) String() string {
	switch b {
	case BaseBinary:
		return "bin"
	case BaseHex:
		return "hex"
	}
	return "dec"
}

// Next cycles dec → hex → bin → dec.
func (b Base) Next() Base {
	switch b {
	case BaseDecimal:
		return BaseHex
	case BaseHex:
		return BaseBinary
	}
	return BaseDecimal
}

// ConvertBase rewrites decimal formatter output in another base. Integer
// digits are exact; fractional digits are cut after a fixed count.
func ConvertBase(decimal string, base Base) (string, error) {
	if base == BaseDecimal || decimal == "∞" || decimal == "-∞" {
		return decimal, nil
	}
	if base != BaseHex && base != BaseBinary {
		return "", fmt.Errorf("%w: %d", ErrUnknownBase, int(base))
	}

	f, _, err := big.ParseFloat(decimal, 10, 256, big.ToNearestEven)
	if err != nil {
		return "", fmt.Errorf("failed to parse %q: %w", decimal, err)
	}
	neg := f.Sign() < 0
	f.Abs(f)

	whole, _ := f.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(f, new(big.Float).SetInt(whole))

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	sb.WriteString(strings.ToUpper(whole.Text(int(base))))

	if frac.Sign() != 0 {
		digits := make([]byte, 0, fracDigits[base])
		radix := new(big.Float).SetInt64(int64(base))
		for i := 0; i < fracDigits[base] && frac.Sign() != 0; i++ {
			frac.Mul(frac, radix)
			d, _ := frac.Int64()
			digits = append(digits, digitChars[d])
			frac.Sub(frac, new(big.Float).SetInt64(d))
		}
		if trimmed := strings.TrimRight(string(digits), "0"); trimmed != "" {
			sb.WriteByte('.')
			sb.WriteString(trimmed)
		}
	}
	return sb.String(), nil
}
