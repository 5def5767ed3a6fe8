// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: expr/result.go
// Summary: Turns formatted results back into tokens so editing can continue from them.

package expr

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrNotContinuable is returned for result text that has no token form
// (infinities, non-decimal bases, error text).
var ErrNotContinuable = errors.New("result cannot be continued")

// FromResult converts formatter output such as "42", "-1.5E14", "3+2i" or
// "-i" into tokens. Anything other than a plain non-negative decimal is
// wrapped in parentheses so following operators bind to the whole value.
// Result text always uses '.' as the decimal marker.
func FromResult(text string) ([]Token, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty result", ErrNotContinuable)
	}
	var out []Token
	plain := true
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		switch {
		case r >= '0' && r <= '9':
			out = append(out, Digit(int(r-'0')))
		case r == '.':
			out = append(out, DecimalPoint())
		case r == '-' || r == '−':
			plain = false
			out = append(out, Operator(OpSub))
		case r == '+':
			plain = false
			out = append(out, Operator(OpAdd))
		case r == 'i':
			plain = false
			out = append(out, Constant(ConstI))
		case r == 'E':
			plain = false
			exp, n, err := exponentTokens(text[i:])
			if err != nil {
				return nil, err
			}
			out = append(out, exp...)
			i += n
		default:
			return nil, fmt.Errorf("%w: unexpected %q in %q", ErrNotContinuable, r, text)
		}
	}
	if plain {
		return out, nil
	}
	wrapped := make([]Token, 0, len(out)+2)
	wrapped = append(wrapped, Paren(true))
	wrapped = append(wrapped, out...)
	return append(wrapped, Paren(false)), nil
}

// exponentTokens reads the digits after 'E' and spells them as ×10^(…).
func exponentTokens(rest string) ([]Token, int, error) {
	out := []Token{Operator(OpMul), Digit(1), Digit(0), Operator(OpPow), Paren(true)}
	n := 0
	if n < len(rest) && rest[n] == '-' {
		out = append(out, Operator(OpSub))
		n++
	}
	digits := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		out = append(out, Digit(int(rest[n]-'0')))
		n++
		digits++
	}
	if digits == 0 {
		return nil, 0, fmt.Errorf("%w: bad exponent %q", ErrNotContinuable, rest)
	}
	return append(out, Paren(false)), n, nil
}
