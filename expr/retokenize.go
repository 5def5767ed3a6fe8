// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: expr/retokenize.go
// Summary: Converts display text into tokens plus an unprocessed suffix.
// Usage: Called on every edit through Snapshot.Apply, and on restore.

package expr

import (
	"strings"
	"unicode/utf8"
)

// Retokenize scans text left to right and returns the recognised tokens
// and the raw tail that could not be resolved. Grouping separators are
// consumed without producing a token. Every other character ends up in a
// token or in the suffix.
func Retokenize(text string, loc Locale) ([]Token, string) {
	var tokens []Token
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case r >= '0' && r <= '9':
			tokens = append(tokens, Digit(int(r-'0')))
			i += size
			continue
		case r == loc.Decimal:
			tokens = append(tokens, DecimalPoint())
			i += size
			continue
		case r == loc.Grouping:
			i += size
			continue
		}

		tok, n, ok, pending := lookup(text[i:])
		if !ok || pending {
			return tokens, text[i:]
		}
		tokens = append(tokens, tok)
		i += n
	}
	return tokens, ""
}

// Text returns the canonical display spelling of a token.
func (t Token) Text(loc Locale) string {
	switch t.Kind {
	case KindDigit:
		return string(rune('0' + t.Value))
	case KindDecimalPoint:
		return string(loc.Decimal)
	case KindOperator:
		return opText[t.Op()]
	case KindFunction:
		return funcText[t.Func()]
	case KindConstant:
		return constText[t.Const()]
	case KindParen:
		if t.IsOpen() {
			return "("
		}
		return ")"
	}
	return ""
}

// Render is the inverse of Retokenize for a suffix-free token stream.
func Render(tokens []Token, loc Locale) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text(loc))
	}
	return sb.String()
}

// span is the rune range a token occupies in rendered text.
type span struct {
	start, end int
}

func (s span) width() int { return s.end - s.start }

func tokenSpans(tokens []Token, loc Locale) []span {
	spans := make([]span, len(tokens))
	pos := 0
	for i, t := range tokens {
		w := utf8.RuneCountInString(t.Text(loc))
		spans[i] = span{pos, pos + w}
		pos += w
	}
	return spans
}
