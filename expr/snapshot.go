// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: expr/snapshot.go
// Summary: Immutable edit transactions over a formula.
// Usage: Each edit returns a new Snapshot; the previous one is never mutated.
// Notes: Cursor offsets are counted in runes from the right edge.

package expr

import "unicode/utf8"

// Edit removes Delete runes before the cursor and inserts Insert there.
type Edit struct {
	Delete int
	Insert string
}

// Snapshot is one state of the formula being edited.
type Snapshot struct {
	tokens []Token
	suffix string
	cursor int
	loc    Locale
}

// NewSnapshot returns an empty formula.
func NewSnapshot(loc Locale) Snapshot {
	return Snapshot{loc: loc}
}

// Parse builds a snapshot from display text with the cursor at the end.
func Parse(text string, loc Locale) Snapshot {
	tokens, suffix := Retokenize(text, loc)
	return Snapshot{tokens: tokens, suffix: suffix, loc: loc}
}

// FromTokens rebuilds a snapshot from stored parts. The cursor is clamped.
func FromTokens(tokens []Token, suffix string, cursor int, loc Locale) Snapshot {
	s := Snapshot{tokens: cloneTokens(tokens), suffix: suffix, loc: loc}
	s.cursor = clamp(cursor, 0, s.Len())
	return s
}

func (s Snapshot) Tokens() []Token { return cloneTokens(s.tokens) }
func (s Snapshot) Suffix() string { return s.suffix }
func (s Snapshot) Locale() Locale { return s.loc }
func (s Snapshot) Cursor() int { return s.cursor }
func (s Snapshot) HasSuffix() bool { return s.suffix != "" }
func (s Snapshot) IsEmpty() bool { return len(s.tokens) == 0 && s.suffix == "" }
func (s Snapshot) Formula() string { return Render(s.tokens, s.loc) }
func (s Snapshot) Text() string { return Render(s.tokens, s.loc) + s.suffix }
func (s Snapshot) Len() int { return utf8.RuneCountInString(s.Text()) }
func (s Snapshot) CursorPosition() int { return CursorPosition(s.cursor, s.Len()) }

// IsNumberOnly reports whether the tokens form a bare literal (or nothing).
func (s Snapshot) IsNumberOnly() bool {
	for _, t := range s.tokens {
		if !t.IsNumeric() {
			return false
		}
	}
	return true
}

// Apply performs an edit at the cursor. When the edit touches the inside
// of a multi-character token the text from that token onward becomes the
// unprocessed suffix; otherwise the whole text is retokenized.
func (s Snapshot) Apply(e Edit) Snapshot {
	old := []rune(s.Text())
	oldLen := len(old)
	pos := CursorPosition(s.cursor, oldLen)
	del := clamp(e.Delete, 0, pos)
	start := pos - del

	next := make([]rune, 0, oldLen-del+len(e.Insert))
	next = append(next, old[:start]...)
	next = append(next, []rune(e.Insert)...)
	next = append(next, old[pos:]...)

	out := Snapshot{loc: s.loc}
	spans := tokenSpans(s.tokens, s.loc)
	if s.touchesInterior(spans, start, pos) {
		k := firstAffected(spans, start)
		out.tokens = cloneTokens(s.tokens[:k])
		out.suffix = string(next[spans[k].start:])
	} else {
		out.tokens, out.suffix = Retokenize(string(next), s.loc)
	}
	out.cursor = AdvanceCursor(s.cursor, oldLen, out.Len())
	return out
}

func (s Snapshot) touchesInterior(spans []span, start, end int) bool {
	for _, sp := range spans {
		if sp.width() < 2 {
			continue
		}
		if (start > sp.start && start < sp.end) || (end > sp.start && end < sp.end) {
			return true
		}
	}
	return false
}

func firstAffected(spans []span, start int) int {
	for i, sp := range spans {
		if sp.end > start {
			return i
		}
	}
	return len(spans)
}

// Insert types text at the cursor.
func (s Snapshot) Insert(text string) Snapshot {
	return s.Apply(Edit{Insert: text})
}

// InsertTokens types the canonical spelling of tokens at the cursor.
func (s Snapshot) InsertTokens(tokens []Token) Snapshot {
	return s.Insert(Render(tokens, s.loc))
}

// DeleteBackward removes the whole token ending at the cursor, or a
// single rune when the cursor is inside the suffix.
func (s Snapshot) DeleteBackward() Snapshot {
	pos := s.CursorPosition()
	if pos == 0 {
		return s
	}
	for _, sp := range tokenSpans(s.tokens, s.loc) {
		if sp.end == pos {
			return s.Apply(Edit{Delete: sp.width()})
		}
	}
	return s.Apply(Edit{Delete: 1})
}

// MoveLeft moves the cursor one token (or suffix rune) to the left.
func (s Snapshot) MoveLeft() Snapshot {
	length := s.Len()
	pos := s.CursorPosition()
	if pos == 0 {
		return s
	}
	next := pos - 1
	for _, sp := range tokenSpans(s.tokens, s.loc) {
		if sp.end == pos {
			next = sp.start
			break
		}
	}
	return s.WithCursor(length - next)
}

// MoveRight moves the cursor one token (or suffix rune) to the right.
func (s Snapshot) MoveRight() Snapshot {
	length := s.Len()
	pos := s.CursorPosition()
	if pos == length {
		return s
	}
	next := pos + 1
	for _, sp := range tokenSpans(s.tokens, s.loc) {
		if sp.start == pos {
			next = sp.end
			break
		}
	}
	return s.WithCursor(length - next)
}

// WithCursor returns a copy with the cursor offset clamped into range.
func (s Snapshot) WithCursor(offsetFromRight int) Snapshot {
	s.tokens = cloneTokens(s.tokens)
	s.cursor = clamp(offsetFromRight, 0, s.Len())
	return s
}

// WithLocale re-parses the formula under another locale. Tokens are
// rendered in the new locale first so numbers keep their value; the
// suffix is re-read as raw text.
func (s Snapshot) WithLocale(loc Locale) Snapshot {
	if loc == s.loc {
		return s
	}
	oldLen := s.Len()
	text := Render(s.tokens, loc) + s.suffix
	out := Parse(text, loc)
	out.cursor = AdvanceCursor(s.cursor, oldLen, out.Len())
	return out
}

func cloneTokens(tokens []Token) []Token {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]Token, len(tokens))
	copy(out, tokens)
	return out
}
