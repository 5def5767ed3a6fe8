// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: expr/cursor.go
// Summary: Cursor tracking as a distance from the right edge.

package expr

// AdvanceCursor carries a cursor across an edit that changed the text
// length from oldLength to newLength. The distance from the right edge is
// kept, so text to the right of the edit point stays under the cursor
// even when a token expands or collapses.
func AdvanceCursor(oldOffsetFromRight, oldLength, newLength int) int {
	offset := clamp(oldOffsetFromRight, 0, max(oldLength, 0))
	return clamp(offset, 0, max(newLength, 0))
}

// CursorPosition converts an offset from the right into an absolute
// index in [0, length].
func CursorPosition(offsetFromRight, length int) int {
	return clamp(length-offsetFromRight, 0, max(length, 0))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
