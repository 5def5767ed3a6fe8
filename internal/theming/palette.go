// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/theming/palette.go
// Summary: Resolved styles for the calculator display.
// Notes: Each colour can be overridden under the "calculator" theme
// section (e.g. theme_overrides.calculator.digit_fg); the fallback is a
// semantic colour of the active theme.

package theming

import (
	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/texelui/theme"
)

// Section is the theme section holding calculator colour overrides.
const Section = "calculator"

// Palette holds every style the calculator draws with.
type Palette struct {
	Base       tcell.Style
	Digit      tcell.Style
	Operator   tcell.Style
	Function   tcell.Style
	Paren      tcell.Style
	Constant   tcell.Style
	Suffix     tcell.Style
	Cursor     tcell.Style
	Result     tcell.Style
	Preview    tcell.Style
	Error      tcell.Style
	Toolbar    tcell.Style
	ToolbarKey tcell.Style
	Indicator  tcell.Style
}

// CalculatorPalette resolves the calculator palette from tm.
func CalculatorPalette(tm theme.Config) Palette {
	bg := tm.GetColor(Section, "bg", tm.GetSemanticColor("bg.base"))
	fg := tm.GetSemanticColor("text.primary")
	muted := tm.GetSemanticColor("text.muted")
	accent := tm.GetSemanticColor("accent.primary")
	surface := tm.GetSemanticColor("bg.surface")

	base := tcell.StyleDefault.Background(bg).Foreground(fg)
	color := func(key string, def tcell.Color) tcell.Style {
		return base.Foreground(tm.GetColor(Section, key, def))
	}

	return Palette{
		Base:       base,
		Digit:      color("digit_fg", fg),
		Operator:   color("operator_fg", accent),
		Function:   color("function_fg", tm.GetSemanticColor("text.secondary")),
		Paren:      color("paren_fg", muted),
		Constant:   color("constant_fg", tm.GetSemanticColor("text.active")),
		Suffix:     color("suffix_fg", muted).Underline(true),
		Cursor:     base.Reverse(true),
		Result:     color("result_fg", fg).Bold(true),
		Preview:    color("preview_fg", muted),
		Error:      color("error_fg", tm.GetSemanticColor("action.danger")).Bold(true),
		Toolbar:    base.Background(surface).Foreground(muted),
		ToolbarKey: base.Background(surface).Foreground(accent).Bold(true),
		Indicator:  color("indicator_fg", tm.GetSemanticColor("text.inverse")).Background(accent),
	}
}
