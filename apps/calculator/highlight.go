// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: apps/calculator/highlight.go
// Summary: Chroma-based colouring of the rendered formula.

package calculator

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/texelcalc/internal/theming"
)

const (
	defaultSyntaxStyle = "catppuccin-mocha"
	// noSyntaxStyle keeps the theme palette colours only.
	noSyntaxStyle = "none"
)

// formulaLexer recognises the canonical formula spellings. Function names
// come before constants so "exp" is not read as "e".
var formulaLexer = chroma.MustNewLexer(
	&chroma.Config{Name: "texelcalc", Aliases: []string{"calc"}},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `[0-9]+(?:[.,][0-9]*)?|[.,][0-9]*`, Type: chroma.LiteralNumber},
				{Pattern: `sin⁻¹|cos⁻¹|tan⁻¹|sin|cos|tan|ln|log|exp|√|²`, Type: chroma.NameFunction},
				{Pattern: `π|e|i`, Type: chroma.NameConstant},
				{Pattern: `[+−×÷^!%]`, Type: chroma.Operator},
				{Pattern: `[()]`, Type: chroma.Punctuation},
				{Pattern: `.`, Type: chroma.Error},
			},
		}
	},
)

// highlighter maps formula text to per-rune styles.
type highlighter struct {
	palette theming.Palette
	style   *chroma.Style
}

func newHighlighter(p theming.Palette, styleName string) *highlighter {
	h := &highlighter{palette: p}
	if styleName != noSyntaxStyle {
		if styleName == "" {
			styleName = defaultSyntaxStyle
		}
		h.style = styles.Get(styleName)
	}
	return h
}

// Styles returns one style per rune of formula.
func (h *highlighter) Styles(formula string) []tcell.Style {
	out := make([]tcell.Style, 0, len(formula))
	tokens, err := chroma.Tokenise(formulaLexer, nil, formula)
	if err != nil {
		for range formula {
			out = append(out, h.palette.Digit)
		}
		return out
	}
	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		st := h.styleFor(tok.Type)
		for range tok.Value {
			out = append(out, st)
		}
	}
	return out
}

func (h *highlighter) styleFor(tt chroma.TokenType) tcell.Style {
	var st tcell.Style
	switch tt {
	case chroma.LiteralNumber:
		st = h.palette.Digit
	case chroma.NameFunction:
		st = h.palette.Function
	case chroma.NameConstant:
		st = h.palette.Constant
	case chroma.Operator:
		st = h.palette.Operator
	case chroma.Punctuation:
		st = h.palette.Paren
	default:
		return h.palette.Suffix
	}
	if h.style == nil {
		return st
	}
	entry := h.style.Get(tt)
	if entry.Colour.IsSet() && entry.Colour != h.style.Get(chroma.Text).Colour {
		st = st.Foreground(tcell.NewRGBColor(int32(entry.Colour.Red()), int32(entry.Colour.Green()), int32(entry.Colour.Blue())))
	}
	if entry.Bold == chroma.Yes {
		st = st.Bold(true)
	}
	return st
}
