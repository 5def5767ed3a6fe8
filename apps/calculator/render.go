// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: apps/calculator/render.go
// Summary: Draws the calculator view into a cell buffer.
// Notes: Layout from the top: indicator line, formula, result or error
// message, then the toolbar when visible. With fewer rows the formula and
// result share what is left, result first.

package calculator

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	texelcore "github.com/framegrace/texelui/core"

	"github.com/framegrace/texelcalc/eval"
	"github.com/framegrace/texelcalc/internal/effects"
	"github.com/framegrace/texelcalc/numfmt"
)

var errorMessages = map[string]string{
	eval.MsgSyntax:       "Syntax error",
	eval.MsgNaN:          "Not a number",
	eval.MsgDivideByZero: "Can't divide by 0",
	eval.MsgDomain:       "Domain error",
	eval.MsgOverflow:     "Value too large",
	eval.MsgTimeout:      "Took too long",
}

// ErrorMessage returns the user-facing text for a message id.
func ErrorMessage(id string) string {
	if msg, ok := errorMessages[id]; ok {
		return msg
	}
	return "Error"
}

var toolbarHints = []struct{ key, label string }{
	{"⏎", "="},
	{"F2", "inv"},
	{"F3", "base"},
	{"F5", "M+"},
	{"F6", "M−"},
	{"F7", "MR"},
	{"F8", "MC"},
	{"M-s", "sin"},
	{"M-c", "cos"},
	{"M-t", "tan"},
	{"M-l", "ln"},
	{"M-g", "log"},
	{"M-x", "exp"},
	{"M-r", "√"},
	{"M-q", "x²"},
	{"M-p", "π"},
	{"M-e", "e"},
	{"M-i", "i"},
}

// canvas is a cell buffer with clipped writes.
type canvas struct {
	buf  [][]texelcore.Cell
	w, h int
}

func newCanvas(w, h int, base tcell.Style) *canvas {
	c := &canvas{w: w, h: h, buf: make([][]texelcore.Cell, h)}
	for y := range c.buf {
		c.buf[y] = make([]texelcore.Cell, w)
		for x := range c.buf[y] {
			c.buf[y][x] = texelcore.Cell{Ch: ' ', Style: base}
		}
	}
	return c
}

func (c *canvas) set(x, y int, r rune, st tcell.Style) int {
	rw := runewidth.RuneWidth(r)
	if rw == 0 {
		rw = 1
	}
	if y < 0 || y >= c.h || x < 0 || x+rw > c.w {
		return rw
	}
	c.buf[y][x] = texelcore.Cell{Ch: r, Style: st}
	if rw == 2 {
		c.buf[y][x+1] = texelcore.Cell{Ch: 0, Style: st}
	}
	return rw
}

// text writes s starting at x and returns the column after it.
func (c *canvas) text(x, y int, s string, st tcell.Style) int {
	for _, r := range s {
		x += c.set(x, y, r, st)
	}
	return x
}

// rightAligned writes s so it ends at the right edge, keeping its tail
// when it is too wide.
func (c *canvas) rightAligned(y int, s string, st tcell.Style) {
	for runewidth.StringWidth(s) > c.w {
		_, size := utf8.DecodeRuneInString(s)
		s = s[size:]
	}
	c.text(c.w-runewidth.StringWidth(s), y, s, st)
}

// Render draws the current view.
func (a *App) Render() [][]texelcore.Cell {
	a.mu.RLock()
	w, h, v := a.width, a.height, a.view
	a.mu.RUnlock()
	if w <= 0 || h <= 0 {
		return [][]texelcore.Cell{}
	}

	c := newCanvas(w, h, a.palette.Base)
	rows := h
	if v.Toolbar && rows >= 4 {
		rows -= a.drawToolbar(c, rows)
	}
	switch {
	case rows >= 3:
		a.drawIndicators(c, 0, v)
		a.drawFormula(c, 1, v)
		a.drawResult(c, 2, v)
	case rows == 2:
		a.drawFormula(c, 0, v)
		a.drawResult(c, 1, v)
	default:
		if v.State == eval.StateResult || v.State == eval.StateError {
			a.drawResult(c, 0, v)
		} else {
			a.drawFormula(c, 0, v)
		}
	}
	return c.buf
}

func (a *App) drawIndicators(c *canvas, y int, v eval.View) {
	var marks []string
	if v.Memory {
		marks = append(marks, "M")
	}
	if v.Inverse {
		marks = append(marks, "INV")
	}
	if a.settings.Degrees {
		marks = append(marks, "DEG")
	} else {
		marks = append(marks, "RAD")
	}
	if v.Base != numfmt.BaseDecimal {
		marks = append(marks, strings.ToUpper(v.Base.String()))
	}
	x := 0
	for _, m := range marks {
		x = c.text(x, y, " "+m+" ", a.palette.Indicator) + 1
	}
}

// drawFormula draws the formula right-aligned with the cursor cell. When
// it does not fit, the window follows the cursor.
func (a *App) drawFormula(c *canvas, y int, v eval.View) {
	formula := []rune(v.Formula)
	runes := append(formula, []rune(v.Suffix)...)
	styles := a.hl.Styles(v.Formula)
	for len(styles) < len(formula) {
		styles = append(styles, a.palette.Digit)
	}
	styles = styles[:len(formula)]
	for range v.Suffix {
		styles = append(styles, a.palette.Suffix)
	}
	switch v.State {
	case eval.StateAnimate:
		p := a.fade.Progress(time.Now())
		for i := range styles {
			styles[i] = effects.BlendStyle(styles[i], a.palette.Preview, p)
		}
	case eval.StateResult:
		for i := range styles {
			styles[i] = a.palette.Preview
		}
	}

	showCursor := v.State == eval.StateInput || v.State == eval.StateError
	cursor := len(runes) - v.Cursor
	if cursor < 0 {
		cursor = 0
	}

	// Cells needed: every rune plus a trailing cursor cell.
	widths := make([]int, len(runes)+1)
	total := 0
	for i, r := range runes {
		widths[i] = max(runewidth.RuneWidth(r), 1)
		total += widths[i]
	}
	widths[len(runes)] = 1
	total++

	start, used := 0, total
	for used > c.w && start < cursor {
		used -= widths[start]
		start++
	}
	end := len(runes) + 1
	for used > c.w && end > cursor+1 {
		end--
		used -= widths[end]
	}

	x := c.w - used
	for i := start; i < end; i++ {
		r, st := ' ', a.palette.Base
		if i < len(runes) {
			r, st = runes[i], styles[i]
		}
		if showCursor && i == cursor {
			st = a.palette.Cursor
		}
		x += c.set(x, y, r, st)
	}
}

// drawResult draws the result or error message. While animating it fades
// in from the preview style.
func (a *App) drawResult(c *canvas, y int, v eval.View) {
	animating := v.State == eval.StateAnimate
	fadeIn := func(st tcell.Style) tcell.Style {
		if !animating {
			return st
		}
		return effects.BlendStyle(a.palette.Preview, st, a.fade.Progress(time.Now()))
	}
	if v.IsError() || v.MessageID != "" {
		c.rightAligned(y, ErrorMessage(v.MessageID), fadeIn(a.palette.Error))
		return
	}
	if v.Result == "" {
		return
	}
	st := fadeIn(a.palette.Result)
	if v.Preview {
		st = a.palette.Preview
	}
	c.rightAligned(y, a.settings.Locale.Localize(v.Result), st)
}

// drawToolbar fills rows from the bottom with key hints and returns how
// many rows it used (at most two).
func (a *App) drawToolbar(c *canvas, rows int) int {
	line, x, used := rows-1, 0, 1
	for y := line - 1; y <= line; y++ {
		for xx := 0; xx < c.w; xx++ {
			c.set(xx, y, ' ', a.palette.Toolbar)
		}
	}
	y := line - 1
	for _, hint := range toolbarHints {
		width := utf8.RuneCountInString(hint.key) + utf8.RuneCountInString(hint.label) + 2
		if x+width > c.w {
			if used == 2 {
				break
			}
			used++
			y, x = line, 0
		}
		x = c.text(x, y, hint.key, a.palette.ToolbarKey)
		x = c.text(x+1, y, hint.label, a.palette.Toolbar) + 1
	}
	if used == 1 {
		// Everything fit on one line; hand the upper row back.
		for xx := 0; xx < c.w; xx++ {
			c.buf[line][xx] = c.buf[line-1][xx]
			c.buf[line-1][xx] = texelcore.Cell{Ch: ' ', Style: a.palette.Base}
		}
	}
	return used
}
