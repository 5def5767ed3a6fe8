// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: apps/calculator/keys.go
// Summary: Key bindings for the calculator.

package calculator

import (
	"log"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/texelcalc/expr"
)

// altFunctions are typed with Alt+letter; the toolbar lists them.
var altFunctions = []struct {
	key rune
	fn  expr.Func
}{
	{'s', expr.FuncSin},
	{'c', expr.FuncCos},
	{'t', expr.FuncTan},
	{'l', expr.FuncLn},
	{'g', expr.FuncLog},
	{'x', expr.FuncExp},
	{'r', expr.FuncSqrt},
	{'q', expr.FuncSquare},
}

var altConstants = []struct {
	key rune
	c   expr.Const
}{
	{'p', expr.ConstPi},
	{'e', expr.ConstE},
	{'i', expr.ConstI},
}

// recallState walks history with Up/Down. idx == len(entries) is the
// live formula.
type recallState struct {
	active  bool
	entries []string
	idx     int
}

// HandleKey translates a key into a session operation.
func (a *App) HandleKey(ev *tcell.EventKey) {
	s := a.session
	switch ev.Key() {
	case tcell.KeyUp:
		a.recallStep(-1)
		return
	case tcell.KeyDown:
		a.recallStep(1)
		return
	}
	a.resetRecall()

	switch ev.Key() {
	case tcell.KeyEnter:
		s.Evaluate()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		s.DeleteBackward()
	case tcell.KeyDelete, tcell.KeyEscape:
		s.Clear()
	case tcell.KeyLeft:
		s.MoveLeft()
	case tcell.KeyRight:
		s.MoveRight()
	case tcell.KeyTab:
		s.ToggleToolbar()
	case tcell.KeyF2:
		s.ToggleInverse()
	case tcell.KeyF3:
		s.SetBase(s.Base().Next())
	case tcell.KeyF5:
		s.MemoryAdd()
	case tcell.KeyF6:
		s.MemorySubtract()
	case tcell.KeyF7:
		s.MemoryRecall()
	case tcell.KeyF8:
		s.MemoryClear()
	case tcell.KeyRune:
		a.handleRune(ev.Rune(), ev.Modifiers())
	}
}

func (a *App) handleRune(r rune, mod tcell.ModMask) {
	s := a.session
	if mod&tcell.ModAlt != 0 {
		for _, b := range altFunctions {
			if b.key == r {
				s.InsertFunction(b.fn)
				return
			}
		}
		for _, b := range altConstants {
			if b.key == r {
				s.Insert(expr.Constant(b.c).Text(a.settings.Locale))
				return
			}
		}
		return
	}
	switch r {
	case '=':
		s.Evaluate()
	case ' ':
	default:
		s.Insert(string(r))
	}
}

func (a *App) resetRecall() {
	a.mu.Lock()
	a.recall = recallState{}
	a.mu.Unlock()
}

// recallStep moves through history by delta and loads that formula.
// Stepping past the newest entry clears the calculator.
func (a *App) recallStep(delta int) {
	if a.history == nil {
		return
	}
	a.mu.Lock()
	if !a.recall.active {
		a.mu.Unlock()
		entries, err := a.loadRecall()
		if err != nil {
			log.Printf("Calculator: history unavailable: %v", err)
			return
		}
		a.mu.Lock()
		a.recall = recallState{active: true, entries: entries, idx: len(entries)}
	}
	idx := a.recall.idx + delta
	if idx < 0 || idx > len(a.recall.entries) {
		a.mu.Unlock()
		return
	}
	a.recall.idx = idx
	var formula string
	if idx < len(a.recall.entries) {
		formula = a.recall.entries[idx]
	}
	a.mu.Unlock()

	if formula == "" {
		a.session.Clear()
		return
	}
	a.session.Replace(formula)
}

func (a *App) loadRecall() ([]string, error) {
	if err := a.history.Flush(); err != nil {
		return nil, err
	}
	entries, err := a.history.Recent(a.settings.HistoryLimit)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Formula)
	}
	return out, nil
}
