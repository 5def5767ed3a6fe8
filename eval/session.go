// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: eval/session.go
// Summary: Calculator lifecycle state machine.
// Usage: Key handlers call the edit operations; the owner of the session
// feeds Completions() back through Complete.
// Notes: Every edit clears the displayed result before any new evaluation
// is requested, so a result never outlives the tokens that produced it.

package eval

import (
	"log"
	"sync"
	"unicode/utf8"

	"github.com/framegrace/texelcalc/expr"
	"github.com/framegrace/texelcalc/numfmt"
)

// Options configure a Session.
type Options struct {
	Budget numfmt.Budget
	Locale expr.Locale
	// Animate keeps the session in ANIMATE until FinishAnimation is
	// called. When false ANIMATE is passed through immediately.
	Animate bool
}

// Session owns one calculator: its formula, result, memory and the
// evaluation tasks in flight for them.
type Session struct {
	mu      sync.Mutex
	opts    Options
	sched   *Scheduler
	surface Surface
	history HistoryAppender
	memory  Accumulator

	state  State
	target State
	snap   expr.Snapshot

	value    Result
	hasValue bool
	result   string
	preview  bool
	err      *Error

	inverse bool
	toolbar bool
}

// NewSession creates a session in INPUT with an empty formula. surface and
// history may be nil.
func NewSession(sched *Scheduler, surface Surface, history HistoryAppender, opts Options) *Session {
	if opts.Locale.Name == "" {
		opts.Locale = expr.LocaleDot
	}
	opts.Budget = opts.Budget.Normalized()
	return &Session{
		opts:    opts,
		sched:   sched,
		surface: surface,
		history: history,
		state:   StateInput,
		snap:    expr.NewSnapshot(opts.Locale),
	}
}

// Completions exposes the scheduler's completion channel.
func (s *Session) Completions() <-chan Completion { return s.sched.Completions() }

// Close stops all evaluation.
func (s *Session) Close() { s.sched.Close() }

// View returns what the surface currently shows.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the formula being edited.
func (s *Session) Snapshot() expr.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Insert types text at the cursor. From RESULT, text starting with an
// operator or postfix key continues from the result; anything else
// starts a new formula.
func (s *Session) Insert(text string) {
	if text == "" {
		return
	}
	s.update(func() { s.insertLocked(text) })
}

// InsertFunction types a function key, honouring inverse mode.
func (s *Session) InsertFunction(f expr.Func) {
	s.update(func() {
		if s.inverse {
			if inv, ok := expr.Inverse(f); ok {
				f = inv
			}
		}
		tok := expr.Function(f)
		text := tok.Text(s.snap.Locale())
		if !tok.IsPostfix() {
			text += "("
		}
		s.insertLocked(text)
	})
}

// DeleteBackward removes the token before the cursor. In RESULT it
// clears the calculator.
func (s *Session) DeleteBackward() {
	s.update(func() {
		s.leaveTransient()
		if s.state == StateResult {
			s.clearLocked()
			return
		}
		s.edit(expr.Snapshot.DeleteBackward)
	})
}

// MoveLeft moves the cursor one token left.
func (s *Session) MoveLeft() { s.move(expr.Snapshot.MoveLeft) }

// MoveRight moves the cursor one token right.
func (s *Session) MoveRight() { s.move(expr.Snapshot.MoveRight) }

func (s *Session) move(f func(expr.Snapshot) expr.Snapshot) {
	s.update(func() {
		if s.state == StateInput || s.state == StateError {
			s.snap = f(s.snap)
		}
	})
}

// Clear empties the formula and result.
func (s *Session) Clear() {
	s.update(func() {
		s.leaveTransient()
		s.clearLocked()
	})
}

// Replace starts over with text as the formula, as when recalling history.
func (s *Session) Replace(text string) {
	s.update(func() {
		s.leaveTransient()
		s.clearLocked()
		s.edit(func(sn expr.Snapshot) expr.Snapshot { return sn.Insert(text) })
	})
}

// Evaluate requests evaluation of the formula. Empty formulas and bare
// numbers are ignored; an unprocessed suffix is a syntax error.
func (s *Session) Evaluate() {
	s.update(func() {
		if s.state != StateInput && s.state != StateError {
			return
		}
		if s.snap.IsEmpty() {
			return
		}
		s.sched.Cancel(MainSlot, true)
		if s.snap.HasSuffix() {
			s.finishRequested(Result{}, NewError(ErrSyntax, MsgSyntax))
			return
		}
		if s.snap.IsNumberOnly() {
			return
		}
		s.err = nil
		s.state = StateEvaluate
		s.sched.Request(MainSlot, s.snap.Tokens(), true)
	})
}

// Complete applies a finished evaluation. It returns false when the
// completion is stale and was dropped.
func (s *Session) Complete(c Completion) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sched.Settle(c) {
		return false
	}
	switch c.Slot {
	case MainSlot:
		s.completeMain(c)
	case MemorySlot:
		s.completeMemory(c)
	}
	s.presentLocked()
	return true
}

// FinishAnimation ends the ANIMATE state.
func (s *Session) FinishAnimation() {
	s.update(func() {
		if s.state == StateAnimate {
			s.state = s.target
		}
	})
}

// ToggleInverse flips inverse mode for function keys.
func (s *Session) ToggleInverse() {
	s.update(func() { s.inverse = !s.inverse })
}

// ToggleToolbar flips toolbar visibility.
func (s *Session) ToggleToolbar() {
	s.update(func() { s.toolbar = !s.toolbar })
}

// SetBase changes the display base and re-renders the current result.
func (s *Session) SetBase(b numfmt.Base) {
	s.update(func() {
		s.opts.Budget.Base = b
		if !s.hasValue {
			return
		}
		text, err := s.formatValue(s.value, b)
		if err != nil {
			log.Printf("Calculator: cannot show result in %s: %v", b, err)
			s.result, s.err = "", Classify(err)
			return
		}
		s.result = text
		if s.state != StateError {
			s.err = nil
		}
	})
}

// Base returns the display base.
func (s *Session) Base() numfmt.Base {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Budget.Base
}

// MemoryAdd adds the displayed number to memory.
func (s *Session) MemoryAdd() { s.memoryOp(false) }

// MemorySubtract subtracts the displayed number from memory.
func (s *Session) MemorySubtract() { s.memoryOp(true) }

func (s *Session) memoryOp(negate bool) {
	s.update(func() {
		text, ok := s.currentNumber()
		if !ok {
			return
		}
		if negate {
			s.memory.Subtract(text)
		} else {
			s.memory.Add(text)
		}
		s.requestMemory()
	})
}

// MemoryRecall types the memory value at the cursor.
func (s *Session) MemoryRecall() {
	s.update(func() {
		v, ok := s.memory.Recall()
		if !ok {
			return
		}
		toks, err := expr.FromResult(v)
		if err != nil {
			log.Printf("Calculator: cannot recall memory %q: %v", v, err)
			return
		}
		s.leaveTransient()
		insert := func(sn expr.Snapshot) expr.Snapshot { return sn.InsertTokens(toks) }
		if s.state == StateResult {
			s.startFromResult(insert, false)
			return
		}
		s.edit(insert)
	})
}

// MemoryClear empties memory.
func (s *Session) MemoryClear() {
	s.update(func() {
		s.sched.Cancel(MemorySlot, true)
		s.memory.Clear()
	})
}

func (s *Session) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	s.presentLocked()
}

func (s *Session) presentLocked() {
	if s.surface != nil {
		s.surface.Present(s.viewLocked())
	}
}

func (s *Session) viewLocked() View {
	v := View{
		State:   s.state,
		Formula: s.snap.Formula(),
		Suffix:  s.snap.Suffix(),
		Cursor:  s.snap.Cursor(),
		Result:  s.result,
		Preview: s.preview,
		Inverse: s.inverse,
		Toolbar: s.toolbar,
		Base:    s.opts.Budget.Base,
		Memory:  !s.memory.Empty(),
	}
	if s.err != nil {
		v.ErrorKind = s.err.Kind
		v.MessageID = s.err.MessageID
	}
	return v
}

func (s *Session) insertLocked(text string) {
	s.leaveTransient()
	if s.state == StateResult {
		s.startFromResult(func(sn expr.Snapshot) expr.Snapshot { return sn.Insert(text) }, s.continues(text))
		return
	}
	s.edit(func(sn expr.Snapshot) expr.Snapshot { return sn.Insert(text) })
}

// continues reports whether typing text after a result builds on it.
func (s *Session) continues(text string) bool {
	toks, _ := expr.Retokenize(text, s.snap.Locale())
	return len(toks) > 0 && (toks[0].IsBinary() || toks[0].IsPostfix())
}

// leaveTransient settles states that an edit must not happen in.
func (s *Session) leaveTransient() {
	switch s.state {
	case StateEvaluate:
		s.sched.Cancel(MainSlot, false)
		s.state = StateInput
	case StateAnimate:
		s.state = s.target
	case StateInit, StateInitForResult:
		s.sched.Cancel(MainSlot, true)
		s.state = StateInput
	}
}

// startFromResult leaves RESULT. With cont the result is collapsed into
// the new formula before apply runs; otherwise apply starts from empty.
func (s *Session) startFromResult(apply func(expr.Snapshot) expr.Snapshot, cont bool) {
	base := expr.NewSnapshot(s.opts.Locale)
	if cont && s.hasValue {
		text, err := s.formatValue(s.value, numfmt.BaseDecimal)
		if err == nil {
			var toks []expr.Token
			if toks, err = expr.FromResult(text); err == nil {
				base = expr.FromTokens(toks, "", 0, s.opts.Locale)
			}
		}
		if err != nil {
			log.Printf("Calculator: starting fresh, result not continuable: %v", err)
		}
	}
	s.edit(func(expr.Snapshot) expr.Snapshot { return apply(base) })
}

// edit applies f to the formula in INPUT, after cancelling the live
// preview and clearing what was displayed for the old formula.
func (s *Session) edit(f func(expr.Snapshot) expr.Snapshot) {
	s.sched.Cancel(MainSlot, true)
	s.clearResult()
	s.snap = f(s.snap)
	s.state = StateInput
	s.requestPreview()
}

func (s *Session) clearLocked() {
	s.sched.Cancel(MainSlot, true)
	s.clearResult()
	s.snap = expr.NewSnapshot(s.opts.Locale)
	s.state = StateInput
}

func (s *Session) clearResult() {
	s.value, s.hasValue = Result{}, false
	s.result, s.preview = "", false
	s.err = nil
}

func (s *Session) evaluable() bool {
	return !s.snap.IsEmpty() && !s.snap.HasSuffix()
}

func (s *Session) requestPreview() {
	if !s.evaluable() || s.snap.IsNumberOnly() {
		return
	}
	s.sched.Request(MainSlot, s.snap.Tokens(), false)
}

func (s *Session) requestMemory() {
	toks, err := s.memory.Expression()
	if err != nil {
		log.Printf("Calculator: %v", err)
		return
	}
	s.sched.Request(MemorySlot, toks, false)
}

func (s *Session) completeMain(c Completion) {
	switch s.state {
	case StateEvaluate:
		s.finishRequested(c.Result, c.Err)
	case StateInput:
		if c.Err != nil {
			return
		}
		if text, err := s.formatValue(c.Result, s.opts.Budget.Base); err == nil {
			s.value, s.hasValue, s.result, s.preview = c.Result, true, text, true
		}
	case StateInit, StateInitForResult:
		text, err := s.formatValue(c.Result, s.opts.Budget.Base)
		if c.Err != nil {
			err = c.Err
		}
		if err != nil {
			s.err = Classify(err)
			s.state = StateError
			return
		}
		s.value, s.hasValue, s.result = c.Result, true, text
		s.preview = s.state == StateInit
		if s.state == StateInit {
			s.state = StateInput
		} else {
			s.state = StateResult
		}
	}
}

func (s *Session) completeMemory(c Completion) {
	if c.Err != nil {
		log.Printf("Calculator: memory evaluation failed: %v", c.Err)
		return
	}
	text, err := s.formatValue(c.Result, numfmt.BaseDecimal)
	if err != nil {
		log.Printf("Calculator: memory value not shown: %v", err)
		return
	}
	s.memory.Settle(text)
}

// finishRequested routes an explicit evaluation outcome through ANIMATE.
func (s *Session) finishRequested(r Result, err error) {
	var text string
	if err == nil {
		text, err = s.formatValue(r, s.opts.Budget.Base)
	}
	if err != nil {
		s.clearResult()
		s.err = Classify(err)
		s.enter(StateError)
		return
	}
	s.value, s.hasValue, s.result, s.preview = r, true, text, false
	s.err = nil
	s.record(r)
	s.enter(StateResult)
}

func (s *Session) enter(target State) {
	if s.opts.Animate {
		s.state, s.target = StateAnimate, target
		return
	}
	s.state = target
}

func (s *Session) record(r Result) {
	if s.history == nil {
		return
	}
	text, err := s.formatValue(r, numfmt.BaseDecimal)
	if err != nil {
		return
	}
	if err := s.history.Append(s.snap.Formula(), text); err != nil {
		log.Printf("Calculator: failed to record history: %v", err)
	}
}

// formatValue renders r in base. Exact whole numbers use the evaluator's
// own digits when they fit.
func (s *Session) formatValue(r Result, base numfmt.Base) (string, error) {
	b := s.opts.Budget
	b.Base = base
	return FormatResult(r, b)
}

// FormatResult renders r under b the way a session displays it.
func FormatResult(r Result, b numfmt.Budget) (string, error) {
	b = b.Normalized()
	if r.IsReal() && r.WholeNumber != "" && b.Base == numfmt.BaseDecimal &&
		utf8.RuneCountInString(r.WholeNumber) <= b.MaxTotalChars {
		return r.WholeNumber, nil
	}
	return b.Complex(r.Real, r.Imag)
}

// currentNumber returns the decimal text M+ and M- operate on.
func (s *Session) currentNumber() (string, bool) {
	if s.state == StateError {
		return "", false
	}
	if s.hasValue {
		text, err := s.formatValue(s.value, numfmt.BaseDecimal)
		return text, err == nil
	}
	if s.evaluable() && s.snap.IsNumberOnly() {
		return expr.Render(s.snap.Tokens(), expr.LocaleDot), true
	}
	return "", false
}
