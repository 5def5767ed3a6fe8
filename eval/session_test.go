// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package eval

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/framegrace/texelcalc/expr"
	"github.com/framegrace/texelcalc/numfmt"
)

// tableOracle answers from a fixed table keyed by the rendered formula.
// With a gate set, every evaluation waits for the gate to close.
type tableOracle struct {
	mu      sync.Mutex
	answers map[string]Result
	gate    chan struct{}
	calls   []string
}

func (o *tableOracle) Evaluate(ctx context.Context, slot Slot, tokens []expr.Token) (Result, error) {
	formula := expr.Render(tokens, expr.LocaleDot)
	o.mu.Lock()
	o.calls = append(o.calls, formula)
	gate := o.gate
	o.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	if r, ok := o.answers[formula]; ok {
		return r, nil
	}
	return Result{}, NewError(ErrDomain, MsgDomain)
}

type recordingSurface struct {
	mu    sync.Mutex
	views []View
}

func (r *recordingSurface) Present(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

// terminalUpdates counts transitions into RESULT or ERROR.
func (r *recordingSurface) terminalUpdates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	prev := StateInput
	for _, v := range r.views {
		terminal := v.State == StateResult || v.State == StateError
		if terminal && v.State != prev {
			n++
		}
		prev = v.State
	}
	return n
}

type memoryHistory struct {
	entries []string
}

func (h *memoryHistory) Append(formula, result string) error {
	h.entries = append(h.entries, formula+"="+result)
	return nil
}

func defaultAnswers() map[string]Result {
	return map[string]Result{
		"1+2":    {Real: 3, Exact: true, WholeNumber: "3"},
		"3":      {Real: 3, Exact: true, WholeNumber: "3"},
		"2−3.5":  {Real: -1.5, Exact: true},
		"200+55": {Real: 255, Exact: true, WholeNumber: "255"},
		"1.5+2":  {Real: 3.5, Exact: true},
		"1+1":    {Real: 2, Exact: true, WholeNumber: "2"},

		"999999999999999+1": {Real: 1e15, Exact: true, WholeNumber: "1000000000000000"},
	}
}

type fixture struct {
	oracle  *tableOracle
	surface *recordingSurface
	history *memoryHistory
	session *Session
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		oracle:  &tableOracle{answers: defaultAnswers()},
		surface: &recordingSurface{},
		history: &memoryHistory{},
	}
	if opts.Budget.MaxTotalChars == 0 {
		opts.Budget = numfmt.DefaultBudget()
	}
	f.session = NewSession(NewScheduler(f.oracle, SchedulerOptions{}), f.surface, f.history, opts)
	t.Cleanup(f.session.Close)
	return f
}

// pump feeds the next completion back into the session.
func (f *fixture) pump(t *testing.T) (Completion, bool) {
	t.Helper()
	select {
	case c := <-f.session.Completions():
		return c, f.session.Complete(c)
	case <-time.After(2 * time.Second):
		t.Fatalf("no completion arrived")
	}
	return Completion{}, false
}

// pumpUntil feeds completions until one for slot is accepted.
func (f *fixture) pumpUntil(t *testing.T, slot Slot) Completion {
	t.Helper()
	for i := 0; i < 10; i++ {
		c, ok := f.pump(t)
		if ok && c.Slot == slot {
			return c
		}
	}
	t.Fatalf("no accepted completion for %s", slot)
	return Completion{}
}

func (f *fixture) toResult(t *testing.T, formula string) {
	t.Helper()
	f.session.Clear()
	f.session.Insert(formula)
	f.session.Evaluate()
	if st := f.session.State(); st != StateEvaluate {
		t.Fatalf("after Evaluate state = %s, want EVALUATE", st)
	}
	for f.session.State() == StateEvaluate {
		f.pump(t)
	}
	if st := f.session.State(); st != StateResult {
		t.Fatalf("state = %s, want RESULT (%+v)", st, f.session.View())
	}
}

func TestPreviewThenEvaluate(t *testing.T) {
	f := newFixture(t, Options{})
	f.session.Insert("1+2")

	c := f.pumpUntil(t, MainSlot)
	if c.Requested {
		t.Fatalf("first completion should be a live preview")
	}
	v := f.session.View()
	if v.State != StateInput || v.Result != "3" || !v.Preview {
		t.Fatalf("preview view = %+v", v)
	}

	f.session.Evaluate()
	f.pumpUntil(t, MainSlot)
	v = f.session.View()
	if v.State != StateResult || v.Result != "3" || v.Preview {
		t.Fatalf("result view = %+v", v)
	}
	if len(f.history.entries) != 1 || f.history.entries[0] != "1+2=3" {
		t.Fatalf("history = %v", f.history.entries)
	}
}

func TestAnimationHoldsResult(t *testing.T) {
	f := newFixture(t, Options{Animate: true})
	f.session.Insert("1+2")
	f.session.Evaluate()
	for f.session.State() == StateEvaluate {
		f.pump(t)
	}
	if st := f.session.State(); st != StateAnimate {
		t.Fatalf("state = %s, want ANIMATE", st)
	}
	f.session.FinishAnimation()
	if st := f.session.State(); st != StateResult {
		t.Fatalf("state = %s, want RESULT", st)
	}
}

func TestEditClearsResultImmediately(t *testing.T) {
	f := newFixture(t, Options{})
	f.session.Insert("1+2")
	f.pumpUntil(t, MainSlot)
	if f.session.View().Result == "" {
		t.Fatalf("expected a preview")
	}
	f.session.Insert("3")
	if v := f.session.View(); v.Result != "" {
		t.Fatalf("result %q still shown for %q", v.Result, v.Text())
	}
}

func TestResultContinuation(t *testing.T) {
	tests := []struct {
		formula string
		key     string
		want    string
	}{
		{"1+2", "+", "3+"},
		{"1+2", "×", "3×"},
		{"1+2", "!", "3!"},
		{"1+2", "5", "5"},
		{"1+2", "(", "("},
		{"2−3.5", "×", "(−1.5)×"},
		{"2−3.5", "7", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.formula+" "+tt.key, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.toResult(t, tt.formula)
			f.session.Insert(tt.key)
			v := f.session.View()
			if v.State != StateInput {
				t.Fatalf("state = %s, want INPUT", v.State)
			}
			if v.Text() != tt.want {
				t.Fatalf("formula = %q, want %q", v.Text(), tt.want)
			}
			if v.Result != "" {
				t.Fatalf("stale result %q displayed", v.Result)
			}
		})
	}
}

func TestDeleteInResultClears(t *testing.T) {
	f := newFixture(t, Options{})
	f.toResult(t, "1+2")
	f.session.DeleteBackward()
	v := f.session.View()
	if v.State != StateInput || v.Text() != "" || v.Result != "" {
		t.Fatalf("view after delete = %+v", v)
	}
}

func TestRequestedEvaluationsYieldOneTerminalUpdate(t *testing.T) {
	f := newFixture(t, Options{})
	gate := make(chan struct{})
	f.oracle.gate = gate

	f.session.Insert("1+1")
	f.session.Evaluate()
	f.session.DeleteBackward()
	f.session.Insert("2")
	f.session.Evaluate()
	if st := f.session.State(); st != StateEvaluate {
		t.Fatalf("state = %s, want EVALUATE", st)
	}
	close(gate)

	f.pumpUntil(t, MainSlot)
	select {
	case c := <-f.session.Completions():
		if f.session.Complete(c) {
			t.Fatalf("a second completion was accepted: %+v", c)
		}
	case <-time.After(100 * time.Millisecond):
	}

	if n := f.surface.terminalUpdates(); n != 1 {
		t.Fatalf("terminal updates = %d, want 1", n)
	}
	if v := f.session.View(); v.Result != "3" {
		t.Fatalf("result = %q, want 3", v.Result)
	}
}

func TestUnprocessedSuffixIsSyntaxError(t *testing.T) {
	f := newFixture(t, Options{})
	f.session.Insert("2+si")
	f.session.Evaluate()
	v := f.session.View()
	if v.State != StateError || !errors.Is(v.ErrorKind, ErrSyntax) || v.MessageID != MsgSyntax {
		t.Fatalf("view = %+v", v)
	}

	// Editing from ERROR keeps the formula.
	f.session.Insert("n")
	v = f.session.View()
	if v.State != StateInput || v.Text() != "2+sin" || v.Suffix != "" {
		t.Fatalf("view after fixing = %+v", v)
	}
}

func TestEvaluatorErrorRoutesToError(t *testing.T) {
	f := newFixture(t, Options{})
	f.session.Insert("1÷0")
	f.session.Evaluate()
	for f.session.State() == StateEvaluate {
		f.pump(t)
	}
	v := f.session.View()
	if v.State != StateError || !errors.Is(v.ErrorKind, ErrDomain) {
		t.Fatalf("view = %+v", v)
	}
	if len(f.history.entries) != 0 {
		t.Fatalf("errors must not be recorded: %v", f.history.entries)
	}
}

func TestTrivialEvaluateIgnored(t *testing.T) {
	f := newFixture(t, Options{})
	f.session.Evaluate()
	f.session.Insert("42")
	f.session.Evaluate()
	if st := f.session.State(); st != StateInput {
		t.Fatalf("state = %s, want INPUT", st)
	}
}

func TestRestoreRemapsState(t *testing.T) {
	tests := []struct {
		saved   State
		resumed State
		settled State
		preview bool
	}{
		{StateResult, StateInitForResult, StateResult, false},
		{StateInitForResult, StateInitForResult, StateResult, false},
		{StateError, StateInit, StateInput, true},
		{StateInit, StateInit, StateInput, true},
	}
	for _, tt := range tests {
		t.Run(tt.saved.String(), func(t *testing.T) {
			src := newFixture(t, Options{})
			src.session.Insert("1+2")
			ps, err := src.session.Save()
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			ps.State = tt.saved

			dst := newFixture(t, Options{Animate: true})
			if err := dst.session.Restore(ps); err != nil {
				t.Fatalf("Restore: %v", err)
			}
			if st := dst.session.State(); st != tt.resumed {
				t.Fatalf("resumed in %s, want %s", st, tt.resumed)
			}
			dst.pumpUntil(t, MainSlot)
			v := dst.session.View()
			if v.State != tt.settled || v.Result != "3" || v.Preview != tt.preview {
				t.Fatalf("settled view = %+v", v)
			}
			if len(dst.history.entries) != 0 {
				t.Fatalf("silent re-evaluation recorded history")
			}
		})
	}
}

func TestRestoreReparsesOtherLocale(t *testing.T) {
	src := newFixture(t, Options{Locale: expr.LocaleDot})
	src.session.Insert("1.5+2")
	ps, err := src.session.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	dst := newFixture(t, Options{Locale: expr.LocaleComma})
	if err := dst.session.Restore(ps); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := dst.session.View().Text(); got != "1,5+2" {
		t.Fatalf("restored formula = %q, want 1,5+2", got)
	}
	dst.pumpUntil(t, MainSlot)
	if got := dst.session.View().Result; got != "3.5" {
		t.Fatalf("preview = %q, want 3.5", got)
	}
}

func TestRestoreRejectsCorruptSnapshot(t *testing.T) {
	f := newFixture(t, Options{})
	bad, _ := json.Marshal(map[string]any{"tokens": []map[string]int{{"k": 0, "v": 12}}})
	if err := f.session.Restore(PersistedState{EvaluatorSnapshot: bad}); err == nil {
		t.Fatalf("expected an error for digit 12")
	}
	if err := f.session.Restore(PersistedState{EvaluatorSnapshot: []byte("{")}); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestPersistedStateEncodesStateByName(t *testing.T) {
	data, err := json.Marshal(PersistedState{State: StateInitForResult, InverseMode: true})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"state":"INIT_FOR_RESULT"`) {
		t.Fatalf("encoded = %s", data)
	}
	var back PersistedState
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.State != StateInitForResult || !back.InverseMode {
		t.Fatalf("decoded = %+v", back)
	}
}

func TestMemoryRegister(t *testing.T) {
	f := newFixture(t, Options{})
	f.toResult(t, "1+2")
	f.session.MemoryAdd()
	f.pumpUntil(t, MemorySlot)
	if !f.session.View().Memory {
		t.Fatalf("memory indicator not set")
	}

	f.session.Clear()
	f.session.MemoryRecall()
	if got := f.session.View().Text(); got != "3" {
		t.Fatalf("recalled formula = %q, want 3", got)
	}

	f.session.MemoryClear()
	if f.session.View().Memory {
		t.Fatalf("memory indicator still set after clear")
	}
}

func TestInverseFunctionKeys(t *testing.T) {
	f := newFixture(t, Options{})
	f.session.InsertFunction(expr.FuncSin)
	if got := f.session.View().Text(); got != "sin(" {
		t.Fatalf("formula = %q", got)
	}
	f.session.Clear()
	f.session.ToggleInverse()
	f.session.InsertFunction(expr.FuncSin)
	f.session.InsertFunction(expr.FuncLn)
	if got := f.session.View().Text(); got != "sin⁻¹(exp(" {
		t.Fatalf("formula = %q", got)
	}
}

func TestSetBaseRerendersResult(t *testing.T) {
	f := newFixture(t, Options{})
	f.toResult(t, "200+55")
	f.session.SetBase(numfmt.BaseHex)
	if got := f.session.View().Result; got != "FF" {
		t.Fatalf("hex result = %q", got)
	}
	f.session.SetBase(numfmt.BaseDecimal)
	if got := f.session.View().Result; got != "255" {
		t.Fatalf("decimal result = %q", got)
	}
}

func TestSetBaseTooWideBlanksResult(t *testing.T) {
	f := newFixture(t, Options{})
	f.toResult(t, "999999999999999+1")

	f.session.SetBase(numfmt.BaseBinary)
	v := f.session.View()
	if v.Result != "" || v.MessageID != MsgOverflow || v.State != StateResult {
		t.Fatalf("binary view = %+v, want blank result with overflow message", v)
	}

	f.session.SetBase(numfmt.BaseHex)
	v = f.session.View()
	if v.Result != "38D7EA4C68000" || v.MessageID != "" {
		t.Fatalf("hex view = %+v", v)
	}
}

func TestEvaluateTooWideForBaseIsError(t *testing.T) {
	opts := Options{Budget: numfmt.DefaultBudget()}
	opts.Budget.Base = numfmt.BaseBinary
	f := newFixture(t, opts)

	f.session.Insert("999999999999999+1")
	f.session.Evaluate()
	for f.session.State() == StateEvaluate {
		f.pump(t)
	}
	v := f.session.View()
	if v.State != StateError || v.MessageID != MsgOverflow {
		t.Fatalf("view = %+v, want ERROR with overflow message", v)
	}
	if v.Result != "" {
		t.Fatalf("truncated digits shown: %q", v.Result)
	}
}
