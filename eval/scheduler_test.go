// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package eval

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/framegrace/texelcalc/expr"
	"github.com/framegrace/texelcalc/numfmt"
)

func onePlusTwo() []expr.Token {
	return []expr.Token{expr.Digit(1), expr.Operator(expr.OpAdd), expr.Digit(2)}
}

func receive(t *testing.T, s *Scheduler) Completion {
	t.Helper()
	select {
	case c := <-s.Completions():
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("no completion arrived")
	}
	return Completion{}
}

func expectQuiet(t *testing.T, s *Scheduler) {
	t.Helper()
	select {
	case c := <-s.Completions():
		t.Fatalf("unexpected completion %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSchedulerNewRequestSupersedes(t *testing.T) {
	gate := make(chan struct{})
	s := NewScheduler(&tableOracle{answers: defaultAnswers(), gate: gate}, SchedulerOptions{})
	defer s.Close()

	first := s.Request(MainSlot, onePlusTwo(), true)
	second := s.Request(MainSlot, onePlusTwo(), true)
	if second <= first {
		t.Fatalf("epochs not increasing: %d then %d", first, second)
	}
	close(gate)

	c := receive(t, s)
	if c.Epoch != second || c.Err != nil || c.Result.Real != 3 {
		t.Fatalf("completion = %+v", c)
	}
	if !s.Settle(c) {
		t.Fatalf("current completion rejected")
	}
	if s.Settle(c) {
		t.Fatalf("completion accepted twice")
	}
	expectQuiet(t, s)
}

func TestSchedulerStaleEpochRejected(t *testing.T) {
	s := NewScheduler(&tableOracle{answers: defaultAnswers()}, SchedulerOptions{})
	defer s.Close()

	epoch := s.Request(MainSlot, onePlusTwo(), false)
	if s.Settle(Completion{Slot: MainSlot, Epoch: epoch + 1}) {
		t.Fatalf("future epoch accepted")
	}
	if s.Settle(Completion{Slot: MemorySlot, Epoch: epoch}) {
		t.Fatalf("completion for an idle slot accepted")
	}
	s.Cancel(MainSlot, true)
	if _, _, ok := s.Pending(MainSlot); ok {
		t.Fatalf("slot still pending after cancel")
	}
	if s.Settle(Completion{Slot: MainSlot, Epoch: epoch}) {
		t.Fatalf("cancelled epoch accepted")
	}
}

func TestSchedulerSlotsAreIndependent(t *testing.T) {
	gate := make(chan struct{})
	s := NewScheduler(&tableOracle{answers: defaultAnswers(), gate: gate}, SchedulerOptions{})
	defer s.Close()

	s.Request(MainSlot, onePlusTwo(), false)
	s.Request(MemorySlot, []expr.Token{expr.Digit(3)}, false)
	s.Request(HistorySlot(0), onePlusTwo(), false)
	close(gate)

	seen := map[Slot]bool{}
	for i := 0; i < 3; i++ {
		c := receive(t, s)
		if !s.Settle(c) {
			t.Fatalf("completion for %s rejected", c.Slot)
		}
		seen[c.Slot] = true
	}
	if !seen[MainSlot] || !seen[MemorySlot] || !seen[HistorySlot(0)] {
		t.Fatalf("slots seen = %v", seen)
	}
}

func TestSchedulerTimeoutReportsError(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	s := NewScheduler(&tableOracle{gate: gate}, SchedulerOptions{RequestTimeout: 20 * time.Millisecond})
	defer s.Close()

	s.Request(MainSlot, onePlusTwo(), true)
	c := receive(t, s)
	var e *Error
	if !errors.As(c.Err, &e) || e.MessageID != MsgTimeout || !errors.Is(c.Err, ErrDomain) {
		t.Fatalf("completion error = %v", c.Err)
	}
	if !s.Settle(c) {
		t.Fatalf("timed out completion rejected")
	}
}

func TestSchedulerCloseStopsDelivery(t *testing.T) {
	gate := make(chan struct{})
	s := NewScheduler(&tableOracle{gate: gate}, SchedulerOptions{})
	s.Request(MainSlot, onePlusTwo(), true)
	s.Close()
	if epoch := s.Request(MainSlot, onePlusTwo(), true); epoch != 0 {
		t.Fatalf("request after close returned epoch %d", epoch)
	}
	if _, ok := <-s.Completions(); ok {
		t.Fatalf("completion delivered after close")
	}
	close(gate)
}

func TestAccumulatorExpression(t *testing.T) {
	var a Accumulator
	if !a.Empty() {
		t.Fatalf("new accumulator not empty")
	}
	a.Add("3")
	a.Subtract("-1.5")
	toks, err := a.Expression()
	if err != nil {
		t.Fatalf("Expression: %v", err)
	}
	if got := expr.Render(toks, expr.LocaleDot); got != "3−(−1.5)" {
		t.Fatalf("expression = %q", got)
	}

	a.Settle("4.5")
	if v, ok := a.Recall(); !ok || v != "4.5" {
		t.Fatalf("Recall = %q, %v", v, ok)
	}
	a.Add("1")
	toks, _ = a.Expression()
	if got := expr.Render(toks, expr.LocaleDot); got != "4.5+1" {
		t.Fatalf("expression after settle = %q", got)
	}

	a.Clear()
	if !a.Empty() || a.Pending() {
		t.Fatalf("accumulator not cleared")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		kind error
		msg  string
	}{
		{NewError(ErrDomain, MsgDivideByZero), ErrDomain, MsgDivideByZero},
		{ErrNotANumber, ErrNotANumber, MsgNaN},
		{fmt.Errorf("failed to convert real part: %w", numfmt.ErrOverflow), ErrDomain, MsgOverflow},
		{errors.New("boom"), ErrDomain, MsgDomain},
	}
	for _, tt := range tests {
		got := Classify(tt.err)
		if !errors.Is(got, tt.kind) || got.MessageID != tt.msg {
			t.Fatalf("Classify(%v) = %v", tt.err, got)
		}
	}
	if Classify(nil) != nil {
		t.Fatalf("Classify(nil) should be nil")
	}
}
