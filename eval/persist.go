// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: eval/persist.go
// Summary: Save and restore of a session across process restarts.

package eval

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/framegrace/texelcalc/expr"
	"github.com/framegrace/texelcalc/numfmt"
)

// PersistedState is the record written on pause and read on restore.
type PersistedState struct {
	State             State  `json:"state"`
	UnprocessedSuffix string `json:"unprocessed_suffix,omitempty"`
	EvaluatorSnapshot []byte `json:"evaluator_snapshot,omitempty"`
	InverseMode       bool   `json:"inverse_mode"`
	ToolbarVisible    bool   `json:"toolbar_visible"`
}

// evaluatorSnapshot is the payload of PersistedState.EvaluatorSnapshot.
type evaluatorSnapshot struct {
	Tokens      []expr.Token `json:"tokens,omitempty"`
	Cursor      int          `json:"cursor"`
	Locale      string       `json:"locale"`
	Base        string       `json:"base"`
	Memory      []Term       `json:"memory,omitempty"`
	MemoryValue string       `json:"memory_value,omitempty"`
}

// Save captures the session. A session caught mid-animation is saved in
// the state the animation leads to.
func (s *Session) Save() (PersistedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memValue, _ := s.memory.Recall()
	data, err := json.Marshal(evaluatorSnapshot{
		Tokens:      s.snap.Tokens(),
		Cursor:      s.snap.Cursor(),
		Locale:      s.snap.Locale().Name,
		Base:        s.opts.Budget.Base.String(),
		Memory:      s.memory.Terms(),
		MemoryValue: memValue,
	})
	if err != nil {
		return PersistedState{}, fmt.Errorf("failed to encode evaluator snapshot: %w", err)
	}

	state := s.state
	if state == StateAnimate {
		state = s.target
	}
	return PersistedState{
		State:             state,
		UnprocessedSuffix: s.snap.Suffix(),
		EvaluatorSnapshot: data,
		InverseMode:       s.inverse,
		ToolbarVisible:    s.toolbar,
	}, nil
}

// Restore reinstates a saved session. Saved results are not trusted: a
// saved RESULT resumes in INIT_FOR_RESULT and a saved ERROR in INIT, and
// the formula is evaluated again without animation. A snapshot written
// under another locale is re-parsed in full.
func (s *Session) Restore(ps PersistedState) error {
	var snap evaluatorSnapshot
	if len(ps.EvaluatorSnapshot) > 0 {
		if err := json.Unmarshal(ps.EvaluatorSnapshot, &snap); err != nil {
			return fmt.Errorf("failed to decode evaluator snapshot: %w", err)
		}
	}
	if err := validTokens(snap.Tokens); err != nil {
		return err
	}

	loc := s.opts.Locale
	stored := loc
	if snap.Locale != "" {
		l, err := expr.ParseLocale(snap.Locale)
		if err != nil {
			log.Printf("Calculator: restoring with locale %s: %v", loc, err)
		} else {
			stored = l
		}
	}
	restored := expr.FromTokens(snap.Tokens, ps.UnprocessedSuffix, snap.Cursor, stored)
	if stored != loc {
		restored = restored.WithLocale(loc)
	}

	s.update(func() {
		s.sched.Cancel(MainSlot, true)
		s.sched.Cancel(MemorySlot, true)
		s.clearResult()

		s.snap = restored
		if snap.Base != "" {
			if b, err := numfmt.ParseBase(snap.Base); err == nil {
				s.opts.Budget.Base = b
			}
		}
		s.inverse, s.toolbar = ps.InverseMode, ps.ToolbarVisible
		s.memory.restore(snap.Memory, snap.MemoryValue)
		if s.memory.Pending() {
			s.requestMemory()
		}

		s.state = ps.State.restored()
		switch {
		case s.state == StateInput:
			s.requestPreview()
		case s.evaluable():
			s.sched.Request(MainSlot, s.snap.Tokens(), false)
		case s.state == StateInitForResult && s.snap.HasSuffix():
			s.err = NewError(ErrSyntax, MsgSyntax)
			s.state = StateError
		default:
			s.state = StateInput
		}
	})
	return nil
}

// validTokens rejects token values no spelling exists for.
func validTokens(tokens []expr.Token) error {
	for i, t := range tokens {
		var limit uint8
		switch t.Kind {
		case expr.KindDigit:
			limit = 9
		case expr.KindOperator:
			limit = uint8(expr.OpPercent)
		case expr.KindFunction:
			limit = uint8(expr.FuncSquare)
		case expr.KindConstant:
			limit = uint8(expr.ConstI)
		case expr.KindParen:
			limit = 1
		case expr.KindDecimalPoint:
			limit = 0
		default:
			return fmt.Errorf("invalid token kind %d at %d", t.Kind, i)
		}
		if t.Value > limit {
			return fmt.Errorf("invalid %s token value %d at %d", t.Kind, t.Value, i)
		}
	}
	return nil
}
