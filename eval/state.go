// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: eval/state.go
// Summary: Calculator lifecycle states and evaluation slots.

package eval

import (
	"fmt"
	"strconv"
)

// State is the lifecycle state of a calculator session.
type State int

const (
	StateInput State = iota
	StateEvaluate
	StateInit
	StateInitForResult
	StateAnimate
	StateResult
	StateError
)

var stateNames = [...]string{
	StateInput:         "INPUT",
	StateEvaluate:      "EVALUATE",
	StateInit:          "INIT",
	StateInitForResult: "INIT_FOR_RESULT",
	StateAnimate:       "ANIMATE",
	StateResult:        "RESULT",
	StateError:         "ERROR",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// ParseState resolves a state name as written by String.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return StateInput, fmt.Errorf("unknown calculator state %q", name)
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stateNames) {
		return nil, fmt.Errorf("invalid calculator state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	st, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// restored maps a persisted state to the state a session resumes in.
// Evaluation outcomes are never trusted across a restart.
func (s State) restored() State {
	switch s {
	case StateResult, StateInitForResult, StateEvaluate, StateAnimate:
		return StateInitForResult
	case StateError, StateInit:
		return StateInit
	}
	return StateInput
}

// Slot identifies an independently evaluable expression context.
type Slot int

const (
	MainSlot   Slot = 0
	MemorySlot Slot = -1
)

// HistorySlot returns the slot of the n-th history entry (0 is newest).
func HistorySlot(n int) Slot { return Slot(n + 1) }

func (s Slot) String() string {
	switch {
	case s == MainSlot:
		return "main"
	case s == MemorySlot:
		return "memory"
	case s > 0:
		return "history/" + strconv.Itoa(int(s)-1)
	}
	return "slot(" + strconv.Itoa(int(s)) + ")"
}
