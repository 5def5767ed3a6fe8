// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: eval/eval.go
// Summary: Collaborator interfaces of the evaluation lifecycle.
// Usage: Session consumes an Oracle, a Surface and a HistoryAppender.

// Package eval sequences asynchronous formula evaluation for a calculator
// session. Results are keyed by (slot, epoch) so completions that arrive
// after an edit are dropped instead of displayed.
package eval

import (
	"context"

	"github.com/framegrace/texelcalc/expr"
	"github.com/framegrace/texelcalc/numfmt"
)

// Result is a successful evaluation.
type Result struct {
	Real  float64
	Imag  float64
	Exact bool
	// WholeNumber is the exact integer text of the value when the
	// evaluator has one, empty otherwise.
	WholeNumber string
}

// IsReal reports whether the result has no imaginary part.
func (r Result) IsReal() bool { return r.Imag == 0 }

// Oracle evaluates token streams. Cancelling ctx abandons the evaluation;
// the oracle should return promptly once it notices.
type Oracle interface {
	Evaluate(ctx context.Context, slot Slot, tokens []expr.Token) (Result, error)
}

// Surface displays session views. Present is called with the session lock
// held and must not call back into the Session.
type Surface interface {
	Present(View)
}

// HistoryAppender records completed evaluations.
type HistoryAppender interface {
	Append(formula, result string) error
}

// View is everything a surface needs to draw the session.
type View struct {
	State   State
	Formula string
	Suffix  string
	// Cursor is the offset from the right edge of Formula+Suffix.
	Cursor int

	Result  string
	Preview bool

	ErrorKind error
	MessageID string

	Inverse bool
	Toolbar bool
	Base    numfmt.Base
	Memory  bool
}

// Text returns the full display text.
func (v View) Text() string { return v.Formula + v.Suffix }

// IsError reports whether the view shows an error.
func (v View) IsError() bool { return v.State == StateError }
