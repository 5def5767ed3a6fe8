// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: eval/accumulator.go
// Summary: Memory register (M+, M-, MR, MC) owned by a session.

package eval

import (
	"fmt"

	"github.com/framegrace/texelcalc/expr"
)

// Term is one memory operand. Text is formatter output and never changes
// once recorded.
type Term struct {
	Text   string `json:"text"`
	Negate bool   `json:"negate,omitempty"`
}

// Accumulator collects memory terms until their sum is evaluated. It is
// owned by a Session and not safe for concurrent use on its own.
type Accumulator struct {
	terms []Term
	value string
}

// Add records +text.
func (a *Accumulator) Add(text string) { a.push(Term{Text: text}) }

// Subtract records -text.
func (a *Accumulator) Subtract(text string) { a.push(Term{Text: text, Negate: true}) }

func (a *Accumulator) push(t Term) {
	if a.value != "" && len(a.terms) == 0 {
		a.terms = append(a.terms, Term{Text: a.value})
	}
	a.terms = append(a.terms, t)
}

// Clear forgets everything.
func (a *Accumulator) Clear() {
	a.terms = nil
	a.value = ""
}

// Empty reports whether memory holds nothing.
func (a *Accumulator) Empty() bool { return len(a.terms) == 0 && a.value == "" }

// Pending reports whether terms are waiting to be summed.
func (a *Accumulator) Pending() bool { return len(a.terms) > 0 }

// Recall returns the last evaluated sum.
func (a *Accumulator) Recall() (string, bool) { return a.value, a.value != "" }

// Terms returns a copy of the unsummed terms.
func (a *Accumulator) Terms() []Term { return append([]Term(nil), a.terms...) }

// Expression spells the pending terms as a sum.
func (a *Accumulator) Expression() ([]expr.Token, error) {
	var out []expr.Token
	for i, t := range a.terms {
		toks, err := expr.FromResult(t.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to read memory term %q: %w", t.Text, err)
		}
		switch {
		case t.Negate:
			out = append(out, expr.Operator(expr.OpSub))
		case i > 0:
			out = append(out, expr.Operator(expr.OpAdd))
		}
		out = append(out, toks...)
	}
	return out, nil
}

// Settle replaces the pending terms with their evaluated sum.
func (a *Accumulator) Settle(sum string) {
	a.terms = nil
	a.value = sum
}

// restore reinstates persisted memory.
func (a *Accumulator) restore(terms []Term, value string) {
	a.terms = append([]Term(nil), terms...)
	a.value = value
}
