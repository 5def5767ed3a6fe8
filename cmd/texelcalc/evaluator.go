// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelcalc/evaluator.go
// Summary: Line-at-a-time evaluation shared by the one-shot and REPL modes.

package main

import (
	"context"
	"log"

	"github.com/framegrace/texelcalc/apps/calculator"
	"github.com/framegrace/texelcalc/eval"
	"github.com/framegrace/texelcalc/expr"
	"github.com/framegrace/texelcalc/numfmt"
)

// lineEvaluator evaluates typed lines outside the TUI. With
// continueResults, a line starting with an operator builds on the
// previous result the way the calculator does after "=".
type lineEvaluator struct {
	oracle          eval.Oracle
	settings        calculator.Settings
	history         eval.HistoryAppender
	continueResults bool

	last    eval.Result
	hasLast bool
}

// evaluate returns the canonical formula and the result text (always
// with '.' as decimal marker).
func (le *lineEvaluator) evaluate(ctx context.Context, slot eval.Slot, line string) (string, string, error) {
	loc := le.settings.Locale
	snap := expr.Parse(line, loc)
	if le.continueResults && le.hasLast && continues(snap) {
		snap = le.continued(snap)
	}
	formula := snap.Text()
	if snap.IsEmpty() || snap.HasSuffix() {
		return formula, "", eval.NewError(eval.ErrSyntax, eval.MsgSyntax)
	}

	if le.settings.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, le.settings.RequestTimeout)
		defer cancel()
	}
	r, err := le.oracle.Evaluate(ctx, slot, snap.Tokens())
	if err != nil {
		return formula, "", eval.Classify(err)
	}
	text, err := eval.FormatResult(r, le.settings.Budget)
	if err != nil {
		return formula, "", eval.Classify(err)
	}
	le.last, le.hasLast = r, true

	if le.history != nil {
		decimal := le.settings.Budget
		decimal.Base = numfmt.BaseDecimal
		if dec, err := eval.FormatResult(r, decimal); err == nil {
			if err := le.history.Append(snap.Formula(), dec); err != nil {
				log.Printf("CLI: failed to record history: %v", err)
			}
		}
	}
	return formula, text, nil
}

func continues(snap expr.Snapshot) bool {
	toks := snap.Tokens()
	return len(toks) > 0 && (toks[0].IsBinary() || toks[0].IsPostfix())
}

// continued prefixes snap with the previous result.
func (le *lineEvaluator) continued(snap expr.Snapshot) expr.Snapshot {
	decimal := le.settings.Budget
	decimal.Base = numfmt.BaseDecimal
	text, err := eval.FormatResult(le.last, decimal)
	if err != nil {
		return snap
	}
	base, err := expr.FromResult(text)
	if err != nil {
		log.Printf("CLI: result not continuable: %v", err)
		return snap
	}
	return expr.FromTokens(append(base, snap.Tokens()...), snap.Suffix(), 0, snap.Locale())
}

// describe turns an evaluation error into the message the calculator
// would show.
func describe(err error) string {
	return calculator.ErrorMessage(eval.Classify(err).MessageID)
}
