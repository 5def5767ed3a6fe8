// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelcalc/batch.go
// Summary: One-shot evaluation of -e arguments or piped lines.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/framegrace/texelcalc/eval"
)

// errFailed reports that at least one expression did not evaluate.
var errFailed = errors.New("some expressions failed")

// runBatch evaluates each expression independently and prints one result
// line per expression. Failures go to errOut and do not stop the batch.
func runBatch(ctx context.Context, le *lineEvaluator, exprs []string, out, errOut io.Writer) error {
	failed := false
	for i, line := range exprs {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		formula, result, err := le.evaluate(ctx, eval.HistorySlot(i), line)
		if err != nil {
			failed = true
			fmt.Fprintf(errOut, "texelcalc: %s: %s\n", formula, describe(err))
			continue
		}
		fmt.Fprintln(out, le.settings.Locale.Localize(result))
	}
	if failed {
		return errFailed
	}
	return nil
}

// readLines collects the lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return lines, nil
}
