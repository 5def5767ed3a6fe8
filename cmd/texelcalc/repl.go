// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelcalc/repl.go
// Summary: Line-mode calculator with editing, completion and history.
// Usage: texelcalc -repl. Lines starting with an operator continue from
// the previous result; ":help" lists the commands.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/peterh/liner"

	"github.com/framegrace/texelcalc/eval"
	"github.com/framegrace/texelcalc/expr"
	"github.com/framegrace/texelcalc/history"
)

const (
	promptMain = "= "
	replHelp   = `:history [n]   show the last n evaluations (default 20)
:search text   find evaluations containing text
:clear         forget all history
:quit          leave`
)

// completions offered for a trailing word.
var completions = []string{
	"sin(", "cos(", "tan(", "arcsin(", "arccos(", "arctan(",
	"ln(", "log(", "exp(", "sqrt(", "pi",
}

// completeWord extends the trailing letters of line with every matching
// function or constant name.
func completeWord(line string) []string {
	start := len(line)
	for start > 0 {
		r := rune(line[start-1])
		if r >= 0x80 || !unicode.IsLetter(r) {
			break
		}
		start--
	}
	word := line[start:]
	if word == "" {
		return nil
	}
	var out []string
	for _, c := range completions {
		if strings.HasPrefix(c, word) {
			out = append(out, line[:start]+c)
		}
	}
	return out
}

type repl struct {
	le      *lineEvaluator
	history *history.Store
	limit   int
	out     io.Writer
}

func runRepl(ctx context.Context, r *repl, historyFile string) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completeWord)

	if f, err := os.Open(historyFile); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	} else if r.history != nil {
		if entries, err := r.history.Recent(r.limit); err == nil {
			for _, e := range entries {
				ln.AppendHistory(e.Formula)
			}
		}
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		} else {
			log.Printf("CLI: failed to save line history: %v", err)
		}
	}()

	for n := 0; ; n++ {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read line: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if strings.HasPrefix(line, ":") {
			if r.command(line) {
				return nil
			}
			continue
		}
		r.evaluate(ctx, eval.HistorySlot(n), line)
	}
}

func (r *repl) evaluate(ctx context.Context, slot eval.Slot, line string) {
	formula, result, err := r.le.evaluate(ctx, slot, line)
	if err != nil {
		fmt.Fprintf(r.out, "%s\n  %s\n", formula, describe(err))
		return
	}
	fmt.Fprintf(r.out, "%s\n  = %s\n", formula, r.le.settings.Locale.Localize(result))
}

// command runs a ":" command and reports whether the REPL should exit.
func (r *repl) command(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Fprintln(r.out, replHelp)
	case ":history":
		n := 20
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil && v > 0 {
				n = v
			}
		}
		r.printEntries(func() ([]history.Entry, error) {
			if err := r.history.Flush(); err != nil {
				return nil, err
			}
			return r.history.Recent(n)
		})
	case ":search":
		query := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		if query == "" {
			fmt.Fprintln(r.out, "usage: :search text")
			return false
		}
		// Stored formulas use canonical spellings.
		query = expr.Parse(query, r.le.settings.Locale).Text()
		r.printEntries(func() ([]history.Entry, error) {
			if err := r.history.Flush(); err != nil {
				return nil, err
			}
			return r.history.Search(query, r.limit)
		})
	case ":clear":
		if r.history == nil {
			fmt.Fprintln(r.out, "history is disabled")
			return false
		}
		if err := r.history.Clear(); err != nil {
			fmt.Fprintf(r.out, "failed to clear history: %v\n", err)
			return false
		}
		fmt.Fprintln(r.out, "history cleared")
	default:
		fmt.Fprintf(r.out, "unknown command %s. Type :help for a list.\n", fields[0])
	}
	return false
}

func (r *repl) printEntries(load func() ([]history.Entry, error)) {
	if r.history == nil {
		fmt.Fprintln(r.out, "history is disabled")
		return
	}
	entries, err := load()
	if err != nil {
		fmt.Fprintf(r.out, "history unavailable: %v\n", err)
		return
	}
	for _, e := range entries {
		fmt.Fprintf(r.out, "%s = %s\n", e.Formula, r.le.settings.Locale.Localize(e.Result))
	}
}
