// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/framegrace/texelcalc/apps/calculator"
	"github.com/framegrace/texelcalc/eval"
	"github.com/framegrace/texelcalc/expr"
	"github.com/framegrace/texelcalc/history"
	"github.com/framegrace/texelcalc/numfmt"
)

func openHistory(t *testing.T) *history.Store {
	t.Helper()
	hist, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { hist.Close() })
	return hist
}

func TestRunBatchPrintsResults(t *testing.T) {
	le := newLineEvaluator(calculator.DefaultSettings(), nil, false)
	var out, errOut bytes.Buffer
	err := runBatch(context.Background(), le, []string{"2^10", "", "sqrt(16)", "3!"}, &out, &errOut)
	if err != nil {
		t.Fatalf("runBatch: %v (stderr %q)", err, errOut.String())
	}
	if got, want := out.String(), "1024\n4\n6\n"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestRunBatchReportsFailures(t *testing.T) {
	le := newLineEvaluator(calculator.DefaultSettings(), nil, false)
	var out, errOut bytes.Buffer
	err := runBatch(context.Background(), le, []string{"1/0", "1+", "2+2"}, &out, &errOut)
	if !errors.Is(err, errFailed) {
		t.Fatalf("err = %v, want errFailed", err)
	}
	if out.String() != "4\n" {
		t.Fatalf("output = %q", out.String())
	}
	msgs := errOut.String()
	if !strings.Contains(msgs, "1÷0: Can't divide by 0") {
		t.Fatalf("missing divide message in %q", msgs)
	}
	if !strings.Contains(msgs, "Syntax error") {
		t.Fatalf("missing syntax message in %q", msgs)
	}
}

func TestCommaLocaleBatch(t *testing.T) {
	s, err := resolveSettings(calculator.DefaultSettings(), "comma", "", false)
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	le := newLineEvaluator(s, nil, false)
	var out, errOut bytes.Buffer
	if err := runBatch(context.Background(), le, []string{"1,5+1"}, &out, &errOut); err != nil {
		t.Fatalf("runBatch: %v (%s)", err, errOut.String())
	}
	if out.String() != "2,5\n" {
		t.Fatalf("output = %q", out.String())
	}
}

func TestResolveSettings(t *testing.T) {
	s, err := resolveSettings(calculator.DefaultSettings(), "", "hex", true)
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if s.Budget.Base != numfmt.BaseHex || !s.Degrees || s.Locale != expr.LocaleDot {
		t.Fatalf("settings = %+v", s)
	}
	if _, err := resolveSettings(calculator.DefaultSettings(), "klingon", "", false); !errors.Is(err, expr.ErrUnknownLocale) {
		t.Fatalf("bad locale err = %v", err)
	}
	if _, err := resolveSettings(calculator.DefaultSettings(), "", "oct", false); !errors.Is(err, numfmt.ErrUnknownBase) {
		t.Fatalf("bad base err = %v", err)
	}
}

func TestEvaluatorContinuesFromResult(t *testing.T) {
	hist := openHistory(t)
	le := newLineEvaluator(calculator.DefaultSettings(), hist, true)
	ctx := context.Background()

	if _, got, err := le.evaluate(ctx, eval.HistorySlot(0), "2+3"); err != nil || got != "5" {
		t.Fatalf("first = %q, %v", got, err)
	}
	formula, got, err := le.evaluate(ctx, eval.HistorySlot(1), "*4")
	if err != nil || got != "20" {
		t.Fatalf("continued = %q, %v", got, err)
	}
	if formula != "5×4" {
		t.Fatalf("continued formula = %q", formula)
	}
	if _, got, _ := le.evaluate(ctx, eval.HistorySlot(2), "7"); got != "7" {
		t.Fatalf("fresh number = %q", got)
	}

	if err := hist.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	joined, err := hist.Joined()
	if err != nil {
		t.Fatalf("Joined: %v", err)
	}
	if joined != "2+3=5;5×4=20;7=7" {
		t.Fatalf("history = %q", joined)
	}
}

func TestEvaluatorDegrees(t *testing.T) {
	s := calculator.DefaultSettings()
	s.Degrees = true
	le := newLineEvaluator(s, nil, false)
	if _, got, err := le.evaluate(context.Background(), eval.MainSlot, "sin(90)"); err != nil || got != "1" {
		t.Fatalf("sin(90°) = %q, %v", got, err)
	}
}

func TestCompleteWord(t *testing.T) {
	got := completeWord("2+s")
	want := []string{"2+sin(", "2+sqrt("}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("completeWord = %v, want %v", got, want)
	}
	if got := completeWord("2+"); got != nil {
		t.Fatalf("completion without a word = %v", got)
	}
	if got := completeWord("arc"); len(got) != 3 {
		t.Fatalf("arc completions = %v", got)
	}
}

func TestReplCommands(t *testing.T) {
	hist := openHistory(t)
	var out bytes.Buffer
	r := &repl{
		le:      newLineEvaluator(calculator.DefaultSettings(), hist, true),
		history: hist,
		limit:   50,
		out:     &out,
	}
	r.evaluate(context.Background(), eval.HistorySlot(0), "6*7")
	if !strings.Contains(out.String(), "6×7\n  = 42\n") {
		t.Fatalf("evaluate output = %q", out.String())
	}

	out.Reset()
	if r.command(":history") {
		t.Fatal(":history should not exit")
	}
	if out.String() != "6×7 = 42\n" {
		t.Fatalf(":history output = %q", out.String())
	}

	out.Reset()
	r.command(":search 6*7")
	if out.String() != "6×7 = 42\n" {
		t.Fatalf(":search output = %q", out.String())
	}

	out.Reset()
	r.command(":clear")
	r.command(":history")
	if out.String() != "history cleared\n" {
		t.Fatalf("after :clear = %q", out.String())
	}

	if !r.command(":quit") {
		t.Fatal(":quit should exit")
	}
}

func TestRunHistoryCommand(t *testing.T) {
	hist := openHistory(t)
	var out bytes.Buffer
	in := strings.NewReader("1+1=2;2×3=6")
	if err := runHistoryCommand(hist, true, "-", false, in, &out); err != nil {
		t.Fatalf("import+export: %v", err)
	}
	if out.String() != "1+1=2;2×3=6\n" {
		t.Fatalf("export = %q", out.String())
	}

	out.Reset()
	if err := runHistoryCommand(hist, true, "", true, nil, &out); err != nil {
		t.Fatalf("clear+export: %v", err)
	}
	if out.String() != "\n" {
		t.Fatalf("export after clear = %q", out.String())
	}

	if err := runHistoryCommand(nil, true, "", false, nil, &out); err == nil {
		t.Fatal("expected error without a history store")
	}
}

func TestGetPathsHonoursOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(dataDirEnv, dir)
	p, err := GetPaths()
	if err != nil {
		t.Fatalf("GetPaths: %v", err)
	}
	if p.HistoryPath != filepath.Join(dir, "history.db") || p.LogPath != filepath.Join(dir, "texelcalc.log") {
		t.Fatalf("paths = %+v", p)
	}
	if err := p.EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir: %v", err)
	}
}
