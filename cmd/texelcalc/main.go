// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelcalc/main.go
// Summary: texelcalc command: full-screen calculator, one-shot and REPL modes.
// Usage: `texelcalc` on a terminal opens the calculator; `texelcalc -e 2+2`
// prints results; piped input is evaluated line by line; `-repl` starts
// the line editor.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/framegrace/texelcalc/apps/calculator"
	"github.com/framegrace/texelcalc/config"
	"github.com/framegrace/texelcalc/expr"
	"github.com/framegrace/texelcalc/history"
	"github.com/framegrace/texelcalc/numfmt"
	"github.com/framegrace/texelcalc/oracle"
)

// exprList collects repeated -e flags.
type exprList []string

func (l *exprList) String() string     { return strings.Join(*l, "; ") }
func (l *exprList) Set(v string) error { *l = append(*l, v); return nil }

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("texelcalc", flag.ContinueOnError)

	var exprs exprList
	fs.Var(&exprs, "e", "Evaluate an expression and print the result (repeatable)")
	replMode := fs.Bool("repl", false, "Start the line-mode calculator")
	locale := fs.String("locale", "", "Decimal marker: dot or comma (default from config)")
	degrees := fs.Bool("deg", false, "Use degrees for trigonometric functions")
	base := fs.String("base", "", "Result base: dec, hex or bin (default from config)")
	logPath := fs.String("log", "", "Log file (default: ~/.texelcalc/texelcalc.log in interactive modes)")
	fromScratch := fs.Bool("from-scratch", false, "Start from scratch, ignoring the saved calculator state")
	session := fs.String("session", "", "Name of a separately saved calculator state")
	noHistory := fs.Bool("no-history", false, "Do not read or record history")
	exportHistory := fs.Bool("export-history", false, "Print history as joined formula=result pairs and exit")
	importHistory := fs.String("import-history", "", "Append joined formula=result pairs from a file (- for stdin) and exit")
	clearHistory := fs.Bool("clear-history", false, "Delete all history and exit")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	exprs = append(exprs, fs.Args()...)

	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	if err := paths.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	interactive := len(exprs) == 0 && term.IsTerminal(int(os.Stdin.Fd()))
	historyOnly := *exportHistory || *importHistory != "" || *clearHistory
	closeLog, err := setupLogging(*logPath, paths.LogPath, interactive && !historyOnly)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := config.Err(); err != nil {
		log.Printf("Config: using defaults: %v", err)
	} else if root, err := config.Root(); err == nil {
		log.Printf("Config: reading from %s", root)
	}
	settings, err := resolveSettings(calculator.LoadSettings(config.App(calculator.AppName)), *locale, *base, *degrees)
	if err != nil {
		return err
	}
	if settings.StateDir == "" {
		settings.StateDir = config.System().GetString("storage", "dir", "")
	}
	settings = settings.ResolvePaths(paths.DataDir)

	var hist *history.Store
	if !*noHistory {
		hist, err = history.Open(settings.HistoryPath)
		if err != nil {
			if historyOnly {
				return fmt.Errorf("open history: %w", err)
			}
			log.Printf("History: disabled: %v", err)
		} else {
			defer func() {
				if err := hist.Close(); err != nil {
					log.Printf("History: close failed: %v", err)
				}
			}()
		}
	}

	switch {
	case historyOnly:
		return runHistoryCommand(hist, *exportHistory, *importHistory, *clearHistory, os.Stdin, os.Stdout)
	case len(exprs) > 0:
		return runBatch(context.Background(), newLineEvaluator(settings, hist, false), exprs, os.Stdout, os.Stderr)
	case *replMode:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runRepl(ctx, &repl{
			le:      newLineEvaluator(settings, hist, true),
			history: hist,
			limit:   settings.HistoryLimit,
			out:     os.Stdout,
		}, paths.ReplHistory)
	case !interactive:
		lines, err := readLines(os.Stdin)
		if err != nil {
			return err
		}
		return runBatch(context.Background(), newLineEvaluator(settings, hist, false), lines, os.Stdout, os.Stderr)
	}

	debounce := time.Duration(config.System().GetInt("storage", "debounce_ms", 2000)) * time.Millisecond
	return runTUI(tuiOptions{
		Settings:    settings,
		History:     hist,
		Debounce:    debounce,
		FromScratch: *fromScratch,
		Session:     *session,
	})
}

// resolveSettings applies command line overrides to the configured settings.
func resolveSettings(s calculator.Settings, locale, base string, degrees bool) (calculator.Settings, error) {
	if locale != "" {
		loc, err := expr.ParseLocale(locale)
		if err != nil {
			return s, fmt.Errorf("invalid -locale: %w", err)
		}
		s.Locale = loc
	}
	if base != "" {
		b, err := numfmt.ParseBase(base)
		if err != nil {
			return s, fmt.Errorf("invalid -base: %w", err)
		}
		s.Budget.Base = b
	}
	if degrees {
		s.Degrees = true
	}
	return s, nil
}

func newLineEvaluator(s calculator.Settings, hist *history.Store, continueResults bool) *lineEvaluator {
	le := &lineEvaluator{
		oracle:          oracle.New(oracle.Options{Degrees: s.Degrees}),
		settings:        s,
		continueResults: continueResults,
	}
	if hist != nil {
		le.history = hist
	}
	return le
}

// setupLogging sends the standard logger to path. Interactive modes log to
// fallback when no path is given so the screen stays clean.
func setupLogging(path, fallback string, interactive bool) (func(), error) {
	if path == "" && interactive {
		path = fallback
	}
	if path == "" {
		return func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}

func runHistoryCommand(hist *history.Store, export bool, importFrom string, clearAll bool, in io.Reader, out io.Writer) error {
	if hist == nil {
		return errors.New("history is disabled")
	}
	if clearAll {
		if err := hist.Clear(); err != nil {
			return err
		}
	}
	if importFrom != "" {
		var data []byte
		var err error
		if importFrom == "-" {
			data, err = io.ReadAll(in)
		} else {
			data, err = os.ReadFile(importFrom)
		}
		if err != nil {
			return fmt.Errorf("read history import: %w", err)
		}
		n, err := hist.ImportJoined(string(data))
		if err != nil {
			return err
		}
		log.Printf("History: imported %d entries", n)
	}
	if export {
		if err := hist.Flush(); err != nil {
			return err
		}
		joined, err := hist.Joined()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, joined)
	}
	return nil
}
