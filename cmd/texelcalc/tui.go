// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelcalc/tui.go
// Summary: Full-screen calculator mode.

package main

import (
	"errors"
	"fmt"
	"time"

	texelcore "github.com/framegrace/texelui/core"

	"github.com/framegrace/texelcalc/apps/calculator"
	"github.com/framegrace/texelcalc/history"
	"github.com/framegrace/texelcalc/internal/devshell"
	"github.com/framegrace/texelcalc/oracle"
	"github.com/framegrace/texelcalc/storage"
)

type tuiOptions struct {
	Settings    calculator.Settings
	History     *history.Store
	Debounce    time.Duration
	FromScratch bool
	// Session names a separately saved calculator; empty uses the default.
	Session string
}

// runTUI runs the calculator full screen. State is stored under
// Settings.StateDir and restored on the next start.
func runTUI(opts tuiOptions) (err error) {
	svc, err := storage.NewWithDebounce(opts.Settings.StateDir, opts.Debounce)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close state store: %w", cerr))
		}
	}()

	scope := svc.AppStorage(calculator.AppName)
	if opts.Session != "" {
		if scope, err = svc.SessionStorage(calculator.AppName, opts.Session); err != nil {
			return err
		}
	}
	if opts.FromScratch {
		if err := scope.Clear(); err != nil {
			return fmt.Errorf("discard saved state: %w", err)
		}
	}

	devshell.Register(calculator.AppName, func([]string) (texelcore.App, error) {
		app := calculator.New(calculator.Options{
			Settings: opts.Settings,
			Oracle:   oracle.New(oracle.Options{Degrees: opts.Settings.Degrees}),
			History:  opts.History,
		})
		app.SetAppStorage(scope)
		return app, nil
	})
	return devshell.RunApp(calculator.AppName, nil)
}
