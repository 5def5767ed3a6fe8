// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: apps/calculator/settings.go
// Summary: Typed view of the calculator section of the app config.

package calculator

import (
	"log"
	"path/filepath"
	"time"

	"github.com/framegrace/texelcalc/config"
	"github.com/framegrace/texelcalc/expr"
	"github.com/framegrace/texelcalc/numfmt"
)

// AppName is the app type used for config, storage and snapshots.
const AppName = config.CalculatorApp

// Settings holds everything the calculator reads from configuration.
type Settings struct {
	Locale         expr.Locale
	Budget         numfmt.Budget
	Degrees        bool
	Animate        time.Duration
	RequestTimeout time.Duration
	PreviewTimeout time.Duration
	HistoryPath    string
	HistoryLimit   int
	StateDir       string
	SyntaxStyle    string
}

// DefaultSettings matches the embedded defaults.
func DefaultSettings() Settings {
	return Settings{
		Locale:         expr.LocaleDot,
		Budget:         numfmt.DefaultBudget(),
		Animate:        180 * time.Millisecond,
		RequestTimeout: 5 * time.Second,
		PreviewTimeout: time.Second,
		HistoryLimit:   200,
		SyntaxStyle:    defaultSyntaxStyle,
	}
}

// LoadSettings reads the calculator section of cfg. Invalid values are
// logged and replaced by defaults.
func LoadSettings(cfg config.Config) Settings {
	s := DefaultSettings()
	const sec = AppName

	if loc, err := expr.ParseLocale(cfg.GetString(sec, "locale", s.Locale.Name)); err != nil {
		log.Printf("Calculator: %v, using %s", err, loc)
	} else {
		s.Locale = loc
	}
	if base, err := numfmt.ParseBase(cfg.GetString(sec, "base", "dec")); err != nil {
		log.Printf("Calculator: %v, using decimal", err)
	} else {
		s.Budget.Base = base
	}
	s.Budget.MaxTotalChars = cfg.GetInt(sec, "max_chars", s.Budget.MaxTotalChars)
	s.Budget.RoundingDigits = cfg.GetInt(sec, "rounding_digits", s.Budget.RoundingDigits)
	s.Budget.Wide = cfg.GetBool(sec, "wide", s.Budget.Wide)
	s.Budget = s.Budget.Normalized()

	angle, err := cfg.GetChoice(sec, "angle", "rad", "rad", "deg")
	if err != nil {
		log.Printf("Calculator: %v, using radians", err)
	}
	s.Degrees = angle == "deg"

	s.Animate = cfg.GetMillis(sec, "animate_ms", s.Animate)
	s.RequestTimeout = cfg.GetMillis(sec, "request_timeout_ms", s.RequestTimeout)
	s.PreviewTimeout = cfg.GetMillis(sec, "preview_timeout_ms", s.PreviewTimeout)
	s.HistoryPath = cfg.GetString(sec, "history_path", "")
	s.HistoryLimit = cfg.GetInt(sec, "history_limit", s.HistoryLimit)
	s.StateDir = cfg.GetString(sec, "state_dir", "")
	s.SyntaxStyle = cfg.GetString(sec, "syntax_style", s.SyntaxStyle)
	return s
}

// ResolvePaths fills empty history and state locations under dataDir.
func (s Settings) ResolvePaths(dataDir string) Settings {
	if s.StateDir == "" {
		s.StateDir = dataDir
	}
	if s.HistoryPath == "" {
		s.HistoryPath = filepath.Join(dataDir, "history.db")
	}
	return s
}
