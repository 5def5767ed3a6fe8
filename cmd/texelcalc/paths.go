// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelcalc/paths.go
// Summary: Where texelcalc keeps history, logs and saved state.
// Notes: Config files live elsewhere (see config.Root); these are data.

package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// dataDirEnv overrides the data directory.
const dataDirEnv = "TEXELCALC_HOME"

// Paths holds the data files used by the command.
type Paths struct {
	DataDir     string // ~/.texelcalc; saved state goes to storage/ below it
	HistoryPath string // ~/.texelcalc/history.db
	LogPath     string // ~/.texelcalc/texelcalc.log
	ReplHistory string // ~/.texelcalc/repl_history
}

// GetPaths resolves the data directory, honouring TEXELCALC_HOME.
func GetPaths() (*Paths, error) {
	dir := os.Getenv(dataDirEnv)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".texelcalc")
	}
	return &Paths{
		DataDir:     dir,
		HistoryPath: filepath.Join(dir, "history.db"),
		LogPath:     filepath.Join(dir, "texelcalc.log"),
		ReplHistory: filepath.Join(dir, "repl_history"),
	}, nil
}

// EnsureDataDir creates the data directory.
func (p *Paths) EnsureDataDir() error {
	return os.MkdirAll(p.DataDir, 0755)
}
