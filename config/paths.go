// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Locations of texelcalc.json and the per-app config files.

package config

import (
	"errors"
	"os"
	"path/filepath"
)

// rootEnv overrides the user config dir.
const rootEnv = "TEXELCALC_CONFIG_DIR"

// Root returns the directory holding texelcalc.json and apps/<name>/.
func Root() (string, error) {
	if dir := os.Getenv(rootEnv); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "texelcalc"), nil
}

func systemConfigPath() (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, systemConfigName), nil
}

func appConfigPath(app string) (string, error) {
	if app == "" {
		return "", errors.New("app name is required")
	}
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "apps", app, "config.json"), nil
}
