// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: defaults/embedded.go
// Summary: Default configuration files compiled into the binary.
// Notes: config seeds missing user files from these.

package defaults

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed texelcalc.json apps/*/config.json
var files embed.FS

const systemFile = "texelcalc.json"

// SystemConfig returns the embedded system config JSON.
func SystemConfig() ([]byte, error) {
	return files.ReadFile(systemFile)
}

// AppConfig returns the embedded config JSON for the named app. Apps
// without defaults yield an error wrapping fs.ErrNotExist.
func AppConfig(app string) ([]byte, error) {
	if app == "" || strings.ContainsAny(app, `/\.`) {
		return nil, fmt.Errorf("invalid app name %q", app)
	}
	data, err := files.ReadFile(path.Join("apps", app, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("no embedded defaults for %q: %w", app, err)
	}
	return data, nil
}

// Apps lists the apps that ship a default config.
func Apps() []string {
	entries, err := files.ReadDir("apps")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
