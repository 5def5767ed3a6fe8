// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/embedded.go
// Summary: Parsed copies of the defaults compiled into the binary.

package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"sync"

	"github.com/framegrace/texelcalc/defaults"
)

// embedded caches parsed defaults keyed by app name; "" is the system file.
var embedded sync.Map

// embeddedDefaults parses the defaults for app once. Apps without embedded
// defaults yield nil without error. Callers must Clone before mutating.
func embeddedDefaults(app string) (Config, error) {
	if cfg, ok := embedded.Load(app); ok {
		return cfg.(Config), nil
	}
	var data []byte
	var err error
	if app == "" {
		data, err = defaults.SystemConfig()
	} else {
		data, err = defaults.AppConfig(app)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	actual, _ := embedded.LoadOrStore(app, cfg)
	return actual.(Config), nil
}

func defaultSystemConfig() Config {
	return defaultAppConfig("")
}

// defaultAppConfig returns a private copy of the embedded defaults, or
// nil when there are none.
func defaultAppConfig(app string) Config {
	cfg, err := embeddedDefaults(app)
	if err != nil {
		return nil
	}
	return Clone(cfg)
}
