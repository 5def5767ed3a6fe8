// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/store.go
// Summary: Reads config files, seeding missing ones from embedded defaults.
// Notes: A missing or empty file is seeded and written back so users have
// something to edit. User values always win over defaults.

package config

import "log"

func loadSystem() (Config, error) {
	path, err := systemConfigPath()
	if err != nil {
		log.Printf("Config: Failed to resolve system config path: %v", err)
		cfg := make(Config)
		applySystemDefaults(cfg)
		return cfg, err
	}
	return loadFile(path, defaultSystemConfig, applySystemDefaults)
}

func loadApp(name string) (Config, error) {
	path, err := appConfigPath(name)
	if err != nil {
		return nil, err
	}
	return loadFile(path, func() Config { return defaultAppConfig(name) }, func(cfg Config) {
		applyAppDefaults(name, cfg)
	})
}

// loadFile reads path and fills in defaults without overwriting user
// values. An unreadable file yields the defaults plus the read error.
func loadFile(path string, seed func() Config, fill func(Config)) (Config, error) {
	cfg, exists, err := readConfig(path)
	if err != nil {
		log.Printf("Config: Failed to read %s: %v", path, err)
		cfg = make(Config)
		fill(cfg)
		return cfg, err
	}
	if len(cfg) > 0 {
		fill(cfg)
		log.Printf("Config: Loaded %s", path)
		return cfg, nil
	}

	cfg = seed()
	if cfg == nil {
		cfg = make(Config)
	}
	fill(cfg)
	if err := writeConfig(path, cfg); err != nil {
		log.Printf("Config: Failed to write default config %s: %v", path, err)
		return cfg, err
	}
	if !exists {
		log.Printf("Config: Created %s", path)
	}
	return cfg, nil
}
