// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Process-wide config store for texelcalc.json and per-app files.
// Usage: config.System() for shared settings, config.App(name) for an app's
// own file. Both are loaded on first use and seeded from defaults/.

package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const systemConfigName = "texelcalc.json"

// Config stores configuration sections as JSON-compatible data.
type Config map[string]interface{}

// Section stores key/value pairs for a configuration section.
type Section map[string]interface{}

// store caches the loaded files. err holds the last system load failure;
// the system config is still usable (defaults) when it is set.
type store struct {
	mu     sync.RWMutex
	system Config
	apps   map[string]Config
	err    error
}

var (
	currentMu sync.Mutex
	current   *store
)

func loaded() *store {
	currentMu.Lock()
	defer currentMu.Unlock()
	if current == nil {
		s := &store{apps: make(map[string]Config)}
		s.system, s.err = loadSystem()
		current = s
	}
	return current
}

// Err returns the error from loading texelcalc.json, if any.
func Err() error {
	s := loaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// System returns the system configuration.
func System() Config {
	s := loaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.system
}

// App returns the config for a named app, loading apps/<name>/config.json
// on first use. A file that cannot be read yields the defaults.
func App(name string) Config {
	if name == "" {
		return nil
	}
	s := loaded()
	s.mu.RLock()
	cfg, ok := s.apps[name]
	s.mu.RUnlock()
	if ok {
		return cfg
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg, ok := s.apps[name]; ok {
		return cfg
	}
	cfg, err := loadApp(name)
	if err != nil {
		log.Printf("Config: Failed to load app %q config: %v", name, err)
		cfg = make(Config)
		applyAppDefaults(name, cfg)
	}
	s.apps[name] = cfg
	return cfg
}

// SetSystem replaces the in-memory system config with a copy of cfg.
func SetSystem(cfg Config) {
	s := loaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.system = Clone(cfg)
	if s.system == nil {
		s.system = make(Config)
	}
}

// SetApp replaces the in-memory config of an app with a copy of cfg.
func SetApp(name string, cfg Config) {
	if name == "" {
		return
	}
	s := loaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Clone(cfg)
	if c == nil {
		c = make(Config)
	}
	s.apps[name] = c
}

// SaveSystem writes the in-memory system config to disk.
func SaveSystem() error {
	s := loaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, err := systemConfigPath()
	if err != nil {
		return err
	}
	return writeConfig(path, s.system)
}

// SaveApp writes an app's in-memory config to disk. An app that was never
// loaded is saved with its defaults.
func SaveApp(name string) error {
	if name == "" {
		return nil
	}
	s := loaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.apps[name]
	if cfg == nil {
		cfg = make(Config)
		applyAppDefaults(name, cfg)
		s.apps[name] = cfg
	}
	path, err := appConfigPath(name)
	if err != nil {
		return err
	}
	return writeConfig(path, cfg)
}

// readConfig reports whether path exists alongside its parsed content.
func readConfig(path string) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, true, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, true, nil
}

// writeConfig replaces path atomically so a crash never leaves a
// truncated config behind.
func writeConfig(path string, cfg Config) error {
	if cfg == nil {
		cfg = make(Config)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
