// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func resetStore() {
	currentMu.Lock()
	current = nil
	currentMu.Unlock()
}

func useTempRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv(rootEnv, root)
	resetStore()
	return root
}

func TestSystemDefaultsWritten(t *testing.T) {
	useTempRoot(t)

	cfg := System()
	if got := cfg.GetString("", "defaultApp", ""); got != CalculatorApp {
		t.Fatalf("defaultApp = %q", got)
	}

	path, err := systemConfigPath()
	if err != nil {
		t.Fatalf("systemConfigPath: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read system config: %v", err)
	}
	var disk Config
	if err := json.Unmarshal(data, &disk); err != nil {
		t.Fatalf("unmarshal system config: %v", err)
	}
	if disk.Section("storage") == nil {
		t.Fatalf("expected storage section to be present")
	}
}

func TestSaveSystemWritesUpdates(t *testing.T) {
	useTempRoot(t)

	SetSystem(Config{"activeTheme": "latte"})
	if err := SaveSystem(); err != nil {
		t.Fatalf("SaveSystem: %v", err)
	}

	path, _ := systemConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read system config: %v", err)
	}
	var disk Config
	if err := json.Unmarshal(data, &disk); err != nil {
		t.Fatalf("unmarshal system config: %v", err)
	}
	if got := disk.GetString("", "activeTheme", ""); got != "latte" {
		t.Fatalf("activeTheme = %q, want latte", got)
	}
}

func TestCalculatorDefaultsWritten(t *testing.T) {
	useTempRoot(t)

	cfg := App(CalculatorApp)
	if got := cfg.GetInt(CalculatorApp, "max_chars", 0); got != 16 {
		t.Fatalf("max_chars = %d", got)
	}
	if got := cfg.GetInt(CalculatorApp, "rounding_digits", 0); got != 13 {
		t.Fatalf("rounding_digits = %d", got)
	}
	if got := cfg.GetString(CalculatorApp, "locale", ""); got != "dot" {
		t.Fatalf("locale = %q", got)
	}

	path, err := appConfigPath(CalculatorApp)
	if err != nil {
		t.Fatalf("appConfigPath: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected app config to be written: %v", err)
	}
}

func TestUserValuesSurviveDefaults(t *testing.T) {
	root := useTempRoot(t)

	path := filepath.Join(root, "apps", CalculatorApp, "config.json")
	if err := writeConfig(path, Config{
		CalculatorApp: map[string]interface{}{"max_chars": 24, "locale": "comma"},
	}); err != nil {
		t.Fatalf("write app config: %v", err)
	}

	cfg := App(CalculatorApp)
	if got := cfg.GetInt(CalculatorApp, "max_chars", 0); got != 24 {
		t.Fatalf("max_chars = %d, want 24", got)
	}
	if got := cfg.GetString(CalculatorApp, "locale", ""); got != "comma" {
		t.Fatalf("locale = %q, want comma", got)
	}
	if got := cfg.GetInt(CalculatorApp, "rounding_digits", 0); got != 13 {
		t.Fatalf("missing key not defaulted: rounding_digits = %d", got)
	}
}

func TestSaveAppWritesUpdates(t *testing.T) {
	useTempRoot(t)

	SetApp(CalculatorApp, Config{
		CalculatorApp: map[string]interface{}{"wide": true},
	})
	if err := SaveApp(CalculatorApp); err != nil {
		t.Fatalf("SaveApp: %v", err)
	}

	path, _ := appConfigPath(CalculatorApp)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read app config: %v", err)
	}
	var disk Config
	if err := json.Unmarshal(data, &disk); err != nil {
		t.Fatalf("unmarshal app config: %v", err)
	}
	if !disk.GetBool(CalculatorApp, "wide", false) {
		t.Fatalf("expected wide true")
	}
}

func TestCorruptFileKeepsDefaults(t *testing.T) {
	root := useTempRoot(t)
	if err := os.WriteFile(filepath.Join(root, systemConfigName), []byte("{"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := System()
	if Err() == nil {
		t.Fatalf("expected load error for corrupt file")
	}
	if got := cfg.GetString("", "defaultApp", ""); got != CalculatorApp {
		t.Fatalf("defaultApp = %q", got)
	}
}

func TestTypedGetters(t *testing.T) {
	cfg := Config{"s": map[string]interface{}{
		"i": "12", "f": 2.5, "b": "true", "n": float64(3),
	}}
	if got := cfg.GetInt("s", "i", 0); got != 12 {
		t.Fatalf("GetInt string = %d", got)
	}
	if got := cfg.GetInt("s", "n", 0); got != 3 {
		t.Fatalf("GetInt float = %d", got)
	}
	if got := cfg.GetFloat("s", "f", 0); got != 2.5 {
		t.Fatalf("GetFloat = %v", got)
	}
	if !cfg.GetBool("s", "b", false) {
		t.Fatalf("GetBool string")
	}
	if got := cfg.GetString("missing", "x", "def"); got != "def" {
		t.Fatalf("GetString default = %q", got)
	}
}

func TestMillisAndChoice(t *testing.T) {
	cfg := Config{"calc": map[string]interface{}{
		"animate_ms": 250, "timeout_ms": -5, "angle": "DEG", "base": "oct",
	}}
	if got := cfg.GetMillis("calc", "animate_ms", 0); got != 250*time.Millisecond {
		t.Fatalf("animate_ms = %v", got)
	}
	if got := cfg.GetMillis("calc", "timeout_ms", time.Second); got != 0 {
		t.Fatalf("negative millis = %v, want 0", got)
	}
	if got := cfg.GetMillis("calc", "missing_ms", time.Second); got != time.Second {
		t.Fatalf("missing millis = %v", got)
	}

	angle, err := cfg.GetChoice("calc", "angle", "rad", "rad", "deg")
	if err != nil || angle != "deg" {
		t.Fatalf("angle = %q, %v", angle, err)
	}
	base, err := cfg.GetChoice("calc", "base", "dec", "dec", "hex", "bin")
	if err == nil || base != "dec" {
		t.Fatalf("invalid choice = %q, %v", base, err)
	}
	if !strings.Contains(err.Error(), "oct") {
		t.Fatalf("error should name the bad value: %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Config{"calc": map[string]interface{}{
		"theme_overrides": map[string]interface{}{"preview": "#ff0000"},
	}}
	c := Clone(orig)
	c.Section("calc")["theme_overrides"].(map[string]interface{})["preview"] = "#00ff00"

	inner := orig["calc"].(map[string]interface{})["theme_overrides"].(map[string]interface{})
	if inner["preview"] != "#ff0000" {
		t.Fatalf("clone shares nested maps: %v", inner)
	}
	if Clone(nil) != nil {
		t.Fatal("Clone(nil) should be nil")
	}
}

func TestSetSystemCopies(t *testing.T) {
	useTempRoot(t)
	cfg := Config{"activeTheme": "latte"}
	SetSystem(cfg)
	cfg["activeTheme"] = "frappe"
	if got := System().GetString("", "activeTheme", ""); got != "latte" {
		t.Fatalf("activeTheme = %q, want latte", got)
	}
}
