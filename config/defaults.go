// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Default values for system and app configuration files.

package config

// CalculatorApp names the calculator's app config and section.
const CalculatorApp = "calculator"

func applySystemDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults("", Section{
		"defaultApp":  CalculatorApp,
		"activeTheme": "mocha",
	})
	cfg.RegisterDefaults("storage", Section{
		"dir":         "",
		"debounce_ms": 2000,
	})
}

func applyAppDefaults(app string, cfg Config) {
	if cfg == nil {
		return
	}
	switch app {
	case CalculatorApp:
		cfg.RegisterDefaults(CalculatorApp, Section{
			"locale":             "dot",
			"max_chars":          16,
			"rounding_digits":    13,
			"wide":               false,
			"base":               "dec",
			"angle":              "rad",
			"animate_ms":         180,
			"request_timeout_ms": 5000,
			"preview_timeout_ms": 1000,
			"history_path":       "",
			"history_limit":      200,
			"state_dir":          "",
			"syntax_style":       "catppuccin-mocha",
		})
	}
}
