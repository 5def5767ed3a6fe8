// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/theming/for_app.go
// Summary: Active theme merged with colour overrides from an app config.
// Notes: Overrides may sit at the top level of the app file or inside the
// app's own section; the section wins key by key.

package theming

import (
	"github.com/framegrace/texelui/theme"

	"github.com/framegrace/texelcalc/config"
)

const overridesKey = "theme_overrides"

// ForApp returns the active theme with the overrides of the named app.
func ForApp(app string) theme.Config {
	if app == "" {
		return theme.Get()
	}
	return Resolve(theme.Get(), config.App(app), app)
}

// Resolve applies the overrides found in cfg to base.
func Resolve(base theme.Config, cfg config.Config, app string) theme.Config {
	overrides := Overrides(cfg, app)
	if len(overrides) == 0 {
		return base
	}
	return theme.WithOverrides(base, overrides)
}

// Overrides collects the theme overrides of an app config.
func Overrides(cfg config.Config, app string) theme.Config {
	if cfg == nil {
		return nil
	}
	merged := make(map[string]interface{})
	mergeOverrides(merged, cfg[overridesKey])
	if sec := cfg.Section(app); app != "" && sec != nil {
		mergeOverrides(merged, sec[overridesKey])
	}
	if len(merged) == 0 {
		return nil
	}
	return theme.ParseOverrides(merged)
}

func mergeOverrides(dst map[string]interface{}, raw interface{}) {
	sections, ok := asMap(raw)
	if !ok {
		return
	}
	for name, v := range sections {
		src, ok := asMap(v)
		if !ok {
			continue
		}
		out, _ := dst[name].(map[string]interface{})
		if out == nil {
			out = make(map[string]interface{}, len(src))
			dst[name] = out
		}
		for k, val := range src {
			out[k] = val
		}
	}
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case config.Section:
		return m, true
	case config.Config:
		return m, true
	}
	return nil, false
}
