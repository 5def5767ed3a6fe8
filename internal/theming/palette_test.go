// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package theming

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/texelcalc/config"
)

func TestCalculatorPaletteAttributes(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TEXELCALC_CONFIG_DIR", t.TempDir())

	p := CalculatorPalette(ForApp("calculator"))
	tests := []struct {
		name  string
		style tcell.Style
		attr  tcell.AttrMask
	}{
		{"cursor", p.Cursor, tcell.AttrReverse},
		{"result", p.Result, tcell.AttrBold},
		{"error", p.Error, tcell.AttrBold},
	}
	for _, tt := range tests {
		_, _, attr := tt.style.Decompose()
		if attr&tt.attr == 0 {
			t.Fatalf("%s style missing attribute %v", tt.name, tt.attr)
		}
	}
}

func TestOverridesMergeSectionOverTopLevel(t *testing.T) {
	cfg := config.Config{
		"theme_overrides": map[string]interface{}{
			"calculator": map[string]interface{}{"preview_fg": "#111111", "digit_fg": "#222222"},
		},
		"calculator": map[string]interface{}{
			"theme_overrides": map[string]interface{}{
				"calculator": map[string]interface{}{"preview_fg": "#333333", "error_fg": "#444444"},
			},
		},
	}
	got := Overrides(cfg, "calculator")
	if n := len(got["calculator"]); n != 3 {
		t.Fatalf("merged calculator overrides = %d keys, want 3 (%v)", n, got)
	}
	if Overrides(config.Config{"calculator": map[string]interface{}{}}, "calculator") != nil {
		t.Fatal("expected no overrides")
	}
	if Overrides(nil, "calculator") != nil {
		t.Fatal("nil config should have no overrides")
	}
}
