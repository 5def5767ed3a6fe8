// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/effects/fade.go
// Summary: Timed colour fades for short display transitions.
// Usage: The calculator starts a Fade when it enters ANIMATE and blends
// the preview style into the result style while it runs.

package effects

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
)

// EasingFunc maps progress [0,1] to eased progress [0,1].
type EasingFunc func(progress float32) float32

var (
	EaseLinear EasingFunc = func(t float32) float32 { return t }

	// EaseSmoothstep accelerates at the start and decelerates at the end.
	EaseSmoothstep EasingFunc = func(t float32) float32 {
		return t * t * (3.0 - 2.0*t)
	}

	EaseOutCubic EasingFunc = func(t float32) float32 {
		t1 := t - 1.0
		return t1*t1*t1 + 1.0
	}
)

// Fade tracks one transition from 0 to 1. The zero value is finished.
type Fade struct {
	mu       sync.Mutex
	start    time.Time
	duration time.Duration
	easing   EasingFunc
	running  bool
}

// Start restarts the fade at now. A non-positive duration finishes it
// immediately.
func (f *Fade) Start(now time.Time, duration time.Duration, easing EasingFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if easing == nil {
		easing = EaseSmoothstep
	}
	f.start, f.duration, f.easing = now, duration, easing
	f.running = duration > 0
}

// Stop finishes the fade.
func (f *Fade) Stop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
}

// Progress returns the eased progress at now, 1 once finished.
func (f *Fade) Progress(now time.Time) float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return 1
	}
	if now.Before(f.start) {
		return 0
	}
	elapsed := now.Sub(f.start)
	if elapsed >= f.duration {
		f.running = false
		return 1
	}
	return f.easing(float32(elapsed) / float32(f.duration))
}

// Active reports whether the fade is still running at now.
func (f *Fade) Active(now time.Time) bool {
	return f.Progress(now) < 1
}

// BlendColor mixes overlay into base by intensity. Invalid colours are
// taken as fully the other side.
func BlendColor(base, overlay tcell.Color, intensity float32) tcell.Color {
	if !overlay.Valid() || intensity <= 0 {
		return base
	}
	if !base.Valid() || intensity >= 1 {
		return overlay
	}
	br, bg, bb := base.RGB()
	or, og, ob := overlay.RGB()
	mix := func(bc, oc int32) int32 {
		return int32(float32(bc)*(1-intensity) + float32(oc)*intensity)
	}
	return tcell.NewRGBColor(mix(br, or), mix(bg, og), mix(bb, ob))
}

// BlendStyle interpolates colours from one style to another. Attributes
// switch over at the halfway point.
func BlendStyle(from, to tcell.Style, t float32) tcell.Style {
	if t <= 0 {
		return from
	}
	if t >= 1 {
		return to
	}
	ffg, fbg, fattrs := from.Decompose()
	tfg, tbg, tattrs := to.Decompose()
	attrs := fattrs
	if t >= 0.5 {
		attrs = tattrs
	}
	return tcell.StyleDefault.
		Foreground(BlendColor(ffg, tfg, t)).
		Background(BlendColor(fbg, tbg, t)).
		Attributes(attrs)
}
