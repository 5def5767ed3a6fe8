// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: apps/calculator/calculator.go
// Summary: Terminal calculator app built on eval.Session.
// Usage: calculator.New(opts) returns a texelcore.App; the host drives
// Run/Render/HandleKey and may inject storage for state persistence.
// Notes: The session calls Present with its lock held, so Present only
// records the view and wakes the run loop.

package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	texelcore "github.com/framegrace/texelui/core"

	"github.com/framegrace/texelcalc/eval"
	"github.com/framegrace/texelcalc/history"
	"github.com/framegrace/texelcalc/internal/effects"
	"github.com/framegrace/texelcalc/internal/theming"
)

const (
	// stateKey is the storage key of the persisted session.
	stateKey = "state"
	// frameInterval paces redraws while a result fades in.
	frameInterval = 33 * time.Millisecond
)

var (
	_ texelcore.App              = (*App)(nil)
	_ texelcore.AppStorageSetter = (*App)(nil)
	_ texelcore.SnapshotProvider = (*App)(nil)
	_ texelcore.PasteHandler     = (*App)(nil)
	_ eval.Surface               = (*App)(nil)
)

// Options configure a calculator instance.
type Options struct {
	Title    string
	Settings Settings
	Oracle   eval.Oracle
	// History may be nil.
	History *history.Store
	// Palette overrides the theme lookup when set.
	Palette *theming.Palette
}

// App is the calculator display: it owns a session, renders its views
// and translates keys into session operations.
type App struct {
	title    string
	settings Settings
	session  *eval.Session
	history  *history.Store
	palette  theming.Palette
	hl       *highlighter

	mu      sync.RWMutex
	view    eval.View
	width   int
	height  int
	storage texelcore.AppStorage
	recall  recallState
	fade    effects.Fade

	refreshMu sync.Mutex
	refresh   chan<- bool

	animating chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
}

// New creates a calculator. Oracle is required.
func New(opts Options) *App {
	if opts.Title == "" {
		opts.Title = "Calculator"
	}
	a := &App{
		title:     opts.Title,
		settings:  opts.Settings,
		history:   opts.History,
		animating: make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
	if opts.Palette != nil {
		a.palette = *opts.Palette
	} else {
		a.palette = theming.CalculatorPalette(theming.ForApp(AppName))
	}
	a.hl = newHighlighter(a.palette, opts.Settings.SyntaxStyle)

	sched := eval.NewScheduler(opts.Oracle, eval.SchedulerOptions{
		RequestTimeout: opts.Settings.RequestTimeout,
		PreviewTimeout: opts.Settings.PreviewTimeout,
	})
	var appender eval.HistoryAppender
	if opts.History != nil {
		appender = opts.History
	}
	a.session = eval.NewSession(sched, a, appender, eval.Options{
		Budget:  opts.Settings.Budget,
		Locale:  opts.Settings.Locale,
		Animate: opts.Settings.Animate > 0,
	})
	a.view = a.session.View()
	return a
}

// Session exposes the underlying session.
func (a *App) Session() *eval.Session { return a.session }

// Present implements eval.Surface.
func (a *App) Present(v eval.View) {
	a.mu.Lock()
	prev := a.view.State
	a.view = v
	a.mu.Unlock()
	if v.State != eval.StateAnimate {
		a.fade.Stop()
	} else if prev != eval.StateAnimate {
		a.fade.Start(time.Now(), a.settings.Animate, effects.EaseOutCubic)
	}
	if v.State == eval.StateAnimate {
		select {
		case a.animating <- struct{}{}:
		default:
		}
	}
	a.requestRefresh()
}

// CurrentView returns the last presented view.
func (a *App) CurrentView() eval.View {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.view
}

// Run feeds evaluation completions back into the session and ends
// animations until Stop is called.
func (a *App) Run() error {
	var timer *time.Timer
	var timerC <-chan time.Time
	var frames *time.Ticker
	var frameC <-chan time.Time
	stopFrames := func() {
		if frames != nil {
			frames.Stop()
			frames, frameC = nil, nil
		}
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		stopFrames()
	}()

	completions := a.session.Completions()
	for {
		select {
		case c, ok := <-completions:
			if !ok {
				return nil
			}
			a.session.Complete(c)
		case <-a.animating:
			if timer == nil {
				timer = time.NewTimer(a.settings.Animate)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(a.settings.Animate)
			}
			timerC = timer.C
			if frames == nil {
				frames = time.NewTicker(frameInterval)
				frameC = frames.C
			}
		case <-frameC:
			a.requestRefresh()
		case <-timerC:
			timerC = nil
			stopFrames()
			a.session.FinishAnimation()
		case <-a.stop:
			return nil
		}
	}
}

// Stop persists the session and stops evaluation.
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		close(a.stop)
		if err := a.Persist(); err != nil {
			log.Printf("Calculator: failed to persist state: %v", err)
		}
		a.session.Close()
	})
}

// Resize stores the new dimensions of the pane.
func (a *App) Resize(cols, rows int) {
	a.mu.Lock()
	a.width, a.height = cols, rows
	a.mu.Unlock()
}

// GetTitle returns the pane title.
func (a *App) GetTitle() string { return a.title }

// SetRefreshNotifier registers the channel used to request redraws.
func (a *App) SetRefreshNotifier(ch chan<- bool) {
	a.refreshMu.Lock()
	a.refresh = ch
	a.refreshMu.Unlock()
}

func (a *App) requestRefresh() {
	a.refreshMu.Lock()
	ch := a.refresh
	a.refreshMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- true:
	default:
	}
}

// SnapshotMetadata implements texelcore.SnapshotProvider.
func (a *App) SnapshotMetadata() (string, map[string]interface{}) {
	return AppName, map[string]interface{}{
		"locale": a.settings.Locale.Name,
		"base":   a.session.Base().String(),
	}
}

// SetAppStorage implements texelcore.AppStorageSetter. A stored session
// is restored immediately.
func (a *App) SetAppStorage(storage texelcore.AppStorage) {
	a.mu.Lock()
	a.storage = storage
	a.mu.Unlock()
	if storage == nil {
		return
	}
	if err := a.restore(storage); err != nil {
		log.Printf("Calculator: starting fresh: %v", err)
	}
}

func (a *App) restore(storage texelcore.AppStorage) error {
	raw, err := storage.Get(stateKey)
	if err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	var ps eval.PersistedState
	if err := json.Unmarshal(raw, &ps); err != nil {
		return fmt.Errorf("failed to decode state: %w", err)
	}
	return a.session.Restore(ps)
}

// Persist flushes history and stores the session state. The owner of the
// storage service flushes it to disk.
func (a *App) Persist() error {
	var errs []error
	if a.history != nil {
		if err := a.history.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush history: %w", err))
		}
	}
	a.mu.RLock()
	storage := a.storage
	a.mu.RUnlock()
	if storage != nil {
		ps, err := a.session.Save()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to save state: %w", err))
		} else if err := storage.Set(stateKey, ps); err != nil {
			errs = append(errs, fmt.Errorf("failed to store state: %w", err))
		}
	}
	return errors.Join(errs...)
}

// HandlePaste types pasted text. A trailing newline evaluates.
func (a *App) HandlePaste(data []byte) {
	text := strings.ReplaceAll(string(data), "\r", "")
	evaluate := strings.HasSuffix(text, "\n")
	text = strings.Join(strings.Fields(text), "")
	if text != "" {
		a.resetRecall()
		a.session.Insert(text)
	}
	if evaluate {
		a.session.Evaluate()
	}
}
