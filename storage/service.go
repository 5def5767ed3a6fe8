// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: storage/service.go
// Summary: File-backed scoped JSON storage for app state.
// Usage: cmd/texelcalc creates one Service and hands the calculator its
// app scope through texelcore.AppStorageSetter.

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	texelcore "github.com/framegrace/texelui/core"
)

// DefaultDebounce delays the background write after a change.
const DefaultDebounce = 2 * time.Second

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("storage: service closed")

// Service keeps one JSON object per scope in memory and writes dirty
// scopes to disk on Flush or after the debounce interval.
type Service struct {
	baseDir string
	mu      sync.RWMutex

	// scope -> key -> value
	cache map[string]map[string]json.RawMessage
	dirty map[string]bool
	paths map[string]string

	debounce   time.Duration
	flushTimer *time.Timer
	flushMu    sync.Mutex

	closed bool
}

// New creates a service rooted at baseDir/storage.
func New(baseDir string) (*Service, error) {
	return NewWithDebounce(baseDir, DefaultDebounce)
}

// NewWithDebounce creates a service with a custom write delay. A zero
// delay disables background writes; callers then rely on Flush.
func NewWithDebounce(baseDir string, debounce time.Duration) (*Service, error) {
	root := filepath.Join(baseDir, "storage")
	for _, sub := range []string{"app", "pane"} {
		dir := filepath.Join(root, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
		}
	}
	return &Service{
		baseDir:  root,
		cache:    make(map[string]map[string]json.RawMessage),
		dirty:    make(map[string]bool),
		paths:    make(map[string]string),
		debounce: debounce,
	}, nil
}

// AppStorage returns the scope shared by every instance of appType.
func (s *Service) AppStorage(appType string) texelcore.AppStorage {
	return s.scoped("app/"+appType, filepath.Join(s.baseDir, "app", appType+".json"))
}

// SessionStorage returns a scope private to one named session of
// appType, so several saved calculators can coexist.
func (s *Service) SessionStorage(appType, session string) (texelcore.AppStorage, error) {
	if session == "" || strings.ContainsAny(session, `/\`) || session == "." || session == ".." {
		return nil, fmt.Errorf("invalid session name %q", session)
	}
	dir := filepath.Join(s.baseDir, "session", session)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	return s.scoped(fmt.Sprintf("session/%s/%s", session, appType), filepath.Join(dir, appType+".json")), nil
}

func (s *Service) scoped(scope, path string) *Scope {
	s.mu.Lock()
	s.paths[scope] = path
	s.mu.Unlock()
	return &Scope{service: s, scope: scope, path: path}
}

// Flush writes every dirty scope.
func (s *Service) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for scope, isDirty := range s.dirty {
		if !isDirty {
			continue
		}
		path, ok := s.paths[scope]
		if !ok {
			continue
		}
		data := s.cache[scope]
		if len(data) == 0 {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				errs = append(errs, fmt.Errorf("failed to remove scope %s: %w", scope, err))
				continue
			}
			delete(s.dirty, scope)
			continue
		}
		if err := writeScope(path, data); err != nil {
			errs = append(errs, fmt.Errorf("failed to write scope %s: %w", scope, err))
			continue
		}
		delete(s.dirty, scope)
	}
	return errors.Join(errs...)
}

// writeScope replaces path atomically.
func writeScope(path string, data map[string]json.RawMessage) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Close stops pending background writes and flushes.
func (s *Service) Close() error {
	s.flushMu.Lock()
	if s.flushTimer != nil {
		s.flushTimer.Stop()
		s.flushTimer = nil
	}
	s.flushMu.Unlock()

	err := s.Flush()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

// markDirty must be called with s.mu held.
func (s *Service) markDirty(scope string) {
	s.dirty[scope] = true
	s.scheduleFlush()
}

func (s *Service) scheduleFlush() {
	if s.debounce <= 0 {
		return
	}
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	if s.flushTimer != nil {
		s.flushTimer.Stop()
	}
	s.flushTimer = time.AfterFunc(s.debounce, func() {
		if err := s.Flush(); err != nil {
			log.Printf("Storage: background flush failed: %v", err)
		}
	})
}

// ensureLoaded reads a scope from disk once. Must be called with s.mu held.
func (s *Service) ensureLoaded(scope, path string) error {
	if _, ok := s.cache[scope]; ok {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.cache[scope] = make(map[string]json.RawMessage)
			return nil
		}
		return fmt.Errorf("failed to read storage file: %w", err)
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(data, &values); err != nil || values == nil {
		log.Printf("Storage: discarding corrupt scope %s: %v", scope, err)
		values = make(map[string]json.RawMessage)
	}
	s.cache[scope] = values
	return nil
}

// Scope is one JSON object of key/value pairs.
type Scope struct {
	service *Service
	scope   string
	path    string
}

// Get returns the raw value for key, or nil when absent.
func (ss *Scope) Get(key string) (json.RawMessage, error) {
	ss.service.mu.Lock()
	defer ss.service.mu.Unlock()

	if err := ss.service.ensureLoaded(ss.scope, ss.path); err != nil {
		return nil, err
	}
	return ss.service.cache[ss.scope][key], nil
}

// Set stores value under key as JSON.
func (ss *Scope) Set(key string, value interface{}) error {
	ss.service.mu.Lock()
	defer ss.service.mu.Unlock()

	if ss.service.closed {
		return ErrClosed
	}
	if err := ss.service.ensureLoaded(ss.scope, ss.path); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	ss.service.cache[ss.scope][key] = data
	ss.service.markDirty(ss.scope)
	return nil
}

// Delete removes key.
func (ss *Scope) Delete(key string) error {
	ss.service.mu.Lock()
	defer ss.service.mu.Unlock()

	if err := ss.service.ensureLoaded(ss.scope, ss.path); err != nil {
		return err
	}
	if _, ok := ss.service.cache[ss.scope][key]; ok {
		delete(ss.service.cache[ss.scope], key)
		ss.service.markDirty(ss.scope)
	}
	return nil
}

// List returns the keys in the scope, sorted.
func (ss *Scope) List() ([]string, error) {
	ss.service.mu.Lock()
	defer ss.service.mu.Unlock()

	if err := ss.service.ensureLoaded(ss.scope, ss.path); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(ss.service.cache[ss.scope]))
	for key := range ss.service.cache[ss.scope] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear empties the scope; the file is removed on the next flush.
func (ss *Scope) Clear() error {
	ss.service.mu.Lock()
	defer ss.service.mu.Unlock()

	ss.service.cache[ss.scope] = make(map[string]json.RawMessage)
	ss.service.markDirty(ss.scope)
	return nil
}

// Scope returns the scope name, e.g. "app/calculator".
func (ss *Scope) Scope() string {
	return ss.scope
}

var (
	_ texelcore.StorageService = (*Service)(nil)
	_ texelcore.AppStorage     = (*Scope)(nil)
)
