// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: eval/scheduler.go
// Summary: Per-slot cancellable evaluation tasks keyed by epoch.
// Usage: Request starts a task, Completions delivers outcomes, Settle
// filters stale ones.

package eval

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/framegrace/texelcalc/expr"
)

// Completion is the outcome of one evaluation task.
type Completion struct {
	Slot      Slot
	Epoch     uint64
	Requested bool
	Result    Result
	Err       error
}

// SchedulerOptions bounds how long evaluations may run. Zero disables the
// corresponding limit.
type SchedulerOptions struct {
	RequestTimeout time.Duration
	PreviewTimeout time.Duration
	Buffer         int
}

type task struct {
	epoch     uint64
	requested bool
	cancel    context.CancelFunc
}

// Scheduler runs at most one evaluation per slot. A new request for a
// slot cancels whatever is in flight there; completions carry the epoch
// they were started with so late arrivals can be recognised.
type Scheduler struct {
	oracle Oracle
	opts   SchedulerOptions

	mu       sync.Mutex
	epochs   map[Slot]uint64
	inflight map[Slot]*task
	closed   bool

	out chan Completion
	wg  sync.WaitGroup
}

// NewScheduler returns a scheduler evaluating with oracle.
func NewScheduler(oracle Oracle, opts SchedulerOptions) *Scheduler {
	if opts.Buffer <= 0 {
		opts.Buffer = 8
	}
	return &Scheduler{
		oracle:   oracle,
		opts:     opts,
		epochs:   make(map[Slot]uint64),
		inflight: make(map[Slot]*task),
		out:      make(chan Completion, opts.Buffer),
	}
}

// Completions delivers finished tasks. The channel is closed by Close.
func (s *Scheduler) Completions() <-chan Completion { return s.out }

// Request cancels any task in flight for slot and starts a new one. It
// returns the epoch of the new task, or 0 once the scheduler is closed.
func (s *Scheduler) Request(slot Slot, tokens []expr.Token, requested bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	if t := s.inflight[slot]; t != nil {
		t.cancel()
	}

	s.epochs[slot]++
	epoch := s.epochs[slot]

	timeout := s.opts.PreviewTimeout
	if requested {
		timeout = s.opts.RequestTimeout
	}
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := parent, context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, stop = context.WithTimeout(parent, timeout)
	}
	s.inflight[slot] = &task{epoch: epoch, requested: requested, cancel: cancel}

	toks := append([]expr.Token(nil), tokens...)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer stop()
		s.run(parent, ctx, Completion{Slot: slot, Epoch: epoch, Requested: requested}, toks)
	}()
	return epoch
}

// run evaluates under ctx and delivers the outcome unless parent was
// cancelled. Running out of time is reported as an evaluation error.
func (s *Scheduler) run(parent, ctx context.Context, c Completion, tokens []expr.Token) {
	c.Result, c.Err = s.oracle.Evaluate(ctx, c.Slot, tokens)
	if parent.Err() != nil {
		return
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		c.Result, c.Err = Result{}, NewError(ErrDomain, MsgTimeout)
	}
	select {
	case s.out <- c:
	case <-parent.Done():
	}
}

// Settle reports whether c belongs to the task currently in flight for
// its slot. An accepted completion ends that task.
func (s *Scheduler) Settle(c Completion) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.inflight[c.Slot]
	if t == nil || t.epoch != c.Epoch {
		return false
	}
	delete(s.inflight, c.Slot)
	t.cancel()
	return true
}

// Pending reports the task in flight for slot, if any.
func (s *Scheduler) Pending(slot Slot) (epoch uint64, requested bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.inflight[slot]
	if t == nil {
		return 0, false, false
	}
	return t.epoch, t.requested, true
}

// Cancel abandons the task in flight for slot without waiting for it.
// Non-quiet cancellations are logged.
func (s *Scheduler) Cancel(slot Slot, quiet bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.inflight[slot]
	if t == nil {
		return
	}
	t.cancel()
	delete(s.inflight, slot)
	if !quiet {
		log.Printf("Scheduler: cancelled %s evaluation (epoch %d)", slot, t.epoch)
	}
}

// Close cancels every task, waits for their goroutines and closes the
// completion channel.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for slot, t := range s.inflight {
		t.cancel()
		delete(s.inflight, slot)
	}
	s.mu.Unlock()

	s.wg.Wait()
	close(s.out)
}
