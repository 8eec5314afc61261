/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package advisor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	applog "floorplanner/internal/log"
)

type Flow string

const (
	FlowSuggestLayout Flow = "suggest_layout"
	FlowEvaluate      Flow = "evaluate_arrangement"
)

// Result is one finished request. Exactly one of Layout, Evaluation or Err
// is set.
type Result struct {
	Flow       Flow
	Layout     *LayoutSuggestion
	Evaluation *Evaluation
	Err        error
	Elapsed    time.Duration
}

// Session runs advisor requests off the event loop. Each call starts an
// independent request; finished results queue up until Poll drains them.
type Session struct {
	backend Advisor
	timeout time.Duration
	mu      sync.Mutex
	queue   []Result
	ready   chan struct{}
	pending atomic.Int32
	// Notify, when set, is called from the request goroutine after a
	// result was queued. UIs use it to schedule a Poll on their own loop.
	Notify func()
	log    *slog.Logger
}

func NewSession(backend Advisor, timeout time.Duration) *Session {
	if backend == nil {
		backend = Disabled{}
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Session{backend: backend, timeout: timeout, ready: make(chan struct{}, 1), log: applog.WithComponent("advisor")}
}

// Loading reports how many requests are still in flight.
func (s *Session) Loading() int { return int(s.pending.Load()) }

func (s *Session) SuggestLayout(req LayoutRequest) {
	s.start(FlowSuggestLayout, func(ctx context.Context) Result {
		out, err := s.backend.SuggestLayout(ctx, req)
		return Result{Layout: out, Err: err}
	})
}

func (s *Session) Evaluate(req EvaluationRequest) {
	s.start(FlowEvaluate, func(ctx context.Context) Result {
		out, err := s.backend.Evaluate(ctx, req)
		return Result{Evaluation: out, Err: err}
	})
}

func (s *Session) start(flow Flow, run func(ctx context.Context) Result) {
	s.pending.Add(1)
	go func() {
		began := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		r := run(ctx)
		r.Flow = flow
		r.Elapsed = time.Since(began)
		if r.Err == nil && r.Layout == nil && r.Evaluation == nil {
			r.Err = ErrBadResponse
		}
		if r.Err != nil {
			r.Layout, r.Evaluation = nil, nil
			s.log.Warn("advisor request failed", slog.String("flow", string(flow)), slog.Any("err", r.Err))
		} else {
			s.log.Info("advisor request done", slog.String("flow", string(flow)), slog.Duration("elapsed", r.Elapsed))
		}
		s.deliver(r)
		s.pending.Add(-1)
		if s.Notify != nil {
			s.Notify()
		}
	}()
}

// deliver queues r; the queue is unbounded so request goroutines never
// block on a UI that stopped polling.
func (s *Session) deliver(r Result) {
	s.mu.Lock()
	s.queue = append(s.queue, r)
	s.mu.Unlock()
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Poll returns every finished result without blocking.
func (s *Session) Poll() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queue
	s.queue = nil
	return out
}

// Wait blocks for the next result or until ctx ends.
func (s *Session) Wait(ctx context.Context) (Result, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			r := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return r, nil
		}
		s.mu.Unlock()
		select {
		case <-s.ready:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
}
