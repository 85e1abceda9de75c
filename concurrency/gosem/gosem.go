/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package gosem provides the counting-semaphore contract consumed by
// concurrency/csp's SendPort/RecvPort drain goroutines, plus a default
// in-process implementation.
//
// A real cross-process deployment swaps in an implementation backed by
// a named OS semaphore; this package only has to guarantee the contract:
// Acquire blocks until a unit is available (or the semaphore is closed),
// Release never blocks, and Close causes every blocked and future Acquire
// to return ErrPeerGone.
package gosem

import (
	"context"
	"errors"
	"sync"
)

// ErrPeerGone is returned by Acquire once the semaphore has been Closed.
// It models the EOFError raised by a destroyed cross-process semaphore
// object: drain goroutines treat it as an expected, silent shutdown
// signal, never as a bug.
var ErrPeerGone = errors.New("gosem: peer gone")

// Semaphore is a counting semaphore usable across the send/recv port
// boundary. Initial value is always 0; callers Release() once per unit
// produced and Acquire() once per unit consumed.
type Semaphore interface {
	// Acquire blocks until a unit is available or the semaphore is
	// closed, in which case it returns ErrPeerGone.
	Acquire(ctx context.Context) error
	// Release makes one more unit available. Never blocks.
	Release()
	// Close unblocks every pending and future Acquire with ErrPeerGone.
	Close()
}

// Counting is the default Semaphore: a 0-initialized counter guarded by
// a mutex, with waiters parked on a channel that is replaced and closed
// on every state change (the same broadcast idiom concurrency/csp uses
// for RecvQueue and Selector). golang.org/x/sync/semaphore.Weighted is
// deliberately not used here: it models a capacity pool that starts
// fully available and panics if Release is called ahead of a matching
// Acquire, whereas req/ack must start at 0 and the sender always
// Releases before the receiver's first Acquire.
type Counting struct {
	mu     sync.Mutex
	count  int
	wake   chan struct{}
	closed bool
}

var _ Semaphore = (*Counting)(nil)

// New returns a Semaphore initialised to 0.
func New() *Counting {
	return &Counting{wake: make(chan struct{})}
}

// Acquire blocks until a unit is available or the semaphore is closed.
func (s *Counting) Acquire(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrPeerGone
		}
		if s.count > 0 {
			s.count--
			s.mu.Unlock()
			return nil
		}
		w := s.wake
		s.mu.Unlock()

		select {
		case <-w:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Release makes one more unit available. Never blocks; a Release after
// Close is a silent no-op, since nothing will ever Acquire it.
func (s *Counting) Release() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.count++
	w := s.wake
	s.wake = make(chan struct{})
	s.mu.Unlock()
	close(w)
}

// Close causes every pending and future Acquire to return ErrPeerGone.
func (s *Counting) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	w := s.wake
	s.wake = make(chan struct{})
	s.mu.Unlock()
	close(w)
}
