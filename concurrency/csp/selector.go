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

package csp

import "sync"

// Port is satisfied by *SendPort[T] and *RecvPort[T] for any T: the
// subset of the port API a Selector needs. Pairs of different element
// types can be mixed in a single Select call because the interface
// erases T.
type Port interface {
	Probe() bool
	SetObserver(func())
}

// Action is a nullary callable run once its paired Port reports ready.
type Action func() any

// Pair binds one port to the action that should run once it is ready.
type Pair struct {
	Port   Port
	Action Action
}

// Selector waits for the first-ready of a set of (port, action) pairs
// and runs that pair's action, disposably: a Selector is meant for one
// Select call (or repeated calls with the same pairs), not for
// concurrent use from multiple goroutines.
type Selector struct {
	mu   sync.Mutex
	wake chan struct{}
}

// NewSelector returns a ready-to-use Selector.
func NewSelector() *Selector {
	return &Selector{wake: make(chan struct{})}
}

func (s *Selector) changed() {
	s.mu.Lock()
	w := s.wake
	s.wake = make(chan struct{})
	s.mu.Unlock()
	close(w)
}

func (s *Selector) currentWake() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wake
}

func setObservers(pairs []Pair, f func()) {
	for _, pr := range pairs {
		pr.Port.SetObserver(f)
	}
}

// Select scans pairs in the given order; the first pair whose port
// Probe()s ready wins (earliest-listed wins on simultaneous readiness).
// If none are ready, it waits for any listed port to transition to
// ready and re-scans. Observers are always deregistered before Select
// returns, including if the chosen action panics.
func (s *Selector) Select(pairs ...Pair) any {
	setObservers(pairs, s.changed)
	defer setObservers(pairs, nil)

	for {
		// Capture the current wake channel before scanning: any
		// observer fired by changed() from here on is guaranteed to
		// close exactly this channel (eventually), even if it fires
		// mid-scan. Capturing after the scan instead would let a
		// fire-then-replace race slip between the last Probe and the
		// wait, producing a lost wakeup.
		w := s.currentWake()
		for _, pr := range pairs {
			if pr.Port.Probe() {
				return pr.Action()
			}
		}
		<-w
	}
}
