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

import (
	"context"
	"sync"
	"time"
)

// RecvQueue is an in-process, thread-safe FIFO of opaque "one more slot
// is filled" tokens, capacity-bounded to the ring size it backs. It
// decouples the sender-to-receiver semaphore signal (delivered by
// RecvPort's req-drain goroutine) from the application's blocking Recv
// and Peek calls.
//
// Put never blocks: callers guarantee qsize never exceeds capacity
// because one req-release corresponds to exactly one ring slot. Get has
// three forms matching spec.md §4.3's three branches: TryGet (non-
// blocking), Get (block until non-empty), GetTimeout (bounded wait).
//
// RecvQueue does not use sync.Cond: readiness is broadcast by swapping
// in a fresh channel and closing the old one on every PutNowait, which
// lets GetTimeout select on it alongside a timer.
type RecvQueue struct {
	mu   sync.Mutex
	n    int
	cap  int
	wake chan struct{}
}

// NewRecvQueue returns an empty RecvQueue of the given capacity.
func NewRecvQueue(capacity int) *RecvQueue {
	return &RecvQueue{cap: capacity, wake: make(chan struct{})}
}

// PutNowait enqueues one token. Panics if the queue is already at
// capacity: that would mean more tokens are in flight than ring slots
// exist, which is a protocol violation, not a recoverable error.
func (q *RecvQueue) PutNowait() {
	q.mu.Lock()
	if q.n >= q.cap {
		q.mu.Unlock()
		panic("csp: RecvQueue overflow: more tokens than ring slots")
	}
	q.n++
	w := q.wake
	q.wake = make(chan struct{})
	q.mu.Unlock()
	close(w)
}

// QSize returns the current number of queued tokens.
func (q *RecvQueue) QSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// TryGet dequeues (or, if peek, inspects) the head token without
// blocking. Returns ErrEmptyQueue if the queue is empty.
func (q *RecvQueue) TryGet(peek bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.n == 0 {
		return ErrEmptyQueue
	}
	if !peek {
		q.n--
	}
	return nil
}

// Get blocks until a token is available, then dequeues (or, if peek,
// inspects) the head.
func (q *RecvQueue) Get(peek bool) error {
	for {
		q.mu.Lock()
		if q.n > 0 {
			if !peek {
				q.n--
			}
			q.mu.Unlock()
			return nil
		}
		w := q.wake
		q.mu.Unlock()
		<-w
	}
}

// GetTimeout blocks until a token is available or timeout elapses,
// whichever comes first. A negative timeout is rejected with
// ErrBadTimeout before any waiting begins; expiry returns ErrEmptyQueue.
func (q *RecvQueue) GetTimeout(timeout time.Duration, peek bool) error {
	if timeout < 0 {
		return ErrBadTimeout
	}
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		if q.n > 0 {
			if !peek {
				q.n--
			}
			q.mu.Unlock()
			return nil
		}
		w := q.wake
		q.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrEmptyQueue
		}
		t := time.NewTimer(remaining)
		select {
		case <-w:
			t.Stop()
		case <-t.C:
			return ErrEmptyQueue
		}
	}
}

// GetCtx blocks until a token is available or ctx is done, whichever
// comes first, dequeuing it unless peek. It exists alongside Get/
// GetTimeout so RecvPort.Recv/Peek can honor an arbitrary caller context
// (including one with no deadline) without spawning a helper goroutine
// that could race a cancellation against a successful dequeue.
func (q *RecvQueue) GetCtx(ctx context.Context, peek bool) error {
	for {
		q.mu.Lock()
		if q.n > 0 {
			if !peek {
				q.n--
			}
			q.mu.Unlock()
			return nil
		}
		w := q.wake
		q.mu.Unlock()

		select {
		case <-w:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
