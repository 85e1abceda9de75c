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
	"errors"

	"github.com/cloudwego/tensorchan/concurrency/gosem"
)

var (
	// ErrShapeMismatch is returned by Send when data's shape or dtype
	// disagrees with the channel's Proto. Raised before any semaphore
	// interaction: a failed Send has no side effects.
	ErrShapeMismatch = errors.New("csp: shape or dtype mismatch")

	// ErrEmptyQueue is returned by a non-blocking or timed-out RecvQueue
	// Get on an empty queue.
	ErrEmptyQueue = errors.New("csp: queue is empty")

	// ErrBadTimeout is returned when a negative timeout is supplied to
	// RecvQueue.GetTimeout.
	ErrBadTimeout = errors.New("csp: timeout must be non-negative")

	// ErrUsage is returned for usage ordering violations: Send/Recv
	// before Start, or Start called twice.
	ErrUsage = errors.New("csp: usage error")

	// ErrPeerGone is what gosem.Semaphore.Acquire returns once a
	// semaphore has been Closed. SendPort/RecvPort drain goroutines treat
	// it as an expected, silent shutdown signal rather than surfacing it
	// to application code; it is re-exported here so callers that build
	// their own Semaphore implementation can compare against the same
	// sentinel with errors.Is.
	ErrPeerGone = gosem.ErrPeerGone
)
