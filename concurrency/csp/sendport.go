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
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/cloudwego/tensorchan/cache/shmpool"
	"github.com/cloudwego/tensorchan/concurrency/gosem"
	"github.com/cloudwego/tensorchan/container/slotring"
)

// SendPort is the producer endpoint of a channel. It is single-producer:
// concurrent Send calls from two goroutines are undefined, exactly as
// concurrent Recv calls on the matching RecvPort are undefined.
type SendPort[T slotring.Numeric] struct {
	name   string
	proto  Proto
	size   int
	region shmpool.Region
	ring   *slotring.Ring[T]
	req    gosem.Semaphore
	ack    gosem.Semaphore

	idx    int
	permit *semaphore.Weighted

	mu       sync.Mutex
	observer func()

	started int32
	done    int32
	wg      sync.WaitGroup
}

func newSendPort[T slotring.Numeric](name string, proto Proto, region shmpool.Region, size int, req, ack gosem.Semaphore) *SendPort[T] {
	return &SendPort[T]{name: name, proto: proto, size: size, region: region, req: req, ack: ack}
}

// Name returns the port's name, as bound by the Channel factory.
func (p *SendPort[T]) Name() string { return p.name }

// Shape returns the channel's per-slot tensor shape.
func (p *SendPort[T]) Shape() []int { return p.proto.Shape }

// Size returns the ring's slot count.
func (p *SendPort[T]) Size() int { return p.size }

// SetObserver installs a callback fired on the drain goroutine whenever
// the port transitions from "a Send would block" to "a Send would not
// block" (full -> not-full). Pass nil to clear it. Intended for use by
// Selector; not required for direct Send/Probe/Join usage.
func (p *SendPort[T]) SetObserver(f func()) {
	p.mu.Lock()
	p.observer = f
	p.mu.Unlock()
}

// Start materialises the ring view, the slot-permit, and spawns the
// ack-drain goroutine. Must be called exactly once before Send/Probe.
func (p *SendPort[T]) Start() error {
	if !atomic.CompareAndSwapInt32(&p.started, 0, 1) {
		return ErrUsage
	}
	p.ring = slotring.New[T](p.region.Bytes(), p.proto.NBytes, p.size)
	// semaphore.Weighted starts at full capacity already available
	// (nothing has been acquired yet), matching BoundedSemaphore(size)
	// in the original: the first `size` Sends never block.
	p.permit = semaphore.NewWeighted(int64(p.size))
	p.wg.Add(1)
	go p.ackDrain()
	return nil
}

// Send copies data into the next ring slot and signals req. It blocks
// if all Size() slots are currently in flight (unacknowledged).
//
// A shape/dtype mismatch fails with ErrShapeMismatch before any
// semaphore interaction, leaving all port state unchanged.
func (p *SendPort[T]) Send(ctx context.Context, data Tensor[T]) error {
	if atomic.LoadInt32(&p.started) == 0 {
		return ErrUsage
	}
	if !p.proto.shapeEqual(data.Shape) {
		return ErrShapeMismatch
	}
	if len(data.Data) != p.proto.Elems() {
		return ErrShapeMismatch
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.permit.Acquire(ctx, 1); err != nil {
		return err
	}
	p.ring.CopyInto(p.idx, data.Data)
	p.idx = p.ring.Next(p.idx)
	p.req.Release()
	return nil
}

// Probe reports, without blocking, whether a subsequent Send would not
// block: i.e. at least one slot permit is currently available. Does not
// consume a permit.
func (p *SendPort[T]) Probe() bool {
	if atomic.LoadInt32(&p.started) == 0 {
		return false
	}
	if !p.permit.TryAcquire(1) {
		return false
	}
	p.permit.Release(1)
	return true
}

// Join marks the port done: its ack-drain goroutine exits at its next
// wakeup (the next ack release, or EOF from a dying peer). Join does not
// wait for in-flight Sends and does not block.
func (p *SendPort[T]) Join() {
	atomic.StoreInt32(&p.done, 1)
}

// ackDrain repeatedly waits for the receiver's ack signal and releases
// one slot permit per signal, firing the observer exactly once on each
// full->not-full transition. An EOF-like error from ack.Acquire (the
// peer's region going away) terminates the goroutine silently. An
// unexpected panic is recovered and reported via SetPanicHandler instead
// of crashing the process; the goroutine exits either way.
func (p *SendPort[T]) ackDrain() {
	defer p.wg.Done()
	defer recoverDrain()
	for {
		if atomic.LoadInt32(&p.done) != 0 {
			return
		}
		if err := p.ack.Acquire(context.Background()); err != nil {
			return
		}
		wasFull := !p.Probe()
		p.permit.Release(1)
		if wasFull {
			p.mu.Lock()
			obs := p.observer
			p.mu.Unlock()
			if obs != nil {
				obs()
			}
		}
	}
}
