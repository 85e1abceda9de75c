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
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"

	"github.com/cloudwego/tensorchan/cache/shmpool"
	"github.com/cloudwego/tensorchan/concurrency/gosem"
	"github.com/cloudwego/tensorchan/container/slotring"
)

// RecvPort is the consumer endpoint of a channel. It is single-consumer:
// concurrent Recv/Peek calls from two goroutines are undefined.
type RecvPort[T slotring.Numeric] struct {
	name   string
	proto  Proto
	size   int
	region shmpool.Region
	ring   *slotring.Ring[T]
	req    gosem.Semaphore
	ack    gosem.Semaphore

	idx   int
	queue *RecvQueue

	mu       sync.Mutex
	observer func()

	started int32
	done    int32
	wg      sync.WaitGroup
}

func newRecvPort[T slotring.Numeric](name string, proto Proto, region shmpool.Region, size int, req, ack gosem.Semaphore) *RecvPort[T] {
	return &RecvPort[T]{name: name, proto: proto, size: size, region: region, req: req, ack: ack}
}

// Name returns the port's name, as bound by the Channel factory.
func (p *RecvPort[T]) Name() string { return p.name }

// Shape returns the channel's per-slot tensor shape.
func (p *RecvPort[T]) Shape() []int { return p.proto.Shape }

// Size returns the ring's slot count.
func (p *RecvPort[T]) Size() int { return p.size }

// SetObserver installs a callback fired on the drain goroutine whenever
// the port transitions from "a Recv would block" to "a Recv would not
// block" (empty -> not-empty). Pass nil to clear it. Intended for use
// by Selector; not required for direct Recv/Peek/Probe usage.
func (p *RecvPort[T]) SetObserver(f func()) {
	p.mu.Lock()
	p.observer = f
	p.mu.Unlock()
}

// Start materialises the ring view, an empty RecvQueue, and spawns the
// req-drain goroutine. Must be called exactly once before Recv/Peek/Probe.
func (p *RecvPort[T]) Start() error {
	if !atomic.CompareAndSwapInt32(&p.started, 0, 1) {
		return ErrUsage
	}
	p.ring = slotring.New[T](p.region.Bytes(), p.proto.NBytes, p.size)
	p.queue = NewRecvQueue(p.size)
	p.wg.Add(1)
	go p.reqDrain()
	return nil
}

// Recv blocks until a slot is filled, copies it out (a defensive copy:
// the slot may be overwritten as soon as ack is released), advances the
// read cursor, releases ack exactly once, and returns the tensor.
func (p *RecvPort[T]) Recv(ctx context.Context) (Tensor[T], error) {
	if atomic.LoadInt32(&p.started) == 0 {
		return Tensor[T]{}, ErrUsage
	}
	if err := p.waitToken(ctx, false); err != nil {
		return Tensor[T]{}, err
	}
	out := p.copyOut()
	p.idx = p.ring.Next(p.idx)
	p.ack.Release()
	return out, nil
}

// Peek blocks until a slot is filled, copies it out, but does not
// advance the read cursor or release ack. Repeated Peek calls with no
// intervening Recv return the same logical payload.
func (p *RecvPort[T]) Peek(ctx context.Context) (Tensor[T], error) {
	if atomic.LoadInt32(&p.started) == 0 {
		return Tensor[T]{}, ErrUsage
	}
	if err := p.waitToken(ctx, true); err != nil {
		return Tensor[T]{}, err
	}
	return p.copyOut(), nil
}

// waitToken blocks (respecting ctx's deadline or cancellation, if any)
// until the queue has a token, dequeuing it unless peek.
func (p *RecvPort[T]) waitToken(ctx context.Context, peek bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return p.queue.GetCtx(ctx, peek)
}

// copyOut allocates a fresh, non-zeroed T slice (the upcoming copy
// fully overwrites it, so zeroing would be wasted work) and copies the
// current slot into it.
func (p *RecvPort[T]) copyOut() Tensor[T] {
	n := p.proto.Elems()
	data := newDirtyTensor[T](n)
	p.ring.CopyOut(p.idx, data)
	return Tensor[T]{Shape: p.proto.Shape, Data: data}
}

func newDirtyTensor[T slotring.Numeric](n int) []T {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	raw := dirtmake.Bytes(n*elemSize, n*elemSize)
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), n)
}

// Probe reports, without blocking, whether a subsequent Recv would not
// block: i.e. the notification queue is non-empty.
func (p *RecvPort[T]) Probe() bool {
	if atomic.LoadInt32(&p.started) == 0 {
		return false
	}
	return p.queue.QSize() > 0
}

// Join marks the port done: its req-drain goroutine exits at its next
// wakeup (the next req release, or EOF from a dying peer). Join does not
// block.
func (p *RecvPort[T]) Join() {
	atomic.StoreInt32(&p.done, 1)
}

// reqDrain repeatedly waits for the sender's req signal and enqueues one
// token per signal, firing the observer exactly once on each
// empty->not-empty transition. An EOF-like error from req.Acquire (the
// peer's region going away) terminates the goroutine silently. An
// unexpected panic is recovered and reported via SetPanicHandler instead
// of crashing the process; the goroutine exits either way.
func (p *RecvPort[T]) reqDrain() {
	defer p.wg.Done()
	defer recoverDrain()
	for {
		if atomic.LoadInt32(&p.done) != 0 {
			return
		}
		if err := p.req.Acquire(context.Background()); err != nil {
			return
		}
		wasEmpty := !p.Probe()
		p.queue.PutNowait()
		if wasEmpty {
			p.mu.Lock()
			obs := p.observer
			p.mu.Unlock()
			if obs != nil {
				obs()
			}
		}
	}
}
