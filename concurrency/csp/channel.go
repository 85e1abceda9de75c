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
	"fmt"

	"github.com/cloudwego/tensorchan/cache/shmpool"
	"github.com/cloudwego/tensorchan/concurrency/gosem"
	"github.com/cloudwego/tensorchan/container/slotring"
)

// Channel is the factory that allocates the shared region, creates the
// req/ack semaphores, and binds a matched SendPort/RecvPort pair over
// them. The element type T fixes the channel's dtype; shape and size
// are supplied per channel.
type Channel[T slotring.Numeric] struct {
	proto   Proto
	region  shmpool.Region
	req     gosem.Semaphore
	ack     gosem.Semaphore
	srcPort *SendPort[T]
	dstPort *RecvPort[T]
}

// NewChannel allocates a size-slot ring of shape-shaped T tensors from
// alloc, and returns a Channel with its SendPort bound to srcName and
// its RecvPort bound to dstName. Neither port is started; call Start on
// each before first use.
func NewChannel[T slotring.Numeric](alloc shmpool.Allocator, srcName, dstName string, shape []int, size int) (*Channel[T], error) {
	if size < 1 {
		return nil, fmt.Errorf("csp: size must be >= 1, got %d", size)
	}
	proto, err := NewProto(shape, dtypeOf[T]())
	if err != nil {
		return nil, err
	}
	region, err := alloc.SharedMemory(proto.NBytes * size)
	if err != nil {
		return nil, fmt.Errorf("csp: allocating shared region: %w", err)
	}
	req := gosem.New()
	ack := gosem.New()
	return &Channel[T]{
		proto:   proto,
		region:  region,
		req:     req,
		ack:     ack,
		srcPort: newSendPort[T](srcName, proto, region, size, req, ack),
		dstPort: newRecvPort[T](dstName, proto, region, size, req, ack),
	}, nil
}

// SrcPort returns the channel's send (producer) endpoint.
func (c *Channel[T]) SrcPort() *SendPort[T] { return c.srcPort }

// DstPort returns the channel's recv (consumer) endpoint.
func (c *Channel[T]) DstPort() *RecvPort[T] { return c.dstPort }

// Proto returns the channel's immutable per-slot descriptor.
func (c *Channel[T]) Proto() Proto { return c.proto }

// Close tears down the channel's semaphores and shared region. Callers
// must Join both ports first; Close does not itself wait for their
// drain goroutines to exit. The shared-memory allocator is the
// out-of-scope collaborator responsible for teardown; Close is this
// module's thin binding to that collaborator for the common case where
// the same caller owns both ends.
func (c *Channel[T]) Close() error {
	c.req.Close()
	c.ack.Close()
	return c.region.Close()
}
