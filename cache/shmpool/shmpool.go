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

// Package shmpool defines the shared-memory allocator contract that
// concurrency/csp.Channel consumes (spec: "the core receives an
// already-sized shared-memory region") and a default process-local
// implementation.
//
// HeapAllocator reuses the size-classed sync.Pool slab scheme of
// cloudwego/gopkg's cache/mempool, minus its footer-encoded metadata:
// since a Region is a proper struct here (not a bare []byte handed back
// to an untyped Free), the pool index is just a struct field.
package shmpool

import (
	"fmt"
	"math/bits"
	"sync"
)

// Region is a byte-addressable shared-memory window, as produced by an
// Allocator. The same Region is expected to be mapped by both ports of a
// channel; a process-local Allocator just shares the Go slice.
type Region interface {
	// Bytes returns the full backing buffer. Implementations hand back
	// the same underlying array on every call: callers must not resize
	// it, only index into it.
	Bytes() []byte
	// Close releases the region. After Close, Bytes must not be used.
	Close() error
}

// Allocator allocates a Region of at least nbytes bytes.
type Allocator interface {
	SharedMemory(nbytes int) (Region, error)
}

const (
	minSlabSize = 4 << 10   // 4KB
	maxSlabSize = 128 << 30 // 128GB, SharedMemory errors above this
)

type slab struct {
	sync.Pool
	size int
}

var slabs []*slab

// size2idx maps bits.Len(size) to the index of `slabs` holding the
// smallest slab class that fits `size`.
var size2idx [64]int

func init() {
	i := 0
	for sz := minSlabSize; sz <= maxSlabSize; sz <<= 1 {
		s := &slab{size: sz}
		cur := s
		s.New = func() interface{} {
			return make([]byte, cur.size)
		}
		slabs = append(slabs, s)
		size2idx[bits.Len(uint(s.size))] = i
		i++
	}
}

func slabIndex(sz int) int {
	if sz <= minSlabSize {
		return 0
	}
	i := size2idx[bits.Len(uint(sz))]
	if uint(sz)&(uint(sz)-1) == 0 {
		return i
	}
	return i + 1
}

// HeapAllocator is the default, process-local Allocator: regions are
// Go heap slices drawn from a size-classed pool, recycled on Close.
// It is the right choice when sender and receiver are goroutines within
// one process; see cache/shmpool/mmap_unix.go for a real cross-process
// Allocator.
type HeapAllocator struct{}

var _ Allocator = HeapAllocator{}

// SharedMemory returns a Region of exactly nbytes bytes (Bytes() has
// length nbytes; the underlying slab may be larger).
func (HeapAllocator) SharedMemory(nbytes int) (Region, error) {
	if nbytes <= 0 {
		return nil, fmt.Errorf("shmpool: nbytes must be > 0, got %d", nbytes)
	}
	if nbytes > maxSlabSize {
		return nil, fmt.Errorf("shmpool: nbytes %d exceeds max slab size %d", nbytes, maxSlabSize)
	}
	idx := slabIndex(nbytes)
	s := slabs[idx]
	buf := s.Get().([]byte)
	return &heapRegion{slab: s, buf: buf[:nbytes]}, nil
}

type heapRegion struct {
	slab   *slab
	buf    []byte
	closed bool
}

func (r *heapRegion) Bytes() []byte {
	return r.buf
}

func (r *heapRegion) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.slab.Put(r.buf[:cap(r.buf)])
	return nil
}
