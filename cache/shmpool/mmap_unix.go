//go:build unix

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

package shmpool

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapAllocator allocates regions via an anonymous, MAP_SHARED mmap
// mapping, making them usable across a fork()'d process boundary
// (the mapping is inherited by the child and writes are visible to
// both sides without any further IPC). It is the out-of-process
// counterpart to HeapAllocator, for deployments where sender and
// receiver genuinely live in different OS processes.
type MmapAllocator struct{}

var _ Allocator = MmapAllocator{}

// SharedMemory maps nbytes of anonymous, shared, read-write memory.
func (MmapAllocator) SharedMemory(nbytes int) (Region, error) {
	if nbytes <= 0 {
		return nil, fmt.Errorf("shmpool: nbytes must be > 0, got %d", nbytes)
	}
	buf, err := unix.Mmap(-1, 0, nbytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("shmpool: mmap %d bytes: %w", nbytes, err)
	}
	return &mmapRegion{buf: buf}, nil
}

type mmapRegion struct {
	buf    []byte
	closed bool
}

func (r *mmapRegion) Bytes() []byte {
	return r.buf
}

func (r *mmapRegion) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return unix.Munmap(r.buf)
}
