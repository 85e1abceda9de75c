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

// Package slotring provides a zero-copy, fixed-stride view over a shared
// byte region, interpreting it as `size` contiguous slots of `nbytes`
// each. A Ring never holds the element values itself: it only ever
// hands back a slice aliasing the underlying region, so writing to or
// reading from a slot touches the shared bytes directly.
package slotring

import "unsafe"

// Numeric is the set of element types a Ring may be reinterpreted as.
type Numeric interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 |
		~int64 | ~uint64 | ~float32 | ~float64
}

// Ring is a `size`-slot window into a single []byte region, each slot
// `nbytes` long, reinterpreted as a []T of natural (C-contiguous) stride.
// It performs no allocation beyond the []T header per slot access: the
// backing array is always the caller-supplied region.
type Ring[T Numeric] struct {
	region []byte
	nbytes int
	size   int
}

// New builds a Ring over region, which must be at least nbytes*size long.
func New[T Numeric](region []byte, nbytes, size int) *Ring[T] {
	if size < 1 {
		panic("slotring: size must be >= 1")
	}
	if nbytes < 1 {
		panic("slotring: nbytes must be >= 1")
	}
	if len(region) < nbytes*size {
		panic("slotring: region shorter than nbytes*size")
	}
	return &Ring[T]{region: region, nbytes: nbytes, size: size}
}

// Len returns the number of slots in the ring.
func (r *Ring[T]) Len() int { return r.size }

// Next returns (i+1) mod size, the slot index following i.
func (r *Ring[T]) Next(i int) int {
	if i == r.size-1 {
		return 0
	}
	return i + 1
}

// At returns a zero-copy []T view of slot i, aliasing the shared region.
// The returned slice must not be retained past the slot's next write.
func (r *Ring[T]) At(i int) []T {
	b := r.region[i*r.nbytes : (i+1)*r.nbytes]
	n := r.nbytes / int(unsafe.Sizeof(*new(T)))
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// CopyInto writes src element-wise into slot i of the ring, in place.
// src must have the same length as the slot's element view.
func (r *Ring[T]) CopyInto(i int, src []T) {
	copy(r.At(i), src)
}

// CopyOut copies slot i's contents into dst and returns it. dst must have
// the same length as the slot's element view; callers are expected to
// supply a freshly allocated dst (see concurrency/csp.RecvPort), since the
// defensive copy is only safe if it is never aliased to shared memory.
func (r *Ring[T]) CopyOut(i int, dst []T) []T {
	copy(dst, r.At(i))
	return dst
}

// ElemsPerSlot returns the number of T elements one slot holds.
func (r *Ring[T]) ElemsPerSlot() int {
	return r.nbytes / int(unsafe.Sizeof(*new(T)))
}
