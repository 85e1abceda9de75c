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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMmapAllocatorSizesExactly(t *testing.T) {
	var a MmapAllocator
	r, err := a.SharedMemory(4096)
	require.NoError(t, err)
	require.Len(t, r.Bytes(), 4096)
	require.NoError(t, r.Close())
}

func TestMmapAllocatorRejectsNonPositive(t *testing.T) {
	var a MmapAllocator
	_, err := a.SharedMemory(0)
	require.Error(t, err)
}

func TestMmapRegionCloseIsIdempotent(t *testing.T) {
	var a MmapAllocator
	r, err := a.SharedMemory(4096)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestMmapAllocatorRegionIsWritable(t *testing.T) {
	var a MmapAllocator
	r, err := a.SharedMemory(64)
	require.NoError(t, err)
	defer r.Close()

	r.Bytes()[0] = 0xAB
	require.Equal(t, byte(0xAB), r.Bytes()[0])
}
