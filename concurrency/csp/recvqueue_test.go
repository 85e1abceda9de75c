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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTryGetEmpty(t *testing.T) {
	q := NewRecvQueue(2)
	require.ErrorIs(t, q.TryGet(false), ErrEmptyQueue)
}

func TestPutThenTryGet(t *testing.T) {
	q := NewRecvQueue(2)
	q.PutNowait()
	require.Equal(t, 1, q.QSize())
	require.NoError(t, q.TryGet(false))
	require.Equal(t, 0, q.QSize())
}

func TestPeekDoesNotConsume(t *testing.T) {
	q := NewRecvQueue(2)
	q.PutNowait()
	require.NoError(t, q.TryGet(true))
	require.Equal(t, 1, q.QSize())
	require.NoError(t, q.TryGet(true))
	require.Equal(t, 1, q.QSize())
	require.NoError(t, q.TryGet(false))
	require.Equal(t, 0, q.QSize())
}

func TestPutNowaitOverflowPanics(t *testing.T) {
	q := NewRecvQueue(1)
	q.PutNowait()
	require.Panics(t, func() { q.PutNowait() })
}

func TestGetBlocksUntilPut(t *testing.T) {
	q := NewRecvQueue(1)
	done := make(chan struct{})
	go func() {
		require.NoError(t, q.Get(false))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Get returned before any Put")
	case <-time.After(20 * time.Millisecond):
	}

	q.PutNowait()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Get did not unblock after Put")
	}
}

func TestGetTimeoutExpires(t *testing.T) {
	q := NewRecvQueue(1)
	err := q.GetTimeout(10*time.Millisecond, false)
	require.ErrorIs(t, err, ErrEmptyQueue)
}

func TestGetTimeoutNegativeIsBadTimeout(t *testing.T) {
	q := NewRecvQueue(1)
	require.ErrorIs(t, q.GetTimeout(-1, false), ErrBadTimeout)
}

func TestGetTimeoutSucceedsBeforeExpiry(t *testing.T) {
	q := NewRecvQueue(1)
	go func() {
		time.Sleep(5 * time.Millisecond)
		q.PutNowait()
	}()
	require.NoError(t, q.GetTimeout(time.Second, false))
}

func TestGetCtxCancellation(t *testing.T) {
	q := NewRecvQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- q.GetCtx(ctx, false) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("GetCtx did not unblock on cancellation")
	}
	// the canceled waiter must leave the (still empty) queue unchanged
	require.Equal(t, 0, q.QSize())
}
