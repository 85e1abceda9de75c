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

// E5: selector pick, both directions, then earliest-listed-wins on a tie.
func TestSelectorPicksReadyPort(t *testing.T) {
	a := newTestChannel(t, 2)
	b := newTestChannel(t, 2)
	ctx := context.Background()

	sel := NewSelector()
	pairs := []Pair{
		{Port: a.DstPort(), Action: func() any { return "A" }},
		{Port: b.DstPort(), Action: func() any { return "B" }},
	}

	require.NoError(t, b.SrcPort().Send(ctx, tensor(1, 1, 1)))
	require.Equal(t, "B", sel.Select(pairs...))
	_, err := b.DstPort().Recv(ctx)
	require.NoError(t, err)

	require.NoError(t, a.SrcPort().Send(ctx, tensor(2, 2, 2)))
	require.Equal(t, "A", sel.Select(pairs...))
	_, err = a.DstPort().Recv(ctx)
	require.NoError(t, err)

	require.NoError(t, a.SrcPort().Send(ctx, tensor(3, 3, 3)))
	require.NoError(t, b.SrcPort().Send(ctx, tensor(4, 4, 4)))
	// let both req-drain goroutines catch up so both ports are
	// simultaneously ready before scanning, matching the scenario.
	require.Eventually(t, func() bool {
		return a.DstPort().Probe() && b.DstPort().Probe()
	}, time.Second, time.Millisecond)
	require.Equal(t, "A", sel.Select(pairs...), "earliest-listed pair must win on simultaneous readiness")
}

// E7 (selector wakeup property): a selector blocked on an empty set
// wakes within bounded time after a listed port transitions to ready.
func TestSelectorWakesOnTransition(t *testing.T) {
	ch := newTestChannel(t, 1)
	ctx := context.Background()

	sel := NewSelector()
	pairs := []Pair{
		{Port: ch.DstPort(), Action: func() any { return "ready" }},
	}

	resultCh := make(chan any, 1)
	go func() { resultCh <- sel.Select(pairs...) }()

	select {
	case <-resultCh:
		t.Fatal("selector returned before any port became ready")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, ch.SrcPort().Send(ctx, tensor(5, 5, 5)))

	select {
	case v := <-resultCh:
		require.Equal(t, "ready", v)
	case <-time.After(time.Second):
		t.Fatal("selector did not wake up after port became ready")
	}
}

func TestSelectorDeregistersObserversOnReturn(t *testing.T) {
	ch := newTestChannel(t, 1)
	ctx := context.Background()

	sel := NewSelector()
	pairs := []Pair{
		{Port: ch.DstPort(), Action: func() any { return nil }},
	}

	require.NoError(t, ch.SrcPort().Send(ctx, tensor(1, 2, 3)))
	sel.Select(pairs...)

	// the port's observer must be cleared: SetObserver(nil) was the last
	// call Select made, regardless of which branch returned.
	ch.DstPort().mu.Lock()
	obs := ch.DstPort().observer
	ch.DstPort().mu.Unlock()
	require.Nil(t, obs)
}

func TestSelectorDeregistersObserversOnPanic(t *testing.T) {
	ch := newTestChannel(t, 1)
	ctx := context.Background()

	sel := NewSelector()
	pairs := []Pair{
		{Port: ch.DstPort(), Action: func() any { panic("boom") }},
	}

	require.NoError(t, ch.SrcPort().Send(ctx, tensor(1, 2, 3)))
	require.Panics(t, func() { sel.Select(pairs...) })

	ch.DstPort().mu.Lock()
	obs := ch.DstPort().observer
	ch.DstPort().mu.Unlock()
	require.Nil(t, obs)
}
