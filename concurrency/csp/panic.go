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
	"log"
	"runtime/debug"
	"sync/atomic"
)

var panicHandler atomic.Pointer[func(ctx context.Context, r any)]

// SetPanicHandler sets a func for handling panics recovered from a
// port's drain goroutine (SendPort's ackDrain, RecvPort's reqDrain).
//
// Panic handler takes two args, `ctx` and `r`. `ctx` is always
// context.Background(), since a drain goroutine is never given an
// external context; `r` is the value returned by recover().
//
// By default, a recovered panic is reported via log.Printf. It's
// recommended to set your own handler.
func SetPanicHandler(f func(ctx context.Context, r any)) {
	panicHandler.Store(&f)
}

// recoverDrain reports a panic recovered from a drain goroutine and lets
// the goroutine exit, matching spec behavior for an unexpected drain
// failure: the port stops delivering observer callbacks but application
// code is not otherwise interrupted.
func recoverDrain() {
	r := recover()
	if r == nil {
		return
	}
	if h := panicHandler.Load(); h != nil && *h != nil {
		(*h)(context.Background(), r)
		return
	}
	log.Printf("CSP: panic in drain goroutine: %v: %s", r, debug.Stack())
}
