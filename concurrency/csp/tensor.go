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

import "github.com/cloudwego/tensorchan/container/slotring"

// Tensor is a dense, C-contiguous numeric array with an explicit Shape,
// the unit of exchange over a channel. Data's length must equal
// product(Shape).
type Tensor[T slotring.Numeric] struct {
	Shape []int
	Data  []T
}

// dtypeOf returns the DType tag matching T, used to auto-derive a
// channel's Proto from its type parameter.
func dtypeOf[T slotring.Numeric]() DType {
	var z T
	switch any(z).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	default:
		panic("csp: unsupported tensor element type")
	}
}
