// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes the tensor types consumed and produced by the
// trainer: raw tensors, shapes, data types and the compute backend
// capability.
package tensor

import "github.com/born-ml/traingraph/internal/tensor"

// RawTensor is the low-level tensor representation.
type RawTensor = tensor.RawTensor

// Shape represents concrete tensor dimensions.
type Shape = tensor.Shape

// DataType represents runtime type information for tensors.
type DataType = tensor.DataType

// Device represents the compute device a tensor lives on.
type Device = tensor.Device

// Backend is the compute capability a traced forward pass runs against.
type Backend = tensor.Backend

// Supported data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Int32   = tensor.Int32
	Int64   = tensor.Int64
	Uint8   = tensor.Uint8
	Bool    = tensor.Bool
)

// Supported devices.
const (
	CPU    = tensor.CPU
	CUDA   = tensor.CUDA
	WebGPU = tensor.WebGPU
)

// NewRaw creates a zero-filled RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromFloat32 creates a Float32 RawTensor from a slice. The slice is copied.
func FromFloat32(values []float32, shape Shape, device Device) (*RawTensor, error) {
	return tensor.FromFloat32(values, shape, device)
}
