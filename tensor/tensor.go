// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor element types.
type DType = tensor.DType

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Bool    DataType = tensor.Bool
	Uint8   DataType = tensor.Uint8
	Int8    DataType = tensor.Int8
	Int16   DataType = tensor.Int16
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Shape represents the dimensions of a tensor, slowest varying first.
type Shape = tensor.Shape

// Initializer selects how new tensor memory is filled.
type Initializer = tensor.Initializer

// Initializers.
const (
	Empty Initializer = tensor.Empty
	Zeros Initializer = tensor.Zeros
	Ones  Initializer = tensor.Ones
	Rand  Initializer = tensor.Rand
	Randn Initializer = tensor.Randn
)

// Errors.
var (
	ErrDTypeMismatch    = tensor.ErrDTypeMismatch
	ErrIndexOutOfRange  = tensor.ErrIndexOutOfRange
	ErrReleased         = tensor.ErrReleased
	ErrInitializerDType = tensor.ErrInitializerDType
)

// NewRaw allocates a tensor on dev. Host memory is zeroed.
func NewRaw(shape Shape, dtype DataType, dev device.Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, dev)
}

// NewRawInit allocates a tensor on dev filled as init requests. Rand and
// Randn require a floating point dtype.
func NewRawInit(shape Shape, dtype DataType, dev device.Device, init Initializer) (*RawTensor, error) {
	return tensor.NewRawInit(shape, dtype, dev, init)
}

// DataTypeOf returns the DataType for the Go type T.
func DataTypeOf[T DType]() DataType { return tensor.DataTypeOf[T]() }

// ItemAt reads one element.
func ItemAt[T DType](r *RawTensor, idx ...int) (T, error) { return tensor.ItemAt[T](r, idx...) }

// PutAt writes one element.
func PutAt[T DType](r *RawTensor, v T, idx ...int) error { return tensor.PutAt(r, v, idx...) }

// Fill sets every element of r to v.
func Fill[T DType](r *RawTensor, v T) error { return tensor.Fill(r, v) }

// FillPattern tiles pattern over the trailing dimensions of r.
func FillPattern(r, pattern *RawTensor) error { return tensor.FillPattern(r, pattern) }

// AsSlice returns a zero-copy typed view of a contiguous host tensor.
func AsSlice[T DType](r *RawTensor) ([]T, error) { return tensor.AsSlice[T](r) }
