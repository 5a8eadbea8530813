// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/torchimage/internal/tensor"
)

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Views via Select() and Clone(), sharing storage
//   - Device transfer via To()
//   - Reference counting via Clone() and Release()
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, device.CPU0)
//	row, _ := raw.Select(0, 1) // view of the second row
//	gpu, err := raw.To(device.CUDADevice(0))
type RawTensor = tensor.RawTensor
