// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes the strided, device-resident tensors that back
// image pixel buffers.
//
// # Overview
//
// A RawTensor is an untyped view (shape, strides, offset, dtype) onto a
// reference-counted device buffer. Views made by Select and Clone share the
// buffer; it is freed when the last reference is released.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/torchimage/device"
//	    "github.com/born-ml/torchimage/tensor"
//	)
//
//	func main() {
//	    t, err := tensor.NewRawInit(tensor.Shape{480, 640, 3}, tensor.Uint8, device.CPU0, tensor.Zeros)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer t.Release()
//
//	    _ = tensor.PutAt[uint8](t, 255, 10, 20, 0) // red channel of pixel (x=20, y=10)
//	}
//
// # Supported Data Types
//
// The DType constraint admits bool, uint8, int8, int16, int32, int64,
// float32 and float64, matching the SafeTensors and PyTorch dtypes of the
// same width.
package tensor
