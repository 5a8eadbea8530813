// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package image provides N-dimensional images whose pixels live in a tensor
// on the host or a GPU.
//
// # Overview
//
// An Image couples index-space regions and physical-space metadata with a
// tensor holding the buffered region. Index dimensions are stored in reverse
// order (x fastest) followed by the pixel's component dimensions, so a
// 640x480 RGB image is a [480, 640, 3] uint8 tensor, the layout PyTorch
// expects.
//
// # Basic Usage
//
//	img, _ := image.New(pixel.RGBOf(pixel.Scalar[uint8]()), 2)
//	_ = img.SetRegions(geometry.RegionFromSize(geometry.Size{640, 480}))
//	if err := img.SetDevice(device.CUDADevice(0)); err != nil {
//	    // stays on the CPU
//	}
//	_ = img.Allocate(tensor.Zeros)
//	_ = img.SetPixel(geometry.Index{10, 20}, pixel.RGB[uint8]{255, 0, 0})
//
//	ref, _ := img.GetPixel(geometry.Index{10, 20})
//	_ = ref.Set(pixel.RGB[uint8]{0, 255, 0})
//
//	_ = image.WriteFile("out.png", img)
package image
