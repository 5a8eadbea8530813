// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device selects where pixel buffers live: host memory, a CUDA GPU
// by ordinal, or a WebGPU adapter.
//
// CUDA is reached through the driver library (libcuda) loaded at runtime,
// so binaries build without cgo or the CUDA toolkit and simply report the
// device as unavailable when no driver is installed.
//
//	if device.Available(device.CUDADevice(0)) {
//	    _ = img.SetDevice(device.CUDADevice(0))
//	}
package device

import (
	"github.com/born-ml/torchimage/internal/device"
)

// Device identifies a compute device.
type Device = device.Device

// Kind is the device family.
type Kind = device.Kind

// Device kinds.
const (
	CPU    Kind = device.CPU
	CUDA   Kind = device.CUDA
	WebGPU Kind = device.WebGPU
)

// CPU0 is host memory.
var CPU0 = device.CPU0

// ErrUnavailable is returned when a device cannot be opened.
var ErrUnavailable = device.ErrUnavailable

// HostInfo describes the host CPU.
type HostInfo = device.HostInfo

// CUDADevice returns the CUDA device with the given ordinal.
func CUDADevice(ordinal int) Device { return device.CUDADevice(ordinal) }

// WebGPUDevice returns the WebGPU device with the given ordinal.
func WebGPUDevice(ordinal int) Device { return device.WebGPUDevice(ordinal) }

// Parse parses "cpu", "cuda", "cuda:1", "webgpu" or "webgpu:0".
func Parse(s string) (Device, error) { return device.Parse(s) }

// Available reports whether dev can be opened.
func Available(dev Device) bool { return device.Available(dev) }

// CUDADeviceCount returns the number of CUDA devices visible to the driver.
func CUDADeviceCount() (int, error) { return device.CUDADeviceCount() }

// CUDADeviceName returns the name of a CUDA device.
func CUDADeviceName(ordinal int) (string, error) { return device.CUDADeviceName(ordinal) }

// Host returns the host CPU description.
func Host() HostInfo { return device.Host() }
