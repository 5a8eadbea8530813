//go:build !linux

package device

import (
	"fmt"
	"runtime"
)

var errNoCUDA = fmt.Errorf("cuda driver binding not supported on %s", runtime.GOOS)

func openCUDA(int) (Allocator, error) { return nil, errNoCUDA }

// CUDADeviceCount returns the number of CUDA devices visible to the driver.
func CUDADeviceCount() (int, error) { return 0, errNoCUDA }

// CUDADeviceName returns the marketing name of a CUDA device.
func CUDADeviceName(int) (string, error) { return "", errNoCUDA }
