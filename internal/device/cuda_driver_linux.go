//go:build linux

package device

// CUDA driver API bindings via purego.
// No cgo: libcuda.so is loaded with dlopen on first use.

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// cuResult is a CUDA driver status code.
type cuResult int32

const (
	cudaSuccess             cuResult = 0
	cudaErrorInvalidValue   cuResult = 1
	cudaErrorOutOfMemory    cuResult = 2
	cudaErrorNotInitialized cuResult = 3
	cudaErrorNoDevice       cuResult = 100
	cudaErrorInvalidDevice  cuResult = 101
	cudaErrorInvalidCtx     cuResult = 201
)

func (r cuResult) Error() string {
	names := map[cuResult]string{
		cudaErrorInvalidValue:   "INVALID_VALUE",
		cudaErrorOutOfMemory:    "OUT_OF_MEMORY",
		cudaErrorNotInitialized: "NOT_INITIALIZED",
		cudaErrorNoDevice:       "NO_DEVICE",
		cudaErrorInvalidDevice:  "INVALID_DEVICE",
		cudaErrorInvalidCtx:     "INVALID_CONTEXT",
	}
	if name, ok := names[r]; ok {
		return fmt.Sprintf("CUDA_ERROR_%s (%d)", name, r)
	}
	return fmt.Sprintf("CUDA_ERROR(%d)", r)
}

var (
	driverOnce sync.Once
	driverErr  error

	cuInit           func(flags uint32) cuResult
	cuDeviceGetCount func(count *int32) cuResult
	cuDeviceGet      func(device *int32, ordinal int32) cuResult
	cuDeviceGetName  func(name *byte, length int32, dev int32) cuResult
	cuCtxCreate      func(pctx *uintptr, flags uint32, dev int32) cuResult
	cuCtxSetCurrent  func(ctx uintptr) cuResult
	cuMemAlloc       func(dptr *uintptr, bytesize uint64) cuResult
	cuMemFree        func(dptr uintptr) cuResult
	cuMemcpyHtoD     func(dstDevice uintptr, srcHost unsafe.Pointer, byteCount uint64) cuResult
	cuMemcpyDtoH     func(dstHost unsafe.Pointer, srcDevice uintptr, byteCount uint64) cuResult
	cuMemsetD8       func(dstDevice uintptr, uc byte, n uint64) cuResult
)

// initDriver loads libcuda and registers the function pointers. It runs cuInit once.
func initDriver() error {
	driverOnce.Do(func() {
		lib, err := purego.Dlopen("libcuda.so.1", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			lib, err = purego.Dlopen("libcuda.so", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
			if err != nil {
				driverErr = fmt.Errorf("cannot load libcuda.so: %w", err)
				return
			}
		}

		purego.RegisterLibFunc(&cuInit, lib, "cuInit")
		purego.RegisterLibFunc(&cuDeviceGetCount, lib, "cuDeviceGetCount")
		purego.RegisterLibFunc(&cuDeviceGet, lib, "cuDeviceGet")
		purego.RegisterLibFunc(&cuDeviceGetName, lib, "cuDeviceGetName")
		purego.RegisterLibFunc(&cuCtxCreate, lib, "cuCtxCreate_v2")
		purego.RegisterLibFunc(&cuCtxSetCurrent, lib, "cuCtxSetCurrent")
		purego.RegisterLibFunc(&cuMemAlloc, lib, "cuMemAlloc_v2")
		purego.RegisterLibFunc(&cuMemFree, lib, "cuMemFree_v2")
		purego.RegisterLibFunc(&cuMemcpyHtoD, lib, "cuMemcpyHtoD_v2")
		purego.RegisterLibFunc(&cuMemcpyDtoH, lib, "cuMemcpyDtoH_v2")
		purego.RegisterLibFunc(&cuMemsetD8, lib, "cuMemsetD8_v2")

		if r := cuInit(0); r != cudaSuccess {
			driverErr = fmt.Errorf("cuInit: %w", r)
		}
	})
	return driverErr
}

func check(r cuResult, op string) error {
	if r != cudaSuccess {
		return fmt.Errorf("%s: %w", op, r)
	}
	return nil
}

// CUDADeviceCount returns the number of CUDA devices visible to the driver.
func CUDADeviceCount() (int, error) {
	if err := initDriver(); err != nil {
		return 0, err
	}
	var n int32
	if err := check(cuDeviceGetCount(&n), "cuDeviceGetCount"); err != nil {
		return 0, err
	}
	return int(n), nil
}

// CUDADeviceName returns the marketing name of a CUDA device.
func CUDADeviceName(ordinal int) (string, error) {
	if err := initDriver(); err != nil {
		return "", err
	}
	var dev int32
	if err := check(cuDeviceGet(&dev, int32(ordinal)), "cuDeviceGet"); err != nil {
		return "", err
	}
	buf := make([]byte, 256)
	if err := check(cuDeviceGetName(&buf[0], int32(len(buf)), dev), "cuDeviceGetName"); err != nil {
		return "", err
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}
	return string(buf), nil
}
