//go:build linux

package device

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/born-ml/torchimage/internal/logging"
)

// cudaAllocator owns one CUDA context. Driver calls are serialised and run
// with the context current on a locked OS thread, since goroutines may
// migrate between threads.
type cudaAllocator struct {
	mu      sync.Mutex
	ordinal int
	ctx     uintptr
}

func openCUDA(ordinal int) (*cudaAllocator, error) {
	n, err := CUDADeviceCount()
	if err != nil {
		return nil, err
	}
	if ordinal < 0 || ordinal >= n {
		return nil, fmt.Errorf("cuda ordinal %d out of range (%d devices)", ordinal, n)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var dev int32
	if err := check(cuDeviceGet(&dev, int32(ordinal)), "cuDeviceGet"); err != nil {
		return nil, err
	}
	a := &cudaAllocator{ordinal: ordinal}
	if err := check(cuCtxCreate(&a.ctx, 0, dev), "cuCtxCreate"); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *cudaAllocator) Device() Device { return CUDADevice(a.ordinal) }

// do runs fn with the context current.
func (a *cudaAllocator) do(op string, fn func() cuResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := check(cuCtxSetCurrent(a.ctx), "cuCtxSetCurrent"); err != nil {
		return err
	}
	return check(fn(), op)
}

func (a *cudaAllocator) Alloc(byteLen int) (Storage, error) {
	s := &cudaStorage{alloc: a, byteLen: byteLen}
	err := a.do("cuMemAlloc", func() cuResult {
		return cuMemAlloc(&s.ptr, uint64(max(byteLen, 1)))
	})
	if err != nil {
		return nil, fmt.Errorf("%s: alloc %d bytes: %w", a.Device(), byteLen, err)
	}
	logging.Logger().Debug("cuda alloc", "device", a.Device().String(), "bytes", byteLen)
	return s, nil
}

// cudaStorage is a device pointer; it is a numeric handle, not Go memory.
type cudaStorage struct {
	alloc   *cudaAllocator
	ptr     uintptr
	byteLen int
}

func (s *cudaStorage) Device() Device { return s.alloc.Device() }
func (s *cudaStorage) ByteLen() int   { return s.byteLen }
func (s *cudaStorage) Bytes() []byte  { return nil }

func (s *cudaStorage) ReadAt(dst []byte, off int) error {
	if err := checkRange(s, len(dst), off); err != nil {
		return err
	}
	if len(dst) == 0 {
		return nil
	}
	return s.alloc.do("cuMemcpyDtoH", func() cuResult {
		return cuMemcpyDtoH(unsafe.Pointer(&dst[0]), s.ptr+uintptr(off), uint64(len(dst)))
	})
}

func (s *cudaStorage) WriteAt(src []byte, off int) error {
	if err := checkRange(s, len(src), off); err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}
	return s.alloc.do("cuMemcpyHtoD", func() cuResult {
		return cuMemcpyHtoD(s.ptr+uintptr(off), unsafe.Pointer(&src[0]), uint64(len(src)))
	})
}

func (s *cudaStorage) Fill(pattern []byte) error {
	if err := checkPattern(s, pattern); err != nil {
		return err
	}
	if b, ok := uniformByte(pattern); ok {
		return s.alloc.do("cuMemsetD8", func() cuResult {
			return cuMemsetD8(s.ptr, b, uint64(s.byteLen))
		})
	}
	return fillStaged(s, pattern)
}

func (s *cudaStorage) Free() {
	if s.ptr == 0 {
		return
	}
	ptr := s.ptr
	s.ptr = 0
	if err := s.alloc.do("cuMemFree", func() cuResult { return cuMemFree(ptr) }); err != nil {
		logging.Logger().Warn("cuda free failed", "device", s.Device().String(), "err", err)
	}
}
