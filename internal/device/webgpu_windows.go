//go:build windows

package device

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/torchimage/internal/logging"
)

// copyAlign is the WebGPU requirement for buffer copy offsets and sizes.
const copyAlign = 4

type webgpuAllocator struct {
	mu       sync.Mutex
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

func openWebGPU(ordinal int) (alloc *webgpuAllocator, err error) {
	if ordinal != 0 {
		return nil, fmt.Errorf("webgpu exposes a single adapter, got ordinal %d", ordinal)
	}
	// The binding panics when the wgpu_native library is missing.
	defer func() {
		if r := recover(); r != nil {
			alloc = nil
			err = fmt.Errorf("webgpu native library not available: %v", r)
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	dev, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	queue := dev.GetQueue()
	if queue == nil {
		dev.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("device has no queue")
	}
	return &webgpuAllocator{instance: instance, adapter: adapter, device: dev, queue: queue}, nil
}

func (a *webgpuAllocator) Device() Device { return WebGPUDevice(0) }

func (a *webgpuAllocator) Alloc(byteLen int) (Storage, error) {
	size := alignUp(max(byteLen, copyAlign))
	a.mu.Lock()
	buf := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  uint64(size),
	})
	a.mu.Unlock()
	if buf == nil {
		return nil, fmt.Errorf("webgpu: alloc %d bytes failed", byteLen)
	}
	s := &webgpuStorage{alloc: a, buffer: buf, byteLen: byteLen}
	// Buffers are not guaranteed to be zeroed by every implementation.
	if err := s.Fill([]byte{0}); err != nil {
		s.Free()
		return nil, err
	}
	logging.Logger().Debug("webgpu alloc", "bytes", byteLen)
	return s, nil
}

// upload copies data into dst at off through a mapped staging buffer.
// off and len(data) must be copyAlign aligned.
func (a *webgpuAllocator) upload(dst *wgpu.Buffer, off int, data []byte) {
	size := uint64(len(data))
	staging := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	defer staging.Release()

	mapped := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice over the mapped range
	copy(unsafe.Slice((*byte)(mapped), size), data)
	staging.Unmap()

	encoder := a.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, dst, uint64(off), size)
	a.queue.Submit(encoder.Finish(nil))
}

// download reads size bytes at off from src. off and size must be aligned.
func (a *webgpuAllocator) download(src *wgpu.Buffer, off, size int) ([]byte, error) {
	n := uint64(size)
	staging := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  n,
	})
	defer staging.Release()

	encoder := a.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, uint64(off), staging, 0, n)
	a.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(a.device, wgpu.MapModeRead, 0, n); err != nil {
		return nil, fmt.Errorf("webgpu: map staging buffer: %w", err)
	}
	mapped := staging.GetMappedRange(0, n)
	out := make([]byte, size)
	//nolint:gosec // unsafe.Slice over the mapped range
	copy(out, unsafe.Slice((*byte)(mapped), n))
	staging.Unmap()
	return out, nil
}

type webgpuStorage struct {
	alloc   *webgpuAllocator
	buffer  *wgpu.Buffer
	byteLen int
}

func (s *webgpuStorage) Device() Device { return s.alloc.Device() }
func (s *webgpuStorage) ByteLen() int   { return s.byteLen }
func (s *webgpuStorage) Bytes() []byte  { return nil }

// window returns the aligned byte range covering [off, off+n).
func window(off, n int) (start, size int) {
	start = off &^ (copyAlign - 1)
	return start, alignUp(off+n) - start
}

func alignUp(n int) int { return (n + copyAlign - 1) &^ (copyAlign - 1) }

func (s *webgpuStorage) ReadAt(dst []byte, off int) error {
	if err := checkRange(s, len(dst), off); err != nil {
		return err
	}
	if len(dst) == 0 {
		return nil
	}
	start, size := window(off, len(dst))
	s.alloc.mu.Lock()
	defer s.alloc.mu.Unlock()
	data, err := s.alloc.download(s.buffer, start, size)
	if err != nil {
		return err
	}
	copy(dst, data[off-start:])
	return nil
}

func (s *webgpuStorage) WriteAt(src []byte, off int) error {
	if err := checkRange(s, len(src), off); err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}
	start, size := window(off, len(src))
	s.alloc.mu.Lock()
	defer s.alloc.mu.Unlock()
	if start == off && size == len(src) {
		s.alloc.upload(s.buffer, off, src)
		return nil
	}
	// Read-modify-write the unaligned edges.
	data, err := s.alloc.download(s.buffer, start, size)
	if err != nil {
		return err
	}
	copy(data[off-start:], src)
	s.alloc.upload(s.buffer, start, data)
	return nil
}

func (s *webgpuStorage) Fill(pattern []byte) error {
	if err := checkPattern(s, pattern); err != nil {
		return err
	}
	return fillStaged(s, pattern)
}

func (s *webgpuStorage) Free() {
	if s.buffer == nil {
		return
	}
	s.buffer.Release()
	s.buffer = nil
}
