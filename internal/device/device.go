// Package device models the compute targets tensor storage can live on and
// allocates raw byte storage on them.
//
// Three kinds of device are supported:
//   - CPU: ordinary Go memory, always available
//   - CUDA: NVIDIA GPUs, addressed by ordinal, driver loaded at runtime without cgo
//   - WebGPU: the default WebGPU adapter (ordinal 0 only)
//
// GPU memory is never dereferenced directly; all access goes through the
// Storage ReadAt/WriteAt/Fill methods, which stage through host memory.
package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/born-ml/torchimage/internal/logging"
)

// Kind is the class of compute device.
type Kind uint8

// Supported device kinds.
const (
	CPU Kind = iota
	CUDA
	WebGPU
)

// String returns a lower-case device kind name.
func (k Kind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	case WebGPU:
		return "webgpu"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Device identifies a specific device (kind + ordinal).
type Device struct {
	Kind    Kind
	Ordinal int // GPU ordinal, always 0 for CPU
}

// CPU0 is the host device.
var CPU0 = Device{Kind: CPU}

// CUDADevice returns the CUDA device with the given ordinal.
func CUDADevice(ordinal int) Device { return Device{Kind: CUDA, Ordinal: ordinal} }

// WebGPUDevice returns the WebGPU device with the given ordinal.
func WebGPUDevice(ordinal int) Device { return Device{Kind: WebGPU, Ordinal: ordinal} }

// IsGPU reports whether the device is not host memory.
func (d Device) IsGPU() bool { return d.Kind != CPU }

func (d Device) String() string {
	if d.Kind == CPU {
		return "cpu"
	}
	return fmt.Sprintf("%s:%d", d.Kind, d.Ordinal)
}

// Parse parses "cpu", "cuda", "cuda:1", "webgpu" or "webgpu:0".
// A GPU kind without an ordinal selects ordinal 0.
func Parse(s string) (Device, error) {
	name, ord, hasOrd := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	var d Device
	switch name {
	case "cpu":
		if hasOrd && ord != "0" {
			return Device{}, fmt.Errorf("device %q: cpu has no ordinal", s)
		}
		return CPU0, nil
	case "cuda":
		d.Kind = CUDA
	case "webgpu", "wgpu":
		d.Kind = WebGPU
	default:
		return Device{}, fmt.Errorf("device %q: unknown kind %q", s, name)
	}
	if hasOrd {
		n, err := strconv.Atoi(ord)
		if err != nil || n < 0 {
			return Device{}, fmt.Errorf("device %q: invalid ordinal %q", s, ord)
		}
		d.Ordinal = n
	}
	return d, nil
}

// ErrUnavailable is returned when a device cannot be opened (no driver, no
// such ordinal, unsupported platform).
var ErrUnavailable = errors.New("device unavailable")

// Storage is a raw byte buffer resident on one device.
type Storage interface {
	// Device returns which device this storage lives on.
	Device() Device

	// ByteLen returns the total size in bytes.
	ByteLen() int

	// Bytes returns the host byte slice (CPU only, nil for GPU).
	Bytes() []byte

	// ReadAt copies len(dst) bytes starting at byte offset off into dst.
	ReadAt(dst []byte, off int) error

	// WriteAt copies src into the storage starting at byte offset off.
	WriteAt(src []byte, off int) error

	// Fill tiles pattern over the whole buffer. ByteLen must be a
	// multiple of len(pattern).
	Fill(pattern []byte) error

	// Free releases the memory. Free is idempotent.
	Free()
}

// Allocator creates storage on one device.
type Allocator interface {
	Device() Device
	Alloc(byteLen int) (Storage, error)
}

var (
	registryMu sync.Mutex
	registry   = map[Device]Allocator{}
)

// Open returns the allocator for dev, initialising the device on first use.
// Allocators are cached for the life of the process.
func Open(dev Device) (Allocator, error) {
	if dev.Kind == CPU {
		if dev.Ordinal != 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, dev)
		}
		return hostAllocator{}, nil
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if a, ok := registry[dev]; ok {
		return a, nil
	}

	var (
		a   Allocator
		err error
	)
	switch dev.Kind {
	case CUDA:
		a, err = openCUDA(dev.Ordinal)
	case WebGPU:
		a, err = openWebGPU(dev.Ordinal)
	default:
		err = fmt.Errorf("unknown device kind %s", dev.Kind)
	}
	if err != nil {
		logging.Logger().Debug("device open failed", "device", dev.String(), "err", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, dev, err)
	}
	registry[dev] = a
	logging.Logger().Info("device opened", "device", dev.String())
	return a, nil
}

// Available reports whether dev can be opened.
func Available(dev Device) bool {
	_, err := Open(dev)
	return err == nil
}

// Alloc allocates byteLen bytes on dev.
func Alloc(dev Device, byteLen int) (Storage, error) {
	a, err := Open(dev)
	if err != nil {
		return nil, err
	}
	return a.Alloc(byteLen)
}

// Copy transfers the contents of src into dst. Both must have the same
// length; the devices may differ.
func Copy(dst, src Storage) error {
	if dst.ByteLen() != src.ByteLen() {
		return fmt.Errorf("copy: length mismatch dst=%d src=%d", dst.ByteLen(), src.ByteLen())
	}
	if b := src.Bytes(); b != nil {
		return dst.WriteAt(b, 0)
	}
	if b := dst.Bytes(); b != nil {
		return src.ReadAt(b, 0)
	}
	for off := 0; off < src.ByteLen(); off += stagingChunk {
		n := min(stagingChunk, src.ByteLen()-off)
		buf := make([]byte, n)
		if err := src.ReadAt(buf, off); err != nil {
			return err
		}
		if err := dst.WriteAt(buf, off); err != nil {
			return err
		}
	}
	return nil
}

// stagingChunk bounds host memory used when streaming to or from a GPU.
const stagingChunk = 1 << 20

func checkRange(s Storage, n, off int) error {
	if off < 0 || n < 0 || off+n > s.ByteLen() {
		return fmt.Errorf("%s: range [%d, %d) outside buffer of %d bytes", s.Device(), off, off+n, s.ByteLen())
	}
	return nil
}

func checkPattern(s Storage, pattern []byte) error {
	if len(pattern) == 0 || s.ByteLen()%len(pattern) != 0 {
		return fmt.Errorf("%s: fill pattern of %d bytes does not tile %d bytes", s.Device(), len(pattern), s.ByteLen())
	}
	return nil
}

// tile repeats pattern across dst by doubling copies.
func tile(dst, pattern []byte) {
	if len(dst) == 0 {
		return
	}
	n := copy(dst, pattern)
	for n < len(dst) {
		n += copy(dst[n:], dst[:n])
	}
}

// uniformByte reports whether every byte of p is the same, and which.
func uniformByte(p []byte) (byte, bool) {
	for _, b := range p[1:] {
		if b != p[0] {
			return 0, false
		}
	}
	return p[0], true
}

// fillStaged fills s chunk by chunk through host memory.
func fillStaged(s Storage, pattern []byte) error {
	chunk := max(stagingChunk/len(pattern), 1) * len(pattern)
	buf := make([]byte, min(chunk, s.ByteLen()))
	tile(buf, pattern)
	for off := 0; off < s.ByteLen(); off += len(buf) {
		n := min(len(buf), s.ByteLen()-off)
		if err := s.WriteAt(buf[:n], off); err != nil {
			return err
		}
	}
	return nil
}
