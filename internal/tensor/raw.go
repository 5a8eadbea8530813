package tensor

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/logging"
)

// Errors returned by tensor element access.
var (
	ErrDTypeMismatch   = errors.New("dtype mismatch")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrReleased        = errors.New("tensor storage released")
	ErrShapeOverflow   = errors.New("tensor size overflows int")
)

// tensorBuffer is a reference-counted device buffer shared by views and clones.
type tensorBuffer struct {
	storage  device.Storage
	refCount atomic.Int32
}

func newTensorBuffer(s device.Storage) *tensorBuffer {
	buf := &tensorBuffer{storage: s}
	buf.refCount.Store(1)
	return buf
}

func (tb *tensorBuffer) addRef() { tb.refCount.Add(1) }

func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.storage.Free()
	}
}

// RawTensor is an untyped strided view onto device storage.
type RawTensor struct {
	buffer *tensorBuffer
	shape  Shape
	stride []int // in elements
	offset int   // in elements
	dtype  DataType
}

// NewRaw allocates a tensor on dev. Host memory is zeroed, device memory is
// left uninitialised; use NewRawInit to choose.
func NewRaw(shape Shape, dtype DataType, dev device.Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	byteSize, ok := mulInt(shape.NumElements(), dtype.Size())
	if !ok {
		return nil, fmt.Errorf("%w: %v elements of %s", ErrShapeOverflow, shape, dtype)
	}
	s, err := device.Alloc(dev, byteSize)
	if err != nil {
		return nil, err
	}
	logging.Logger().Debug("tensor allocated", "shape", shape, "dtype", dtype.String(), "device", dev.String())

	return &RawTensor{
		buffer: newTensorBuffer(s),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape { return r.shape }

// Strides returns the tensor's strides, in elements.
func (r *RawTensor) Strides() []int { return r.stride }

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType { return r.dtype }

// Device returns the device holding the tensor's storage.
func (r *RawTensor) Device() device.Device { return r.buffer.storage.Device() }

// Storage returns the underlying storage, shared with every view.
func (r *RawTensor) Storage() device.Storage { return r.buffer.storage }

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int { return r.shape.NumElements() }

// ByteSize returns the size of the viewed elements in bytes.
func (r *RawTensor) ByteSize() int { return r.NumElements() * r.dtype.Size() }

// IsContiguous reports whether the view is row-major without gaps.
func (r *RawTensor) IsContiguous() bool {
	want := r.shape.ComputeStrides()
	for i := range want {
		if r.shape[i] != 1 && r.stride[i] != want[i] {
			return false
		}
	}
	return true
}

// coversStorage reports whether the view spans the whole buffer in order.
func (r *RawTensor) coversStorage() bool {
	return r.offset == 0 && r.IsContiguous() && r.ByteSize() == r.buffer.storage.ByteLen()
}

// Clone returns a view sharing the same storage. The storage is freed when
// every clone has been released.
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.addRef()
	return &RawTensor{
		buffer: r.buffer,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		offset: r.offset,
		dtype:  r.dtype,
	}
}

// Release drops this reference to the storage.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// IsUnique returns true if this tensor is the only reference to the buffer.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.refCount.Load() == 1
}

// Select returns the view r[i] along dim, which drops that dimension.
// The view shares storage with r.
func (r *RawTensor) Select(dim, i int) (*RawTensor, error) {
	if dim < 0 || dim >= len(r.shape) {
		return nil, fmt.Errorf("select: dimension %d out of range for %d-d tensor", dim, len(r.shape))
	}
	if i < 0 || i >= r.shape[dim] {
		return nil, fmt.Errorf("select: %w: %d for dimension %d (size %d)", ErrIndexOutOfRange, i, dim, r.shape[dim])
	}
	view := r.Clone()
	view.offset += i * r.stride[dim]
	view.shape = append(view.shape[:dim:dim], r.shape[dim+1:]...)
	view.stride = append(view.stride[:dim:dim], r.stride[dim+1:]...)
	return view, nil
}

// elementOffset converts a full index into an element offset within storage.
func (r *RawTensor) elementOffset(idx []int) (int, error) {
	if len(idx) != len(r.shape) {
		return 0, fmt.Errorf("expected %d indices, got %d", len(r.shape), len(idx))
	}
	off := r.offset
	for i, v := range idx {
		if v < 0 || v >= r.shape[i] {
			return 0, fmt.Errorf("%w: %d for dimension %d (size %d)", ErrIndexOutOfRange, v, i, r.shape[i])
		}
		off += v * r.stride[i]
	}
	return off, nil
}

// offsetAt returns the storage element offset of the i-th viewed element in
// row-major order.
func (r *RawTensor) offsetAt(i int) int {
	off := r.offset
	for d := len(r.shape) - 1; d >= 0; d-- {
		off += (i % r.shape[d]) * r.stride[d]
		i /= r.shape[d]
	}
	return off
}

// forEachOffset calls fn with the storage element offset of every element,
// in row-major order.
func (r *RawTensor) forEachOffset(fn func(off int) error) error {
	if r.IsContiguous() {
		for i := range r.NumElements() {
			if err := fn(r.offset + i); err != nil {
				return err
			}
		}
		return nil
	}
	idx := make([]int, len(r.shape))
	for range r.NumElements() {
		off := r.offset
		for d, v := range idx {
			off += v * r.stride[d]
		}
		if err := fn(off); err != nil {
			return err
		}
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < r.shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return nil
}

// HostData returns a row-major host copy of the viewed elements.
func (r *RawTensor) HostData() ([]byte, error) {
	size := r.dtype.Size()
	s := r.buffer.storage
	if r.IsContiguous() {
		out := make([]byte, r.ByteSize())
		if err := s.ReadAt(out, r.offset*size); err != nil {
			return nil, err
		}
		return out, nil
	}
	out := make([]byte, 0, r.ByteSize())
	elem := make([]byte, size)
	err := r.forEachOffset(func(off int) error {
		if err := s.ReadAt(elem, off*size); err != nil {
			return err
		}
		out = append(out, elem...)
		return nil
	})
	return out, err
}

// SetHostData overwrites the viewed elements from row-major host bytes.
func (r *RawTensor) SetHostData(data []byte) error {
	if len(data) != r.ByteSize() {
		return fmt.Errorf("set data: got %d bytes, want %d", len(data), r.ByteSize())
	}
	size := r.dtype.Size()
	s := r.buffer.storage
	if r.IsContiguous() {
		return s.WriteAt(data, r.offset*size)
	}
	i := 0
	return r.forEachOffset(func(off int) error {
		err := s.WriteAt(data[i:i+size], off*size)
		i += size
		return err
	})
}

// To returns a contiguous copy of the tensor on dev. If the tensor already
// lives on dev, the copy still has its own storage.
func (r *RawTensor) To(dev device.Device) (*RawTensor, error) {
	out, err := NewRaw(r.shape, r.dtype, dev)
	if err != nil {
		return nil, err
	}
	if r.coversStorage() {
		err = device.Copy(out.buffer.storage, r.buffer.storage)
	} else {
		var data []byte
		if data, err = r.HostData(); err == nil {
			err = out.SetHostData(data)
		}
	}
	if err != nil {
		out.Release()
		return nil, fmt.Errorf("transfer %s -> %s: %w", r.Device(), dev, err)
	}
	logging.Logger().Debug("tensor transferred", "from", r.Device().String(), "to", dev.String(), "bytes", r.ByteSize())
	return out, nil
}

// AsSlice returns a zero-copy typed view of a contiguous host tensor.
// Modifications to the slice modify the tensor.
func AsSlice[T DType](r *RawTensor) ([]T, error) {
	if r.dtype != DataTypeOf[T]() {
		return nil, fmt.Errorf("%w: tensor is %s", ErrDTypeMismatch, r.dtype)
	}
	data := r.buffer.storage.Bytes()
	if data == nil {
		if r.buffer.storage.ByteLen() == 0 {
			return nil, ErrReleased
		}
		return nil, fmt.Errorf("tensor on %s has no host view", r.Device())
	}
	if !r.IsContiguous() {
		return nil, fmt.Errorf("tensor view is not contiguous")
	}
	data = data[r.offset*r.dtype.Size():]
	//nolint:gosec // unsafe.Slice for zero-copy view, bounded by NumElements
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), r.NumElements()), nil
}
