package tensor

import (
	"fmt"

	"github.com/born-ml/torchimage/internal/parallel"
)

// hostParallel splits fills of partial host views across goroutines. Views
// smaller than its MinChunkSize are filled on the calling goroutine.
var hostParallel = parallel.DefaultConfig()

// ItemAt reads the element at idx. The index must address a single element,
// so len(idx) equals the tensor rank.
func ItemAt[T DType](r *RawTensor, idx ...int) (T, error) {
	var zero T
	if r.dtype != DataTypeOf[T]() {
		return zero, fmt.Errorf("%w: reading %s from %s tensor", ErrDTypeMismatch, DataTypeOf[T](), r.dtype)
	}
	off, err := r.elementOffset(idx)
	if err != nil {
		return zero, err
	}
	b := make([]byte, r.dtype.Size())
	if err := r.buffer.storage.ReadAt(b, off*r.dtype.Size()); err != nil {
		return zero, err
	}
	return fromBytes[T](b), nil
}

// PutAt writes v to the element at idx.
func PutAt[T DType](r *RawTensor, v T, idx ...int) error {
	if r.dtype != DataTypeOf[T]() {
		return fmt.Errorf("%w: writing %s to %s tensor", ErrDTypeMismatch, DataTypeOf[T](), r.dtype)
	}
	off, err := r.elementOffset(idx)
	if err != nil {
		return err
	}
	return r.buffer.storage.WriteAt(scalarBytes(v), off*r.dtype.Size())
}

// Fill sets every viewed element to v.
func Fill[T DType](r *RawTensor, v T) error {
	if r.dtype != DataTypeOf[T]() {
		return fmt.Errorf("%w: filling %s tensor with %s", ErrDTypeMismatch, r.dtype, DataTypeOf[T]())
	}
	return r.fillBytes(scalarBytes(v))
}

// fillBytes tiles one encoded element over the view.
func (r *RawTensor) fillBytes(elem []byte) error {
	s := r.buffer.storage
	if r.coversStorage() {
		return s.Fill(elem)
	}
	if r.scatter(func(int) []byte { return elem }) {
		return nil
	}
	size := r.dtype.Size()
	return r.forEachOffset(func(off int) error {
		return s.WriteAt(elem, off*size)
	})
}

// FillPattern tiles pattern over r. The pattern's shape must equal the
// trailing dimensions of r, e.g. a [3] pattern fills an [H, W, 3] tensor
// pixel by pixel.
func FillPattern(r, pattern *RawTensor) error {
	if pattern.dtype != r.dtype {
		return fmt.Errorf("%w: pattern is %s, tensor is %s", ErrDTypeMismatch, pattern.dtype, r.dtype)
	}
	if !r.shape.HasSuffix(pattern.shape) {
		return fmt.Errorf("pattern shape %v does not match trailing dimensions of %v", pattern.shape, r.shape)
	}
	p, err := pattern.HostData()
	if err != nil {
		return err
	}
	if r.coversStorage() {
		return r.buffer.storage.Fill(p)
	}
	size := r.dtype.Size()
	n := pattern.NumElements()
	if r.scatter(func(i int) []byte {
		k := i % n
		return p[k*size : (k+1)*size]
	}) {
		return nil
	}
	i := 0
	return r.forEachOffset(func(off int) error {
		k := i % n
		i++
		return r.buffer.storage.WriteAt(p[k*size:(k+1)*size], off*size)
	})
}

// scatter writes elem(i) to the i-th viewed element, in row-major order, of a
// host tensor. It reports false when the storage has no host view. Distinct
// elements of a view never share bytes, so chunks are written concurrently.
func (r *RawTensor) scatter(elem func(i int) []byte) bool {
	data := r.buffer.storage.Bytes()
	if data == nil {
		return false
	}
	size := r.dtype.Size()
	parallel.For(r.NumElements(), func(i int) {
		off := r.offsetAt(i) * size
		copy(data[off:off+size], elem(i))
	}, hostParallel)
	return true
}
