package pixel

import (
	"fmt"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/tensor"
)

// Ref stands in for one pixel of a tensor. It reads and writes through to
// the tensor's storage, so it works the same for host and GPU images.
type Ref[P any] struct {
	traits Traits[P]
	t      *tensor.RawTensor
	idx    []int
}

// NewRef binds a pixel reference to t at the leading tensor index idx.
func NewRef[P any](traits Traits[P], t *tensor.RawTensor, idx []int) *Ref[P] {
	return &Ref[P]{traits: traits, t: t, idx: append([]int(nil), idx...)}
}

// Value reads the pixel.
func (r *Ref[P]) Value() (P, error) {
	return r.traits.Load(r.t, r.index())
}

// Set overwrites the pixel with p.
func (r *Ref[P]) Set(p P) error {
	return r.traits.Store(r.t, r.index(), p)
}

// Index returns the leading tensor index the reference is bound to.
func (r *Ref[P]) Index() []int { return append([]int(nil), r.idx...) }

// index returns a copy with room for the pixel dimensions, so that Load and
// Store can push component indices without reallocating.
func (r *Ref[P]) index() []int {
	idx := make([]int, len(r.idx), len(r.idx)+r.traits.PixelDimension())
	copy(idx, r.idx)
	return idx
}

// Encode returns a host tensor of the pixel's own shape holding p. It is the
// pattern tiled over a buffer by tensor.FillPattern.
func Encode[P any](traits Traits[P], p P) (*tensor.RawTensor, error) {
	t, err := tensor.NewRaw(traits.AppendSizes(nil), traits.DataType(), device.CPU0)
	if err != nil {
		return nil, err
	}
	if err := traits.Store(t, nil, p); err != nil {
		t.Release()
		return nil, fmt.Errorf("encode %s: %w", traits.Name(), err)
	}
	return t, nil
}
