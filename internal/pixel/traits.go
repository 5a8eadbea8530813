// Package pixel maps pixel values, scalar or composite, onto the trailing
// dimensions of a tensor.
//
// A scalar pixel occupies one tensor element. A composite pixel (RGB, RGBA,
// Vector, CovariantVector) adds one trailing dimension whose extent is its
// number of components; nested composites add one dimension per level,
// innermost last. Vector[Vector[RGB[uint8]]] of lengths 3 and 2 therefore
// occupies a [3, 2, 3] block of uint8 elements.
package pixel

import (
	"fmt"

	"github.com/born-ml/torchimage/internal/tensor"
)

// Traits describes how pixels of type P are laid out in a tensor.
type Traits[P any] interface {
	// DataType is the deep scalar type stored in the tensor.
	DataType() tensor.DataType
	// NumberOfComponents is the number of top-level components, 1 for scalars.
	NumberOfComponents() int
	// SizeOf is the number of deep scalars in one pixel.
	SizeOf() int
	// PixelDimension is the number of tensor dimensions a pixel occupies.
	PixelDimension() int
	// AppendSizes appends the pixel's tensor dimensions to sizes.
	AppendSizes(sizes []int) []int
	// Load reads the pixel whose leading tensor index is idx.
	Load(t *tensor.RawTensor, idx []int) (P, error)
	// Store writes p at the leading tensor index idx.
	Store(t *tensor.RawTensor, idx []int, p P) error
	// Zero returns a zero pixel with every component allocated.
	Zero() P
	Name() string
}

type scalarTraits[T tensor.DType] struct{}

// Scalar returns the traits of a plain scalar pixel.
func Scalar[T tensor.DType]() Traits[T] { return scalarTraits[T]{} }

func (scalarTraits[T]) DataType() tensor.DataType     { return tensor.DataTypeOf[T]() }
func (scalarTraits[T]) NumberOfComponents() int       { return 1 }
func (scalarTraits[T]) SizeOf() int                   { return 1 }
func (scalarTraits[T]) PixelDimension() int           { return 0 }
func (scalarTraits[T]) AppendSizes(sizes []int) []int { return sizes }
func (scalarTraits[T]) Zero() T                       { var zero T; return zero }
func (scalarTraits[T]) Name() string                  { return tensor.DataTypeOf[T]().String() }

func (scalarTraits[T]) Store(t *tensor.RawTensor, idx []int, p T) error {
	return tensor.PutAt(t, p, idx...)
}

func (scalarTraits[T]) Load(t *tensor.RawTensor, idx []int) (T, error) {
	return tensor.ItemAt[T](t, idx...)
}

// composite is the traits of a fixed-length pixel of E components.
type composite[P, E any] struct {
	name  string
	n     int
	sized bool // length is part of the name
	elem  Traits[E]
	make  func() P
	get   func(p P, i int) E
	set   func(p *P, i int, e E)
}

func (c composite[P, E]) DataType() tensor.DataType { return c.elem.DataType() }
func (c composite[P, E]) NumberOfComponents() int   { return c.n }
func (c composite[P, E]) SizeOf() int               { return c.n * c.elem.SizeOf() }
func (c composite[P, E]) PixelDimension() int       { return 1 + c.elem.PixelDimension() }

func (c composite[P, E]) AppendSizes(sizes []int) []int {
	return c.elem.AppendSizes(append(sizes, c.n))
}

func (c composite[P, E]) Name() string {
	if !c.sized {
		return fmt.Sprintf("%s<%s>", c.name, c.elem.Name())
	}
	return fmt.Sprintf("%s<%s,%d>", c.name, c.elem.Name(), c.n)
}

func (c composite[P, E]) Zero() P {
	p := c.make()
	for i := range c.n {
		c.set(&p, i, c.elem.Zero())
	}
	return p
}

func (c composite[P, E]) Load(t *tensor.RawTensor, idx []int) (P, error) {
	p := c.make()
	idx = append(idx, 0)
	last := len(idx) - 1
	for i := range c.n {
		idx[last] = i
		e, err := c.elem.Load(t, idx)
		if err != nil {
			return p, err
		}
		c.set(&p, i, e)
	}
	return p, nil
}

func (c composite[P, E]) Store(t *tensor.RawTensor, idx []int, p P) error {
	if err := c.check(p); err != nil {
		return err
	}
	idx = append(idx, 0)
	last := len(idx) - 1
	for i := range c.n {
		idx[last] = i
		if err := c.elem.Store(t, idx, c.get(p, i)); err != nil {
			return err
		}
	}
	return nil
}

// check rejects variable-length pixels of the wrong length.
func (c composite[P, E]) check(p P) error {
	if l, ok := any(p).(interface{ Len() int }); ok && l.Len() != c.n {
		return fmt.Errorf("%s pixel has %d components, want %d", c.name, l.Len(), c.n)
	}
	return nil
}
