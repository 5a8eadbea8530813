package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Point is a position in physical space.
type Point []float64

// Frame places index space in physical space:
//
//	point = Origin + Direction * diag(Spacing) * index
type Frame struct {
	Origin    Point
	Spacing   []float64
	Direction *mat.Dense
}

// NewFrame returns the identity frame: zero origin, unit spacing, identity direction.
func NewFrame(dim int) Frame {
	f := Frame{
		Origin:    make(Point, dim),
		Spacing:   make([]float64, dim),
		Direction: Identity(dim),
	}
	for i := range f.Spacing {
		f.Spacing[i] = 1
	}
	return f
}

// Identity returns the dim x dim identity matrix, or nil for dim 0.
func Identity(dim int) *mat.Dense {
	if dim == 0 {
		return nil
	}
	d := mat.NewDense(dim, dim, nil)
	for i := range dim {
		d.Set(i, i, 1)
	}
	return d
}

// Dim returns the frame dimension.
func (f Frame) Dim() int { return len(f.Spacing) }

// Clone returns a deep copy.
func (f Frame) Clone() Frame {
	out := Frame{
		Origin:  append(Point(nil), f.Origin...),
		Spacing: append([]float64(nil), f.Spacing...),
	}
	if f.Direction != nil {
		out.Direction = mat.DenseCopyOf(f.Direction)
	}
	return out
}

// Validate checks dimensions, positive spacing and an invertible direction.
func (f Frame) Validate() error {
	dim := len(f.Spacing)
	if len(f.Origin) != dim {
		return fmt.Errorf("origin has %d components, spacing has %d", len(f.Origin), dim)
	}
	for i, s := range f.Spacing {
		if !(s > 0) {
			return fmt.Errorf("spacing component %d must be positive, got %g", i, s)
		}
	}
	if dim == 0 {
		return nil
	}
	_, err := f.physicalToIndex()
	return err
}

// indexToPhysical returns Direction * diag(Spacing).
func (f Frame) indexToPhysical() (*mat.Dense, error) {
	dim := len(f.Spacing)
	if f.Direction == nil {
		return nil, fmt.Errorf("direction not set")
	}
	if r, c := f.Direction.Dims(); r != dim || c != dim {
		return nil, fmt.Errorf("direction is %dx%d, want %dx%d", r, c, dim, dim)
	}
	m := mat.NewDense(dim, dim, nil)
	for i := range dim {
		for j := range dim {
			m.Set(i, j, f.Direction.At(i, j)*f.Spacing[j])
		}
	}
	return m, nil
}

func (f Frame) physicalToIndex() (*mat.Dense, error) {
	m, err := f.indexToPhysical()
	if err != nil {
		return nil, err
	}
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, fmt.Errorf("direction matrix is singular: %w", err)
	}
	return &inv, nil
}

// TransformIndexToPhysicalPoint maps an index to its physical location.
func (f Frame) TransformIndexToPhysicalPoint(idx Index) (Point, error) {
	if len(idx) != f.Dim() {
		return nil, fmt.Errorf("index has %d dimensions, frame has %d", len(idx), f.Dim())
	}
	m, err := f.indexToPhysical()
	if err != nil {
		return nil, err
	}
	in := make([]float64, len(idx))
	for i, v := range idx {
		in[i] = float64(v)
	}
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(len(in), in))
	p := make(Point, len(idx))
	for i := range p {
		p[i] = f.Origin[i] + out.AtVec(i)
	}
	return p, nil
}

// TransformPhysicalPointToIndex maps a physical point to the nearest index.
func (f Frame) TransformPhysicalPointToIndex(p Point) (Index, error) {
	if len(p) != f.Dim() {
		return nil, fmt.Errorf("point has %d dimensions, frame has %d", len(p), f.Dim())
	}
	inv, err := f.physicalToIndex()
	if err != nil {
		return nil, err
	}
	rel := make([]float64, len(p))
	for i := range p {
		rel[i] = p[i] - f.Origin[i]
	}
	var out mat.VecDense
	out.MulVec(inv, mat.NewVecDense(len(rel), rel))
	idx := make(Index, len(p))
	for i := range idx {
		idx[i] = int(math.Round(out.AtVec(i)))
	}
	return idx, nil
}
