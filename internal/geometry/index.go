// Package geometry provides the index-space and physical-space types of an
// image: Index, Size, Offset, Region and the origin/spacing/direction frame.
//
// Index components are ordered fastest-varying first: Index[0] is the
// column, Index[1] the row, Index[2] the slice.
package geometry

import (
	"fmt"
	"math"
	"math/bits"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Index is a position in index space.
type Index []int

// Size is the extent of a region along each dimension.
type Size []int

// Offset is the difference between two indices.
type Offset []int

// FilledIndex returns a dim-dimensional index with every component v.
func FilledIndex(dim, v int) Index { return Index(filled(dim, v)) }

// FilledSize returns a dim-dimensional size with every component v.
func FilledSize(dim, v int) Size { return Size(filled(dim, v)) }

func filled(dim, v int) []int {
	out := make([]int, dim)
	for i := range out {
		out[i] = v
	}
	return out
}

// Dim returns the number of dimensions.
func (i Index) Dim() int { return len(i) }

// Clone returns a copy of the index.
func (i Index) Clone() Index { return slices.Clone(i) }

// Equal reports whether two indices are identical.
func (i Index) Equal(o Index) bool { return slices.Equal(i, o) }

// Add returns i + o.
func (i Index) Add(o Offset) Index {
	return lo.Map(i, func(v int, k int) int { return v + o[k] })
}

// Sub returns the offset i - o.
func (i Index) Sub(o Index) Offset {
	return lo.Map(i, func(v int, k int) int { return v - o[k] })
}

func (i Index) String() string { return format(i) }

// Dim returns the number of dimensions.
func (s Size) Dim() int { return len(s) }

// Clone returns a copy of the size.
func (s Size) Clone() Size { return slices.Clone(s) }

// Equal reports whether two sizes are identical.
func (s Size) Equal(o Size) bool { return slices.Equal(s, o) }

// NumberOfPixels returns the product of the components.
func (s Size) NumberOfPixels() int {
	return lo.Reduce(s, func(agg, v, _ int) int { return agg * v }, 1)
}

// Validate reports negative components and pixel counts that overflow int.
func (s Size) Validate() error {
	n := uint64(1)
	for i, v := range s {
		if v < 0 {
			return fmt.Errorf("size component %d is negative: %d", i, v)
		}
		hi, lo := bits.Mul64(n, uint64(v))
		if hi != 0 || lo > math.MaxInt {
			return fmt.Errorf("size %s: pixel count overflows int", s)
		}
		n = lo
	}
	return nil
}

func (s Size) String() string { return format(s) }

func format(v []int) string {
	parts := lo.Map(v, func(x int, _ int) string { return fmt.Sprint(x) })
	return "[" + strings.Join(parts, ", ") + "]"
}
