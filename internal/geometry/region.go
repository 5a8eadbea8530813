package geometry

import (
	"fmt"
	"iter"
)

// Region is the rectangular block of index space starting at Index with
// extent Size.
type Region struct {
	Index Index
	Size  Size
}

// NewRegion returns a region from a start index and size.
func NewRegion(index Index, size Size) Region {
	return Region{Index: index.Clone(), Size: size.Clone()}
}

// RegionFromSize returns the region of the given size starting at the origin.
func RegionFromSize(size Size) Region {
	return Region{Index: make(Index, len(size)), Size: size.Clone()}
}

// Dim returns the number of dimensions.
func (r Region) Dim() int { return len(r.Size) }

// NumberOfPixels returns the number of indices in the region.
func (r Region) NumberOfPixels() int {
	if len(r.Size) == 0 {
		return 0
	}
	return r.Size.NumberOfPixels()
}

// IsEmpty reports whether the region contains no pixels.
func (r Region) IsEmpty() bool { return r.NumberOfPixels() == 0 }

// Equal reports whether two regions are identical.
func (r Region) Equal(o Region) bool {
	return r.Index.Equal(o.Index) && r.Size.Equal(o.Size)
}

// Clone returns a deep copy.
func (r Region) Clone() Region { return NewRegion(r.Index, r.Size) }

// Validate checks that index and size agree in dimension and size is non-negative.
func (r Region) Validate() error {
	if len(r.Index) != len(r.Size) {
		return fmt.Errorf("region index has %d dimensions, size has %d", len(r.Index), len(r.Size))
	}
	return r.Size.Validate()
}

// Upper returns the last index inside the region (inclusive).
func (r Region) Upper() Index {
	up := make(Index, len(r.Index))
	for i := range up {
		up[i] = r.Index[i] + r.Size[i] - 1
	}
	return up
}

// IsInside reports whether idx lies in the region.
func (r Region) IsInside(idx Index) bool {
	if len(idx) != len(r.Index) {
		return false
	}
	for i, v := range idx {
		if v < r.Index[i] || v >= r.Index[i]+r.Size[i] {
			return false
		}
	}
	return true
}

// IsInsideRegion reports whether o lies entirely within r. An empty o is
// never inside.
func (r Region) IsInsideRegion(o Region) bool {
	if o.IsEmpty() {
		return false
	}
	return r.IsInside(o.Index) && r.IsInside(o.Upper())
}

// Crop returns the intersection of r with o, and false when they do not overlap.
func (r Region) Crop(o Region) (Region, bool) {
	if len(o.Index) != len(r.Index) {
		return Region{}, false
	}
	out := Region{Index: make(Index, len(r.Index)), Size: make(Size, len(r.Size))}
	for i := range r.Index {
		start := max(r.Index[i], o.Index[i])
		end := min(r.Index[i]+r.Size[i], o.Index[i]+o.Size[i])
		if end <= start {
			return Region{}, false
		}
		out.Index[i] = start
		out.Size[i] = end - start
	}
	return out, true
}

// Indices iterates every index in the region, first dimension fastest.
// The yielded Index is reused between iterations; clone it to keep it.
func (r Region) Indices() iter.Seq[Index] {
	return func(yield func(Index) bool) {
		if r.IsEmpty() {
			return
		}
		idx := r.Index.Clone()
		for {
			if !yield(idx) {
				return
			}
			d := 0
			for ; d < len(idx); d++ {
				idx[d]++
				if idx[d] < r.Index[d]+r.Size[d] {
					break
				}
				idx[d] = r.Index[d]
			}
			if d == len(idx) {
				return
			}
		}
	}
}

// Split divides the region into at most n contiguous pieces along the
// slowest dimension whose extent exceeds one. Pieces cover r exactly.
func (r Region) Split(n int) []Region {
	if n <= 1 || r.IsEmpty() {
		return []Region{r.Clone()}
	}
	dim := len(r.Size) - 1
	for dim > 0 && r.Size[dim] == 1 {
		dim--
	}
	extent := r.Size[dim]
	n = min(n, extent)
	chunk := (extent + n - 1) / n

	pieces := make([]Region, 0, n)
	for start := 0; start < extent; start += chunk {
		p := r.Clone()
		p.Index[dim] = r.Index[dim] + start
		p.Size[dim] = min(chunk, extent-start)
		pieces = append(pieces, p)
	}
	return pieces
}

func (r Region) String() string {
	return fmt.Sprintf("Region{Index: %s, Size: %s}", r.Index, r.Size)
}
