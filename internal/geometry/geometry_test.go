package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestIndexArithmetic(t *testing.T) {
	a := Index{1, 2, 3}
	b := Index{0, 5, 1}

	assert.Equal(t, Offset{1, -3, 2}, a.Sub(b))
	assert.Equal(t, a, b.Add(a.Sub(b)))
	assert.Equal(t, Index{7, 7}, FilledIndex(2, 7))
	assert.Equal(t, "[1, 2, 3]", a.String())

	c := a.Clone()
	c[0] = 9
	assert.False(t, a.Equal(c))
}

func TestSize(t *testing.T) {
	s := FilledSize(3, 4)
	assert.Equal(t, 64, s.NumberOfPixels())
	assert.Equal(t, 3, s.Dim())
	assert.NoError(t, s.Validate())
	assert.Error(t, Size{1, -2}.Validate())
	assert.Error(t, Size{1<<62 + 1, 4}.Validate())
	assert.NoError(t, Size{1 << 62, 0, 1 << 62}.Validate())
}

func TestRegionContainment(t *testing.T) {
	r := NewRegion(Index{2, 3}, Size{4, 5})

	assert.Equal(t, 20, r.NumberOfPixels())
	assert.Equal(t, Index{5, 7}, r.Upper())
	assert.True(t, r.IsInside(Index{2, 3}))
	assert.True(t, r.IsInside(Index{5, 7}))
	assert.False(t, r.IsInside(Index{6, 7}))
	assert.False(t, r.IsInside(Index{1, 3}))
	assert.False(t, r.IsInside(Index{2}))

	assert.True(t, r.IsInsideRegion(NewRegion(Index{3, 4}, Size{2, 2})))
	assert.False(t, r.IsInsideRegion(NewRegion(Index{3, 4}, Size{4, 2})))
	assert.False(t, r.IsInsideRegion(NewRegion(Index{3, 4}, Size{0, 2})))
}

func TestRegionValidate(t *testing.T) {
	assert.NoError(t, RegionFromSize(Size{3, 3}).Validate())
	assert.Error(t, Region{Index: Index{0}, Size: Size{1, 1}}.Validate())
	assert.True(t, Region{}.IsEmpty())
}

func TestRegionCrop(t *testing.T) {
	r := RegionFromSize(Size{10, 10})
	got, ok := r.Crop(NewRegion(Index{-2, 8}, Size{5, 5}))
	require.True(t, ok)
	assert.Equal(t, NewRegion(Index{0, 8}, Size{3, 2}), got)

	_, ok = r.Crop(NewRegion(Index{10, 0}, Size{2, 2}))
	assert.False(t, ok)
}

func TestRegionIndicesOrder(t *testing.T) {
	r := NewRegion(Index{1, 10}, Size{2, 3})
	var got []Index
	for idx := range r.Indices() {
		got = append(got, idx.Clone())
	}
	want := []Index{
		{1, 10}, {2, 10},
		{1, 11}, {2, 11},
		{1, 12}, {2, 12},
	}
	assert.Equal(t, want, got)

	n := 0
	for range RegionFromSize(Size{3, 0}).Indices() {
		n++
	}
	assert.Zero(t, n)

	for range r.Indices() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestRegionSplit(t *testing.T) {
	r := NewRegion(Index{0, 0, 5}, Size{4, 4, 10})
	pieces := r.Split(3)
	require.Len(t, pieces, 3)

	total := 0
	next := 5
	for _, p := range pieces {
		assert.Equal(t, next, p.Index[2])
		next += p.Size[2]
		total += p.NumberOfPixels()
	}
	assert.Equal(t, 15, next)
	assert.Equal(t, r.NumberOfPixels(), total)

	flat := RegionFromSize(Size{8, 6, 1})
	pieces = flat.Split(4)
	require.Len(t, pieces, 3, "splits along the row dimension when slices == 1")
	assert.Equal(t, 2, pieces[0].Size[1])

	assert.Len(t, r.Split(1), 1)
	assert.Len(t, RegionFromSize(Size{2, 2}).Split(10), 2)
}

func TestFrameIdentity(t *testing.T) {
	f := NewFrame(3)
	require.NoError(t, f.Validate())

	p, err := f.TransformIndexToPhysicalPoint(Index{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, Point{1, 2, 3}, p)

	idx, err := f.TransformPhysicalPointToIndex(Point{0.9, 2.2, 2.6})
	require.NoError(t, err)
	assert.Equal(t, Index{1, 2, 3}, idx)

	_, err = f.TransformIndexToPhysicalPoint(Index{1})
	assert.Error(t, err)
}

func TestFrameSpacingOriginDirection(t *testing.T) {
	f := NewFrame(2)
	f.Origin = Point{10, -5}
	f.Spacing = []float64{0.5, 2}
	// 90 degree rotation.
	f.Direction = mat.NewDense(2, 2, []float64{0, -1, 1, 0})
	require.NoError(t, f.Validate())

	p, err := f.TransformIndexToPhysicalPoint(Index{4, 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{8, -3}, []float64(p), 1e-12)

	idx, err := f.TransformPhysicalPointToIndex(p)
	require.NoError(t, err)
	assert.Equal(t, Index{4, 1}, idx)

	c := f.Clone()
	c.Direction.Set(0, 0, 5)
	assert.Equal(t, 0.0, f.Direction.At(0, 0), "clone is deep")
}

func TestFrameValidate(t *testing.T) {
	f := NewFrame(2)
	f.Spacing[1] = 0
	assert.Error(t, f.Validate())

	f = NewFrame(2)
	f.Direction = mat.NewDense(2, 2, []float64{1, 1, 1, 1})
	assert.Error(t, f.Validate())

	f = NewFrame(2)
	f.Origin = Point{0}
	assert.Error(t, f.Validate())

	assert.NoError(t, NewFrame(0).Validate())
}
