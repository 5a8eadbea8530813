package pixel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/tensor"
)

func nested() Traits[Vector[Vector[RGB[uint8]]]] {
	return VectorOf(3, VectorOf(2, RGBOf(Scalar[uint8]())))
}

func newTensor[P any](t *testing.T, traits Traits[P], lead ...int) *tensor.RawTensor {
	t.Helper()
	shape := traits.AppendSizes(append([]int(nil), lead...))
	r, err := tensor.NewRaw(shape, traits.DataType(), device.CPU0)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func TestTraitsLayout(t *testing.T) {
	tests := []struct {
		name   string
		traits interface {
			DataType() tensor.DataType
			NumberOfComponents() int
			SizeOf() int
			PixelDimension() int
			AppendSizes([]int) []int
			Name() string
		}
		dtype      tensor.DataType
		components int
		sizeOf     int
		dim        int
		sizes      []int
		label      string
	}{
		{"bool", Scalar[bool](), tensor.Bool, 1, 1, 0, nil, "bool"},
		{"float64", Scalar[float64](), tensor.Float64, 1, 1, 0, nil, "float64"},
		{"rgb", RGBOf(Scalar[uint8]()), tensor.Uint8, 3, 3, 1, []int{3}, "RGB<uint8>"},
		{"rgba", RGBAOf(Scalar[uint8]()), tensor.Uint8, 4, 4, 1, []int{4}, "RGBA<uint8>"},
		{"vector", VectorOf(2, Scalar[int16]()), tensor.Int16, 2, 2, 1, []int{2}, "Vector<int16,2>"},
		{"covariant", CovariantVectorOf(4, Scalar[int16]()), tensor.Int16, 4, 4, 1, []int{4}, "CovariantVector<int16,4>"},
		{"nested", nested(), tensor.Uint8, 3, 18, 3, []int{3, 2, 3}, "Vector<Vector<RGB<uint8>,2>,3>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.dtype, tt.traits.DataType())
			assert.Equal(t, tt.components, tt.traits.NumberOfComponents())
			assert.Equal(t, tt.sizeOf, tt.traits.SizeOf())
			assert.Equal(t, tt.dim, tt.traits.PixelDimension())
			assert.Equal(t, tt.sizes, tt.traits.AppendSizes(nil))
			assert.Equal(t, tt.label, tt.traits.Name())
		})
	}
}

func TestAppendSizesKeepsPrefix(t *testing.T) {
	got := nested().AppendSizes([]int{7, 5})
	assert.Equal(t, []int{7, 5, 3, 2, 3}, got)
}

func TestScalarRef(t *testing.T) {
	traits := Scalar[int32]()
	r := newTensor(t, traits, 4, 5)

	ref := NewRef(traits, r, []int{2, 3})
	require.NoError(t, ref.Set(-17))

	v, err := ref.Value()
	require.NoError(t, err)
	assert.Equal(t, int32(-17), v)

	got, err := tensor.ItemAt[int32](r, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(-17), got)
}

func TestRGBRefWritesTrailingDimension(t *testing.T) {
	traits := RGBOf(Scalar[uint8]())
	r := newTensor(t, traits, 2, 2)

	ref := NewRef(traits, r, []int{1, 0})
	require.NoError(t, ref.Set(RGB[uint8]{10, 20, 30}))

	for c, want := range []uint8{10, 20, 30} {
		got, err := tensor.ItemAt[uint8](r, 1, 0, c)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	v, err := ref.Value()
	require.NoError(t, err)
	assert.Equal(t, RGB[uint8]{10, 20, 30}, v)
}

func TestNestedRefRoundTrip(t *testing.T) {
	traits := nested()
	r := newTensor(t, traits, 2)

	p := traits.Zero()
	for i := range p {
		for j := range p[i] {
			p[i][j] = RGB[uint8]{uint8(i), uint8(j), uint8(10*i + j)}
		}
	}

	ref := NewRef(traits, r, []int{1})
	require.NoError(t, ref.Set(p))

	got, err := ref.Value()
	require.NoError(t, err)
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("nested pixel mismatch (-want +got):\n%s", diff)
	}

	// Component (2, 1, blue) of pixel 1.
	v, err := tensor.ItemAt[uint8](r, 1, 2, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(21), v)

	// Pixel 0 untouched.
	other, err := NewRef(traits, r, []int{0}).Value()
	require.NoError(t, err)
	if diff := cmp.Diff(traits.Zero(), other); diff != "" {
		t.Errorf("neighbour changed (-want +got):\n%s", diff)
	}
}

func TestStoreRejectsWrongVectorLength(t *testing.T) {
	traits := VectorOf(3, Scalar[float32]())
	r := newTensor(t, traits, 1)

	err := NewRef(traits, r, []int{0}).Set(Vector[float32]{1, 2})
	assert.Error(t, err)
}

func TestRefOutOfRange(t *testing.T) {
	traits := Scalar[float32]()
	r := newTensor(t, traits, 2)

	_, err := NewRef(traits, r, []int{2}).Value()
	assert.ErrorIs(t, err, tensor.ErrIndexOutOfRange)
}

func TestRefIndexIsCopied(t *testing.T) {
	idx := []int{1}
	ref := NewRef(Scalar[uint8](), newTensor(t, Scalar[uint8](), 3), idx)
	idx[0] = 2
	assert.Equal(t, []int{1}, ref.Index())
}

func TestEncode(t *testing.T) {
	traits := VectorOf(2, RGBAOf(Scalar[uint8]()))
	p := Vector[RGBA[uint8]]{{1, 2, 3, 4}, {5, 6, 7, 8}}

	enc, err := Encode(traits, p)
	require.NoError(t, err)
	defer enc.Release()

	assert.Equal(t, tensor.Shape{2, 4}, enc.Shape())
	data, err := enc.HostData()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, data)

	scalar, err := Encode(Scalar[int16](), 3)
	require.NoError(t, err)
	defer scalar.Release()
	assert.Empty(t, scalar.Shape())
	assert.Equal(t, 1, scalar.NumElements())
}

func TestEncodedPatternFillsTensor(t *testing.T) {
	traits := RGBOf(Scalar[int16]())
	r := newTensor(t, traits, 3, 2)

	pattern, err := Encode(traits, RGB[int16]{-1, 0, 1})
	require.NoError(t, err)
	defer pattern.Release()
	require.NoError(t, tensor.FillPattern(r, pattern))

	for y := range 3 {
		for x := range 2 {
			v, err := NewRef(traits, r, []int{y, x}).Value()
			require.NoError(t, err)
			assert.Equal(t, RGB[int16]{-1, 0, 1}, v)
		}
	}
}

func TestVectorOfPanicsOnZeroLength(t *testing.T) {
	assert.Panics(t, func() { VectorOf(0, Scalar[uint8]()) })
}
