package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/torchimage/internal/device"
)

func TestNewRawInitZerosOnes(t *testing.T) {
	z, err := NewRawInit(Shape{4, 4}, Float32, device.CPU0, Zeros)
	require.NoError(t, err)
	zd, err := AsSlice[float32](z)
	require.NoError(t, err)
	for _, v := range zd {
		assert.Zero(t, v)
	}

	o, err := NewRawInit(Shape{3, 2}, Int16, device.CPU0, Ones)
	require.NoError(t, err)
	od, err := AsSlice[int16](o)
	require.NoError(t, err)
	for _, v := range od {
		assert.Equal(t, int16(1), v)
	}

	b, err := NewRawInit(Shape{5}, Bool, device.CPU0, Ones)
	require.NoError(t, err)
	bd, err := AsSlice[bool](b)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, true, true}, bd)
}

func TestNewRawInitRand(t *testing.T) {
	r, err := NewRawInit(Shape{64, 64}, Float32, device.CPU0, Rand)
	require.NoError(t, err)
	data, err := AsSlice[float32](r)
	require.NoError(t, err)

	distinct := map[float32]bool{}
	for _, v := range data {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(1))
		distinct[v] = true
	}
	assert.Greater(t, len(distinct), 100)
}

func TestNewRawInitRandn(t *testing.T) {
	r, err := NewRawInit(Shape{10000}, Float64, device.CPU0, Randn)
	require.NoError(t, err)
	data, err := AsSlice[float64](r)
	require.NoError(t, err)

	var sum float64
	for _, v := range data {
		sum += v
	}
	assert.InDelta(t, 0, sum/float64(len(data)), 0.1)
}

func TestNewRawInitRandRequiresFloat(t *testing.T) {
	_, err := NewRawInit(Shape{2}, Int32, device.CPU0, Rand)
	assert.ErrorIs(t, err, ErrInitializerDType)
	_, err = NewRawInit(Shape{2}, Uint8, device.CPU0, Randn)
	assert.ErrorIs(t, err, ErrInitializerDType)
}

func TestInitializerNames(t *testing.T) {
	for i := Empty; i <= Randn; i++ {
		got, err := ParseInitializer(i.String())
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	_, err := ParseInitializer("eye")
	assert.Error(t, err)
}
