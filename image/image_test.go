package image_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/torchimage/device"
	"github.com/born-ml/torchimage/geometry"
	"github.com/born-ml/torchimage/image"
	"github.com/born-ml/torchimage/pixel"
	"github.com/born-ml/torchimage/tensor"
)

func TestPublicAPI(t *testing.T) {
	img, err := image.New(pixel.RGBOf(pixel.Scalar[uint8]()), 2)
	require.NoError(t, err)
	require.NoError(t, img.SetRegions(geometry.RegionFromSize(geometry.Size{4, 3})))
	require.NoError(t, img.Allocate(tensor.Zeros))
	defer img.Release()

	assert.Equal(t, tensor.Shape{3, 4, 3}, img.TorchSize())
	require.NoError(t, img.FillBuffer(pixel.RGB[uint8]{10, 20, 30}))

	ref, err := img.GetPixel(geometry.Index{3, 2})
	require.NoError(t, err)
	require.NoError(t, ref.Set(pixel.RGB[uint8]{200, 100, 50}))

	gray, err := image.Apply(context.Background(), img, pixel.Scalar[uint8](), func(p pixel.RGB[uint8]) uint8 {
		return uint8((int(p[0]) + int(p[1]) + int(p[2])) / 3)
	})
	require.NoError(t, err)
	defer gray.Release()

	v, err := gray.Pixel(geometry.Index{3, 2})
	require.NoError(t, err)
	assert.Equal(t, uint8(116), v)
	v, err = gray.Pixel(geometry.Index{0, 0})
	require.NoError(t, err)
	assert.Equal(t, uint8(20), v)

	dir := t.TempDir()
	require.NoError(t, image.WriteFile(filepath.Join(dir, "g.png"), gray))
	back, err := image.ReadGray(filepath.Join(dir, "g.png"), device.CPU0)
	require.NoError(t, err)
	defer back.Release()
	v, err = back.Pixel(geometry.Index{3, 2})
	require.NoError(t, err)
	assert.Equal(t, uint8(116), v)

	require.NoError(t, image.WriteFile(filepath.Join(dir, "c.safetensors"), img))
	same, err := image.ReadFile(filepath.Join(dir, "c.safetensors"), pixel.RGBOf(pixel.Scalar[uint8]()), device.CPU0)
	require.NoError(t, err)
	defer same.Release()
	p, err := same.Pixel(geometry.Index{3, 2})
	require.NoError(t, err)
	assert.Equal(t, pixel.RGB[uint8]{200, 100, 50}, p)
}
