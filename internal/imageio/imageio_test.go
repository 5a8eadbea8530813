package imageio

import (
	stdimage "image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/geometry"
	"github.com/born-ml/torchimage/internal/image"
	"github.com/born-ml/torchimage/internal/pixel"
	"github.com/born-ml/torchimage/internal/tensor"
)

func rgbImage(t *testing.T, w, h int) *image.Image[pixel.RGB[uint8]] {
	t.Helper()
	im, err := image.New(pixel.RGBOf(pixel.Scalar[uint8]()), 2)
	require.NoError(t, err)
	require.NoError(t, im.SetRegions(geometry.RegionFromSize(geometry.Size{w, h})))
	require.NoError(t, im.Allocate(tensor.Zeros))
	t.Cleanup(im.Release)
	for idx := range im.BufferedRegion().Indices() {
		require.NoError(t, im.SetPixel(idx, pixel.RGB[uint8]{uint8(10 * idx[0]), uint8(20 * idx[1]), 99}))
	}
	return im
}

func grayImage(t *testing.T, w, h int) *image.Image[uint8] {
	t.Helper()
	im, err := image.New(pixel.Scalar[uint8](), 2)
	require.NoError(t, err)
	require.NoError(t, im.SetRegions(geometry.RegionFromSize(geometry.Size{w, h})))
	require.NoError(t, im.Allocate(tensor.Zeros))
	t.Cleanup(im.Release)
	for idx := range im.BufferedRegion().Indices() {
		require.NoError(t, im.SetPixel(idx, uint8(idx[0]+w*idx[1])))
	}
	return im
}

func TestToStdImageGray(t *testing.T) {
	im := grayImage(t, 5, 3)
	raster, err := ToStdImage(im)
	require.NoError(t, err)

	g, ok := raster.(*stdimage.Gray)
	require.True(t, ok)
	assert.Equal(t, stdimage.Rect(0, 0, 5, 3), g.Bounds())
	assert.Equal(t, uint8(4+5*2), g.GrayAt(4, 2).Y)
}

func TestToStdImageRGB(t *testing.T) {
	im := rgbImage(t, 4, 2)
	raster, err := ToStdImage(im)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 30, G: 20, B: 99, A: 255}, raster.(*stdimage.NRGBA).NRGBAAt(3, 1))
}

func TestToStdImageRejects(t *testing.T) {
	vec, err := image.New(pixel.VectorOf(2, pixel.Scalar[uint8]()), 2)
	require.NoError(t, err)
	require.NoError(t, vec.SetRegions(geometry.RegionFromSize(geometry.Size{2, 2})))
	require.NoError(t, vec.Allocate(tensor.Zeros))
	defer vec.Release()
	_, err = ToStdImage(vec)
	assert.ErrorIs(t, err, ErrUnsupportedPixel)

	vol, err := image.New(pixel.Scalar[uint8](), 3)
	require.NoError(t, err)
	_, err = ToStdImage(vol)
	assert.ErrorIs(t, err, ErrNot2D)

	flat, err := image.New(pixel.Scalar[uint8](), 2)
	require.NoError(t, err)
	_, err = ToStdImage(flat)
	assert.ErrorIs(t, err, image.ErrNotAllocated)
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{
		"a.png":         PNG,
		"b.TIF":         TIFF,
		"c.tiff":        TIFF,
		"d.bmp":         BMP,
		"e.safetensors": SafeTensors,
	} {
		got, err := FormatOf(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := FormatOf("f.gif")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteReadRGBA(t *testing.T) {
	src := rgbImage(t, 6, 4)
	for _, ext := range []string{"png", "tiff", "bmp"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rgb."+ext)
			require.NoError(t, Write(path, src))

			got, err := ReadRGBA(path, device.CPU0)
			require.NoError(t, err)
			defer got.Release()

			assert.Equal(t, src.BufferedRegion(), got.BufferedRegion())
			for idx := range src.BufferedRegion().Indices() {
				want, err := src.Pixel(idx)
				require.NoError(t, err)
				have, err := got.Pixel(idx)
				require.NoError(t, err)
				assert.Equal(t, pixel.RGBA[uint8]{want[0], want[1], want[2], 255}, have, "at %v", idx)
			}
		})
	}
}

func TestWriteReadGray(t *testing.T) {
	src := grayImage(t, 7, 3)
	for _, ext := range []string{"png", "tif", "safetensors"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "gray."+ext)
			require.NoError(t, Write(path, src))

			got, err := ReadGray(path, device.CPU0)
			require.NoError(t, err)
			defer got.Release()

			want, err := src.Buffer().HostData()
			require.NoError(t, err)
			have, err := got.Buffer().HostData()
			require.NoError(t, err)
			assert.Equal(t, want, have)
		})
	}
}

func TestFromGrayConverts(t *testing.T) {
	src := stdimage.NewNRGBA(stdimage.Rect(2, 1, 4, 2))
	src.SetNRGBA(2, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	im, err := FromGray(src, device.CPU0)
	require.NoError(t, err)
	defer im.Release()

	assert.Equal(t, geometry.NewRegion(geometry.Index{2, 1}, geometry.Size{2, 1}), im.BufferedRegion())
	v, err := im.Pixel(geometry.Index{2, 1})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), v)
	v, err = im.Pixel(geometry.Index{3, 1})
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestFromGrayUsesLuma(t *testing.T) {
	colors := []color.RGBA{{R: 255, A: 255}, {G: 200, A: 255}, {R: 10, G: 20, B: 250, A: 255}}
	src := stdimage.NewRGBA(stdimage.Rect(0, 0, len(colors), 1))
	for x, c := range colors {
		src.SetRGBA(x, 0, c)
	}

	im, err := FromGray(src, device.CPU0)
	require.NoError(t, err)
	defer im.Release()
	for x, c := range colors {
		v, err := im.Pixel(geometry.Index{x, 0})
		require.NoError(t, err)
		assert.Equal(t, color.GrayModel.Convert(c).(color.Gray).Y, v, "color %v", c)
	}
}

func TestWriteVectorAsRasterFails(t *testing.T) {
	vec, err := image.New(pixel.VectorOf(2, pixel.Scalar[uint8]()), 2)
	require.NoError(t, err)
	require.NoError(t, vec.SetRegions(geometry.RegionFromSize(geometry.Size{2, 2})))
	require.NoError(t, vec.Allocate(tensor.Zeros))
	defer vec.Release()

	dir := t.TempDir()
	assert.ErrorIs(t, Write(filepath.Join(dir, "v.png"), vec), ErrUnsupportedPixel)
	assert.NoError(t, Write(filepath.Join(dir, "v.safetensors"), vec))
}

func TestWriteReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gray.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	src := grayImage(t, 5, 2)
	require.NoError(t, Write(path, src))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file left behind")
	got, err := ReadGray(path, device.CPU0)
	require.NoError(t, err)
	defer got.Release()
	assert.Equal(t, src.BufferedRegion(), got.BufferedRegion())
}

func TestEncodeUnknownFormat(t *testing.T) {
	err := encode(io.Discard, Format("gif"), stdimage.NewGray(stdimage.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
