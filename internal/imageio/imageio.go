// Package imageio converts 2-D images to and from raster files.
//
// Supported pixel types are uint8 (grayscale), RGB[uint8] and RGBA[uint8].
// Row y of a raster is index (x, y) of the image, so a W x H raster is an
// image of size (W, H) whose tensor shape is [H, W] or [H, W, C].
package imageio

import (
	"errors"
	"fmt"
	stdimage "image"

	xdraw "golang.org/x/image/draw"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/geometry"
	"github.com/born-ml/torchimage/internal/image"
	"github.com/born-ml/torchimage/internal/pixel"
	"github.com/born-ml/torchimage/internal/tensor"
)

// Errors returned by conversions.
var (
	ErrUnsupportedPixel = errors.New("pixel type has no raster representation")
	ErrNot2D            = errors.New("raster images must be 2-D")
)

// ToStdImage copies the buffered region of a 2-D uint8, RGB[uint8] or
// RGBA[uint8] image into a standard library image. The raster's bounds are
// the buffered region.
func ToStdImage[P any](im *image.Image[P]) (stdimage.Image, error) {
	if im.ImageDimension() != 2 {
		return nil, fmt.Errorf("%w: got %d-d", ErrNot2D, im.ImageDimension())
	}
	buf := im.Buffer()
	if buf == nil {
		return nil, image.ErrNotAllocated
	}
	r := im.BufferedRegion()
	bounds := stdimage.Rect(r.Index[0], r.Index[1], r.Index[0]+r.Size[0], r.Index[1]+r.Size[1])

	switch any(im).(type) {
	case *image.Image[uint8]:
		data, err := buf.HostData()
		if err != nil {
			return nil, err
		}
		return &stdimage.Gray{Pix: data, Stride: r.Size[0], Rect: bounds}, nil
	case *image.Image[pixel.RGBA[uint8]]:
		data, err := buf.HostData()
		if err != nil {
			return nil, err
		}
		return &stdimage.NRGBA{Pix: data, Stride: 4 * r.Size[0], Rect: bounds}, nil
	case *image.Image[pixel.RGB[uint8]]:
		data, err := buf.HostData()
		if err != nil {
			return nil, err
		}
		out := stdimage.NewNRGBA(bounds)
		for i, j := 0, 0; i < len(data); i, j = i+3, j+4 {
			copy(out.Pix[j:j+3], data[i:i+3])
			out.Pix[j+3] = 0xff
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPixel, im.Traits().Name())
	}
}

// regionOf returns the image region covering a raster's bounds.
func regionOf(b stdimage.Rectangle) geometry.Region {
	return geometry.NewRegion(geometry.Index{b.Min.X, b.Min.Y}, geometry.Size{b.Dx(), b.Dy()})
}

func newImage[P any](traits pixel.Traits[P], b stdimage.Rectangle, dev device.Device, data []byte) (*image.Image[P], error) {
	if b.Empty() {
		return nil, fmt.Errorf("empty raster %v", b)
	}
	im, err := image.New(traits, 2)
	if err != nil {
		return nil, err
	}
	if err := im.SetRegions(regionOf(b)); err != nil {
		return nil, err
	}
	if err := im.SetDevice(dev); err != nil {
		return nil, err
	}
	if err := im.Allocate(tensor.Empty); err != nil {
		return nil, err
	}
	if err := im.Buffer().SetHostData(data); err != nil {
		im.Release()
		return nil, err
	}
	return im, nil
}

// FromGray converts any raster to a grayscale image on dev.
func FromGray(src stdimage.Image, dev device.Device) (*image.Image[uint8], error) {
	b := src.Bounds()
	g, ok := src.(*stdimage.Gray)
	if !ok || g.Stride != b.Dx() {
		g = stdimage.NewGray(b)
		xdraw.Copy(g, b.Min, src, b, xdraw.Src, nil)
	}
	return newImage(pixel.Scalar[uint8](), b, dev, g.Pix[:b.Dx()*b.Dy()])
}

// FromRGBA converts any raster to an RGBA image with non-premultiplied alpha
// on dev.
func FromRGBA(src stdimage.Image, dev device.Device) (*image.Image[pixel.RGBA[uint8]], error) {
	b := src.Bounds()
	n, ok := src.(*stdimage.NRGBA)
	if !ok || n.Stride != 4*b.Dx() {
		n = stdimage.NewNRGBA(b)
		xdraw.Copy(n, b.Min, src, b, xdraw.Src, nil)
	}
	return newImage(pixel.RGBAOf(pixel.Scalar[uint8]()), b, dev, n.Pix[:4*b.Dx()*b.Dy()])
}
