// Package image implements an N-dimensional image whose pixel buffer is a
// device-resident tensor.
//
// The tensor holds the buffered region with the index dimensions reversed,
// so that the first image axis (x) varies fastest in memory, followed by the
// pixel's own component dimensions. A 2-D RGB image of size 640x480 is a
// [480, 640, 3] tensor.
package image

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/geometry"
	"github.com/born-ml/torchimage/internal/logging"
	"github.com/born-ml/torchimage/internal/object"
	"github.com/born-ml/torchimage/internal/pixel"
	"github.com/born-ml/torchimage/internal/tensor"
)

// Errors returned by image operations.
var (
	ErrNotAllocated   = errors.New("image buffer not allocated")
	ErrOutOfBounds    = errors.New("index outside buffered region")
	ErrDimension      = errors.New("dimension mismatch")
	ErrEmptyRegion    = errors.New("buffered region is empty")
	ErrPixelMismatch  = errors.New("pixel layout mismatch")
	ErrUnsupportedDim = errors.New("image dimension must be positive")
)

// Information is the pixel-type independent part of an image.
type Information interface {
	ImageDimension() int
	LargestPossibleRegion() geometry.Region
	Frame() geometry.Frame
}

// Image is an N-dimensional image of P pixels. Create one with New. An Image
// is not safe for concurrent reconfiguration; concurrent pixel access to
// distinct pixels of an allocated image is.
type Image[P any] struct {
	object.Object

	traits pixel.Traits[P]
	dim    int

	largest   geometry.Region
	buffered  geometry.Region
	requested geometry.Region
	frame     geometry.Frame

	dev device.Device
	buf *tensor.RawTensor
}

// New returns an empty dim-dimensional image on the CPU.
func New[P any](traits pixel.Traits[P], dim int) (*Image[P], error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDim, dim)
	}
	return &Image[P]{
		traits:    traits,
		dim:       dim,
		largest:   emptyRegion(dim),
		buffered:  emptyRegion(dim),
		requested: emptyRegion(dim),
		frame:     geometry.NewFrame(dim),
		dev:       device.CPU0,
	}, nil
}

func emptyRegion(dim int) geometry.Region {
	return geometry.NewRegion(make(geometry.Index, dim), make(geometry.Size, dim))
}

// Traits returns the pixel traits of the image.
func (im *Image[P]) Traits() pixel.Traits[P] { return im.traits }

// ImageDimension returns the number of index dimensions.
func (im *Image[P]) ImageDimension() int { return im.dim }

// PixelDimension returns the number of tensor dimensions a pixel occupies.
func (im *Image[P]) PixelDimension() int { return im.traits.PixelDimension() }

// NumberOfComponentsPerPixel returns the number of top-level pixel
// components, 1 for scalar pixels.
func (im *Image[P]) NumberOfComponentsPerPixel() int { return im.traits.NumberOfComponents() }

func (im *Image[P]) checkRegion(r geometry.Region) error {
	if r.Dim() != im.dim {
		return fmt.Errorf("%w: %d-d region for %d-d image", ErrDimension, r.Dim(), im.dim)
	}
	return r.Validate()
}

// SetRegions sets the largest possible, buffered and requested regions to r.
func (im *Image[P]) SetRegions(r geometry.Region) error {
	if err := im.checkRegion(r); err != nil {
		return err
	}
	im.largest, im.buffered, im.requested = r.Clone(), r.Clone(), r.Clone()
	im.Modified()
	return nil
}

// SetLargestPossibleRegion sets the extent of the whole image.
func (im *Image[P]) SetLargestPossibleRegion(r geometry.Region) error {
	if err := im.checkRegion(r); err != nil {
		return err
	}
	im.largest = r.Clone()
	im.Modified()
	return nil
}

// SetBufferedRegion sets the region held in memory. It takes effect on the
// next Allocate.
func (im *Image[P]) SetBufferedRegion(r geometry.Region) error {
	if err := im.checkRegion(r); err != nil {
		return err
	}
	im.buffered = r.Clone()
	im.Modified()
	return nil
}

// SetRequestedRegion sets the region a downstream consumer asks for.
func (im *Image[P]) SetRequestedRegion(r geometry.Region) error {
	if err := im.checkRegion(r); err != nil {
		return err
	}
	im.requested = r.Clone()
	im.Modified()
	return nil
}

func (im *Image[P]) LargestPossibleRegion() geometry.Region { return im.largest.Clone() }
func (im *Image[P]) BufferedRegion() geometry.Region        { return im.buffered.Clone() }
func (im *Image[P]) RequestedRegion() geometry.Region       { return im.requested.Clone() }

// Frame returns a copy of the physical-space metadata.
func (im *Image[P]) Frame() geometry.Frame { return im.frame.Clone() }

// SetFrame replaces origin, spacing and direction.
func (im *Image[P]) SetFrame(f geometry.Frame) error {
	if f.Dim() != im.dim {
		return fmt.Errorf("%w: %d-d frame for %d-d image", ErrDimension, f.Dim(), im.dim)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	im.frame = f.Clone()
	im.Modified()
	return nil
}

// SetSpacing sets the physical distance between pixel centres per axis.
func (im *Image[P]) SetSpacing(spacing []float64) error {
	f := im.Frame()
	f.Spacing = slices.Clone(spacing)
	return im.SetFrame(f)
}

// SetOrigin sets the physical position of index zero.
func (im *Image[P]) SetOrigin(origin geometry.Point) error {
	f := im.Frame()
	f.Origin = slices.Clone(origin)
	return im.SetFrame(f)
}

// SetDirection sets the direction cosines of the index axes.
func (im *Image[P]) SetDirection(direction *mat.Dense) error {
	f := im.Frame()
	f.Direction = mat.DenseCopyOf(direction)
	return im.SetFrame(f)
}

func (im *Image[P]) Spacing() []float64        { return slices.Clone(im.frame.Spacing) }
func (im *Image[P]) Origin() geometry.Point    { return slices.Clone(im.frame.Origin) }
func (im *Image[P]) Direction() *mat.Dense     { return mat.DenseCopyOf(im.frame.Direction) }
func (im *Image[P]) Device() device.Device     { return im.dev }
func (im *Image[P]) Buffer() *tensor.RawTensor { return im.buf }

// CopyInformation copies the largest possible region and physical-space
// metadata of src, which may have a different pixel type.
func (im *Image[P]) CopyInformation(src Information) error {
	if src.ImageDimension() != im.dim {
		return fmt.Errorf("%w: copying %d-d information to %d-d image", ErrDimension, src.ImageDimension(), im.dim)
	}
	im.largest = src.LargestPossibleRegion()
	im.frame = src.Frame()
	im.Modified()
	return nil
}

// TransformIndexToPhysicalPoint maps an index to physical space.
func (im *Image[P]) TransformIndexToPhysicalPoint(idx geometry.Index) (geometry.Point, error) {
	return im.frame.TransformIndexToPhysicalPoint(idx)
}

// TransformPhysicalPointToIndex maps a physical point to the nearest index
// and reports whether it lies in the largest possible region.
func (im *Image[P]) TransformPhysicalPointToIndex(p geometry.Point) (geometry.Index, bool, error) {
	idx, err := im.frame.TransformPhysicalPointToIndex(p)
	if err != nil {
		return nil, false, err
	}
	return idx, im.largest.IsInside(idx), nil
}

// SetDevice moves the image to dev. An allocated buffer is copied to the
// new device. If dev cannot be opened the image is left unchanged and the
// error wraps device.ErrUnavailable.
func (im *Image[P]) SetDevice(dev device.Device) error {
	if dev == im.dev {
		return nil
	}
	if _, err := device.Open(dev); err != nil {
		logging.Logger().Warn("image device unavailable", "device", dev.String(), "keeping", im.dev.String(), "error", err)
		return err
	}
	if im.buf != nil {
		moved, err := im.buf.To(dev)
		if err != nil {
			return err
		}
		im.buf.Release()
		im.buf = moved
	}
	im.dev = dev
	im.Modified()
	return nil
}

// TorchSize returns the tensor shape of the buffered region: the region's
// size in reverse order followed by the pixel's component sizes.
func (im *Image[P]) TorchSize() tensor.Shape {
	size := im.buffered.Size
	shape := make(tensor.Shape, 0, im.dim+im.traits.PixelDimension())
	for i := len(size) - 1; i >= 0; i-- {
		shape = append(shape, size[i])
	}
	return im.traits.AppendSizes(shape)
}

// Allocate creates the pixel buffer for the buffered region on the image's
// device, initialised as init requests. An existing buffer is released.
func (im *Image[P]) Allocate(init tensor.Initializer) error {
	if im.buffered.IsEmpty() {
		return ErrEmptyRegion
	}
	buf, err := tensor.NewRawInit(im.TorchSize(), im.traits.DataType(), im.dev, init)
	if err != nil {
		return fmt.Errorf("allocate %s image: %w", im.traits.Name(), err)
	}
	im.releaseBuffer()
	im.buf = buf
	im.Modified()
	return nil
}

// Initialize releases the pixel buffer and clears the buffered region. The
// largest possible region and metadata are kept.
func (im *Image[P]) Initialize() {
	im.releaseBuffer()
	im.buffered = emptyRegion(im.dim)
	im.Modified()
}

func (im *Image[P]) releaseBuffer() {
	if im.buf != nil {
		im.buf.Release()
		im.buf = nil
	}
}

// FillBuffer sets every buffered pixel to v.
func (im *Image[P]) FillBuffer(v P) error {
	if im.buf == nil {
		return ErrNotAllocated
	}
	pattern, err := pixel.Encode(im.traits, v)
	if err != nil {
		return err
	}
	defer pattern.Release()
	if err := tensor.FillPattern(im.buf, pattern); err != nil {
		return err
	}
	im.Modified()
	return nil
}

// torchIndex converts an image index into the leading tensor index, with
// room for the pixel dimensions.
func (im *Image[P]) torchIndex(idx geometry.Index) ([]int, error) {
	if im.buf == nil {
		return nil, ErrNotAllocated
	}
	if !im.buffered.IsInside(idx) {
		return nil, fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, idx, im.buffered)
	}
	out := make([]int, im.dim, im.dim+im.traits.PixelDimension())
	for d := range im.dim {
		out[im.dim-1-d] = idx[d] - im.buffered.Index[d]
	}
	return out, nil
}

// GetPixel returns a reference to the pixel at idx. Reading and writing the
// reference goes straight to the buffer, on whichever device it lives.
func (im *Image[P]) GetPixel(idx geometry.Index) (*pixel.Ref[P], error) {
	t, err := im.torchIndex(idx)
	if err != nil {
		return nil, err
	}
	return pixel.NewRef(im.traits, im.buf, t), nil
}

// Pixel returns the value of the pixel at idx.
func (im *Image[P]) Pixel(idx geometry.Index) (P, error) {
	t, err := im.torchIndex(idx)
	if err != nil {
		var zero P
		return zero, err
	}
	return im.traits.Load(im.buf, t)
}

// SetPixel sets the pixel at idx to v.
func (im *Image[P]) SetPixel(idx geometry.Index, v P) error {
	t, err := im.torchIndex(idx)
	if err != nil {
		return err
	}
	return im.traits.Store(im.buf, t, v)
}

// Graft makes im share src's buffer, regions, metadata and device. Later
// pixel writes through either image are seen by both. Grafting nil or the
// image itself does nothing.
func (im *Image[P]) Graft(src *Image[P]) error {
	if src == nil || src == im {
		return nil
	}
	if src.dim != im.dim {
		return fmt.Errorf("%w: grafting %d-d image onto %d-d image", ErrDimension, src.dim, im.dim)
	}
	if !slices.Equal(src.traits.AppendSizes(nil), im.traits.AppendSizes(nil)) ||
		src.traits.DataType() != im.traits.DataType() {
		return fmt.Errorf("%w: %s onto %s", ErrPixelMismatch, src.traits.Name(), im.traits.Name())
	}
	var buf *tensor.RawTensor
	if src.buf != nil {
		buf = src.buf.Clone()
	}
	im.releaseBuffer()
	im.buf = buf
	im.largest = src.largest.Clone()
	im.buffered = src.buffered.Clone()
	im.requested = src.requested.Clone()
	im.frame = src.frame.Clone()
	im.dev = src.dev
	im.Modified()
	return nil
}

// Release drops the image's reference to its buffer. The storage is freed
// once every grafted image has released it too.
func (im *Image[P]) Release() {
	im.releaseBuffer()
}

func (im *Image[P]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Image<%s, %d>\n", im.traits.Name(), im.dim)
	fmt.Fprintf(&b, "  Device: %s\n", im.dev)
	fmt.Fprintf(&b, "  LargestPossibleRegion: %v\n", im.largest)
	fmt.Fprintf(&b, "  BufferedRegion: %v\n", im.buffered)
	fmt.Fprintf(&b, "  RequestedRegion: %v\n", im.requested)
	fmt.Fprintf(&b, "  Spacing: %v\n", im.frame.Spacing)
	fmt.Fprintf(&b, "  Origin: %v\n", im.frame.Origin)
	if im.buf != nil {
		fmt.Fprintf(&b, "  Tensor: %v %s\n", im.buf.Shape(), im.buf.DType())
	} else {
		b.WriteString("  Tensor: (none)\n")
	}
	fmt.Fprintf(&b, "  MTime: %d\n", im.MTime())
	return b.String()
}
