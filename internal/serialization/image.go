package serialization

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/geometry"
	"github.com/born-ml/torchimage/internal/image"
	"github.com/born-ml/torchimage/internal/pixel"
	"github.com/born-ml/torchimage/internal/tensor"
)

// PixelsTensor is the name of the tensor holding an image's buffer.
const PixelsTensor = "pixels"

// FormatName identifies image files in the "format" metadata entry.
const FormatName = "torchimage"

// Metadata keys of image files. Values other than strings are JSON encoded.
const (
	MetaFormat         = "format"
	MetaPixelType      = "pixel_type"
	MetaDimension      = "dimension"
	MetaLargestIndex   = "largest_index"
	MetaLargestSize    = "largest_size"
	MetaBufferedIndex  = "buffered_index"
	MetaBufferedSize   = "buffered_size"
	MetaSpacing        = "spacing"
	MetaOrigin         = "origin"
	MetaDirection      = "direction" // row-major
	MetaPixelsChecksum = "pixels_sha256"
)

// ImageInfo is the image description stored alongside the pixels.
type ImageInfo struct {
	PixelType string
	DType     tensor.DataType
	Shape     tensor.Shape
	Largest   geometry.Region
	Buffered  geometry.Region
	Frame     geometry.Frame
	Checksum  string
}

// WriteImage writes the buffered pixels and information of im to path.
func WriteImage[P any](path string, im *image.Image[P]) error {
	buf := im.Buffer()
	if buf == nil {
		return image.ErrNotAllocated
	}
	data, err := buf.HostData()
	if err != nil {
		return err
	}
	meta, err := imageMetadata(im, ChecksumString(data))
	if err != nil {
		return err
	}
	return WriteFile(path, map[string]*tensor.RawTensor{PixelsTensor: buf}, meta)
}

func imageMetadata[P any](im *image.Image[P], checksum string) (map[string]string, error) {
	f := im.Frame()
	largest, buffered := im.LargestPossibleRegion(), im.BufferedRegion()
	meta := map[string]string{
		MetaFormat:         FormatName,
		MetaPixelType:      im.Traits().Name(),
		MetaDimension:      strconv.Itoa(im.ImageDimension()),
		MetaPixelsChecksum: checksum,
	}
	values := map[string]any{
		MetaLargestIndex:  largest.Index,
		MetaLargestSize:   largest.Size,
		MetaBufferedIndex: buffered.Index,
		MetaBufferedSize:  buffered.Size,
		MetaSpacing:       f.Spacing,
		MetaOrigin:        f.Origin,
		MetaDirection:     f.Direction.RawMatrix().Data,
	}
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		meta[k] = string(b)
	}
	return meta, nil
}

// ReadImageInfo decodes the image description of an open file without
// loading pixels.
func ReadImageInfo(f *File) (ImageInfo, error) {
	meta := f.Metadata()
	if meta[MetaFormat] != FormatName {
		return ImageInfo{}, fmt.Errorf("%w: not a %s file (format %q)", ErrInvalidHeader, FormatName, meta[MetaFormat])
	}
	entry, err := f.TensorInfo(PixelsTensor)
	if err != nil {
		return ImageInfo{}, err
	}
	dt, ok := safeTensorsToDtype(entry.DType)
	if !ok {
		return ImageInfo{}, fmt.Errorf("%w: %s", ErrUnknownDType, entry.DType)
	}
	dim, err := strconv.Atoi(meta[MetaDimension])
	if err != nil || dim <= 0 {
		return ImageInfo{}, fmt.Errorf("%w: dimension %q", ErrInvalidHeader, meta[MetaDimension])
	}

	info := ImageInfo{
		PixelType: meta[MetaPixelType],
		DType:     dt,
		Frame:     geometry.NewFrame(dim),
		Checksum:  meta[MetaPixelsChecksum],
	}
	for _, d := range entry.Shape {
		info.Shape = append(info.Shape, int(d))
	}
	var direction []float64
	fields := []struct {
		key string
		dst any
	}{
		{MetaLargestIndex, &info.Largest.Index},
		{MetaLargestSize, &info.Largest.Size},
		{MetaBufferedIndex, &info.Buffered.Index},
		{MetaBufferedSize, &info.Buffered.Size},
		{MetaSpacing, &info.Frame.Spacing},
		{MetaOrigin, &info.Frame.Origin},
		{MetaDirection, &direction},
	}
	for _, fd := range fields {
		if err := json.Unmarshal([]byte(meta[fd.key]), fd.dst); err != nil {
			return ImageInfo{}, fmt.Errorf("%w: %s: %w", ErrInvalidHeader, fd.key, err)
		}
	}
	if len(direction) != dim*dim {
		return ImageInfo{}, fmt.Errorf("%w: direction has %d entries for %d-d image", ErrInvalidHeader, len(direction), dim)
	}
	info.Frame.Direction = mat.NewDense(dim, dim, direction)

	for _, r := range []geometry.Region{info.Largest, info.Buffered} {
		if r.Dim() != dim {
			return ImageInfo{}, fmt.Errorf("%w: %d-d region in %d-d image", ErrInvalidHeader, r.Dim(), dim)
		}
		if err := r.Validate(); err != nil {
			return ImageInfo{}, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
		}
	}
	if err := info.Frame.Validate(); err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	return info, nil
}

// ReadImage reads an image written by WriteImage onto dev. The file's pixel
// type must match traits.
func ReadImage[P any](path string, traits pixel.Traits[P], dev device.Device) (*image.Image[P], error) {
	return ReadImageWithOptions(path, traits, dev, ReaderOptions{ValidationLevel: ValidationStrict})
}

// ReadImageWithOptions is ReadImage with custom reader options.
func ReadImageWithOptions[P any](path string, traits pixel.Traits[P], dev device.Device, opts ReaderOptions) (*image.Image[P], error) {
	f, err := OpenWithOptions(path, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	info, err := ReadImageInfo(f)
	if err != nil {
		return nil, err
	}
	if info.PixelType != traits.Name() || info.DType != traits.DataType() {
		return nil, fmt.Errorf("%w: file holds %s (%s), want %s", ErrPixelType, info.PixelType, info.DType, traits.Name())
	}

	im, err := image.New(traits, info.Frame.Dim())
	if err != nil {
		return nil, err
	}
	if err := im.SetLargestPossibleRegion(info.Largest); err != nil {
		return nil, err
	}
	if err := im.SetBufferedRegion(info.Buffered); err != nil {
		return nil, err
	}
	if err := im.SetRequestedRegion(info.Buffered); err != nil {
		return nil, err
	}
	if err := im.SetFrame(info.Frame); err != nil {
		return nil, err
	}
	if !im.TorchSize().Equal(info.Shape) {
		return nil, fmt.Errorf("%w: pixels tensor %v, image needs %v", ErrInvalidHeader, info.Shape, im.TorchSize())
	}

	data, err := f.TensorData(PixelsTensor)
	if err != nil {
		return nil, err
	}
	if !opts.SkipChecksumValidation && info.Checksum != "" {
		if err := ValidateChecksum(data, info.Checksum); err != nil {
			return nil, err
		}
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
