package imageio

import (
	"bufio"
	"errors"
	"fmt"
	stdimage "image"
	_ "image/jpeg" // decode only
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/image"
	"github.com/born-ml/torchimage/internal/logging"
	"github.com/born-ml/torchimage/internal/pixel"
	"github.com/born-ml/torchimage/internal/serialization"
)

// ErrUnknownFormat is returned for file extensions with no writer.
var ErrUnknownFormat = errors.New("unknown image file format")

// Format is an output file format.
type Format string

// Supported formats.
const (
	PNG         Format = "png"
	TIFF        Format = "tiff"
	BMP         Format = "bmp"
	SafeTensors Format = "safetensors"
)

// FormatOf returns the format implied by a path's extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "png":
		return PNG, nil
	case "tif", "tiff":
		return TIFF, nil
	case "bmp":
		return BMP, nil
	case "safetensors":
		return SafeTensors, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// Write saves im to path in the format implied by its extension. Any image
// can be written as SafeTensors; raster formats need a 2-D uint8, RGB[uint8]
// or RGBA[uint8] image. A failed write leaves any existing file at path
// unchanged.
func Write[P any](path string, im *image.Image[P]) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if format == SafeTensors {
		return serialization.WriteImage(path, im)
	}

	raster, err := ToStdImage(im)
	if err != nil {
		return err
	}

	err = serialization.WriteAtomic(path, func(w io.Writer) error {
		if err := encode(w, format, raster); err != nil {
			return fmt.Errorf("encode %s: %w", format, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logging.Logger().Debug("image written", "path", path, "format", string(format), "bounds", raster.Bounds().String())
	return nil
}

func encode(w io.Writer, format Format, raster stdimage.Image) error {
	switch format {
	case PNG:
		return png.Encode(w, raster)
	case TIFF:
		return tiff.Encode(w, raster, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case BMP:
		return bmp.Encode(w, raster)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Decode reads a PNG, TIFF, BMP or JPEG raster.
func Decode(path string) (stdimage.Image, string, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for loading
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, format, err := stdimage.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return img, format, nil
}

// ReadGray reads a raster file as a grayscale image on dev. SafeTensors
// files written from uint8 images are read directly.
func ReadGray(path string, dev device.Device) (*image.Image[uint8], error) {
	if format, _ := FormatOf(path); format == SafeTensors {
		return serialization.ReadImage(path, pixel.Scalar[uint8](), dev)
	}
	img, _, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return FromGray(img, dev)
}

// ReadRGBA reads a raster file as an RGBA image on dev.
func ReadRGBA(path string, dev device.Device) (*image.Image[pixel.RGBA[uint8]], error) {
	if format, _ := FormatOf(path); format == SafeTensors {
		return serialization.ReadImage(path, pixel.RGBAOf(pixel.Scalar[uint8]()), dev)
	}
	img, _, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return FromRGBA(img, dev)
}
