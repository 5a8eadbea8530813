package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/torchimage/internal/geometry"
	"github.com/born-ml/torchimage/internal/image"
	"github.com/born-ml/torchimage/internal/imageio"
	"github.com/born-ml/torchimage/internal/pixel"
	"github.com/born-ml/torchimage/internal/tensor"
)

type createFlags struct {
	size       string
	pixel      string
	components int
	init       string
	fill       string
	spacing    string
	origin     string
}

func newCreateCmd(opts *options) *cobra.Command {
	f := &createFlags{}
	cmd := &cobra.Command{
		Use:   "create [flags] OUTPUT",
		Short: "Allocate an image, optionally fill it, and write it to a file",
		Long: `Create allocates an image on the configured device and writes it to OUTPUT.

The output format follows the extension: .png, .tif/.tiff and .bmp need a
2-D uint8, rgb or rgba image; .safetensors accepts any pixel type.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, opts, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.size, "size", "256,256", "comma-separated image size, first dimension fastest")
	flags.StringVar(&f.pixel, "pixel", "uint8", "pixel type: a scalar dtype, rgb, rgba, vector or covariant")
	flags.IntVar(&f.components, "components", 3, "component count of vector pixels")
	flags.StringVar(&f.init, "init", "zeros", "initializer: empty, zeros, ones, rand or randn")
	flags.StringVar(&f.fill, "fill", "", "comma-separated pixel value to fill the buffer with")
	flags.StringVar(&f.spacing, "spacing", "", "comma-separated physical spacing")
	flags.StringVar(&f.origin, "origin", "", "comma-separated physical origin")
	return cmd
}

func (f *createFlags) run(cmd *cobra.Command, opts *options, out string) error {
	switch strings.ToLower(f.pixel) {
	case "bool":
		return create(cmd, opts, f, out, pixel.Scalar[bool](), scalarFill[bool])
	case "uint8", "u8":
		return create(cmd, opts, f, out, pixel.Scalar[uint8](), scalarFill[uint8])
	case "int8", "i8":
		return create(cmd, opts, f, out, pixel.Scalar[int8](), scalarFill[int8])
	case "int16", "i16":
		return create(cmd, opts, f, out, pixel.Scalar[int16](), scalarFill[int16])
	case "int32", "i32":
		return create(cmd, opts, f, out, pixel.Scalar[int32](), scalarFill[int32])
	case "int64", "i64":
		return create(cmd, opts, f, out, pixel.Scalar[int64](), scalarFill[int64])
	case "float32", "f32":
		return create(cmd, opts, f, out, pixel.Scalar[float32](), scalarFill[float32])
	case "float64", "f64":
		return create(cmd, opts, f, out, pixel.Scalar[float64](), scalarFill[float64])
	case "rgb":
		return create(cmd, opts, f, out, pixel.RGBOf(pixel.Scalar[uint8]()), func(s []string) (pixel.RGB[uint8], error) {
			v, err := components[uint8](s, 3)
			if err != nil {
				return pixel.RGB[uint8]{}, err
			}
			return pixel.RGB[uint8](v), nil
		})
	case "rgba":
		return create(cmd, opts, f, out, pixel.RGBAOf(pixel.Scalar[uint8]()), func(s []string) (pixel.RGBA[uint8], error) {
			v, err := components[uint8](s, 4)
			if err != nil {
				return pixel.RGBA[uint8]{}, err
			}
			return pixel.RGBA[uint8](v), nil
		})
	case "vector", "covariant":
		if f.components <= 0 {
			return fmt.Errorf("--components must be positive, got %d", f.components)
		}
		n := f.components
		if strings.EqualFold(f.pixel, "covariant") {
			return create(cmd, opts, f, out, pixel.CovariantVectorOf(n, pixel.Scalar[float32]()), func(s []string) (pixel.CovariantVector[float32], error) {
				return components[float32](s, n)
			})
		}
		return create(cmd, opts, f, out, pixel.VectorOf(n, pixel.Scalar[float32]()), func(s []string) (pixel.Vector[float32], error) {
			return components[float32](s, n)
		})
	default:
		return fmt.Errorf("unknown pixel type %q", f.pixel)
	}
}

func create[P any](cmd *cobra.Command, opts *options, f *createFlags, out string, traits pixel.Traits[P], parseFill func([]string) (P, error)) error {
	size, err := parseList(f.size, strconv.Atoi)
	if err != nil {
		return fmt.Errorf("--size: %w", err)
	}
	initializer, err := tensor.ParseInitializer(f.init)
	if err != nil {
		return fmt.Errorf("--init: %w", err)
	}

	im, err := image.New(traits, len(size))
	if err != nil {
		return err
	}
	defer im.Release()

	if err := im.SetRegions(geometry.RegionFromSize(geometry.Size(size))); err != nil {
		return err
	}
	if f.spacing != "" {
		spacing, err := parseList(f.spacing, parseFloat)
		if err != nil {
			return fmt.Errorf("--spacing: %w", err)
		}
		if err := im.SetSpacing(spacing); err != nil {
			return err
		}
	}
	if f.origin != "" {
		origin, err := parseList(f.origin, parseFloat)
		if err != nil {
			return fmt.Errorf("--origin: %w", err)
		}
		if err := im.SetOrigin(origin); err != nil {
			return err
		}
	}

	dev, err := opts.cfg.ResolveDevice()
	if err != nil {
		return err
	}
	if err := im.SetDevice(dev); err != nil {
		return err
	}
	if err := im.Allocate(initializer); err != nil {
		return err
	}
	if f.fill != "" {
		v, err := parseFill(strings.Split(f.fill, ","))
		if err != nil {
			return fmt.Errorf("--fill: %w", err)
		}
		if err := im.FillBuffer(v); err != nil {
			return err
		}
	}

	if err := imageio.Write(out, im); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %s %v on %s\n", out, traits.Name(), im.BufferedRegion().Size, dev)
	return nil
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseList[T any](s string, parse func(string) (T, error)) ([]T, error) {
	parts := strings.Split(s, ",")
	out := make([]T, 0, len(parts))
	for _, p := range parts {
		v, err := parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

var errFillArity = errors.New("wrong number of fill components")

func scalarFill[T tensor.DType](s []string) (T, error) {
	if len(s) != 1 {
		var zero T
		return zero, fmt.Errorf("%w: got %d, want 1", errFillArity, len(s))
	}
	return parseScalar[T](strings.TrimSpace(s[0]))
}

func components[T tensor.DType](s []string, n int) ([]T, error) {
	if len(s) != n {
		return nil, fmt.Errorf("%w: got %d, want %d", errFillArity, len(s), n)
	}
	return parseList(strings.Join(s, ","), parseScalar[T])
}

// parseScalar parses s as a T. Numbers are parsed as float64 and converted.
func parseScalar[T tensor.DType](s string) (T, error) {
	var v T
	if p, ok := any(&v).(*bool); ok {
		b, err := strconv.ParseBool(s)
		*p = b
		return v, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return v, err
	}
	switch p := any(&v).(type) {
	case *uint8:
		*p = uint8(f)
	case *int8:
		*p = int8(f)
	case *int16:
		*p = int16(f)
	case *int32:
		*p = int32(f)
	case *int64:
		*p = int64(f)
	case *float32:
		*p = float32(f)
	case *float64:
		*p = f
	}
	return v, nil
}
