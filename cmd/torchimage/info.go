package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/born-ml/torchimage/internal/imageio"
	"github.com/born-ml/torchimage/internal/serialization"
)

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Describe an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			format, err := imageio.FormatOf(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format == imageio.SafeTensors {
				return describeSafeTensors(out, path, opts.cfg.ReaderOptions())
			}
			raster, kind, err := imageio.Decode(path)
			if err != nil {
				return err
			}
			b := raster.Bounds()
			fmt.Fprintf(out, "format:     %s\n", kind)
			fmt.Fprintf(out, "size:       [%d, %d]\n", b.Dx(), b.Dy())
			fmt.Fprintf(out, "bounds:     %s\n", b)
			return nil
		},
	}
}

func describeSafeTensors(out io.Writer, path string, ro serialization.ReaderOptions) error {
	f, err := serialization.OpenWithOptions(path, ro)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := serialization.ReadImageInfo(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "format:     %s\n", serialization.FormatName)
	fmt.Fprintf(out, "pixel:      %s (%s)\n", info.PixelType, info.DType)
	fmt.Fprintf(out, "tensor:     %v\n", info.Shape)
	fmt.Fprintf(out, "largest:    %s\n", info.Largest)
	fmt.Fprintf(out, "buffered:   %s\n", info.Buffered)
	fmt.Fprintf(out, "spacing:    %v\n", info.Frame.Spacing)
	fmt.Fprintf(out, "origin:     %v\n", info.Frame.Origin)
	if info.Checksum != "" {
		fmt.Fprintf(out, "sha256:     %s\n", info.Checksum)
	}
	return nil
}
