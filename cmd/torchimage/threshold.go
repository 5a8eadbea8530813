package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/torchimage"
	"github.com/born-ml/torchimage/internal/filter"
	"github.com/born-ml/torchimage/internal/imageio"
	"github.com/born-ml/torchimage/internal/object"
	"github.com/born-ml/torchimage/internal/pixel"
)

func newThresholdCmd(opts *options) *cobra.Command {
	var lower, upper, inside, outside uint8
	cmd := &cobra.Command{
		Use:   "threshold [flags] INPUT OUTPUT",
		Short: "Binarize a grayscale image",
		Long: `Threshold reads INPUT as 8-bit grayscale and writes OUTPUT, setting pixels
within [lower, upper] to the inside value and all others to the outside value.
Work is split across workers per the "parallel" section of the config.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if lower > upper {
				return fmt.Errorf("--lower %d is above --upper %d", lower, upper)
			}
			dev, err := opts.cfg.ResolveDevice()
			if err != nil {
				return err
			}
			in, err := imageio.ReadGray(args[0], dev)
			if err != nil {
				return err
			}
			defer in.Release()

			f := filter.NewUnaryFunctorWithConfig(pixel.Scalar[uint8](), func(v uint8) uint8 {
				if v >= lower && v <= upper {
					return inside
				}
				return outside
			}, opts.cfg.Parallel)
			f.AddObserver(object.ProgressEvent, func(e object.Event) {
				torchimage.Logger().Debug("threshold progress", "done", e.Progress)
			})

			out, err := f.Run(cmd.Context(), in)
			if err != nil {
				return err
			}
			defer out.Release()
			if err := imageio.Write(args[1], out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %v on %s\n", args[1], out.BufferedRegion().Size, dev)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.Uint8Var(&lower, "lower", 128, "lowest value mapped to --inside")
	flags.Uint8Var(&upper, "upper", 255, "highest value mapped to --inside")
	flags.Uint8Var(&inside, "inside", 255, "value for pixels within [lower, upper]")
	flags.Uint8Var(&outside, "outside", 0, "value for other pixels")
	return cmd
}
