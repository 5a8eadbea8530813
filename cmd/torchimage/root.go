package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/born-ml/torchimage"
	"github.com/born-ml/torchimage/internal/config"
	"github.com/born-ml/torchimage/internal/device"
)

// options are the flags shared by every command.
type options struct {
	configPath string
	device     string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "torchimage",
		Short:         "Create and inspect device-backed images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "JSON configuration file")
	root.PersistentFlags().StringVar(&opts.device, "device", "", "device to use (cpu, cuda[:n], webgpu)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error, off)")

	root.AddCommand(
		newVersionCmd(),
		newDevicesCmd(),
		newCreateCmd(opts),
		newInfoCmd(opts),
		newThresholdCmd(opts),
	)
	return root
}

// load builds the effective configuration: defaults, then the config file,
// then flags that were set explicitly.
func (o *options) load(cmd *cobra.Command) error {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device = o.device
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	torchimage.SetLogger(cfg.NewLogger(cmd.ErrOrStderr()))
	o.cfg = cfg
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "torchimage %s (%s, %s/%s)\n", torchimage.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available devices",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %s\n", device.CPU0, device.Host())

			n, err := device.CUDADeviceCount()
			if err != nil {
				fmt.Fprintf(out, "%-10s unavailable: %v\n", "cuda", err)
			}
			for i := range n {
				name, err := device.CUDADeviceName(i)
				if err != nil {
					name = "unknown (" + err.Error() + ")"
				}
				fmt.Fprintf(out, "%-10s %s\n", device.CUDADevice(i), name)
			}

			wgpu := device.WebGPUDevice(0)
			if device.Available(wgpu) {
				fmt.Fprintf(out, "%-10s available\n", wgpu)
			} else {
				fmt.Fprintf(out, "%-10s unavailable\n", wgpu)
			}
		},
	}
}
