// Package config holds runtime settings for the torchimage tools.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/logging"
	"github.com/born-ml/torchimage/internal/parallel"
	"github.com/born-ml/torchimage/internal/serialization"
)

// Config holds the configuration for device selection, logging, threading
// and file reading.
type Config struct {
	Device        string              `json:"device"`          // e.g., "cpu", "cuda:1", "webgpu"
	FallbackToCPU bool                `json:"fallback_to_cpu"` // use the CPU when Device is unavailable
	LogLevel      string              `json:"log_level"`       // debug, info, warn, error or off
	Parallel      parallel.Config     `json:"parallel"`
	Serialization SerializationConfig `json:"serialization"`
}

// SerializationConfig configures SafeTensors reading.
type SerializationConfig struct {
	Validation   string `json:"validation"` // strict, normal or none
	SkipChecksum bool   `json:"skip_checksum"`
	DisableMmap  bool   `json:"disable_mmap"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Device:        "cpu",
		FallbackToCPU: true,
		LogLevel:      "off",
		Parallel:      parallel.DefaultConfig(),
		Serialization: SerializationConfig{
			Validation: "strict",
		},
	}
}

// Load reads a JSON configuration file. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: config path comes from the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// Validate checks every field that has a restricted set of values.
func (c *Config) Validate() error {
	if _, err := device.Parse(c.Device); err != nil {
		return err
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if _, err := c.validationLevel(); err != nil {
		return err
	}
	if c.Parallel.NumWorkers < 0 || c.Parallel.MinChunkSize < 0 {
		return fmt.Errorf("parallel: negative worker count or chunk size")
	}
	return nil
}

// ResolveDevice parses Device and checks that it can be opened. When it
// cannot and FallbackToCPU is set, the CPU is returned instead.
func (c *Config) ResolveDevice() (device.Device, error) {
	dev, err := device.Parse(c.Device)
	if err != nil {
		return device.Device{}, err
	}
	if _, err := device.Open(dev); err != nil {
		if !c.FallbackToCPU {
			return device.Device{}, err
		}
		logging.Logger().Warn("falling back to cpu", "device", dev.String(), "error", err)
		return device.CPU0, nil
	}
	return dev, nil
}

// level maps LogLevel to a slog level. "off" maps above LevelError.
func (c *Config) level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "", "off":
		return slog.LevelError + 1, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}

// NewLogger returns a text logger writing to w at LogLevel, or nil when
// logging is off.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	switch strings.ToLower(c.LogLevel) {
	case "", "off":
		return nil
	}
	lvl, err := c.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func (c *Config) validationLevel() (serialization.ValidationLevel, error) {
	switch strings.ToLower(c.Serialization.Validation) {
	case "", "strict":
		return serialization.ValidationStrict, nil
	case "normal":
		return serialization.ValidationNormal, nil
	case "none":
		return serialization.ValidationNone, nil
	default:
		return 0, fmt.Errorf("unknown validation level %q", c.Serialization.Validation)
	}
}

// ReaderOptions returns the SafeTensors reader options.
func (c *Config) ReaderOptions() serialization.ReaderOptions {
	lvl, err := c.validationLevel()
	if err != nil {
		lvl = serialization.ValidationStrict
	}
	return serialization.ReaderOptions{
		SkipChecksumValidation: c.Serialization.SkipChecksum,
		ValidationLevel:        lvl,
		DisableMmap:            c.Serialization.DisableMmap,
	}
}
