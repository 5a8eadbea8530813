package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/serialization"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "cpu", cfg.Device)
	assert.Nil(t, cfg.NewLogger(&bytes.Buffer{}))

	dev, err := cfg.ResolveDevice()
	require.NoError(t, err)
	assert.Equal(t, device.CPU0, dev)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"device": "cuda:1",
		"log_level": "debug",
		"parallel": {"enabled": false},
		"serialization": {"validation": "normal", "disable_mmap": true}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cuda:1", cfg.Device)
	assert.True(t, cfg.FallbackToCPU, "kept default")
	assert.False(t, cfg.Parallel.Enabled)
	assert.Equal(t, DefaultConfig().Parallel.NumWorkers, cfg.Parallel.NumWorkers)

	opts := cfg.ReaderOptions()
	assert.Equal(t, serialization.ValidationNormal, opts.ValidationLevel)
	assert.True(t, opts.DisableMmap)
	assert.False(t, opts.SkipChecksumValidation)

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	require.NotNil(t, logger)
	logger.Debug("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestLoadRejects(t *testing.T) {
	for name, body := range map[string]string{
		"syntax":     `{"device": }`,
		"device":     `{"device": "tpu"}`,
		"log level":  `{"log_level": "chatty"}`,
		"validation": `{"serialization": {"validation": "lax"}}`,
		"workers":    `{"parallel": {"num_workers": -1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveDeviceFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = "cuda:1048576"

	dev, err := cfg.ResolveDevice()
	require.NoError(t, err)
	assert.Equal(t, device.CPU0, dev)

	cfg.FallbackToCPU = false
	_, err = cfg.ResolveDevice()
	assert.ErrorIs(t, err, device.ErrUnavailable)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"
	var buf bytes.Buffer
	require.NoError(t, cfg.Save(&buf))

	got, err := Load(writeConfig(t, buf.String()))
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
