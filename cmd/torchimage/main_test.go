package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/geometry"
	"github.com/born-ml/torchimage/internal/imageio"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "torchimage v")
}

func TestDevicesListsCPU(t *testing.T) {
	out, err := run(t, "devices")
	require.NoError(t, err)
	assert.Contains(t, out, "cpu")
	assert.Contains(t, out, "webgpu:0")
}

func TestCreateAndInfoSafeTensors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vec.safetensors")
	out, err := run(t, "create", "--size", "4,3,2", "--pixel", "vector", "--components", "2",
		"--fill", "1.5,-2", "--spacing", "0.5,1,2", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Vector<float32,2>")

	out, err = run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Vector<float32,2> (float32)")
	assert.Contains(t, out, "[2 3 4 2]")
	assert.Contains(t, out, "[0.5 1 2]")
	assert.Contains(t, out, "sha256:")
}

func TestCreateAndInfoPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "red.png")
	_, err := run(t, "create", "--size", "8,5", "--pixel", "rgb", "--fill", "255,0,0", path)
	require.NoError(t, err)

	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "png")
	assert.Contains(t, out, "[8, 5]")
}

func TestCreateErrors(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		args []string
	}{
		{"unknown pixel", []string{"create", "--pixel", "complex", filepath.Join(dir, "a.safetensors")}},
		{"fill arity", []string{"create", "--pixel", "rgb", "--fill", "1,2", filepath.Join(dir, "b.png")}},
		{"bad size", []string{"create", "--size", "4,x", filepath.Join(dir, "c.png")}},
		{"rand on ints", []string{"create", "--init", "rand", filepath.Join(dir, "d.png")}},
		{"3-d png", []string{"create", "--size", "2,2,2", filepath.Join(dir, "e.png")}},
		{"unknown extension", []string{"create", filepath.Join(dir, "f.xyz")}},
		{"bad log level", []string{"--log-level", "loud", "version"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"device": "cuda:0", "fallback_to_cpu": true}`), 0o600))

	// cuda:0 falls back to the CPU on machines without a driver.
	out, err := run(t, "--config", cfgPath, "create", "--size", "2,2", filepath.Join(dir, "g.safetensors"))
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	_, err = run(t, "--config", filepath.Join(dir, "missing.json"), "version")
	assert.Error(t, err)
}

func TestThreshold(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	_, err := run(t, "create", "--size", "16,12", "--fill", "200", in)
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.json")
	cfg := `{"parallel": {"enabled": true, "num_workers": 3, "min_chunk_size": 16}}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	for _, tc := range []struct {
		name  string
		flags []string
		want  uint8
	}{
		{"inside", []string{"--lower", "150"}, 255},
		{"outside", []string{"--lower", "201", "--outside", "7"}, 7},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := filepath.Join(dir, tc.name+".png")
			args := append([]string{"--config", cfgPath, "threshold"}, tc.flags...)
			_, err := run(t, append(args, in, out)...)
			require.NoError(t, err)

			im, err := imageio.ReadGray(out, device.CPU0)
			require.NoError(t, err)
			defer im.Release()
			assert.Equal(t, geometry.Size{16, 12}, im.BufferedRegion().Size)
			for _, idx := range []geometry.Index{{0, 0}, {15, 11}, {7, 5}} {
				v, err := im.Pixel(idx)
				require.NoError(t, err)
				assert.Equal(t, tc.want, v, "at %v", idx)
			}
		})
	}

	_, err = run(t, "threshold", "--lower", "9", "--upper", "3", in, filepath.Join(dir, "x.png"))
	assert.Error(t, err)
}
