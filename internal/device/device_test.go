package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceString(t *testing.T) {
	assert.Equal(t, "cpu", CPU0.String())
	assert.Equal(t, "cuda:0", CUDADevice(0).String())
	assert.Equal(t, "cuda:3", CUDADevice(3).String())
	assert.Equal(t, "webgpu:0", WebGPUDevice(0).String())
	assert.Equal(t, "kind(9)", Kind(9).String())
	assert.False(t, CPU0.IsGPU())
	assert.True(t, CUDADevice(1).IsGPU())
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Device
	}{
		{"cpu", CPU0},
		{"CPU", CPU0},
		{"cpu:0", CPU0},
		{"cuda", CUDADevice(0)},
		{"cuda:2", CUDADevice(2)},
		{" webgpu ", WebGPUDevice(0)},
		{"wgpu:0", WebGPUDevice(0)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"tpu", "cuda:x", "cuda:-1", "cpu:1", ""} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestOpenCPU(t *testing.T) {
	a, err := Open(CPU0)
	require.NoError(t, err)
	assert.Equal(t, CPU0, a.Device())
	assert.True(t, Available(CPU0))

	_, err = Open(Device{Kind: CPU, Ordinal: 1})
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open(Device{Kind: Kind(42)})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHostStorage(t *testing.T) {
	s, err := Alloc(CPU0, 8)
	require.NoError(t, err)
	defer s.Free()

	assert.Equal(t, 8, s.ByteLen())
	assert.Equal(t, make([]byte, 8), s.Bytes(), "host memory starts zeroed")

	require.NoError(t, s.WriteAt([]byte{1, 2, 3}, 2))
	dst := make([]byte, 4)
	require.NoError(t, s.ReadAt(dst, 1))
	assert.Equal(t, []byte{0, 1, 2, 3}, dst)

	assert.Error(t, s.WriteAt([]byte{1, 2}, 7))
	assert.Error(t, s.ReadAt(dst, -1))
}

func TestHostStorageAfterFree(t *testing.T) {
	s, err := Alloc(CPU0, 8)
	require.NoError(t, err)
	s.Free()

	assert.Zero(t, s.ByteLen())
	assert.Nil(t, s.Bytes())
	assert.Error(t, s.ReadAt(make([]byte, 1), 0))
	assert.Error(t, s.WriteAt([]byte{1}, 0))
}

func TestHostFill(t *testing.T) {
	s, err := Alloc(CPU0, 9)
	require.NoError(t, err)

	require.NoError(t, s.Fill([]byte{7, 8, 9}))
	assert.Equal(t, []byte{7, 8, 9, 7, 8, 9, 7, 8, 9}, s.Bytes())

	assert.Error(t, s.Fill([]byte{1, 2}), "pattern must tile the buffer")
	assert.Error(t, s.Fill(nil))
}

func TestTile(t *testing.T) {
	dst := make([]byte, 7)
	tile(dst, []byte{1, 2})
	assert.Equal(t, []byte{1, 2, 1, 2, 1, 2, 1}, dst)

	tile(nil, []byte{1})
}

func TestUniformByte(t *testing.T) {
	b, ok := uniformByte([]byte{4, 4, 4})
	assert.True(t, ok)
	assert.Equal(t, byte(4), b)

	_, ok = uniformByte([]byte{4, 5})
	assert.False(t, ok)
}

// chunkRecorder is a storage without host bytes, standing in for a GPU buffer.
type chunkRecorder struct {
	data   []byte
	writes int
}

func (c *chunkRecorder) Device() Device { return CUDADevice(0) }
func (c *chunkRecorder) ByteLen() int   { return len(c.data) }
func (c *chunkRecorder) Bytes() []byte  { return nil }
func (c *chunkRecorder) ReadAt(dst []byte, off int) error {
	if err := checkRange(c, len(dst), off); err != nil {
		return err
	}
	copy(dst, c.data[off:])
	return nil
}
func (c *chunkRecorder) WriteAt(src []byte, off int) error {
	if err := checkRange(c, len(src), off); err != nil {
		return err
	}
	c.writes++
	copy(c.data[off:], src)
	return nil
}
func (c *chunkRecorder) Fill(pattern []byte) error { return fillStaged(c, pattern) }
func (c *chunkRecorder) Free()                     {}

func TestFillStaged(t *testing.T) {
	c := &chunkRecorder{data: make([]byte, 3*stagingChunk)}
	require.NoError(t, c.Fill([]byte{1, 2, 3, 4}))
	assert.Equal(t, 3, c.writes)
	for i, b := range c.data {
		if b != byte(i%4+1) {
			t.Fatalf("byte %d = %d, want %d", i, b, i%4+1)
		}
	}
}

func TestCopyBetweenStorages(t *testing.T) {
	src, err := Alloc(CPU0, 6)
	require.NoError(t, err)
	require.NoError(t, src.WriteAt([]byte{1, 2, 3, 4, 5, 6}, 0))

	gpu := &chunkRecorder{data: make([]byte, 6)}
	require.NoError(t, Copy(gpu, src))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, gpu.data)

	gpu2 := &chunkRecorder{data: make([]byte, 6)}
	require.NoError(t, Copy(gpu2, gpu))
	assert.Equal(t, gpu.data, gpu2.data)

	back, err := Alloc(CPU0, 6)
	require.NoError(t, err)
	require.NoError(t, Copy(back, gpu2))
	assert.Equal(t, src.Bytes(), back.Bytes())

	short, err := Alloc(CPU0, 2)
	require.NoError(t, err)
	assert.Error(t, Copy(short, src))
}

func TestCUDAWhenAvailable(t *testing.T) {
	if !Available(CUDADevice(0)) {
		t.Skip("no CUDA device")
	}
	s, err := Alloc(CUDADevice(0), 12)
	require.NoError(t, err)
	defer s.Free()

	assert.Nil(t, s.Bytes())
	require.NoError(t, s.Fill([]byte{0xAB}))
	require.NoError(t, s.WriteAt([]byte{1, 2, 3}, 5))
	got := make([]byte, 12)
	require.NoError(t, s.ReadAt(got, 0))
	assert.Equal(t, []byte{0xAB, 0xAB, 0xAB, 0xAB, 0xAB, 1, 2, 3, 0xAB, 0xAB, 0xAB, 0xAB}, got)
}

func TestHostInfo(t *testing.T) {
	h := Host()
	assert.NotEmpty(t, h.Arch)
	assert.Positive(t, h.NumCPU)
	assert.Contains(t, h.String(), h.Arch)
}
