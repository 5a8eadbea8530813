package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/logging"
	"github.com/born-ml/torchimage/internal/tensor"
)

// ReaderOptions configures how files are opened.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
	DisableMmap            bool            // Read the whole file instead of mapping it
}

// File is an open SafeTensors file. Tensor data is accessed on demand from a
// read-only memory mapping where the platform supports it.
type File struct {
	data       []byte
	mapped     bool
	header     Header
	dataOffset int64
	opts       ReaderOptions
	closed     bool
}

// Open opens a SafeTensors file with strict validation.
func Open(path string) (*File, error) {
	return OpenWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// OpenWithOptions opens a SafeTensors file with custom options.
//
// Important: always Close the file; slices from TensorData are invalid after.
func OpenWithOptions(path string, opts ReaderOptions) (*File, error) {
	data, mapped, err := load(path, opts.DisableMmap)
	if err != nil {
		return nil, err
	}
	f := &File{data: data, mapped: mapped, opts: opts}
	if err := f.parse(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes SafeTensors bytes held in memory. The returned File
// references data; Close is a no-op for it.
func Parse(data []byte, opts ReaderOptions) (*File, error) {
	f := &File{data: data, opts: opts}
	if err := f.parse(); err != nil {
		return nil, err
	}
	return f, nil
}

func load(path string, noMmap bool) ([]byte, bool, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for loading
	file, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }() // a mapping outlives the descriptor

	stat, err := file.Stat()
	if err != nil {
		return nil, false, fmt.Errorf("failed to stat file: %w", err)
	}
	if !noMmap && stat.Size() > 0 {
		data, err := mmapFile(file, stat.Size())
		if err == nil {
			return data, true, nil
		}
		logging.Logger().Debug("mmap failed, reading file", "path", path, "error", err)
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: see above
	if err != nil {
		return nil, false, fmt.Errorf("failed to read file: %w", err)
	}
	return data, false, nil
}

func (f *File) parse() error {
	if len(f.data) < HeaderSizeBytes {
		return fmt.Errorf("%w: file too small: %d bytes", ErrInvalidHeader, len(f.data))
	}
	headerSize := binary.LittleEndian.Uint64(f.data[:HeaderSizeBytes])
	if headerSize > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	if headerSize > uint64(len(f.data)-HeaderSizeBytes) {
		return fmt.Errorf("%w: header size %d exceeds file size %d", ErrInvalidHeader, headerSize, len(f.data))
	}
	f.dataOffset = HeaderSizeBytes + int64(headerSize) //nolint:gosec // G115: bounded by file size

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(f.data[HeaderSizeBytes:f.dataOffset], &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}

	f.header = Header{Tensors: make(map[string]TensorEntry, len(raw))}
	for name, msg := range raw {
		if name == MetadataKey {
			if len(msg) > MaxMetadataSize {
				return fmt.Errorf("%w: metadata is %d bytes", ErrHeaderTooLarge, len(msg))
			}
			if err := json.Unmarshal(msg, &f.header.Metadata); err != nil {
				return fmt.Errorf("%w: metadata: %w", ErrInvalidHeader, err)
			}
			continue
		}
		var e TensorEntry
		if err := json.Unmarshal(msg, &e); err != nil {
			return fmt.Errorf("%w: tensor %q: %w", ErrInvalidHeader, name, err)
		}
		f.header.Tensors[name] = e
	}

	return ValidateHeader(&f.header, int64(len(f.data))-f.dataOffset, f.opts.ValidationLevel)
}

// Close releases the file's memory mapping.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.mapped {
		return munmapFile(f.data)
	}
	return nil
}

// Header returns the decoded header.
func (f *File) Header() Header { return f.header }

// Metadata returns the "__metadata__" map, which may be nil.
func (f *File) Metadata() map[string]string { return f.header.Metadata }

// TensorNames returns the tensor names in alphabetical order.
func (f *File) TensorNames() []string {
	return slices.Sorted(maps.Keys(f.header.Tensors))
}

// TensorInfo returns the header entry of a tensor.
func (f *File) TensorInfo(name string) (TensorEntry, error) {
	e, ok := f.header.Tensors[name]
	if !ok {
		return TensorEntry{}, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	return e, nil
}

// TensorData returns a zero-copy view of a tensor's bytes. The view is only
// valid until Close.
func (f *File) TensorData(name string) ([]byte, error) {
	if f.closed {
		return nil, ErrClosed
	}
	e, err := f.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	begin, end := f.dataOffset+e.DataOffsets[0], f.dataOffset+e.DataOffsets[1]
	if begin < f.dataOffset || end > int64(len(f.data)) || begin > end {
		return nil, &ValidationError{Type: "out_of_bounds", Tensor: name, Details: "data_offsets outside file", Err: ErrOutOfBounds}
	}
	return f.data[begin:end], nil
}

// LoadTensor copies a tensor onto dev.
func (f *File) LoadTensor(name string, dev device.Device) (*tensor.RawTensor, error) {
	data, err := f.TensorData(name)
	if err != nil {
		return nil, err
	}
	e := f.header.Tensors[name]
	dt, ok := safeTensorsToDtype(e.DType)
	if !ok {
		return nil, fmt.Errorf("tensor %s: %w: %s", name, ErrUnknownDType, e.DType)
	}
	shape := make(tensor.Shape, len(e.Shape))
	for i, d := range e.Shape {
		shape[i] = int(d)
	}

	raw, err := tensor.NewRaw(shape, dt, dev)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	if err := raw.SetHostData(data); err != nil {
		raw.Release()
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	return raw, nil
}

// ReadFile loads every tensor of a SafeTensors file onto dev.
func ReadFile(path string, dev device.Device) (map[string]*tensor.RawTensor, map[string]string, error) {
	f, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	out := make(map[string]*tensor.RawTensor, len(f.header.Tensors))
	for _, name := range f.TensorNames() {
		raw, err := f.LoadTensor(name, dev)
		if err != nil {
			for _, r := range out {
				r.Release()
			}
			return nil, nil, err
		}
		out[name] = raw
	}
	return out, f.Metadata(), nil
}
