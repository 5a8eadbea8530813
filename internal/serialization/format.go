package serialization

import (
	"fmt"

	"github.com/born-ml/torchimage/internal/tensor"
)

// Format constants.
const (
	HeaderSizeBytes = 8 // little-endian uint64 header length prefix
	HeaderAlignment = 8 // header JSON is space padded to this multiple
	MetadataKey     = "__metadata__"
)

// SafeTensors dtype codes.
const (
	DTypeBool    = "BOOL"
	DTypeUint8   = "U8"
	DTypeInt8    = "I8"
	DTypeInt16   = "I16"
	DTypeInt32   = "I32"
	DTypeInt64   = "I64"
	DTypeFloat32 = "F32"
	DTypeFloat64 = "F64"
)

// TensorEntry describes one tensor in the header.
type TensorEntry struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [begin, end) within the data section
}

// Size returns the number of data bytes the entry spans.
func (e TensorEntry) Size() int64 { return e.DataOffsets[1] - e.DataOffsets[0] }

// Header is the decoded JSON header of a file.
type Header struct {
	Tensors  map[string]TensorEntry
	Metadata map[string]string
}

// dtypeToSafeTensors converts tensor.DataType to its SafeTensors dtype code.
func dtypeToSafeTensors(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Bool:
		return DTypeBool, nil
	case tensor.Uint8:
		return DTypeUint8, nil
	case tensor.Int8:
		return DTypeInt8, nil
	case tensor.Int16:
		return DTypeInt16, nil
	case tensor.Int32:
		return DTypeInt32, nil
	case tensor.Int64:
		return DTypeInt64, nil
	case tensor.Float32:
		return DTypeFloat32, nil
	case tensor.Float64:
		return DTypeFloat64, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownDType, dt)
	}
}

// safeTensorsToDtype converts a SafeTensors dtype code to tensor.DataType.
func safeTensorsToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeBool:
		return tensor.Bool, true
	case DTypeUint8:
		return tensor.Uint8, true
	case DTypeInt8:
		return tensor.Int8, true
	case DTypeInt16:
		return tensor.Int16, true
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	default:
		return 0, false
	}
}
