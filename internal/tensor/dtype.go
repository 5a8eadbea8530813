// Package tensor provides the strided, device-resident raw tensor that backs
// torchimage images.
package tensor

import (
	"fmt"
	"unsafe"
)

// DType is a constraint for supported element types.
type DType interface {
	bool | uint8 | int8 | int16 | int32 | int64 | float32 | float64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Bool DataType = iota
	Uint8
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Bool, Uint8, Int8:
		return 1
	case Int16:
		return 2
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		panic(fmt.Sprintf("unknown data type %d", int(dt)))
	}
}

// IsFloat reports whether dt is a floating point type.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Bool:
		return "bool"
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// ParseDataType is the inverse of DataType.String.
func ParseDataType(s string) (DataType, error) {
	for dt := Bool; dt <= Float64; dt++ {
		if dt.String() == s {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("unknown data type %q", s)
}

// DataTypeOf returns the DataType for the Go type T.
func DataTypeOf[T DType]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case bool:
		return Bool
	case uint8:
		return Uint8
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case float32:
		return Float32
	default:
		return Float64
	}
}

// scalarBytes returns the in-memory (native endian) bytes of v.
func scalarBytes[T DType](v T) []byte {
	out := make([]byte, unsafe.Sizeof(v))
	//nolint:gosec // byte view of a scalar
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v)))
	return out
}

// fromBytes decodes a scalar from its native endian bytes.
func fromBytes[T DType](b []byte) T {
	var v T
	//nolint:gosec // byte view of a scalar
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v)), b)
	return v
}

// oneBytes returns the encoding of the value one in dt.
func oneBytes(dt DataType) []byte {
	switch dt {
	case Bool:
		return scalarBytes(true)
	case Uint8:
		return scalarBytes(uint8(1))
	case Int8:
		return scalarBytes(int8(1))
	case Int16:
		return scalarBytes(int16(1))
	case Int32:
		return scalarBytes(int32(1))
	case Int64:
		return scalarBytes(int64(1))
	case Float32:
		return scalarBytes(float32(1))
	default:
		return scalarBytes(float64(1))
	}
}
