package serialization

import (
	"cmp"
	"fmt"
	"math"
	"math/bits"
	"slices"
	"strings"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor name length
	MaxMetadataSize  = 10 * 1024 * 1024  // 10MB - maximum metadata size
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all validation checks (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names, dtypes and shapes but not offsets.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

type span struct {
	name       string
	begin, end int64
}

// ValidateTensorOffsets checks for negative, overlapping and out-of-bounds
// tensor offsets. Malformed files could otherwise read past the data section
// or alias one tensor's bytes into another.
func ValidateTensorOffsets(tensors map[string]TensorEntry, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
			Err:     ErrTooManyTensors,
		}
	}

	sorted := make([]span, 0, len(tensors))
	for name, e := range tensors {
		sorted = append(sorted, span{name: name, begin: e.DataOffsets[0], end: e.DataOffsets[1]})
	}
	slices.SortFunc(sorted, func(a, b span) int {
		return cmp.Or(cmp.Compare(a.begin, b.begin), strings.Compare(a.name, b.name))
	})

	for i, t := range sorted {
		if t.begin < 0 || t.end < t.begin {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.name,
				Details: fmt.Sprintf("data_offsets=[%d, %d]", t.begin, t.end),
				Err:     ErrNegativeOffset,
			}
		}

		if t.end > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.name,
				Details: fmt.Sprintf("end %d > data_size %d", t.end, dataSize),
				Err:     ErrOutOfBounds,
			}
		}

		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.end > next.begin {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  t.name,
					Tensor2: next.name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap", t.begin, t.end, next.begin, next.end),
					Err:     ErrOffsetOverlap,
				}
			}
		}
	}

	return nil
}

// ValidateTensorName checks tensor names for path traversal and other
// malicious patterns.
func ValidateTensorName(name string) error {
	invalid := func(details string) error {
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: details, Err: ErrInvalidTensorName}
	}
	switch {
	case name == "":
		return invalid("empty name")
	case len(name) > MaxTensorNameLen:
		return invalid(fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen))
	case strings.Contains(name, ".."):
		return invalid("contains '..' (path traversal attempt)")
	case strings.ContainsAny(name, "/\\"):
		return invalid("contains path separator (/ or \\)")
	case strings.Contains(name, "\x00"):
		return invalid("contains null byte")
	}
	return nil
}

// ValidateEntry checks that an entry's dtype is known and that its byte span
// matches its shape.
func ValidateEntry(name string, e TensorEntry) error {
	dt, ok := safeTensorsToDtype(e.DType)
	if !ok {
		return &ValidationError{Type: "unknown_dtype", Tensor: name, Details: e.DType, Err: ErrUnknownDType}
	}
	overflow := &ValidationError{
		Type:    "shape_overflow",
		Tensor:  name,
		Details: fmt.Sprintf("shape %v of %s", e.Shape, e.DType),
		Err:     ErrShapeOverflow,
	}
	n := int64(1)
	for _, d := range e.Shape {
		if d < 0 {
			return &ValidationError{Type: "invalid_shape", Tensor: name, Details: fmt.Sprintf("shape %v", e.Shape), Err: ErrInvalidHeader}
		}
		var ok bool
		if n, ok = mulInt64(n, d); !ok {
			return overflow
		}
	}
	want, ok := mulInt64(n, int64(dt.Size()))
	if !ok {
		return overflow
	}
	if e.Size() != want {
		return &ValidationError{
			Type:    "size_mismatch",
			Tensor:  name,
			Details: fmt.Sprintf("shape %v of %s needs %d bytes, data_offsets span %d", e.Shape, e.DType, want, e.Size()),
			Err:     ErrInvalidHeader,
		}
	}
	return nil
}

// mulInt64 returns a*b for non-negative a and b, and false if it overflows.
func mulInt64(a, b int64) (int64, bool) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

// ValidateHeader performs header validation at the given level.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
			Err:     ErrTooManyTensors,
		}
	}

	for name, e := range h.Tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		if err := ValidateEntry(name, e); err != nil {
			return err
		}
	}

	if level == ValidationStrict {
		if err := ValidateTensorOffsets(h.Tensors, dataSize); err != nil {
			return err
		}
	}

	return nil
}
