package tensor

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/born-ml/torchimage/internal/device"
)

// Initializer selects the initial contents of newly allocated storage.
type Initializer int

// Supported initializers.
const (
	Empty Initializer = iota // contents unspecified
	Zeros
	Ones
	Rand  // uniform on [0, 1)
	Randn // standard normal
)

func (i Initializer) String() string {
	switch i {
	case Empty:
		return "empty"
	case Zeros:
		return "zeros"
	case Ones:
		return "ones"
	case Rand:
		return "rand"
	case Randn:
		return "randn"
	default:
		return fmt.Sprintf("initializer(%d)", int(i))
	}
}

// ParseInitializer is the inverse of Initializer.String.
func ParseInitializer(s string) (Initializer, error) {
	for i := Empty; i <= Randn; i++ {
		if i.String() == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown initializer %q", s)
}

// ErrInitializerDType is returned for random initializers on non-float types.
var ErrInitializerDType = errors.New("initializer requires a floating point dtype")

// NewRawInit allocates a tensor on dev and initialises it.
func NewRawInit(shape Shape, dtype DataType, dev device.Device, init Initializer) (*RawTensor, error) {
	if (init == Rand || init == Randn) && !dtype.IsFloat() {
		return nil, fmt.Errorf("%w: %s for %s", ErrInitializerDType, init, dtype)
	}
	r, err := NewRaw(shape, dtype, dev)
	if err != nil {
		return nil, err
	}

	switch init {
	case Empty:
	case Zeros:
		// Host memory is zeroed on allocation.
		if dev.IsGPU() {
			err = r.buffer.storage.Fill([]byte{0})
		}
	case Ones:
		err = r.buffer.storage.Fill(oneBytes(dtype))
	case Rand, Randn:
		err = r.SetHostData(randomBytes(r.NumElements(), dtype, init == Randn))
	default:
		err = fmt.Errorf("unknown initializer %d", int(init))
	}
	if err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

// randomBytes generates n encoded float samples.
func randomBytes(n int, dtype DataType, normal bool) []byte {
	sample := rand.Float64 //nolint:gosec // G404: statistical use
	if normal {
		sample = rand.NormFloat64 //nolint:gosec // G404: statistical use
	}
	out := make([]byte, 0, n*dtype.Size())
	for range n {
		v := sample()
		if dtype == Float64 {
			out = append(out, scalarBytes(v)...)
			continue
		}
		f := float32(v)
		if !normal && f >= 1 {
			// Rounding to float32 can reach 1; keep the interval half-open.
			f = math.Nextafter32(1, 0)
		}
		out = append(out, scalarBytes(f)...)
	}
	return out
}
