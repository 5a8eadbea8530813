// Package filter provides image-to-image filters over device-backed images.
package filter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/born-ml/torchimage/internal/geometry"
	"github.com/born-ml/torchimage/internal/image"
	"github.com/born-ml/torchimage/internal/logging"
	"github.com/born-ml/torchimage/internal/object"
	"github.com/born-ml/torchimage/internal/parallel"
	"github.com/born-ml/torchimage/internal/pixel"
	"github.com/born-ml/torchimage/internal/tensor"
)

// ErrRegionNotBuffered is returned when the input does not hold the pixels
// the output needs.
var ErrRegionNotBuffered = errors.New("requested region is not buffered by the input")

// cancelCheckInterval is how many pixels are processed between context checks.
const cancelCheckInterval = 1024

// UnaryFunctor computes every output pixel from the input pixel at the same
// index.
type UnaryFunctor[In, Out any] struct {
	object.Object

	fn     func(In) Out
	traits pixel.Traits[Out]

	// Parallel bounds the number of region chunks processed at once.
	Parallel parallel.Config
	// Chunks is the number of pieces the output region is split into. Zero
	// means Parallel decides from the pixel count.
	Chunks int

	eventMu sync.Mutex
}

// NewUnaryFunctor returns a filter producing out pixels with fn, using
// parallel.DefaultConfig.
func NewUnaryFunctor[In, Out any](out pixel.Traits[Out], fn func(In) Out) *UnaryFunctor[In, Out] {
	return NewUnaryFunctorWithConfig(out, fn, parallel.DefaultConfig())
}

// NewUnaryFunctorWithConfig returns a filter producing out pixels with fn,
// running chunks as cfg allows.
func NewUnaryFunctorWithConfig[In, Out any](out pixel.Traits[Out], fn func(In) Out, cfg parallel.Config) *UnaryFunctor[In, Out] {
	return &UnaryFunctor[In, Out]{fn: fn, traits: out, Parallel: cfg}
}

// Run applies the functor to the input's requested region, or its largest
// possible region when nothing was requested. The output has the input's
// information, lives on the input's device and buffers exactly that region.
func (f *UnaryFunctor[In, Out]) Run(ctx context.Context, in *image.Image[In]) (*image.Image[Out], error) {
	region := in.RequestedRegion()
	if region.IsEmpty() {
		region = in.LargestPossibleRegion()
	}
	if in.Buffer() == nil {
		return nil, image.ErrNotAllocated
	}
	if !in.BufferedRegion().IsInsideRegion(region) {
		return nil, fmt.Errorf("%w: %v", ErrRegionNotBuffered, region)
	}

	out, err := f.allocateOutput(in, region)
	if err != nil {
		return nil, err
	}

	f.emit(object.Event{Kind: object.StartEvent})
	pieces := region.Split(f.chunks(region.NumberOfPixels()))
	var done int
	err = parallel.ForEach(ctx, len(pieces), func(ctx context.Context, i int) error {
		if err := f.apply(ctx, in, out, pieces[i]); err != nil {
			return err
		}
		f.eventMu.Lock()
		defer f.eventMu.Unlock()
		done++
		f.InvokeEvent(object.Event{Kind: object.ProgressEvent, Progress: float64(done) / float64(len(pieces))})
		return nil
	}, f.Parallel)
	if err != nil {
		out.Release()
		return nil, err
	}
	f.emit(object.Event{Kind: object.EndEvent})
	logging.Logger().Debug("unary functor done", "region", region.String(), "chunks", len(pieces), "device", in.Device().String())
	return out, nil
}

func (f *UnaryFunctor[In, Out]) chunks(pixels int) int {
	if f.Chunks > 0 {
		return f.Chunks
	}
	return max(len(f.Parallel.Chunks(pixels)), 1)
}

func (f *UnaryFunctor[In, Out]) allocateOutput(in *image.Image[In], region geometry.Region) (*image.Image[Out], error) {
	out, err := image.New(f.traits, in.ImageDimension())
	if err != nil {
		return nil, err
	}
	if err := out.CopyInformation(in); err != nil {
		return nil, err
	}
	if err := out.SetBufferedRegion(region); err != nil {
		return nil, err
	}
	if err := out.SetRequestedRegion(region); err != nil {
		return nil, err
	}
	if err := out.SetDevice(in.Device()); err != nil {
		return nil, err
	}
	if err := out.Allocate(tensor.Empty); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *UnaryFunctor[In, Out]) apply(ctx context.Context, in *image.Image[In], out *image.Image[Out], piece geometry.Region) error {
	n := 0
	for idx := range piece.Indices() {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		n++
		v, err := in.Pixel(idx)
		if err != nil {
			return err
		}
		if err := out.SetPixel(idx, f.fn(v)); err != nil {
			return err
		}
	}
	return nil
}

// emit delivers events one at a time, so observers need no locking of their
// own.
func (f *UnaryFunctor[In, Out]) emit(e object.Event) {
	f.eventMu.Lock()
	defer f.eventMu.Unlock()
	f.InvokeEvent(e)
}
