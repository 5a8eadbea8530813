// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package image

import (
	"context"

	"github.com/born-ml/torchimage/internal/device"
	"github.com/born-ml/torchimage/internal/filter"
	"github.com/born-ml/torchimage/internal/image"
	"github.com/born-ml/torchimage/internal/imageio"
	"github.com/born-ml/torchimage/internal/object"
	"github.com/born-ml/torchimage/internal/pixel"
	"github.com/born-ml/torchimage/internal/serialization"
)

// Image is an N-dimensional image of P pixels.
type Image[P any] = image.Image[P]

// Information is the pixel-type independent part of an image.
type Information = image.Information

// Errors.
var (
	ErrNotAllocated  = image.ErrNotAllocated
	ErrOutOfBounds   = image.ErrOutOfBounds
	ErrDimension     = image.ErrDimension
	ErrEmptyRegion   = image.ErrEmptyRegion
	ErrPixelMismatch = image.ErrPixelMismatch
)

// Events.
type (
	Event     = object.Event
	EventKind = object.EventKind
	Observer  = object.Observer
)

// Event kinds.
const (
	AnyEvent      = object.AnyEvent
	StartEvent    = object.StartEvent
	ProgressEvent = object.ProgressEvent
	EndEvent      = object.EndEvent
	ModifiedEvent = object.ModifiedEvent
)

// New returns an empty dim-dimensional image on the CPU.
func New[P any](traits pixel.Traits[P], dim int) (*Image[P], error) {
	return image.New(traits, dim)
}

// UnaryFunctor is a filter computing each output pixel from one input pixel.
type UnaryFunctor[In, Out any] = filter.UnaryFunctor[In, Out]

// NewUnaryFunctor returns a filter producing out pixels with fn.
func NewUnaryFunctor[In, Out any](out pixel.Traits[Out], fn func(In) Out) *UnaryFunctor[In, Out] {
	return filter.NewUnaryFunctor(out, fn)
}

// Apply runs fn over every pixel of in's requested region.
func Apply[In, Out any](ctx context.Context, in *Image[In], out pixel.Traits[Out], fn func(In) Out) (*Image[Out], error) {
	return filter.NewUnaryFunctor(out, fn).Run(ctx, in)
}

// WriteFile saves im by extension: .png, .tif/.tiff, .bmp or .safetensors.
func WriteFile[P any](path string, im *Image[P]) error { return imageio.Write(path, im) }

// ReadFile reads a SafeTensors image written by WriteFile onto dev.
func ReadFile[P any](path string, traits pixel.Traits[P], dev device.Device) (*Image[P], error) {
	return serialization.ReadImage(path, traits, dev)
}

// ReadGray reads a raster or SafeTensors file as a grayscale image.
func ReadGray(path string, dev device.Device) (*Image[uint8], error) {
	return imageio.ReadGray(path, dev)
}

// ReadRGBA reads a raster or SafeTensors file as an RGBA image.
func ReadRGBA(path string, dev device.Device) (*Image[pixel.RGBA[uint8]], error) {
	return imageio.ReadRGBA(path, dev)
}
