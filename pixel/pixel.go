// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pixel describes pixel types and how they map onto tensor
// dimensions.
//
// Scalar pixels occupy one tensor element. RGB, RGBA, Vector and
// CovariantVector pixels each add a trailing tensor dimension, recursively:
//
//	traits := pixel.VectorOf(3, pixel.VectorOf(2, pixel.RGBOf(pixel.Scalar[uint8]())))
//	traits.AppendSizes(nil) // [3 2 3]
package pixel

import (
	"github.com/born-ml/torchimage/internal/pixel"
	"github.com/born-ml/torchimage/internal/tensor"
)

// Traits describes how pixels of type P are laid out in a tensor.
type Traits[P any] = pixel.Traits[P]

// Ref reads and writes one pixel of a tensor in place.
type Ref[P any] = pixel.Ref[P]

// Composite pixel types.
type (
	RGB[T any]             = pixel.RGB[T]
	RGBA[T any]            = pixel.RGBA[T]
	Vector[T any]          = pixel.Vector[T]
	CovariantVector[T any] = pixel.CovariantVector[T]
)

// Scalar returns the traits of a plain scalar pixel.
func Scalar[T tensor.DType]() Traits[T] { return pixel.Scalar[T]() }

// RGBOf returns the traits of RGB pixels with elem components.
func RGBOf[E any](elem Traits[E]) Traits[RGB[E]] { return pixel.RGBOf(elem) }

// RGBAOf returns the traits of RGBA pixels with elem components.
func RGBAOf[E any](elem Traits[E]) Traits[RGBA[E]] { return pixel.RGBAOf(elem) }

// VectorOf returns the traits of n-component Vector pixels.
func VectorOf[E any](n int, elem Traits[E]) Traits[Vector[E]] { return pixel.VectorOf(n, elem) }

// CovariantVectorOf returns the traits of n-component CovariantVector pixels.
func CovariantVectorOf[E any](n int, elem Traits[E]) Traits[CovariantVector[E]] {
	return pixel.CovariantVectorOf(n, elem)
}
