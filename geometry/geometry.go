// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package geometry provides index-space regions and the physical-space frame
// (origin, spacing, direction) of an image.
package geometry

import (
	"github.com/born-ml/torchimage/internal/geometry"
)

// Index-space types.
type (
	Index  = geometry.Index
	Size   = geometry.Size
	Offset = geometry.Offset
	Region = geometry.Region
)

// Physical-space types.
type (
	Point = geometry.Point
	Frame = geometry.Frame
)

// NewRegion returns a region from a start index and size.
func NewRegion(index Index, size Size) Region { return geometry.NewRegion(index, size) }

// RegionFromSize returns the region of the given size starting at the origin.
func RegionFromSize(size Size) Region { return geometry.RegionFromSize(size) }

// FilledIndex returns a dim-dimensional index with every component v.
func FilledIndex(dim, v int) Index { return geometry.FilledIndex(dim, v) }

// FilledSize returns a dim-dimensional size with every component v.
func FilledSize(dim, v int) Size { return geometry.FilledSize(dim, v) }

// NewFrame returns the identity frame: zero origin, unit spacing, identity
// direction.
func NewFrame(dim int) Frame { return geometry.NewFrame(dim) }
