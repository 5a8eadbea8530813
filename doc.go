// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package torchimage provides N-dimensional images backed by strided,
// device-resident tensors.
//
// Pixel buffers live on the host, a CUDA GPU or a WebGPU adapter. Scalar and
// composite pixels (RGB, RGBA, Vector, CovariantVector and nestings of them)
// are read and written through the same calls, with composite components
// mapped onto trailing tensor dimensions.
//
// The public API is split by concern:
//   - image: the Image type, filters and file I/O
//   - pixel: pixel types and their tensor layout
//   - geometry: regions, indices and physical-space frames
//   - tensor: the raw tensors behind image buffers
//   - device: device selection
package torchimage

import (
	"log/slog"

	"github.com/born-ml/torchimage/internal/logging"
)

// Version is the library version.
const Version = "v0.1.0-dev"

// SetLogger routes the library's log output to l. Logging is off by default;
// passing nil turns it off again.
func SetLogger(l *slog.Logger) { logging.SetLogger(l) }

// Logger returns the library's current logger.
func Logger() *slog.Logger { return logging.Logger() }
