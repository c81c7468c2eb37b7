// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package encoder

import (
	"errors"
	"image"
	"sync/atomic"
)

// FrameSurface is a Surface backed by one reusable canvas.
// Posted canvases are passed to a sink function, which must not retain
// them after returning.
type FrameSurface struct {
	canvas   *image.RGBA
	sink     func(*image.RGBA) error
	released atomic.Bool
	locked   bool
	posted   atomic.Int64
}

// NewFrameSurface creates a width x height surface posting frames to sink.
func NewFrameSurface(width, height int, sink func(*image.RGBA) error) *FrameSurface {
	return &FrameSurface{
		canvas: image.NewRGBA(image.Rect(0, 0, width, height)),
		sink:   sink,
	}
}

// Width returns the surface width in pixels.
func (s *FrameSurface) Width() int { return s.canvas.Rect.Dx() }

// Height returns the surface height in pixels.
func (s *FrameSurface) Height() int { return s.canvas.Rect.Dy() }

// Valid reports whether the surface has not been released.
func (s *FrameSurface) Valid() bool { return !s.released.Load() }

// Lock returns the canvas.
func (s *FrameSurface) Lock() (*image.RGBA, error) {
	if s.released.Load() {
		return nil, ErrSurfaceReleased
	}
	s.locked = true
	return s.canvas, nil
}

// Post passes the locked canvas to the sink.
func (s *FrameSurface) Post(canvas *image.RGBA) error {
	if s.released.Load() {
		return ErrSurfaceReleased
	}
	if !s.locked || canvas != s.canvas {
		return errors.New("encoder: post without lock")
	}
	s.locked = false
	if err := s.sink(canvas); err != nil {
		return err
	}
	s.posted.Add(1)
	return nil
}

// Posted returns the number of frames accepted by the sink.
func (s *FrameSurface) Posted() int64 { return s.posted.Load() }

// Release invalidates the surface. It is safe to call more than once and
// from any goroutine.
func (s *FrameSurface) Release() {
	s.released.Store(true)
}
