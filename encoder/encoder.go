// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package encoder defines the video encoder abstraction used by the recorder.
//
// An Encoder owns an output destination and exposes a Surface that frames
// are drawn onto. The recorder locks the surface, draws into the returned
// canvas and posts it back; the encoder consumes every posted canvas as one
// frame. Encoders are opened from Config through a registry of named
// backends, so backends with external requirements register themselves from
// their own packages:
//
//	import _ "github.com/gogpu/ggvideo/encoder/gstenc"
//
//	enc, err := encoder.Open(encoder.Config{
//	    Width: 960, Height: 1280, FrameRate: 20,
//	    Bitrate:     encoder.DefaultBitrate(960, 1280),
//	    Destination: "out.mp4",
//	})
//
// # Backends
//
//   - gstreamer: H.264 in MP4 through a GStreamer pipeline (encoder/gstenc)
//   - imageseq: numbered PNG files in a directory (encoder/imageseq)
package encoder

import (
	"errors"
	"fmt"
	"image"
)

// Errors.
var (
	// ErrNoBackend is returned when no registered backend is available.
	ErrNoBackend = errors.New("encoder: no backend available")

	// ErrUnknownBackend is returned for a backend name that is not registered.
	ErrUnknownBackend = errors.New("encoder: unknown backend")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("encoder: invalid config")

	// ErrSurfaceReleased is returned when a released surface is used.
	ErrSurfaceReleased = errors.New("encoder: surface released")

	// ErrNoFrames is returned by Finalize when no frame was ever posted.
	ErrNoFrames = errors.New("encoder: no frames")
)

// Config describes the output of one encoding session.
type Config struct {
	// Width and Height are the fixed output resolution in pixels.
	Width, Height int

	// FrameRate is the number of frames per second.
	FrameRate int

	// Bitrate is the target bitrate in bits per second.
	Bitrate int

	// Destination is the output path. Its meaning depends on the backend.
	Destination string
}

// DefaultBitrate returns the bitrate used for a width x height output.
func DefaultBitrate(width, height int) int {
	return width * height * 5
}

// Validate reports whether the config can be used to open an encoder.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.Width%2 != 0 || c.Height%2 != 0:
		return fmt.Errorf("%w: size %dx%d is not even", ErrInvalidConfig, c.Width, c.Height)
	case c.FrameRate <= 0:
		return fmt.Errorf("%w: frame rate %d", ErrInvalidConfig, c.FrameRate)
	case c.Bitrate < 0:
		return fmt.Errorf("%w: bitrate %d", ErrInvalidConfig, c.Bitrate)
	case c.Destination == "":
		return fmt.Errorf("%w: empty destination", ErrInvalidConfig)
	}
	return nil
}

// Encoder is an open encoding session.
type Encoder interface {
	// Surface returns the drawing surface frames are posted to.
	Surface() Surface

	// Finalize flushes pending frames and completes the output.
	// No frame may be posted after Finalize.
	Finalize() error

	// Close releases every resource held by the encoder, including its
	// surface. Close is idempotent and may be called without Finalize, in
	// which case the output may be incomplete.
	Close() error
}

// Surface is the canvas an encoder consumes frames from.
//
// Surfaces are not safe for concurrent use: a single goroutine locks,
// draws and posts.
type Surface interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Valid reports whether the surface can accept frames.
	Valid() bool

	// Lock returns the canvas to draw the next frame into.
	Lock() (*image.RGBA, error)

	// Post submits the canvas returned by Lock as the next frame.
	Post(canvas *image.RGBA) error
}
