package ggvideo

import (
	"image/color"
	"time"

	"github.com/gogpu/ggvideo/encoder"
)

// Defaults of a Recorder.
const (
	DefaultWidth       = 960
	DefaultHeight      = 1280
	DefaultFrameRate   = 20
	DefaultTick        = 5 * time.Millisecond
	DefaultStopTimeout = 10 * time.Second
)

// RecorderOption configures a Recorder during creation.
//
// Example:
//
//	rec := ggvideo.NewRecorder(
//	    ggvideo.WithOutputSize(720, 1280),
//	    ggvideo.WithBackend("gstreamer"),
//	)
type RecorderOption func(*recorderOptions)

type recorderOptions struct {
	width, height int
	frameRate     int
	backend       string
	factory       encoder.Factory
	tick          time.Duration
	stopTimeout   time.Duration
	clearColor    color.Color
}

func defaultOptions() recorderOptions {
	return recorderOptions{
		width:       DefaultWidth,
		height:      DefaultHeight,
		frameRate:   DefaultFrameRate,
		tick:        DefaultTick,
		stopTimeout: DefaultStopTimeout,
		clearColor:  color.White,
	}
}

// WithOutputSize sets the encoded resolution.
func WithOutputSize(width, height int) RecorderOption {
	return func(o *recorderOptions) {
		o.width = width
		o.height = height
	}
}

// WithFrameRate sets the number of frames per second.
// Non-positive values are ignored.
func WithFrameRate(fps int) RecorderOption {
	return func(o *recorderOptions) {
		if fps > 0 {
			o.frameRate = fps
		}
	}
}

// WithBackend selects a registered encoder backend by name.
// The default is the best available backend.
func WithBackend(name string) RecorderOption {
	return func(o *recorderOptions) {
		o.backend = name
	}
}

// WithEncoderFactory opens encoders with f instead of the registry.
func WithEncoderFactory(f encoder.Factory) RecorderOption {
	return func(o *recorderOptions) {
		o.factory = f
	}
}

// WithTick sets how long the pump sleeps between clock checks.
// It bounds the jitter of frame timing. Non-positive values are ignored.
func WithTick(d time.Duration) RecorderOption {
	return func(o *recorderOptions) {
		if d > 0 {
			o.tick = d
		}
	}
}

// WithStopTimeout caps how long Stop waits for the pump to exit.
// Non-positive values are ignored.
func WithStopTimeout(d time.Duration) RecorderOption {
	return func(o *recorderOptions) {
		if d > 0 {
			o.stopTimeout = d
		}
	}
}

// WithClearColor sets the color the surface is cleared to before each frame.
func WithClearColor(c color.Color) RecorderOption {
	return func(o *recorderOptions) {
		if c != nil {
			o.clearColor = c
		}
	}
}

func (o recorderOptions) open(cfg encoder.Config) (encoder.Encoder, error) {
	if o.factory != nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return o.factory(cfg)
	}
	return encoder.OpenByName(o.backend, cfg)
}
