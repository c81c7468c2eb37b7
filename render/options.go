// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
)

// MaxViewSize bounds each side of the canvas a state is drawn on.
const MaxViewSize = 16384

// ErrViewSize reports a view size a renderer refuses to allocate.
var ErrViewSize = errors.New("render: view size out of range")

// Default output resolution of rendered frames.
const (
	DefaultOutputWidth  = 960
	DefaultOutputHeight = 1280
)

// Option configures a renderer.
type Option func(*options)

type options struct {
	outputWidth  int
	outputHeight int
}

func defaultOptions() options {
	return options{
		outputWidth:  DefaultOutputWidth,
		outputHeight: DefaultOutputHeight,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithOutputSize sets the size frames are aspect-fit into.
// It is also the fallback canvas size for states without a view size.
// Non-positive values are ignored.
func WithOutputSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.outputWidth = width
			o.outputHeight = height
		}
	}
}

// viewSize returns w x h, or the fallback when either is not positive.
func viewSize(w, h, fallbackW, fallbackH int) (int, int) {
	if w <= 0 || h <= 0 {
		return fallbackW, fallbackH
	}
	return w, h
}

func checkViewSize(w, h int) error {
	if w > MaxViewSize || h > MaxViewSize {
		return fmt.Errorf("%w: %dx%d", ErrViewSize, w, h)
	}
	return nil
}
