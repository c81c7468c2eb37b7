// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/ggvideo/frame"
)

// ErrUnknownState is returned for a state variant no renderer handles.
var ErrUnknownState = errors.New("render: unknown state")

// Compositor renders any frame.State with the matching renderer.
type Compositor struct {
	Text    *TextRenderer
	Drawing *DrawingRenderer
}

// NewCompositor creates a compositor with text and drawing renderers
// sharing opts.
func NewCompositor(fonts *FontSet, opts ...Option) *Compositor {
	return &Compositor{
		Text:    NewTextRenderer(fonts, opts...),
		Drawing: NewDrawingRenderer(opts...),
	}
}

// Render draws st.
func (c *Compositor) Render(st frame.State) (*image.RGBA, error) {
	switch s := st.(type) {
	case frame.Text:
		return c.Text.Render(s)
	case *frame.Text:
		return c.Text.Render(*s)
	case frame.Drawing:
		return c.Drawing.Render(s)
	case *frame.Drawing:
		return c.Drawing.Render(*s)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownState, st)
	}
}
