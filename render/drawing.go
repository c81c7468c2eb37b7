// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"

	"github.com/gogpu/ggvideo/frame"
	"github.com/gogpu/ggvideo/scale"
)

// DrawingRenderer rasterizes freehand drawings.
type DrawingRenderer struct {
	opts options
}

// NewDrawingRenderer creates a drawing renderer.
func NewDrawingRenderer(opts ...Option) *DrawingRenderer {
	return &DrawingRenderer{opts: applyOptions(opts)}
}

// Render draws d and returns it aspect-fit to the output size.
//
// Completed strokes are drawn in order, then the stroke in progress. Every
// stroke uses round caps and joins; a stroke of a single point is a dot.
func (r *DrawingRenderer) Render(d frame.Drawing) (img *image.RGBA, err error) {
	w, h := viewSize(d.ViewWidth, d.ViewHeight, r.opts.outputWidth, r.opts.outputHeight)
	if err := checkViewSize(w, h); err != nil {
		return nil, err
	}

	pm := gg.NewPixmap(w, h)
	dc := gg.NewContext(w, h, gg.WithPixmap(pm))
	defer func() {
		if cerr := dc.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("render: close context: %w", cerr)
		}
	}()

	dc.ClearWithColor(gg.FromColor(d.Background))
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	var strokeErr error
	n := 0
	d.Each(func(s frame.Stroke) {
		if strokeErr == nil {
			strokeErr = drawStroke(dc, s)
			n++
		}
	})
	if strokeErr != nil {
		return nil, fmt.Errorf("render: stroke %d: %w", n-1, strokeErr)
	}

	return scale.AspectFit(pm.ToImage(), r.opts.outputWidth, r.opts.outputHeight), nil
}

func drawStroke(dc *gg.Context, s frame.Stroke) error {
	if len(s.Points) == 0 {
		return nil
	}
	width := s.Width
	if width <= 0 {
		width = 1
	}
	dc.SetColor(s.Color)

	if len(s.Points) == 1 {
		p := s.Points[0]
		dc.DrawCircle(p.X, p.Y, width/2)
		return dc.Fill()
	}

	dc.SetLineWidth(width)
	dc.MoveTo(s.Points[0].X, s.Points[0].Y)
	for _, p := range s.Points[1:] {
		dc.LineTo(p.X, p.Y)
	}
	return dc.Stroke()
}
