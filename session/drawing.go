// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package session

import (
	"image/color"
	"sync"

	"github.com/gogpu/ggvideo/catalog"
	"github.com/gogpu/ggvideo/frame"
)

// DefaultBrushWidth is the stroke width of a new drawing session.
const DefaultBrushWidth = 10

// BrushUpdate changes the brush of a drawing session.
// Nil fields are left unchanged.
type BrushUpdate struct {
	Color *color.NRGBA `json:"color,omitempty"`
	Width *float64     `json:"width,omitempty"`
}

// Drawing is a recording session of a freehand canvas.
//
// Brush changes apply to the next stroke and produce no frame by
// themselves.
type Drawing struct {
	*base

	canvas *frame.Canvas

	mu    sync.Mutex
	color color.NRGBA
	width float64
}

// NewDrawing creates an idle drawing session with a white background and
// a black brush.
func NewDrawing(rec Recorder, rnd Renderer, names Namer, opts ...Option) *Drawing {
	d := &Drawing{
		canvas: frame.NewCanvas(frame.White),
		color:  frame.Black,
		width:  DefaultBrushWidth,
	}
	d.base = newBase(frame.KindDrawing, catalog.PrefixDrawing, rec, rnd, names, opts)
	d.base.snapshot = func() frame.State { return d.canvas.Snapshot() }
	return d
}

// Snapshot returns the current canvas.
func (d *Drawing) Snapshot() frame.Drawing {
	return d.canvas.Snapshot()
}

// Brush returns the current brush color and width.
func (d *Drawing) Brush() (color.NRGBA, float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.color, d.width
}

// SetBrush applies u to the brush.
func (d *Drawing) SetBrush(u BrushUpdate) {
	d.mu.Lock()
	set(&d.color, u.Color)
	if u.Width != nil && *u.Width > 0 {
		d.width = *u.Width
	}
	d.mu.Unlock()
}

// SetViewSize records the size of the on-screen canvas. A size outside
// the accepted range is rejected.
func (d *Drawing) SetViewSize(width, height int) error {
	if err := d.checkViewSize(width, height); err != nil {
		return err
	}
	d.canvas.SetViewSize(width, height)
	d.submit()
	return nil
}

// SetBackground changes the background color.
func (d *Drawing) SetBackground(c color.NRGBA) {
	d.canvas.SetBackground(c)
	d.submit()
}

// DragStart begins a stroke at p with the current brush.
func (d *Drawing) DragStart(p frame.Point) {
	col, w := d.Brush()
	d.canvas.Begin(p, col, w)
	d.submit()
}

// Drag extends the stroke in progress. It does nothing without one.
func (d *Drawing) Drag(p frame.Point) {
	if d.canvas.Extend(p) {
		d.submit()
	}
}

// DragEnd completes the stroke in progress.
func (d *Drawing) DragEnd() {
	if d.canvas.End() {
		d.submit()
	}
}

// Clear removes every stroke.
func (d *Drawing) Clear() {
	d.canvas.Clear()
	d.submit()
}
