// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/gogpu/ggvideo/frame"
	"github.com/gogpu/ggvideo/internal/textlayout"
	"github.com/gogpu/ggvideo/scale"
)

// Selection and caret styling.
var (
	SelectionColor = color.NRGBA{R: 0, G: 128, B: 128, A: 255}
	CaretColor     = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
)

// CaretWidth is the stroke width of the caret in pixels.
const CaretWidth = 5

// Rect is an axis-aligned rectangle in view coordinates.
type Rect struct {
	X, Y, W, H float64
}

// TextLine is one line of a TextPlan.
type TextLine struct {
	Text     string
	X        float64
	Baseline float64
}

// TextPlan is the geometry of one text frame, in view coordinates.
type TextPlan struct {
	// Width and Height are the canvas size.
	Width, Height int

	// FirstLine and LastLine index the visible lines of the full layout.
	FirstLine, LastLine int

	// VisibleStart and VisibleEnd delimit the visible text as rune offsets
	// into the full content.
	VisibleStart, VisibleEnd int

	// YOffset is the top of the first visible line relative to the scroll
	// position. It is zero or negative.
	YOffset float64

	Lines      []TextLine
	Highlights []Rect

	// Caret is set for a collapsed selection inside the visible text.
	Caret *Rect
}

// TextRenderer rasterizes text editing state.
//
// The full layout of the last content is cached and reused while the text,
// face and wrap width stay the same.
type TextRenderer struct {
	fonts *FontSet
	opts  options

	mu     sync.Mutex
	cached *cachedLayout
}

type cachedLayout struct {
	text   string
	face   text.Face
	width  float64
	layout *textlayout.Layout
}

// NewTextRenderer creates a text renderer drawing with fonts.
func NewTextRenderer(fonts *FontSet, opts ...Option) *TextRenderer {
	return &TextRenderer{
		fonts: fonts,
		opts:  applyOptions(opts),
	}
}

// Render draws st and returns it aspect-fit to the output size.
func (r *TextRenderer) Render(st frame.Text) (*image.RGBA, error) {
	if err := checkViewSize(viewSize(st.ViewWidth, st.ViewHeight, r.opts.outputWidth, r.opts.outputHeight)); err != nil {
		return nil, err
	}
	plan := r.Plan(st)
	img, err := r.draw(st, plan)
	if err != nil {
		return nil, err
	}
	return scale.AspectFit(img, r.opts.outputWidth, r.opts.outputHeight), nil
}

// Plan computes the layout of the visible window of st without drawing it.
func (r *TextRenderer) Plan(st frame.Text) *TextPlan {
	w, h := viewSize(st.ViewWidth, st.ViewHeight, r.opts.outputWidth, r.opts.outputHeight)
	pad := float64(max(st.Padding, 0))
	face := r.fonts.Face(st.Size, st.Bold, st.Italic)
	width := math.Max(textlayout.MinWidth, float64(w)-2*pad)

	content := st.Content
	if content == "" {
		content = " "
	}

	full := r.layout(content, face, width)
	n := full.LineCount()

	scrollY := float64(st.ScrollY)
	first := clampInt(full.LineForVertical(math.Max(0, scrollY)), 0, n-1)
	last := clampInt(full.LineForVertical(math.Max(0, scrollY+float64(h))), 0, n-1)

	plan := &TextPlan{
		Width:        w,
		Height:       h,
		FirstLine:    first,
		LastLine:     last,
		VisibleStart: full.LineStart(first),
		VisibleEnd:   full.LineEnd(last),
		YOffset:      full.LineTop(first) - scrollY,
	}

	visible := textlayout.New(full.Substring(plan.VisibleStart, plan.VisibleEnd), face, width)
	vlen := visible.Len()
	ox, oy := pad, plan.YOffset+pad

	for i := 0; i < visible.LineCount(); i++ {
		line := visible.Line(i)
		plan.Lines = append(plan.Lines, TextLine{
			Text:     visible.LineText(i),
			X:        ox,
			Baseline: oy + line.Baseline,
		})
	}

	selStart, selEnd := st.Selection()
	if selStart != selEnd {
		s := clampInt(selStart-plan.VisibleStart, 0, vlen)
		e := clampInt(selEnd-plan.VisibleStart, 0, vlen)
		if s > e {
			s, e = e, s
		}
		plan.Highlights = highlights(visible, s, e, ox, oy)
		return plan
	}

	caret := selStart - plan.VisibleStart
	if caret >= 0 && caret <= vlen {
		i := visible.LineForOffset(caret)
		x := visible.Horizontal(i, caret)
		plan.Caret = &Rect{
			X: ox + x,
			Y: oy + visible.LineTop(i),
			W: CaretWidth,
			H: visible.LineHeight(),
		}
	}
	return plan
}

// highlights returns one rectangle per line intersecting [s, e).
func highlights(l *textlayout.Layout, s, e int, ox, oy float64) []Rect {
	var rects []Rect
	for i := l.LineForOffset(s); i < l.LineCount(); i++ {
		line := l.Line(i)
		if line.Start >= e {
			break
		}
		x0 := l.Horizontal(i, max(s, line.Start))
		x1 := l.Horizontal(i, min(e, line.End))
		if x1 <= x0 {
			continue
		}
		rects = append(rects, Rect{
			X: ox + x0,
			Y: oy + line.Top,
			W: x1 - x0,
			H: line.Bottom - line.Top,
		})
	}
	return rects
}

// layout returns the full layout of content, reusing the cached one when
// nothing it depends on changed.
func (r *TextRenderer) layout(content string, face text.Face, width float64) *textlayout.Layout {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c := r.cached; c != nil && c.face == face && c.width == width && c.text == content {
		return c.layout
	}
	l := textlayout.New(content, face, width)
	r.cached = &cachedLayout{text: content, face: face, width: width, layout: l}
	return l
}

func (r *TextRenderer) draw(st frame.Text, plan *TextPlan) (img *image.RGBA, err error) {
	pm := gg.NewPixmap(plan.Width, plan.Height)
	dc := gg.NewContext(plan.Width, plan.Height, gg.WithPixmap(pm))
	defer func() {
		if cerr := dc.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("render: close context: %w", cerr)
		}
	}()

	dc.ClearWithColor(gg.FromColor(st.Background))

	if len(plan.Highlights) > 0 {
		dc.SetColor(SelectionColor)
		for _, h := range plan.Highlights {
			dc.DrawRectangle(h.X, h.Y, h.W, h.H)
		}
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("render: fill selection: %w", err)
		}
	}

	// DrawString ignores the transform, so lines carry absolute positions.
	dc.SetFont(r.fonts.Face(st.Size, st.Bold, st.Italic))
	dc.SetColor(st.Color)
	for _, line := range plan.Lines {
		dc.DrawString(line.Text, line.X, line.Baseline)
	}

	if c := plan.Caret; c != nil {
		dc.SetColor(CaretColor)
		dc.SetLineWidth(c.W)
		dc.DrawLine(c.X, c.Y, c.X, c.Y+c.H)
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("render: stroke caret: %w", err)
		}
	}

	return pm.ToImage(), nil
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
