// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package session

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/gogpu/ggvideo/catalog"
	"github.com/gogpu/ggvideo/frame"
)

// TextUpdate changes the content or geometry of a text session.
// Nil fields are left unchanged.
type TextUpdate struct {
	Content    *string `json:"content,omitempty"`
	SelStart   *int    `json:"selStart,omitempty"`
	SelEnd     *int    `json:"selEnd,omitempty"`
	ScrollY    *int    `json:"scrollY,omitempty"`
	ViewWidth  *int    `json:"viewWidth,omitempty"`
	ViewHeight *int    `json:"viewHeight,omitempty"`
	Padding    *int    `json:"padding,omitempty"`
}

// StyleUpdate changes the style of a text session.
// Nil fields are left unchanged.
type StyleUpdate struct {
	Size       *float64     `json:"size,omitempty"`
	Bold       *bool        `json:"bold,omitempty"`
	Italic     *bool        `json:"italic,omitempty"`
	Color      *color.NRGBA `json:"color,omitempty"`
	Background *color.NRGBA `json:"background,omitempty"`
}

// Text is a recording session of an editable text field.
//
// The view size is frozen when a recording starts: resizing the view while
// recording changes the model but not the frames.
type Text struct {
	*base

	mu     sync.Mutex
	state  frame.Text
	frozen [2]int
}

// NewText creates an idle text session.
func NewText(rec Recorder, rnd Renderer, names Namer, opts ...Option) *Text {
	t := &Text{}
	t.base = newBase(frame.KindText, catalog.PrefixText, rec, rnd, names, opts)
	t.state = frame.DefaultText()
	if t.opts.text != nil {
		t.state = *t.opts.text
	}
	t.base.snapshot = t.snapshot
	t.base.prepare = t.freeze
	return t
}

// State returns the current model.
func (t *Text) State() frame.Text {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// UpdateText applies u and, while recording, queues a frame. An update
// with a view size outside the accepted range is rejected as a whole.
func (t *Text) UpdateText(u TextUpdate) error {
	t.mu.Lock()
	s := &t.state
	w, h := s.ViewWidth, s.ViewHeight
	set(&w, u.ViewWidth)
	set(&h, u.ViewHeight)
	if err := t.checkViewSize(w, h); err != nil {
		t.mu.Unlock()
		return err
	}
	set(&s.Content, u.Content)
	set(&s.SelStart, u.SelStart)
	set(&s.SelEnd, u.SelEnd)
	set(&s.ScrollY, u.ScrollY)
	set(&s.ViewWidth, u.ViewWidth)
	set(&s.ViewHeight, u.ViewHeight)
	set(&s.Padding, u.Padding)
	t.mu.Unlock()

	t.submit()
	return nil
}

// UpdateStyle applies u and, while recording, queues a frame. A size
// outside (0, MaxFontSize] rejects the update.
func (t *Text) UpdateStyle(u StyleUpdate) error {
	if u.Size != nil && (!(*u.Size > 0) || *u.Size > MaxFontSize) {
		return fmt.Errorf("%w: text size %v", ErrInvalidUpdate, *u.Size)
	}
	t.mu.Lock()
	s := &t.state
	set(&s.Size, u.Size)
	set(&s.Bold, u.Bold)
	set(&s.Italic, u.Italic)
	set(&s.Color, u.Color)
	set(&s.Background, u.Background)
	t.mu.Unlock()

	t.submit()
	return nil
}

func (t *Text) freeze() {
	t.mu.Lock()
	t.frozen = [2]int{t.state.ViewWidth, t.state.ViewHeight}
	t.mu.Unlock()
}

func (t *Text) snapshot() frame.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.state
	st.ViewWidth, st.ViewHeight = t.frozen[0], t.frozen[1]
	return st
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
