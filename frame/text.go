package frame

import (
	"image/color"
	"unicode/utf8"
)

// Text is a snapshot of a text field: its content, selection, scroll
// position and style.
//
// SelStart and SelEnd are rune offsets into Content. They may be out of
// range or inverted; renderers clamp and reorder them before use.
type Text struct {
	Content  string
	SelStart int
	SelEnd   int

	// ScrollY is the vertical scroll offset of the view in pixels.
	ScrollY int

	ViewWidth  int
	ViewHeight int

	// Size is the text size in pixels.
	Size float64

	Color      color.NRGBA
	Background color.NRGBA

	// Padding is applied on the left, right and top of the text.
	Padding int

	Bold   bool
	Italic bool
}

// DefaultText returns the text state of an empty field with the default
// style: 48px black on white in a 1080x1920 view.
func DefaultText() Text {
	return Text{
		ViewWidth:  1080,
		ViewHeight: 1920,
		Size:       48,
		Color:      Black,
		Background: White,
	}
}

// Kind implements State.
func (Text) Kind() Kind { return KindText }

// ViewSize implements State.
func (t Text) ViewSize() (width, height int) { return t.ViewWidth, t.ViewHeight }

func (Text) isState() {}

// Len returns the length of the content in runes.
func (t Text) Len() int {
	return utf8.RuneCountInString(t.Content)
}

// Selection returns the selection clamped to [0, Len()] and ordered so that
// start <= end.
func (t Text) Selection() (start, end int) {
	n := t.Len()
	start = clamp(t.SelStart, 0, n)
	end = clamp(t.SelEnd, 0, n)
	if end < start {
		start, end = end, start
	}
	return start, end
}

// Collapsed reports whether the selection is a caret rather than a range.
func (t Text) Collapsed() bool {
	s, e := t.Selection()
	return s == e
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
