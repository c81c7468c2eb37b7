package frame

import (
	"image/color"
	"sync"
)

// Canvas is the mutable model behind Drawing snapshots.
//
// Points of the stroke in progress are only ever appended. When the drag
// ends the stroke is moved into the completed list and is not touched
// again. Snapshots share backing arrays with the canvas; they are cut with
// full slice expressions so later appends can never write into memory a
// snapshot can see.
//
// Canvas is safe for concurrent use.
type Canvas struct {
	mu         sync.Mutex
	strokes    []Stroke
	active     *Stroke
	background color.NRGBA
	width      int
	height     int
}

// NewCanvas creates an empty canvas with the given background.
func NewCanvas(background color.NRGBA) *Canvas {
	return &Canvas{background: background}
}

// SetViewSize records the size of the on-screen view.
func (c *Canvas) SetViewSize(width, height int) {
	c.mu.Lock()
	c.width, c.height = width, height
	c.mu.Unlock()
}

// SetBackground changes the background color.
func (c *Canvas) SetBackground(col color.NRGBA) {
	c.mu.Lock()
	c.background = col
	c.mu.Unlock()
}

// Begin starts a new stroke at p. A stroke still in progress is ended first.
func (c *Canvas) Begin(p Point, col color.NRGBA, width float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endLocked()
	c.active = &Stroke{
		Points: []Point{p},
		Color:  col,
		Width:  width,
	}
}

// Extend appends p to the stroke in progress.
// It reports false if no stroke is in progress.
func (c *Canvas) Extend(p Point) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return false
	}
	c.active.Points = append(c.active.Points, p)
	return true
}

// End freezes the stroke in progress and moves it to the completed list.
// It reports false if no stroke was in progress.
func (c *Canvas) End() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endLocked()
}

func (c *Canvas) endLocked() bool {
	if c.active == nil {
		return false
	}
	s := *c.active
	s.Points = s.Points[:len(s.Points):len(s.Points)]
	c.strokes = append(c.strokes, s)
	c.active = nil
	return true
}

// Clear removes every stroke, including the one in progress.
func (c *Canvas) Clear() {
	c.mu.Lock()
	c.strokes = nil
	c.active = nil
	c.mu.Unlock()
}

// Len returns the number of completed strokes.
func (c *Canvas) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.strokes)
}

// Snapshot returns the current state of the canvas.
func (c *Canvas) Snapshot() Drawing {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := Drawing{
		Strokes:    c.strokes[:len(c.strokes):len(c.strokes)],
		Background: c.background,
		ViewWidth:  c.width,
		ViewHeight: c.height,
	}
	if c.active != nil {
		pts := c.active.Points
		d.Active = &Stroke{
			Points: pts[:len(pts):len(pts)],
			Color:  c.active.Color,
			Width:  c.active.Width,
		}
	}
	return d
}
