package frame

import "image/color"

// Point is a position in view coordinates.
type Point struct {
	X, Y float64
}

// Stroke is a polyline drawn with a single color and width.
// A Stroke taken from a snapshot must not be modified.
type Stroke struct {
	Points []Point
	Color  color.NRGBA
	Width  float64
}

// Drawing is a snapshot of a freehand canvas.
type Drawing struct {
	// Strokes are the completed strokes in drawing order.
	Strokes []Stroke

	// Active is the stroke of the drag in progress, if any.
	// It is drawn after all completed strokes.
	Active *Stroke

	Background color.NRGBA

	ViewWidth  int
	ViewHeight int
}

// Kind implements State.
func (Drawing) Kind() Kind { return KindDrawing }

// ViewSize implements State.
func (d Drawing) ViewSize() (width, height int) { return d.ViewWidth, d.ViewHeight }

func (Drawing) isState() {}

// Each calls fn for every stroke in drawing order, the active stroke last.
func (d Drawing) Each(fn func(s Stroke)) {
	for _, s := range d.Strokes {
		fn(s)
	}
	if d.Active != nil {
		fn(*d.Active)
	}
}
