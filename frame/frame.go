// Package frame defines the immutable UI-state snapshots that are turned
// into video frames.
//
// A State is either a [Text] snapshot of an editable text field or a
// [Drawing] snapshot of a freehand canvas. Snapshots are values: once handed
// to a renderer they are never modified, so they can be passed between
// goroutines without copying.
package frame

import (
	"fmt"
	"image/color"
)

// Kind identifies the content mode of a State.
type Kind uint8

const (
	// KindText is a text-editing snapshot.
	KindText Kind = iota

	// KindDrawing is a freehand drawing snapshot.
	KindDrawing
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindDrawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// ParseKind converts a string produced by Kind.String back to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "text":
		return KindText, true
	case "drawing":
		return KindDrawing, true
	default:
		return 0, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k > KindDrawing {
		return nil, fmt.Errorf("frame: invalid kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("frame: unknown kind %q", b)
	}
	*k = v
	return nil
}

// State is a snapshot of editable content used to synthesize one frame.
// The set of implementations is closed: Text and Drawing.
type State interface {
	// Kind reports which variant the state is.
	Kind() Kind

	// ViewSize returns the size of the on-screen view the state was taken
	// from. Zero values mean the size is unknown.
	ViewSize() (width, height int)

	isState()
}

// Common colors used by the default states.
var (
	White = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Black = color.NRGBA{A: 0xff}
)
