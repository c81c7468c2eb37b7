package frame

import (
	"image/color"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindText, "text"},
		{KindDrawing, "drawing"},
		{Kind(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
			}
			if tt.want == "unknown" {
				return
			}
			k, ok := ParseKind(tt.want)
			if !ok || k != tt.kind {
				t.Errorf("ParseKind(%q) = %v, %v", tt.want, k, ok)
			}
		})
	}
}

func TestKindText(t *testing.T) {
	b, err := KindDrawing.MarshalText()
	if err != nil || string(b) != "drawing" {
		t.Fatalf("MarshalText() = %q, %v", b, err)
	}
	var k Kind
	if err := k.UnmarshalText([]byte("text")); err != nil || k != KindText {
		t.Errorf("UnmarshalText(text) = %v, %v", k, err)
	}
	if err := k.UnmarshalText([]byte("video")); err == nil {
		t.Error("UnmarshalText(video) should fail")
	}
	if _, err := Kind(7).MarshalText(); err == nil {
		t.Error("MarshalText of invalid kind should fail")
	}
}

func TestTextSelection(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		start, end int
		wantStart  int
		wantEnd    int
	}{
		{"caret", "Hello", 2, 2, 2, 2},
		{"range", "Hello", 1, 4, 1, 4},
		{"inverted", "Hello", 4, 1, 1, 4},
		{"negative", "Hello", -3, 2, 0, 2},
		{"past end", "Hello", 3, 99, 3, 5},
		{"both past end", "Hello", 7, 9, 5, 5},
		{"runes not bytes", "héllo", 0, 5, 0, 5},
		{"empty", "", 1, 2, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Text{Content: tt.content, SelStart: tt.start, SelEnd: tt.end}
			s, e := st.Selection()
			if s != tt.wantStart || e != tt.wantEnd {
				t.Errorf("Selection() = (%d, %d), want (%d, %d)", s, e, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestStateVariants(t *testing.T) {
	var states = []State{DefaultText(), Drawing{ViewWidth: 10, ViewHeight: 20}}
	if states[0].Kind() != KindText || states[1].Kind() != KindDrawing {
		t.Fatal("unexpected kinds")
	}
	if w, h := states[0].ViewSize(); w != 1080 || h != 1920 {
		t.Errorf("DefaultText().ViewSize() = %dx%d, want 1080x1920", w, h)
	}
	if w, h := states[1].ViewSize(); w != 10 || h != 20 {
		t.Errorf("Drawing.ViewSize() = %dx%d, want 10x20", w, h)
	}
}

func TestCanvasStrokeLifecycle(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	c := NewCanvas(White)

	if c.Extend(Point{1, 1}) {
		t.Error("Extend without Begin should report false")
	}
	if c.End() {
		t.Error("End without Begin should report false")
	}

	c.Begin(Point{0, 0}, red, 4)
	c.Extend(Point{10, 0})

	snap := c.Snapshot()
	if len(snap.Strokes) != 0 {
		t.Fatalf("completed strokes = %d, want 0", len(snap.Strokes))
	}
	if snap.Active == nil || len(snap.Active.Points) != 2 {
		t.Fatalf("active stroke = %+v, want 2 points", snap.Active)
	}

	// Appending after the snapshot must not be visible through it.
	c.Extend(Point{20, 0})
	if len(snap.Active.Points) != 2 {
		t.Errorf("snapshot saw later append: %d points", len(snap.Active.Points))
	}

	if !c.End() {
		t.Fatal("End should report true")
	}
	snap = c.Snapshot()
	if snap.Active != nil {
		t.Error("active stroke should be nil after End")
	}
	if len(snap.Strokes) != 1 || len(snap.Strokes[0].Points) != 3 {
		t.Fatalf("completed = %+v, want one stroke of 3 points", snap.Strokes)
	}
	if snap.Strokes[0].Color != red || snap.Strokes[0].Width != 4 {
		t.Errorf("stroke style = %v/%v, want red/4", snap.Strokes[0].Color, snap.Strokes[0].Width)
	}
}

func TestCanvasSnapshotIsolation(t *testing.T) {
	c := NewCanvas(White)
	c.Begin(Point{0, 0}, Black, 1)
	c.End()

	snap := c.Snapshot()
	c.Begin(Point{5, 5}, Black, 1)
	c.End()

	if len(snap.Strokes) != 1 {
		t.Errorf("old snapshot strokes = %d, want 1", len(snap.Strokes))
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCanvasBeginEndsPrevious(t *testing.T) {
	c := NewCanvas(White)
	c.Begin(Point{0, 0}, Black, 1)
	c.Begin(Point{1, 1}, Black, 1)
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after implicit end", c.Len())
	}
	c.Clear()
	snap := c.Snapshot()
	if len(snap.Strokes) != 0 || snap.Active != nil {
		t.Errorf("snapshot after Clear = %+v, want empty", snap)
	}
}

func TestDrawingEachOrder(t *testing.T) {
	d := Drawing{
		Strokes: []Stroke{{Width: 1}, {Width: 2}},
		Active:  &Stroke{Width: 3},
	}
	var widths []float64
	d.Each(func(s Stroke) { widths = append(widths, s.Width) })
	if len(widths) != 3 || widths[0] != 1 || widths[1] != 2 || widths[2] != 3 {
		t.Errorf("Each order = %v, want [1 2 3]", widths)
	}
}
