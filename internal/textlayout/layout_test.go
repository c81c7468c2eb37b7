package textlayout

import (
	"strings"
	"testing"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

func testFace(t *testing.T, size float64) text.Face {
	t.Helper()
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		t.Fatalf("NewFontSource: %v", err)
	}
	return src.Face(size, text.WithHinting(text.HintingNone))
}

// checkTiling verifies that lines cover [0, Len) without gaps or overlap.
func checkTiling(t *testing.T, l *Layout) {
	t.Helper()
	if l.LineCount() < 1 {
		t.Fatal("layout has no lines")
	}
	if l.LineStart(0) != 0 {
		t.Errorf("first line starts at %d, want 0", l.LineStart(0))
	}
	for i := 0; i < l.LineCount()-1; i++ {
		if l.LineEnd(i) != l.LineStart(i+1) {
			t.Errorf("line %d ends at %d, line %d starts at %d", i, l.LineEnd(i), i+1, l.LineStart(i+1))
		}
		if l.LineStart(i) >= l.LineEnd(i) && l.LineEnd(i) != l.Len() {
			t.Errorf("line %d is empty: [%d, %d)", i, l.LineStart(i), l.LineEnd(i))
		}
	}
	if got := l.LineEnd(l.LineCount() - 1); got != l.Len() {
		t.Errorf("last line ends at %d, want %d", got, l.Len())
	}
}

func TestEmptyString(t *testing.T) {
	l := New("", testFace(t, 24), 500)
	if l.LineCount() != 1 {
		t.Fatalf("LineCount() = %d, want 1", l.LineCount())
	}
	if l.LineStart(0) != 0 || l.LineEnd(0) != 0 {
		t.Errorf("line 0 = [%d, %d), want [0, 0)", l.LineStart(0), l.LineEnd(0))
	}
	if got := l.PrimaryHorizontal(0); got != 0 {
		t.Errorf("PrimaryHorizontal(0) = %v, want 0", got)
	}
}

func TestNewlines(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		starts []int
	}{
		{"single line", "Hello", []int{0}},
		{"two paragraphs", "ab\ncd", []int{0, 3}},
		{"trailing newline", "abc\n", []int{0, 4}},
		{"blank line", "a\n\nb", []int{0, 2, 3}},
		{"only newlines", "\n\n", []int{0, 1, 2}},
		{"carriage return is not a break", "a\r\nb", []int{0, 3}},
	}
	face := testFace(t, 24)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.s, face, 1000)
			checkTiling(t, l)
			if l.LineCount() != len(tt.starts) {
				t.Fatalf("LineCount() = %d, want %d", l.LineCount(), len(tt.starts))
			}
			for i, want := range tt.starts {
				if got := l.LineStart(i); got != want {
					t.Errorf("LineStart(%d) = %d, want %d", i, got, want)
				}
			}
		})
	}
}

func TestWrapping(t *testing.T) {
	face := testFace(t, 24)
	s := strings.Repeat("word ", 60)
	l := New(s, face, 300)

	if l.LineCount() < 2 {
		t.Fatalf("LineCount() = %d, want wrapped text", l.LineCount())
	}
	checkTiling(t, l)

	for i := 0; i < l.LineCount(); i++ {
		line := strings.TrimRight(l.LineText(i), " ")
		if w := face.Advance(line); w > l.Width()+2 {
			t.Errorf("line %d %q is %.1f wide, wrap width %.1f", i, line, w, l.Width())
		}
		if i > 0 && !strings.HasPrefix(l.LineText(i), "word") {
			t.Errorf("line %d = %q, want to start at a word", i, l.LineText(i))
		}
	}
}

func TestWrapLongWord(t *testing.T) {
	l := New(strings.Repeat("x", 200), testFace(t, 24), 200)
	if l.LineCount() < 2 {
		t.Fatalf("LineCount() = %d, want long word broken", l.LineCount())
	}
	checkTiling(t, l)
}

func TestMinWidth(t *testing.T) {
	l := New("Hello", testFace(t, 12), -50)
	if l.Width() != MinWidth {
		t.Errorf("Width() = %v, want %v", l.Width(), float64(MinWidth))
	}
}

func TestLineGeometry(t *testing.T) {
	face := testFace(t, 30)
	l := New("one\ntwo\nthree", face, 1000)

	lh := l.LineHeight()
	if lh <= 0 {
		t.Fatalf("LineHeight() = %v", lh)
	}
	for i := 0; i < l.LineCount(); i++ {
		if got, want := l.LineTop(i), float64(i)*lh; got != want {
			t.Errorf("LineTop(%d) = %v, want %v", i, got, want)
		}
		if got, want := l.LineBottom(i), float64(i+1)*lh; got != want {
			t.Errorf("LineBottom(%d) = %v, want %v", i, got, want)
		}
		line := l.Line(i)
		if line.Baseline <= line.Top || line.Baseline >= line.Bottom {
			t.Errorf("line %d baseline %v outside [%v, %v)", i, line.Baseline, line.Top, line.Bottom)
		}
	}
	if got, want := l.Height(), 3*lh; got != want {
		t.Errorf("Height() = %v, want %v", got, want)
	}
}

func TestLineForVertical(t *testing.T) {
	l := New("a\nb\nc", testFace(t, 20), 1000)
	lh := l.LineHeight()
	tests := []struct {
		y    float64
		want int
	}{
		{-100, 0},
		{0, 0},
		{lh - 0.5, 0},
		{lh, 1},
		{2.5 * lh, 2},
		{100 * lh, 2},
	}
	for _, tt := range tests {
		if got := l.LineForVertical(tt.y); got != tt.want {
			t.Errorf("LineForVertical(%v) = %d, want %d", tt.y, got, tt.want)
		}
	}
}

func TestLineForOffset(t *testing.T) {
	l := New("ab\ncd\n", testFace(t, 20), 1000)
	tests := []struct {
		off  int
		want int
	}{
		{-1, 0},
		{0, 0},
		{2, 0}, // the newline itself
		{3, 1},
		{5, 1},
		{6, 2}, // end of string after the trailing newline
		{99, 2},
	}
	for _, tt := range tests {
		if got := l.LineForOffset(tt.off); got != tt.want {
			t.Errorf("LineForOffset(%d) = %d, want %d", tt.off, got, tt.want)
		}
	}
}

func TestHorizontal(t *testing.T) {
	face := testFace(t, 24)
	l := New("héllo\nab", face, 1000)

	if got := l.Horizontal(0, 0); got != 0 {
		t.Errorf("Horizontal(0, 0) = %v, want 0", got)
	}
	if got, want := l.Horizontal(0, 2), face.Advance("hé"); got != want {
		t.Errorf("Horizontal(0, 2) = %v, want %v", got, want)
	}
	// The newline at offset 5 contributes no width.
	full := face.Advance("héllo")
	if got := l.Horizontal(0, 6); got != full {
		t.Errorf("Horizontal(0, 6) = %v, want %v", got, full)
	}
	if got := l.PrimaryHorizontal(6); got != 0 {
		t.Errorf("PrimaryHorizontal(6) = %v, want 0 at start of line 1", got)
	}
	if got, want := l.PrimaryHorizontal(8), face.Advance("ab"); got != want {
		t.Errorf("PrimaryHorizontal(8) = %v, want %v", got, want)
	}
}

func TestHorizontalMonotonic(t *testing.T) {
	l := New(strings.Repeat("The quick brown fox. ", 20), testFace(t, 18), 400)
	for i := 0; i < l.LineCount(); i++ {
		prev := -1.0
		for off := l.LineStart(i); off <= l.LineEnd(i); off++ {
			x := l.Horizontal(i, off)
			if x < prev {
				t.Fatalf("line %d: Horizontal decreased at %d (%v < %v)", i, off, x, prev)
			}
			prev = x
		}
	}
}

func TestLineText(t *testing.T) {
	l := New("ab\r\ncd", testFace(t, 20), 1000)
	if got := l.LineText(0); got != "ab " {
		t.Errorf("LineText(0) = %q, want %q", got, "ab ")
	}
	if got := l.LineText(1); got != "cd" {
		t.Errorf("LineText(1) = %q, want %q", got, "cd")
	}
	if got := l.Substring(1, 100); got != "b\r\ncd" {
		t.Errorf("Substring(1, 100) = %q", got)
	}
	if got := l.Substring(4, 2); got != "" {
		t.Errorf("Substring(4, 2) = %q, want empty", got)
	}
}
