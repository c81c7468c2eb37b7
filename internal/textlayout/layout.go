// Package textlayout computes line tables for multi-line text.
//
// A Layout answers the questions a text field renderer needs: which line
// lies at a vertical position, where a line starts and ends, and where a
// caret at a given offset is drawn. All offsets are rune offsets into the
// laid out string.
//
// Line breaking is delegated to text.WrapText from gg. Lines are then
// normalized so that they tile the string without gaps: a line ends where
// the next one starts, so trailing spaces and the terminating newline
// belong to the line they follow. A string ending in a newline has an empty
// last line.
package textlayout

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/gogpu/gg/text"
)

// MinWidth is the smallest wrap width a Layout uses.
const MinWidth = 100

// Line is one laid out line.
type Line struct {
	// Start and End are rune offsets; End is the Start of the next line.
	Start, End int

	Top, Bottom float64

	// Baseline is the y coordinate text of this line is drawn at.
	Baseline float64
}

// Layout is the line table of a string laid out with one face at one width.
// A Layout is immutable and safe for concurrent use.
type Layout struct {
	runes      []rune
	lines      []Line
	face       text.Face
	width      float64
	lineHeight float64
}

// New lays out s with face, wrapping lines at width pixels.
// Widths below MinWidth are raised to MinWidth.
func New(s string, face text.Face, width float64) *Layout {
	width = math.Max(width, MinWidth)
	runes := []rune(s)

	m := face.Metrics()
	lh := math.Ceil(m.LineHeight())
	if lh <= 0 {
		lh = math.Ceil(face.Size())
	}

	l := &Layout{
		runes:      runes,
		face:       face,
		width:      width,
		lineHeight: lh,
	}

	starts := l.lineStarts()
	l.lines = make([]Line, len(starts))
	for i, start := range starts {
		end := len(runes)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		top := float64(i) * lh
		l.lines[i] = Line{
			Start:    start,
			End:      end,
			Top:      top,
			Bottom:   top + lh,
			Baseline: top + math.Round(m.Ascent),
		}
	}
	return l
}

// lineStarts returns the rune offset of every line start, in order.
func (l *Layout) lineStarts() []int {
	starts := make([]int, 0, 8)
	pStart := 0
	for i := 0; i <= len(l.runes); i++ {
		if i < len(l.runes) && l.runes[i] != '\n' {
			continue
		}
		starts = append(starts, l.wrapParagraph(pStart, i)...)
		pStart = i + 1
	}
	return starts
}

// wrapParagraph returns the line starts of the paragraph runes[start:end],
// which contains no newline.
func (l *Layout) wrapParagraph(start, end int) []int {
	if start == end {
		return []int{start}
	}

	para := measurable(l.runes[start:end])
	results := text.WrapText(para, l.face, l.width, text.WrapWordChar)

	starts := make([]int, 0, len(results))
	starts = append(starts, start)
	for _, r := range results[min(1, len(results)):] {
		off := start + utf8.RuneCountInString(para[:r.Start])
		if off > starts[len(starts)-1] && off < end {
			starts = append(starts, off)
		}
	}
	return starts
}

// measurable converts runes to a string safe to measure and draw: carriage
// returns and newlines become spaces so they neither split paragraphs nor
// render as missing glyphs. The rune count is unchanged.
func measurable(rs []rune) string {
	buf := make([]rune, len(rs))
	for i, r := range rs {
		switch r {
		case '\r', '\n':
			buf[i] = ' '
		default:
			buf[i] = r
		}
	}
	return string(buf)
}

// Len returns the length of the laid out string in runes.
func (l *Layout) Len() int { return len(l.runes) }

// LineCount returns the number of lines. It is at least 1.
func (l *Layout) LineCount() int { return len(l.lines) }

// LineHeight returns the height of every line.
func (l *Layout) LineHeight() float64 { return l.lineHeight }

// Height returns the total height of the layout.
func (l *Layout) Height() float64 { return float64(len(l.lines)) * l.lineHeight }

// Width returns the wrap width.
func (l *Layout) Width() float64 { return l.width }

// Line returns line i, clamped to the valid range.
func (l *Layout) Line(i int) Line { return l.lines[l.clampLine(i)] }

// LineStart returns the rune offset line i starts at.
func (l *Layout) LineStart(i int) int { return l.Line(i).Start }

// LineEnd returns the rune offset line i ends at.
func (l *Layout) LineEnd(i int) int { return l.Line(i).End }

// LineTop returns the top of line i.
func (l *Layout) LineTop(i int) float64 { return l.Line(i).Top }

// LineBottom returns the bottom of line i.
func (l *Layout) LineBottom(i int) float64 { return l.Line(i).Bottom }

// LineForVertical returns the line at vertical position y.
// Positions above the first line map to line 0 and positions below the
// last line map to the last line.
func (l *Layout) LineForVertical(y float64) int {
	if y <= 0 {
		return 0
	}
	return l.clampLine(int(math.Floor(y / l.lineHeight)))
}

// LineForOffset returns the line containing rune offset off.
// An offset equal to a line's start belongs to that line; the end of the
// string belongs to the last line.
func (l *Layout) LineForOffset(off int) int {
	// First line whose start is past off, minus one.
	i := sort.Search(len(l.lines), func(i int) bool { return l.lines[i].Start > off })
	return l.clampLine(i - 1)
}

// Horizontal returns the x position of rune offset off measured from the
// start of line i. Offsets outside the line are clamped to it; a
// terminating newline has no width.
func (l *Layout) Horizontal(i int, off int) float64 {
	line := l.Line(i)
	end := l.contentEnd(line)
	off = max(line.Start, min(off, end))
	if off == line.Start {
		return 0
	}
	return l.face.Advance(measurable(l.runes[line.Start:off]))
}

// PrimaryHorizontal returns the x position of a caret at rune offset off.
func (l *Layout) PrimaryHorizontal(off int) float64 {
	return l.Horizontal(l.LineForOffset(off), off)
}

// LineText returns the drawable text of line i, without its newline.
func (l *Layout) LineText(i int) string {
	line := l.Line(i)
	return measurable(l.runes[line.Start:l.contentEnd(line)])
}

// Substring returns the runes in [start, end) as a string. Offsets are
// clamped to the string.
func (l *Layout) Substring(start, end int) string {
	start = max(0, min(start, len(l.runes)))
	end = max(start, min(end, len(l.runes)))
	return string(l.runes[start:end])
}

// contentEnd returns the end of line without a terminating newline.
func (l *Layout) contentEnd(line Line) int {
	if line.End > line.Start && l.runes[line.End-1] == '\n' {
		return line.End - 1
	}
	return line.End
}

func (l *Layout) clampLine(i int) int {
	return max(0, min(i, len(l.lines)-1))
}
