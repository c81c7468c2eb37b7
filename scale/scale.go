// Package scale resizes frames to the encoder resolution.
//
// Scaling is always aspect-fit: the result preserves the aspect ratio of
// the source and fits entirely inside the target box. It never crops and
// never stretches.
package scale

import (
	"image"

	"golang.org/x/image/draw"
)

// Fit returns the size of a srcW x srcH image scaled to fit inside a
// dstW x dstH box.
//
// The image is first scaled by the width ratio; if either resulting
// dimension exceeds the box it is scaled by the height ratio instead.
// Dimensions are floor-truncated with exact integer arithmetic, so the
// result never exceeds the box, and are at least 1. Degenerate inputs
// yield (0, 0).
func Fit(srcW, srcH, dstW, dstH int) (w, h int) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return 0, 0
	}

	// Scaled by dstW/srcW.
	w = dstW
	h = mulDiv(srcH, dstW, srcW)

	if w > dstW || h > dstH {
		// Scaled by dstH/srcH.
		w = mulDiv(srcW, dstH, srcH)
		h = dstH
	}

	return max(w, 1), max(h, 1)
}

// mulDiv returns floor(a*b/c) for non-negative operands.
func mulDiv(a, b, c int) int {
	return int(int64(a) * int64(b) / int64(c))
}

// AspectFit returns img resampled to the size computed by Fit.
// Resampling uses a Catmull-Rom filter to avoid aliasing on downscale.
// The source image is not modified. If img already has the fitted size it
// is copied without resampling.
func AspectFit(img image.Image, dstW, dstH int) *image.RGBA {
	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), dstW, dstH)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	if w == b.Dx() && h == b.Dy() {
		draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
		return out
	}

	draw.CatmullRom.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}

// Center returns the top-left corner at which an image of size w x h is
// drawn so that it is centered in a boxW x boxH box. Offsets are truncated
// toward zero and may be negative when the image is larger than the box.
func Center(w, h, boxW, boxH int) image.Point {
	return image.Pt((boxW-w)/2, (boxH-h)/2)
}
