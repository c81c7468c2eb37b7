// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package catalog

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/google/uuid"
)

// Prefixes of the file names generated for each content mode.
const (
	PrefixText    = "VIDEO"
	PrefixDrawing = "VIDEO_DRAW"
)

// TimestampLayout formats the time part of generated file names.
const TimestampLayout = "20060102_150405"

// CoverQuality is the JPEG quality of cover images.
const CoverQuality = 70

// Namer generates output paths inside a directory.
type Namer struct {
	Dir string

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// NewPath returns <Dir>/<prefix>_yyyyMMdd_HHmmss.mp4 and reserves it by
// creating an empty file there. If the name is taken a short random suffix
// is appended, so concurrent callers never get the same path. The encoder
// writing the video replaces the empty file.
func (n Namer) NewPath(prefix string) (string, error) {
	if err := os.MkdirAll(n.Dir, 0o755); err != nil {
		return "", fmt.Errorf("catalog: create %s: %w", n.Dir, err)
	}

	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	base := fmt.Sprintf("%s_%s", prefix, now().Format(TimestampLayout))

	path := filepath.Join(n.Dir, base+".mp4")
	for {
		err := reserve(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("catalog: reserve %s: %w", path, err)
		}
		path = filepath.Join(n.Dir, fmt.Sprintf("%s_%s.mp4", base, uuid.NewString()[:8]))
	}
}

func reserve(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// CoverPath returns the cover path belonging to a video path.
func CoverPath(videoPath string) string {
	return videoPath[:len(videoPath)-len(filepath.Ext(videoPath))] + ".jpg"
}

// CoverRect returns the top region of bounds with a 4:3 aspect ratio. When
// the bounds are wider than 4:3 the full bounds are returned.
func CoverRect(bounds image.Rectangle) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	if ch := w * 3 / 4; ch < h {
		h = ch
	}
	return image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+w, bounds.Min.Y+h)
}

// WriteCover saves the top 4:3 region of img as a JPEG file.
func WriteCover(img image.Image, path string) error {
	if img == nil || img.Bounds().Empty() {
		return errors.New("catalog: empty cover image")
	}
	cover := transform.Crop(img, CoverRect(img.Bounds()))
	if err := imgio.Save(path, cover, imgio.JPEGEncoder(CoverQuality)); err != nil {
		return fmt.Errorf("catalog: write cover %s: %w", path, err)
	}
	return nil
}
