// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/ggvideo/internal/cache"
)

// MaxFaces bounds the number of faces a FontSet keeps.
const MaxFaces = 32

// FontSet holds the four styles of one font family and hands out faces.
//
// The MaxFaces most recently used faces are cached per size and style, so
// repeated requests return the same face value. Layout caching relies on
// that.
type FontSet struct {
	sources [4]*text.FontSource
	faces   *cache.Cache[faceKey, text.Face]
}

type faceKey struct {
	size  float64
	style int
}

const (
	styleRegular = iota
	styleBold
	styleItalic
	styleBoldItalic
)

// DefaultFonts returns the Go font family.
func DefaultFonts() (*FontSet, error) {
	return newFontSet([4][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF})
}

// LoadFonts loads a font family from TTF or OTF files.
// An empty path falls back to the matching Go font.
func LoadFonts(regular, bold, italic, boldItalic string) (*FontSet, error) {
	fallback := [4][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF}
	fs := &FontSet{faces: cache.New[faceKey, text.Face](MaxFaces, nil)}
	for i, path := range [4]string{regular, bold, italic, boldItalic} {
		var (
			src *text.FontSource
			err error
		)
		if path == "" {
			src, err = text.NewFontSource(fallback[i])
		} else {
			src, err = text.NewFontSourceFromFile(path)
		}
		if err != nil {
			_ = fs.Close()
			return nil, fmt.Errorf("render: load font %q: %w", path, err)
		}
		fs.sources[i] = src
	}
	return fs, nil
}

func newFontSet(data [4][]byte) (*FontSet, error) {
	fs := &FontSet{faces: cache.New[faceKey, text.Face](MaxFaces, nil)}
	for i, d := range data {
		src, err := text.NewFontSource(d)
		if err != nil {
			_ = fs.Close()
			return nil, fmt.Errorf("render: parse font: %w", err)
		}
		fs.sources[i] = src
	}
	return fs, nil
}

// Face returns a face of the given size and style.
func (fs *FontSet) Face(size float64, bold, italic bool) text.Face {
	style := styleRegular
	switch {
	case bold && italic:
		style = styleBoldItalic
	case bold:
		style = styleBold
	case italic:
		style = styleItalic
	}

	return fs.faces.GetOrCreate(faceKey{size: size, style: style}, func() text.Face {
		return fs.sources[style].Face(size, text.WithHinting(text.HintingNone))
	})
}

// Close releases the font sources.
func (fs *FontSet) Close() error {
	fs.faces.Purge()
	var errs []error
	for _, src := range fs.sources {
		if src != nil {
			errs = append(errs, src.Close())
		}
	}
	return errors.Join(errs...)
}
