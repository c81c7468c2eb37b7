// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package imageseq writes every frame as a numbered PNG file.
//
// Importing the package registers the "imageseq" backend with the encoder
// registry at priority 10. The destination is a directory; frames are named
// frame_000001.png, frame_000002.png and so on. The backend has no external
// requirements and is meant for debugging and for systems without a video
// encoder.
package imageseq

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/gogpu/ggvideo"
	"github.com/gogpu/ggvideo/encoder"
)

// Name is the registry name of the backend.
const Name = "imageseq"

func init() {
	encoder.Register(Name, 10, Open, nil)
}

// FrameName returns the file name of frame n, counting from 1.
func FrameName(n int) string {
	return fmt.Sprintf("frame_%06d.png", n)
}

// Encoder writes frames into a directory.
type Encoder struct {
	dir     string
	surface *encoder.FrameSurface

	mu     sync.Mutex
	frames int
}

// Open creates the destination directory of cfg. An empty file at the
// destination, such as a name reserved by catalog.Namer, is replaced.
func Open(cfg encoder.Config) (encoder.Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fi, err := os.Stat(cfg.Destination); err == nil && fi.Mode().IsRegular() && fi.Size() == 0 {
		if err := os.Remove(cfg.Destination); err != nil {
			return nil, fmt.Errorf("imageseq: replace %s: %w", cfg.Destination, err)
		}
	}
	if err := os.MkdirAll(cfg.Destination, 0o755); err != nil {
		return nil, fmt.Errorf("imageseq: create %s: %w", cfg.Destination, err)
	}

	e := &Encoder{dir: cfg.Destination}
	e.surface = encoder.NewFrameSurface(cfg.Width, cfg.Height, e.write)
	return e, nil
}

// Surface returns the surface frames are drawn onto.
func (e *Encoder) Surface() encoder.Surface { return e.surface }

func (e *Encoder) write(canvas *image.RGBA) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.frames + 1
	path := filepath.Join(e.dir, FrameName(n))
	if err := imgio.Save(path, canvas, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("imageseq: write %s: %w", path, err)
	}
	e.frames = n
	return nil
}

// Frames returns the number of frames written.
func (e *Encoder) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

// Finalize releases the surface. It fails with encoder.ErrNoFrames if no
// frame was written.
func (e *Encoder) Finalize() error {
	e.surface.Release()

	n := e.Frames()
	if n == 0 {
		return fmt.Errorf("imageseq: %s: %w", e.dir, encoder.ErrNoFrames)
	}
	ggvideo.Logger().Debug("imageseq: sequence complete", "dir", e.dir, "frames", n)
	return nil
}

// Close releases the surface.
func (e *Encoder) Close() error {
	e.surface.Release()
	return nil
}
