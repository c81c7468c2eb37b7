// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render rasterizes application state into frames for the recorder.
//
// Each renderer draws a frame.State at the size of the on-screen view it was
// captured from, then aspect-fits the result to the fixed output size of the
// encoder. Drawing uses a gg.Context over a CPU pixmap; text is laid out with
// internal/textlayout and drawn with gg's text package.
//
// # Renderers
//
//   - TextRenderer: the visible window of a scrolled text field, with the
//     selection highlighted under the glyphs and a caret for a collapsed
//     selection
//   - DrawingRenderer: freehand strokes over a solid background
//   - Compositor: dispatches on the state variant
//
// # Usage
//
//	fonts, _ := render.DefaultFonts()
//	comp := render.NewCompositor(fonts, render.WithOutputSize(960, 1280))
//	img, err := comp.Render(state)
//	if err == nil {
//		recorder.UpdateFrame(img)
//	}
//
// Renderers are safe for concurrent use.
package render
