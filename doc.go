// Package ggvideo records animated text and drawings as video.
//
// The pipeline has three stages. A producer turns user input into
// frame.State snapshots; a renderer from package render rasterizes each
// snapshot at the size of the on-screen view and aspect-fits it to the
// output resolution; the Recorder encodes the latest image at a constant
// frame rate through an encoder backend.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/ggvideo"
//	    _ "github.com/gogpu/ggvideo/encoder/gstenc"
//	    "github.com/gogpu/ggvideo/frame"
//	    "github.com/gogpu/ggvideo/render"
//	)
//
//	fonts, _ := render.DefaultFonts()
//	tr := render.NewTextRenderer(fonts)
//
//	rec := ggvideo.NewRecorder()
//	if err := rec.Start("hello.mp4"); err != nil {
//	    log.Fatal(err)
//	}
//	st := frame.DefaultText()
//	for _, r := range "Hello, World!" {
//	    st.Content += string(r)
//	    st.SelStart, st.SelEnd = st.Len(), st.Len()
//	    img, _ := tr.Render(st)
//	    rec.UpdateFrame(img)
//	    time.Sleep(100 * time.Millisecond)
//	}
//	if err := rec.Stop(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Timing
//
// The recorder does not encode one frame per update. Its pump goroutine
// checks the clock every tick (5 ms by default) and draws a frame whenever
// a full frame period has elapsed, reusing the last image when nothing
// changed. Frame timing is therefore independent of how often the content
// changes, and updates arriving faster than the frame rate are coalesced.
//
// # Logging
//
// ggvideo is silent by default. Call SetLogger to route its log/slog output.
package ggvideo
