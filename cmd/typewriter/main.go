// Command typewriter records a video of a text file being typed.
//
// Usage:
//
//	typewriter -in poem.txt -out poem.mp4
//
// The caret follows the last typed character and the view scrolls to keep
// it visible. After the last character the final frame is held for -hold
// before the recording stops.
package main

import (
	"flag"
	"image"
	"log"
	"log/slog"
	"math"
	"os"
	"time"
	"unicode/utf8"

	"github.com/gogpu/ggvideo"
	"github.com/gogpu/ggvideo/catalog"
	_ "github.com/gogpu/ggvideo/encoder/gstenc"
	_ "github.com/gogpu/ggvideo/encoder/imageseq"
	"github.com/gogpu/ggvideo/frame"
	"github.com/gogpu/ggvideo/render"
)

func main() {
	var (
		in      = flag.String("in", "", "text file to type (required)")
		out     = flag.String("out", "typewriter.mp4", "output file or directory")
		backend = flag.String("backend", "", "encoder backend (empty picks the best available)")
		width   = flag.Int("width", ggvideo.DefaultWidth, "video width")
		height  = flag.Int("height", ggvideo.DefaultHeight, "video height")
		fps     = flag.Int("fps", ggvideo.DefaultFrameRate, "frames per second")
		cps     = flag.Float64("cps", 15, "characters typed per second")
		size    = flag.Float64("size", 48, "text size in pixels")
		padding = flag.Int("padding", 32, "text padding in pixels")
		hold    = flag.Duration("hold", 2*time.Second, "how long the final frame is held")
		cover   = flag.String("cover", "", "write a JPEG cover of the final frame to this file")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *in == "" || *cps <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	lvl := slog.LevelInfo
	if *verbose {
		lvl = slog.LevelDebug
	}
	ggvideo.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	if !utf8.Valid(data) {
		log.Fatalf("Input %s is not UTF-8 text", *in)
	}

	fonts, err := render.DefaultFonts()
	if err != nil {
		log.Fatalf("Failed to load fonts: %v", err)
	}
	defer fonts.Close()

	rnd := render.NewTextRenderer(fonts, render.WithOutputSize(*width, *height))
	rec := ggvideo.NewRecorder(
		ggvideo.WithOutputSize(*width, *height),
		ggvideo.WithFrameRate(*fps),
		ggvideo.WithBackend(*backend),
	)

	st := frame.DefaultText()
	st.ViewWidth, st.ViewHeight = *width, *height
	st.Size = *size
	st.Padding = *padding

	last, err := rnd.Render(st)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	rec.UpdateFrame(last)

	if err := rec.Start(*out); err != nil {
		log.Fatalf("Failed to start recording: %v", err)
	}

	last = typeText(rec, rnd, st, []rune(string(data)), *cps)
	time.Sleep(*hold)

	if err := rec.Stop(); err != nil {
		log.Fatalf("Failed to finish recording: %v", err)
	}

	stats := rec.Stats()
	log.Printf("Recorded %s: %d frames, %d edits overwritten", *out, stats.Frames, stats.Overwritten)

	if *cover != "" && last != nil {
		if err := catalog.WriteCover(last, *cover); err != nil {
			log.Fatalf("Failed to write cover: %v", err)
		}
	}
}

// typeText reveals text one rune at a time at cps runes per second and
// returns the last rendered image.
func typeText(rec *ggvideo.Recorder, rnd *render.TextRenderer, st frame.Text, text []rune, cps float64) *image.RGBA {
	interval := time.Duration(float64(time.Second) / cps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *image.RGBA
	for i := 1; i <= len(text); i++ {
		<-ticker.C
		st.Content = string(text[:i])
		st.SelStart, st.SelEnd = i, i
		st.ScrollY += overflow(rnd.Plan(st))

		img, err := rnd.Render(st)
		if err != nil {
			ggvideo.Logger().Warn("typewriter: render", "offset", i, "error", err)
			continue
		}
		rec.UpdateFrame(img)
		last = img
	}
	return last
}

// overflow returns how far the caret of plan extends below the view.
func overflow(plan *render.TextPlan) int {
	if plan.Caret == nil {
		return 0
	}
	below := plan.Caret.Y + plan.Caret.H - float64(plan.Height)
	if below <= 0 {
		return 0
	}
	return int(math.Ceil(below))
}
