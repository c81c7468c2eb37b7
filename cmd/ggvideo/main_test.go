package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/gogpu/ggvideo/config"
	"github.com/gogpu/ggvideo/frame"
	"github.com/gogpu/ggvideo/render"
	"github.com/gogpu/ggvideo/session"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"text", "JSON"} {
		l, err := newLogger(config.Log{Level: "warn", Format: format})
		if err != nil {
			t.Fatalf("newLogger(%s): %v", format, err)
		}
		if l.Enabled(context.Background(), slog.LevelInfo) {
			t.Errorf("%s logger enables info at level warn", format)
		}
	}
	if _, err := newLogger(config.Log{Level: "info", Format: "xml"}); err == nil {
		t.Error("newLogger accepted format xml")
	}
	if _, err := newLogger(config.Log{Level: "chatty", Format: "text"}); err == nil {
		t.Error("newLogger accepted level chatty")
	}
}

func TestFactoryAppliesTextDefaults(t *testing.T) {
	fonts, err := render.DefaultFonts()
	if err != nil {
		t.Fatal(err)
	}
	defer fonts.Close()

	cfg := config.Default()
	cfg.Text.FontSize = 30
	cfg.Text.Padding = 7
	cfg.Video.Width, cfg.Video.Height = 96, 128
	f := &factory{
		cfg: cfg,
		rnd: &sharedRenderer{c: render.NewCompositor(fonts, render.WithOutputSize(96, 128))},
	}
	s, err := f.NewText()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	st := s.State()
	if st.Size != 30 || st.Padding != 7 {
		t.Errorf("text state size=%v padding=%d, want 30 and 7", st.Size, st.Padding)
	}

	img, err := f.rnd.Render(frame.DefaultText())
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dy() != 128 || b.Dx() > 96 {
		t.Errorf("render bounds = %v, want height 128 within width 96", b)
	}
}

func TestFactoryBoundsViewSize(t *testing.T) {
	cfg := config.Default()
	cfg.Video.MaxViewSize = 500
	f := &factory{cfg: cfg, rnd: &sharedRenderer{}}

	d, err := f.NewDrawing()
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.SetViewSize(501, 10); !errors.Is(err, session.ErrInvalidUpdate) {
		t.Errorf("SetViewSize(501, 10) = %v, want ErrInvalidUpdate", err)
	}
	if err := d.SetViewSize(500, 500); err != nil {
		t.Errorf("SetViewSize(500, 500) = %v", err)
	}
}
