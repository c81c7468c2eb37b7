// Command ggvideo serves the recording UI backend: the video catalog over
// HTTP and live text and drawing sessions over websockets.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/gogpu/ggvideo"
	"github.com/gogpu/ggvideo/catalog"
	"github.com/gogpu/ggvideo/config"
	_ "github.com/gogpu/ggvideo/encoder/gstenc"
	_ "github.com/gogpu/ggvideo/encoder/imageseq"
	"github.com/gogpu/ggvideo/frame"
	"github.com/gogpu/ggvideo/internal/server"
	"github.com/gogpu/ggvideo/render"
	"github.com/gogpu/ggvideo/session"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML configuration file")
		addr       = flag.String("addr", "", "listen address")
		dir        = flag.String("dir", "", "video directory")
		backend    = flag.String("backend", "", "encoder backend (empty picks the best available)")
		fps        = flag.Int("fps", 0, "frames per second")
		logLevel   = flag.String("log-level", "", "log level: debug, info, warn, error")
		logFormat  = flag.String("log-format", "", "log format: text or json")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "dir":
			cfg.Storage.Dir = *dir
		case "backend":
			cfg.Video.Backend = *backend
		case "fps":
			cfg.Video.FrameRate = *fps
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})
	if err := cfg.Expand(); err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config) error {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	ggvideo.SetLogger(logger)

	fonts, err := render.LoadFonts(cfg.Text.RegularFont, cfg.Text.BoldFont, cfg.Text.ItalicFont, cfg.Text.BoldItalicFont)
	if err != nil {
		return err
	}
	defer fonts.Close()

	store, err := catalog.Open(cfg.Storage.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	f := &factory{
		cfg:   cfg,
		store: store,
		namer: catalog.Namer{Dir: cfg.Storage.Dir},
		rnd: &sharedRenderer{
			c: render.NewCompositor(fonts, render.WithOutputSize(cfg.Video.Width, cfg.Video.Height)),
		},
	}

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Catalog:        store,
		Factory:        f,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}

func newLogger(c config.Log) (*slog.Logger, error) {
	lvl, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(c.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Format)
	}
}

// factory builds one recorder and session per websocket connection.
type factory struct {
	cfg   config.Config
	store *catalog.Store
	namer catalog.Namer
	rnd   session.Renderer
}

func (f *factory) recorder() *ggvideo.Recorder {
	return ggvideo.NewRecorder(
		ggvideo.WithOutputSize(f.cfg.Video.Width, f.cfg.Video.Height),
		ggvideo.WithFrameRate(f.cfg.Video.FrameRate),
		ggvideo.WithBackend(f.cfg.Video.Backend),
		ggvideo.WithStopTimeout(f.cfg.Video.Timeout.Duration),
	)
}

func (f *factory) NewText() (*session.Text, error) {
	init := frame.DefaultText()
	init.Size = f.cfg.Text.FontSize
	init.Padding = f.cfg.Text.Padding
	return session.NewText(f.recorder(), f.rnd, f.namer,
		session.WithCatalog(f.store),
		session.WithMaxViewSize(f.cfg.Video.MaxViewSize),
		session.WithText(init),
	), nil
}

func (f *factory) NewDrawing() (*session.Drawing, error) {
	return session.NewDrawing(f.recorder(), f.rnd, f.namer,
		session.WithCatalog(f.store),
		session.WithMaxViewSize(f.cfg.Video.MaxViewSize),
	), nil
}

// sharedRenderer serializes renders of concurrent sessions on one
// compositor, so they share its font faces and layout cache.
type sharedRenderer struct {
	mu sync.Mutex
	c  *render.Compositor
}

func (r *sharedRenderer) Render(st frame.State) (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.c.Render(st)
}
