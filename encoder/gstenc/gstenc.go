// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gstenc encodes H.264 video into MP4 files with GStreamer.
//
// Importing the package registers the "gstreamer" backend with the encoder
// registry at priority 100. The backend is available when the GStreamer
// plugins it needs are installed.
//
// Pipeline structure:
//
//	appsrc → videoconvert → x264enc → h264parse → mp4mux → filesink
//
// Frames are pushed as raw RGBA buffers. The source is live and timestamps
// buffers on arrival, so the frame timing of the recorder carries into the
// file.
package gstenc

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/gogpu/ggvideo"
	"github.com/gogpu/ggvideo/encoder"
)

// Name is the registry name of the backend.
const Name = "gstreamer"

// EOSTimeout caps how long Finalize waits for the muxer to write the file.
var EOSTimeout = 10 * time.Second

// requiredElements are the element factories the pipeline is built from.
var requiredElements = []string{"appsrc", "videoconvert", "x264enc", "h264parse", "mp4mux", "filesink"}

func init() {
	encoder.Register(Name, 100, Open, Available)
}

var (
	availableOnce sync.Once
	available     bool
)

// Available reports whether every element of the pipeline can be created.
func Available() bool {
	availableOnce.Do(func() {
		gst.Init(nil)
		for _, name := range requiredElements {
			if _, err := gst.NewElement(name); err != nil {
				ggvideo.Logger().Debug("gstenc: element unavailable", "element", name, "error", err)
				return
			}
		}
		available = true
	})
	return available
}

// Encoder is an open GStreamer encoding session.
type Encoder struct {
	cfg      encoder.Config
	pipeline *gst.Pipeline
	src      *app.Source
	surface  *encoder.FrameSurface

	mu        sync.Mutex
	finalized bool
	closed    bool
}

// Open builds the pipeline for cfg and sets it playing.
func Open(cfg encoder.Config) (encoder.Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	gst.Init(nil)

	pipeline, src, err := createPipeline(cfg)
	if err != nil {
		return nil, err
	}
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		_ = pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("gstenc: start pipeline: %w", err)
	}

	e := &Encoder{
		cfg:      cfg,
		pipeline: pipeline,
		src:      src,
	}
	e.surface = encoder.NewFrameSurface(cfg.Width, cfg.Height, e.push)

	ggvideo.Logger().Debug("gstenc: pipeline playing",
		"destination", cfg.Destination,
		"width", cfg.Width,
		"height", cfg.Height,
		"fps", cfg.FrameRate)
	return e, nil
}

// createPipeline creates and links every element. The pipeline is
// configured but not started.
func createPipeline(cfg encoder.Config) (*gst.Pipeline, *app.Source, error) {
	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, nil, fmt.Errorf("gstenc: create pipeline: %w", err)
	}

	src, err := app.NewAppSrc()
	if err != nil {
		return nil, nil, fmt.Errorf("gstenc: create appsrc: %w", err)
	}
	elems := make(map[string]*gst.Element, len(requiredElements))
	for _, name := range requiredElements[1:] {
		el, err := gst.NewElement(name)
		if err != nil {
			return nil, nil, fmt.Errorf("gstenc: create %s: %w", name, err)
		}
		elems[name] = el
	}

	enc := elems["x264enc"]
	err = errors.Join(
		setProperties("appsrc", src.Element,
			prop{"caps", gst.NewCapsFromString(rawCaps(cfg))},
			prop{"format", gst.FormatTime},
			prop{"is-live", true},
			prop{"do-timestamp", true},
		),
		setProperties("x264enc", enc,
			prop{"bitrate", uint(max(cfg.Bitrate/1000, 1))}, // kbit/s
			prop{"key-int-max", uint(cfg.FrameRate)},
		),
		setProperties("filesink", elems["filesink"], prop{"location", cfg.Destination}),
	)
	if err != nil {
		return nil, nil, err
	}

	chain := []*gst.Element{
		src.Element,
		elems["videoconvert"],
		enc,
		elems["h264parse"],
		elems["mp4mux"],
		elems["filesink"],
	}
	if err := pipeline.AddMany(chain...); err != nil {
		return nil, nil, fmt.Errorf("gstenc: add elements: %w", err)
	}
	if err := gst.ElementLinkMany(chain...); err != nil {
		return nil, nil, fmt.Errorf("gstenc: link elements: %w", err)
	}
	return pipeline, src, nil
}

type prop struct {
	name  string
	value any
}

// setter is implemented by *gst.Element.
type setter interface {
	SetProperty(name string, value any) error
}

// setProperties applies props in order and reports every one that failed.
func setProperties(element string, el setter, props ...prop) error {
	var errs []error
	for _, p := range props {
		if err := el.SetProperty(p.name, p.value); err != nil {
			errs = append(errs, fmt.Errorf("gstenc: set %s.%s: %w", element, p.name, err))
		}
	}
	return errors.Join(errs...)
}

func rawCaps(cfg encoder.Config) string {
	return fmt.Sprintf("video/x-raw,format=RGBA,width=%d,height=%d,framerate=%d/1",
		cfg.Width, cfg.Height, cfg.FrameRate)
}

// Surface returns the surface frames are drawn onto.
func (e *Encoder) Surface() encoder.Surface { return e.surface }

// push copies canvas into a buffer and hands it to the source.
func (e *Encoder) push(canvas *image.RGBA) error {
	buf := gst.NewBufferFromBytes(packRGBA(canvas))
	if ret := e.src.PushBuffer(buf); ret != gst.FlowOK {
		return fmt.Errorf("gstenc: push buffer: %v", ret)
	}
	return nil
}

// packRGBA returns the pixels of img without row padding.
func packRGBA(img *image.RGBA) []byte {
	b := img.Bounds()
	rowLen := b.Dx() * 4
	if img.Stride == rowLen && b.Min == (image.Point{}) {
		return img.Pix[:rowLen*b.Dy()]
	}
	out := make([]byte, 0, rowLen*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[off:off+rowLen]...)
	}
	return out
}

// Finalize ends the stream and waits for the muxer to finish the file.
func (e *Encoder) Finalize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.finalized || e.closed {
		return nil
	}
	e.finalized = true
	e.surface.Release()

	if ret := e.src.EndStream(); ret != gst.FlowOK {
		return fmt.Errorf("gstenc: end stream: %v", ret)
	}
	return waitEOS(e.pipeline, EOSTimeout)
}

// waitEOS polls the bus until the pipeline reports end of stream or an
// error.
func waitEOS(pipeline *gst.Pipeline, timeout time.Duration) error {
	bus := pipeline.GetPipelineBus()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageEOS:
			return nil
		case gst.MessageError:
			gerr := msg.ParseError()
			ggvideo.Logger().Warn("gstenc: pipeline error",
				"error", gerr.Error(),
				"debug", gerr.DebugString())
			return fmt.Errorf("gstenc: pipeline: %s", gerr.Error())
		}
	}
	return errors.New("gstenc: timed out waiting for end of stream")
}

// Close stops the pipeline and releases the surface.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.surface.Release()

	if err := e.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("gstenc: stop pipeline: %w", err)
	}
	return nil
}
