package ggvideo

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/gogpu/ggvideo/encoder"
	"github.com/gogpu/ggvideo/scale"
)

// Recorder turns a stream of frame updates into a fixed-rate video.
//
// Producers hand images to UpdateFrame whenever the content changes. While
// recording, a pump goroutine wakes every tick and, once per frame period,
// draws the most recent image centered on the encoder surface. Updates
// between two frames overwrite each other: only the latest image is ever
// encoded, and an unchanged image is encoded again so the output keeps a
// constant frame rate.
//
// A Recorder is reusable: Start and Stop may be called any number of times.
// All methods are safe for concurrent use.
type Recorder struct {
	opts recorderOptions

	// mu serializes Start and Stop.
	mu   sync.Mutex
	sess *session

	recording atomic.Bool
	latest    atomic.Pointer[image.RGBA]
	drawn     atomic.Pointer[image.RGBA]
	stats     counters
}

// session is one encoding run.
type session struct {
	id          string
	destination string
	enc         encoder.Encoder
	surface     encoder.Surface

	active  atomic.Bool
	done    chan struct{}
	release sync.Once
	err     error
}

// NewRecorder creates an idle recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Recorder{opts: o}
}

// Size returns the output resolution.
func (r *Recorder) Size() (width, height int) {
	return r.opts.width, r.opts.height
}

// FrameRate returns the number of frames per second.
func (r *Recorder) FrameRate() int {
	return r.opts.frameRate
}

// Start begins recording to destination. It does nothing if a recording is
// already in progress.
//
// If the encoder cannot be opened Start returns a *SetupError and the
// recorder stays idle with nothing left open.
func (r *Recorder) Start(destination string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sess != nil {
		return nil
	}

	cfg := encoder.Config{
		Width:       r.opts.width,
		Height:      r.opts.height,
		FrameRate:   r.opts.frameRate,
		Bitrate:     encoder.DefaultBitrate(r.opts.width, r.opts.height),
		Destination: destination,
	}
	enc, err := r.opts.open(cfg)
	if err != nil {
		return &SetupError{Destination: destination, Err: err}
	}

	surface := enc.Surface()
	if surface == nil || surface.Width() != cfg.Width || surface.Height() != cfg.Height {
		if cerr := enc.Close(); cerr != nil {
			Logger().Warn("ggvideo: close encoder", "destination", destination, "error", cerr)
		}
		return &SetupError{Destination: destination, Err: errors.New("encoder surface does not match output size")}
	}

	s := &session{
		id:          uuid.NewString(),
		destination: destination,
		enc:         enc,
		surface:     surface,
		done:        make(chan struct{}),
	}
	s.active.Store(true)

	r.stats.reset(s.id)
	r.drawn.Store(nil)
	r.sess = s
	r.recording.Store(true)

	go r.pump(s)

	Logger().Info("ggvideo: recording started",
		"session", s.id,
		"destination", destination,
		"width", cfg.Width,
		"height", cfg.Height,
		"fps", cfg.FrameRate,
		"bitrate", cfg.Bitrate)
	return nil
}

// Stop ends the recording and completes the output file. It does nothing
// if the recorder is idle.
//
// Stop waits for the pump to exit, at most for the stop timeout. The
// encoder is then finalized and closed; a finalize failure is returned as a
// *FinalizeError but every resource is still released. If the pump does not
// exit in time Stop returns a *FinalizeError wrapping ErrStopTimeout and the
// encoder is finalized as soon as the pump exits.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.sess
	if s == nil {
		return nil
	}

	r.recording.Store(false)
	s.active.Store(false)
	r.sess = nil
	defer r.latest.Store(nil)

	timer := time.NewTimer(r.opts.stopTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
	case <-timer.C:
		Logger().Warn("ggvideo: frame pump did not exit, finalizing in background",
			"session", s.id, "timeout", r.opts.stopTimeout)
		go func() {
			<-s.done
			if err := s.finish(); err != nil {
				Logger().Warn("ggvideo: background finalize", "session", s.id, "error", err)
			}
		}()
		return &FinalizeError{Destination: s.destination, Err: ErrStopTimeout}
	}

	err := s.finish()
	st := r.stats.snapshot()
	Logger().Info("ggvideo: recording stopped",
		"session", s.id,
		"destination", s.destination,
		"frames", st.Frames,
		"blank", st.Blank,
		"overwritten", st.Overwritten,
		"draw_errors", st.DrawErrors)
	if err != nil {
		return &FinalizeError{Destination: s.destination, Err: err}
	}
	return nil
}

// finish finalizes and closes the encoder once.
func (s *session) finish() error {
	s.release.Do(func() {
		var errs []error
		if err := s.enc.Finalize(); err != nil {
			errs = append(errs, err)
		}
		if err := s.enc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
		s.err = errors.Join(errs...)
	})
	return s.err
}

// UpdateFrame makes img the frame drawn on the next frame period.
// It never blocks. The image is stored even when idle so the first frame
// of a recording shows the current content. The caller must not modify img
// afterwards.
func (r *Recorder) UpdateFrame(img *image.RGBA) {
	prev := r.latest.Swap(img)
	if prev != nil && prev != img && prev != r.drawn.Load() && r.recording.Load() {
		r.stats.overwritten.Add(1)
	}
}

// IsRecording reports whether a recording is in progress.
func (r *Recorder) IsRecording() bool {
	return r.recording.Load()
}

// Stats returns the counters of the current or most recent recording.
func (r *Recorder) Stats() Stats {
	return r.stats.snapshot()
}

// pump draws one frame per period until the session is stopped.
func (r *Recorder) pump(s *session) {
	defer close(s.done)

	period := time.Second / time.Duration(r.opts.frameRate)
	var lastFrame time.Time
	var frame int64

	for s.active.Load() {
		now := time.Now()
		if now.Sub(lastFrame) >= period {
			r.tick(s, frame)
			frame++
			lastFrame = now
		}
		time.Sleep(r.opts.tick)
	}
}

// tick draws the latest image onto the surface and posts it. Failures are
// logged and counted; the pump keeps running.
func (r *Recorder) tick(s *session, frame int64) {
	defer func() {
		if p := recover(); p != nil {
			r.drawFailed(s, frame, fmt.Errorf("panic: %v", p))
		}
	}()

	if !s.surface.Valid() {
		r.stats.skipped.Add(1)
		Logger().Debug("ggvideo: surface not valid, skipping frame", "session", s.id, "frame", frame)
		return
	}

	canvas, err := s.surface.Lock()
	if err != nil {
		r.drawFailed(s, frame, fmt.Errorf("lock surface: %w", err))
		return
	}

	img := r.latest.Load()
	r.compose(canvas, img)
	r.drawn.Store(img)

	if err := s.surface.Post(canvas); err != nil {
		r.drawFailed(s, frame, fmt.Errorf("post surface: %w", err))
		return
	}

	r.stats.frames.Add(1)
	if img == nil {
		r.stats.blank.Add(1)
	}
}

// compose clears canvas and draws img centered on it.
func (r *Recorder) compose(canvas *image.RGBA, img *image.RGBA) {
	bounds := canvas.Bounds()
	draw.Draw(canvas, bounds, image.NewUniform(r.opts.clearColor), image.Point{}, draw.Src)
	if img == nil {
		return
	}

	src := img.Bounds()
	at := scale.Center(src.Dx(), src.Dy(), bounds.Dx(), bounds.Dy()).Add(bounds.Min)
	draw.Draw(canvas, image.Rectangle{Min: at, Max: at.Add(src.Size())}, img, src.Min, draw.Over)
}

func (r *Recorder) drawFailed(s *session, frame int64, err error) {
	r.stats.drawErrors.Add(1)
	derr := &DrawError{Frame: frame, Err: err}
	Logger().Warn("ggvideo: frame dropped", "session", s.id, "error", derr)
}
