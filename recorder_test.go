package ggvideo

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/ggvideo/encoder"
)

// fakeEncoder records the center pixel of every posted frame.
type fakeEncoder struct {
	surface encoder.Surface

	mu     sync.Mutex
	frames []color.RGBA

	finalizeErr error
	finalized   atomic.Bool
	closed      atomic.Bool
}

func (e *fakeEncoder) Surface() encoder.Surface { return e.surface }

func (e *fakeEncoder) Finalize() error {
	e.finalized.Store(true)
	return e.finalizeErr
}

func (e *fakeEncoder) Close() error {
	e.closed.Store(true)
	if fs, ok := e.surface.(*encoder.FrameSurface); ok {
		fs.Release()
	}
	return nil
}

func (e *fakeEncoder) seen() []color.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]color.RGBA(nil), e.frames...)
}

// fakeBackend opens fakeEncoders and remembers them.
type fakeBackend struct {
	mu       sync.Mutex
	encoders []*fakeEncoder

	// sink, when set, replaces the default frame recorder.
	sink        func(e *fakeEncoder, img *image.RGBA) error
	finalizeErr error
	openErr     error
	surface     func(cfg encoder.Config) encoder.Surface
}

func (b *fakeBackend) open(cfg encoder.Config) (encoder.Encoder, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	e := &fakeEncoder{finalizeErr: b.finalizeErr}
	if b.surface != nil {
		e.surface = b.surface(cfg)
	} else {
		e.surface = encoder.NewFrameSurface(cfg.Width, cfg.Height, func(img *image.RGBA) error {
			if b.sink != nil {
				return b.sink(e, img)
			}
			bounds := img.Bounds()
			e.mu.Lock()
			e.frames = append(e.frames, img.RGBAAt(bounds.Dx()/2, bounds.Dy()/2))
			e.mu.Unlock()
			return nil
		})
	}

	b.mu.Lock()
	b.encoders = append(b.encoders, e)
	b.mu.Unlock()
	return e, nil
}

func (b *fakeBackend) opened() []*fakeEncoder {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*fakeEncoder(nil), b.encoders...)
}

func newTestRecorder(b *fakeBackend, opts ...RecorderOption) *Recorder {
	base := []RecorderOption{
		WithOutputSize(8, 8),
		WithTick(time.Millisecond),
		WithStopTimeout(2 * time.Second),
		WithEncoderFactory(b.open),
	}
	return NewRecorder(append(base, opts...)...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

var (
	white = color.RGBA{255, 255, 255, 255}
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func TestStartTwiceOpensOneEncoder(t *testing.T) {
	b := &fakeBackend{}
	r := newTestRecorder(b)

	if err := r.Start("a"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start("b"); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if n := len(b.opened()); n != 1 {
		t.Errorf("opened %d encoders, want 1", n)
	}
	if !r.IsRecording() {
		t.Error("IsRecording() = false while recording")
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStopWhenIdle(t *testing.T) {
	r := newTestRecorder(&fakeBackend{})
	if err := r.Stop(); err != nil {
		t.Errorf("Stop() on idle recorder = %v, want nil", err)
	}
	if r.IsRecording() {
		t.Error("IsRecording() = true on idle recorder")
	}
}

func TestStopFinalizesAndCloses(t *testing.T) {
	b := &fakeBackend{}
	r := newTestRecorder(b)
	if err := r.Start("out"); err != nil {
		t.Fatal(err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	e := b.opened()[0]
	if !e.finalized.Load() || !e.closed.Load() {
		t.Errorf("finalized=%v closed=%v, want both", e.finalized.Load(), e.closed.Load())
	}
	if r.IsRecording() {
		t.Error("IsRecording() = true after Stop")
	}
	if r.latest.Load() != nil {
		t.Error("latest frame not cleared by Stop")
	}
}

func TestLatestWins(t *testing.T) {
	b := &fakeBackend{}
	// One frame per second: only the immediate first frame is drawn.
	r := newTestRecorder(b, WithFrameRate(1))

	r.UpdateFrame(solid(8, 8, red))
	r.UpdateFrame(solid(8, 8, blue))

	if err := r.Start("out"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "first frame", func() bool { return r.Stats().Frames >= 1 })
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	for i, c := range b.opened()[0].seen() {
		if c != blue {
			t.Errorf("frame %d = %v, want only the latest (blue) image", i, c)
		}
	}
}

func TestRepeatsFrameAtFixedRate(t *testing.T) {
	b := &fakeBackend{}
	r := newTestRecorder(b, WithFrameRate(100))
	r.UpdateFrame(solid(8, 8, green))

	if err := r.Start("out"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "repeated frames", func() bool { return r.Stats().Frames >= 5 })
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	for i, c := range b.opened()[0].seen() {
		if c != green {
			t.Errorf("frame %d = %v, want green", i, c)
		}
	}
}

func TestBlankFrame(t *testing.T) {
	b := &fakeBackend{}
	r := newTestRecorder(b)
	if err := r.Start("out"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "blank frame", func() bool { return r.Stats().Blank >= 1 })
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	if got := b.opened()[0].seen()[0]; got != white {
		t.Errorf("blank frame = %v, want white", got)
	}
}

func TestFrameIsCentered(t *testing.T) {
	var (
		mu    sync.Mutex
		frame *image.RGBA
	)
	b := &fakeBackend{sink: func(_ *fakeEncoder, img *image.RGBA) error {
		mu.Lock()
		frame = image.NewRGBA(img.Bounds())
		copy(frame.Pix, img.Pix)
		mu.Unlock()
		return nil
	}}
	r := newTestRecorder(b)
	r.UpdateFrame(solid(2, 4, green))

	if err := r.Start("out"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "frame", func() bool { return r.Stats().Frames >= 1 })
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	tests := []struct {
		p    image.Point
		want color.RGBA
	}{
		{image.Pt(3, 2), green},
		{image.Pt(4, 5), green},
		{image.Pt(2, 2), white},
		{image.Pt(5, 2), white},
		{image.Pt(3, 1), white},
		{image.Pt(3, 6), white},
	}
	for _, tt := range tests {
		if got := frame.RGBAAt(tt.p.X, tt.p.Y); got != tt.want {
			t.Errorf("pixel %v = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestSetupError(t *testing.T) {
	boom := errors.New("boom")
	b := &fakeBackend{openErr: boom}
	r := newTestRecorder(b)

	err := r.Start("out.mp4")
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("Start error = %v, want *SetupError", err)
	}
	if setupErr.Destination != "out.mp4" || !errors.Is(err, boom) {
		t.Errorf("SetupError = %+v", setupErr)
	}
	if r.IsRecording() {
		t.Error("IsRecording() = true after failed Start")
	}

	b.openErr = nil
	if err := r.Start("out.mp4"); err != nil {
		t.Fatalf("Start after failure: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestSetupErrorInvalidConfig(t *testing.T) {
	r := newTestRecorder(&fakeBackend{}, WithOutputSize(7, 8))
	err := r.Start("out")
	if !errors.Is(err, encoder.ErrInvalidConfig) {
		t.Errorf("Start error = %v, want ErrInvalidConfig", err)
	}
}

func TestSetupErrorClosesMismatchedEncoder(t *testing.T) {
	b := &fakeBackend{surface: func(encoder.Config) encoder.Surface {
		return encoder.NewFrameSurface(4, 4, func(*image.RGBA) error { return nil })
	}}
	r := newTestRecorder(b)

	var setupErr *SetupError
	if err := r.Start("out"); !errors.As(err, &setupErr) {
		t.Fatalf("Start error = %v, want *SetupError", err)
	}
	if !b.opened()[0].closed.Load() {
		t.Error("encoder left open after failed Start")
	}
}

func TestFinalizeError(t *testing.T) {
	boom := errors.New("muxer failed")
	b := &fakeBackend{finalizeErr: boom}
	r := newTestRecorder(b)
	if err := r.Start("out"); err != nil {
		t.Fatal(err)
	}

	err := r.Stop()
	var finErr *FinalizeError
	if !errors.As(err, &finErr) || !errors.Is(err, boom) {
		t.Fatalf("Stop error = %v, want *FinalizeError wrapping boom", err)
	}
	if !b.opened()[0].closed.Load() {
		t.Error("encoder not closed after finalize failure")
	}
	if r.IsRecording() {
		t.Error("IsRecording() = true after Stop")
	}
}

func TestDrawErrorDoesNotStopPump(t *testing.T) {
	b := &fakeBackend{sink: func(*fakeEncoder, *image.RGBA) error {
		return errors.New("encoder busy")
	}}
	r := newTestRecorder(b, WithFrameRate(100))
	if err := r.Start("out"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "repeated draw errors", func() bool { return r.Stats().DrawErrors >= 3 })
	if !r.IsRecording() {
		t.Error("draw errors stopped the recording")
	}
	if err := r.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if r.Stats().Frames != 0 {
		t.Errorf("Frames = %d, want 0", r.Stats().Frames)
	}
}

func TestPanicInTickRecovered(t *testing.T) {
	b := &fakeBackend{sink: func(*fakeEncoder, *image.RGBA) error {
		panic("codec exploded")
	}}
	r := newTestRecorder(b, WithFrameRate(100))
	if err := r.Start("out"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "recovered panics", func() bool { return r.Stats().DrawErrors >= 2 })
	if err := r.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

// invalidSurface is never ready to accept frames.
type invalidSurface struct{ locks atomic.Int64 }

func (s *invalidSurface) Width() int  { return 8 }
func (s *invalidSurface) Height() int { return 8 }
func (s *invalidSurface) Valid() bool { return false }
func (s *invalidSurface) Lock() (*image.RGBA, error) {
	s.locks.Add(1)
	return nil, errors.New("invalid")
}
func (s *invalidSurface) Post(*image.RGBA) error { return nil }

func TestInvalidSurfaceSkipsTick(t *testing.T) {
	surf := &invalidSurface{}
	b := &fakeBackend{surface: func(encoder.Config) encoder.Surface { return surf }}
	r := newTestRecorder(b, WithFrameRate(100))
	if err := r.Start("out"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "skipped ticks", func() bool { return r.Stats().Skipped >= 3 })
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	st := r.Stats()
	if st.Frames != 0 || st.DrawErrors != 0 || surf.locks.Load() != 0 {
		t.Errorf("stats = %+v, locks = %d; want only skips", st, surf.locks.Load())
	}
}

func TestStopTimeout(t *testing.T) {
	unblock := make(chan struct{})
	var once sync.Once
	b := &fakeBackend{sink: func(*fakeEncoder, *image.RGBA) error {
		<-unblock
		return nil
	}}
	r := newTestRecorder(b, WithStopTimeout(20*time.Millisecond))
	if err := r.Start("out"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { once.Do(func() { close(unblock) }) })

	// Give the pump time to block inside the first frame.
	time.Sleep(10 * time.Millisecond)

	err := r.Stop()
	if !errors.Is(err, ErrStopTimeout) {
		t.Fatalf("Stop error = %v, want ErrStopTimeout", err)
	}
	var finErr *FinalizeError
	if !errors.As(err, &finErr) {
		t.Errorf("Stop error = %T, want *FinalizeError", err)
	}
	if r.IsRecording() {
		t.Error("IsRecording() = true after timed out Stop")
	}

	e := b.opened()[0]
	if e.closed.Load() {
		t.Fatal("encoder closed while the pump was still running")
	}

	once.Do(func() { close(unblock) })
	waitFor(t, "background finalize", func() bool { return e.finalized.Load() && e.closed.Load() })
}

func TestRestart(t *testing.T) {
	b := &fakeBackend{}
	r := newTestRecorder(b)
	for i := range 3 {
		if err := r.Start("out"); err != nil {
			t.Fatalf("Start %d: %v", i, err)
		}
		waitFor(t, "frame", func() bool { return r.Stats().Frames >= 1 })
		if err := r.Stop(); err != nil {
			t.Fatalf("Stop %d: %v", i, err)
		}
	}

	encs := b.opened()
	if len(encs) != 3 {
		t.Fatalf("opened %d encoders, want 3", len(encs))
	}
	for _, e := range encs {
		if !e.closed.Load() {
			t.Error("encoder not closed")
		}
	}
	if r.Stats().Session == "" {
		t.Error("empty session id")
	}
}

func TestOverwrittenCount(t *testing.T) {
	b := &fakeBackend{}
	r := newTestRecorder(b, WithFrameRate(1))
	r.UpdateFrame(solid(8, 8, red))

	if err := r.Start("out"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "first frame", func() bool { return r.Stats().Frames >= 1 })

	// The drawn image is replaced, then an undrawn one is replaced.
	r.UpdateFrame(solid(8, 8, green))
	r.UpdateFrame(solid(8, 8, blue))

	if got := r.Stats().Overwritten; got != 1 {
		t.Errorf("Overwritten = %d, want 1", got)
	}
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateFrameIdle(t *testing.T) {
	r := newTestRecorder(&fakeBackend{})
	img := solid(8, 8, red)
	r.UpdateFrame(img)
	if r.latest.Load() != img {
		t.Error("UpdateFrame should store the image while idle")
	}
	if r.Stats().Overwritten != 0 {
		t.Error("overwrites counted while idle")
	}
}

func TestDefaults(t *testing.T) {
	r := NewRecorder()
	if w, h := r.Size(); w != 960 || h != 1280 {
		t.Errorf("Size() = %dx%d, want 960x1280", w, h)
	}
	if r.FrameRate() != 20 {
		t.Errorf("FrameRate() = %d, want 20", r.FrameRate())
	}
	if r.opts.tick != 5*time.Millisecond || r.opts.stopTimeout != 10*time.Second {
		t.Errorf("tick=%v stopTimeout=%v", r.opts.tick, r.opts.stopTimeout)
	}
}
