// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package session drives a recorder from interactive edits.
//
// A session owns the editable model of one content mode (a text field or a
// drawing canvas). Every edit made while recording is turned into a
// snapshot and handed to a render goroutine through a single-slot mailbox:
// a new snapshot replaces one that has not been rendered yet, so slow
// rendering never queues up stale frames. Rendered images go to the
// recorder, which encodes them at its own fixed rate.
//
// Stopping a recording registers the file in the catalog together with a
// cover cut from the last rendered frame.
package session

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/ggvideo"
	"github.com/gogpu/ggvideo/catalog"
	"github.com/gogpu/ggvideo/frame"
)

// DefaultDebounce is the minimum interval between two accepted toggles.
const DefaultDebounce = time.Second

// DefaultMaxViewSize bounds each side of a view size set by a client.
const DefaultMaxViewSize = 8192

// MaxFontSize bounds the text size of a text session.
const MaxFontSize = 1024

var (
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session: closed")

	// ErrInvalidUpdate is returned for edits outside the accepted range.
	// Such an edit is not applied.
	ErrInvalidUpdate = errors.New("session: invalid update")
)

// Recorder encodes the frames a session produces. *ggvideo.Recorder
// implements it.
type Recorder interface {
	Start(destination string) error
	Stop() error
	UpdateFrame(img *image.RGBA)
}

// Renderer turns snapshots into images. *render.Compositor implements it.
type Renderer interface {
	Render(st frame.State) (*image.RGBA, error)
}

// Namer chooses output paths. catalog.Namer implements it.
type Namer interface {
	NewPath(prefix string) (string, error)
}

// Catalog registers finished recordings. *catalog.Store implements it.
type Catalog interface {
	Save(path string, kind frame.Kind, cover string) (catalog.Video, error)
}

// Option configures a session.
type Option func(*options)

type options struct {
	catalog     Catalog
	debounce    time.Duration
	now         func() time.Time
	text        *frame.Text
	maxViewSize int
}

// WithCatalog registers finished recordings in c.
func WithCatalog(c Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithDebounce sets the minimum interval between two accepted toggles.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithClock replaces time.Now for debouncing.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMaxViewSize sets the largest accepted view width and height.
// Non-positive values are ignored.
func WithMaxViewSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxViewSize = n
		}
	}
}

// WithText sets the initial state of a text session.
func WithText(t frame.Text) Option {
	return func(o *options) { o.text = &t }
}

// Toggled is the outcome of Toggle.
type Toggled struct {
	// Ignored is set when the call fell inside the debounce interval.
	Ignored bool

	// Recording is the state after the call.
	Recording bool

	// Video is the registered recording when the call stopped one and a
	// catalog is configured.
	Video *catalog.Video
}

// Stats are the counters of a session.
type Stats struct {
	Rendered     uint64
	Dropped      uint64
	RenderErrors uint64
}

// base implements recording control and the render mailbox shared by
// every content mode.
type base struct {
	kind   frame.Kind
	prefix string
	rec    Recorder
	rnd    Renderer
	names  Namer
	opts   options

	// snapshot returns the state to render; prepare runs before the first
	// frame of a recording.
	snapshot func() frame.State
	prepare  func()

	// mu serializes Start, Stop and Close.
	mu         sync.Mutex
	lastToggle time.Time
	path       string
	recording  atomic.Bool

	inboxMu   sync.Mutex
	inboxCond *sync.Cond
	inbox     frame.State
	busy      bool
	closed    bool
	done      chan struct{}

	last         atomic.Pointer[image.RGBA]
	rendered     atomic.Uint64
	dropped      atomic.Uint64
	renderErrors atomic.Uint64
}

func newBase(kind frame.Kind, prefix string, rec Recorder, rnd Renderer, names Namer, opts []Option) *base {
	o := options{debounce: DefaultDebounce, now: time.Now, maxViewSize: DefaultMaxViewSize}
	for _, opt := range opts {
		opt(&o)
	}
	b := &base{
		kind:   kind,
		prefix: prefix,
		rec:    rec,
		rnd:    rnd,
		names:  names,
		opts:   o,
		done:   make(chan struct{}),
	}
	b.inboxCond = sync.NewCond(&b.inboxMu)
	go b.loop()
	return b
}

// Kind returns the content mode of the session.
func (b *base) Kind() frame.Kind { return b.kind }

// IsRecording reports whether a recording is in progress.
func (b *base) IsRecording() bool { return b.recording.Load() }

// Path returns the output file of the current or most recent recording.
func (b *base) Path() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path
}

// LastFrame returns the most recently rendered image, or nil.
func (b *base) LastFrame() *image.RGBA { return b.last.Load() }

// Stats returns the session counters.
func (b *base) Stats() Stats {
	return Stats{
		Rendered:     b.rendered.Load(),
		Dropped:      b.dropped.Load(),
		RenderErrors: b.renderErrors.Load(),
	}
}

// Toggle starts a recording when idle and stops it otherwise. A call
// within the debounce interval of the last accepted one does nothing.
func (b *base) Toggle() (Toggled, error) {
	b.mu.Lock()
	now := b.opts.now()
	if !b.lastToggle.IsZero() && now.Sub(b.lastToggle) < b.opts.debounce {
		b.mu.Unlock()
		return Toggled{Ignored: true, Recording: b.recording.Load()}, nil
	}
	b.lastToggle = now
	b.mu.Unlock()

	if b.recording.Load() {
		v, err := b.Stop()
		return Toggled{Recording: b.recording.Load(), Video: v}, err
	}
	err := b.Start()
	return Toggled{Recording: b.recording.Load()}, err
}

// Start begins a recording into a new file. The current content is
// rendered before the recorder starts so that it is the first frame.
func (b *base) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed() {
		return ErrClosed
	}
	if b.recording.Load() {
		return nil
	}

	path, err := b.names.NewPath(b.prefix)
	if err != nil {
		return err
	}
	if b.prepare != nil {
		b.prepare()
	}

	b.enqueue(b.snapshot())
	b.Sync()

	if err := b.rec.Start(path); err != nil {
		if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			ggvideo.Logger().Warn("session: remove reserved file", "path", path, "error", rerr)
		}
		return err
	}
	b.path = path
	b.recording.Store(true)
	ggvideo.Logger().Info("session: recording", "kind", b.kind, "path", path)
	return nil
}

// Stop ends the recording. Pending edits are rendered first. When a
// catalog is configured the file is registered with a cover and the record
// is returned.
//
// A recorder that timed out finishing the file still has the recording
// registered; any other recorder failure is returned without registering.
func (b *base) Stop() (*catalog.Video, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopLocked()
}

func (b *base) stopLocked() (*catalog.Video, error) {
	if !b.recording.Load() {
		return nil, nil
	}
	b.recording.Store(false)
	b.Sync()

	err := b.rec.Stop()
	if err != nil && !errors.Is(err, ggvideo.ErrStopTimeout) {
		ggvideo.Logger().Warn("session: recording failed", "kind", b.kind, "path", b.path, "error", err)
		return nil, err
	}
	if b.opts.catalog == nil {
		return nil, err
	}

	cover := ""
	if img := b.last.Load(); img != nil {
		p := catalog.CoverPath(b.path)
		if cerr := catalog.WriteCover(img, p); cerr != nil {
			ggvideo.Logger().Warn("session: cover", "path", p, "error", cerr)
		} else {
			cover = p
		}
	}

	v, serr := b.opts.catalog.Save(b.path, b.kind, cover)
	if serr != nil {
		return nil, errors.Join(err, serr)
	}
	return &v, err
}

// Close stops an active recording and ends the render goroutine.
func (b *base) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed() {
		return nil
	}
	_, err := b.stopLocked()

	b.inboxMu.Lock()
	b.closed = true
	b.inboxCond.Broadcast()
	b.inboxMu.Unlock()
	<-b.done
	return err
}

func (b *base) isClosed() bool {
	b.inboxMu.Lock()
	defer b.inboxMu.Unlock()
	return b.closed
}

// submit queues the current snapshot if a recording is in progress.
func (b *base) submit() {
	if b.recording.Load() {
		b.enqueue(b.snapshot())
	}
}

// enqueue puts st in the mailbox, replacing a state not rendered yet.
func (b *base) enqueue(st frame.State) {
	b.inboxMu.Lock()
	defer b.inboxMu.Unlock()

	if b.closed {
		return
	}
	if b.inbox != nil {
		b.dropped.Add(1)
	}
	b.inbox = st
	b.inboxCond.Broadcast()
}

// Sync blocks until every queued state has been rendered.
func (b *base) Sync() {
	b.inboxMu.Lock()
	defer b.inboxMu.Unlock()
	for b.inbox != nil || b.busy {
		b.inboxCond.Wait()
	}
}

func (b *base) loop() {
	defer close(b.done)
	for {
		b.inboxMu.Lock()
		for b.inbox == nil && !b.closed {
			b.inboxCond.Wait()
		}
		if b.inbox == nil {
			b.inboxMu.Unlock()
			return
		}
		st := b.inbox
		b.inbox = nil
		b.busy = true
		b.inboxMu.Unlock()

		b.render(st)

		b.inboxMu.Lock()
		b.busy = false
		b.inboxCond.Broadcast()
		b.inboxMu.Unlock()
	}
}

// checkViewSize accepts sizes from zero, meaning unset, up to the
// configured maximum.
func (b *base) checkViewSize(width, height int) error {
	limit := b.opts.maxViewSize
	if width < 0 || height < 0 || width > limit || height > limit {
		return fmt.Errorf("%w: view size %dx%d, limit %d", ErrInvalidUpdate, width, height, limit)
	}
	return nil
}

func (b *base) render(st frame.State) {
	img, err := b.renderSafe(st)
	if err != nil {
		b.renderErrors.Add(1)
		ggvideo.Logger().Warn("session: render", "kind", b.kind, "error", err)
		return
	}
	b.rendered.Add(1)
	b.last.Store(img)
	b.rec.UpdateFrame(img)
}

// renderSafe turns a renderer panic into an error so that one bad state
// does not end the render goroutine.
func (b *base) renderSafe(st frame.State) (img *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session: render panic: %v", r)
		}
	}()
	return b.rnd.Render(st)
}
