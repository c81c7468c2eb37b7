package ggvideo

import (
	"sync"
	"sync/atomic"
)

// Stats are the counters of one recording.
type Stats struct {
	// Session identifies the recording.
	Session string

	// Frames is the number of frames posted to the encoder.
	Frames int64

	// Blank counts frames drawn before any image was supplied.
	Blank int64

	// Skipped counts ticks skipped because the surface was not valid.
	Skipped int64

	// DrawErrors counts ticks that failed.
	DrawErrors int64

	// Overwritten counts images replaced before they were drawn.
	Overwritten int64
}

type counters struct {
	mu      sync.Mutex
	session string

	frames      atomic.Int64
	blank       atomic.Int64
	skipped     atomic.Int64
	drawErrors  atomic.Int64
	overwritten atomic.Int64
}

func (c *counters) reset(session string) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	c.frames.Store(0)
	c.blank.Store(0)
	c.skipped.Store(0)
	c.drawErrors.Store(0)
	c.overwritten.Store(0)
}

func (c *counters) snapshot() Stats {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	return Stats{
		Session:     session,
		Frames:      c.frames.Load(),
		Blank:       c.blank.Load(),
		Skipped:     c.skipped.Load(),
		DrawErrors:  c.drawErrors.Load(),
		Overwritten: c.overwritten.Load(),
	}
}
