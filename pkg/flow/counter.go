package flow

import (
	"sync/atomic"

	"github.com/drgolem/musictools/pkg/frame"
)

// Counter wraps a Source, incrementing a shared atomic integer every time
// the inner Next yields a frame. Terminal yields do not increment.
// Playback uses this for position reporting when the input is not
// Seekable, grounded on the samplesConsumed/playedSamples atomic.Uint64
// fields of the former pkg/audioplayer.Player and
// internal/fileplayer.FilePlayer (both since removed from this module).
type Counter[T frame.Sample] struct {
	inner frame.Source[T]
	count *atomic.Uint64
}

// NewCounter wraps inner, incrementing count on every yielded frame.
func NewCounter[T frame.Sample](inner frame.Source[T], count *atomic.Uint64) *Counter[T] {
	return &Counter[T]{inner: inner, count: count}
}

func (c *Counter[T]) SampleRate() uint32 { return c.inner.SampleRate() }

func (c *Counter[T]) Next() (frame.Frame[T], bool) {
	f, ok := c.inner.Next()
	if ok {
		c.count.Add(1)
	}
	return f, ok
}

var _ frame.Source[int16] = (*Counter[int16])(nil)
