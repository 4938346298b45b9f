package frame

import "sync"

// Shared wraps a Seekable behind one mutex so a worker pulling frames and a
// transport operation issuing a seek can safely interleave. Every method
// locks; if the underlying producer blocks inside Next, all concurrent
// callers (including Seek) block too. This is acceptable because Seek is
// itself a mutation of the same decoder the worker is reading from — at
// any moment at most one goroutine may be inside the wrapped Seekable.
type Shared[T Sample] struct {
	mu sync.Mutex
	s  Seekable[T]
}

// NewShared wraps s for concurrent access.
func NewShared[T Sample](s Seekable[T]) *Shared[T] {
	return &Shared[T]{s: s}
}

func (h *Shared[T]) Next() (Frame[T], bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.s.Next()
}

func (h *Shared[T]) SampleRate() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.s.SampleRate()
}

func (h *Shared[T]) Length() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.s.Length()
}

func (h *Shared[T]) CurrentPosition() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.s.CurrentPosition()
}

func (h *Shared[T]) Seek(pos uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.s.Seek(pos)
}

var (
	_ Seekable[int16] = (*Shared[int16])(nil)
)
