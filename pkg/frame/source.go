package frame

import "fmt"

// Source is a lazy, non-restartable sequence of Frames with an immutable
// declared sample rate. A Source may be finite or infinite; the iteration
// contract does not distinguish the two cases.
type Source[T Sample] interface {
	// Next returns the next Frame, or ok=false once the Source is
	// exhausted. A Source must never yield again after returning ok=false.
	Next() (f Frame[T], ok bool)

	// SampleRate returns the frames-per-second rate this Source was
	// constructed with. It never changes over the Source's lifetime.
	SampleRate() uint32
}

// OutOfRange is returned by Seek when pos is beyond the end of the
// Seekable.
type OutOfRange struct {
	Pos  uint64
	Size uint64
}

func (e *OutOfRange) Error() string {
	return fmt.Sprintf("frame: seek position %d out of range (size %d)", e.Pos, e.Size)
}

// Seekable is a finite Source that additionally supports random access by
// frame index. Seeking resets any internal decode buffer; frames already
// pulled into downstream stages are not retroactively invalidated.
type Seekable[T Sample] interface {
	Source[T]

	// Length returns the total number of frames in the sequence.
	Length() uint64

	// CurrentPosition returns the 0-indexed index of the next frame Next
	// will return.
	CurrentPosition() uint64

	// Seek moves CurrentPosition to pos. Returns *OutOfRange if
	// pos >= Length().
	Seek(pos uint64) error
}

// iterSource adapts a plain pull function to the Source contract by
// attaching a fixed sample rate.
type iterSource[T Sample] struct {
	rate uint32
	next func() (Frame[T], bool)
}

// FromIter promotes any frame-producing pull function to a Source by
// attaching a fixed sample rate.
func FromIter[T Sample](rate uint32, next func() (Frame[T], bool)) Source[T] {
	return &iterSource[T]{rate: rate, next: next}
}

func (s *iterSource[T]) Next() (Frame[T], bool) { return s.next() }
func (s *iterSource[T]) SampleRate() uint32     { return s.rate }

// SliceSource is a finite, Seekable Source backed by an in-memory slice of
// Frames. It is used by tests and by small in-memory audio sources (e.g.
// silence generators, fixtures).
type SliceSource[T Sample] struct {
	rate   uint32
	frames []Frame[T]
	pos    uint64
}

// NewSliceSource builds a Seekable Source over frames at the given rate.
func NewSliceSource[T Sample](rate uint32, frames []Frame[T]) *SliceSource[T] {
	return &SliceSource[T]{rate: rate, frames: frames}
}

func (s *SliceSource[T]) SampleRate() uint32 { return s.rate }

func (s *SliceSource[T]) Next() (Frame[T], bool) {
	if s.pos >= uint64(len(s.frames)) {
		var zero Frame[T]
		return zero, false
	}
	f := s.frames[s.pos]
	s.pos++
	return f, true
}

func (s *SliceSource[T]) Length() uint64          { return uint64(len(s.frames)) }
func (s *SliceSource[T]) CurrentPosition() uint64 { return s.pos }

func (s *SliceSource[T]) Seek(pos uint64) error {
	if pos >= uint64(len(s.frames)) {
		return &OutOfRange{Pos: pos, Size: uint64(len(s.frames))}
	}
	s.pos = pos
	return nil
}
