package player

import (
	"testing"

	"github.com/drgolem/musictools/pkg/library"
)

// Player's queue-mutation methods are thin, locked wrappers around Queue;
// these tests exercise that delegation and the weak self-reference
// construction. PlayFromQueue and friends build a real playback.Playback,
// which opens a PortAudio output stream — exactly the kind of hardware
// dependency the former pkg/audioplayer (since removed from this module)
// was never unit-tested against either, so
// those paths are left to manual/integration verification, matching the
// teacher's own test coverage boundary.

func newTestPlayer() *Player {
	return New(library.NewSet(), Config{DeviceIndex: 0, FramesPerBuffer: 512}, nil)
}

func TestEnqueueAppendsToQueue(t *testing.T) {
	p := newTestPlayer()
	p.Enqueue(library.TrackID{Library: "lib", Key: "a"})
	p.Enqueue(library.TrackID{Library: "lib", Key: "b"})

	q := p.Queue()
	if q.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", q.Len())
	}
}

func TestInsertRemoveSpliceDelegateToQueue(t *testing.T) {
	p := newTestPlayer()
	p.Enqueue(library.TrackID{Library: "lib", Key: "a"})
	p.Enqueue(library.TrackID{Library: "lib", Key: "c"})

	if err := p.Insert(1, library.TrackID{Library: "lib", Key: "b"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	q := p.Queue()
	want := []string{"a", "b", "c"}
	for i, w := range want {
		it, err := q.At(i)
		if err != nil || it.ID.Key != w {
			t.Fatalf("position %d: got %+v (err %v), want %q", i, it, err, w)
		}
	}

	if err := p.Remove(0, 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if p.Queue().Len() != 2 {
		t.Fatalf("expected 2 items after remove, got %d", p.Queue().Len())
	}

	if err := p.Splice(0, 2, []library.TrackID{{Library: "lib", Key: "z"}}); err != nil {
		t.Fatalf("Splice: %v", err)
	}
	q = p.Queue()
	if q.Len() != 1 {
		t.Fatalf("expected 1 item after splice, got %d", q.Len())
	}
	if it, _ := q.At(0); it.ID.Key != "z" {
		t.Fatalf("expected z, got %q", it.ID.Key)
	}
}

func TestMoveAllAndShuffleDelegateToQueue(t *testing.T) {
	p := newTestPlayer()
	p.Enqueue(library.TrackID{Library: "lib", Key: "a"})
	p.Enqueue(library.TrackID{Library: "lib", Key: "b"})

	if err := p.MoveAll([]int{1, 0}); err != nil {
		t.Fatalf("MoveAll: %v", err)
	}
	q := p.Queue()
	if it, _ := q.At(0); it.ID.Key != "b" {
		t.Fatalf("expected b first after MoveAll, got %q", it.ID.Key)
	}

	identity := func(n int) []int {
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		return order
	}
	if err := p.Shuffle(identity); err != nil {
		t.Fatalf("Shuffle: %v", err)
	}
}

func TestPlayFromQueueRejectsOutOfRangeIndex(t *testing.T) {
	p := newTestPlayer()
	p.Enqueue(library.TrackID{Library: "lib", Key: "a"})

	if _, err := p.PlayFromQueue(5); err == nil {
		t.Fatalf("expected IndexOutOfBounds for an empty-library out-of-range index")
	}
}

func TestPlayFromQueueReportsMissingLibrary(t *testing.T) {
	p := newTestPlayer()
	p.Enqueue(library.TrackID{Library: "nope", Key: "a"})

	if _, err := p.PlayFromQueue(0); err == nil {
		t.Fatalf("expected a resolution error for an unregistered library")
	}
}
