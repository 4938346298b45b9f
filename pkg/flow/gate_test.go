package flow

import (
	"testing"
	"time"

	"github.com/drgolem/musictools/pkg/frame"
)

func countingSource(n int) frame.Source[int16] {
	i := 0
	return frame.FromIter[int16](44100, func() (frame.Frame[int16], bool) {
		if i >= n {
			return frame.Frame[int16]{}, false
		}
		i++
		return frame.Mono[int16](int16(i)), true
	})
}

func TestGatePauseBlocks(t *testing.T) {
	ctrl := NewController()
	ctrl.SetState(Paused)
	gate := NewGate[int16](countingSource(100), ctrl)

	done := make(chan struct{})
	go func() {
		gate.Next()
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("Next returned while Paused")
	case <-time.After(50 * time.Millisecond):
	}

	ctrl.SetState(Playing)

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("Next did not resume after transition to Playing")
	}
}

func TestGateStopTerminatesPromptly(t *testing.T) {
	ctrl := NewController()
	gate := NewGate[int16](countingSource(1000000), ctrl)
	ctrl.SetState(Stopped)

	done := make(chan bool)
	go func() {
		_, ok := gate.Next()
		done <- ok
	}()

	select {
	case ok := <-done:
		if ok {
			t.Fatalf("expected terminal Next() after Stop")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("Next did not return promptly after Stop")
	}
}

func TestDropReleasesPausedWorker(t *testing.T) {
	ctrl := NewController()
	ctrl.SetState(Paused)
	gate := NewGate[int16](countingSource(100), ctrl)

	done := make(chan bool)
	go func() {
		_, ok := gate.Next()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	ctrl.Stop() // simulates dropping the Playback

	select {
	case ok := <-done:
		if ok {
			t.Fatalf("expected terminal Next() after drop")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("worker blocked in Paused did not exit after drop")
	}
}

func TestNaturalEndTransitionsToStopped(t *testing.T) {
	ctrl := NewController()
	gate := NewGate[int16](countingSource(2), ctrl)

	gate.Next()
	gate.Next()
	if _, ok := gate.Next(); ok {
		t.Fatalf("expected terminal Next() at end of input")
	}
	if ctrl.State() != Stopped {
		t.Fatalf("expected Stopped after natural end, got %v", ctrl.State())
	}
}
