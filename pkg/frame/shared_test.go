package frame

import (
	"sync"
	"testing"
)

func TestSharedSerializesSeekAndNext(t *testing.T) {
	frames := make([]Frame[int16], 1000)
	for i := range frames {
		frames[i] = Stereo[int16](int16(i), int16(i))
	}
	shared := NewShared[int16](NewSliceSource[int16](44100, frames))

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			shared.Next()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			shared.Seek(uint64(i))
		}
	}()

	wg.Wait()
	// No assertion beyond "did not race or deadlock" — run with -race.
}

func TestSharedPreservesSeekSemantics(t *testing.T) {
	shared := NewShared[int16](NewSliceSource[int16](44100, []Frame[int16]{
		Mono[int16](1), Mono[int16](2), Mono[int16](3),
	}))

	if err := shared.Seek(1); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	f, ok := shared.Next()
	if !ok || f.Channel(0) != 2 {
		t.Fatalf("Next after Seek(1): got %+v ok=%v, want 2", f, ok)
	}
}
