package resample

import (
	"testing"

	"github.com/drgolem/musictools/pkg/frame"
)

func sineSource(rate uint32, n int, channels int) frame.Source[int16] {
	i := 0
	return frame.FromIter[int16](rate, func() (frame.Frame[int16], bool) {
		if i >= n {
			return frame.Frame[int16]{}, false
		}
		v := int16((i % 200) * 100)
		i++
		var f frame.Frame[int16]
		f.N = uint8(channels)
		for ch := 0; ch < channels; ch++ {
			f.Channels[ch] = v
		}
		return f, true
	})
}

func TestStageReportsTargetSampleRate(t *testing.T) {
	stage, err := New(sineSource(44100, 1000, 2), 2, 48000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer stage.Close()

	if got := stage.SampleRate(); got != 48000 {
		t.Fatalf("SampleRate() = %d, want 48000", got)
	}
}

func TestStageYieldsFramesAndTerminates(t *testing.T) {
	const channels = 2
	stage, err := New(sineSource(44100, 4096, channels), channels, 48000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer stage.Close()

	count := 0
	for {
		f, ok := stage.Next()
		if !ok {
			break
		}
		if int(f.N) != channels {
			t.Fatalf("frame %d: N = %d, want %d", count, f.N, channels)
		}
		count++
		if count > 1_000_000 {
			t.Fatalf("Next never terminated")
		}
	}
	if count == 0 {
		t.Fatalf("expected at least one resampled frame")
	}
}

func TestStageMonoPassthroughShape(t *testing.T) {
	stage, err := New(sineSource(44100, 512, 1), 1, 44100)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer stage.Close()

	f, ok := stage.Next()
	if !ok {
		t.Fatalf("expected at least one frame")
	}
	if f.N != 1 {
		t.Fatalf("N = %d, want 1", f.N)
	}
}
