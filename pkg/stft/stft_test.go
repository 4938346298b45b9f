package stft

import (
	"math"
	"testing"

	"github.com/drgolem/musictools/pkg/frame"
)

func sineSource(rate uint32, n int, freq float64) frame.Source[float64] {
	i := 0
	return frame.FromIter[float64](rate, func() (frame.Frame[float64], bool) {
		if i >= n {
			return frame.Frame[float64]{}, false
		}
		v := math.Sin(2 * math.Pi * freq * float64(i) / float64(rate))
		i++
		return frame.Mono(v), true
	})
}

func TestWindowScalarUnity(t *testing.T) {
	const windowSize = 1024
	const overlap = windowSize / 2
	w := WindowScalars(windowSize)

	for n := 0; n < overlap; n++ {
		sum := w[n]*w[n] + w[n+overlap]*w[n+overlap]
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("w[%d]^2 + w[%d]^2 = %v, want 1 +/- 1e-9", n, n+overlap, sum)
		}
	}
}

func TestRejectsNonHalfOverlap(t *testing.T) {
	src := sineSource(44100, 10, 440)
	if _, err := New(src, 1, 1024, 256); err == nil {
		t.Fatalf("expected error for overlap != window_size/2")
	}
}

func TestRejectsNonPowerOfTwoWindow(t *testing.T) {
	src := sineSource(44100, 10, 440)
	if _, err := New(src, 1, 1000, 500); err == nil {
		t.Fatalf("expected error for non-power-of-two window size")
	}
}

func TestForwardInverseRoundTrip(t *testing.T) {
	const windowSize = 256
	const overlap = windowSize / 2
	const n = 4000

	input := make([]float64, n)
	for i := range input {
		input[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 44100)
	}

	idx := 0
	src := frame.FromIter[float64](44100, func() (frame.Frame[float64], bool) {
		if idx >= n {
			return frame.Frame[float64]{}, false
		}
		v := input[idx]
		idx++
		return frame.Mono(v), true
	})

	fwd, err := New(src, 1, windowSize, overlap)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	inv, err := NewInverse(fwd, 1, windowSize, overlap)
	if err != nil {
		t.Fatalf("NewInverse: %v", err)
	}

	var out []float64
	for {
		f, ok := inv.Next()
		if !ok {
			break
		}
		out = append(out, f.Channel(0))
	}

	if len(out) < n-windowSize || len(out) > n+windowSize {
		t.Fatalf("round-trip frame count %d too far from input %d (window %d)", len(out), n, windowSize)
	}

	// Skip the transient (first window) and compare magnitude envelope,
	// not exact phase, since this is overlap-add through a full forward/
	// inverse DFT pair with sine-squared windowing.
	const skip = windowSize
	maxDiff := 0.0
	for i := skip; i < len(out) && i < n; i++ {
		d := math.Abs(out[i] - input[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	if maxDiff > 0.05 {
		t.Fatalf("round-trip max sample error %v too large", maxDiff)
	}
}
