package stft

import "github.com/drgolem/musictools/pkg/frame"

// Inverse is the inverse STFT stage. It pulls Blocks from any BlockSource
// (the Forward stage directly, or a phase-vocoder sitting in between) and
// yields reconstructed Frame[float64]s via windowed overlap-add.
type Inverse struct {
	inner      BlockSource
	channels   uint8
	windowSize int
	overlap    int
	w          []float64
	w2         []float64

	initialized bool
	inputDone   bool
	terminated  bool
	prev        [2][]float64
	next        [2][]float64
	last        [2][]float64 // most recent window pullWindow reconstructed
	idx         int
}

// NewInverse builds an inverse STFT reading Blocks from inner. windowSize
// and overlap must match the Forward stage that produced (directly or via
// a phase-vocoder) the Blocks inner yields.
func NewInverse(inner BlockSource, channels uint8, windowSize, overlap int) (*Inverse, error) {
	if err := validateWindow(windowSize, overlap); err != nil {
		return nil, err
	}
	w := WindowScalars(windowSize)
	w2 := make([]float64, windowSize)
	for i, v := range w {
		w2[i] = v * v
	}
	return &Inverse{
		inner:      inner,
		channels:   channels,
		windowSize: windowSize,
		overlap:    overlap,
		w:          w,
		w2:         w2,
	}, nil
}

func (s *Inverse) SampleRate() uint32 { return s.inner.SampleRate() }

// Reset discards the double-buffered windows and restarts overlap-add from
// a fresh pull of the inner BlockSource. Playback calls this, alongside
// Forward.Reset and Vocoder.Reset, on seek (spec.md §4.9) so the
// reconstructed stream never blends pre-seek and post-seek audio.
func (s *Inverse) Reset() {
	s.initialized = false
	s.inputDone = false
	s.terminated = false
	s.idx = 0
	s.prev = [2][]float64{}
	s.next = [2][]float64{}
	s.last = [2][]float64{}
}

// pullWindow inverse-transforms the next Block into real time-domain
// samples per channel. Once the inner BlockSource is exhausted it
// synthesizes exactly one final window whose first half repeats the last
// real window's second half (silence after it), so that tail is
// overlap-added out at unity gain, then reports no more windows.
func (s *Inverse) pullWindow() ([2][]float64, bool) {
	if s.inputDone {
		return [2][]float64{}, false
	}

	blk, ok := s.inner.Next()
	if !ok {
		s.inputDone = true
		var tail [2][]float64
		for ch := 0; ch < int(s.channels); ch++ {
			tail[ch] = make([]float64, s.windowSize)
			if s.last[ch] != nil {
				copy(tail[ch], s.last[ch][s.overlap:])
			}
		}
		return tail, true
	}

	var out [2][]float64
	for ch := 0; ch < int(s.channels); ch++ {
		c := make([]complex128, len(blk.Bins[ch]))
		copy(c, blk.Bins[ch])
		fft(c, true)
		// Divide out the Forward stage's analysis window (w[n] > 0 for every
		// n) so that the w[n]^2 overlap-add weights in Next sum to unity gain.
		samples := make([]float64, s.windowSize)
		for n := range samples {
			samples[n] = real(c[n]) / s.w[n]
		}
		out[ch] = samples
	}
	s.last = out
	return out, true
}

func (s *Inverse) Next() (frame.Frame[float64], bool) {
	if s.terminated {
		return frame.Frame[float64]{}, false
	}

	if !s.initialized {
		prev, ok := s.pullWindow()
		if !ok {
			s.terminated = true
			return frame.Frame[float64]{}, false
		}
		next, ok := s.pullWindow()
		if !ok {
			s.terminated = true
			return frame.Frame[float64]{}, false
		}
		s.prev, s.next = prev, next
		s.initialized = true
		s.idx = 0
	}

	if s.idx == s.overlap {
		s.prev = s.next
		next, ok := s.pullWindow()
		if !ok {
			s.terminated = true
			return frame.Frame[float64]{}, false
		}
		s.next = next
		s.idx = 0
	}

	n := s.idx
	var f frame.Frame[float64]
	f.N = s.channels
	for ch := 0; ch < int(s.channels); ch++ {
		f.Channels[ch] = s.prev[ch][n+s.overlap]*s.w2[n+s.overlap] + s.next[ch][n]*s.w2[n]
	}
	s.idx++
	return f, true
}

var _ frame.Source[float64] = (*Inverse)(nil)
