// Package vocoder implements the phase-vocoder tempo filter: it sits
// between the forward and inverse STFT stages and stretches or compresses
// time by selecting STFT blocks at a coarse, shared-mutable ratio.
package vocoder

import (
	"math"
	"sync"

	"github.com/drgolem/musictools/pkg/stft"
)

// Ratio is the tempo filter's single concurrently-mutable control. The
// phase-vocoder snapshots it once per output block, not per sample, so a
// mid-block update is harmless but not applied retroactively.
type Ratio struct {
	mu sync.Mutex
	v  float64
}

// NewRatio constructs a Ratio initialized to v (typically 1.0).
func NewRatio(v float64) *Ratio {
	return &Ratio{v: v}
}

// Load returns the current ratio.
func (r *Ratio) Load() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.v
}

// Store sets the ratio. Callers must only pass values > 0; Playback.SetTempo
// enforces that before calling Store.
func (r *Ratio) Store(v float64) {
	r.mu.Lock()
	r.v = v
	r.mu.Unlock()
}

// Vocoder implements stft.BlockSource over an inner stft.BlockSource,
// accumulating and re-selecting blocks per the ratio to stretch
// (ratio < 1) or compress (ratio > 1) time.
type Vocoder struct {
	inner       stft.BlockSource
	ratio       *Ratio
	consumption float64
	queue       []stft.Block
	terminated  bool
}

// New builds a phase-vocoder reading Blocks from inner, governed by ratio.
func New(inner stft.BlockSource, ratio *Ratio) *Vocoder {
	return &Vocoder{inner: inner, ratio: ratio}
}

func (v *Vocoder) SampleRate() uint32 { return v.inner.SampleRate() }

// Reset discards any queued blocks and fractional consumption state.
// Playback calls this on seek, alongside stft.Forward.Reset and
// stft.Inverse.Reset, so stretched/compressed output never straddles a
// seek boundary.
func (v *Vocoder) Reset() {
	v.consumption = 0
	v.queue = nil
	v.terminated = false
}

// Next implements the algorithm of spec.md §4.4 literally, including its
// coarse block-selection rule (see DESIGN.md "Phase-vocoder block
// selection" for why this is reproduced rather than replaced with
// phase-coherent synthesis).
func (v *Vocoder) Next() (stft.Block, bool) {
	if v.terminated {
		return stft.Block{}, false
	}

	ratio := v.ratio.Load()
	nextConsumption := v.consumption + ratio

	need := int(math.Ceil(nextConsumption))
	for len(v.queue) < need {
		blk, ok := v.inner.Next()
		if !ok {
			v.terminated = true
			return stft.Block{}, false
		}
		v.queue = append(v.queue, blk)
	}

	selectIdx := int(math.Floor(nextConsumption / 2))
	if selectIdx >= len(v.queue) {
		selectIdx = len(v.queue) - 1
	}
	if selectIdx < 0 {
		selectIdx = 0
	}
	selected := v.queue[selectIdx]

	drain := int(math.Floor(nextConsumption))
	if drain > len(v.queue) {
		drain = len(v.queue)
	}
	v.queue = v.queue[drain:]

	v.consumption = nextConsumption - math.Floor(nextConsumption)

	return selected, true
}

var _ stft.BlockSource = (*Vocoder)(nil)
