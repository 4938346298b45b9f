package playback

import "github.com/drgolem/musictools/pkg/frame"

const i16FullScale = float64(1 << 15)

// normalize adapts a frame.Source[int16] to frame.Source[float64], scaling
// into [-1, 1] so the STFT/vocoder/inverse-STFT chain always operates on
// float64 regardless of the decoder's native sample kind.
type normalize struct {
	inner frame.Source[int16]
}

func (n *normalize) SampleRate() uint32 { return n.inner.SampleRate() }

func (n *normalize) Next() (frame.Frame[float64], bool) {
	f, ok := n.inner.Next()
	if !ok {
		return frame.Frame[float64]{}, false
	}
	var out frame.Frame[float64]
	out.N = f.N
	for ch := 0; ch < int(f.N); ch++ {
		out.Channels[ch] = float64(f.Channels[ch]) / i16FullScale
	}
	return out, true
}

var _ frame.Source[float64] = (*normalize)(nil)

// denormalize is the inverse of normalize: it clamps and rescales a
// float64 stream back into int16 for the output device.
type denormalize struct {
	inner frame.Source[float64]
}

func (d *denormalize) SampleRate() uint32 { return d.inner.SampleRate() }

func (d *denormalize) Next() (frame.Frame[int16], bool) {
	f, ok := d.inner.Next()
	if !ok {
		return frame.Frame[int16]{}, false
	}
	var out frame.Frame[int16]
	out.N = f.N
	for ch := 0; ch < int(f.N); ch++ {
		out.Channels[ch] = clampToInt16(f.Channels[ch] * i16FullScale)
	}
	return out, true
}

func clampToInt16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

var _ frame.Source[int16] = (*denormalize)(nil)
