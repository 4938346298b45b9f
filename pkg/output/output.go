// Package output adapts github.com/drgolem/go-portaudio/portaudio (the
// teacher's device binding, as used by the initStream of the former
// pkg/audioplayer.Player, since removed from this module) to the
// consume(dyn_source, event_handler) -> StreamHandle contract of spec.md
// §6, coercing sample kinds the device doesn't support down to the
// nearest one it does via linear scaling.
package output

import (
	"fmt"
	"time"

	"github.com/drgolem/go-portaudio/portaudio"

	"github.com/drgolem/musictools/pkg/frame"
	"github.com/drgolem/musictools/pkg/sink"
)

// DefaultDeviceIndex is the device index that selects PortAudio's host API
// default output device.
const DefaultDeviceIndex = -1

// device wraps a PortAudio blocking stream behind the sink.Device
// contract, grounded on the Write/StopStream/Close sequence of the former
// pkg/audioplayer.Player.
type device struct {
	stream          *portaudio.PaStream
	framesPerSample int // bytes per output sample, post-coercion
	channels        int
}

func (d *device) Write(frame []byte) error {
	bytesPerFrame := d.channels * d.framesPerSample
	if bytesPerFrame == 0 || len(frame)%bytesPerFrame != 0 {
		return fmt.Errorf("output: frame buffer length %d not aligned to %d", len(frame), bytesPerFrame)
	}
	frames := len(frame) / bytesPerFrame
	return d.stream.Write(frames, frame)
}

func (d *device) Latency() time.Duration {
	// The go-portaudio PaStream wrapper does not expose a live latency
	// reading through its blocking API, so no latency is reported: this
	// always returns 0.
	return 0
}

func (d *device) Close() error {
	if err := d.stream.StopStream(); err != nil {
		return err
	}
	return d.stream.Close()
}

// coercedFormat returns the Kind and sample format PortAudio should be
// opened with for a given source Kind. Only the 16/24/32-bit integer
// formats of the underlying binding are used, so every kind is coerced to
// one of those three by linear scaling (i8/u8/u16 -> i16, u24 -> i24,
// u32/i64/u64/f32/f64 -> i32); i16/i24/i32 pass through unchanged.
func coercedFormat(k frame.Kind) (frame.Kind, portaudio.PaSampleFormat, error) {
	switch k {
	case frame.KindI8, frame.KindU8, frame.KindI16, frame.KindU16:
		return frame.KindI16, portaudio.SampleFmtInt16, nil
	case frame.KindI24, frame.KindU24:
		return frame.KindI24, portaudio.SampleFmtInt24, nil
	case frame.KindI32, frame.KindU32, frame.KindI64, frame.KindU64, frame.KindF32, frame.KindF64:
		return frame.KindI32, portaudio.SampleFmtInt32, nil
	default:
		return 0, 0, fmt.Errorf("output: unsupported sample kind %v", k)
	}
}

// coerce re-encodes one source-kind frame's worth of bytes into the
// device-kind encoding, linearly scaling the decoded value into the
// target kind's range.
func coerce(src frame.Format, dstKind frame.Kind, channels int, in []byte) []byte {
	srcBps := src.Kind.BytesPerSample()
	dstBps := dstKind.BytesPerSample()
	out := make([]byte, channels*dstBps)
	for ch := 0; ch < channels; ch++ {
		v := frame.DecodeSample(src.Kind, in[ch*srcBps:(ch+1)*srcBps])
		frame.EncodeScaled(dstKind, scaleSample(src.Kind, dstKind, v), out[ch*dstBps:(ch+1)*dstBps])
	}
	return out
}

// scaleSample linearly rescales v (decoded per srcKind's native range)
// into the numeric range dstKind's EncodeScaled expects (see
// frame.EncodeScaled's doc comment for each kind's expected input range).
func scaleSample(srcKind, dstKind frame.Kind, v float64) float64 {
	if dstKind == frame.KindF32 || dstKind == frame.KindF64 {
		return v / srcKind.FullScale()
	}
	if srcKind == frame.KindF32 || srcKind == frame.KindF64 {
		return v * dstKind.FullScale()
	}
	return v * (dstKind.FullScale() / srcKind.FullScale())
}

// Consume opens a PortAudio output stream matching dyn's erased format
// (coercing the sample kind if necessary) and spawns a sink worker
// pulling from dyn, reporting events through onEvent. Mirrors the
// initStream + consumer() pairing of the former pkg/audioplayer.Player.Play.
func Consume(dyn frame.DynSource, deviceIndex int, framesPerBuffer int, onEvent func(sink.OutputEvent)) (*sink.StreamHandle, error) {
	srcFormat := dyn.Format()
	dstKind, sampleFormat, err := coercedFormat(srcFormat.Kind)
	if err != nil {
		return nil, err
	}

	outParams := portaudio.PaStreamParameters{
		DeviceIndex:  deviceIndex,
		ChannelCount: int(srcFormat.Channels),
		SampleFormat: sampleFormat,
	}

	stream, err := portaudio.NewStream(outParams, float64(srcFormat.SampleRate))
	if err != nil {
		return nil, fmt.Errorf("output: failed to create stream: %w", err)
	}
	if err := stream.Open(framesPerBuffer); err != nil {
		return nil, fmt.Errorf("output: failed to open stream: %w", err)
	}
	if err := stream.StartStream(); err != nil {
		return nil, fmt.Errorf("output: failed to start stream: %w", err)
	}

	dev := &device{stream: stream, framesPerSample: dstKind.BytesPerSample(), channels: int(srcFormat.Channels)}

	needsCoercion := dstKind != srcFormat.Kind
	channels := int(srcFormat.Channels)

	src := sinkSourceFunc(func() ([]byte, bool) {
		buf, ok := dyn.Next()
		if !ok {
			return nil, false
		}
		if !needsCoercion {
			return buf, true
		}
		return coerce(srcFormat, dstKind, channels, buf), true
	})

	return sink.Consume(src, dev, onEvent), nil
}

// sinkSourceFunc adapts a plain pull function to sink.Source.
type sinkSourceFunc func() ([]byte, bool)

func (f sinkSourceFunc) Next() ([]byte, bool) { return f() }
