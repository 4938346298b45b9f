package frame

import (
	"encoding/binary"
	"math"
)

// Format describes the (channels x sample-kind) pair a DynSource or
// DynSeek was erased from.
type Format struct {
	SampleRate uint32
	Channels   uint8
	Kind       Kind
}

// BytesPerFrame is the width of one encoded frame in bytes.
func (f Format) BytesPerFrame() int {
	return int(f.Channels) * f.Kind.BytesPerSample()
}

// DynSource is the erased form of a Source[T]: one arm of the 24-variant
// (channels x sample-kind) matrix, boxed behind a byte-producing pull
// function so that downstream stages (the sink, the output device) can
// handle any source without being generic over T themselves.
type DynSource struct {
	format Format
	next   func() ([]byte, bool)
}

// Format reports the erased (channels, kind) pair and sample rate.
func (d DynSource) Format() Format { return d.format }

// Next returns the next frame's worth of raw little-endian bytes, encoded
// per d.Format().Kind, or ok=false when exhausted.
func (d DynSource) Next() ([]byte, bool) { return d.next() }

// DynSeek is the Seekable counterpart of DynSource. It converts implicitly
// to a DynSource via ToSource (losing seek capability); the reverse
// direction is fallible and not provided here since the pipeline never
// needs to recover seek capability once erased.
type DynSeek struct {
	DynSource
	length   func() uint64
	position func() uint64
	seek     func(uint64) error
}

// Length returns the total number of frames.
func (d DynSeek) Length() uint64 { return d.length() }

// CurrentPosition returns the index of the next frame Next will return.
func (d DynSeek) CurrentPosition() uint64 { return d.position() }

// Seek moves CurrentPosition to pos.
func (d DynSeek) Seek(pos uint64) error { return d.seek(pos) }

// ToSource erases seek capability, yielding the plain DynSource view.
func (d DynSeek) ToSource() DynSource { return d.DynSource }

// NewDynSource erases a typed Source into its DynSource variant. channels
// must equal the channel count every Frame the source yields declares;
// kind must be the Kind whose underlying Go type is T (e.g. KindI16 with
// T=int16), or encoding panics on the first frame.
func NewDynSource[T Sample](channels uint8, kind Kind, s Source[T]) DynSource {
	bps := kind.BytesPerSample()
	return DynSource{
		format: Format{SampleRate: s.SampleRate(), Channels: channels, Kind: kind},
		next: func() ([]byte, bool) {
			f, ok := s.Next()
			if !ok {
				return nil, false
			}
			buf := make([]byte, int(channels)*bps)
			for ch := 0; ch < int(channels); ch++ {
				encodeValue(f.Channels[ch], kind, buf[ch*bps:(ch+1)*bps])
			}
			return buf, true
		},
	}
}

// NewDynSeek erases a typed Seekable into its DynSeek variant.
func NewDynSeek[T Sample](channels uint8, kind Kind, s Seekable[T]) DynSeek {
	src := NewDynSource(channels, kind, s)
	return DynSeek{
		DynSource: src,
		length:    s.Length,
		position:  s.CurrentPosition,
		seek:      s.Seek,
	}
}

func encodeValue[T Sample](v T, kind Kind, buf []byte) {
	encodeAny(kind, any(v), buf)
}

func encodeAny(kind Kind, v any, buf []byte) {
	switch kind {
	case KindI8:
		buf[0] = byte(v.(int8))
	case KindU8:
		buf[0] = v.(uint8)
	case KindI16:
		binary.LittleEndian.PutUint16(buf, uint16(v.(int16)))
	case KindU16:
		binary.LittleEndian.PutUint16(buf, v.(uint16))
	case KindI24:
		x := uint32(v.(Int24)) & 0x00FFFFFF
		buf[0], buf[1], buf[2], buf[3] = byte(x), byte(x>>8), byte(x>>16), 0
	case KindU24:
		x := uint32(v.(Uint24)) & 0x00FFFFFF
		buf[0], buf[1], buf[2], buf[3] = byte(x), byte(x>>8), byte(x>>16), 0
	case KindI32:
		binary.LittleEndian.PutUint32(buf, uint32(v.(int32)))
	case KindU32:
		binary.LittleEndian.PutUint32(buf, v.(uint32))
	case KindI64:
		binary.LittleEndian.PutUint64(buf, uint64(v.(int64)))
	case KindU64:
		binary.LittleEndian.PutUint64(buf, v.(uint64))
	case KindF32:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v.(float32)))
	case KindF64:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v.(float64)))
	}
}

// decodeAny is the inverse of encodeAny, used by the output device's
// coercion table (pkg/output) to widen unsupported kinds to ones the
// device accepts.
func decodeAny(kind Kind, buf []byte) any {
	switch kind {
	case KindI8:
		return int8(buf[0])
	case KindU8:
		return buf[0]
	case KindI16:
		return int16(binary.LittleEndian.Uint16(buf))
	case KindU16:
		return binary.LittleEndian.Uint16(buf)
	case KindI24:
		x := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16
		if x&0x00800000 != 0 {
			x |= 0xFF000000
		}
		return Int24(int32(x))
	case KindU24:
		return Uint24(uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16)
	case KindI32:
		return int32(binary.LittleEndian.Uint32(buf))
	case KindU32:
		return binary.LittleEndian.Uint32(buf)
	case KindI64:
		return int64(binary.LittleEndian.Uint64(buf))
	case KindU64:
		return binary.LittleEndian.Uint64(buf)
	case KindF32:
		return math.Float32frombits(binary.LittleEndian.Uint32(buf))
	case KindF64:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf))
	default:
		return nil
	}
}

// EncodeScaled writes v, already expressed in kind's native numeric range
// (see Kind.FullScale), into buf as kind's little-endian representation.
// The 8- to 32-bit integer kinds round and clamp to their representable
// range rather than wrapping on overflow, since v arrives from a linear
// rescale that may overshoot by a fraction of a unit. The 64-bit integer
// kinds are converted directly, without rounding or clamping.
func EncodeScaled(kind Kind, v float64, buf []byte) {
	switch kind {
	case KindI8:
		buf[0] = byte(int8(clampRound(v, -128, 127)))
	case KindU8:
		buf[0] = byte(clampRound(v, 0, 255))
	case KindI16:
		binary.LittleEndian.PutUint16(buf, uint16(int16(clampRound(v, -32768, 32767))))
	case KindU16:
		binary.LittleEndian.PutUint16(buf, uint16(clampRound(v, 0, 65535)))
	case KindI24:
		x := uint32(int32(clampRound(v, -8388608, 8388607))) & 0x00FFFFFF
		buf[0], buf[1], buf[2], buf[3] = byte(x), byte(x>>8), byte(x>>16), 0
	case KindU24:
		x := uint32(clampRound(v, 0, 16777215)) & 0x00FFFFFF
		buf[0], buf[1], buf[2], buf[3] = byte(x), byte(x>>8), byte(x>>16), 0
	case KindI32:
		binary.LittleEndian.PutUint32(buf, uint32(int32(clampRound(v, -2147483648, 2147483647))))
	case KindU32:
		binary.LittleEndian.PutUint32(buf, uint32(clampRound(v, 0, 4294967295)))
	case KindI64:
		binary.LittleEndian.PutUint64(buf, uint64(int64(v)))
	case KindU64:
		binary.LittleEndian.PutUint64(buf, uint64(v))
	case KindF32:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
	case KindF64:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	}
}

func clampRound(v, lo, hi float64) float64 {
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DecodeSample decodes one sample of the given kind from buf, widened to
// float64. Exported for use by pkg/output's sample-kind coercion table.
func DecodeSample(kind Kind, buf []byte) float64 {
	switch v := decodeAny(kind, buf).(type) {
	case int8:
		return float64(v)
	case uint8:
		return float64(v)
	case int16:
		return float64(v)
	case uint16:
		return float64(v)
	case Int24:
		return float64(v)
	case Uint24:
		return float64(v)
	case int32:
		return float64(v)
	case uint32:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}
