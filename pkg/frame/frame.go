// Package frame defines the typed audio frame, the lazy Source/Seekable
// pull contract, and the erased Dyn-Audio boundary type used to cross
// between the generic DSP pipeline and the sink.
package frame

import "fmt"

// Kind identifies one of the twelve sample representations a Frame may
// carry. 24-bit kinds are stored in 32-bit containers with the high byte
// unused; Int24/Uint24 below provide a Validate method that checks the
// 24-bit range explicitly rather than leaving it implicit.
type Kind int

const (
	KindI8 Kind = iota
	KindU8
	KindI16
	KindU16
	KindI24
	KindU24
	KindI32
	KindU32
	KindI64
	KindU64
	KindF32
	KindF64
)

func (k Kind) String() string {
	switch k {
	case KindI8:
		return "i8"
	case KindU8:
		return "u8"
	case KindI16:
		return "i16"
	case KindU16:
		return "u16"
	case KindI24:
		return "i24"
	case KindU24:
		return "u24"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindI64:
		return "i64"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// BytesPerSample returns the container width in bytes for the kind,
// including the unused high byte of the 24-bit variants.
func (k Kind) BytesPerSample() int {
	switch k {
	case KindI8, KindU8:
		return 1
	case KindI16, KindU16:
		return 2
	case KindI24, KindU24, KindI32, KindU32, KindF32:
		return 4
	case KindI64, KindU64, KindF64:
		return 8
	default:
		panic(fmt.Sprintf("frame: unknown sample kind %d", int(k)))
	}
}

// FullScale returns the kind's positive full-scale amplitude: the largest
// magnitude value the kind's native range can represent, 1.0 for the
// float kinds (which are conventionally normalized to [-1, 1]). Used by
// pkg/output's sample-kind coercion table to linearly rescale a decoded
// sample from one kind's native range into another's.
func (k Kind) FullScale() float64 {
	switch k {
	case KindI8:
		return 1 << 7
	case KindU8:
		return 1 << 8
	case KindI16:
		return 1 << 15
	case KindU16:
		return 1 << 16
	case KindI24:
		return 1 << 23
	case KindU24:
		return 1 << 24
	case KindI32:
		return 1 << 31
	case KindU32:
		return 1 << 32
	case KindI64:
		return 1 << 63
	case KindU64:
		return 1 << 64
	case KindF32, KindF64:
		return 1.0
	default:
		panic(fmt.Sprintf("frame: unknown sample kind %d", int(k)))
	}
}

// Int24 is a 24-bit signed sample stored in a 32-bit container. The high
// byte must be a sign-extension of bit 23; Validate checks that invariant
// instead of leaving it implicit.
type Int24 int32

// Validate reports whether the value fits in 24 signed bits.
func (v Int24) Validate() error {
	if v < -(1<<23) || v > (1<<23)-1 {
		return fmt.Errorf("frame: Int24 value %d out of 24-bit signed range", v)
	}
	return nil
}

// Uint24 is a 24-bit unsigned sample stored in a 32-bit container.
type Uint24 uint32

// Validate reports whether the value fits in 24 unsigned bits.
func (v Uint24) Validate() error {
	if v > (1<<24)-1 {
		return fmt.Errorf("frame: Uint24 value %d out of 24-bit unsigned range", v)
	}
	return nil
}

// Sample is the set of Go types a Frame may carry a channel's worth of.
// Int24 and Uint24 are included through ~int32 and ~uint32.
type Sample interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Frame is an N-channel group of samples of one Sample type, N in {1,2}.
// Frames are value types: copying a Frame copies its (small, fixed-size)
// channel array, never a heap allocation.
type Frame[T Sample] struct {
	N        uint8
	Channels [2]T
}

// Mono builds a single-channel Frame.
func Mono[T Sample](v T) Frame[T] {
	return Frame[T]{N: 1, Channels: [2]T{v}}
}

// Stereo builds a two-channel Frame.
func Stereo[T Sample](l, r T) Frame[T] {
	return Frame[T]{N: 2, Channels: [2]T{l, r}}
}

// Channel returns the sample for channel index ch, or the zero value of T
// if ch is out of range for this frame's declared channel count.
func (f Frame[T]) Channel(ch int) T {
	if ch < 0 || ch >= int(f.N) {
		var zero T
		return zero
	}
	return f.Channels[ch]
}

// Equilibrium is the Frame-valued representation of silence: every channel
// at its zero value. Used by the STFT ring to zero-pad a window tail.
func Equilibrium[T Sample](n uint8) Frame[T] {
	return Frame[T]{N: n}
}
