package output

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/drgolem/musictools/pkg/frame"
)

func TestCoerceI32ToI16ScalesLinearly(t *testing.T) {
	src := frame.Format{SampleRate: 44100, Channels: 1, Kind: frame.KindI32}
	in := make([]byte, 4)
	binary.LittleEndian.PutUint32(in, uint32(int32(1<<30))) // half of i32 full scale

	out := coerce(src, frame.KindI16, 1, in)
	got := int16(binary.LittleEndian.Uint16(out))

	want := int16(1 << 14) // half of i16 full scale
	if got != want {
		t.Fatalf("coerce i32->i16: got %d, want %d", got, want)
	}
}

func TestCoerceF32ToI16RoundTripsSilence(t *testing.T) {
	src := frame.Format{SampleRate: 44100, Channels: 1, Kind: frame.KindF32}
	in := make([]byte, 4)
	binary.LittleEndian.PutUint32(in, math.Float32bits(0))

	out := coerce(src, frame.KindI16, 1, in)
	got := int16(binary.LittleEndian.Uint16(out))
	if got != 0 {
		t.Fatalf("coerce f32(0)->i16: got %d, want 0", got)
	}
}

func TestCoerceClampsOutOfRangeFloat(t *testing.T) {
	src := frame.Format{SampleRate: 44100, Channels: 1, Kind: frame.KindF32}
	in := make([]byte, 4)
	binary.LittleEndian.PutUint32(in, math.Float32bits(2.0)) // beyond [-1,1]

	out := coerce(src, frame.KindI16, 1, in)
	got := int16(binary.LittleEndian.Uint16(out))
	if got != 32767 {
		t.Fatalf("expected clamp to max i16, got %d", got)
	}
}
