package frame

import "testing"

func TestSliceSourceSampleRateStable(t *testing.T) {
	src := NewSliceSource[int16](44100, []Frame[int16]{
		Stereo[int16](1, 2),
		Stereo[int16](3, 4),
	})

	for i := 0; i < 5; i++ {
		if got := src.SampleRate(); got != 44100 {
			t.Fatalf("SampleRate changed across calls: got %d, want 44100", got)
		}
		src.Next()
	}
}

func TestSliceSourcePositionInvariant(t *testing.T) {
	frames := []Frame[int16]{Stereo[int16](1, 1), Stereo[int16](2, 2), Stereo[int16](3, 3)}
	src := NewSliceSource[int16](44100, frames)

	for {
		pos := src.CurrentPosition()
		remaining := src.Length() - pos
		if pos+remaining != src.Length() {
			t.Fatalf("position invariant violated: pos=%d remaining=%d length=%d", pos, remaining, src.Length())
		}
		if _, ok := src.Next(); !ok {
			break
		}
	}
}

func TestSeekOutOfRange(t *testing.T) {
	src := NewSliceSource[int16](44100, []Frame[int16]{Mono[int16](1)})
	err := src.Seek(1)
	var oor *OutOfRange
	if err == nil {
		t.Fatalf("expected OutOfRange, got nil")
	}
	if !asOutOfRange(err, &oor) {
		t.Fatalf("expected *OutOfRange, got %T", err)
	}
	if oor.Pos != 1 || oor.Size != 1 {
		t.Fatalf("unexpected OutOfRange fields: %+v", oor)
	}
}

func asOutOfRange(err error, target **OutOfRange) bool {
	if o, ok := err.(*OutOfRange); ok {
		*target = o
		return true
	}
	return false
}

func TestSeekThenNext(t *testing.T) {
	src := NewSliceSource[int16](44100, []Frame[int16]{
		Stereo[int16](0, 0),
		Stereo[int16](10, 10),
		Stereo[int16](20, 20),
	})

	if err := src.Seek(2); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if got := src.CurrentPosition(); got != 2 {
		t.Fatalf("CurrentPosition after seek: got %d, want 2", got)
	}
	f, ok := src.Next()
	if !ok {
		t.Fatalf("Next after seek returned no frame")
	}
	if f.Channel(0) != 20 {
		t.Fatalf("Next after seek returned wrong frame: %+v", f)
	}
}

func TestInt24Validate(t *testing.T) {
	if err := Int24(1 << 23).Validate(); err == nil {
		t.Fatalf("expected validation error for out-of-range Int24")
	}
	if err := Int24((1 << 23) - 1).Validate(); err != nil {
		t.Fatalf("unexpected error for max Int24: %v", err)
	}
}
