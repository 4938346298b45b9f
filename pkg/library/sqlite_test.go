package library

import (
	"os"
	"path/filepath"
	"testing"

	wav "github.com/youpy/go-wav"
)

// writeTestWAV writes a short real PCM WAV file so codec.DecodeFile (used
// by sqliteTrack.Audio/Duration) has something genuine to decode,
// mirroring cmd/transform.go's writeWAVFile helper.
func writeTestWAV(t *testing.T, path string, numSamples int, rate uint32) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	data := make([]byte, numSamples*2) // mono, 16-bit
	for i := 0; i < numSamples; i++ {
		data[i*2] = byte(i)
		data[i*2+1] = 0
	}
	writer := wav.NewWriter(f, uint32(numSamples), 1, rate, 16)
	if _, err := writer.Write(data); err != nil {
		t.Fatalf("wav Write: %v", err)
	}
}

func newTestLibrary(t *testing.T) (*SQLiteLibrary, string) {
	t.Helper()
	lib, err := OpenSQLiteLibrary("test-lib", ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLiteLibrary: %v", err)
	}
	t.Cleanup(func() { lib.Close() })

	dir := t.TempDir()
	writeTestWAV(t, filepath.Join(dir, "song one.wav"), 1000, 44100)
	writeTestWAV(t, filepath.Join(dir, "song two.wav"), 500, 44100)
	writeTestWAV(t, filepath.Join(dir, "ignored.txt"), 0, 44100) // unsupported ext

	if err := lib.Reindex(dir); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	return lib, dir
}

func TestReindexSkipsUnsupportedExtensions(t *testing.T) {
	lib, _ := newTestLibrary(t)

	it := lib.Tracks()
	count := 0
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 indexed tracks, got %d", count)
	}
}

func TestFindByIDReturnsDecodableTrack(t *testing.T) {
	lib, _ := newTestLibrary(t)

	it := lib.Tracks()
	first, ok := it.Next()
	if !ok {
		t.Fatalf("expected at least one track")
	}

	found, ok := lib.FindByID(first.ID())
	if !ok {
		t.Fatalf("FindByID failed for %v", first.ID())
	}
	if found.Title() != first.Title() {
		t.Fatalf("FindByID returned different track: got %q, want %q", found.Title(), first.Title())
	}

	audio, err := found.Audio()
	if err != nil {
		t.Fatalf("Audio: %v", err)
	}
	if audio.Length() == 0 {
		t.Fatalf("expected nonzero decoded length")
	}
}

func TestFindByIDWrongLibraryNameMisses(t *testing.T) {
	lib, _ := newTestLibrary(t)
	_, ok := lib.FindByID(TrackID{Library: "other", Key: "song one.wav"})
	if ok {
		t.Fatalf("expected a mismatched library name to miss")
	}
}

func TestSetResolveMissingLibrary(t *testing.T) {
	lib, _ := newTestLibrary(t)
	set := NewSet()
	set.Register(lib)

	if _, err := set.Resolve(TrackID{Library: "nope", Key: "x"}); err == nil {
		t.Fatalf("expected MissingLibrary error")
	} else if _, ok := err.(*MissingLibrary); !ok {
		t.Fatalf("expected *MissingLibrary, got %T: %v", err, err)
	}
}

func TestSetResolveFindsRegisteredTrack(t *testing.T) {
	lib, _ := newTestLibrary(t)
	set := NewSet()
	set.Register(lib)

	it := lib.Tracks()
	first, _ := it.Next()

	got, err := set.Resolve(first.ID())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Title() != first.Title() {
		t.Fatalf("Resolve returned wrong track")
	}
}
