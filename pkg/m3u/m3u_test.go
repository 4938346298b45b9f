package m3u

import (
	"bytes"
	"strings"
	"testing"
)

const sample = `#EXTM3U
#EXTINF:123,Artist - Track One
/music/track1.mp3
/music/track2.flac
#EXTINF:-1,Unknown Length Track
/music/track3.wav
`

func TestParseExtractsPathsAndMetadata(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	if entries[0].Path != "/music/track1.mp3" || entries[0].Duration != 123 || entries[0].Title != "Artist - Track One" {
		t.Fatalf("unexpected entry 0: %+v", entries[0])
	}
	if entries[1].Path != "/music/track2.flac" || entries[1].Duration != 0 || entries[1].Title != "" {
		t.Fatalf("expected entry without preceding #EXTINF to carry no metadata: %+v", entries[1])
	}
	if entries[2].Path != "/music/track3.wav" || entries[2].Duration != 0 {
		t.Fatalf("expected -1 (unknown) duration normalized to 0: %+v", entries[2])
	}
}

func TestParseSkipsCommentsAndBlankLines(t *testing.T) {
	input := "\n# just a comment\n\n/a/b.mp3\n\n"
	entries, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "/a/b.mp3" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParseRejectsMalformedExtinf(t *testing.T) {
	if _, err := Parse(strings.NewReader("#EXTINF:not-a-number,Title\n/a.mp3\n")); err == nil {
		t.Fatalf("expected error for non-numeric duration")
	}
	if _, err := Parse(strings.NewReader("#EXTINF:missing-comma\n/a.mp3\n")); err == nil {
		t.Fatalf("expected error for missing comma")
	}
}

func TestWriteThenParseRoundTrips(t *testing.T) {
	entries := []Entry{
		{Path: "/x/one.mp3", Title: "One", Duration: 42},
		{Path: "/x/two.mp3"},
	}
	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse after Write: %v", err)
	}
	if len(got) != 2 || got[0] != entries[0] || got[1].Path != entries[1].Path {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, entries)
	}
}
