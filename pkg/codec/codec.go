// Package codec bridges the byte-buffer, sample-at-a-time decoders under
// pkg/decoders to the frame.Seekable[int16] pull contract the DSP
// pipeline speaks, grounded on the decodeAllAudio helper that
// cmd/transform.go formerly carried (since removed): each
// decoder is drained fully into memory once, then wrapped in a
// frame.SliceSource, since none of pkg/decoders' wrapped libraries
// (go-flac, go-mpg123, go-wav) expose a seek primitive of their own.
package codec

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/drgolem/musictools/pkg/decoders"
	"github.com/drgolem/musictools/pkg/frame"
	"github.com/drgolem/musictools/pkg/types"
)

// Format identifies the container format detect_format recognized.
type Format int

const (
	FormatUnknown Format = iota
	FormatFLAC
	FormatWAV
	FormatMP3
)

func (f Format) String() string {
	switch f {
	case FormatFLAC:
		return "flac"
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	default:
		return "unknown"
	}
}

// Metadata describes the decoded track independent of any Frame type.
type Metadata struct {
	Format        Format
	SampleRate    uint32
	Channels      uint8
	BitsPerSample int
	Length        uint64 // frame count
}

// DetectFormat sniffs the first 512 bytes of path for the FLAC ("fLaC"),
// WAV ("RIFF"...."WAVE"), and MP3 (0xFFEx frame sync) magic markers.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("codec: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return FormatUnknown, fmt.Errorf("codec: failed to read header: %w", err)
	}
	buf = buf[:n]

	if bytes.HasPrefix(buf, []byte("fLaC")) {
		return FormatFLAC, nil
	}
	if len(buf) >= 12 && bytes.HasPrefix(buf, []byte("RIFF")) && bytes.Equal(buf[8:12], []byte("WAVE")) {
		return FormatWAV, nil
	}
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == 0xFF && buf[i+1]&0xE0 == 0xE0 {
			return FormatMP3, nil
		}
	}
	return FormatUnknown, nil
}

// ProbeFormat opens path just long enough to read its sample rate,
// channel count, and bit depth, without decoding any samples. Used by
// pkg/library to report Channels() without paying for a full decode.
func ProbeFormat(path string) (Metadata, error) {
	decoder, err := decoders.NewDecoder(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("codec: %w", err)
	}
	defer decoder.Close()

	rate, channels, bps := decoder.GetFormat()
	return Metadata{
		Format:        formatFromExt(path),
		SampleRate:    uint32(rate),
		Channels:      uint8(channels),
		BitsPerSample: bps,
	}, nil
}

// DecodeFile fully decodes path into an in-memory frame.Seekable[int16]
// plus its Metadata, dispatching to pkg/decoders' extension-based factory.
func DecodeFile(path string) (frame.Seekable[int16], Metadata, error) {
	decoder, err := decoders.NewDecoder(path)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("codec: %w", err)
	}
	defer decoder.Close()

	rate, channels, bps := decoder.GetFormat()
	if channels < 1 || channels > 2 {
		return nil, Metadata{}, fmt.Errorf("codec: unsupported channel count %d", channels)
	}

	frames, err := decodeAll(decoder, channels, bps)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("codec: %w", err)
	}

	meta := Metadata{
		Format:        formatFromExt(path),
		SampleRate:    uint32(rate),
		Channels:      uint8(channels),
		BitsPerSample: bps,
		Length:        uint64(len(frames)),
	}
	return frame.NewSliceSource[int16](uint32(rate), frames), meta, nil
}

func formatFromExt(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac", ".fla":
		return FormatFLAC
	case ".wav":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// decodeAll drains decoder to completion, converting every decoded sample
// to int16 per bitsPerSample's width (widening 8-bit, truncating 24/32-bit
// to the most-significant 16 bits), mirroring the loop of cmd/transform.go's
// former decodeAllAudio helper but producing typed frames instead of a raw
// buffer.
func decodeAll(decoder types.AudioDecoder, channels, bitsPerSample int) ([]frame.Frame[int16], error) {
	const chunkSamples = 4096
	bytesPerSample := bitsPerSample / 8
	if bytesPerSample == 0 {
		return nil, fmt.Errorf("unsupported bits per sample: %d", bitsPerSample)
	}
	buf := make([]byte, chunkSamples*channels*bytesPerSample)

	var frames []frame.Frame[int16]
	for {
		n, err := decoder.DecodeSamples(chunkSamples, buf)
		if n > 0 {
			for i := 0; i < n; i++ {
				var f frame.Frame[int16]
				f.N = uint8(channels)
				for ch := 0; ch < channels; ch++ {
					offset := (i*channels + ch) * bytesPerSample
					f.Channels[ch] = sampleToInt16(buf[offset:offset+bytesPerSample], bitsPerSample)
				}
				frames = append(frames, f)
			}
		}
		if err != nil {
			if strings.Contains(err.Error(), "EOF") || strings.Contains(err.Error(), "done") {
				break
			}
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return frames, nil
}

// sampleToInt16 reads one little-endian sample of the given bit depth and
// rescales it to the int16 range.
func sampleToInt16(b []byte, bitsPerSample int) int16 {
	switch bitsPerSample {
	case 8:
		return int16((int(b[0]) - 128) << 8)
	case 16:
		return int16(uint16(b[0]) | uint16(b[1])<<8)
	case 24:
		x := int32(uint32(b[0])|uint32(b[1])<<8|uint32(b[2])<<16) << 8 >> 8 // sign-extend 24 -> 32
		return int16(x >> 8)
	case 32:
		x := int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
		return int16(x >> 16)
	default:
		return 0
	}
}
