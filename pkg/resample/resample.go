// Package resample implements the sample-rate conversion pipeline stage
// (spec.md §4.5) by promoting the teacher's batch-oriented
// github.com/zaf/resample usage (the resampleAudio helper cmd/transform.go
// formerly carried, since removed) to a
// persistent, per-frame pull stage: one resampler context lives for the
// whole stream instead of being built and torn down around a single
// in-memory buffer.
package resample

import (
	"bytes"
	"fmt"

	soxr "github.com/zaf/resample"

	"github.com/drgolem/musictools/pkg/frame"
)

// Stage resamples an int16 frame.Source to a new sample rate.
type Stage struct {
	input      frame.Source[int16]
	channels   int
	targetRate uint32
	out        bytes.Buffer
	r          *soxr.Resample
	inputDone  bool
}

// New builds a resampling stage reading from input and emitting frames at
// targetRate. channels must equal the channel count every frame input
// yields declares (1 or 2).
func New(input frame.Source[int16], channels int, targetRate uint32) (*Stage, error) {
	s := &Stage{input: input, channels: channels, targetRate: targetRate}
	r, err := soxr.New(&s.out, float64(input.SampleRate()), float64(targetRate), channels, soxr.I16, soxr.HighQ)
	if err != nil {
		return nil, fmt.Errorf("resample: failed to create resampler: %w", err)
	}
	s.r = r
	return s, nil
}

func (s *Stage) SampleRate() uint32 { return s.targetRate }

// Close releases the resampler context. cmd/transform.go calls this once it
// has drained the stage (spec.md §4.5 "On drop, release the resampler
// context").
func (s *Stage) Close() error {
	if s.r == nil {
		return nil
	}
	return s.r.Close()
}

func (s *Stage) Next() (frame.Frame[int16], bool) {
	bytesPerFrame := 2 * s.channels

	for s.out.Len() < bytesPerFrame {
		if s.inputDone {
			return frame.Frame[int16]{}, false
		}
		f, ok := s.input.Next()
		if !ok {
			s.inputDone = true
			s.Close()
			if s.out.Len() < bytesPerFrame {
				return frame.Frame[int16]{}, false
			}
			break
		}

		buf := make([]byte, bytesPerFrame)
		for ch := 0; ch < s.channels; ch++ {
			v := uint16(f.Channel(ch))
			buf[ch*2] = byte(v)
			buf[ch*2+1] = byte(v >> 8)
		}
		if _, err := s.r.Write(buf); err != nil {
			s.inputDone = true
			if s.out.Len() < bytesPerFrame {
				return frame.Frame[int16]{}, false
			}
			break
		}
	}

	raw := s.out.Next(bytesPerFrame)
	var out frame.Frame[int16]
	out.N = uint8(s.channels)
	for ch := 0; ch < s.channels; ch++ {
		v := uint16(raw[ch*2]) | uint16(raw[ch*2+1])<<8
		out.Channels[ch] = int16(v)
	}
	return out, true
}

var _ frame.Source[int16] = (*Stage)(nil)
