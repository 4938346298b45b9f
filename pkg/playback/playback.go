// Package playback assembles the per-track pipeline (flow control, STFT /
// phase-vocoder / inverse-STFT for seekable tracks, sample counting,
// output device binding) and exposes the transport API a Player drives:
// play/pause/stop, seek, tempo, position, and an Event stream. Grounded on
// the frizinak/libym Player/Backend shape (other_examples 332e4cc5): the
// sink.StreamHandle here is the Backend equivalent, and NewSeekable /
// NewFromSource are the two pipeline-assembly rules spec.md §4.9 lists.
package playback

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/drgolem/musictools/pkg/flow"
	"github.com/drgolem/musictools/pkg/frame"
	"github.com/drgolem/musictools/pkg/output"
	"github.com/drgolem/musictools/pkg/sink"
	"github.com/drgolem/musictools/pkg/stft"
	"github.com/drgolem/musictools/pkg/vocoder"
)

const (
	windowSize = 1024
	overlap    = windowSize / 2
)

// EventKind tags which arm of Event is populated.
type EventKind int

const (
	EventPosition EventKind = iota
	EventState
	EventTempo
	EventOutput
)

// Event is the Position(u64) | State(State) | Tempo(f64) | Output(OutputEvent)
// sum type of spec.md §3, represented as a tagged struct since Go has no
// native sum types.
type Event struct {
	Kind     EventKind
	Position uint64
	State    flow.State
	Tempo    float64
	Output   sink.OutputEvent
}

// Playback drives one queue item's pipeline from construction to
// completion. Exactly one worker goroutine (owned by the sink.StreamHandle
// returned from output.Consume) pulls frames through the chain; every
// method here is safe to call concurrently with that worker.
type Playback struct {
	ctrl    *flow.Controller
	ratio   *vocoder.Ratio // nil for the Source (non-Seekable) variant
	counter atomic.Uint64

	shared *frame.Shared[int16] // nil for the Source variant
	fwd    *stft.Forward        // nil for the Source variant
	voc    *vocoder.Vocoder     // nil for the Source variant
	inv    *stft.Inverse        // nil for the Source variant

	length     uint64 // 0 when unknown (Source variant)
	hasLength  bool
	sampleRate uint32

	stream  *sink.StreamHandle
	onEvent func(Event)

	stoppedEmitted atomic.Bool // set once State(Stopped) has been emitted
}

// NewFromSource builds the Source-variant pipeline: flow-control and the
// sample counter wrap input directly, with no tempo or seek capability.
func NewFromSource(input frame.Source[int16], channels uint8, deviceIndex, framesPerBuffer int, onEvent func(Event)) (*Playback, error) {
	p := &Playback{
		ctrl:       flow.NewController(),
		sampleRate: input.SampleRate(),
		onEvent:    onEvent,
	}

	gated := flow.NewGate[int16](input, p.ctrl)
	counted := flow.NewCounter[int16](gated, &p.counter)
	dyn := frame.NewDynSource[int16](channels, frame.KindI16, counted)

	stream, err := output.Consume(dyn, deviceIndex, framesPerBuffer, p.handleOutputEvent)
	if err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}
	p.stream = stream
	return p, nil
}

// NewSeekable builds the Seekable-variant pipeline: the decoder is shared
// behind a mutex so the transport API can seek it concurrently with the
// pipeline worker, then fed through STFT -> phase-vocoder -> inverse-STFT
// before flow-control and the counter, per spec.md §4.9.
func NewSeekable(input frame.Seekable[int16], channels uint8, deviceIndex, framesPerBuffer int, onEvent func(Event)) (*Playback, error) {
	shared := frame.NewShared[int16](input)

	fwd, err := stft.New(&normalize{inner: shared}, channels, windowSize, overlap)
	if err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}
	ratio := vocoder.NewRatio(1.0)
	voc := vocoder.New(fwd, ratio)
	inv, err := stft.NewInverse(voc, channels, windowSize, overlap)
	if err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}

	p := &Playback{
		ctrl:       flow.NewController(),
		ratio:      ratio,
		shared:     shared,
		fwd:        fwd,
		voc:        voc,
		inv:        inv,
		length:     input.Length(),
		hasLength:  true,
		sampleRate: input.SampleRate(),
		onEvent:    onEvent,
	}

	gated := flow.NewGate[float64](inv, p.ctrl)
	counted := flow.NewCounter[float64](gated, &p.counter)
	dyn := frame.NewDynSource[int16](channels, frame.KindI16, &denormalize{inner: counted})

	stream, err := output.Consume(dyn, deviceIndex, framesPerBuffer, p.handleOutputEvent)
	if err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}
	p.stream = stream
	return p, nil
}

// handleOutputEvent implements the event policy of spec.md §4.9: End and
// Error both move the Playback to Stopped and emit State(Stopped) followed
// by the forwarded Output event. State(Stopped) is emitted at most once per
// Playback (guarded by stoppedEmitted, shared with SetState), since the
// gate stops the controller itself on natural end without emitting, and an
// explicit SetState(Stopped) can be what drives the gate to its terminal
// Next() and trigger this handler afterward.
func (p *Playback) handleOutputEvent(e sink.OutputEvent) {
	if e.End || e.IsError() {
		p.ctrl.SetState(flow.Stopped)
		if p.stoppedEmitted.CompareAndSwap(false, true) {
			p.emit(Event{Kind: EventState, State: flow.Stopped})
		}
	}
	p.emit(Event{Kind: EventOutput, Output: e})
}

func (p *Playback) emit(e Event) {
	if p.onEvent != nil {
		p.onEvent(e)
	}
}

// State returns the current Playing/Paused/Stopped state.
func (p *Playback) State() flow.State { return p.ctrl.State() }

// SetState transitions to s. A no-op once Stopped, per the absorbing-state
// invariant. Emits at most one State(s) event.
func (p *Playback) SetState(s flow.State) {
	old := p.ctrl.SetState(s)
	if old == flow.Stopped {
		return
	}
	if s == flow.Stopped && !p.stoppedEmitted.CompareAndSwap(false, true) {
		return
	}
	p.emit(Event{Kind: EventState, State: s})
}

// Position reports the current frame index: the shared decoder's position
// for the Seekable variant, the atomic counter otherwise.
func (p *Playback) Position() uint64 {
	if p.shared != nil {
		return p.shared.CurrentPosition()
	}
	return p.counter.Load()
}

// SetPosition seeks the underlying decoder and resets the STFT/vocoder/
// inverse-STFT transient state so reconstructed audio never straddles the
// seek point. A no-op on the Source variant. Emits Position(n) on success.
func (p *Playback) SetPosition(n uint64) error {
	if p.shared == nil {
		return nil
	}
	if err := p.shared.Seek(n); err != nil {
		return err
	}
	p.fwd.Reset()
	p.voc.Reset()
	p.inv.Reset()
	p.emit(Event{Kind: EventPosition, Position: n})
	return nil
}

// Duration reports the total frame count, only for the Seekable variant.
func (p *Playback) Duration() (uint64, bool) {
	if !p.hasLength {
		return 0, false
	}
	return p.length, true
}

// DurationTime reports Duration expressed as a time.Duration at the
// track's sample rate.
func (p *Playback) DurationTime() (time.Duration, bool) {
	n, ok := p.Duration()
	if !ok {
		return 0, false
	}
	seconds := float64(n) / float64(p.sampleRate)
	return time.Duration(seconds * float64(time.Second)), true
}

// Tempo returns the current phase-vocoder ratio, or 1.0 when tempo control
// is unavailable (the Source variant).
func (p *Playback) Tempo() float64 {
	if p.ratio == nil {
		return 1.0
	}
	return p.ratio.Load()
}

// SetTempo updates the shared ratio when tempo control is available and r
// is positive. No-op otherwise. Emits Tempo(r) on success.
func (p *Playback) SetTempo(r float64) {
	if p.ratio == nil || r <= 0 {
		return
	}
	p.ratio.Store(r)
	p.emit(Event{Kind: EventTempo, Tempo: r})
}

// Latency reports the output device's current latency.
func (p *Playback) Latency() time.Duration {
	return p.stream.Latency()
}

// Close stops the pipeline worker and releases the output device.
func (p *Playback) Close() {
	p.ctrl.Stop()
	p.stream.Stop()
}
