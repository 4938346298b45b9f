// Package sink is the Go-native counterpart of the consumer() goroutine of
// the former pkg/audioplayer.Player, since removed from this module
// (spec.md §4.8): it pulls frames from a
// frame.DynSource and writes them to an audio output device on its own
// worker, reporting End/Error instead of only logging them, and exposing
// the outcome as a StreamHandle rather than a *Player method set.
package sink

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// OutputEvent is the Output(...) arm of the Event type spec.md §3 defines.
type OutputEvent struct {
	End    bool
	Volume float64 // valid only when the Volume flag is set below
	isVol  bool
	Err    string // valid only when non-empty
}

// End reports a natural end-of-stream.
func EndEvent() OutputEvent { return OutputEvent{End: true} }

// VolumeEvent reports a device volume level in [0,1].
func VolumeEvent(v float64) OutputEvent { return OutputEvent{Volume: v, isVol: true} }

// ErrorEvent reports a device error.
func ErrorEvent(msg string) OutputEvent { return OutputEvent{Err: msg} }

func (e OutputEvent) IsVolume() bool { return e.isVol }
func (e OutputEvent) IsError() bool  { return e.Err != "" }

// Device is the minimal device-writing contract a Sink worker needs.
// pkg/output implements this over github.com/drgolem/go-portaudio; tests
// use an in-memory fake.
type Device interface {
	// Write blocks until frame (one frame's worth of encoded bytes) has
	// been accepted by the device, or returns an error.
	Write(frame []byte) error
	// Latency reports the device's current output latency.
	Latency() time.Duration
	// Close releases the device.
	Close() error
}

// Source is the minimal byte-producing pull contract a Sink worker
// consumes. frame.DynSource satisfies this directly.
type Source interface {
	Next() ([]byte, bool)
}

// StreamHandle is returned by Consume. Dropping it (calling Stop) signals
// the worker to stop even if the source would still yield, per spec.md
// §4.8.
type StreamHandle struct {
	device   Device
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	volume   atomic.Uint64 // bits of a float64, protocol: IEEE-754 bit pattern
}

// Latency reports the device's current output latency.
func (h *StreamHandle) Latency() time.Duration { return h.device.Latency() }

// Volume returns the last volume level reported, default 1.0.
func (h *StreamHandle) Volume() float64 {
	bits := h.volume.Load()
	if bits == 0 {
		return 1.0
	}
	return math.Float64frombits(bits)
}

// SetVolume requests a new output volume in [0,1]. The concrete Device
// implementation is responsible for applying it; this only updates the
// value Volume() reports.
func (h *StreamHandle) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	h.volume.Store(math.Float64bits(v))
}

// Stop signals the worker to stop and waits for it to exit.
func (h *StreamHandle) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Consume spawns a worker that pulls frames from source and writes them to
// device, invoking onEvent with End on natural termination or Error on a
// device failure. The worker closes device when it exits. Grounded on the
// read/write loop of the former audioplayer.Player.consumer() (since
// removed from this module), generalized from a *ringbuffer.RingBuffer to
// any Source.
func Consume(source Source, device Device, onEvent func(OutputEvent)) *StreamHandle {
	h := &StreamHandle{
		device: device,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	h.volume.Store(math.Float64bits(1.0))

	go func() {
		defer close(h.done)
		defer func() {
			if err := device.Close(); err != nil {
				slog.Warn("sink: device close failed", "error", err)
			}
		}()
		for {
			select {
			case <-h.stop:
				return
			default:
			}

			buf, ok := source.Next()
			if !ok {
				onEvent(EndEvent())
				return
			}

			if err := device.Write(buf); err != nil {
				slog.Error("sink: device write failed", "error", err)
				onEvent(ErrorEvent(err.Error()))
				return
			}
		}
	}()

	return h
}
