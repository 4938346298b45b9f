// Package flow implements the condition-variable gated pass-through stage
// that pauses and stops the pipeline's producer, and the atomic sample
// counter used for position reporting on non-Seekable sources. Both are
// generalizations of the stopChan/mutex idiom of the former
// pkg/audioplayer and internal/fileplayer packages (both since removed from
// this module), widened from a single stop flag
// to the three-state Playing/Paused/Stopped machine spec.md §4.6 requires.
package flow

import (
	"sync"

	"github.com/drgolem/musictools/pkg/frame"
)

// State is one of the three Playback states.
type State int

const (
	Playing State = iota
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Controller is the (condvar, state) pair a Playback shares between its
// transport API and the Gate running on the pipeline worker.
type Controller struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state State
}

// NewController starts in the Playing state.
func NewController() *Controller {
	c := &Controller{state: Playing}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState transitions to s and wakes any goroutine blocked in Gate.Next.
// Stopped is absorbing: once entered, further SetState calls are ignored.
// Returns the state that was active before the call.
func (c *Controller) SetState(s State) State {
	c.mu.Lock()
	old := c.state
	if old == Stopped {
		c.mu.Unlock()
		return old
	}
	c.state = s
	c.mu.Unlock()
	c.cond.Broadcast()
	return old
}

// Stop forces the absorbing Stopped state and wakes any blocked waiter.
// This is the Controller's "drop" behavior (spec.md §4.6): it guarantees a
// worker blocked in Paused cannot outlive the Playback that owns it.
func (c *Controller) Stop() {
	c.SetState(Stopped)
}

// Gate wraps a Source, blocking Next while the Controller reads Paused,
// terminating the sequence once it reads Stopped, and transitioning the
// Controller to Stopped itself when the inner Source terminates naturally.
type Gate[T frame.Sample] struct {
	inner frame.Source[T]
	ctrl  *Controller
}

// NewGate wraps inner under ctrl.
func NewGate[T frame.Sample](inner frame.Source[T], ctrl *Controller) *Gate[T] {
	return &Gate[T]{inner: inner, ctrl: ctrl}
}

func (g *Gate[T]) SampleRate() uint32 { return g.inner.SampleRate() }

func (g *Gate[T]) Next() (frame.Frame[T], bool) {
	g.ctrl.mu.Lock()
	for g.ctrl.state == Paused {
		g.ctrl.cond.Wait()
	}
	stopped := g.ctrl.state == Stopped
	g.ctrl.mu.Unlock()
	if stopped {
		var zero frame.Frame[T]
		return zero, false
	}

	f, ok := g.inner.Next()
	if !ok {
		g.ctrl.Stop()
		var zero frame.Frame[T]
		return zero, false
	}
	return f, true
}

var _ frame.Source[int16] = (*Gate[int16])(nil)
