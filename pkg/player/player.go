// Package player implements the top-level Player: queue, cursor, autofill,
// and the routing of asynchronous pipeline events into queue transitions.
// Grounded on the frizinak/libym Player/Queue shape (other_examples
// 332e4cc5_frizinak-libym__player-player.go.go): Next/Prev become
// PlayNextFromQueue/PlayPreviousFromQueue, the sem sync.Mutex becomes the
// Player's own mu, and the `go func(){ p.sem.Lock() ... }()` re-entrant
// pattern in that file's Play is the direct model for spec.md §4.10's
// "spawn a new task to acquire the Player's lock" rule.
package player

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/drgolem/musictools/pkg/flow"
	"github.com/drgolem/musictools/pkg/library"
	"github.com/drgolem/musictools/pkg/playback"
)

// AutofillFunc lazily produces the next queue item once the queue runs dry,
// e.g. drawing from a shuffled library or a radio-style recommendation
// feed. A nil AutofillFunc means the queue never grows on its own.
type AutofillFunc func() (Item, bool)

// playingEntry is one live row of the Player's playing-map: the queued
// item plus the Playback driving it.
type playingEntry struct {
	item Item
	pb   *playback.Playback
}

// Config bundles the output-device parameters every Playback the Player
// creates is built with.
type Config struct {
	DeviceIndex     int
	FramesPerBuffer int
}

// Player is the top-level state machine spec.md §4.10 describes: an
// ordered Queue with a cursor, an autofill source, a playing-map from id to
// (item, Playback), and a weak self-reference event handlers upgrade
// before ever touching the Player's lock.
type Player struct {
	mu      sync.Mutex
	queue   *Queue
	playing map[uint64]*playingEntry
	nextID  atomic.Uint64

	libs     *library.Set
	cfg      Config
	autofill AutofillFunc

	self weak.Pointer[Player]
}

// New constructs a Player backed by libs (for resolving queued TrackIDs to
// decodable audio) and cfg (the output device parameters). autofill may be
// nil.
func New(libs *library.Set, cfg Config, autofill AutofillFunc) *Player {
	p := &Player{
		queue:    NewQueue(),
		playing:  make(map[uint64]*playingEntry),
		libs:     libs,
		cfg:      cfg,
		autofill: autofill,
	}
	p.self = weak.Make(p)
	return p
}

// Queue exposes the underlying Queue for read-only inspection (Items,
// Cursor, Len). Mutations go through the Player's own Insert/Remove/
// Splice/MoveAll/Shuffle/Enqueue so the cursor-preservation contract is
// only ever exercised under the Player's lock.
func (p *Player) Queue() *Queue {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := p.queue.Items()
	cursor, hasCur := p.queue.Cursor()
	q := &Queue{items: items, cursor: cursor, hasCur: hasCur}
	return q
}

// Enqueue appends id to the queue without starting playback.
func (p *Player) Enqueue(id library.TrackID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue.Append(Item{ID: id})
}

// Insert, Remove, Splice, MoveAll, and Shuffle mirror the Queue operations
// of the same name, each preserving the cursor's reference to its
// pre-mutation item per spec.md §4.10.

func (p *Player) Insert(index int, id library.TrackID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Insert(index, Item{ID: id})
}

func (p *Player) Remove(start, end int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Remove(start, end)
}

func (p *Player) Splice(start, end int, ids []library.TrackID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := make([]Item, len(ids))
	for i, id := range ids {
		items[i] = Item{ID: id}
	}
	return p.queue.Splice(start, end, items)
}

func (p *Player) MoveAll(newOrder []int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.MoveAll(newOrder)
}

func (p *Player) Shuffle(perm func(n int) []int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Shuffle(perm)
}

// PlayFromQueue clears the playing-map, sets the cursor to index, builds a
// Playback for that queue item, starts it Playing, and returns its id.
// Out-of-range index returns an error and leaves state unchanged.
func (p *Player) PlayFromQueue(index int) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playFromQueueLocked(index)
}

func (p *Player) playFromQueueLocked(index int) (uint64, error) {
	item, err := p.queue.At(index)
	if err != nil {
		return 0, err
	}

	for id, entry := range p.playing {
		entry.pb.Close()
		delete(p.playing, id)
	}

	info := item.Info
	if info == nil {
		info, err = p.libs.Resolve(item.ID)
		if err != nil {
			return 0, fmt.Errorf("player: %w", err)
		}
	}
	audio, err := info.Audio()
	if err != nil {
		return 0, fmt.Errorf("player: %w", err)
	}

	if err := p.queue.SetCursor(index); err != nil {
		return 0, err
	}

	channels := info.Channels()
	if channels == 0 {
		channels = 2
	}
	id := p.nextID.Add(1)
	pb, err := playback.NewSeekable(audio, channels, p.cfg.DeviceIndex, p.cfg.FramesPerBuffer, p.makeEventHandler(id))
	if err != nil {
		return 0, fmt.Errorf("player: %w", err)
	}
	p.playing[id] = &playingEntry{item: Item{ID: item.ID, Info: info}, pb: pb}
	return id, nil
}

// PlayPreviousFromQueue plays max(cursor-1, 0).
func (p *Player) PlayPreviousFromQueue() (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cursor, hasCur := p.queue.Cursor()
	if !hasCur {
		cursor = 0
	}
	target := cursor - 1
	if target < 0 {
		target = 0
	}
	return p.playFromQueueLocked(target)
}

// PlayNextFromQueue plays cursor+1 (or 0 if no cursor is set), pulling one
// item from the autofill source first if the queue would otherwise be
// exhausted.
func (p *Player) PlayNextFromQueue() (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playNextFromQueueLocked()
}

func (p *Player) playNextFromQueueLocked() (uint64, error) {
	cursor, hasCur := p.queue.Cursor()
	index := 0
	if hasCur {
		index = cursor + 1
	}
	if index >= p.queue.Len() && p.autofill != nil {
		if item, ok := p.autofill(); ok {
			p.queue.Append(item)
		}
	}
	return p.playFromQueueLocked(index)
}

// Playback returns the live Playback for id, if it is still playing.
func (p *Player) Playback(id uint64) (*playback.Playback, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.playing[id]
	if !ok {
		return nil, false
	}
	return entry.pb, true
}

// makeEventHandler returns the callback wired into the Playback built for
// id. Per spec.md §4.10's event-handler contract, it upgrades the Player's
// weak self-reference and spawns a fresh goroutine before ever acquiring
// the Player's lock — this is what prevents a deadlock when the event
// fires while the caller of some Player mutation is itself holding the
// lock on the very goroutine the worker's Output(End) would otherwise
// reenter.
func (p *Player) makeEventHandler(id uint64) func(playback.Event) {
	self := p.self
	return func(e playback.Event) {
		go func() {
			player := self.Value()
			if player == nil {
				return
			}
			player.handleEvent(id, e)
		}()
	}
}

func (p *Player) handleEvent(id uint64, e playback.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Kind {
	case playback.EventOutput:
		if e.Output.IsError() {
			slog.Error("player: playback error", "id", id, "error", e.Output.Err)
			return
		}
		if e.Output.End {
			if _, err := p.playNextFromQueueLocked(); err != nil {
				slog.Info("player: queue exhausted", "id", id, "error", err)
			}
		}
	case playback.EventState:
		if e.State == flow.Stopped {
			delete(p.playing, id)
		}
	}
}
