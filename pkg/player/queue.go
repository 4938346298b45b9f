package player

import (
	"fmt"

	"github.com/drgolem/musictools/pkg/library"
)

// Item is one entry in a Queue: a library-resolvable track id plus whatever
// metadata was available when it was queued (nil if the caller queued a
// bare TrackID without looking it up).
type Item struct {
	ID   library.TrackID
	Info library.TrackInfo
}

// IndexOutOfBounds is returned by Queue operations given an index outside
// [0, len(queue)], per spec.md §4.10.
type IndexOutOfBounds struct {
	Index, Len int
}

func (e *IndexOutOfBounds) Error() string {
	return fmt.Sprintf("player: index %d out of bounds (len %d)", e.Index, e.Len)
}

// MoveLengthMismatch is returned by MoveAll when the replacement index
// slice's length does not match the queue's length.
type MoveLengthMismatch struct {
	Got, Want int
}

func (e *MoveLengthMismatch) Error() string {
	return fmt.Sprintf("player: move length mismatch: got %d indices, want %d", e.Got, e.Want)
}

// MoveDuplicateIndices is returned by MoveAll when the replacement index
// slice is not a permutation of [0, len(queue)).
type MoveDuplicateIndices struct {
	Index int
}

func (e *MoveDuplicateIndices) Error() string {
	return fmt.Sprintf("player: duplicate or out-of-range index %d in move", e.Index)
}

// Queue is the ordered sequence of audio items spec.md §3 describes, with a
// cursor identifying the currently-selected item. After every mutation the
// cursor is re-anchored to the first item whose TrackID equals the
// pre-mutation cursor item's TrackID, and cleared if no such item remains.
// When every TrackID in the queue is distinct this keeps the cursor on the
// same underlying item (spec.md §4.10, testable property 8); when the same
// TrackID is queued more than once, the cursor can land on an earlier copy
// instead of the one it pointed at.
type Queue struct {
	items  []Item
	cursor int  // index into items, meaningless unless hasCursor
	hasCur bool
}

// NewQueue returns an empty Queue with no cursor.
func NewQueue() *Queue {
	return &Queue{}
}

// Len returns the number of items in the queue.
func (q *Queue) Len() int { return len(q.items) }

// Items returns a copy of the queue's contents in order.
func (q *Queue) Items() []Item {
	out := make([]Item, len(q.items))
	copy(out, q.items)
	return out
}

// Cursor returns the current cursor index and whether one is set.
func (q *Queue) Cursor() (int, bool) { return q.cursor, q.hasCur }

// SetCursor moves the cursor to index, or clears it if index < 0.
func (q *Queue) SetCursor(index int) error {
	if index < 0 {
		q.hasCur = false
		return nil
	}
	if index >= len(q.items) {
		return &IndexOutOfBounds{Index: index, Len: len(q.items)}
	}
	q.cursor = index
	q.hasCur = true
	return nil
}

// At returns the item at index.
func (q *Queue) At(index int) (Item, error) {
	if index < 0 || index >= len(q.items) {
		return Item{}, &IndexOutOfBounds{Index: index, Len: len(q.items)}
	}
	return q.items[index], nil
}

// currentKey identifies the item the cursor points to before a mutation, so
// the cursor can be re-anchored to the same item afterward. Returns
// (TrackID{}, false) when there is no cursor.
func (q *Queue) currentKey() (library.TrackID, bool) {
	if !q.hasCur || q.cursor >= len(q.items) {
		return library.TrackID{}, false
	}
	return q.items[q.cursor].ID, true
}

// reanchor restores the cursor to the first item matching key, clearing it
// if key is absent from the new contents (the item was removed).
func (q *Queue) reanchor(key library.TrackID, hadCursor bool) {
	if !hadCursor {
		return
	}
	for i, it := range q.items {
		if it.ID == key {
			q.cursor = i
			q.hasCur = true
			return
		}
	}
	q.hasCur = false
}

// Insert inserts item at index, shifting subsequent items right. index may
// equal len(queue) to append.
func (q *Queue) Insert(index int, item Item) error {
	if index < 0 || index > len(q.items) {
		return &IndexOutOfBounds{Index: index, Len: len(q.items)}
	}
	key, had := q.currentKey()
	q.items = append(q.items, Item{})
	copy(q.items[index+1:], q.items[index:])
	q.items[index] = item
	q.reanchor(key, had)
	return nil
}

// Append adds item to the end of the queue.
func (q *Queue) Append(item Item) {
	_ = q.Insert(len(q.items), item)
}

// Remove deletes the half-open range [start, end) from the queue.
func (q *Queue) Remove(start, end int) error {
	if start < 0 || end > len(q.items) || start > end {
		return &IndexOutOfBounds{Index: start, Len: len(q.items)}
	}
	key, had := q.currentKey()
	q.items = append(q.items[:start], q.items[end:]...)
	q.reanchor(key, had)
	return nil
}

// Splice replaces the half-open range [start, end) with replacement,
// preserving the cursor's reference to its pre-splice item when that item
// is not one of the ones removed.
func (q *Queue) Splice(start, end int, replacement []Item) error {
	if start < 0 || end > len(q.items) || start > end {
		return &IndexOutOfBounds{Index: start, Len: len(q.items)}
	}
	key, had := q.currentKey()
	tail := append([]Item{}, q.items[end:]...)
	q.items = append(q.items[:start], replacement...)
	q.items = append(q.items, tail...)
	q.reanchor(key, had)
	return nil
}

// MoveAll reorders the whole queue: newOrder[i] names the current index of
// the item that should end up at position i. newOrder must be a
// permutation of [0, len(queue)).
func (q *Queue) MoveAll(newOrder []int) error {
	if len(newOrder) != len(q.items) {
		return &MoveLengthMismatch{Got: len(newOrder), Want: len(q.items)}
	}
	seen := make([]bool, len(q.items))
	for _, idx := range newOrder {
		if idx < 0 || idx >= len(q.items) || seen[idx] {
			return &MoveDuplicateIndices{Index: idx}
		}
		seen[idx] = true
	}

	key, had := q.currentKey()
	reordered := make([]Item, len(q.items))
	for newPos, oldPos := range newOrder {
		reordered[newPos] = q.items[oldPos]
	}
	q.items = reordered
	q.reanchor(key, had)
	return nil
}

// Shuffle reorders the queue per a caller-supplied permutation function
// (e.g. a Fisher-Yates draw seeded by the caller), preserving the cursor.
// perm receives the queue length and returns newOrder for MoveAll.
func (q *Queue) Shuffle(perm func(n int) []int) error {
	return q.MoveAll(perm(len(q.items)))
}
