// Package library defines the Library/TrackInfo interface boundary spec.md
// §6 describes, and a minimal SQL-backed implementation over a directory
// walk. Out of scope for the DSP core per spec.md §1 ("the
// filesystem-indexing library with its SQL-backed metadata store" is
// listed as an external collaborator); this package exists only so
// pkg/player has something concrete to drive against.
package library

import (
	"fmt"
	"time"

	"github.com/drgolem/musictools/pkg/frame"
)

// TrackID identifies a track within a named library by an
// implementation-opaque key, per spec.md §6's "id = (library_name,
// opaque_string)".
type TrackID struct {
	Library string
	Key     string
}

func (id TrackID) String() string { return fmt.Sprintf("%s:%s", id.Library, id.Key) }

// TrackInfo exposes one library entry's metadata plus its decodable audio,
// mirroring spec.md §6's TrackInfo trait.
type TrackInfo interface {
	ID() TrackID
	Title() string
	Artists() []string
	Genres() []string
	Album() string
	TrackNumber() int
	Rating() float64
	ReleaseDate() (time.Time, bool)
	ModifiedAt() (time.Time, bool)
	Duration() time.Duration
	Channels() uint8
	Audio() (frame.Seekable[int16], error)
}

// Iterator is the pull contract Tracks returns, consistent with the
// Source/Seekable pull style used throughout the pipeline.
type Iterator interface {
	Next() (TrackInfo, bool)
}

// Library is one named collection of tracks.
type Library interface {
	Name() string
	Tracks() Iterator
	FindByID(id TrackID) (TrackInfo, bool)
}

// Set is a lookup across multiple named libraries, used by pkg/player to
// resolve a queued TrackID to its TrackInfo. MissingLibrary is returned
// when no registered Library matches id.Library.
type Set struct {
	libraries map[string]Library
}

// NewSet builds an empty Set. Libraries are registered with Register.
func NewSet() *Set {
	return &Set{libraries: make(map[string]Library)}
}

// Register adds lib to the set, keyed by its Name().
func (s *Set) Register(lib Library) {
	s.libraries[lib.Name()] = lib
}

// MissingLibrary is returned by Resolve when id names a library that was
// never Register-ed.
type MissingLibrary struct {
	Name string
}

func (e *MissingLibrary) Error() string {
	return fmt.Sprintf("library: no registered library named %q", e.Name)
}

// Resolve looks up id across the registered libraries.
func (s *Set) Resolve(id TrackID) (TrackInfo, error) {
	lib, ok := s.libraries[id.Library]
	if !ok {
		return nil, &MissingLibrary{Name: id.Library}
	}
	track, ok := lib.FindByID(id)
	if !ok {
		return nil, fmt.Errorf("library: %v: no track with key %q", id.Library, id.Key)
	}
	return track, nil
}

// sliceIterator is the Iterator used by the SQLite-backed Library below.
type sliceIterator struct {
	tracks []TrackInfo
	i      int
}

func (it *sliceIterator) Next() (TrackInfo, bool) {
	if it.i >= len(it.tracks) {
		return nil, false
	}
	t := it.tracks[it.i]
	it.i++
	return t, true
}
