package library

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/drgolem/musictools/pkg/codec"
	"github.com/drgolem/musictools/pkg/frame"
)

// supportedExt is the set of file extensions SQLiteLibrary's directory
// walk indexes, matching the formats pkg/codec can decode.
var supportedExt = map[string]bool{
	".flac": true,
	".fla":  true,
	".mp3":  true,
	".wav":  true,
}

// SQLiteLibrary indexes a directory tree into a SQLite database, tagging
// each track only with what can be derived from its path (directory as
// album, filename stem as title) since tag parsing is explicitly out of
// scope (spec.md §1). A real deployment would populate richer metadata by
// running a tag-parsing pass over the same rows this schema defines.
type SQLiteLibrary struct {
	name string
	db   *sql.DB
}

// OpenSQLiteLibrary opens (creating if absent) a SQLite database at
// dbPath and returns a Library named name backed by it.
func OpenSQLiteLibrary(name, dbPath string) (*SQLiteLibrary, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("library: failed to open %s: %w", dbPath, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteLibrary{name: name, db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS tracks (
	key          TEXT PRIMARY KEY,
	path         TEXT NOT NULL,
	title        TEXT NOT NULL,
	album        TEXT NOT NULL,
	track_number INTEGER NOT NULL DEFAULT 0,
	modified_at  INTEGER NOT NULL
)`)
	return err
}

// Close releases the underlying database handle.
func (l *SQLiteLibrary) Close() error { return l.db.Close() }

func (l *SQLiteLibrary) Name() string { return l.name }

// Reindex walks root, inserting or refreshing a row for every file whose
// extension pkg/codec can decode, keyed by its path relative to root.
func (l *SQLiteLibrary) Reindex(root string) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("library: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
INSERT INTO tracks (key, path, title, album, track_number, modified_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	path = excluded.path, title = excluded.title, album = excluded.album,
	track_number = excluded.track_number, modified_at = excluded.modified_at`)
	if err != nil {
		return fmt.Errorf("library: %w", err)
	}
	defer stmt.Close()

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supportedExt[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			slog.Warn("library: failed to stat file during reindex", "path", path, "error", err)
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		album := filepath.Base(filepath.Dir(path))
		_, err = stmt.Exec(rel, path, title, album, 0, info.ModTime().Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("library: reindex of %s failed: %w", root, err)
	}
	return tx.Commit()
}

func (l *SQLiteLibrary) FindByID(id TrackID) (TrackInfo, bool) {
	if id.Library != l.name {
		return nil, false
	}
	row := l.db.QueryRow(`SELECT key, path, title, album, track_number, modified_at FROM tracks WHERE key = ?`, id.Key)
	t, err := scanTrack(l.name, row)
	if err != nil {
		return nil, false
	}
	return t, true
}

func (l *SQLiteLibrary) Tracks() Iterator {
	rows, err := l.db.Query(`SELECT key, path, title, album, track_number, modified_at FROM tracks ORDER BY album, track_number, title`)
	if err != nil {
		slog.Error("library: failed to query tracks", "error", err)
		return &sliceIterator{}
	}
	defer rows.Close()

	var tracks []TrackInfo
	for rows.Next() {
		t, err := scanTrack(l.name, rows)
		if err != nil {
			slog.Warn("library: skipping malformed row", "error", err)
			continue
		}
		tracks = append(tracks, t)
	}
	return &sliceIterator{tracks: tracks}
}

// rowScanner abstracts over *sql.Row and *sql.Rows, both of which expose
// Scan with the same signature.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(libraryName string, row rowScanner) (*sqliteTrack, error) {
	var key, path, title, album string
	var trackNumber int
	var modifiedUnix int64
	if err := row.Scan(&key, &path, &title, &album, &trackNumber, &modifiedUnix); err != nil {
		return nil, err
	}
	return &sqliteTrack{
		id:          TrackID{Library: libraryName, Key: key},
		path:        path,
		title:       title,
		album:       album,
		trackNumber: trackNumber,
		modifiedAt:  time.Unix(modifiedUnix, 0),
	}, nil
}

// sqliteTrack is the TrackInfo implementation backing SQLiteLibrary. Genre,
// artist, rating, and release date are unavailable without a tag-parsing
// pass and report their zero values.
type sqliteTrack struct {
	id          TrackID
	path        string
	title       string
	album       string
	trackNumber int
	modifiedAt  time.Time
}

func (t *sqliteTrack) ID() TrackID          { return t.id }
func (t *sqliteTrack) Title() string        { return t.title }
func (t *sqliteTrack) Artists() []string    { return nil }
func (t *sqliteTrack) Genres() []string     { return nil }
func (t *sqliteTrack) Album() string        { return t.album }
func (t *sqliteTrack) TrackNumber() int     { return t.trackNumber }
func (t *sqliteTrack) Rating() float64      { return 0 }
func (t *sqliteTrack) ReleaseDate() (time.Time, bool) { return time.Time{}, false }
func (t *sqliteTrack) ModifiedAt() (time.Time, bool)  { return t.modifiedAt, true }

func (t *sqliteTrack) Duration() time.Duration {
	_, meta, err := codec.DecodeFile(t.path)
	if err != nil {
		return 0
	}
	return time.Duration(float64(meta.Length) / float64(meta.SampleRate) * float64(time.Second))
}

// Channels reports the track's channel count by probing its header, without
// decoding the full file.
func (t *sqliteTrack) Channels() uint8 {
	meta, err := codec.ProbeFormat(t.path)
	if err != nil {
		return 0
	}
	return meta.Channels
}

func (t *sqliteTrack) Audio() (frame.Seekable[int16], error) {
	audio, _, err := codec.DecodeFile(t.path)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	return audio, nil
}

var _ Library = (*SQLiteLibrary)(nil)
