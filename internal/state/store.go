package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS frames (
	frame_id     TEXT PRIMARY KEY,
	seq          INTEGER NOT NULL UNIQUE,
	locale       TEXT,
	recorded_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS frame_changes (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	frame_id        TEXT NOT NULL,
	entity_id       TEXT NOT NULL,
	state           TEXT,
	attributes_json TEXT,
	removed         INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (frame_id) REFERENCES frames(frame_id)
);

CREATE INDEX IF NOT EXISTS idx_frame_changes_frame ON frame_changes(frame_id);

CREATE TABLE IF NOT EXISTS cycle_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	badge_id      TEXT NOT NULL,
	cycle_id      TEXT NOT NULL,
	frame_id      TEXT,
	action        TEXT NOT NULL,
	reason        TEXT,
	entities_json TEXT,
	created_at    TEXT NOT NULL
);
`

// #endregion schema

// #region frame
// Frame is one recorded batch, replayable in sequence order.
type Frame struct {
	ID         string
	Seq        int64
	Locale     string
	RecordedAt time.Time
	Changes    []Change
}

// Batch converts the frame back into the batch a feed delivered.
func (f Frame) Batch() Batch {
	return Batch{ID: f.ID, At: f.RecordedAt, Changes: f.Changes}
}

// #endregion frame

// #region store-struct
// Store records state frames and cycle decisions in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region record-frame
// RecordFrame appends a batch as the next frame. An empty batch ID is replaced
// with a fresh uuid.
func (s *Store) RecordFrame(batch Batch, localeTag string) (Frame, error) {
	f := Frame{
		ID:         batch.ID,
		Locale:     localeTag,
		RecordedAt: batch.At,
		Changes:    batch.Changes,
	}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.RecordedAt.IsZero() {
		f.RecordedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Frame{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) + 1 FROM frames`).Scan(&f.Seq); err != nil {
		return Frame{}, fmt.Errorf("next seq: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO frames (frame_id, seq, locale, recorded_at) VALUES (?, ?, ?, ?)`,
		f.ID, f.Seq, nullIfEmpty(f.Locale), f.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Frame{}, fmt.Errorf("insert frame: %w", err)
	}

	for _, ch := range f.Changes {
		var attrs interface{}
		if len(ch.Attributes) > 0 {
			b, err := json.Marshal(ch.Attributes)
			if err != nil {
				return Frame{}, fmt.Errorf("marshal attributes %s: %w", ch.EntityID, err)
			}
			attrs = string(b)
		}
		_, err = tx.Exec(
			`INSERT INTO frame_changes (frame_id, entity_id, state, attributes_json, removed)
			 VALUES (?, ?, ?, ?, ?)`,
			f.ID, ch.EntityID, nullIfEmpty(ch.State), attrs, boolToInt(ch.Removed),
		)
		if err != nil {
			return Frame{}, fmt.Errorf("insert change %s: %w", ch.EntityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Frame{}, fmt.Errorf("commit: %w", err)
	}
	return f, nil
}

// #endregion record-frame

// #region list-frames
// ListFrames returns recorded frames in sequence order. limit <= 0 returns all;
// otherwise the most recent limit frames are returned, still oldest first.
func (s *Store) ListFrames(limit int) ([]Frame, error) {
	query := `SELECT frame_id, seq, locale, recorded_at FROM frames ORDER BY seq ASC`
	args := []interface{}{}
	if limit > 0 {
		query = `SELECT frame_id, seq, locale, recorded_at FROM
			(SELECT * FROM frames ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	var frames []Frame
	for rows.Next() {
		var f Frame
		var loc sql.NullString
		var recorded string
		if err := rows.Scan(&f.ID, &f.Seq, &loc, &recorded); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		f.Locale = loc.String
		f.RecordedAt, _ = time.Parse(time.RFC3339Nano, recorded)
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	rows.Close()

	for i := range frames {
		changes, err := s.frameChanges(frames[i].ID)
		if err != nil {
			return nil, err
		}
		frames[i].Changes = changes
	}
	return frames, nil
}

func (s *Store) frameChanges(frameID string) ([]Change, error) {
	rows, err := s.db.Query(
		`SELECT entity_id, state, attributes_json, removed FROM frame_changes
		 WHERE frame_id = ? ORDER BY id ASC`, frameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list changes %s: %w", frameID, err)
	}
	defer rows.Close()

	var changes []Change
	for rows.Next() {
		var ch Change
		var st, attrs sql.NullString
		var removed int
		if err := rows.Scan(&ch.EntityID, &st, &attrs, &removed); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		ch.State = st.String
		ch.Removed = removed != 0
		if attrs.Valid && attrs.String != "" {
			if err := json.Unmarshal([]byte(attrs.String), &ch.Attributes); err != nil {
				return nil, fmt.Errorf("unmarshal attributes %s: %w", ch.EntityID, err)
			}
		}
		changes = append(changes, ch)
	}
	return changes, rows.Err()
}

// #endregion list-frames

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
