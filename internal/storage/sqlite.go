package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sadopc/apidoc-recorder/internal/capture"
	"github.com/sadopc/apidoc-recorder/internal/recorder"
)

var _ recorder.Persister = (*Store)(nil)

// Store persists the recording state and captured entries in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath. ":memory:" is accepted.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening recorder db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		PRAGMA busy_timeout = 5000;
		CREATE TABLE IF NOT EXISTS entries (
			seq          INTEGER PRIMARY KEY,
			id           TEXT NOT NULL,
			method       TEXT NOT NULL,
			url          TEXT NOT NULL,
			status_code  INTEGER,
			latency_ms   INTEGER,
			timestamp    TEXT NOT NULL,
			data         TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_url ON entries(url);
		CREATE TABLE IF NOT EXISTS state (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			recording  INTEGER NOT NULL,
			count      INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating recorder tables: %w", err)
	}
	return nil
}

// LoadState returns the saved state, or the zero state if none was saved.
func (s *Store) LoadState() (recorder.State, error) {
	var st recorder.State
	var recording int
	err := s.db.QueryRow(`SELECT recording, count FROM state WHERE id = 1`).Scan(&recording, &st.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return recorder.State{}, nil
	}
	if err != nil {
		return recorder.State{}, fmt.Errorf("loading state: %w", err)
	}
	st.Recording = recording != 0
	return st, nil
}

// SaveState replaces the saved state.
func (s *Store) SaveState(st recorder.State) error {
	if err := saveState(s.db, st); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func saveState(db execer, st recorder.State) error {
	_, err := db.Exec(`
		INSERT INTO state (id, recording, count, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET recording = excluded.recording, count = excluded.count, updated_at = excluded.updated_at`,
		boolInt(st.Recording), st.Count, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// AppendEntry inserts e and saves st in one transaction.
func (s *Store) AppendEntry(e capture.Entry, st recorder.State) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning append: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO entries (seq, id, method, url, status_code, latency_ms, timestamp, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Seq, e.ID, e.Method, e.URL, e.StatusCode, e.LatencyMs,
		e.Timestamp.UTC().Format(time.RFC3339Nano), string(data),
	)
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	if err := saveState(tx, st); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return tx.Commit()
}

// LoadEntries returns every entry in sequence order.
func (s *Store) LoadEntries() ([]capture.Entry, error) {
	rows, err := s.db.Query(`SELECT data FROM entries ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Search returns entries whose URL contains query.
func (s *Store) Search(query string) ([]capture.Entry, error) {
	rows, err := s.db.Query(`
		SELECT data FROM entries
		WHERE url LIKE ?
		ORDER BY seq ASC`, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("searching entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Entry returns the entry with sequence number seq.
func (s *Store) Entry(seq int) (capture.Entry, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM entries WHERE seq = ?`, seq).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return capture.Entry{}, fmt.Errorf("entry %d: %w", seq, ErrNotFound)
	}
	if err != nil {
		return capture.Entry{}, fmt.Errorf("loading entry %d: %w", seq, err)
	}
	var e capture.Entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return capture.Entry{}, fmt.Errorf("decoding entry %d: %w", seq, err)
	}
	return e, nil
}

// ErrNotFound is returned when a requested entry does not exist.
var ErrNotFound = errors.New("not found")

// Reset deletes every entry and saves st.
func (s *Store) Reset(st recorder.State) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	if err := saveState(tx, st); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]capture.Entry, error) {
	var entries []capture.Entry
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning entry row: %w", err)
		}
		var e capture.Entry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("decoding entry row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
