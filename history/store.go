// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: history/store.go
// Summary: SQLite store for evaluated formula=result pairs.
//
// Appends are queued and written in batches by a background goroutine.
// Flush makes every queued entry visible to readers. Formulas are also
// indexed with an FTS5 trigram table so history can be searched by any
// substring.

package history

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"

	"github.com/framegrace/texelcalc/eval"
)

// Delimiter separates formula=result pairs in the joined form.
const Delimiter = ";"

// pairSeparator sits between a formula and its result.
const pairSeparator = "="

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history: store closed")

// Entry is one evaluated formula.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Formula   string
	Result    string
}

// String renders the entry as formula=result.
func (e Entry) String() string {
	return e.Formula + pairSeparator + e.Result
}

// Config holds configuration for the store.
type Config struct {
	// Path is the SQLite database file.
	Path string

	// BatchSize is the number of queued entries that triggers a write.
	// Default: 32
	BatchSize int

	// BatchTimeout is how long a partial batch waits before being written.
	// Default: 2s
	BatchTimeout time.Duration

	// ChannelBuffer is the size of the append queue.
	// Default: 256
	ChannelBuffer int
}

// DefaultConfig returns the defaults for a database at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:          path,
		BatchSize:     32,
		BatchTimeout:  2 * time.Second,
		ChannelBuffer: 256,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig(c.Path)
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = def.BatchTimeout
	}
	if c.ChannelBuffer <= 0 {
		c.ChannelBuffer = def.ChannelBuffer
	}
	return c
}

// Store is a SQLite-backed history of evaluations.
type Store struct {
	config Config
	db     *sql.DB

	batchChan chan Entry
	stopCh    chan struct{}
	doneCh    chan struct{}
	flushCh   chan chan struct{}
	closeOnce sync.Once

	mu sync.RWMutex
}

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp INTEGER NOT NULL,       -- UnixNano
    formula TEXT NOT NULL,
    result TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries(timestamp);
`

const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
    formula,
    content='entries',
    content_rowid='id',
    tokenize='trigram'
);

CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
    INSERT INTO entries_fts(rowid, formula) VALUES (new.id, new.formula);
END;

CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, formula) VALUES ('delete', old.id, old.formula);
END;
`

// Open opens (creating if needed) the store at path with default settings.
func Open(path string) (*Store, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens a store with custom configuration.
func OpenWithConfig(config Config) (*Store, error) {
	config = config.normalized()
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := config.Path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(2000)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	rebuild, err := migrate(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check schema version: %w", err)
	}
	if _, err := db.Exec(ftsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create FTS schema: %w", err)
	}
	if rebuild {
		if _, err := db.Exec("INSERT INTO entries_fts(rowid, formula) SELECT id, formula FROM entries"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to rebuild FTS index: %w", err)
		}
		log.Printf("History: rebuilt formula index")
	}

	s := &Store{
		config:    config,
		db:        db,
		batchChan: make(chan Entry, config.ChannelBuffer),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		flushCh:   make(chan chan struct{}),
	}
	go s.batchWriter()
	return s, nil
}

// migrate brings the schema to schemaVersion. It reports whether the FTS
// table was dropped and must be repopulated.
func migrate(db *sql.DB) (bool, error) {
	var current int
	if err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&current); err != nil {
		current = 0
	}
	if current == schemaVersion {
		return false, nil
	}
	log.Printf("History: migrating schema from version %d to %d", current, schemaVersion)
	for _, stmt := range []string{
		"DROP TRIGGER IF EXISTS entries_ai",
		"DROP TRIGGER IF EXISTS entries_ad",
		"DROP TABLE IF EXISTS entries_fts",
		"DELETE FROM schema_version",
	} {
		if _, err := db.Exec(stmt); err != nil {
			return false, fmt.Errorf("migration failed on '%s': %w", stmt, err)
		}
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return false, fmt.Errorf("failed to update schema version: %w", err)
	}
	return true, nil
}

func (s *Store) batchWriter() {
	defer close(s.doneCh)

	batch := make([]Entry, 0, s.config.BatchSize)
	timer := time.NewTimer(s.config.BatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.writeBatch(batch); err != nil {
			log.Printf("History: failed to write %d entries: %v", len(batch), err)
		}
		batch = batch[:0]
	}
	drain := func() {
		for {
			select {
			case e := <-s.batchChan:
				batch = append(batch, e)
			default:
				return
			}
		}
	}

	for {
		select {
		case e := <-s.batchChan:
			batch = append(batch, e)
			if len(batch) >= s.config.BatchSize {
				flush()
				timer.Reset(s.config.BatchTimeout)
			}
		case <-timer.C:
			flush()
			timer.Reset(s.config.BatchTimeout)
		case done := <-s.flushCh:
			drain()
			flush()
			close(done)
		case <-s.stopCh:
			drain()
			flush()
			return
		}
	}
}

func (s *Store) writeBatch(batch []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO entries (timestamp, formula, result) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.Timestamp.UnixNano(), e.Formula, e.Result); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert %q: %w", e.String(), err)
		}
	}
	return tx.Commit()
}

func (s *Store) closed() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// Append queues a formula and its result. Entries become visible to
// readers after the next batch write or Flush. When the queue is full the
// entry is written synchronously.
func (s *Store) Append(formula, result string) error {
	if formula == "" {
		return nil
	}
	if s.closed() {
		return ErrClosed
	}
	e := Entry{Timestamp: time.Now(), Formula: formula, Result: result}
	select {
	case s.batchChan <- e:
		return nil
	default:
		return s.writeBatch([]Entry{e})
	}
}

// Recent returns up to limit of the newest entries, oldest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, timestamp, formula, result FROM (
			SELECT id, timestamp, formula, result
			FROM entries
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent query failed: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search returns up to limit entries whose formula contains query, newest
// first. Queries shorter than three characters fall back to LIKE because
// the trigram tokenizer cannot match them.
func (s *Store) Search(query string, limit int) ([]Entry, error) {
	if query == "" || limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error
	if utf8.RuneCountInString(query) < 3 {
		pattern := "%" + strings.ReplaceAll(strings.ReplaceAll(query, "%", "\\%"), "_", "\\_") + "%"
		rows, err = s.db.Query(`
			SELECT id, timestamp, formula, result
			FROM entries
			WHERE formula LIKE ? ESCAPE '\'
			ORDER BY id DESC
			LIMIT ?
		`, pattern, limit)
	} else {
		quoted := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
		rows, err = s.db.Query(`
			SELECT e.id, e.timestamp, e.formula, e.result
			FROM entries_fts
			JOIN entries e ON e.id = entries_fts.rowid
			WHERE entries_fts MATCH ?
			ORDER BY e.id DESC
			LIMIT ?
		`, quoted, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.Formula, &e.Result); err != nil {
			continue
		}
		e.Timestamp = time.Unix(0, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Len returns the number of stored entries.
func (s *Store) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Joined returns every entry as formula=result pairs separated by
// Delimiter, oldest first.
func (s *Store) Joined() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT id, timestamp, formula, result FROM entries ORDER BY id ASC")
	if err != nil {
		return "", fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()
	entries, err := scanEntries(rows)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, Delimiter), nil
}

// ParseJoined splits the joined form back into entries. Empty pieces are
// skipped; a piece without a separator is an error.
func ParseJoined(text string) ([]Entry, error) {
	var out []Entry
	for _, piece := range strings.Split(text, Delimiter) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		formula, result, ok := strings.Cut(piece, pairSeparator)
		if !ok || formula == "" {
			return nil, fmt.Errorf("history: malformed entry %q", piece)
		}
		out = append(out, Entry{Formula: formula, Result: result})
	}
	return out, nil
}

// ImportJoined appends every pair of a joined history and returns how many
// were stored. The import is written synchronously.
func (s *Store) ImportJoined(text string) (int, error) {
	entries, err := ParseJoined(text)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if s.closed() {
		return 0, ErrClosed
	}
	now := time.Now()
	for i := range entries {
		entries[i].Timestamp = now
	}
	if err := s.Flush(); err != nil {
		return 0, err
	}
	if err := s.writeBatch(entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Flush blocks until every queued entry is written.
func (s *Store) Flush() error {
	done := make(chan struct{})
	select {
	case s.flushCh <- done:
		<-done
	case <-s.stopCh:
	}
	return nil
}

// Close writes pending entries and closes the database.
func (s *Store) Close() error {
	err := ErrClosed
	s.closeOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		err = s.db.Close()
	})
	return err
}

var _ eval.HistoryAppender = (*Store)(nil)
