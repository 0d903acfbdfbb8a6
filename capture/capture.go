// Package capture persists failure diagnostics to SQLite. The resolution
// engine hands it one rendered description per exhausted resolution and
// receives an opaque reference; writes happen asynchronously so a capture
// never stalls the caller.
//
// The schema keeps whole diagnostics as text: the description already
// carries the chain identity and the attempt trail, and test reports only
// ever look captures up by reference or recency.
package capture

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/domfind/idgen"
)

// Schema for the failures table, applied by Open.
const Schema = `
CREATE TABLE IF NOT EXISTS failures (
	id TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_failures_created ON failures(created_at);
`

// ErrNotFound is returned when a reference does not resolve to a record.
var ErrNotFound = errors.New("capture: record not found")

// Record is one stored failure diagnostic.
type Record struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store writes failure diagnostics to SQLite asynchronously. Create with
// Open, release with Close. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	ch     chan Record
	done   chan struct{}
	once   sync.Once
	gen    idgen.Generator
	logger *slog.Logger
}

// Option customises Open behaviour.
type Option func(*Store)

// WithLogger sets the logger for flush errors. Default: slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithGenerator replaces the reference generator. Default: "cap_"-prefixed
// UUIDv7.
func WithGenerator(gen idgen.Generator) Option {
	return func(s *Store) { s.gen = gen }
}

// Open opens (creating if needed) the capture database at path and starts
// the flush loop. Parent directories are created automatically.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:     db,
		ch:     make(chan Record, 256),
		done:   make(chan struct{}),
		gen:    idgen.Prefixed("cap_", idgen.UUIDv7()),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.flushLoop()
	return s, nil
}

// CaptureFailure queues one diagnostic for persistence and returns its
// reference immediately. Non-blocking: if the buffer is full the record
// is dropped with a warning and the reference will not resolve.
func (s *Store) CaptureFailure(_ context.Context, description string) (string, error) {
	rec := Record{ID: s.gen(), Description: description, CreatedAt: time.Now()}
	select {
	case s.ch <- rec:
	default:
		s.logger.Warn("capture: buffer full, dropping record", "id", rec.ID)
	}
	return rec.ID, nil
}

// Get looks a record up by reference.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	var createdMs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, description, created_at FROM failures WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Description, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("capture: get %s: %w", id, err)
	}
	rec.CreatedAt = time.UnixMilli(createdMs)
	return rec, nil
}

// Recent returns the newest records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, created_at FROM failures ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("capture: recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var createdMs int64
		if err := rows.Scan(&rec.ID, &rec.Description, &createdMs); err != nil {
			return nil, fmt.Errorf("capture: scan: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(createdMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close drains the buffer, stops the flush loop, and closes the database.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		close(s.ch)
		<-s.done
		err = s.db.Close()
	})
	return err
}

func (s *Store) flushLoop() {
	defer close(s.done)

	batch := make([]Record, 0, 32)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case rec, ok := <-s.ch:
			if !ok {
				s.flushBatch(batch)
				return
			}
			batch = append(batch, rec)
			if len(batch) >= 32 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Store) flushBatch(batch []Record) {
	if len(batch) == 0 {
		return
	}

	err := runTx(context.Background(), s.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO failures (id, description, created_at) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("capture: prepare: %w", err)
		}
		defer stmt.Close()

		for _, rec := range batch {
			if _, err := stmt.Exec(rec.ID, rec.Description, rec.CreatedAt.UnixMilli()); err != nil {
				return fmt.Errorf("capture: insert %s: %w", rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("capture: flush batch", "error", err, "records", len(batch))
	}
}
