package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	errs "behancesync/pkg/errors"
	"behancesync/pkg/record"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	type           TEXT NOT NULL,
	id             TEXT NOT NULL,
	parent         TEXT NOT NULL,
	content_digest TEXT NOT NULL,
	body           TEXT NOT NULL,
	updated_at     TIMESTAMP NOT NULL,
	PRIMARY KEY (type, id)
)`

// storedRecord is one row of the records table
type storedRecord struct {
	Type          string    `db:"type"`
	ID            string    `db:"id"`
	Parent        string    `db:"parent"`
	ContentDigest string    `db:"content_digest"`
	Body          string    `db:"body"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// SQLite stores records in a single SQLite table keyed by (type, id)
type SQLite struct {
	db *sqlx.DB
	// serializes the read-compare-write in CreateRecord
	mu  sync.Mutex
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{`PRAGMA journal_mode = WAL;`, `PRAGMA busy_timeout = 5000;`, schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}

	return NewSQLite(db), nil
}

// NewSQLite wraps an open database whose schema is already in place
func NewSQLite(db *sqlx.DB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

func (s *SQLite) CreateRecord(ctx context.Context, rec *record.Record) (Status, error) {
	if err := validate(rec); err != nil {
		return "", err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrorTypeStore, "failed to encode record "+key(rec))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var digest string
	err = s.db.GetContext(ctx, &digest,
		`SELECT content_digest FROM records WHERE type = ? AND id = ?`, rec.Internal.Type, rec.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO records (type, id, parent, content_digest, body, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.Internal.Type, rec.ID, rec.Parent, rec.Internal.ContentDigest, string(body), s.now().UTC())
		if err != nil {
			return "", errs.Wrap(err, errs.ErrorTypeStore, "failed to insert record "+key(rec))
		}
		return StatusCreated, nil
	case err != nil:
		return "", errs.Wrap(err, errs.ErrorTypeStore, "failed to look up record "+key(rec))
	case digest == rec.Internal.ContentDigest:
		return StatusUnchanged, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE records SET parent = ?, content_digest = ?, body = ?, updated_at = ? WHERE type = ? AND id = ?`,
		rec.Parent, rec.Internal.ContentDigest, string(body), s.now().UTC(), rec.Internal.Type, rec.ID)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrorTypeStore, "failed to update record "+key(rec))
	}
	return StatusUpdated, nil
}

// List returns stored records of recordType ordered by id; "" lists everything
func (s *SQLite) List(ctx context.Context, recordType string) ([]*record.Record, error) {
	query := `SELECT type, id, parent, content_digest, body, updated_at FROM records`
	var args []interface{}
	if recordType != "" {
		query += ` WHERE type = ?`
		args = append(args, recordType)
	}
	query += ` ORDER BY type, id`

	var rows []storedRecord
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStore, "failed to list records")
	}

	out := make([]*record.Record, 0, len(rows))
	for _, row := range rows {
		var rec record.Record
		if err := json.Unmarshal([]byte(row.Body), &rec); err != nil {
			return nil, errs.Wrap(err, errs.ErrorTypeStore, "corrupt record "+row.Type+"/"+row.ID)
		}
		out = append(out, &rec)
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
