// Package sqlite stores journal entries in a local SQLite file using the
// pure Go modernc driver, so the CLI can keep a journal without a server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/auri-app/auri/pkg/journal"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	text       TEXT NOT NULL,
	analysis   TEXT NOT NULL DEFAULT '',
	emotions   TEXT NOT NULL DEFAULT '[]',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_user_created ON entries (user_id, created_at DESC);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// Store is a journal.Store backed by a SQLite database file.
type Store struct {
	db *sql.DB
}

var _ journal.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("sqlite: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Create(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	e, err := journal.Prepare(e)
	if err != nil {
		return journal.Entry{}, err
	}
	emotions, err := json.Marshal(nonNil(e.Emotions))
	if err != nil {
		return journal.Entry{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (id, user_id, text, analysis, emotions, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.UserID, e.Text, e.Analysis, string(emotions), e.CreatedAt.UnixNano())
	if err != nil {
		if isConstraint(err) {
			return journal.Entry{}, journal.ErrExists
		}
		return journal.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

func (s *Store) List(ctx context.Context, userID string, opts journal.ListOptions) ([]journal.Entry, error) {
	var (
		q    strings.Builder
		args = []any{userID}
	)
	q.WriteString(`SELECT id, user_id, text, analysis, emotions, created_at FROM entries WHERE user_id = ?`)
	if !opts.Since.IsZero() {
		q.WriteString(` AND created_at >= ?`)
		args = append(args, opts.Since.UnixNano())
	}
	q.WriteString(` ORDER BY created_at DESC`)
	if opts.Limit > 0 {
		q.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := make([]journal.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, userID string, id uuid.UUID) (journal.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, text, analysis, emotions, created_at FROM entries WHERE id = ? AND user_id = ?`,
		id.String(), userID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return journal.Entry{}, journal.ErrNotFound
	}
	return e, err
}

func (s *Store) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ? AND user_id = ?`, id.String(), userID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return journal.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (journal.Entry, error) {
	var (
		e        journal.Entry
		id       string
		emotions string
		created  int64
	)
	if err := sc.Scan(&id, &e.UserID, &e.Text, &e.Analysis, &emotions, &created); err != nil {
		return journal.Entry{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("decode entry id %q: %w", id, err)
	}
	e.ID = parsed
	if err := json.Unmarshal([]byte(emotions), &e.Emotions); err != nil {
		return journal.Entry{}, fmt.Errorf("decode emotions of %s: %w", id, err)
	}
	if len(e.Emotions) == 0 {
		e.Emotions = nil
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	return e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func isConstraint(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
