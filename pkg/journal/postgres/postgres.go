// Package postgres stores journal entries in PostgreSQL through gorm. The
// schema is versioned with golang-migrate; Open applies pending migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/auri-app/auri/pkg/journal"
)

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// entryRecord is the table row for an entry. The table itself is created by
// the embedded migrations.
type entryRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"size:128;not null;index:idx_entries_user_created,priority:1"`
	Text      string    `gorm:"type:text;not null"`
	Analysis  string    `gorm:"type:text"`
	Emotions  []string  `gorm:"serializer:json;type:jsonb"`
	CreatedAt time.Time `gorm:"not null;index:idx_entries_user_created,priority:2,sort:desc"`
}

func (entryRecord) TableName() string { return "entries" }

func toRecord(e journal.Entry) entryRecord {
	return entryRecord{
		ID:        e.ID,
		UserID:    e.UserID,
		Text:      e.Text,
		Analysis:  e.Analysis,
		Emotions:  e.Emotions,
		CreatedAt: e.CreatedAt,
	}
}

func (r entryRecord) entry() journal.Entry {
	return journal.Entry{
		ID:        r.ID,
		UserID:    r.UserID,
		Text:      r.Text,
		Analysis:  r.Analysis,
		Emotions:  r.Emotions,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

// Store is a journal.Store backed by PostgreSQL.
type Store struct {
	db *gorm.DB
}

var _ journal.Store = (*Store)(nil)

// Open connects to dsn, tunes the connection pool and migrates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres: missing DSN")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	sdb, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sdb.SetConnMaxLifetime(30 * time.Minute)
	sdb.SetMaxOpenConns(10)
	sdb.SetMaxIdleConns(5)
	if err := sdb.PingContext(ctx); err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if err := migrateUp(ctx, sdb); err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return &Store{db: gdb}, nil
}

func (s *Store) Create(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	e, err := journal.Prepare(e)
	if err != nil {
		return journal.Entry{}, err
	}
	rec := toRecord(e)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return journal.Entry{}, journal.ErrExists
		}
		return journal.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

func (s *Store) List(ctx context.Context, userID string, opts journal.ListOptions) ([]journal.Entry, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !opts.Since.IsZero() {
		q = q.Where("created_at >= ?", opts.Since)
	}
	q = q.Order("created_at DESC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var recs []entryRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := make([]journal.Entry, len(recs))
	for i, r := range recs {
		out[i] = r.entry()
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, userID string, id uuid.UUID) (journal.Entry, error) {
	var rec entryRecord
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return journal.Entry{}, journal.ErrNotFound
	}
	if err != nil {
		return journal.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return rec.entry(), nil
}

func (s *Store) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&entryRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return journal.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error {
	sdb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sdb.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
