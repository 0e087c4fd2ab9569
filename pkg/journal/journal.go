// Package journal defines journal entries and the storage contract shared by
// the memory, MongoDB and PostgreSQL backends.
//
// A [Store] is scoped by user: every read and delete takes the owning user's
// ID, and an entry belonging to someone else behaves exactly like a missing
// one ([ErrNotFound]).
package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/auri-app/auri/pkg/errors"
)

// Sentinel errors shared by every backend.
var (
	// ErrNotFound is returned when an entry does not exist for the requesting user.
	ErrNotFound = errors.New("journal: entry not found")

	// ErrExists is returned by Create when the entry ID is already taken.
	ErrExists = errors.New("journal: entry already exists")
)

// Entry is a single journal entry.
type Entry struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	Text      string    `json:"text" yaml:"text"`
	Analysis  string    `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Emotions  []string  `json:"emotions,omitempty" yaml:"emotions,omitempty,flow"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ListOptions narrows a [Store.List] call.
type ListOptions struct {
	Since time.Time // Only entries created at or after Since; zero means all
	Limit int       // Maximum entries returned; zero means no limit
}

// Store persists journal entries.
type Store interface {
	// Create stores e. A zero ID or CreatedAt is filled in. An ID that is
	// already stored yields ErrExists.
	Create(ctx context.Context, e Entry) (Entry, error)

	// List returns the user's entries, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]Entry, error)

	// Get returns one of the user's entries.
	Get(ctx context.Context, userID string, id uuid.UUID) (Entry, error)

	// Delete removes one of the user's entries.
	Delete(ctx context.Context, userID string, id uuid.UUID) error

	Close() error
}

// NewEntry validates text and userID and returns an entry stamped with a
// fresh ID and the current time.
func NewEntry(userID, text string) (Entry, error) {
	e := Entry{
		ID:        uuid.New(),
		UserID:    userID,
		Text:      strings.TrimSpace(text),
		CreatedAt: time.Now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Validate checks the user, text and emotion labels of e.
func (e Entry) Validate() error {
	if err := apperrors.ValidateUserID(e.UserID); err != nil {
		return err
	}
	if err := apperrors.ValidateEntryText(e.Text); err != nil {
		return err
	}
	for _, label := range e.Emotions {
		if err := apperrors.ValidateEmotionLabel(label); err != nil {
			return err
		}
	}
	return nil
}

// Prepare fills a zero ID and CreatedAt and validates the result.
// Backends call it from Create.
func Prepare(e Entry) (Entry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// SampleEntries returns the demo entries shown before a user writes their own.
// Timestamps are relative to now: today, yesterday and two days ago.
func SampleEntries(userID string) []Entry {
	now := time.Now().UTC()
	return []Entry{
		{
			ID:        uuid.New(),
			UserID:    userID,
			Text:      "Today was incredible! Launched my new project and got great feedback.",
			Analysis:  "Very positive sentiment. High enthusiasm and accomplishment.",
			Emotions:  []string{"Joy", "Pride", "Excitement"},
			CreatedAt: now,
		},
		{
			ID:        uuid.New(),
			UserID:    userID,
			Text:      "Feeling a bit overwhelmed with deadlines, but staying focused.",
			Analysis:  "Mixed emotions, showing resilience despite stress.",
			Emotions:  []string{"Stress", "Anxiety", "Determination"},
			CreatedAt: now.Add(-24 * time.Hour),
		},
		{
			ID:        uuid.New(),
			UserID:    userID,
			Text:      "Morning meditation really helped center me today.",
			Analysis:  "Calm and balanced emotional state.",
			Emotions:  []string{"Calm", "Gratitude"},
			CreatedAt: now.Add(-48 * time.Hour),
		},
	}
}
