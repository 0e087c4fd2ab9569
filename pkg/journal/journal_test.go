package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/auri-app/auri/pkg/errors"
)

func TestNewEntry(t *testing.T) {
	e, err := NewEntry("user-1", "  A quiet walk by the river.  ")
	if err != nil {
		t.Fatalf("NewEntry error: %v", err)
	}
	if e.ID == uuid.Nil {
		t.Error("ID not set")
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if e.Text != "A quiet walk by the river." {
		t.Errorf("Text = %q, want trimmed", e.Text)
	}
}

func TestNewEntryInvalid(t *testing.T) {
	tests := []struct {
		name string
		user string
		text string
		code apperrors.Code
	}{
		{"empty text", "user-1", "   ", apperrors.ErrCodeInvalidInput},
		{"too long", "user-1", strings.Repeat("a", apperrors.MaxEntryLength+1), apperrors.ErrCodeInvalidInput},
		{"no user", "", "hello", apperrors.ErrCodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEntry(tt.user, tt.text)
			if !apperrors.Is(err, tt.code) {
				t.Errorf("NewEntry() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	e, err := Prepare(Entry{UserID: "u", Text: "hi", Emotions: []string{"Joy"}})
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	if e.ID == uuid.Nil || e.CreatedAt.IsZero() {
		t.Error("Prepare did not stamp ID and CreatedAt")
	}

	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	e, err = Prepare(Entry{UserID: "u", Text: "hi", CreatedAt: fixed})
	if err != nil {
		t.Fatal(err)
	}
	if !e.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, fixed)
	}

	if _, err := Prepare(Entry{UserID: "u", Text: "hi", Emotions: []string{"J0y!"}}); err == nil {
		t.Error("expected error for invalid emotion label")
	}
}

func TestSampleEntries(t *testing.T) {
	entries := SampleEntries("demo")
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			t.Errorf("sample %d invalid: %v", i, err)
		}
		if i > 0 && !e.CreatedAt.Before(entries[i-1].CreatedAt) {
			t.Errorf("sample %d not older than its predecessor", i)
		}
	}
}
