package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"filippo.io/age"
	"github.com/google/uuid"

	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/journal"
)

// newSQLiteCLI returns a CLI whose config keeps the journal in a fresh
// SQLite file.
func newSQLiteCLI(t *testing.T) (*CLI, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg := "[cache]\nbackend = \"none\"\n\n[store]\nbackend = \"sqlite\"\nsqlite_path = \"" +
		filepath.ToSlash(filepath.Join(dir, "journal.db")) + "\"\n"
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return New(io.Discard, LogInfo), path
}

func TestEncodeDecodeEntries(t *testing.T) {
	entries := []journal.Entry{{
		ID:        uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		UserID:    "alice",
		Text:      "Long walk, clear head.",
		Emotions:  []string{"Calm", "Hope"},
		CreatedAt: time.Date(2024, 6, 2, 18, 30, 0, 0, time.UTC),
	}}

	for _, format := range []string{exportJSON, exportYAML} {
		t.Run(format, func(t *testing.T) {
			data, err := encodeEntries(entries, format)
			if err != nil {
				t.Fatal(err)
			}
			got, err := decodeEntries(data, "export."+format)
			if err != nil {
				t.Fatalf("decodeEntries() error: %v\n%s", err, data)
			}
			if len(got) != 1 || got[0].ID != entries[0].ID || got[0].Text != entries[0].Text ||
				!got[0].CreatedAt.Equal(entries[0].CreatedAt) || len(got[0].Emotions) != 2 {
				t.Errorf("decoded %+v, want %+v", got, entries)
			}
		})
	}

	if _, err := encodeEntries(entries, "csv"); !apperrors.Is(err, apperrors.ErrCodeInvalidFormat) {
		t.Errorf("csv export error = %v, want INVALID_FORMAT", err)
	}
	if _, err := decodeEntries([]byte("{not: [valid"), "export.yaml"); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("bad yaml error = %v, want INVALID_INPUT", err)
	}
}

func TestSealUnseal(t *testing.T) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}
	keyFile := filepath.Join(t.TempDir(), "key.txt")
	if err := os.WriteFile(keyFile, []byte(id.String()+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	plain := []byte(`[{"text": "secret"}]`)

	for _, armored := range []bool{false, true} {
		sealed, err := seal(plain, []string{id.Recipient().String()}, armored)
		if err != nil {
			t.Fatal(err)
		}
		if !isSealed(sealed) {
			t.Errorf("armored=%v: output not recognised as encrypted", armored)
		}
		if strings.Contains(string(sealed), "secret") {
			t.Errorf("armored=%v: plaintext leaked", armored)
		}
		got, err := unseal(sealed, keyFile)
		if err != nil {
			t.Fatalf("armored=%v: unseal error: %v", armored, err)
		}
		if string(got) != string(plain) {
			t.Errorf("armored=%v: unseal = %q", armored, got)
		}
	}

	if _, err := seal(plain, []string{"age1nope"}, false); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("bad recipient error = %v", err)
	}
	if isSealed(plain) {
		t.Error("plain JSON reported as encrypted")
	}
}

func TestEntryExportImportCommands(t *testing.T) {
	src, srcPath := newSQLiteCLI(t)
	if _, err := execute(t, src, "--config", srcPath, "entry", "add", "Rain on the window, tea in hand."); err != nil {
		t.Fatal(err)
	}

	id, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key.txt")
	if err := os.WriteFile(keyFile, []byte(id.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	exported := filepath.Join(dir, "journal.yaml")
	if _, err := execute(t, src, "--config", srcPath, "entry", "export", "-f", "yaml", "-r", id.Recipient().String(), "-o", exported); err != nil {
		t.Fatal(err)
	}

	dst, dstPath := newSQLiteCLI(t)
	if _, err := execute(t, dst, "--config", dstPath, "entry", "import", exported); err == nil {
		t.Error("encrypted import without --identity succeeded")
	}
	for range 2 {
		if _, err := execute(t, dst, "--config", dstPath, "entry", "import", exported, "-i", keyFile); err != nil {
			t.Fatal(err)
		}
	}

	out, err := execute(t, dst, "--config", dstPath, "entry", "export")
	if err != nil {
		t.Fatal(err)
	}
	var entries []journal.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("export is not JSON: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].Text != "Rain on the window, tea in hand." {
		t.Errorf("imported entries = %+v, want the one entry once", entries)
	}
}

func TestEntryText(t *testing.T) {
	if got, _ := entryText([]string{"hello"}, strings.NewReader("ignored")); got != "hello" {
		t.Errorf("arg text = %q", got)
	}
	if got, _ := entryText([]string{"-"}, strings.NewReader("from stdin\n")); got != "from stdin\n" {
		t.Errorf("stdin text = %q", got)
	}
}
