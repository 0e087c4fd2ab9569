package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return a nil miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = %v, %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "layout:abc", []byte(`{"ok":true}`), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "layout:abc")
	if err != nil || !hit {
		t.Fatalf("Get = %v, %v; want hit", hit, err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("data = %s", data)
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:abc"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned as hit")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("\x00\x00\x00\x00\x00\x00\x00\x00not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get corrupt = %v, %v; want miss", hit, err)
	}
}

func TestFileCacheCompresses(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	svg := []byte(strings.Repeat(`<circle cx="60" cy="0" r="52.4" fill="url(#g0)"/>`, 200))
	if err := c.Set(ctx, "artifact:svg", svg, time.Hour); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(c.path("artifact:svg"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() >= int64(len(svg))/4 {
		t.Errorf("entry is %d bytes for %d bytes of input", info.Size(), len(svg))
	}
	got, hit, err := c.Get(ctx, "artifact:svg")
	if err != nil || !hit || string(got) != string(svg) {
		t.Errorf("round trip: hit = %v, err = %v, equal = %v", hit, err, string(got) == string(svg))
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	type payload struct {
		Label string `json:"label"`
	}
	var got payload
	if hit, err := GetJSON(ctx, c, "layout", "k", &got); hit || err != nil {
		t.Fatalf("GetJSON on empty cache = %v, %v", hit, err)
	}
	if err := SetJSON(ctx, c, "layout", "k", payload{Label: "Joy"}, time.Hour); err != nil {
		t.Fatalf("SetJSON error: %v", err)
	}
	hit, err := GetJSON(ctx, c, "layout", "k", &got)
	if err != nil || !hit {
		t.Fatalf("GetJSON = %v, %v; want hit", hit, err)
	}
	if got.Label != "Joy" {
		t.Errorf("Label = %q, want Joy", got.Label)
	}
}

func TestHash(t *testing.T) {
	sum := Hash([]byte("grateful"))
	if len(sum) != 64 || sum != Hash([]byte("grateful")) {
		t.Errorf("Hash = %q, want a stable 64-char digest", sum)
	}
	if sum == Hash([]byte("anxious")) {
		t.Error("distinct inputs collide")
	}

	if HashJSON(map[string]int{"Joy": 1}) == HashJSON(map[string]int{"Joy": 2}) {
		t.Error("HashJSON ignores values")
	}
	if HashJSON(map[string]int{"Joy": 1, "Fear": 2}) != HashJSON(map[string]int{"Fear": 2, "Joy": 1}) {
		t.Error("HashJSON depends on map insertion order")
	}

	ch := make(chan int)
	if HashJSON(ch) != HashJSON(ch) {
		t.Error("unencodable values should still hash stably")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{MaxIterations: 100})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{MaxIterations: 100, BestEffort: true})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey prefix: %s", lk1)
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png"})
	ak3 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "SVG"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
	if ak1 != ak3 {
		t.Error("Format should be case-insensitive")
	}

	if k.AnalysisKey("gpt-4", "text") == k.AnalysisKey("gpt-4o", "text") {
		t.Error("AnalysisKey should depend on the model")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := UserKeyer(NewDefaultKeyer(), "123")

	lk := scoped.LayoutKey("h", LayoutKeyOpts{})
	if !strings.HasPrefix(lk, "user:123:layout:") {
		t.Errorf("ScopedKeyer LayoutKey should be prefixed: %s", lk)
	}
	ak := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	if !strings.HasPrefix(ak, "user:123:artifact:") {
		t.Errorf("ScopedKeyer ArtifactKey should be prefixed: %s", ak)
	}
	if scoped.AnalysisKey("m", "t") != NewDefaultKeyer().AnalysisKey("m", "t") {
		t.Error("analysis keys should not be scoped")
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if key := scoped.LayoutKey("h", LayoutKeyOpts{}); !strings.HasPrefix(key, "prefix:layout:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

// TestRedisCacheIntegration runs against a live server when AURI_TEST_REDIS_URL is set.
func TestRedisCacheIntegration(t *testing.T) {
	url := os.Getenv("AURI_TEST_REDIS_URL")
	if url == "" {
		t.Skip("AURI_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "test:k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "test:k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "test:k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "test:k"); hit {
		t.Error("entry present after Delete")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not a url"); err == nil {
		t.Error("expected error for malformed url")
	}
}
