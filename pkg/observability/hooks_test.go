package observability

import (
	"context"
	"testing"
	"time"
)

type countingCache struct {
	Discard
	hits, misses int
}

func (c *countingCache) OnCacheHit(context.Context, string)  { c.hits++ }
func (c *countingCache) OnCacheMiss(context.Context, string) { c.misses++ }

func TestDefaultsDiscard(t *testing.T) {
	ctx := context.Background()
	Pipeline().OnLayoutComplete(ctx, 7, 2, time.Millisecond, nil)
	Cache().OnCacheSet(ctx, "artifact", 1024)
	HTTP().OnError(ctx, "POST", "api.openai.com", "/v1/chat/completions", nil)

	if _, ok := Pipeline().(Discard); !ok {
		t.Errorf("default pipeline hooks = %T, want Discard", Pipeline())
	}
}

func TestInstallAndRestore(t *testing.T) {
	cc := &countingCache{}
	restore := Install(Hooks{Cache: cc})

	ctx := context.Background()
	Cache().OnCacheHit(ctx, "layout")
	Cache().OnCacheMiss(ctx, "analysis")
	Cache().OnCacheMiss(ctx, "analysis")
	if cc.hits != 1 || cc.misses != 2 {
		t.Errorf("hits = %d, misses = %d; want 1, 2", cc.hits, cc.misses)
	}
	if _, ok := HTTP().(Discard); !ok {
		t.Errorf("unset HTTP hooks = %T, want Discard", HTTP())
	}

	restore()
	if Cache() == CacheHooks(cc) {
		t.Error("restore left the counting hooks installed")
	}
}
