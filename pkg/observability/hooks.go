// Package observability lets a binary observe the bubble pipeline without
// the library packages depending on a metrics backend.
//
// Library code reports events through the accessors:
//
//	observability.Pipeline().OnLayoutStart(ctx, len(inputs))
//	observability.Cache().OnCacheMiss(ctx, "layout")
//	observability.HTTP().OnError(ctx, "POST", host, path, err)
//
// Until a binary calls [Install], every event goes to a no-op sink. The
// server installs the Prometheus registry from pkg/metrics at startup.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks observes the aggregate, layout and render stages.
type PipelineHooks interface {
	OnAggregate(ctx context.Context, filter string, entries, emotions int, duration time.Duration, err error)
	OnLayoutStart(ctx context.Context, bubbles int)
	// OnLayoutComplete reports how many bubbles could not be placed
	// without overlap. A nonzero count with a nil err means best effort.
	OnLayoutComplete(ctx context.Context, bubbles, overflowed int, duration time.Duration, err error)
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks observes cache lookups. keyType is the key prefix, such as
// "analysis", "layout" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks observes outgoing calls to the AI provider.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

// Hooks bundles one sink per event category. Nil fields fall back to the
// no-op sink.
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
}

// Discard implements every hook interface and drops all events.
type Discard struct{}

func (Discard) OnAggregate(context.Context, string, int, int, time.Duration, error)    {}
func (Discard) OnLayoutStart(context.Context, int)                                     {}
func (Discard) OnLayoutComplete(context.Context, int, int, time.Duration, error)       {}
func (Discard) OnRenderStart(context.Context, []string)                                {}
func (Discard) OnRenderComplete(context.Context, []string, time.Duration, error)       {}
func (Discard) OnCacheHit(context.Context, string)                                     {}
func (Discard) OnCacheMiss(context.Context, string)                                    {}
func (Discard) OnCacheSet(context.Context, string, int)                                {}
func (Discard) OnRequest(context.Context, string, string, string)                      {}
func (Discard) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (Discard) OnError(context.Context, string, string, string, error)                 {}

var current atomic.Pointer[Hooks]

func init() { current.Store(filled(Hooks{})) }

func filled(h Hooks) *Hooks {
	if h.Pipeline == nil {
		h.Pipeline = Discard{}
	}
	if h.Cache == nil {
		h.Cache = Discard{}
	}
	if h.HTTP == nil {
		h.HTTP = Discard{}
	}
	return &h
}

// Install replaces the active hooks and returns a func that restores the
// previous set. Tests defer the restore; binaries usually ignore it.
func Install(h Hooks) (restore func()) {
	prev := current.Swap(filled(h))
	return func() { current.Store(prev) }
}

// Pipeline returns the active pipeline hooks.
func Pipeline() PipelineHooks { return current.Load().Pipeline }

// Cache returns the active cache hooks.
func Cache() CacheHooks { return current.Load().Cache }

// HTTP returns the active HTTP hooks.
func HTTP() HTTPHooks { return current.Load().HTTP }
