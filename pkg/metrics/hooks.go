package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/auri-app/auri/pkg/observability"
)

// RecordHTTPRequest records a served request.
func (r *Registry) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Install routes pipeline, cache and HTTP events into r. The returned func
// restores the hooks that were active before.
func (r *Registry) Install() (restore func()) {
	return observability.Install(observability.Hooks{
		Pipeline: pipelineHooks{r},
		Cache:    cacheHooks{r},
		HTTP:     httpHooks{r},
	})
}

type pipelineHooks struct{ r *Registry }

func (h pipelineHooks) OnAggregate(_ context.Context, _ string, _, _ int, d time.Duration, _ error) {
	h.r.AggregateDuration.Observe(d.Seconds())
}

func (h pipelineHooks) OnLayoutStart(_ context.Context, bubbles int) {
	h.r.LayoutBubbles.Observe(float64(bubbles))
}

func (h pipelineHooks) OnLayoutComplete(_ context.Context, _, overflowed int, d time.Duration, err error) {
	h.r.LayoutDuration.Observe(d.Seconds())
	h.r.LayoutOverflowsTotal.Add(float64(overflowed))
	switch {
	case err != nil && overflowed > 0:
		h.r.LayoutsTotal.WithLabelValues("overflow").Inc()
	case err != nil:
		h.r.LayoutsTotal.WithLabelValues("error").Inc()
	default:
		h.r.LayoutsTotal.WithLabelValues("ok").Inc()
	}
}

func (h pipelineHooks) OnRenderStart(context.Context, []string) {}

func (h pipelineHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	for _, f := range formats {
		h.r.RendersTotal.WithLabelValues(f, status).Inc()
	}
	h.r.RenderDuration.Observe(d.Seconds())
}

type cacheHooks struct{ r *Registry }

func (h cacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.r.CacheHitsTotal.WithLabelValues(keyType).Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.r.CacheMissesTotal.WithLabelValues(keyType).Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.r.CacheSetBytes.WithLabelValues(keyType).Observe(float64(size))
}

type httpHooks struct{ r *Registry }

func (h httpHooks) OnRequest(context.Context, string, string, string) {}

func (h httpHooks) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	h.r.UpstreamRequestsTotal.WithLabelValues(host, strconv.Itoa(status)).Inc()
	h.r.UpstreamRequestDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (h httpHooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.r.UpstreamErrorsTotal.WithLabelValues(host).Inc()
}

var (
	_ observability.PipelineHooks = pipelineHooks{}
	_ observability.CacheHooks    = cacheHooks{}
	_ observability.HTTPHooks     = httpHooks{}
)
