package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/auri-app/auri/pkg/bubble"
	"github.com/auri-app/auri/pkg/cache"
	"github.com/auri-app/auri/pkg/emotion"
	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/journal"
	"github.com/auri-app/auri/pkg/observability"
	"github.com/auri-app/auri/pkg/render"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner is stateless except for its dependencies; it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Store supplies entries for Aggregate and Execute. The layout and
	// render stages work without it.
	Store journal.Store
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete aggregate → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Aggregate
	aggStart := time.Now()
	counts, entries, err := r.aggregate(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	result.Counts = counts
	result.Stats.AggregateTime = time.Since(aggStart)
	result.Stats.EntryCount = entries
	result.Stats.EmotionCount = len(counts)

	opts.Logger.Info("counted emotions",
		"entries", entries,
		"emotions", len(counts),
		"filter", opts.Filter,
		"duration", result.Stats.AggregateTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	layout, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, counts, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = layout
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.OverflowCount = Overflowed(layout.Bubbles)
	result.CacheInfo.LayoutHit = layoutHit

	opts.Logger.Info("computed layout",
		"bubbles", len(layout.Bubbles),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, layout, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Aggregate loads the user's entries and counts their emotions.
func (r *Runner) Aggregate(ctx context.Context, opts Options) ([]bubble.Input, error) {
	if err := opts.ValidateForAggregate(); err != nil {
		return nil, err
	}
	counts, _, err := r.aggregate(ctx, opts)
	return counts, err
}

func (r *Runner) aggregate(ctx context.Context, opts Options) ([]bubble.Input, int, error) {
	if r.Store == nil {
		return nil, 0, apperrors.New(apperrors.ErrCodeInternal, "pipeline runner has no journal store")
	}

	start := time.Now()
	entries, err := r.Store.List(ctx, opts.UserID, journal.ListOptions{Since: opts.Since})
	var counts []bubble.Input
	if err == nil {
		counts = emotion.Count(entries, opts.Filter)
	}
	observability.Pipeline().OnAggregate(ctx, string(opts.Filter), len(entries), len(counts), time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("list entries: %w", err)
	}
	return counts, len(entries), nil
}

// ComputeLayoutWithCacheInfo lays out counts with caching and returns cache hit info.
// Only the geometry is cached; colors and canvas size are applied on every call.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, counts []bubble.Input, opts Options) (render.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return render.Layout{}, false, err
	}
	opts.SetRenderDefaults()
	if err := ValidatePalette(opts.Palette); err != nil {
		return render.Layout{}, false, err
	}

	cacheKey := r.Keyer.LayoutKey(cache.HashJSON(counts), opts.LayoutKeyOpts())

	if !opts.Refresh {
		var cached []bubble.Bubble
		if hit, err := cache.GetJSON(ctx, r.Cache, keyTypeLayout, cacheKey, &cached); err == nil && hit {
			return Canvas(cached, opts), true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(counts))
	start := time.Now()
	bubbles, err := Layout(ctx, counts, opts)
	overflowed := Overflowed(bubbles)
	hooks.OnLayoutComplete(ctx, len(bubbles), overflowed, time.Since(start), err)
	if err != nil {
		return render.Layout{}, false, err
	}
	if overflowed > 0 {
		opts.Logger.Warn("bubbles placed without a free slot", "count", overflowed)
	}

	if err := cache.SetJSON(ctx, r.Cache, keyTypeLayout, cacheKey, bubbles, cache.LayoutTTL); err != nil {
		opts.Logger.Debug("layout not cached", "err", err)
	}
	return Canvas(bubbles, opts), false, nil
}

// ComputeLayout is a convenience wrapper that calls ComputeLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, counts []bubble.Input, opts Options) (render.Layout, error) {
	l, _, err := r.ComputeLayoutWithCacheInfo(ctx, counts, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l render.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	if err := l.Validate(); err != nil {
		return nil, false, err
	}

	layoutHash := cache.HashJSON(l)
	artifactKey := func(format string) string {
		return r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
	}

	// Try to get all formats from cache
	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, artifactKey(format))
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, l, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		if err := r.Cache.Set(ctx, artifactKey(format), data, cache.ArtifactTTL); err != nil {
			opts.Logger.Debug("artifact not cached", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l render.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return errors.Join(errs...)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
