// Package analysis produces empathetic insights and emotion tags for
// journal entries.
//
// [OpenAI] calls the chat completions API. [Mock] answers locally for
// previews and tests. [Cached] wraps either so repeated analyses of the same
// text are served from a [cache.Cache].
package analysis

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/auri-app/auri/pkg/cache"
	"github.com/auri-app/auri/pkg/emotion"
	apperrors "github.com/auri-app/auri/pkg/errors"
)

// MaxEmotions caps the tags kept from a single analysis.
const MaxEmotions = 5

// Result is the outcome of analysing one entry.
type Result struct {
	Insight  string   `json:"insight"`
	Emotions []string `json:"emotions"`
}

// Analyzer analyses the text of a journal entry.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (Result, error)
}

// Named is implemented by analyzers that report which model they use.
// The name is part of the cache key.
type Named interface {
	Model() string
}

// parseReply splits a model reply into the insight and the emotion tags.
// The tags come from a line starting with "Emotions:"; every other line is
// part of the insight. Invalid labels are dropped.
func parseReply(reply string) Result {
	var insight []string
	var labels []string
	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := cutPrefixFold(trimmed, "emotions:"); ok {
			labels = append(labels, strings.Split(rest, ",")...)
			continue
		}
		insight = append(insight, line)
	}

	res := Result{
		Insight:  strings.TrimSpace(strings.Join(insight, "\n")),
		Emotions: make([]string, 0, len(labels)),
	}
	seen := make(map[string]bool)
	for _, l := range labels {
		n := emotion.Normalize(strings.Trim(l, " .*"))
		if n == "" || seen[n] || apperrors.ValidateEmotionLabel(n) != nil {
			continue
		}
		seen[n] = true
		res.Emotions = append(res.Emotions, n)
		if len(res.Emotions) == MaxEmotions {
			break
		}
	}
	return res
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

// Cached serves analyses from a cache before falling through to an Analyzer.
type Cached struct {
	inner Analyzer
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration

	// Logger receives cache write failures at debug level.
	Logger *log.Logger
}

// NewCached wraps inner. A nil cache disables caching; a nil keyer uses the
// default one.
func NewCached(inner Analyzer, c cache.Cache, k cache.Keyer) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	return &Cached{
		inner:  inner,
		cache:  c,
		keyer:  k,
		ttl:    cache.AnalysisTTL,
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
}

func (c *Cached) Analyze(ctx context.Context, text string) (Result, error) {
	model := "unknown"
	if n, ok := c.inner.(Named); ok {
		model = n.Model()
	}
	key := c.keyer.AnalysisKey(model, strings.TrimSpace(text))

	var res Result
	if hit, _ := cache.GetJSON(ctx, c.cache, "analysis", key, &res); hit {
		return res, nil
	}
	res, err := c.inner.Analyze(ctx, text)
	if err != nil {
		return Result{}, err
	}
	if err := cache.SetJSON(ctx, c.cache, "analysis", key, res, c.ttl); err != nil && c.Logger != nil {
		c.Logger.Debug("analysis not cached", "model", model, "err", err)
	}
	return res, nil
}

// Model reports the wrapped analyzer's model.
func (c *Cached) Model() string {
	if n, ok := c.inner.(Named); ok {
		return n.Model()
	}
	return ""
}
