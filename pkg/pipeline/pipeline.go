// Package pipeline provides the emotion bubble pipeline shared by the CLI and
// the API server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Aggregate: Load a user's journal entries and count their emotion tags
//  2. Layout: Place one bubble per emotion without overlap
//  3. Render: Generate output in various formats (SVG, PNG, PDF, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
// Layouts and artifacts are cached by content hash, so unchanged counts skip
// the spiral search and unchanged layouts skip rendering.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	runner.Store = store
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    UserID:  "user-1",
//	    Filter:  emotion.FilterPositive,
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	counts, err := runner.Aggregate(ctx, opts)
//	layout, err := runner.ComputeLayout(ctx, counts, opts)
//	artifacts, err := runner.Render(ctx, layout, opts)
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/auri-app/auri/pkg/bubble"
	"github.com/auri-app/auri/pkg/cache"
	"github.com/auri-app/auri/pkg/emotion"
	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/render"
)

const (
	// DefaultPalette is the palette used when none is given.
	DefaultPalette = "default"

	// DefaultPNGScale is the raster scale for PNG output.
	DefaultPNGScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// Options contains all configuration for the bubble pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Aggregate options
	UserID string         `json:"user_id,omitempty"`
	Filter emotion.Filter `json:"filter,omitempty"`
	Since  time.Time      `json:"since,omitzero"`

	// Layout options. MaxIterations of zero uses the engine default and a
	// negative value removes the cap. MaxRadius of zero is derived from a
	// fixed canvas (both Width and Height set) or left unbounded.
	MaxIterations int     `json:"max_iterations,omitempty"`
	MaxRadius     float64 `json:"max_radius,omitempty"`
	BestEffort    bool    `json:"best_effort,omitempty"`

	// Render options. A zero Width or Height fits the canvas to the bubbles.
	Formats  []string        `json:"formats,omitempty"`
	Width    float64         `json:"width,omitempty"`
	Height   float64         `json:"height,omitempty"`
	Palette  string          `json:"palette,omitempty"`
	Viewport render.Viewport `json:"viewport,omitzero"`
	Selected string          `json:"selected,omitempty"`

	// Refresh bypasses cached layouts and artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Counts are the aggregated emotion frequencies, most frequent first.
	Counts []bubble.Input

	// Layout is the positioned, colored bubble set.
	Layout render.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EntryCount    int
	EmotionCount  int
	OverflowCount int
	AggregateTime time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return apperrors.New(apperrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list such as "svg,png".
func ParseFormats(s string) ([]string, error) {
	var formats []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		formats = append(formats, f)
	}
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}
	return formats, nil
}

// ValidatePalette checks that a palette name is known.
func ValidatePalette(name string) error {
	if _, ok := bubble.Palettes[name]; !ok {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown palette %q", name)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForAggregate(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForAggregate checks required fields for aggregation.
func (o *Options) ValidateForAggregate() error {
	if o.UserID == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "user_id is required")
	}
	f, err := emotion.ParseFilter(string(o.Filter))
	if err != nil {
		return err
	}
	o.Filter = f
	o.setLogger()
	return nil
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	if o.MaxIterations == 0 {
		o.MaxIterations = bubble.DefaultMaxIterations
	}
	if o.MaxRadius < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "max_radius must be >= 0, got %g", o.MaxRadius)
	}
	o.setLogger()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Palette == "" {
		o.Palette = DefaultPalette
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Width < 0 || o.Height < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "canvas size must be >= 0")
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidatePalette(o.Palette)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutOptions converts the layout settings into engine options.
func (o *Options) LayoutOptions() []bubble.Option {
	iterations := o.MaxIterations
	switch {
	case iterations == 0:
		iterations = bubble.DefaultMaxIterations
	case iterations < 0:
		iterations = 0
	}
	policy := bubble.PolicyFail
	if o.BestEffort {
		policy = bubble.PolicyBestEffort
	}
	return []bubble.Option{
		bubble.WithMaxIterations(iterations),
		bubble.WithMaxRadius(o.spiralRadius()),
		bubble.WithOverflowPolicy(policy),
	}
}

// spiralRadius bounds the search: an explicit MaxRadius wins, otherwise a
// fixed canvas limits bubble centres to its inscribed circle.
func (o *Options) spiralRadius() float64 {
	if o.MaxRadius > 0 {
		return o.MaxRadius
	}
	if o.Width > 0 && o.Height > 0 {
		return min(o.Width, o.Height) / 2
	}
	return 0
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		MaxIterations: o.MaxIterations,
		MaxRadius:     o.spiralRadius(),
		BestEffort:    o.BestEffort,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Palette:  o.Palette,
		Width:    int(o.Width),
		Height:   int(o.Height),
		Scale:    o.Viewport.Scale,
		OffsetX:  o.Viewport.OffsetX,
		OffsetY:  o.Viewport.OffsetY,
		Selected: emotion.Normalize(o.Selected),
	}
}

func (o *Options) svgOptions() []render.SVGOption {
	opts := []render.SVGOption{render.WithViewport(o.Viewport)}
	if o.Selected != "" {
		opts = append(opts, render.WithSelected(emotion.Normalize(o.Selected)))
	}
	return opts
}
