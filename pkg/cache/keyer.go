package cache

import "strings"

// Keyer builds cache keys for each cached value type.
type Keyer interface {
	// LayoutKey identifies a bubble layout computed from a set of counts.
	LayoutKey(countsHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string

	// AnalysisKey identifies an AI analysis of an entry text.
	AnalysisKey(model, text string) string
}

// LayoutKeyOpts are the layout parameters that change the result.
type LayoutKeyOpts struct {
	MaxIterations int     `json:"max_iterations,omitempty"`
	MaxRadius     float64 `json:"max_radius,omitempty"`
	BestEffort    bool    `json:"best_effort,omitempty"`
}

// ArtifactKeyOpts are the render parameters that change the output.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Palette  string  `json:"palette,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	OffsetX  float64 `json:"offset_x,omitempty"`
	OffsetY  float64 `json:"offset_y,omitempty"`
	Selected string  `json:"selected,omitempty"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(countsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", countsHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	opts.Format = strings.ToLower(opts.Format)
	return hashKey("artifact", layoutHash, opts)
}

func (DefaultKeyer) AnalysisKey(model, text string) string {
	return hashKey("analysis", model, text)
}

var _ Keyer = DefaultKeyer{}
