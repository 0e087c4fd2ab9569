package render

import (
	"encoding/json"
	"math"

	"github.com/auri-app/auri/pkg/bubble"
	apperrors "github.com/auri-app/auri/pkg/errors"
)

// Canvas defaults.
const (
	// Margin is the free space kept around the outermost bubble when a
	// canvas is sized to fit.
	Margin = 20.0

	// MinCanvas is the smallest edge of a fitted canvas.
	MinCanvas = 200.0
)

// Layout is a canvas and the bubbles placed on it.
// Bubble coordinates are relative to the canvas centre.
type Layout struct {
	Width   float64         `json:"width"`
	Height  float64         `json:"height"`
	Bubbles []bubble.Bubble `json:"bubbles"`
}

// NewLayout wraps bubbles in a canvas of the given size. A non-positive width
// or height is replaced by the smallest square, centred on the origin, that
// contains every bubble plus [Margin].
func NewLayout(bubbles []bubble.Bubble, width, height float64) Layout {
	if bubbles == nil {
		bubbles = []bubble.Bubble{}
	}
	if width <= 0 || height <= 0 {
		side := fitSide(bubbles)
		if width <= 0 {
			width = side
		}
		if height <= 0 {
			height = side
		}
	}
	return Layout{Width: width, Height: height, Bubbles: bubbles}
}

func fitSide(bubbles []bubble.Bubble) float64 {
	minX, minY, maxX, maxY := bubble.Bounds(bubbles)
	extent := max(math.Abs(minX), math.Abs(minY), math.Abs(maxX), math.Abs(maxY))
	return max(MinCanvas, math.Ceil(2*(extent+Margin)))
}

// Validate reports whether l can be rendered.
func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "canvas must be positive, got %gx%g", l.Width, l.Height)
	}
	for i, b := range l.Bubbles {
		if b.Size <= 0 {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "bubble %d (%q): size must be positive", i, b.Label)
		}
	}
	return nil
}

// ParseLayout decodes and validates a layout produced by [RenderJSON].
func ParseLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode layout")
	}
	if l.Bubbles == nil {
		l.Bubbles = []bubble.Bubble{}
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// RenderJSON encodes the layout as indented JSON.
func RenderJSON(l Layout) ([]byte, error) {
	if l.Bubbles == nil {
		l.Bubbles = []bubble.Bubble{}
	}
	return json.MarshalIndent(l, "", "  ")
}
