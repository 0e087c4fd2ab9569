package bubble

import "math"

// Size scale constants.
const (
	// BaseSize is the diameter of a bubble with frequency zero.
	BaseSize = 45.0

	// ScaleFactor multiplies ln(frequency+1) to grow the diameter.
	ScaleFactor = 25.0
)

// Input is one (label, frequency) pair to be laid out.
type Input struct {
	Label     string `json:"label"`
	Frequency int    `json:"frequency"`
}

// Bubble is a positioned, sized circle ready for rendering.
// X and Y are the center relative to the plane's origin.
type Bubble struct {
	Label     string  `json:"label"`
	Frequency int     `json:"frequency"`
	Size      float64 `json:"size"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color,omitempty"`

	// Overflow marks a bubble kept at its last candidate position after the
	// search budget ran out. It may overlap its neighbours.
	Overflow bool `json:"overflow,omitempty"`
}

// Size returns the diameter for a frequency.
func Size(frequency int) float64 {
	return BaseSize + math.Log(float64(frequency)+1)*ScaleFactor
}

// Radius returns half the bubble's size.
func (b Bubble) Radius() float64 { return b.Size / 2 }

// Distance returns the distance between the centers of b and o.
func (b Bubble) Distance(o Bubble) float64 {
	return math.Hypot(b.X-o.X, b.Y-o.Y)
}

// Overlaps reports whether the circles of b and o intersect.
// Touching circles do not overlap.
func (b Bubble) Overlaps(o Bubble) bool {
	return b.Distance(o) < (b.Size+o.Size)/2
}

// Bounds returns the axis-aligned bounding box that contains every bubble.
// An empty slice returns all zeros.
func Bounds(bubbles []Bubble) (minX, minY, maxX, maxY float64) {
	if len(bubbles) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, b := range bubbles {
		r := b.Radius()
		minX = min(minX, b.X-r)
		minY = min(minY, b.Y-r)
		maxX = max(maxX, b.X+r)
		maxY = max(maxY, b.Y+r)
	}
	return minX, minY, maxX, maxY
}
