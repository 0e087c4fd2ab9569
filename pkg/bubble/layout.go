package bubble

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	apperrors "github.com/auri-app/auri/pkg/errors"
)

// Spiral search defaults.
const (
	DefaultBaseRadius    = 60.0
	DefaultRadiusStep    = 30.0
	DefaultAngleStep     = 0.3
	DefaultMaxIterations = 100_000
)

// ctxCheckInterval is how many candidates are tested between context checks.
const ctxCheckInterval = 1024

// ErrLayoutOverflow is matched (via errors.Is) by every [*OverflowError].
var ErrLayoutOverflow = errors.New("layout overflow")

// OverflowError reports a bubble for which no free position was found
// within the search budget.
type OverflowError struct {
	Label      string  // Label of the bubble that could not be placed
	Index      int     // Position of the bubble in placement order
	Iterations int     // Candidate positions tested for this bubble
	Radius     float64 // Spiral radius at which the search stopped
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("layout overflow: bubble %d (%q) found no free slot after %d candidates (radius %.0f)",
		e.Index, e.Label, e.Iterations, e.Radius)
}

// Is makes errors.Is(err, ErrLayoutOverflow) succeed.
func (e *OverflowError) Is(target error) bool { return target == ErrLayoutOverflow }

// OverflowPolicy decides what happens when a bubble runs out of search budget.
type OverflowPolicy int

const (
	// PolicyFail stops the layout and returns an *OverflowError together with
	// the bubbles placed so far (the overflowing one last, flagged).
	PolicyFail OverflowPolicy = iota

	// PolicyBestEffort keeps the overflowing bubble at its last candidate
	// position, flags it, and continues with the rest.
	PolicyBestEffort
)

// Option configures [Layout].
type Option func(*config)

type config struct {
	baseRadius    float64
	radiusStep    float64
	angleStep     float64
	maxIterations int
	maxRadius     float64
	policy        OverflowPolicy
	size          func(int) float64
}

// WithBaseRadius sets the radius at which each bubble's search starts.
func WithBaseRadius(r float64) Option {
	return func(c *config) {
		if r >= 0 {
			c.baseRadius = r
		}
	}
}

// WithRadiusStep sets how far the radius grows after a full revolution.
// Non-positive values are ignored.
func WithRadiusStep(step float64) Option {
	return func(c *config) {
		if step > 0 {
			c.radiusStep = step
		}
	}
}

// WithAngleStep sets the angular increment in radians. Non-positive values are ignored.
func WithAngleStep(step float64) Option {
	return func(c *config) {
		if step > 0 {
			c.angleStep = step
		}
	}
}

// WithMaxIterations caps the candidate positions tested per bubble.
// Zero or a negative value removes the cap.
func WithMaxIterations(n int) Option {
	return func(c *config) { c.maxIterations = n }
}

// WithMaxRadius bounds the spiral, modelling a finite canvas. Zero means unbounded.
func WithMaxRadius(r float64) Option {
	return func(c *config) { c.maxRadius = max(r, 0) }
}

// WithOverflowPolicy selects the behaviour when the search budget runs out.
func WithOverflowPolicy(p OverflowPolicy) Option {
	return func(c *config) { c.policy = p }
}

// WithSizeFunc replaces the frequency→diameter mapping. The default is [Size].
func WithSizeFunc(fn func(frequency int) float64) Option {
	return func(c *config) {
		if fn != nil {
			c.size = fn
		}
	}
}

func newConfig(opts ...Option) config {
	c := config{
		baseRadius:    DefaultBaseRadius,
		radiusStep:    DefaultRadiusStep,
		angleStep:     DefaultAngleStep,
		maxIterations: DefaultMaxIterations,
		policy:        PolicyFail,
		size:          Size,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Layout positions every input so that no two bubbles overlap.
//
// Inputs are placed in descending frequency order; ties keep their input
// order. The returned slice is in placement order and never aliases inputs.
// An empty input yields an empty, non-nil slice.
//
// A negative frequency is rejected with an INVALID_INPUT error. When a bubble
// exhausts its search budget under [PolicyFail], Layout returns the bubbles
// placed so far (the overflowing one last) and an [*OverflowError].
func Layout(inputs []Input, opts ...Option) ([]Bubble, error) {
	return LayoutContext(context.Background(), inputs, opts...)
}

// LayoutContext is [Layout] with cancellation. The context is checked before
// each bubble and periodically during its search; once it is done the
// bubbles placed so far are returned with ctx.Err().
func LayoutContext(ctx context.Context, inputs []Input, opts ...Option) ([]Bubble, error) {
	for i, in := range inputs {
		if in.Frequency < 0 {
			return nil, apperrors.New(apperrors.ErrCodeInvalidInput,
				"bubble %d (%q): frequency must be >= 0, got %d", i, in.Label, in.Frequency)
		}
	}

	c := newConfig(opts...)
	order := slices.Clone(inputs)
	slices.SortStableFunc(order, func(a, b Input) int {
		return cmp.Compare(b.Frequency, a.Frequency)
	})

	placed := make([]Bubble, 0, len(order))
	for _, in := range order {
		if err := ctx.Err(); err != nil {
			return placed, err
		}
		b := Bubble{
			Label:     in.Label,
			Frequency: in.Frequency,
			Size:      c.size(in.Frequency),
		}

		ok, tries, radius, err := c.place(ctx, &b, placed)
		if err != nil {
			return placed, err
		}
		if !ok {
			b.Overflow = true
			if c.policy == PolicyFail {
				idx := len(placed)
				placed = append(placed, b)
				return placed, &OverflowError{Label: b.Label, Index: idx, Iterations: tries, Radius: radius}
			}
		}
		placed = append(placed, b)
	}
	return placed, nil
}

// place runs the spiral search for b against the already placed bubbles.
// On failure b holds the last candidate position.
func (c *config) place(ctx context.Context, b *Bubble, placed []Bubble) (ok bool, tries int, radius float64, err error) {
	angle := float64(len(placed)) * math.Pi * 0.5
	radius = c.baseRadius

	for c.maxIterations <= 0 || tries < c.maxIterations {
		b.X = math.Cos(angle) * radius
		b.Y = math.Sin(angle) * radius
		tries++

		if !overlapsAny(*b, placed) {
			return true, tries, radius, nil
		}
		if tries%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return false, tries, radius, err
			}
		}

		angle += c.angleStep
		if angle >= 2*math.Pi {
			angle = 0
			if c.maxRadius > 0 && radius+c.radiusStep > c.maxRadius {
				return false, tries, radius, nil
			}
			radius += c.radiusStep
		}
	}
	return false, tries, radius, nil
}

func overlapsAny(b Bubble, placed []Bubble) bool {
	for _, p := range placed {
		if b.Overlaps(p) {
			return true
		}
	}
	return false
}
