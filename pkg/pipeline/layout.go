package pipeline

import (
	"context"
	"errors"

	"github.com/auri-app/auri/pkg/bubble"
	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/render"
)

// Layout places one bubble per count using the layout settings in opts.
//
// When a bubble runs out of search budget and opts.BestEffort is false, the
// bubbles placed so far are returned together with a LAYOUT_OVERFLOW error
// wrapping the [*bubble.OverflowError]. The search stops when ctx is done.
func Layout(ctx context.Context, counts []bubble.Input, opts Options) ([]bubble.Bubble, error) {
	bubbles, err := bubble.LayoutContext(ctx, counts, opts.LayoutOptions()...)
	return bubbles, layoutError(err, len(counts))
}

// NewEngine returns a last-result-wins engine configured from opts, for
// callers that lay out again whenever their counts change.
func NewEngine(opts Options) *bubble.Engine {
	return bubble.NewEngine(opts.LayoutOptions()...)
}

// Relayout lays out counts through e and colors the result for the canvas.
// A call overtaken by a newer one returns [bubble.ErrSuperseded].
func Relayout(ctx context.Context, e *bubble.Engine, counts []bubble.Input, opts Options) (render.Layout, error) {
	bubbles, err := e.Submit(ctx, counts)
	if err := layoutError(err, len(counts)); err != nil {
		return render.Layout{}, err
	}
	return Canvas(bubbles, opts), nil
}

func layoutError(err error, n int) error {
	if errors.Is(err, bubble.ErrLayoutOverflow) {
		return apperrors.Wrap(apperrors.ErrCodeLayoutOverflow, err, "layout %d emotions", n)
	}
	return err
}

// Overflowed counts the bubbles kept at a possibly overlapping position.
func Overflowed(bubbles []bubble.Bubble) int {
	n := 0
	for _, b := range bubbles {
		if b.Overflow {
			n++
		}
	}
	return n
}

// Canvas colors bubbles from opts.Palette and places them on the configured canvas.
func Canvas(bubbles []bubble.Bubble, opts Options) render.Layout {
	colored := bubble.AssignColors(bubbles, bubble.Palettes[opts.Palette])
	return render.NewLayout(colored, opts.Width, opts.Height)
}
