package bubble

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by [Engine.Submit] when a newer submission
// started before this one finished.
var ErrSuperseded = errors.New("layout superseded by a newer submission")

// Engine runs layouts with last-result-wins semantics.
//
// Callers that recompute whenever their data changes (a filter toggle, a new
// journal entry, an edited counts file) submit every change; only the most
// recent submission delivers a result. Older ones return [ErrSuperseded] and
// their search is cancelled. An Engine is safe for concurrent use.
type Engine struct {
	opts []Option

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	last       []Bubble

	// layout is swapped in tests to simulate slow runs.
	layout func(context.Context, []Input, ...Option) ([]Bubble, error)
}

// NewEngine returns an Engine whose layouts use opts.
func NewEngine(opts ...Option) *Engine {
	return &Engine{opts: opts, layout: LayoutContext}
}

// Submit lays out inputs and returns the result if no newer submission has
// been made in the meantime. A newer Submit cancels this one's search.
// Cancelling ctx abandons the wait and returns ctx.Err().
func (e *Engine) Submit(ctx context.Context, inputs []Input) ([]Bubble, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.generation++
	gen := e.generation
	e.cancel = cancel
	e.mu.Unlock()

	type result struct {
		bubbles []Bubble
		err     error
	}
	done := make(chan result, 1)
	go func() {
		bubbles, err := e.layout(runCtx, inputs, e.opts...)
		done <- result{bubbles, err}
	}()

	select {
	case <-runCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrSuperseded
	case r := <-done:
		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.generation {
			return nil, ErrSuperseded
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.err == nil {
			e.last = r.bubbles
		}
		return r.bubbles, r.err
	}
}

// Last returns the most recent successful layout delivered by Submit.
func (e *Engine) Last() []Bubble {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}
