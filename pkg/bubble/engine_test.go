package bubble

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEngineSubmit(t *testing.T) {
	e := NewEngine()
	got, err := e.Submit(context.Background(), sampleInputs())
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("len = %d, want 7", len(got))
	}
	if len(e.Last()) != 7 {
		t.Errorf("Last() len = %d, want 7", len(e.Last()))
	}
}

func TestEngineLastResultWins(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	e.layout = func(ctx context.Context, in []Input, opts ...Option) ([]Bubble, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return LayoutContext(ctx, in, opts...)
	}

	firstErr := make(chan error, 1)
	go func() {
		_, err := e.Submit(ctx, []Input{{Label: "Joy", Frequency: 1}})
		firstErr <- err
	}()
	<-started

	got, err := e.Submit(ctx, []Input{{Label: "Calm", Frequency: 2}})
	if err != nil {
		t.Fatalf("second Submit error: %v", err)
	}
	if got[0].Label != "Calm" {
		t.Errorf("second Submit label = %q, want Calm", got[0].Label)
	}

	close(release)
	if err := <-firstErr; !errors.Is(err, ErrSuperseded) {
		t.Errorf("first Submit error = %v, want ErrSuperseded", err)
	}
	if last := e.Last(); len(last) != 1 || last[0].Label != "Calm" {
		t.Errorf("Last() = %v, want the Calm layout", last)
	}
}

func TestEngineContextCanceled(t *testing.T) {
	e := NewEngine()
	release := make(chan struct{})
	defer close(release)
	e.layout = func(ctx context.Context, in []Input, opts ...Option) ([]Bubble, error) {
		<-release
		return LayoutContext(ctx, in, opts...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Submit(ctx, sampleInputs()); !errors.Is(err, context.Canceled) {
		t.Errorf("Submit error = %v, want context.Canceled", err)
	}
}

func TestEngineOverflowError(t *testing.T) {
	e := NewEngine(WithMaxIterations(1))
	_, err := e.Submit(context.Background(), overflowInputs(2))
	if !errors.Is(err, ErrLayoutOverflow) {
		t.Errorf("Submit error = %v, want ErrLayoutOverflow", err)
	}
	if e.Last() != nil {
		t.Error("failed layout stored as last result")
	}
}

func TestEngineCancelsSupersededRun(t *testing.T) {
	e := NewEngine()
	started := make(chan struct{})
	canceled := make(chan struct{})
	var calls atomic.Int32
	e.layout = func(ctx context.Context, in []Input, opts ...Option) ([]Bubble, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			close(canceled)
			return nil, ctx.Err()
		}
		return LayoutContext(ctx, in, opts...)
	}

	firstErr := make(chan error, 1)
	go func() {
		_, err := e.Submit(context.Background(), sampleInputs())
		firstErr <- err
	}()
	<-started

	if _, err := e.Submit(context.Background(), []Input{{Label: "Calm", Frequency: 2}}); err != nil {
		t.Fatalf("second Submit error: %v", err)
	}
	select {
	case <-canceled:
	case <-time.After(5 * time.Second):
		t.Fatal("superseded layout was not cancelled")
	}
	if err := <-firstErr; !errors.Is(err, ErrSuperseded) {
		t.Errorf("first Submit error = %v, want ErrSuperseded", err)
	}
}
