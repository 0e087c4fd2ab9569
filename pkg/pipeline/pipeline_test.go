package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/auri-app/auri/pkg/bubble"
	"github.com/auri-app/auri/pkg/emotion"
	apperrors "github.com/auri-app/auri/pkg/errors"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !apperrors.Is(err, apperrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v, want INVALID_FORMAT", tt.format, apperrors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats(" SVG, json,,png ")
	if err != nil {
		t.Fatalf("ParseFormats() error: %v", err)
	}
	want := []string{"svg", "json", "png"}
	if len(got) != len(want) {
		t.Fatalf("ParseFormats() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseFormats()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := ParseFormats("svg,gif"); err == nil {
		t.Error("ParseFormats() should reject gif")
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{UserID: "u1"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if opts.Filter != emotion.FilterAll {
		t.Errorf("Filter = %q, want all", opts.Filter)
	}
	if opts.MaxIterations != bubble.DefaultMaxIterations {
		t.Errorf("MaxIterations = %d, want %d", opts.MaxIterations, bubble.DefaultMaxIterations)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Palette != DefaultPalette {
		t.Errorf("Palette = %q, want %q", opts.Palette, DefaultPalette)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call error: %v", err)
	}
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code apperrors.Code
	}{
		{"missing user", Options{}, apperrors.ErrCodeInvalidInput},
		{"bad filter", Options{UserID: "u", Filter: "sideways"}, apperrors.ErrCodeInvalidFilter},
		{"negative radius", Options{UserID: "u", MaxRadius: -1}, apperrors.ErrCodeInvalidInput},
		{"bad format", Options{UserID: "u", Formats: []string{"gif"}}, apperrors.ErrCodeInvalidFormat},
		{"bad palette", Options{UserID: "u", Palette: "neon"}, apperrors.ErrCodeInvalidInput},
		{"negative width", Options{UserID: "u", Width: -5}, apperrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !apperrors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLayoutOptions(t *testing.T) {
	inputs := []bubble.Input{{Label: "A", Frequency: 5}, {Label: "B", Frequency: 5}}

	// One candidate per bubble is not enough for B.
	opts := Options{MaxIterations: 1}
	bubbles, err := Layout(context.Background(), inputs, opts)
	if !apperrors.Is(err, apperrors.ErrCodeLayoutOverflow) {
		t.Fatalf("Layout() error = %v, want LAYOUT_OVERFLOW", err)
	}
	if len(bubbles) != 2 || !bubbles[1].Overflow {
		t.Errorf("Layout() should return the flagged bubble, got %+v", bubbles)
	}

	opts.BestEffort = true
	bubbles, err = Layout(context.Background(), inputs, opts)
	if err != nil {
		t.Fatalf("best effort Layout() error: %v", err)
	}
	if got := Overflowed(bubbles); got != 1 {
		t.Errorf("Overflowed() = %d, want 1", got)
	}

	// A negative cap removes the limit.
	opts = Options{MaxIterations: -1}
	if _, err := Layout(context.Background(), inputs, opts); err != nil {
		t.Errorf("unbounded Layout() error: %v", err)
	}
}

func TestCanvasBoundsSearch(t *testing.T) {
	big := make([]bubble.Input, 500)
	for i := range big {
		big[i] = bubble.Input{Label: "Big", Frequency: 100000}
	}

	opts := Options{Width: 400, Height: 400}
	if got := opts.LayoutKeyOpts().MaxRadius; got != 200 {
		t.Errorf("derived max radius = %v, want 200", got)
	}
	bubbles, err := Layout(context.Background(), big, opts)
	if !apperrors.Is(err, apperrors.ErrCodeLayoutOverflow) {
		t.Fatalf("Layout() error = %v, want LAYOUT_OVERFLOW", err)
	}
	if len(bubbles) >= len(big) {
		t.Errorf("placed %d bubbles on a 400x400 canvas", len(bubbles))
	}

	// An explicit radius wins over the canvas.
	opts.MaxRadius = 1000
	if got := opts.LayoutKeyOpts().MaxRadius; got != 1000 {
		t.Errorf("max radius = %v, want 1000", got)
	}
	// Only one side fixed leaves the search unbounded.
	if got := (&Options{Width: 400}).LayoutKeyOpts().MaxRadius; got != 0 {
		t.Errorf("max radius with free height = %v, want 0", got)
	}
}

func TestRelayout(t *testing.T) {
	opts := Options{Palette: "monochrome", MaxIterations: 1}
	e := NewEngine(opts)

	l, err := Relayout(context.Background(), e, emotion.Sample()[:1], opts)
	if err != nil {
		t.Fatalf("Relayout() error: %v", err)
	}
	if len(l.Bubbles) != 1 || l.Bubbles[0].Color != bubble.MonochromePalette[0] {
		t.Errorf("Relayout() = %+v", l)
	}

	_, err = Relayout(context.Background(), e, []bubble.Input{{Label: "A", Frequency: 5}, {Label: "B", Frequency: 5}}, opts)
	if !apperrors.Is(err, apperrors.ErrCodeLayoutOverflow) || !errors.Is(err, bubble.ErrLayoutOverflow) {
		t.Errorf("Relayout() error = %v, want LAYOUT_OVERFLOW", err)
	}
}

func TestCanvas(t *testing.T) {
	bubbles, _ := bubble.Layout([]bubble.Input{{Label: "Joy", Frequency: 1}, {Label: "Fear", Frequency: 1}})

	l := Canvas(bubbles, Options{Palette: "monochrome", Width: 300, Height: 200})
	if l.Width != 300 || l.Height != 200 {
		t.Errorf("canvas = %vx%v, want 300x200", l.Width, l.Height)
	}
	for _, b := range l.Bubbles {
		if b.Color != bubble.MonochromePalette[0] {
			t.Errorf("%s color = %q", b.Label, b.Color)
		}
	}
	if bubbles[0].Color != "" {
		t.Error("Canvas should not mutate its input")
	}
}
