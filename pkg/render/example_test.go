package render_test

import (
	"fmt"

	"github.com/auri-app/auri/pkg/bubble"
	"github.com/auri-app/auri/pkg/render"
)

func ExampleNewLayout() {
	bubbles, _ := bubble.Layout([]bubble.Input{{Label: "Joy", Frequency: 10}})
	l := render.NewLayout(bubble.AssignColors(bubbles, bubble.DefaultPalette), 0, 0)
	fmt.Printf("%.0fx%.0f, %d bubble\n", l.Width, l.Height, len(l.Bubbles))
	// Output:
	// 265x265, 1 bubble
}

func ExampleViewport_Apply() {
	v := render.Identity.Zoom(2).Pan(10, 0)
	x, y := v.Apply(60, 0, 400, 400)
	fmt.Printf("(%.0f, %.0f)\n", x, y)
	// Output:
	// (330, 200)
}
