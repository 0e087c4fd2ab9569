// Package render turns a bubble layout into output artifacts.
//
// # Overview
//
// A [Layout] is a canvas size plus the positioned bubbles produced by
// [bubble.Layout]. Bubble coordinates are relative to the canvas centre, so
// the renderers translate them by half the canvas size. This package provides:
//
//   - SVG: dark canvas with gradient-filled, labelled circles
//   - JSON: the layout itself, for caching and round-trip rendering
//   - PDF: print-ready output (requires rsvg-convert)
//   - PNG: raster output (requires rsvg-convert)
//
// # SVG Output
//
// [RenderSVG] draws each bubble as a circle with a radial gradient fill
// (the bubble color at 20% opacity fading to 15%) and a 60% opacity border,
// 2px for bubbles larger than 60 and 1.5px otherwise. The emotion label and
// its count are stacked in the centre:
//
//	svg := render.RenderSVG(layout,
//	    render.WithViewport(render.Viewport{Scale: 1.5}),
//	    render.WithSelected("Joy"),
//	)
//
// # Viewport
//
// A [Viewport] is the pan/zoom state of an interactive view. It moves bubble
// centres only; diameters and fonts keep their size, as they do on screen.
//
// # PDF and PNG Output
//
// [RenderPDF] and [RenderPNG] generate SVG and convert it with [ToPDF] and
// [ToPNG], which shell out to rsvg-convert:
//
//	pdf, err := render.RenderPDF(ctx, layout)
//	png, err := render.RenderPNG(ctx, layout, render.WithScale(2))
//
// These require librsvg to be installed:
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
//
// [bubble.Layout]: github.com/auri-app/auri/pkg/bubble.Layout
package render
