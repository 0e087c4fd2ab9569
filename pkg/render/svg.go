package render

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/auri-app/auri/pkg/bubble"
)

// Visual constants for bubbles.
const (
	DefaultBackground = "#1A1A1A"

	fillInnerOpacity = 0.2
	fillOuterOpacity = 0.15
	strokeOpacity    = 0.6
	countOpacity     = 0.7

	strokeThreshold = 60.0
	strokeWide      = 2.0
	strokeNarrow    = 1.5

	labelFontRatio = 0.22
	labelFontMax   = 14.0
	countFontRatio = 0.18
	countFontMax   = 12.0
	textSpacing    = 2.0

	selectedScale = 1.1

	fallbackColor = "#FFFFFF"
	labelFont     = `"New York", Georgia, serif`
	countFont     = `"SF Pro Text", -apple-system, Helvetica, sans-serif`
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	viewport   Viewport
	background string
	selected   string
}

// WithViewport applies pan and zoom to bubble centres.
func WithViewport(v Viewport) SVGOption { return func(r *svgRenderer) { r.viewport = v } }

// WithBackground sets the canvas fill. An empty color leaves it transparent.
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// WithSelected enlarges the bubble with the given label.
func WithSelected(label string) SVGOption { return func(r *svgRenderer) { r.selected = label } }

// StrokeWidth returns the border width for a bubble of the given diameter.
func StrokeWidth(size float64) float64 {
	if size > strokeThreshold {
		return strokeWide
	}
	return strokeNarrow
}

// LabelFontSize returns the font size of a bubble's emotion label.
func LabelFontSize(size float64) float64 { return min(size*labelFontRatio, labelFontMax) }

// CountFontSize returns the font size of a bubble's frequency.
func CountFontSize(size float64) float64 { return min(size*countFontRatio, countFontMax) }

// RenderSVG draws the layout as a standalone SVG document.
func RenderSVG(l Layout, opts ...SVGOption) []byte {
	r := svgRenderer{viewport: Identity, background: DefaultBackground}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		l.Width, l.Height, l.Width, l.Height)

	renderDefs(&buf, l.Bubbles)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(r.background))
	}
	for i, b := range l.Bubbles {
		r.renderBubble(&buf, i, b, l.Width, l.Height)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer, bubbles []bubble.Bubble) {
	if len(bubbles) == 0 {
		return
	}
	buf.WriteString("  <defs>\n")
	for i, b := range bubbles {
		c := escapeXML(colorOf(b))
		fmt.Fprintf(buf, `    <radialGradient id="bubble-fill-%d" cx="50%%" cy="50%%" r="50%%">`+"\n", i)
		fmt.Fprintf(buf, `      <stop offset="0%%" stop-color="%s" stop-opacity="%.2f"/>`+"\n", c, fillInnerOpacity)
		fmt.Fprintf(buf, `      <stop offset="100%%" stop-color="%s" stop-opacity="%.2f"/>`+"\n", c, fillOuterOpacity)
		buf.WriteString("    </radialGradient>\n")
	}
	buf.WriteString("  </defs>\n")
}

func (r *svgRenderer) renderBubble(buf *bytes.Buffer, i int, b bubble.Bubble, width, height float64) {
	cx, cy := r.viewport.Apply(b.X, b.Y, width, height)
	size := b.Size
	if r.selected != "" && b.Label == r.selected {
		size *= selectedScale
	}
	c := escapeXML(colorOf(b))
	sw := StrokeWidth(b.Size)
	lf, cf := LabelFontSize(b.Size), CountFontSize(b.Size)
	if size != b.Size {
		lf, cf = lf*selectedScale, cf*selectedScale
	}

	class := "bubble"
	if b.Overflow {
		class += " overflow"
	}
	fmt.Fprintf(buf, `  <g class="%s" data-label="%s">`+"\n", class, escapeXML(b.Label))
	fmt.Fprintf(buf, `    <circle cx="%.2f" cy="%.2f" r="%.2f" fill="url(#bubble-fill-%d)"/>`+"\n",
		cx, cy, size/2, i)
	// The border is drawn inside the circle.
	fmt.Fprintf(buf, `    <circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-opacity="%.1f" stroke-width="%.1f"/>`+"\n",
		cx, cy, size/2-sw/2, c, strokeOpacity, sw)

	block := lf + textSpacing + cf
	labelY := cy - block/2 + lf/2
	countY := cy + block/2 - cf/2
	fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="central" font-family='%s' font-size="%.2f" fill="#FFFFFF">%s</text>`+"\n",
		cx, labelY, labelFont, lf, escapeXML(b.Label))
	fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="central" font-family='%s' font-size="%.2f" fill="#FFFFFF" fill-opacity="%.1f">%d</text>`+"\n",
		cx, countY, countFont, cf, countOpacity, b.Frequency)
	buf.WriteString("  </g>\n")
}

func colorOf(b bubble.Bubble) string {
	if b.Color == "" {
		return fallbackColor
	}
	return b.Color
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
