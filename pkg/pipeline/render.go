package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/auri-app/auri/pkg/render"
)

// Render generates output artifacts in the requested formats. Formats are
// rendered concurrently; the first failure cancels the rest.
func Render(ctx context.Context, l render.Layout, opts Options) (map[string][]byte, error) {
	svgOpts := opts.svgOptions()

	var mu sync.Mutex
	artifacts := make(map[string][]byte, len(opts.Formats))

	g, ctx := errgroup.WithContext(ctx)
	for _, format := range opts.Formats {
		g.Go(func() error {
			data, err := renderFormat(ctx, l, format, svgOpts)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, l render.Layout, format string, svgOpts []render.SVGOption) ([]byte, error) {
	switch format {
	case FormatSVG:
		return render.RenderSVG(l, svgOpts...), nil
	case FormatPNG:
		return render.RenderPNG(ctx, l,
			render.WithPNGSVGOptions(svgOpts...),
			render.WithScale(DefaultPNGScale))
	case FormatPDF:
		return render.RenderPDF(ctx, l, svgOpts...)
	case FormatJSON:
		return render.RenderJSON(l)
	default:
		return nil, ValidateFormat(format)
	}
}
