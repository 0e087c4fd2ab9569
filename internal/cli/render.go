package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/auri-app/auri/pkg/pipeline"
	"github.com/auri-app/auri/pkg/render"
)

// viewFlags holds the flags that control how a layout is drawn.
type viewFlags struct {
	formats  string
	selected string
	zoom     float64
	panX     float64
	panY     float64
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), json, pdf, png (comma-separated)")
	cmd.Flags().StringVar(&f.selected, "selected", "", "emotion to highlight")
	cmd.Flags().Float64Var(&f.zoom, "zoom", 1, "zoom factor applied to bubble positions")
	cmd.Flags().Float64Var(&f.panX, "pan-x", 0, "horizontal pan offset in points")
	cmd.Flags().Float64Var(&f.panY, "pan-y", 0, "vertical pan offset in points")
}

// apply copies the flags into opts.
func (f *viewFlags) apply(opts *pipeline.Options) error {
	formats, err := parseFormats(f.formats)
	if err != nil {
		return err
	}
	opts.Formats = formats
	opts.Selected = f.selected

	opts.Viewport = render.Identity.Zoom(f.zoom).Pan(f.panX, f.panY)
	return nil
}

// renderCommand creates the render command for drawing a computed layout.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		watch   bool
		target  string
		view    viewFlags
	)

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render a bubble layout to SVG, PNG, PDF or JSON",
		Long: `Render a bubble layout to SVG, PNG, PDF or JSON.

The render command takes a layout.json file (produced by 'layout' or
'render -f json') and draws it. The layout already holds every position,
size and color, so this step is purely about drawing.

PNG and PDF output need rsvg-convert (librsvg) on the PATH. With --watch the
layout is rendered again each time the file changes, until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.layoutDefaults()
			if err := view.apply(&opts); err != nil {
				return err
			}
			ctx := cmd.Context()
			err := c.runRender(ctx, args[0], opts, output, noCache, target)
			if !watch {
				return err
			}
			if err != nil {
				printError("%v", err)
			}

			printInfo("Watching %s for changes (Ctrl+C to stop)", args[0])
			return watchFile(ctx, args[0], watchDebounce, func() {
				if err := c.runRender(ctx, args[0], opts, output, noCache, target); err != nil {
					printError("%v", err)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "render again whenever the layout file changes")
	publishFlag(cmd, &target)
	view.register(cmd)

	return cmd
}

// runRender loads the layout and renders it. A non-empty target publishes
// the written files.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool, target string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read layout %s: %w", input, err)
	}
	l, err := render.ParseLayout(data)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	base := strings.TrimSuffix(strings.TrimSuffix(input, filepath.Ext(input)), ".layout")
	paths, err := writeArtifacts(artifacts, opts.Formats, basePath(output, base))
	if err != nil {
		return err
	}

	printSuccess("Rendered %d file(s)", len(paths))
	for _, p := range paths {
		printFile(p)
	}
	printStats(len(l.Bubbles), pipeline.Overflowed(l.Bubbles), cacheHit)
	if target != "" {
		return c.publishFiles(ctx, target, paths)
	}
	return nil
}

// basePath derives the base output path. An empty output uses fallback; a
// known format extension on output is stripped.
func basePath(output, fallback string) string {
	if output == "" {
		return fallback
	}
	ext := filepath.Ext(output)
	if pipeline.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeArtifacts writes one file per format as base.<format> and returns the
// paths in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, base string) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			return paths, fmt.Errorf("no %s output produced", format)
		}
		path := base + "." + format
		if err := writeOutput(path, data); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
