package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/auri-app/auri/pkg/emotion"
	"github.com/auri-app/auri/pkg/pipeline"
)

// visualizeCommand creates the visualize command, which runs the whole
// journal → counts → layout → render pipeline.
func (c *CLI) visualizeCommand() *cobra.Command {
	var (
		output  string
		filter  string
		since   string
		noCache bool
		refresh bool
		target  string
		flags   layoutFlags
		view    viewFlags
	)

	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Draw the emotions in your journal as bubbles",
		Long: `Draw the emotions in your journal as bubbles.

The visualize command reads your journal entries, counts the emotions they
were tagged with, places one bubble per emotion and renders the result.

Use --filter to keep only positive or negative emotions, and --since to
limit the entries that are counted.`,
		Example: `  auri visualize
  auri visualize --filter positive -f svg,png -o mood
  auri visualize --since 2026-01-01 --selected Joy
  auri visualize -f svg,png --publish s3://my-bucket/moods`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.layoutDefaults()
			flags.apply(cmd, &opts)
			if err := view.apply(&opts); err != nil {
				return err
			}

			f, err := emotion.ParseFilter(filter)
			if err != nil {
				return err
			}
			opts.Filter = f

			if since != "" {
				t, err := parseSince(since)
				if err != nil {
					return err
				}
				opts.Since = t
			}
			opts.Refresh = refresh
			return c.runVisualize(cmd.Context(), opts, output, noCache, target)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "base output path (default: bubbles)")
	cmd.Flags().StringVar(&filter, "filter", "all", "emotions to include: all, positive, negative")
	cmd.Flags().StringVar(&since, "since", "", "only count entries from this date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached layouts and renders")
	publishFlag(cmd, &target)
	flags.register(cmd)
	view.register(cmd)

	return cmd
}

// runVisualize executes the full pipeline against the configured journal.
func (c *CLI) runVisualize(ctx context.Context, opts pipeline.Options, output string, noCache bool, target string) error {
	logger := loggerFromContext(ctx)

	store, err := c.openStore(ctx)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	runner.Store = store

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Mapping %s emotions...", opts.Filter))
	spinner.Start()

	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Visualization failed")
		return fmt.Errorf("visualize: %w", err)
	}
	spinner.Stop()
	prog.done("pipeline finished",
		"entries", res.Stats.EntryCount,
		"emotions", res.Stats.EmotionCount,
		"formats", len(opts.Formats))

	if len(res.Counts) == 0 {
		printWarning("No %s emotions found in your journal", opts.Filter)
		printNextStep("Write an entry", appName+` entry add "Today I felt..." --analyze`)
		return nil
	}

	paths, err := writeArtifacts(res.Artifacts, opts.Formats, basePath(output, "bubbles"))
	if err != nil {
		return err
	}

	printSuccess("Mapped %d entries", res.Stats.EntryCount)
	printCounts(res.Counts)
	printNewline()
	for _, p := range paths {
		printFile(p)
	}
	printStats(len(res.Layout.Bubbles), res.Stats.OverflowCount, res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit)
	if target != "" {
		return c.publishFiles(ctx, target, paths)
	}
	return nil
}

// parseSince accepts a date (YYYY-MM-DD, local midnight) or an RFC 3339
// timestamp.
func parseSince(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}
