package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/auri-app/auri/pkg/bubble"
	"github.com/auri-app/auri/pkg/emotion"
	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/pipeline"
	"github.com/auri-app/auri/pkg/render"
)

// layoutCommand creates the layout command for placing emotion counts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		watch   bool
		flags   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [counts.json]",
		Short: "Place emotion counts as non-overlapping bubbles",
		Long: `Place emotion counts as non-overlapping bubbles.

The input is a JSON array of {"label", "frequency"} objects, or an object
mapping labels to counts. JSON files may carry // comments and trailing
commas; .yaml and .yml files use the same two shapes. Use "-" to read JSON
from stdin. Bubbles are placed in
input order along a spiral, so list the most important emotions first.

The output is a layout.json file (same format as 'render -f json') that
'render' turns into SVG, PNG or PDF.

Results are cached locally for faster subsequent runs. With --watch the
counts file is laid out again each time it changes; a save that lands while
the previous layout is still searching cancels that search.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.layoutDefaults()
			flags.apply(cmd, &opts)
			ctx := cmd.Context()
			if watch && args[0] == "-" {
				return apperrors.New(apperrors.ErrCodeInvalidInput, "--watch needs a counts file, not stdin")
			}
			err := c.runLayout(ctx, args[0], opts, output, noCache)
			if !watch {
				return err
			}
			if err != nil {
				printError("%v", err)
			}

			w, err := newLayoutWatcher(args[0], layoutOutputPath(args[0], output), opts)
			if err != nil {
				return err
			}
			defer w.wait()
			printInfo("Watching %s for changes (Ctrl+C to stop)", args[0])
			return watchFile(ctx, args[0], watchDebounce, func() { w.trigger(ctx) })
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json, stdout for -)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "lay out again whenever the counts file changes")
	flags.register(cmd)

	return cmd
}

// runLayout reads the counts, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	counts, err := readCounts(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Placing %d bubbles...", len(counts)))
	spinner.Start()

	l, cacheHit, err := runner.ComputeLayoutWithCacheInfo(ctx, counts, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	data, err := render.RenderJSON(l)
	if err != nil {
		return err
	}

	outputPath := layoutOutputPath(input, output)
	if err := writeOutput(outputPath, data); err != nil {
		return err
	}
	if outputPath == "" {
		return nil
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(l.Bubbles), pipeline.Overflowed(l.Bubbles), cacheHit)
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}

// layoutOutputPath defaults the output to <input>.layout.json. Stdin input
// writes to stdout.
func layoutOutputPath(input, output string) string {
	if output == "" && input != "-" {
		return strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	return output
}

// layoutWatcher lays a counts file out again on every change. Layouts run
// through one engine so a newer change cancels the search still running,
// and a result is only written if no newer one has been.
type layoutWatcher struct {
	input  string
	output string
	opts   pipeline.Options
	engine *bubble.Engine

	mu      sync.Mutex
	seq     uint64
	written uint64
	wg      sync.WaitGroup
}

func newLayoutWatcher(input, output string, opts pipeline.Options) (*layoutWatcher, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	opts.SetRenderDefaults()
	if err := pipeline.ValidatePalette(opts.Palette); err != nil {
		return nil, err
	}
	return &layoutWatcher{
		input:  input,
		output: output,
		opts:   opts,
		engine: pipeline.NewEngine(opts),
	}, nil
}

// trigger starts a relayout in the background and reports its outcome.
// Superseded runs are silent.
func (w *layoutWatcher) trigger(ctx context.Context) {
	seq := w.next()
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		err := w.relayout(ctx, seq)
		switch {
		case errors.Is(err, bubble.ErrSuperseded), errors.Is(err, context.Canceled):
		case err != nil:
			printError("%v", err)
		default:
			printSuccess("Layout updated")
			printFile(w.output)
		}
	}()
}

// next numbers a new relayout run.
func (w *layoutWatcher) next() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	return w.seq
}

// relayout reads the counts and writes their layout unless a run with a
// later seq has already written.
func (w *layoutWatcher) relayout(ctx context.Context, seq uint64) error {
	counts, err := readCounts(w.input)
	if err != nil {
		return err
	}
	l, err := pipeline.Relayout(ctx, w.engine, counts, w.opts)
	if err != nil {
		return err
	}
	data, err := render.RenderJSON(l)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if seq < w.written {
		return bubble.ErrSuperseded
	}
	w.written = seq
	return writeOutput(w.output, data)
}

// wait blocks until every triggered relayout has returned.
func (w *layoutWatcher) wait() { w.wg.Wait() }

// readCounts loads emotion counts from path ("-" for stdin). Both a list of
// {"label","frequency"} objects and a {"label": count} object are accepted;
// the object form is ordered by frequency, most frequent first.
func readCounts(path string) ([]bubble.Input, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read counts %s: %w", path, err)
	}
	return parseCounts(data, path)
}

// parseCounts decodes counts as YAML when name ends in .yaml or .yml and as
// commented JSON otherwise.
func parseCounts(data []byte, name string) ([]bubble.Input, error) {
	decode := func(b []byte, v any) error { return json.Unmarshal(jsonc.ToJSON(b), v) }
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		decode = yaml.Unmarshal
	}

	var list []bubble.Input
	if err := decode(data, &list); err == nil {
		return list, validateCounts(list)
	}

	var byLabel map[string]int
	if err := decode(data, &byLabel); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err,
			"counts must be a list of {label, frequency} or an object of label: count")
	}
	list = make([]bubble.Input, 0, len(byLabel))
	for label, n := range byLabel {
		list = append(list, bubble.Input{Label: label, Frequency: n})
	}
	emotion.Sort(list)
	return list, validateCounts(list)
}

func validateCounts(counts []bubble.Input) error {
	for i, in := range counts {
		if strings.TrimSpace(in.Label) == "" {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "count %d has an empty label", i)
		}
		if in.Frequency < 0 {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "%s: frequency must be >= 0, got %d", in.Label, in.Frequency)
		}
	}
	return nil
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}
