package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/auri-app/auri/pkg/analysis"
	apperrors "github.com/auri-app/auri/pkg/errors"
)

// analyzeCommand creates the analyze command, which asks the configured
// analyzer about a piece of text without saving it.
func (c *CLI) analyzeCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Get an insight and emotion tags for a piece of text",
		Long: `Get an insight and emotion tags for a piece of text.

The text is not saved. Use "-" to read it from stdin. The analyzer is set by
ai.provider: "mock" works offline, "openai" calls an OpenAI-compatible API.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]
			if text == "-" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			res, err := c.analyze(cmd.Context(), text, noCache)
			if err != nil {
				return err
			}
			printAnalysis(res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

// analyze validates text and runs the configured analyzer with a spinner.
func (c *CLI) analyze(ctx context.Context, text string, noCache bool) (analysis.Result, error) {
	if err := apperrors.ValidateEntryText(text); err != nil {
		return analysis.Result{}, err
	}

	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return analysis.Result{}, err
	}
	defer ch.Close()

	a, err := c.newAnalyzer(ch)
	if err != nil {
		return analysis.Result{}, err
	}

	spinner := newSpinnerWithContext(ctx, "Reading your entry...")
	spinner.Start()
	res, err := a.Analyze(ctx, text)
	if err != nil {
		spinner.StopWithError("Analysis failed")
		return analysis.Result{}, err
	}
	spinner.Stop()
	return res, nil
}

func printAnalysis(res analysis.Result) {
	if len(res.Emotions) == 0 {
		printInfo("No emotions detected")
	} else {
		tags := make([]string, len(res.Emotions))
		for i, e := range res.Emotions {
			tags[i] = valenceStyle(e).Render(e)
		}
		printKeyValue("Emotions", strings.Join(tags, StyleDim.Render(", ")))
	}
	if res.Insight != "" {
		printKeyValue("Insight", res.Insight)
	}
}
