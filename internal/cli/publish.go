package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/publish"
)

func publishFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVar(dst, "publish", "", "also upload the output to s3://bucket/prefix")
}

// newPublisher parses target and builds an S3 publisher from the [publish]
// config section.
func (c *CLI) newPublisher(ctx context.Context, target string) (publish.Publisher, publish.Target, error) {
	t, err := publish.ParseTarget(target)
	if err != nil {
		return nil, publish.Target{}, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid --publish")
	}
	pc := c.Config.Publish
	p, err := publish.NewS3(ctx, t, publish.S3Config{
		Region:          pc.Region,
		Endpoint:        pc.Endpoint,
		PathStyle:       pc.PathStyle,
		AccessKeyID:     pc.AccessKeyID,
		SecretAccessKey: pc.SecretAccessKey,
	}, c.Logger)
	return p, t, err
}

// publishFiles uploads the written artifacts and prints where they went.
func (c *CLI) publishFiles(ctx context.Context, target string, paths []string) error {
	p, t, err := c.newPublisher(ctx, target)
	if err != nil {
		return err
	}
	return publishPaths(ctx, p, t, paths)
}

func publishPaths(ctx context.Context, p publish.Publisher, t publish.Target, paths []string) error {
	artifacts := make(map[string][]byte, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		artifacts[filepath.Base(path)] = data
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Publishing to %s...", t))
	spinner.Start()
	locations, err := publish.All(ctx, p, artifacts)
	if err != nil {
		spinner.StopWithError("Publish failed")
		return err
	}
	spinner.Stop()

	names := make([]string, 0, len(locations))
	for name := range locations {
		names = append(names, name)
	}
	slices.Sort(names)
	printSuccess("Published %d file(s)", len(names))
	for _, name := range names {
		printFile(locations[name])
	}
	return nil
}
