// Package publish uploads rendered bubble charts to S3-compatible object
// storage so they can be shared or embedded.
//
// Targets are written as URLs:
//
//	s3://bucket/optional/prefix
//
// Each artifact is stored under prefix/<file name> with a content type
// derived from its extension.
package publish

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Publisher stores named artifacts and reports where each one landed.
type Publisher interface {
	Publish(ctx context.Context, name string, data []byte) (string, error)
}

// Target is a parsed s3:// URL.
type Target struct {
	Bucket string
	Prefix string
}

// ParseTarget parses s3://bucket[/prefix].
func ParseTarget(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("publish target %q: %w", raw, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return Target{}, fmt.Errorf("publish target %q: want s3://bucket[/prefix]", raw)
	}
	return Target{Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
}

// Key returns the object key for name.
func (t Target) Key(name string) string {
	if t.Prefix == "" {
		return name
	}
	return path.Join(t.Prefix, name)
}

// String formats t back into URL form.
func (t Target) String() string {
	return "s3://" + path.Join(t.Bucket, t.Prefix)
}

// ContentType returns the media type for an artifact file name.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".svg":
		return "image/svg+xml"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	}
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// All publishes every artifact concurrently and returns the locations keyed
// by name. It stops at the first failure.
func All(ctx context.Context, p Publisher, artifacts map[string][]byte) (map[string]string, error) {
	if p == nil {
		return nil, errors.New("publish: no publisher")
	}
	locations := make(map[string]string, len(artifacts))
	results := make(chan [2]string, len(artifacts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for name, data := range artifacts {
		g.Go(func() error {
			loc, err := p.Publish(ctx, name, data)
			if err != nil {
				return fmt.Errorf("publish %s: %w", name, err)
			}
			results <- [2]string{name, loc}
			return nil
		})
	}
	err := g.Wait()
	close(results)
	for r := range results {
		locations[r[0]] = r[1]
	}
	return locations, err
}
