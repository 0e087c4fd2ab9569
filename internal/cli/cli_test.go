package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/auri-app/auri/internal/config"
	"github.com/auri-app/auri/pkg/pipeline"
	"github.com/auri-app/auri/pkg/render"
)

// newTestCLI returns a CLI with a quiet logger and a config file in a temp
// dir that disables caching.
func newTestCLI(t *testing.T) (*CLI, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[cache]\nbackend = \"none\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return New(io.Discard, LogInfo), path
}

func execute(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"analyze", "browse", "cache", "completion", "config", "entry", "layout", "render", "serve", "token", "visualize"}
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	for _, name := range want {
		if !slices.Contains(got, name) {
			t.Errorf("root command missing %q (have %v)", name, got)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input   string
		want    []string
		wantErr bool
	}{
		{"", []string{"svg"}, false},
		{"svg", []string{"svg"}, false},
		{"svg,json,png", []string{"svg", "json", "png"}, false},
		{" pdf ", []string{"pdf"}, false},
		{"gif", nil, true},
		{"svg,gif", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseFormats(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFormats(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLayoutFlagsApply(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Layout.MaxIterations = 500
	c.Config.Layout.BestEffort = true

	tests := []struct {
		name string
		args []string
		want pipeline.Options
	}{
		{
			name: "config defaults",
			args: nil,
			want: pipeline.Options{MaxIterations: 500, BestEffort: true, Palette: "default"},
		},
		{
			name: "flags override",
			args: []string{"--max-iterations", "-1", "--best-effort=false", "--palette", "monochrome", "--width", "400"},
			want: pipeline.Options{MaxIterations: -1, BestEffort: false, Palette: "monochrome", Width: 400},
		},
		{
			name: "explicit zero radius",
			args: []string{"--max-radius", "0"},
			want: pipeline.Options{MaxIterations: 500, BestEffort: true, Palette: "default"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags layoutFlags
			cmd := &cobra.Command{Use: "test"}
			flags.register(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}

			opts := c.layoutDefaults()
			flags.apply(cmd, &opts)

			if opts.MaxIterations != tt.want.MaxIterations {
				t.Errorf("MaxIterations = %d, want %d", opts.MaxIterations, tt.want.MaxIterations)
			}
			if opts.BestEffort != tt.want.BestEffort {
				t.Errorf("BestEffort = %v, want %v", opts.BestEffort, tt.want.BestEffort)
			}
			if opts.Palette != tt.want.Palette {
				t.Errorf("Palette = %q, want %q", opts.Palette, tt.want.Palette)
			}
			if opts.Width != tt.want.Width {
				t.Errorf("Width = %g, want %g", opts.Width, tt.want.Width)
			}
		})
	}
}

func TestViewFlagsApply(t *testing.T) {
	f := viewFlags{formats: "svg,json", selected: "Joy", zoom: 2, panX: 10, panY: -5}
	var opts pipeline.Options
	if err := f.apply(&opts); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(opts.Formats, []string{"svg", "json"}) {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.Selected != "Joy" {
		t.Errorf("Selected = %q", opts.Selected)
	}
	want := render.Viewport{Scale: 2, OffsetX: 10, OffsetY: -5}
	if opts.Viewport != want {
		t.Errorf("Viewport = %+v, want %+v", opts.Viewport, want)
	}

	if err := (&viewFlags{formats: "bmp"}).apply(&opts); err == nil {
		t.Error("apply accepted an unknown format")
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, fallback, want string
	}{
		{"", "bubbles", "bubbles"},
		{"out/mood", "bubbles", "out/mood"},
		{"mood.svg", "bubbles", "mood"},
		{"mood.png", "bubbles", "mood"},
		{"mood.v2", "bubbles", "mood.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.fallback); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.fallback, got, tt.want)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "bubbles")
	artifacts := map[string][]byte{"svg": []byte("<svg/>"), "json": []byte("{}")}

	paths, err := writeArtifacts(artifacts, []string{"json", "svg"}, base)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(paths, []string{base + ".json", base + ".svg"}) {
		t.Errorf("paths = %v", paths)
	}
	data, err := os.ReadFile(base + ".svg")
	if err != nil || string(data) != "<svg/>" {
		t.Errorf("svg file = %q, %v", data, err)
	}

	if _, err := writeArtifacts(artifacts, []string{"pdf"}, base); err == nil {
		t.Error("writeArtifacts succeeded for a missing format")
	}
}

func TestParseSince(t *testing.T) {
	got, err := parseSince("2026-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local); !got.Equal(want) {
		t.Errorf("parseSince(date) = %v, want %v", got, want)
	}

	got, err = parseSince("2026-03-01T12:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("parseSince(rfc3339) = %v, want %v", got, want)
	}

	if _, err := parseSince("yesterday"); err == nil {
		t.Error("parseSince accepted an invalid value")
	}
}

func TestCacheDir(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Cache.Dir = "/tmp/auri-cache"
	if dir, _ := c.cacheDir(); dir != "/tmp/auri-cache" {
		t.Errorf("cacheDir() = %q, want the configured dir", dir)
	}

	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME only applies on linux")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	c.Config.Cache.Dir = ""
	dir, err := c.cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(xdg, "auri"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestRedact(t *testing.T) {
	cfg := *config.Default()
	cfg.AI.APIKey = "sk-secret"
	cfg.Server.JWTSecret = "jwt-secret"

	got := redact(cfg)
	if got.AI.APIKey == "sk-secret" || got.Server.JWTSecret == "jwt-secret" {
		t.Errorf("secrets not masked: %+v", got)
	}
	if got.Store.MongoURI != "" {
		t.Errorf("empty secret masked to %q", got.Store.MongoURI)
	}
	if cfg.AI.APIKey != "sk-secret" {
		t.Error("redact modified its argument")
	}
}

func TestConfigPathCommand(t *testing.T) {
	c, path := newTestCLI(t)
	out, err := execute(t, c, "--config", path, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", out, path)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	c, path := newTestCLI(t)
	if _, err := execute(t, c, "--config", path, "config", "init"); err == nil {
		t.Fatal("config init overwrote an existing file without --force")
	}
	if _, err := execute(t, c, "--config", path, "config", "init", "--force"); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}

func TestTokenCommand(t *testing.T) {
	c, path := newTestCLI(t)
	t.Setenv("AURI_JWT_SECRET", "test-secret-0123456789")

	out, err := execute(t, c, "--config", path, "token", "user-7", "--ttl", "1h")
	if err != nil {
		t.Fatal(err)
	}
	if parts := strings.Split(strings.TrimSpace(out), "."); len(parts) != 3 {
		t.Errorf("token %q is not a JWT", out)
	}
}

func TestTokenCommandNeedsSecret(t *testing.T) {
	c, path := newTestCLI(t)
	t.Setenv("AURI_JWT_SECRET", "")
	if _, err := execute(t, c, "--config", path, "token"); err == nil {
		t.Error("token issued without a secret")
	}
}

func TestLayoutCommand(t *testing.T) {
	c, path := newTestCLI(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "counts.json")
	output := filepath.Join(dir, "out.json")
	if err := os.WriteFile(input, []byte(`{"Joy": 10, "Sadness": 5, "Anger": 3}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, c, "--config", path, "layout", input, "-o", output); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	var l render.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		t.Fatal(err)
	}
	if len(l.Bubbles) != 3 {
		t.Fatalf("got %d bubbles, want 3", len(l.Bubbles))
	}
	if b := l.Bubbles[0]; b.Label != "Joy" || math.Abs(b.X-60) > 1e-9 || math.Abs(b.Y) > 1e-9 {
		t.Errorf("first bubble = %+v, want Joy at (60, 0)", b)
	}
}

func TestRenderCommand(t *testing.T) {
	c, path := newTestCLI(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "mood.layout.json")
	layout := `{"width": 300, "height": 300, "bubbles": [{"label": "Joy", "frequency": 3, "size": 80, "x": 60, "y": 0, "color": "#FF6B6B"}]}`
	if err := os.WriteFile(input, []byte(layout), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, c, "--config", path, "render", input, "--selected", "Joy"); err != nil {
		t.Fatal(err)
	}

	svg, err := os.ReadFile(filepath.Join(dir, "mood.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), "Joy") {
		t.Error("rendered SVG does not contain the bubble label")
	}
}
