package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/auri-app/auri/internal/config"
	"github.com/auri-app/auri/pkg/analysis"
	"github.com/auri-app/auri/pkg/buildinfo"
	"github.com/auri-app/auri/pkg/cache"
	"github.com/auri-app/auri/pkg/httputil"
	"github.com/auri-app/auri/pkg/journal"
	"github.com/auri-app/auri/pkg/journal/memory"
	"github.com/auri-app/auri/pkg/journal/mongo"
	"github.com/auri-app/auri/pkg/journal/postgres"
	"github.com/auri-app/auri/pkg/journal/sqlite"
	"github.com/auri-app/auri/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "auri"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs.
	Config *config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Auri maps the emotions in your journal as bubbles",
		Long: `Auri keeps a journal, tags each entry with the emotions it expresses, and
draws those emotions as a cluster of bubbles sized by how often they occur.`,
		Version:           buildinfo.Get().Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.preRun,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/auri/config.toml)")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.entryCommand())
	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.tokenCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// preRun loads the configuration and sets the log level. --verbose wins
// over the configured level.
func (c *CLI) preRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	c.SetLogLevel(resolveLevel(cfg.Log.Level, c.verbose))
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

// newCache opens the configured cache backend. A file cache that cannot be
// created degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.Config.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, nil
	default:
		fc, err := cache.NewFileCache(c.Config.Cache.Dir)
		if err != nil {
			c.Logger.Warn("cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
}

// openStore connects to the configured journal backend.
func (c *CLI) openStore(ctx context.Context) (journal.Store, error) {
	cfg := c.Config.Store
	switch cfg.Backend {
	case config.StoreMongo:
		s, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorePostgres:
		s, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreSQLite:
		path, err := cfg.SQLiteFile()
		if err != nil {
			return nil, err
		}
		s, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("opened journal", "path", path)
		return s, nil
	default:
		c.Logger.Debug("using in-memory journal with sample entries; changes are not saved")
		return memory.NewSeeded(c.Config.User), nil
	}
}

// newAnalyzer builds the configured analyzer behind an analysis cache.
func (c *CLI) newAnalyzer(ch cache.Cache) (analysis.Analyzer, error) {
	var inner analysis.Analyzer = analysis.Mock{}
	if c.Config.AI.Provider == config.AIOpenAI {
		o, err := analysis.NewOpenAI(analysis.OpenAIConfig{
			APIKey:  c.Config.AI.APIKey,
			BaseURL: c.Config.AI.BaseURL,
			Model:   c.Config.AI.Model,
		}, httputil.WithHTTPClient(&http.Client{Timeout: c.Config.AI.Timeout}))
		if err != nil {
			return nil, err
		}
		inner = o
	}
	cached := analysis.NewCached(inner, ch, nil)
	cached.Logger = c.Logger
	return cached, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutDefaults seeds pipeline options from the [layout] config section.
func (c *CLI) layoutDefaults() pipeline.Options {
	return pipeline.Options{
		UserID:        c.Config.User,
		MaxIterations: c.Config.Layout.MaxIterations,
		MaxRadius:     c.Config.Layout.MaxRadius,
		BestEffort:    c.Config.Layout.BestEffort,
		Palette:       c.Config.Layout.Palette,
		Logger:        c.Logger,
	}
}

// layoutFlags holds the flags shared by commands that compute a layout.
type layoutFlags struct {
	maxIterations int
	maxRadius     float64
	bestEffort    bool
	palette       string
	width         float64
	height        float64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxIterations, "max-iterations", 0, "candidate positions tried per bubble (default from config; negative for unbounded)")
	cmd.Flags().Float64Var(&f.maxRadius, "max-radius", 0, "largest spiral radius tried (0 for unbounded)")
	cmd.Flags().BoolVar(&f.bestEffort, "best-effort", false, "place bubbles that find no free slot instead of failing")
	cmd.Flags().StringVar(&f.palette, "palette", "", "color palette: default, monochrome")
	cmd.Flags().Float64Var(&f.width, "width", 0, "canvas width (0 fits the bubbles)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "canvas height (0 fits the bubbles)")
}

// apply overrides the config defaults with the flags the user set.
func (f *layoutFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	if cmd.Flags().Changed("max-iterations") {
		opts.MaxIterations = f.maxIterations
	}
	if cmd.Flags().Changed("max-radius") {
		opts.MaxRadius = f.maxRadius
	}
	if cmd.Flags().Changed("best-effort") {
		opts.BestEffort = f.bestEffort
	}
	if f.palette != "" {
		opts.Palette = f.palette
	}
	opts.Width, opts.Height = f.width, f.height
}

// parseFormats parses a comma-separated format string into a slice.
// An empty string selects SVG.
func parseFormats(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{pipeline.FormatSVG}, nil
	}
	return pipeline.ParseFormats(s)
}
