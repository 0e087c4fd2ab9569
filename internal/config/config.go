// Package config loads auri's configuration.
//
// Settings come from three layers, later ones winning:
//   - built-in defaults ([Default])
//   - a TOML file, by default $XDG_CONFIG_HOME/auri/config.toml
//   - environment variables ([Config.ApplyEnvOverrides])
//
// Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends.
const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Analysis providers.
const (
	AIOpenAI = "openai"
	AIMock   = "mock"
)

// Config is the complete auri configuration.
type Config struct {
	// User is the journal owner for CLI commands and --no-auth servers.
	User string `toml:"user"`

	Store   StoreConfig   `toml:"store"`
	Cache   CacheConfig   `toml:"cache"`
	AI      AIConfig      `toml:"ai"`
	Server  ServerConfig  `toml:"server"`
	Layout  LayoutConfig  `toml:"layout"`
	Publish PublishConfig `toml:"publish"`
	Log     LogConfig     `toml:"log"`
}

// StoreConfig selects where journal entries live.
type StoreConfig struct {
	Backend       string `toml:"backend"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	PostgresDSN   string `toml:"postgres_dsn"`
	SQLitePath    string `toml:"sqlite_path"` // empty means journal.db in the data dir
}

// CacheConfig selects where layouts, artifacts and analyses are cached.
type CacheConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"` // file backend; empty means the user cache dir
	RedisURL string `toml:"redis_url"`
}

// AIConfig configures entry analysis.
type AIConfig struct {
	Provider string        `toml:"provider"`
	APIKey   string        `toml:"api_key"`
	BaseURL  string        `toml:"base_url"`
	Model    string        `toml:"model"`
	Timeout  time.Duration `toml:"timeout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	JWTSecret       string        `toml:"jwt_secret"`
	NoAuth          bool          `toml:"no_auth"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`

	// AnalyzeRate is the number of analysis requests each user may make per
	// minute, with bursts up to AnalyzeBurst. Zero disables the limit.
	AnalyzeRate  float64 `toml:"analyze_rate"`
	AnalyzeBurst int     `toml:"analyze_burst"`
}

// LayoutConfig holds default bubble layout settings.
type LayoutConfig struct {
	MaxIterations int     `toml:"max_iterations"`
	MaxRadius     float64 `toml:"max_radius"`
	BestEffort    bool    `toml:"best_effort"`
	Palette       string  `toml:"palette"`
}

// PublishConfig configures uploads of rendered charts to S3-compatible
// storage. Empty credentials use the AWS default chain.
type PublishConfig struct {
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	PathStyle       bool   `toml:"path_style"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		User: "local",
		Store: StoreConfig{
			Backend:       StoreMemory,
			MongoDatabase: "auri",
		},
		Cache: CacheConfig{Backend: CacheFile},
		AI: AIConfig{
			Provider: AIMock,
			Model:    "gpt-4",
			Timeout:  30 * time.Second,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			AnalyzeRate:     10,
			AnalyzeBurst:    3,
		},
		Layout: LayoutConfig{
			MaxIterations: 100_000,
			Palette:       "default",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Dir returns the configuration directory (~/.config/auri by default).
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "auri"), nil
	}
	home, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "auri"), nil
}

// DataDir returns the directory for local data such as the SQLite journal
// (~/.local/share/auri by default).
func DataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "auri"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "auri"), nil
}

// SQLiteFile returns the configured SQLite path or the default in DataDir.
func (s StoreConfig) SQLiteFile() (string, error) {
	if s.SQLitePath != "" {
		return s.SQLitePath, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "journal.db"), nil
}

// Path returns the default configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration file at path on top of the defaults and
// applies environment overrides. An empty path reads the default file,
// which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides overrides settings from the environment:
//   - AURI_USER, AURI_LOG_LEVEL
//   - AURI_STORE, MONGODB_URI, AURI_MONGODB_DATABASE, DATABASE_URL, AURI_SQLITE_PATH
//   - AURI_CACHE, AURI_CACHE_DIR, REDIS_URL
//   - AURI_AI_PROVIDER, OPENAI_API_KEY, OPENAI_BASE_URL, AURI_AI_MODEL
//   - AURI_ADDR, AURI_JWT_SECRET, AURI_NO_AUTH
//   - AURI_MAX_ITERATIONS, AURI_BEST_EFFORT
//   - AURI_S3_ENDPOINT
func (c *Config) ApplyEnvOverrides() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(dst *bool, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "1" || strings.EqualFold(v, "true")
		}
	}

	setString(&c.User, "AURI_USER")
	setString(&c.Log.Level, "AURI_LOG_LEVEL")

	setString(&c.Store.Backend, "AURI_STORE")
	setString(&c.Store.MongoURI, "MONGODB_URI")
	setString(&c.Store.MongoDatabase, "AURI_MONGODB_DATABASE")
	setString(&c.Store.PostgresDSN, "DATABASE_URL")
	setString(&c.Store.SQLitePath, "AURI_SQLITE_PATH")

	setString(&c.Cache.Backend, "AURI_CACHE")
	setString(&c.Cache.Dir, "AURI_CACHE_DIR")
	setString(&c.Cache.RedisURL, "REDIS_URL")

	setString(&c.AI.Provider, "AURI_AI_PROVIDER")
	setString(&c.AI.APIKey, "OPENAI_API_KEY")
	setString(&c.AI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.AI.Model, "AURI_AI_MODEL")

	setString(&c.Server.Addr, "AURI_ADDR")
	setString(&c.Server.JWTSecret, "AURI_JWT_SECRET")
	setBool(&c.Server.NoAuth, "AURI_NO_AUTH")

	if v := os.Getenv("AURI_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Layout.MaxIterations = n
		}
	}
	setBool(&c.Layout.BestEffort, "AURI_BEST_EFFORT")

	setString(&c.Publish.Endpoint, "AURI_S3_ENDPOINT")
}

// Validate checks that the selected backends are configured.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.User) == "" {
		errs = append(errs, errors.New("user must not be empty"))
	}

	switch c.Store.Backend {
	case StoreMemory, StoreSQLite:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("store.mongo_uri is required for the mongo store"))
		}
	case StorePostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend %q must be memory, sqlite, mongo or postgres", c.Store.Backend))
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, errors.New("cache.redis_url is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q must be file, redis or none", c.Cache.Backend))
	}

	switch c.AI.Provider {
	case AIOpenAI, AIMock:
	default:
		errs = append(errs, fmt.Errorf("ai.provider %q must be openai or mock", c.AI.Provider))
	}

	if c.Layout.MaxRadius < 0 {
		errs = append(errs, errors.New("layout.max_radius must be >= 0"))
	}
	return errors.Join(errs...)
}

// ValidateServer checks the settings only the HTTP API needs.
func (c *Config) ValidateServer() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if !c.Server.NoAuth && c.Server.JWTSecret == "" {
		return errors.New("server.jwt_secret (or AURI_JWT_SECRET) is required unless no_auth is set")
	}
	if c.Server.AnalyzeRate < 0 || c.Server.AnalyzeBurst < 0 {
		return errors.New("server.analyze_rate and server.analyze_burst must be >= 0")
	}
	return nil
}

// Save writes cfg as TOML to path with owner-only permissions, creating
// the directory if needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "# auri configuration file")
	fmt.Fprintln(f)
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
