// Package config loads ghtrend's YAML configuration, applies environment
// overrides, and resolves OS-specific locations for the cache and config files.
//
// Precedence, lowest first: built-in defaults, the config file, environment
// variables, then command-line flags (applied by the cli package).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/ghtrend/internal/cache"
	"github.com/rshade/ghtrend/internal/logging"
)

// Environment variables consulted by Load.
const (
	EnvConfigPath   = "GHTREND_CONFIG"
	EnvCacheDir     = "GHTREND_CACHE_DIR"
	EnvCacheEnabled = "GHTREND_CACHE_ENABLED"
	EnvLogLevel     = "GHTREND_LOG_LEVEL"
	EnvLogFormat    = "GHTREND_LOG_FORMAT"
	EnvCloneDir     = "GHTREND_CLONE_DIR"
	EnvGitHubToken  = "GITHUB_TOKEN"
	EnvGHToken      = "GH_TOKEN"
	EnvXDGCacheHome = "XDG_CACHE_HOME"
	EnvLocalAppData = "LOCALAPPDATA"

	// EnvCacheTTLPrefix plus an upper-cased category name overrides that
	// category's TTL, e.g. GHTREND_CACHE_TTL_TRENDING=2h or =7200.
	EnvCacheTTLPrefix = "GHTREND_CACHE_TTL_"
)

// Upstream service names used as rate-limit keys.
const (
	ServiceTrending   = "trending"
	ServiceGH         = "gh"
	ServiceGitHubREST = "github-rest"
)

// Stale-on-error policies for evaluation categories.
const (
	StaleNever  = "never"
	StaleAlways = "always"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

const appName = "ghtrend"

// Top-level YAML section names.
const (
	keyCache     = "cache"
	keyRateLimit = "rate_limit"
	keyTrending  = "trending"
	keyGitHub    = "github"
	keyClones    = "clones"
	keyLogging   = "logging"
	keyOutput    = "output"
)

// knownTopLevelKeys lists the YAML keys that correspond to Config fields.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var knownTopLevelKeys = map[string]bool{
	keyCache:     true,
	keyRateLimit: true,
	keyTrending:  true,
	keyGitHub:    true,
	keyClones:    true,
	keyLogging:   true,
	keyOutput:    true,
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete ghtrend configuration.
type Config struct {
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Trending  TrendingConfig  `yaml:"trending"`
	GitHub    GitHubConfig    `yaml:"github"`
	Clones    ClonesConfig    `yaml:"clones"`
	Logging   LoggingConfig   `yaml:"logging"`
	Output    OutputConfig    `yaml:"output"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
	// Unknown lists top-level keys found in the file that ghtrend ignores.
	Unknown []string `yaml:"-"`
}

// CacheConfig controls the on-disk cache.
type CacheConfig struct {
	Dir     string `yaml:"dir,omitempty"`
	Enabled bool   `yaml:"enabled"`
	// TTL overrides per category name, e.g. {"trending": "2h"}.
	TTL map[string]Duration `yaml:"ttl,omitempty"`
	// StaleOnError decides whether evaluation categories fall back to an
	// expired record when the upstream cannot be reached. Trending always does.
	StaleOnError string `yaml:"stale_on_error"`
}

// RateLimitConfig holds the per-service limiter rules.
type RateLimitConfig struct {
	// MaxWait bounds how long Acquire sleeps before giving up. Zero rejects
	// immediately whenever a call is not yet permitted.
	MaxWait Duration `yaml:"max_wait"`
	// Persist keeps the call ledger in SQLite so limits hold across runs.
	Persist  bool                     `yaml:"persist"`
	Services map[string]ServiceLimits `yaml:"services"`
}

// ServiceLimits describes one upstream service's allowed call rate.
type ServiceLimits struct {
	MinInterval Duration `yaml:"min_interval"`
	MaxCalls    int      `yaml:"max_calls"`
	Window      Duration `yaml:"window"`
}

// TrendingConfig points at the listing API and the public trending page.
type TrendingConfig struct {
	APIBase     string   `yaml:"api_base"`
	TrendingURL string   `yaml:"trending_url"`
	Timeout     Duration `yaml:"timeout"`
	UserAgent   string   `yaml:"user_agent"`
}

// GitHubConfig configures the gh tool and the REST client used by analyze.
type GitHubConfig struct {
	GHPath  string   `yaml:"gh_path"`
	APIBase string   `yaml:"api_base,omitempty"`
	Timeout Duration `yaml:"timeout"`
	// Token is read from the environment only and never written back.
	Token string `yaml:"-"`
}

// ClonesConfig configures clone management.
type ClonesConfig struct {
	Dir     string `yaml:"dir,omitempty"`
	Shallow bool   `yaml:"shallow"`
	Editor  string `yaml:"editor"`
}

// LoggingConfig configures the root logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// OutputConfig configures terminal output.
type OutputConfig struct {
	Color string `yaml:"color"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Enabled:      true,
			StaleOnError: StaleNever,
		},
		RateLimit: RateLimitConfig{
			MaxWait: Duration(3 * time.Second),
			Persist: true,
			Services: map[string]ServiceLimits{
				ServiceTrending: {
					MinInterval: Duration(500 * time.Millisecond),
					MaxCalls:    30,
					Window:      Duration(time.Minute),
				},
				ServiceGH: {
					MinInterval: Duration(500 * time.Millisecond),
					MaxCalls:    60,
					Window:      Duration(time.Minute),
				},
				ServiceGitHubREST: {
					MinInterval: Duration(100 * time.Millisecond),
					MaxCalls:    80,
					Window:      Duration(time.Minute),
				},
			},
		},
		Trending: TrendingConfig{
			APIBase:     "https://raw.githubusercontent.com/isboyjc/github-trending-api/main/data",
			TrendingURL: "https://github.com/trending",
			Timeout:     Duration(15 * time.Second),
			UserAgent:   "Mozilla/5.0 (compatible; ghtrend)",
		},
		GitHub: GitHubConfig{
			GHPath:  "gh",
			Timeout: Duration(30 * time.Second),
		},
		Clones: ClonesConfig{
			Editor: "code",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: logging.FormatConsole,
		},
		Output: OutputConfig{
			Color: ColorAuto,
		},
	}
}

// Load reads the config file at path over the defaults and applies
// environment overrides. An empty path resolves via FilePath. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = FilePath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if decodeErr := cfg.decode(data); decodeErr != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, decodeErr)
			}
			cfg.Path = path
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode unmarshals data onto the current values. Sections absent from the
// file keep their defaults; nested maps are merged key by key.
func (c *Config) decode(data []byte) error {
	var top map[string]yaml.Node
	if err := yaml.Unmarshal(data, &top); err != nil {
		return err
	}
	if len(top) == 0 {
		return nil
	}

	for key := range top {
		if !knownTopLevelKeys[key] {
			c.Unknown = append(c.Unknown, key)
		}
	}
	sort.Strings(c.Unknown)

	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv(EnvCacheEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = enabled
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvCloneDir); v != "" {
		c.Clones.Dir = v
	}
	if v := os.Getenv(EnvGitHubToken); v != "" {
		c.GitHub.Token = v
	} else if v = os.Getenv(EnvGHToken); v != "" {
		c.GitHub.Token = v
	}

	for _, category := range cache.Categories() {
		name := EnvCacheTTLPrefix + strings.ToUpper(category.String())
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		ttl, err := cache.ParseTTL(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
		}
		if c.Cache.TTL == nil {
			c.Cache.TTL = make(map[string]Duration)
		}
		c.Cache.TTL[category.String()] = Duration(ttl)
	}
	return nil
}

// Validate checks enumerations and limiter rules.
func (c *Config) Validate() error {
	switch c.Cache.StaleOnError {
	case StaleNever, StaleAlways:
	default:
		return fmt.Errorf("%w: cache.stale_on_error must be %q or %q, got %q",
			ErrInvalidConfig, StaleNever, StaleAlways, c.Cache.StaleOnError)
	}

	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: output.color must be auto, always or never, got %q", ErrInvalidConfig, c.Output.Color)
	}

	switch c.Logging.Format {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", ErrInvalidConfig, c.Logging.Format)
	}

	if c.RateLimit.MaxWait < 0 {
		return fmt.Errorf("%w: rate_limit.max_wait cannot be negative", ErrInvalidConfig)
	}
	for name, s := range c.RateLimit.Services {
		if s.MinInterval < 0 || s.Window < 0 || s.MaxCalls < 0 {
			return fmt.Errorf("%w: rate_limit.services.%s has negative values", ErrInvalidConfig, name)
		}
		if s.MaxCalls > 0 && s.Window == 0 {
			return fmt.Errorf("%w: rate_limit.services.%s sets max_calls without a window", ErrInvalidConfig, name)
		}
	}
	return nil
}

// TTLOverrides returns the cache TTL overrides as durations.
func (c *Config) TTLOverrides() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.Cache.TTL))
	for k, v := range c.Cache.TTL {
		out[k] = v.Std()
	}
	return out
}

// ToLoggingConfig converts the logging section for logging.NewLoggerWithPath.
func (lc LoggingConfig) ToLoggingConfig() logging.Config {
	out := logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: logging.OutputStderr,
	}
	if lc.File != "" {
		out.Output = logging.OutputFile
		out.File = lc.File
	}
	return out
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// FilePath returns $GHTREND_CONFIG or <user config dir>/ghtrend/config.yaml.
// It returns "" when no user config directory can be determined.
func FilePath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.yaml")
}

// ResolveCacheDir picks the cache root. Precedence: flagValue, the configured
// directory (which already includes $GHTREND_CACHE_DIR), then DefaultCacheDir.
func ResolveCacheDir(flagValue string, cfg *Config) string {
	if flagValue != "" {
		return expandHome(flagValue)
	}
	if cfg != nil && cfg.Cache.Dir != "" {
		return expandHome(cfg.Cache.Dir)
	}
	return DefaultCacheDir()
}

// DefaultCacheDir returns the per-OS cache location:
// %LOCALAPPDATA%\ghtrend\cache on Windows, otherwise $XDG_CACHE_HOME/ghtrend
// or ~/.cache/ghtrend.
func DefaultCacheDir() string {
	if runtime.GOOS == "windows" {
		if base := os.Getenv(EnvLocalAppData); base != "" {
			return filepath.Join(base, appName, "cache")
		}
	}
	if base := os.Getenv(EnvXDGCacheHome); base != "" {
		return filepath.Join(base, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName+"-cache")
	}
	return filepath.Join(home, ".cache", appName)
}

// ResolveCloneDir returns the clone target directory; "" means the current
// working directory.
func ResolveCloneDir(flagValue string, cfg *Config) string {
	dir := flagValue
	if dir == "" && cfg != nil {
		dir = cfg.Clones.Dir
	}
	if dir == "" {
		return "."
	}
	return expandHome(dir)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
