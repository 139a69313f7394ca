package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/rshade/ghtrend/internal/cache"
	"github.com/rshade/ghtrend/internal/clones"
	"github.com/rshade/ghtrend/internal/config"
	"github.com/rshade/ghtrend/internal/fetch"
	"github.com/rshade/ghtrend/internal/logging"
	"github.com/rshade/ghtrend/internal/ratelimit"
	"github.com/rshade/ghtrend/internal/tui"
	"github.com/rshade/ghtrend/internal/upstream"
	"github.com/rshade/ghtrend/internal/upstream/gh"
	"github.com/rshade/ghtrend/internal/upstream/raw"
	"github.com/rshade/ghtrend/internal/upstream/rest"
	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// ledgerFile is the rate-limit database kept next to the cache records.
const ledgerFile = "ratelimit.db"

// PickFunc runs an interactive multi-select and returns the chosen indices.
type PickFunc func(ctx context.Context, title string, items []string) ([]int, error)

// Option customizes the root command. Tests use it to replace upstreams and
// terminal interaction.
type Option func(*session)

// WithFetcher replaces the fetcher built from configuration.
func WithFetcher(f *fetch.Fetcher) Option {
	return func(s *session) { s.fetcher = f }
}

// WithCloneOptions passes options to every clones.Manager the commands build.
func WithCloneOptions(opts ...clones.Option) Option {
	return func(s *session) { s.cloneOpts = append(s.cloneOpts, opts...) }
}

// WithPicker replaces the bubbletea picker.
func WithPicker(p PickFunc) Option {
	return func(s *session) { s.pick = p }
}

// WithInteractive overrides terminal detection for prompts and the picker.
func WithInteractive(tty bool) Option {
	return func(s *session) { s.tty = &tty }
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	debug      bool
	noCache    bool
	noColor    bool
	cacheDir   string
	configPath string
	since      string
	language   string
}

// session holds per-invocation state: the resolved configuration and the
// lazily built fetcher.
type session struct {
	flags globalFlags
	cfg   *config.Config

	logResult *logging.LogPathResult
	fetcher   *fetch.Fetcher
	collector *fetch.Collector
	closers   []io.Closer

	cloneOpts []clones.Option
	pick      PickFunc
	tty       *bool
}

func newSession(opts ...Option) *session {
	s := &session{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loadConfig reads the config file and applies flag overrides.
func (s *session) loadConfig() error {
	cfg, err := config.Load(s.flags.configPath)
	if err != nil {
		return err
	}
	if s.flags.noCache {
		cfg.Cache.Enabled = false
	}
	if s.flags.cacheDir != "" {
		cfg.Cache.Dir = s.flags.cacheDir
	}
	if s.flags.noColor {
		cfg.Output.Color = config.ColorNever
	}
	s.cfg = cfg
	return nil
}

// config returns the loaded configuration, or defaults before loading.
func (s *session) config() *config.Config {
	if s.cfg == nil {
		return config.Default()
	}
	return s.cfg
}

// interactive reports whether prompts and the picker may read the terminal.
func (s *session) interactive() bool {
	if s.tty != nil {
		return *s.tty
	}
	return tui.IsTTY()
}

// printer returns a renderer for w, colored per output.color.
func (s *session) printer(w io.Writer) *tui.Printer {
	f, _ := w.(*os.File)
	return tui.NewPrinter(w, tui.UseColor(s.config().Output.Color, f))
}

// cacheDir returns the resolved cache root.
func (s *session) cacheDir() string {
	return config.ResolveCacheDir("", s.config())
}

// Fetcher builds the fetcher on first use. Commands that never touch
// upstream data (config, languages) never open the cache or the ledger.
func (s *session) Fetcher(ctx context.Context) (*fetch.Fetcher, error) {
	if s.fetcher != nil {
		return s.fetcher, nil
	}
	cfg := s.config()
	log := logging.ComponentLogger(*logging.FromContext(ctx), "fetch")

	ttls, err := cache.DefaultTTLTable().WithOverrides(cfg.TTLOverrides())
	if err != nil {
		return nil, asUsage(err)
	}
	policy := cache.NewPolicy(ttls)

	dir := s.cacheDir()
	var store cache.Store = cache.NopStore{}
	if cfg.Cache.Enabled {
		fs, err := cache.NewFileStore(dir, cache.WithLogger(log))
		if err != nil {
			return nil, err
		}
		store = fs
	}

	limiter := ratelimit.New(s.ledger(ctx, dir, log), limiterRules(cfg),
		ratelimit.WithMaxWait(cfg.RateLimit.MaxWait.Std()),
		ratelimit.WithLogger(log),
	)
	s.closers = append(s.closers, limiter)

	httpClient := upstream.NewHTTPClient(upstream.HTTPConfig{
		Timeout:   cfg.Trending.Timeout.Std(),
		UserAgent: cfg.Trending.UserAgent,
	})
	restClient, err := rest.NewClient(nil, cfg.GitHub.Timeout.Std(),
		rest.WithToken(cfg.GitHub.Token),
		rest.WithBaseURL(cfg.GitHub.APIBase),
	)
	if err != nil {
		return nil, err
	}
	collector := fetch.NewCollector()
	metrics, err := fetch.NewMetrics(collector.Meter())
	if err != nil {
		return nil, err
	}
	s.collector = collector

	s.fetcher = fetch.New(store, policy, limiter,
		fetch.WithTrendingSources(
			trending.NewAPIClient(httpClient, cfg.Trending.APIBase),
			trending.NewScraper(httpClient, cfg.Trending.TrendingURL),
		),
		fetch.WithMetadata(gh.NewClient(nil, cfg.GitHub.GHPath, cfg.GitHub.Timeout.Std())),
		fetch.WithReadmeFallback(raw.NewClient(httpClient, "")),
		fetch.WithHealth(restClient),
		fetch.WithStaleOnError(cfg.Cache.StaleOnError == config.StaleAlways),
		fetch.WithMetrics(metrics),
	)
	log.Debug().
		Ctx(ctx).
		Str("operation", "init").
		Str("dir", dir).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Bool("persist_ledger", cfg.RateLimit.Persist).
		Msg("fetcher ready")
	return s.fetcher, nil
}

// ledger opens the SQLite call ledger when persistence is on. Failure to
// open it degrades to an in-memory ledger for this run.
func (s *session) ledger(ctx context.Context, dir string, log zerolog.Logger) ratelimit.Ledger {
	if !s.config().RateLimit.Persist {
		return ratelimit.NewMemoryLedger()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.Warn().Ctx(ctx).Err(err).Str("dir", dir).Msg("cannot create cache directory, rate limits will not persist")
		return ratelimit.NewMemoryLedger()
	}
	l, err := ratelimit.OpenSQLiteLedger(filepath.Join(dir, ledgerFile))
	if err != nil {
		log.Warn().Ctx(ctx).Err(err).Msg("cannot open rate-limit ledger, rate limits will not persist")
		return ratelimit.NewMemoryLedger()
	}
	return l
}

func limiterRules(cfg *config.Config) map[string]ratelimit.Rule {
	rules := make(map[string]ratelimit.Rule, len(cfg.RateLimit.Services))
	for name, svc := range cfg.RateLimit.Services {
		rules[name] = ratelimit.Rule{
			MinInterval: svc.MinInterval.Std(),
			MaxCalls:    svc.MaxCalls,
			Window:      svc.Window.Std(),
		}
	}
	return rules
}

// Clones returns a clone manager rooted at dir (or the configured directory).
// A nil confirm never overwrites.
func (s *session) Clones(dir string, confirm clones.ConfirmFunc) *clones.Manager {
	var opts []clones.Option
	if confirm != nil {
		opts = append(opts, clones.WithConfirm(confirm))
	}
	opts = append(opts, s.cloneOpts...)
	return clones.NewManager(config.ResolveCloneDir(dir, s.config()), opts...)
}

// close logs the run's fetch counters at debug level, then releases the
// ledger and the log file.
func (s *session) close(ctx context.Context) error {
	var errs []error
	if s.collector != nil {
		s.logMetrics(ctx)
		errs = append(errs, s.collector.Shutdown(ctx))
		s.collector = nil
	}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	if s.logResult != nil {
		errs = append(errs, s.logResult.Close())
	}
	return errors.Join(errs...)
}

func (s *session) logMetrics(ctx context.Context) {
	log := logging.FromContext(ctx)
	if log.GetLevel() > zerolog.DebugLevel {
		return
	}
	counts, err := s.collector.Counts(ctx)
	if err != nil || len(counts) == 0 {
		return
	}
	fields := make(map[string]any, len(counts))
	for k, v := range counts {
		fields[k] = v
	}
	log.Debug().
		Ctx(ctx).
		Str("component", "fetch").
		Str("operation", "metrics").
		Fields(fields).
		Msg("fetch counters")
}
