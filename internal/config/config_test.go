package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rshade/ghtrend/internal/config"
	"github.com/rshade/ghtrend/internal/logging"
)

// clearEnv blanks every variable Load consults so host settings don't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvConfigPath, config.EnvCacheDir, config.EnvCacheEnabled,
		config.EnvLogLevel, config.EnvLogFormat, config.EnvCloneDir,
		config.EnvGitHubToken, config.EnvGHToken,
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Empty(t, cfg.Path)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, config.StaleNever, cfg.Cache.StaleOnError)
	assert.Equal(t, 3*time.Second, cfg.RateLimit.MaxWait.Std())
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimit.Services[config.ServiceGH].MinInterval.Std())
	assert.Equal(t, "gh", cfg.GitHub.GHPath)
}

func TestLoad_FileMergesOverDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
cache:
  stale_on_error: always
  ttl:
    trending: 2h
rate_limit:
  max_wait: 0
  services:
    gh:
      min_interval: 1s
      max_calls: 10
      window: 1m
logging:
  level: debug
  format: json
plugins:
  foo: bar
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, config.StaleAlways, cfg.Cache.StaleOnError)
	assert.True(t, cfg.Cache.Enabled, "fields absent from the file keep defaults")
	assert.Equal(t, 2*time.Hour, cfg.TTLOverrides()["trending"])
	assert.Zero(t, cfg.RateLimit.MaxWait)
	assert.Equal(t, time.Second, cfg.RateLimit.Services[config.ServiceGH].MinInterval.Std())
	_, ok := cfg.RateLimit.Services[config.ServiceTrending]
	assert.True(t, ok, "services absent from the file keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"plugins"}, cfg.Unknown)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(config.EnvCacheDir, dir)
	t.Setenv(config.EnvCacheEnabled, "false")
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvGHToken, "gh-token")

	path := writeConfig(t, "cache:\n  dir: /from/file\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Cache.Dir)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "gh-token", cfg.GitHub.Token)

	t.Setenv(config.EnvGitHubToken, "github-token")
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "github-token", cfg.GitHub.Token, "GITHUB_TOKEN wins over GH_TOKEN")
}

func TestLoad_EnvTTLOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvCacheTTLPrefix+"TRENDING", "7200")
	t.Setenv(config.EnvCacheTTLPrefix+"REPO_INFO", "90m")

	path := writeConfig(t, "cache:\n  ttl:\n    trending: 3h\n    issues: 45m\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	overrides := cfg.TTLOverrides()
	assert.Equal(t, 2*time.Hour, overrides["trending"], "environment wins over the file")
	assert.Equal(t, 90*time.Minute, overrides["repo_info"])
	assert.Equal(t, 45*time.Minute, overrides["issues"])

	for _, v := range []string{"5s", "soon", "30d"} {
		t.Setenv(config.EnvCacheTTLPrefix+"TRENDING", v)
		_, err = config.Load(path)
		require.ErrorIs(t, err, config.ErrInvalidConfig, v)
	}
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "output:\n  color: never\n")
	t.Setenv(config.EnvConfigPath, path)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.ColorNever, cfg.Output.Color)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
	}{
		{"bad stale policy", "cache:\n  stale_on_error: sometimes\n"},
		{"bad color", "output:\n  color: rainbow\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"negative wait", "rate_limit:\n  max_wait: -1s\n"},
		{"calls without window", "rate_limit:\n  services:\n    gh:\n      max_calls: 5\n"},
		{"bad duration", "trending:\n  timeout: soon\n"},
		{"not yaml", "cache: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestDuration_YAML(t *testing.T) {
	var v struct {
		A config.Duration `yaml:"a"`
		B config.Duration `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 90\nb: 1h30m\n"), &v))
	assert.Equal(t, 90*time.Second, v.A.Std())
	assert.Equal(t, 90*time.Minute, v.B.Std())

	out, err := yaml.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(out), "b: 1h30m0s")
}

func TestWriteDefault(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, config.WriteDefault(path, false))
	require.ErrorIs(t, config.WriteDefault(path, false), config.ErrConfigExists)
	require.NoError(t, config.WriteDefault(path, true))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Unknown)
	assert.Equal(t, config.Default().RateLimit, cfg.RateLimit)
}

func TestMarshal_OmitsToken(t *testing.T) {
	cfg := config.Default()
	cfg.GitHub.Token = "secret"
	out, err := cfg.Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
	assert.Contains(t, string(out), "max_wait: 3s")
}

func TestResolveCacheDir(t *testing.T) {
	clearEnv(t)
	xdg := t.TempDir()
	t.Setenv(config.EnvXDGCacheHome, xdg)
	t.Setenv(config.EnvLocalAppData, xdg)

	cfg := config.Default()
	assert.Equal(t, "/flag", config.ResolveCacheDir("/flag", cfg))

	cfg.Cache.Dir = "/configured"
	assert.Equal(t, "/configured", config.ResolveCacheDir("", cfg))

	cfg.Cache.Dir = ""
	want := filepath.Join(xdg, "ghtrend")
	if runtime.GOOS == "windows" {
		want = filepath.Join(xdg, "ghtrend", "cache")
	}
	assert.Equal(t, want, config.ResolveCacheDir("", cfg))
}

func TestResolveCloneDir(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, ".", config.ResolveCloneDir("", cfg))
	cfg.Clones.Dir = "/clones"
	assert.Equal(t, "/clones", config.ResolveCloneDir("", cfg))
	assert.Equal(t, "/other", config.ResolveCloneDir("/other", cfg))
}

func TestToLoggingConfig(t *testing.T) {
	lc := config.LoggingConfig{Level: "info", Format: logging.FormatJSON}
	assert.Equal(t, logging.OutputStderr, lc.ToLoggingConfig().Output)

	lc.File = "/tmp/x.log"
	out := lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputFile, out.Output)
	assert.Equal(t, "/tmp/x.log", out.File)
}
