package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrConfigExists is returned by WriteDefault when the target exists and
// overwrite was not requested.
var ErrConfigExists = errors.New("config file already exists")

const defaultTemplate = `# ghtrend configuration.
# Environment variables override this file; command-line flags override both.

cache:
  # Defaults to $XDG_CACHE_HOME/ghtrend, ~/.cache/ghtrend or %LOCALAPPDATA%\ghtrend\cache.
  # dir: ~/.cache/ghtrend
  enabled: true
  # Serve expired repo data when gh fails: never | always.
  # Trending listings always fall back to stale data.
  stale_on_error: never
  # ttl:
  #   trending: 1h
  #   repo_info: 24h
  #   readme: 24h
  #   tree: 24h
  #   deps: 24h
  #   issues: 30m

rate_limit:
  # Longest time a command waits for a rate-limit slot. 0 fails immediately.
  max_wait: 3s
  # Remember calls across runs.
  persist: true
  services:
    trending:
      min_interval: 500ms
      max_calls: 30
      window: 1m
    gh:
      min_interval: 500ms
      max_calls: 60
      window: 1m
    github-rest:
      min_interval: 100ms
      max_calls: 80
      window: 1m

trending:
  api_base: https://raw.githubusercontent.com/isboyjc/github-trending-api/main/data
  trending_url: https://github.com/trending
  timeout: 15s

github:
  gh_path: gh
  timeout: 30s
  # The REST token is read from GITHUB_TOKEN or GH_TOKEN.

clones:
  # dir: ~/github-trending-clones
  shallow: false
  editor: code

logging:
  level: warn
  format: console
  # file: /tmp/ghtrend.log

output:
  color: auto
`

// DefaultTemplate returns the commented default configuration.
func DefaultTemplate() string {
	return defaultTemplate
}

// WriteDefault writes the commented default configuration to path.
func WriteDefault(path string, overwrite bool) error {
	if path == "" {
		return errors.New("no config path available")
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultTemplate), 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
