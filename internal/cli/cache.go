package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rshade/ghtrend/internal/fetch"
)

func newCacheCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Cache management commands"}
	cmd.AddCommand(newCacheClearCmd(s), newCacheStatsCmd(s))
	return cmd
}

// storeFetcher returns a fetcher backed by the on-disk store even when
// caching is disabled for reads, so the cache commands always see the files.
func (s *session) storeFetcher(ctx context.Context) (*fetch.Fetcher, error) {
	if s.cfg != nil && s.fetcher == nil {
		s.cfg.Cache.Enabled = true
	}
	return s.Fetcher(ctx)
}

func newCacheClearCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached record and reset rate-limit history",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			f, err := s.storeFetcher(ctx)
			if err != nil {
				return err
			}
			n, err := f.ClearCache(ctx)
			if err != nil {
				return err
			}
			return s.printer(cmd.OutOrStdout()).Success("Cleared %d cache entries from %s", n, f.CacheDir())
		},
	}
}

func newCacheStatsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached entries per category",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := s.storeFetcher(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := f.CacheStats()
			if err != nil {
				return err
			}
			return s.printer(cmd.OutOrStdout()).CacheStats(stats, f.Policy())
		},
	}
}
