// Package cli implements the ghtrend command tree with cobra.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/ghtrend/internal/listing"
	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// NewRootCmd creates the root command. Invoked without a subcommand it
// prints the trending listing.
func NewRootCmd(ver string, opts ...Option) *cobra.Command {
	s := newSession(opts...)
	var lf listFlags

	cmd := &cobra.Command{
		Use:           "ghtrend",
		Short:         "Browse, evaluate and clone GitHub trending repositories",
		Long:          "ghtrend lists GitHub trending repositories and inspects them through a local TTL cache.",
		Version:       ver,
		Example:       rootCmdExample,
		Args:          maxArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.loadConfig(); err != nil {
				return err
			}
			s.setupLogging(cmd)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return s.close(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.runList(cmd, lf)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return asUsage(err)
	})

	pf := cmd.PersistentFlags()
	pf.BoolVar(&s.flags.debug, "debug", false, "enable debug logging")
	pf.BoolVar(&s.flags.noCache, "no-cache", false, "bypass the cache for this run")
	pf.BoolVar(&s.flags.noColor, "no-color", false, "disable colored output")
	pf.StringVar(&s.flags.cacheDir, "cache-dir", "", "cache directory (overrides config and GHTREND_CACHE_DIR)")
	pf.StringVar(&s.flags.configPath, "config", "", "config file (default: <user config dir>/ghtrend/config.yaml)")
	pf.StringVarP(&s.flags.since, "since", "s", trending.SinceDaily, "time window: daily, weekly or monthly")
	pf.StringVarP(&s.flags.language, "language", "l", trending.LanguageAll, "language filter, e.g. python or go")

	f := cmd.Flags()
	f.IntVarP(&lf.top, "top", "t", listing.DefaultTop, "number of repositories to show (0 for all)")
	f.IntVar(&lf.minStars, "min-stars", 0, "only show repositories with at least this many stars")
	f.IntVar(&lf.maxStars, "max-stars", 0, "only show repositories with at most this many stars")
	f.StringVar(&lf.search, "search", "", "only show repositories whose name or description contains this text")
	f.StringVar(&lf.sort, "sort", listing.SortNone, "sort by stars or name (default: trending order)")
	f.BoolVar(&lf.reverse, "reverse", false, "reverse the sort order")
	f.BoolVarP(&lf.verbose, "verbose", "v", false, "show repository URLs")
	f.StringVar(&lf.csvPath, "csv", "", "export the listing to a CSV file")
	f.StringVar(&lf.jsonPath, "json", "", "export the listing to a JSON file")
	f.BoolVar(&lf.outputJSON, "output-json", false, "print the listing as JSON")

	cmd.AddCommand(
		newInfoCmd(s), newTreeCmd(s), newReadmeCmd(s), newDepsCmd(s),
		newIssuesCmd(s), newIssueCmd(s), newAnalyzeCmd(s),
		newCloneCmd(s), newClonesCmd(s), newCleanupCmd(s), newExploreCmd(s),
		newCacheCmd(s), newConfigCmd(s), newLanguagesCmd(s),
	)
	return cmd
}

const rootCmdExample = `  # Today's trending repositories
  ghtrend

  # This week's top 20 Rust repositories, sorted by stars
  ghtrend -s weekly -l rust -t 20 --sort stars

  # Inspect the third repository of today's listing
  ghtrend info --rank 3
  ghtrend readme --rank 3 --lines 100

  # Score the top 10 repositories
  ghtrend analyze

  # Clone the first, third, fourth and fifth repositories
  ghtrend clone 1,3-5 --shallow

  # Drop cached data and rate-limit history
  ghtrend cache clear`
