package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/ghtrend/internal/analyzer"
	"github.com/rshade/ghtrend/internal/batch"
	"github.com/rshade/ghtrend/internal/listing"
	"github.com/rshade/ghtrend/internal/logging"
	"github.com/rshade/ghtrend/internal/upstream/trending"
)

func newAnalyzeCmd(s *session) *cobra.Command {
	var (
		rank        int
		top         int
		concurrency int
		raw         bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score the health of trending repositories",
		Long: `Scores repositories on recent activity, documentation, issue and pull request
handling, license, open issues, stars and archive status, and grades them A to F.

Without --rank the top repositories are analyzed in parallel and summarized in
a table. With --rank the full breakdown for one repository is shown.
Set GITHUB_TOKEN to raise GitHub's API rate limit.`,
		Args: maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if rank < 0 {
				return usageError("--rank must be positive")
			}
			if rank > 0 {
				return s.analyzeOne(cmd, rank, raw)
			}
			if top < 1 {
				return usageError("--top must be at least 1")
			}

			res, err := s.trendingListing(ctx)
			if err != nil {
				return err
			}
			staleNotice(s, cmd, "trending listing", res)
			repos := listing.Apply(res.Value.Repos, listing.Options{Top: top})

			reports, err := s.analyzeAll(ctx, cmd, repos, concurrency)
			if err != nil {
				return err
			}
			if raw {
				return writeJSON(cmd.OutOrStdout(), reports)
			}
			return s.printer(cmd.OutOrStdout()).AnalysisTable(reports)
		},
	}
	cmd.Flags().IntVarP(&rank, "rank", "r", 0, "show the detailed breakdown for the repository at this rank")
	cmd.Flags().IntVarP(&top, "top", "t", listing.DefaultTop, "number of repositories to analyze")
	cmd.Flags().IntVar(&concurrency, "concurrency", batch.DefaultConcurrency, "repositories analyzed in parallel")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the reports as JSON")
	return cmd
}

func (s *session) analyzeOne(cmd *cobra.Command, rank int, raw bool) error {
	ctx := cmd.Context()
	repo, err := s.repoAtRank(ctx, rank)
	if err != nil {
		return err
	}
	f, err := s.Fetcher(ctx)
	if err != nil {
		return err
	}
	res, err := f.Health(ctx, repo.FullName())
	if err != nil {
		return err
	}
	staleNotice(s, cmd, "health report", res)
	if raw {
		return writeJSON(cmd.OutOrStdout(), res.Value)
	}
	return s.printer(cmd.OutOrStdout()).AnalysisDetail(res.Value)
}

// analyzeAll scores repos with bounded concurrency. A repository that cannot
// be analyzed becomes a failed report; the command fails only when none
// could be analyzed.
func (s *session) analyzeAll(
	ctx context.Context, cmd *cobra.Command, repos []trending.Repo, concurrency int,
) ([]analyzer.Report, error) {
	f, err := s.Fetcher(ctx)
	if err != nil {
		return nil, err
	}
	proc, err := batch.NewProcessor[trending.Repo, analyzer.Report](concurrency)
	if err != nil {
		return nil, asUsage(err)
	}
	if s.interactive() {
		errOut := cmd.ErrOrStderr()
		proc = proc.WithProgressCallback(func(p batch.ProgressSnapshot) {
			fmt.Fprintf(errOut, "\rAnalyzing %d/%d...", p.ProcessedItems, p.TotalItems)
			if p.IsComplete() {
				fmt.Fprint(errOut, "\r\033[K")
			}
		})
	}

	outcomes, err := proc.Run(ctx, repos, func(ctx context.Context, r trending.Repo) (analyzer.Report, error) {
		res, err := f.Health(ctx, r.FullName())
		if err != nil {
			return analyzer.Report{}, err
		}
		return res.Value, nil
	})
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx)
	reports := make([]analyzer.Report, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			log.Warn().
				Ctx(ctx).
				Str("operation", "analyze").
				Str("repo", repos[o.Index].FullName()).
				Err(o.Err).
				Msg("analysis failed")
			reports = append(reports, analyzer.Report{Repo: repos[o.Index].FullName(), Error: Message(o.Err)})
			continue
		}
		reports = append(reports, o.Value)
	}
	if failed > 0 && failed == len(outcomes) {
		return nil, batch.Errors(outcomes)
	}
	analyzer.SortReports(reports)
	return reports, nil
}
