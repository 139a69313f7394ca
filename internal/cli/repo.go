package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rshade/ghtrend/internal/clones"
	"github.com/rshade/ghtrend/internal/fetch"
	"github.com/rshade/ghtrend/internal/listing"
	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// repoFlags select the target repository and the output form shared by the
// evaluation commands.
type repoFlags struct {
	rank int
	raw  bool
}

func addRepoFlags(cmd *cobra.Command, rf *repoFlags) {
	cmd.Flags().IntVarP(&rf.rank, "rank", "r", 0, "use the repository at this rank of the trending listing")
	cmd.Flags().BoolVar(&rf.raw, "raw", false, "print the result as JSON")
}

// repoAtRank resolves a 1-based rank against the current trending listing.
func (s *session) repoAtRank(ctx context.Context, rank int) (trending.Repo, error) {
	res, err := s.trendingListing(ctx)
	if err != nil {
		return trending.Repo{}, err
	}
	repo, err := listing.Pick(res.Value.Repos, rank)
	if err != nil {
		return trending.Repo{}, asUsage(err)
	}
	return repo, nil
}

// resolveRepo returns "owner/name" from either the positional argument or
// --rank, never both.
func (s *session) resolveRepo(ctx context.Context, args []string, rank int) (string, error) {
	switch {
	case len(args) > 0 && rank > 0:
		return "", usageError("give either OWNER/REPO or --rank, not both")
	case len(args) > 0:
		repo, err := fetch.NormalizeRepo(args[0])
		if err != nil {
			return "", asUsage(err)
		}
		return repo, nil
	case rank > 0:
		repo, err := s.repoAtRank(ctx, rank)
		if err != nil {
			return "", err
		}
		return repo.FullName(), nil
	case rank < 0:
		return "", usageError("--rank must be positive")
	}
	return "", usageError("specify OWNER/REPO or --rank N")
}

func newInfoCmd(s *session) *cobra.Command {
	var rf repoFlags
	cmd := &cobra.Command{
		Use:   "info [OWNER/REPO]",
		Short: "Show repository metadata",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := s.resolveRepo(ctx, args, rf.rank)
			if err != nil {
				return err
			}
			f, err := s.Fetcher(ctx)
			if err != nil {
				return err
			}
			res, err := f.RepoInfo(ctx, repo)
			if err != nil {
				return err
			}
			staleNotice(s, cmd, "repository info", res)
			if rf.raw {
				return writeJSON(cmd.OutOrStdout(), res.Value)
			}
			return s.printer(cmd.OutOrStdout()).RepoInfo(res.Value)
		},
	}
	addRepoFlags(cmd, &rf)
	return cmd
}

func newTreeCmd(s *session) *cobra.Command {
	var (
		rf    repoFlags
		depth int
	)
	cmd := &cobra.Command{
		Use:   "tree [OWNER/REPO]",
		Short: "Show the repository file tree",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth < 1 {
				return usageError("--depth must be at least 1")
			}
			ctx := cmd.Context()
			repo, err := s.resolveRepo(ctx, args, rf.rank)
			if err != nil {
				return err
			}
			f, err := s.Fetcher(ctx)
			if err != nil {
				return err
			}
			res, err := f.Tree(ctx, repo, depth)
			if err != nil {
				return err
			}
			staleNotice(s, cmd, "file tree", res)
			if rf.raw {
				return writeJSON(cmd.OutOrStdout(), res.Value)
			}
			return s.printer(cmd.OutOrStdout()).Tree(res.Value)
		},
	}
	addRepoFlags(cmd, &rf)
	cmd.Flags().IntVarP(&depth, "depth", "d", fetch.DefaultTreeDepth, "number of directory levels to show")
	return cmd
}

func newReadmeCmd(s *session) *cobra.Command {
	var (
		rf    repoFlags
		lines int
	)
	cmd := &cobra.Command{
		Use:   "readme [OWNER/REPO]",
		Short: "Show the repository README",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if lines < 0 {
				return usageError("--lines cannot be negative")
			}
			ctx := cmd.Context()
			repo, err := s.resolveRepo(ctx, args, rf.rank)
			if err != nil {
				return err
			}
			f, err := s.Fetcher(ctx)
			if err != nil {
				return err
			}
			res, err := f.Readme(ctx, repo)
			if err != nil {
				return err
			}
			staleNotice(s, cmd, "README", res)
			if rf.raw {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"repo": repo, "readme": res.Value})
			}
			return s.printer(cmd.OutOrStdout()).Readme("README: "+repo, res.Value, lines)
		},
	}
	addRepoFlags(cmd, &rf)
	cmd.Flags().IntVarP(&lines, "lines", "n", clones.LocalReadmeLines, "number of lines to show (0 for all)")
	return cmd
}

func newDepsCmd(s *session) *cobra.Command {
	var rf repoFlags
	cmd := &cobra.Command{
		Use:   "deps [OWNER/REPO]",
		Short: "Show dependency manifests such as go.mod or package.json",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := s.resolveRepo(ctx, args, rf.rank)
			if err != nil {
				return err
			}
			f, err := s.Fetcher(ctx)
			if err != nil {
				return err
			}
			res, err := f.Deps(ctx, repo)
			if err != nil {
				return err
			}
			staleNotice(s, cmd, "dependency files", res)
			if rf.raw {
				return writeJSON(cmd.OutOrStdout(), res.Value)
			}
			return s.printer(cmd.OutOrStdout()).Deps(repo, res.Value)
		},
	}
	addRepoFlags(cmd, &rf)
	return cmd
}

func newIssuesCmd(s *session) *cobra.Command {
	var (
		rf    repoFlags
		limit int
	)
	cmd := &cobra.Command{
		Use:   "issues [OWNER/REPO]",
		Short: "List open issues",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return usageError("--limit must be at least 1")
			}
			ctx := cmd.Context()
			repo, err := s.resolveRepo(ctx, args, rf.rank)
			if err != nil {
				return err
			}
			f, err := s.Fetcher(ctx)
			if err != nil {
				return err
			}
			res, err := f.Issues(ctx, repo, limit)
			if err != nil {
				return err
			}
			staleNotice(s, cmd, "issues", res)
			if rf.raw {
				return writeJSON(cmd.OutOrStdout(), res.Value)
			}
			return s.printer(cmd.OutOrStdout()).Issues(repo, res.Value)
		},
	}
	addRepoFlags(cmd, &rf)
	cmd.Flags().IntVar(&limit, "limit", fetch.DefaultIssuesLimit, "maximum number of issues")
	return cmd
}

func newIssueCmd(s *session) *cobra.Command {
	var rf repoFlags
	cmd := &cobra.Command{
		Use:   "issue [OWNER/REPO] NUMBER",
		Short: "Show one issue or pull request with its comments",
		Example: `  ghtrend issue cli/cli 1234
  ghtrend issue --rank 2 17`,
		Args: func(cmd *cobra.Command, args []string) error {
			return asUsage(cobra.RangeArgs(1, 2)(cmd, args))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			number, err := strconv.Atoi(args[len(args)-1])
			if err != nil || number < 1 {
				return usageError("invalid issue number %q", args[len(args)-1])
			}
			repo, err := s.resolveRepo(ctx, args[:len(args)-1], rf.rank)
			if err != nil {
				return err
			}
			f, err := s.Fetcher(ctx)
			if err != nil {
				return err
			}
			res, err := f.Issue(ctx, repo, number)
			if err != nil {
				return err
			}
			staleNotice(s, cmd, "issue", res)
			if rf.raw {
				return writeJSON(cmd.OutOrStdout(), res.Value)
			}
			return s.printer(cmd.OutOrStdout()).Issue(repo, res.Value)
		},
	}
	addRepoFlags(cmd, &rf)
	return cmd
}
