package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/ghtrend/internal/clones"
	"github.com/rshade/ghtrend/internal/listing"
	"github.com/rshade/ghtrend/internal/tui"
	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// pickIndices runs the interactive picker over items.
func (s *session) pickIndices(cmd *cobra.Command, title string, items []string) ([]int, error) {
	if !s.interactive() {
		return nil, usageError("--interactive needs a terminal")
	}
	if s.pick != nil {
		return s.pick(cmd.Context(), title, items)
	}
	return tui.Pick(cmd.Context(), title, items, cmd.InOrStdin(), cmd.OutOrStdout())
}

func newCloneCmd(s *session) *cobra.Command {
	var (
		dir         string
		shallow     bool
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "clone [RANKS...]",
		Short: "Clone trending repositories by rank",
		Example: `  ghtrend clone 1
  ghtrend clone 1,3-5 --dir ~/src/trending --shallow
  ghtrend clone --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if interactive == (len(args) > 0) {
				return usageError("give ranks or --interactive")
			}
			res, err := s.trendingListing(ctx)
			if err != nil {
				return err
			}
			staleNotice(s, cmd, "trending listing", res)

			chosen, err := s.chooseRepos(cmd, res.Value.Repos, args, interactive)
			if err != nil || len(chosen) == 0 {
				return err
			}
			if !cmd.Flags().Changed("shallow") {
				shallow = s.config().Clones.Shallow
			}
			mgr := s.Clones(dir, s.confirmFunc(cmd.OutOrStdout(), cmd.InOrStdin()))
			return cloneAll(ctx, s.printer(cmd.OutOrStdout()), mgr, chosen, shallow)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to clone into (default: clones.dir or the current directory)")
	cmd.Flags().BoolVar(&shallow, "shallow", false, "clone only the latest commit")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick repositories from a list")
	return cmd
}

// chooseRepos resolves rank arguments or runs the picker.
func (s *session) chooseRepos(cmd *cobra.Command, repos []trending.Repo, args []string, interactive bool) ([]trending.Repo, error) {
	if !interactive {
		ranks, err := listing.ParseRanks(args...)
		if err != nil {
			return nil, asUsage(err)
		}
		chosen, err := listing.PickAll(repos, ranks)
		return chosen, asUsage(err)
	}

	items := make([]string, len(repos))
	for i, r := range repos {
		items[i] = fmt.Sprintf("%-40s %s %d", r.FullName(), tui.IconStar, r.Stars)
	}
	idx, err := s.pickIndices(cmd, "Select repositories to clone", items)
	if errors.Is(err, tui.ErrPickCancelled) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	chosen := make([]trending.Repo, 0, len(idx))
	for _, i := range idx {
		chosen = append(chosen, repos[i])
	}
	return chosen, nil
}

// cloneAll clones each repo, reporting per repository. Declined overwrites
// are skipped; other failures are collected and returned together.
func cloneAll(ctx context.Context, p *tui.Printer, mgr *clones.Manager, repos []trending.Repo, shallow bool) error {
	var errs []error
	for _, r := range repos {
		path, err := mgr.Clone(ctx, r, shallow)
		switch {
		case errors.Is(err, clones.ErrDeclined):
			_ = p.Warn("Skipped %s", r.FullName())
		case err != nil:
			_ = p.Fail("Failed to clone %s: %v", r.FullName(), err)
			errs = append(errs, fmt.Errorf("%s: %w", r.FullName(), err))
		default:
			_ = p.Success("Cloned %s into %s", r.FullName(), path)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return errors.Join(errs...)
}

func newClonesCmd(s *session) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "clones",
		Short: "List cloned repositories",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr := s.Clones(dir, nil)
			list, err := mgr.List(cmd.Context())
			if err != nil {
				return err
			}
			return s.printer(cmd.OutOrStdout()).Clones(mgr.Dir(), list)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "clone directory")
	return cmd
}

func newCleanupCmd(s *session) *cobra.Command {
	var (
		dir         string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "cleanup [NAMES...]",
		Short: "Remove cloned repositories",
		Long: `Removes the named checkouts from the clone directory. Without names every
checkout is removed after confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if interactive && len(args) > 0 {
				return usageError("give names or --interactive, not both")
			}
			confirm := s.confirmFunc(cmd.OutOrStdout(), cmd.InOrStdin())
			mgr := s.Clones(dir, confirm)
			p := s.printer(cmd.OutOrStdout())

			names := args
			if len(names) == 0 {
				list, err := mgr.List(ctx)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					return p.Clones(mgr.Dir(), nil)
				}
				names, err = s.cleanupSelection(cmd, mgr, list, interactive, confirm)
				if err != nil || len(names) == 0 {
					return err
				}
			}

			var errs []error
			for _, name := range names {
				path, err := mgr.Remove(ctx, name)
				if err != nil {
					_ = p.Fail("Cannot remove %s: %v", name, err)
					errs = append(errs, err)
					continue
				}
				_ = p.Success("Removed %s", path)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "clone directory")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick checkouts from a list")
	return cmd
}

// cleanupSelection picks checkouts interactively, or confirms removing all.
func (s *session) cleanupSelection(
	cmd *cobra.Command, mgr *clones.Manager, list []clones.Checkout, interactive bool, confirm func(string) bool,
) ([]string, error) {
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.Name
	}
	if !interactive {
		if !confirm(fmt.Sprintf("Remove all %d repositories in %s?", len(list), mgr.Dir())) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Nothing removed.")
			return nil, nil
		}
		return names, nil
	}

	items := make([]string, len(list))
	for i, c := range list {
		items[i] = fmt.Sprintf("%-30s %s", c.Name, c.Slug())
	}
	idx, err := s.pickIndices(cmd, "Select repositories to remove", items)
	if errors.Is(err, tui.ErrPickCancelled) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, names[i])
	}
	return out, nil
}

func newExploreCmd(s *session) *cobra.Command {
	var (
		dir         string
		editor      string
		autoCleanup bool
		showReadme  bool
	)
	cmd := &cobra.Command{
		Use:   "explore RANK",
		Short: "Shallow-clone a trending repository and open it in an editor",
		Example: `  ghtrend explore 1
  ghtrend explore 2 --editor vim --auto-cleanup --show-readme`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ranks, err := listing.ParseRanks(args[0])
			if err != nil {
				return asUsage(err)
			}
			if len(ranks) != 1 {
				return usageError("explore takes a single rank")
			}
			repo, err := s.repoAtRank(ctx, ranks[0])
			if err != nil {
				return err
			}
			if editor == "" {
				editor = s.config().Clones.Editor
			}

			p := s.printer(cmd.OutOrStdout())
			mgr := s.Clones(dir, s.confirmFunc(cmd.OutOrStdout(), cmd.InOrStdin()))
			opts := clones.ExploreOptions{Editor: editor, Shallow: true, AutoCleanup: autoCleanup}
			if showReadme {
				opts.OnCloned = func(path string) {
					if name, content, ok := clones.LocalReadme(path); ok {
						_ = p.Readme(name, content, clones.LocalReadmeLines)
					}
				}
			}

			path, err := mgr.Explore(ctx, repo, opts)
			if errors.Is(err, clones.ErrDeclined) {
				return p.Warn("Skipped %s", repo.FullName())
			}
			if err != nil {
				return err
			}
			if autoCleanup {
				return p.Success("Explored %s; removed %s", repo.FullName(), path)
			}
			return p.Success("Opened %s in %s", path, editor)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "clone directory")
	cmd.Flags().StringVar(&editor, "editor", "", "editor command (default: clones.editor, usually code)")
	cmd.Flags().BoolVar(&autoCleanup, "auto-cleanup", false, "wait for the editor to exit, then delete the checkout")
	cmd.Flags().BoolVar(&showReadme, "show-readme", false, "print the README before opening the editor")
	return cmd
}
