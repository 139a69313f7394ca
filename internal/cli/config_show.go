package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/ghtrend/internal/config"
)

func newConfigShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Prints the configuration after defaults, the config file, environment
variables and flags are merged. The GitHub token is never printed.`,
		Args: maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := s.config()
			out := cmd.OutOrStdout()

			source := "built-in defaults (no config file)"
			if cfg.Path != "" {
				source = cfg.Path
			}
			fmt.Fprintf(out, "# source: %s\n", source)
			fmt.Fprintf(out, "# cache directory: %s\n", s.cacheDir())
			if cfg.GitHub.Token != "" {
				fmt.Fprintln(out, "# github token: set")
			}
			if len(cfg.Unknown) > 0 {
				_ = s.printer(cmd.ErrOrStderr()).Warn("ignoring unknown config keys: %s", strings.Join(cfg.Unknown, ", "))
			}

			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigPathCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file, cache and clone locations",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := s.flags.configPath
			if path == "" {
				path = config.FilePath()
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config: %s\n", path)
			fmt.Fprintf(out, "cache:  %s\n", s.cacheDir())
			fmt.Fprintf(out, "clones: %s\n", config.ResolveCloneDir("", s.config()))
			return nil
		},
	}
}
