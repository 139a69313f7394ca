package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/rshade/ghtrend/internal/config"
)

// newConfigCmd creates the config command group.
func newConfigCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(newConfigInitCmd(s), newConfigShowCmd(s), newConfigPathCmd(s))
	return cmd
}

// newConfigInitCmd writes a commented default configuration file.
func newConfigInitCmd(s *session) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a configuration file with every setting at its default value and a
comment describing it. The file is written to --config, $GHTREND_CONFIG, or
<user config dir>/ghtrend/config.yaml.`,
		Example: `  # Create the configuration file
  ghtrend config init

  # Replace an existing file
  ghtrend config init --force`,
		Args: maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := s.flags.configPath
			if path == "" {
				path = config.FilePath()
			}
			if path == "" {
				return errors.New("cannot determine the user config directory; pass --config")
			}

			if err := config.WriteDefault(path, force); err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return usageError("configuration file %s already exists, use --force to overwrite", path)
				}
				return err
			}
			return s.printer(cmd.OutOrStdout()).Success("Configuration initialized at %s", path)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	return cmd
}
