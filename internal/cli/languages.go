package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/ghtrend/internal/upstream/trending"
)

func newLanguagesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List language filters for --language",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.printer(cmd.OutOrStdout()).Languages(trending.Languages)
		},
	}
}
