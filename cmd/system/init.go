package system

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/educare/track_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create any missing application, casbin or extra databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			created, err := database.EnsureDatabases(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("ensure databases: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, name := range created {
				fmt.Fprintf(out, "created %s\n", name)
			}
			if len(created) == 0 {
				fmt.Fprintln(out, "nothing to create")
			}
			return nil
		},
	}
}
