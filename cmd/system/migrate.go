package system

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/educare/track_backend/pkg/authorize"
	"github.com/educare/track_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var (
		status   bool
		skipSeed bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed role policies",
		Long: `migrate brings the application schema up to date and then writes the
default role policies into the casbin database. Seeding is idempotent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if status {
				return database.MigrationStatus(ctx, cfg.Database)
			}

			out := cmd.OutOrStdout()
			if err := database.Migrate(ctx, cfg.Database); err != nil {
				return fmt.Errorf("migrate %s: %w", cfg.Database.DBName, err)
			}
			fmt.Fprintf(out, "schema of %q is current\n", cfg.Database.DBName)

			if skipSeed {
				return nil
			}
			auth, cleanup, err := openAuthorization(cfg)
			if err != nil {
				return err
			}
			defer cleanup(context.Background())
			if err := authorize.SeedDefaultPolicies(ctx, auth); err != nil {
				return fmt.Errorf("seed policies: %w", err)
			}
			fmt.Fprintln(out, "role policies seeded")
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "print migration status and exit")
	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "apply migrations without touching role policies")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline")
	return cmd
}
