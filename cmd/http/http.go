package http

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/internal/api/http"
	"github.com/educare/track_backend/pkg/logs"
)

// NewHTTPCommand groups the API server commands.
func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Staff and parent API server",
	}
	cmd.AddCommand(newStartCommand())
	return cmd
}

func newStartCommand() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return err
			}
			if err := cfg.RequireServer(); err != nil {
				return err
			}

			logger, flush := logs.New(cfg)
			defer flush()
			slog.SetDefault(logger)
			slog.Info("starting api",
				"env", cfg.Server.Environment,
				"port", cfg.Server.Port,
				"timezone", cfg.School.Timezone,
			)

			http.Start(cfg, shutdownTimeout)
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "how long in-flight requests get to finish on shutdown")
	return cmd
}
