package terminal

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/educare/track_backend/internal/terminal"
	"github.com/educare/track_backend/pkg/logs"
)

// NewRunCommand reads scanned codes from stdin, one per line. USB QR
// readers in keyboard mode produce exactly that.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the gate agent reading codes from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, err := setup(cmd)
			if err != nil {
				return err
			}
			logger, flush := logs.New(cfg)
			defer flush()
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			agent := terminal.NewAgent(p.client, p.queue, p.scanner, seconds(p.cfg.ReconnectIntervalSeconds))
			slog.Info("terminal: started", "server", p.cfg.ServerURL, "buffered", p.queue.Len())
			if err := agent.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	return cmd
}
