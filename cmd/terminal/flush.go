package terminal

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/educare/track_backend/internal/terminal"
)

func NewFlushCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Upload buffered offline scans once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := setup(cmd)
			if err != nil {
				return err
			}
			if p.queue.Len() == 0 {
				fmt.Println("No buffered scans.")
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			agent := terminal.NewAgent(p.client, p.queue, p.scanner, 0)
			results, err := agent.Flush(ctx)

			failed := 0
			for _, r := range results {
				if !r.OK {
					failed++
					fmt.Printf("  %s: %s\n", r.ID, r.Error)
				}
			}
			fmt.Printf("Synced %d scans, %d rejected, %d still buffered.\n", len(results)-failed, failed, p.queue.Len())
			if err != nil {
				return fmt.Errorf("flush stopped: %w", err)
			}
			return nil
		},
	}

	return cmd
}
