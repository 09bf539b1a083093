package terminal

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/internal/terminal"
)

func NewTerminalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terminal",
		Short: "Gate terminal agent commands",
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewFlushCommand())

	return cmd
}

type parts struct {
	cfg     config.TerminalConfig
	client  *terminal.Client
	queue   *terminal.Queue
	scanner *terminal.Scanner
}

func setup(cmd *cobra.Command) (*config.Config, *parts, error) {
	cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config: %w", err)
	}
	t := cfg.Terminal
	if t.ServerURL == "" || t.Email == "" {
		return nil, nil, fmt.Errorf("terminal.server_url and terminal.email must be set")
	}

	queue, err := terminal.OpenQueue(t.QueuePath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, &parts{
		cfg:    t,
		client: terminal.NewClient(t.ServerURL, t.Email, t.Password, seconds(t.RequestTimeoutSec)),
		queue:  queue,
		scanner: terminal.NewScanner(
			millis(t.CooldownSuccessMs),
			millis(t.CooldownErrorMs),
			0,
		),
	}, nil
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
func millis(n int) time.Duration  { return time.Duration(n) * time.Millisecond }
