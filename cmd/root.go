package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/educare/track_backend/cmd/http"
	systemcmd "github.com/educare/track_backend/cmd/system"
	terminalcmd "github.com/educare/track_backend/cmd/terminal"
)

// version is stamped at build time with -ldflags "-X ...cmd.version=".
var version = "dev"

const configEnv = "EDUCARE_CONFIG"

// NewRootCommand assembles the educare command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "educare",
		Short:   "Gate attendance and clinic tracking for one school",
		Version: version,
		Long: `educare serves the staff and parent API, runs the gate terminal agent
and carries the database and key maintenance commands.`,
		SilenceUsage: true,
	}

	defaultCfg := os.Getenv(configEnv)
	if defaultCfg == "" {
		defaultCfg = "config.yaml"
	}
	root.PersistentFlags().String("config", defaultCfg, "config file path (env "+configEnv+")")

	root.AddCommand(
		httpcmd.NewHTTPCommand(),
		terminalcmd.NewTerminalCommand(),
		systemcmd.NewSystemCommand(),
	)
	return root
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
