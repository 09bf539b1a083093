package system

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/educare/track_backend/pkg/crypto"
	pasetotoken "github.com/educare/track_backend/pkg/paseto"
)

// NewKeygenCommand prints fresh token and notes keys as config lines. It
// needs no config file.
func NewKeygenCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate PASETO and clinic-notes encryption keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := pasetotoken.GenerateKeyring(pasetotoken.Mode(mode))
			if err != nil {
				return err
			}
			exported := keys.Export()
			names := make([]string, 0, len(exported))
			for k := range exported {
				names = append(names, k)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "authentication:")
			fmt.Fprintf(out, "  encryption_key: %q\n", crypto.GenerateKey())
			fmt.Fprintln(out, "  paseto:")
			fmt.Fprintf(out, "    mode: %q\n", mode)
			for _, k := range names {
				fmt.Fprintf(out, "    %s: %q\n", k, exported[k])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(pasetotoken.ModeLocal), "token mode (local|public)")
	return cmd
}
