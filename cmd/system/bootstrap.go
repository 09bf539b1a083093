package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/audit"
	"github.com/educare/track_backend/pkg/authorize"
	"github.com/educare/track_backend/pkg/database"
	"github.com/educare/track_backend/pkg/util/password"
)

// NewBootstrapAdminCommand creates the first admin account. Later accounts
// are created through the API by an admin.
func NewBootstrapAdminCommand() *cobra.Command {
	var email, pass, name string

	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create the first admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			generated := pass == ""
			if generated {
				pass = password.Generate(20)
			}
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			hasher := password.NewHasher(password.FromCentralConfig(cfg.Password))
			hash, err := hasher.Hash(pass)
			if err != nil {
				return err
			}

			pool, err := database.NewPool(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()
			store := repo.New(pool)

			auth, cleanup, err := openAuthorization(cfg)
			if err != nil {
				return err
			}
			defer cleanup(context.Background())

			var id uuid.UUID
			err = store.InTx(ctx, func(q *repo.Queries) error {
				p, err := q.CreateProfile(ctx, repo.NewProfile{
					Email:        email,
					PasswordHash: hash,
					Role:         repo.RoleAdmin,
					FullName:     name,
				})
				if err != nil {
					return err
				}
				id = p.ID
				if err := q.InsertAudit(ctx, audit.Entry(uuid.Nil, audit.ActionUserCreated, "profiles", p.ID,
					map[string]any{"role": repo.RoleAdmin, "source": "bootstrap"})); err != nil {
					return err
				}
				return authorize.AssignProfileRole(ctx, auth, p.ID.String(), repo.RoleAdmin)
			})
			if errors.Is(err, repo.ErrUniqueViolation) {
				return fmt.Errorf("an account with email %q already exists", email)
			}
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "admin %s created (%s)\n", email, id)
			if generated {
				fmt.Fprintf(out, "generated password: %s\n", pass)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&pass, "password", "", "admin password, generated and printed when empty")
	cmd.Flags().StringVar(&name, "name", "School Administrator", "Admin full name")

	return cmd
}
