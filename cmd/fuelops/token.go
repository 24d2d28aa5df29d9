package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	handler "github.com/neomorfeo/fuelops/internal/adapter/http"
	"github.com/neomorfeo/fuelops/internal/adapter/sqlite"
	"github.com/neomorfeo/fuelops/internal/app"
)

func newTokenCmd(opts *options) *cobra.Command {
	var (
		tenantSlug string
		email      string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			auth, err := handler.NewAuthenticator(cfg.JWTSecret)
			if err != nil {
				return err
			}

			db, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			tenants := app.NewTenantService(db)
			tenant, err := tenants.Resolve(cmd.Context(), tenantSlug)
			if err != nil {
				return fmt.Errorf("tenant %q: %w", tenantSlug, err)
			}
			user, err := tenants.UserByEmail(cmd.Context(), tenant.Scope(), email)
			if err != nil {
				return err
			}

			token, err := auth.IssueToken(user, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantSlug, "tenant", "", "tenant slug")
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
