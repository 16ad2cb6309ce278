package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/kratu/internal/config"
	"github.com/ZanzyTHEbar/kratu/internal/security"
)

func newAdminTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Issue a bearer token for the server's /admin routes",
		Long: `Sign a bearer token for the /admin routes with admin.secret, read from the
config file or KRATU_ADMIN_SECRET. The server must run with the same secret.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := security.IssueAdminToken(cfg.Admin.Secret, ttl)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), token)
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
