package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"washsync-backend/internal/auth"
)

// NewTokenCommand creates the token command group.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint bearer tokens",
	}
	cmd.AddCommand(newTokenIssueCommand(rootOpts))
	return cmd
}

func newTokenIssueCommand(rootOpts *RootOptions) *cobra.Command {
	var userID int64
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, closeFn, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer closeFn()

			u, err := s.GetUser(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("user %d: %w", userID, err)
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			token, err := auth.IssueToken(cfg.Auth.JWTSecret, u.ID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl_hours)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
