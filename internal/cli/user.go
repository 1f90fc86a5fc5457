package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"washsync-backend/internal/model"
)

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCommand(rootOpts))
	return cmd
}

func newUserCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var name, email string
	var branchID int64
	var admin bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user, optionally as an admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.ToLower(strings.TrimSpace(email))
			if name == "" || !strings.Contains(email, "@") {
				return fmt.Errorf("--name and a valid --email are required")
			}

			_, s, closeFn, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer closeFn()

			u := model.User{Name: name, Email: email, IsAdmin: admin}
			if branchID != 0 {
				if _, err := s.GetBranch(cmd.Context(), branchID); err != nil {
					return fmt.Errorf("branch %d: %w", branchID, err)
				}
				u.BranchID = &branchID
			}
			if err := s.CreateUser(cmd.Context(), &u); err != nil {
				return err
			}

			role := "user"
			if u.IsAdmin {
				role = "admin"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %d <%s>\n", role, u.ID, u.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "unique email address")
	cmd.Flags().Int64Var(&branchID, "branch", 0, "branch id to assign")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant admin rights")

	return cmd
}
