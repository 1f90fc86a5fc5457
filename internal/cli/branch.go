package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"washsync-backend/internal/model"
	"washsync-backend/internal/parse"
)

// NewBranchCommand creates the branch command group.
func NewBranchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Manage branches",
	}
	cmd.AddCommand(newBranchCreateCommand(rootOpts))
	return cmd
}

func newBranchCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var name, location, code string
	var inactive bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := parse.BranchCode(code)
			if err != nil {
				return fmt.Errorf("invalid branch code: %w", err)
			}
			if name == "" || location == "" {
				return fmt.Errorf("--name and --location are required")
			}

			_, s, closeFn, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer closeFn()

			b := model.Branch{Name: name, Location: location, Code: normalized, IsActive: !inactive}
			if err := s.CreateBranch(cmd.Context(), &b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created branch %d %s (%s)\n", b.ID, b.Code, b.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "branch name")
	cmd.Flags().StringVar(&location, "location", "", "branch location")
	cmd.Flags().StringVar(&code, "code", "", "short branch code, e.g. NB")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the branch hidden from the public list")

	return cmd
}
