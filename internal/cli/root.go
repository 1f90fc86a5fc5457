// Package cli implements laundryctl, the operator tool for seeding branches
// and users, minting tokens and running a one-off expiry sweep.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"washsync-backend/config"
	"washsync-backend/internal/db"
	"washsync-backend/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for laundryctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "laundryctl",
		Short:         "Operator tool for the laundry booking backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "./config/config.yaml"
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", defaultConfig, "path to the YAML config file")

	cmd.AddCommand(NewBranchCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))

	return cmd
}

// open loads the config and connects to its database.
func (o *RootOptions) open() (*config.Config, store.Store, func(), error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration from %s: %w", o.ConfigPath, err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	closeFn := func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return cfg, store.NewGormStore(gormDB), closeFn, nil
}
