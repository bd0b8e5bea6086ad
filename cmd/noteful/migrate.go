// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package main

import (
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/config"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/store"
)

// schemaMigrator is the part of *store.Migrator the migrate commands use.
type schemaMigrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// newMigrator is replaced in tests.
var newMigrator = func(databaseURL string) (schemaMigrator, error) {
	return store.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate command and its subcommands.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply or inspect the embedded schema migrations. The database URL comes
from --config, DATABASE_URL or --database-url.`,
	}
	cmd.PersistentFlags().String("database-url", config.DefaultDatabaseURL, "PostgreSQL connection URL")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, _ []string, m schemaMigrator) error {
			pending, err := m.PendingMigrations()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				cmd.Println("Schema is up to date")
				return nil
			}
			cmd.Printf("Applying %d migration(s)...\n", len(pending))
			if err := m.Up(); err != nil {
				return err
			}
			return printVersion(cmd, m)
		}),
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (drops all users)",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, _ []string, m schemaMigrator) error {
			yes, err := cmd.Flags().GetBool("yes")
			if err != nil {
				return oops.Wrap(err)
			}
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops all data; rerun with --yes")
			}
			if err := m.Down(); err != nil {
				return err
			}
			return printVersion(cmd, m)
		}),
	}
	down.Flags().Bool("yes", false, "confirm the rollback")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, _ []string, m schemaMigrator) error {
			return printVersion(cmd, m)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Record VERSION as applied without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(cmd *cobra.Command, args []string, m schemaMigrator) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			if err := m.Force(v); err != nil {
				return err
			}
			return printVersion(cmd, m)
		}),
	})

	return cmd
}

// withMigrator resolves the database URL, opens a migrator for the duration
// of fn and closes it afterwards.
func withMigrator(fn func(cmd *cobra.Command, args []string, m schemaMigrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		url, err := databaseURL(configFile, cmd.Flags())
		if err != nil {
			return err
		}

		m, err := newMigrator(url)
		if err != nil {
			return oops.With("operation", "open migrator").Wrap(err)
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil {
				cmd.PrintErrln("warning: closing migrator:", closeErr)
			}
		}()

		return fn(cmd, args, m)
	}
}

func databaseURL(path string, fs *pflag.FlagSet) (string, error) {
	cfg, err := config.Load(path, fs, lookupEnv)
	if err != nil {
		return "", err
	}
	if cfg.Database.URL == "" {
		return "", oops.Code("CONFIG_INVALID").With("key", "database.url").Errorf("database url is required")
	}
	return cfg.Database.URL, nil
}

func printVersion(cmd *cobra.Command, m schemaMigrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}

	name, err := store.MigrationName(version)
	if err != nil {
		return err
	}
	switch {
	case version == 0:
		cmd.Println("Schema version: 0 (empty)")
	case name != "":
		cmd.Printf("Schema version: %d (%s)\n", version, name)
	default:
		cmd.Printf("Schema version: %d\n", version)
	}
	if dirty {
		cmd.Println("WARNING: schema is dirty; fix the database and run 'noteful migrate force VERSION'")
	}
	return nil
}

func parseForceVersion(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be an integer, got %q", s)
	}
	if v < 0 {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be non-negative, got %d", v)
	}
	return v, nil
}
