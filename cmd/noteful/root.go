// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/config"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/xdg"
)

// Flags and resolved lookups shared by all subcommands.
var (
	configFile string
	envFile    string
	lookupEnv  = os.Getenv
)

// NewRootCmd creates the root command for the noteful CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "noteful",
		Short: "Noteful - registration and token authentication service",
		Long: `Noteful serves user registration, password login and token refresh
over a small JSON API backed by PostgreSQL.`,
		SilenceUsage:      true,
		PersistentPreRunE: resolveSources,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file path (YAML, default $XDG_CONFIG_HOME/noteful/config.yaml if present)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "",
		"dotenv file with DATABASE_URL, JWT_SECRET and friends (default ./.env if present)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCertsCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// resolveSources fills in the default config and dotenv files.
func resolveSources(*cobra.Command, []string) error {
	if configFile == "" {
		path, err := xdg.DefaultConfigFile()
		if err != nil {
			return err
		}
		configFile = path
	}

	var err error
	if envFile != "" {
		lookupEnv, err = config.EnvLookup(envFile, true)
	} else {
		lookupEnv, err = config.EnvLookup(config.DefaultEnvFile, false)
	}
	return err
}
