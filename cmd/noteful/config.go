// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and check configuration files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for configuration files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(schema))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [FILE]",
		Short: "Check a configuration file against the schema",
		Long: `Check FILE, or the --config file when FILE is omitted, against the
configuration schema. The file alone must not name unknown keys or values.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return oops.Code("CONFIG_FILE_REQUIRED").Errorf("no config file given and none found")
			}

			data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
			if err != nil {
				return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
			}
			if err := config.ValidateDocument(data); err != nil {
				return oops.With("path", path).Wrap(err)
			}
			cmd.Printf("%s: valid\n", path)
			return nil
		},
	})

	return cmd
}
