// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/tls"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/xdg"
)

// NewCertsCmd creates the certs command, which issues a development
// certificate for serving HTTPS.
func NewCertsCmd() *cobra.Command {
	var (
		dir   string
		hosts []string
	)

	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Generate a development TLS certificate for the API",
		Long: `Create (or reuse) a local root CA and issue a server certificate for
the given hosts. Pass the printed paths to serve with --tls-cert and --tls-key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				d, err := xdg.CertsDir()
				if err != nil {
					return err
				}
				dir = d
			}
			if err := xdg.EnsureDir(dir); err != nil {
				return err
			}

			certFile, keyFile, err := tls.EnsureServerCertificates(dir, hosts)
			if err != nil {
				return err
			}
			cmd.Println("Certificate:", certFile)
			cmd.Println("Key:        ", keyFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default $XDG_CONFIG_HOME/noteful/certs)")
	cmd.Flags().StringSliceVar(&hosts, "host", nil, "DNS name or IP to include (repeatable, default localhost,127.0.0.1)")
	return cmd
}
