// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/config"
)

const statusTimeout = 2 * time.Second

// ProbeStatus is the result of one health probe.
type ProbeStatus struct {
	Probe  string `json:"probe"`
	OK     bool   `json:"ok"`
	Status int    `json:"status,omitempty"`
	Body   string `json:"body,omitempty"`
	Error  string `json:"error,omitempty"`
}

type statusConfig struct {
	metricsAddr string
	jsonOutput  bool
}

func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show liveness and readiness of a running server",
		Long: `Query the observability listener of a running noteful serve process.
Exits non-zero when the server is not ready.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "observability listen address of the server")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	client := &http.Client{Timeout: statusTimeout}
	base := "http://" + cfg.metricsAddr

	statuses := []ProbeStatus{
		queryProbe(cmd.Context(), client, base, "liveness"),
		queryProbe(cmd.Context(), client, base, "readiness"),
	}

	if cfg.jsonOutput {
		out, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return oops.Wrap(err)
		}
		cmd.Println(string(out))
	} else {
		cmd.Print(formatStatusTable(statuses))
	}

	for _, s := range statuses {
		if !s.OK {
			return oops.Code("SERVER_NOT_READY").
				With("addr", cfg.metricsAddr).
				With("probe", s.Probe).
				Errorf("%s probe failed", s.Probe)
		}
	}
	return nil
}

func queryProbe(ctx context.Context, client *http.Client, base, probe string) ProbeStatus {
	status := ProbeStatus{Probe: probe}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/healthz/"+probe, http.NoBody)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	resp, err := client.Do(req)
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024)) //nolint:errcheck // body is informational
	status.Status = resp.StatusCode
	status.Body = strings.TrimSpace(string(body))
	status.OK = resp.StatusCode == http.StatusOK
	return status
}

func formatStatusTable(statuses []ProbeStatus) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROBE\tOK\tSTATUS\tDETAIL")
	for _, s := range statuses {
		detail := s.Body
		if s.Error != "" {
			detail = s.Error
		}
		code := "-"
		if s.Status != 0 {
			code = fmt.Sprint(s.Status)
		}
		_, _ = fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", s.Probe, s.OK, code, detail)
	}
	_ = w.Flush()
	return b.String()
}
