// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package main

import (
	"context"
	stdtls "crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/auth"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/auth/memory"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/auth/postgres"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/config"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/httpapi"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/logging"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/observability"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/store"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/tls"
)

const (
	shutdownTimeout  = 10 * time.Second
	readinessTimeout = 2 * time.Second
)

// ServeDeps contains injectable dependencies for the serve command.
// Nil fields use their defaults.
type ServeDeps struct {
	// LogWriter receives log output. Default: os.Stderr.
	LogWriter io.Writer

	// OnListening is called with the bound API address once it accepts
	// connections.
	OnListening func(addr string)
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the registration and authentication API. Configuration comes
from --config, then DATABASE_URL, JWT_SECRET and JWT_EXPIRY, then flags.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags(), lookupEnv)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServe runs the API until ctx is cancelled or a server fails.
func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}

	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate configuration").Wrap(err)
	}

	logger := logging.Setup(logging.ServiceName, version, cfg.Log.Format, deps.LogWriter)
	slog.SetDefault(logger)

	if cfg.Store == config.StorePostgres && cfg.Database.AutoMigrate {
		if err := runAutoMigration(cfg.Database.URL); err != nil {
			return err
		}
	}

	users, ready, closeStore, err := openUserStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := newAuthService(cfg, users, logger)
	if err != nil {
		return err
	}

	var routerOpts []httpapi.RouterOption
	if len(cfg.HTTP.CORSOrigins) > 0 {
		cors, err := httpapi.NewCORS(cfg.HTTP.CORSOrigins)
		if err != nil {
			return err
		}
		routerOpts = append(routerOpts, httpapi.WithCORS(cors))
	}

	var tlsConfig *stdtls.Config
	if cfg.HTTP.TLSEnabled() {
		if tlsConfig, err = tls.ServerConfig(cfg.HTTP.TLSCert, cfg.HTTP.TLSKey); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var metrics *observability.Metrics
	var obsServer *observability.Server
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, ready)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		metrics = obsServer.Metrics()
	}

	listener, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		stopObservability(obsServer)
		return oops.Code("SERVE_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}
	scheme := "http"
	if tlsConfig != nil {
		listener = stdtls.NewListener(listener, tlsConfig)
		scheme = "https"
	}

	httpSrv := &http.Server{
		Handler:           httpapi.NewRouter(svc, logger, metrics, routerOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	addr := listener.Addr().String()
	logger.Info("api server listening",
		"addr", addr,
		"scheme", scheme,
		"store", cfg.Store,
		"hasher", cfg.Hasher.Algorithm,
	)
	cmd.Printf("Noteful API listening on %s://%s\n", scheme, addr)
	if deps.OnListening != nil {
		deps.OnListening(addr)
	}

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	stopObservability(obsServer)

	if serveErr != nil {
		return oops.Code("SERVE_FAILED").With("addr", addr).Wrap(serveErr)
	}
	logger.Info("shutdown complete")
	return nil
}

// openUserStore returns the configured repository, a readiness check for it
// and a release function.
func openUserStore(ctx context.Context, cfg *config.Config) (auth.UserRepository, observability.ReadinessChecker, func(), error) {
	if cfg.Store == config.StoreMemory {
		slog.Warn("using in-memory user store; users are lost on restart")
		return memory.NewUserRepository(), func() bool { return true }, func() {}, nil
	}

	pool, err := store.Open(ctx, cfg.Database.URL,
		store.WithConnectRetries(uint64(cfg.Database.ConnectRetries), 0)) //nolint:gosec // validated non-negative
	if err != nil {
		return nil, nil, nil, oops.With("operation", "open user store").Wrap(err)
	}
	return postgres.NewUserRepository(pool), store.ReadinessCheck(pool, readinessTimeout), pool.Close, nil
}

// runAutoMigration applies pending migrations. A failed Close is logged,
// not returned.
func runAutoMigration(databaseURL string) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "auto-migrate").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := m.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").Wrap(err)
	}
	version, _, err := m.Version()
	if err == nil {
		slog.Info("schema migrations applied", "version", version)
	}
	return nil
}

func newAuthService(cfg *config.Config, users auth.UserRepository, logger *slog.Logger) (*auth.Service, error) {
	hasher, err := auth.NewHasher(cfg.Hasher.Algorithm, cfg.Hasher.BcryptCost)
	if err != nil {
		return nil, err
	}

	tokenCfg, err := cfg.TokenConfig()
	if err != nil {
		return nil, err
	}
	issuer, err := auth.NewTokenIssuer(tokenCfg)
	if err != nil {
		return nil, err
	}

	return auth.NewService(users, hasher, issuer,
		auth.WithLogger(logger),
		auth.WithHashConcurrency(cfg.Hasher.Concurrency),
	)
}

func stopObservability(s *observability.Server) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels ctx when a background server reports an error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
