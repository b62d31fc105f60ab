package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kathembo-tsongo/timetabling-sub001/cmd/cmdutil"
	appmiddleware "github.com/kathembo-tsongo/timetabling-sub001/internal/middleware"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/server"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin API server",
	Long:  `Starts the HTTP server exposing the role and permission administration endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := rt.Logger

		shutdownTelemetry, err := telemetry.Init(cmd.Context(), cfg.Observability, log)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(ctx); err != nil {
				log.WithError(err).Warn("telemetry shutdown failed")
			}
		}()

		bundle, err := cmdutil.NewServiceBundle(rt)
		if err != nil {
			return err
		}
		defer bundle.Close()
		log.Info("connected to database")

		opts := server.RouterOptions{
			Roles:       bundle.Roles,
			Permissions: bundle.Permissions,
			Logger:      log,
			HealthHandler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if err := bundle.DB.PingContext(r.Context()); err != nil {
					w.WriteHeader(http.StatusServiceUnavailable)
					_, _ = fmt.Fprint(w, `{"status":"unavailable"}`)
					return
				}
				w.WriteHeader(http.StatusOK)
				fmt.Fprintf(w, `{"status":"ok","auth_enabled":%t}`, cfg.Auth.Enabled())
			},
		}
		if cfg.Auth.Enabled() {
			authn, err := appmiddleware.NewAuthnMiddleware(cfg.Auth.TokenSecret, log)
			if err != nil {
				return fmt.Errorf("configure authentication: %w", err)
			}
			opts.Authn = authn
			opts.Authorizer = appmiddleware.NewAuthorizer(bundle.UnitOfWork, log)
		} else {
			log.Warn("auth.token_secret is empty: authentication and permission checks are disabled")
		}

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      server.NewRouter(opts),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.WithField("addr", cfg.ServerAddr).Info("starting server")
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.WithField("signal", sig.String()).Info("shutting down gracefully")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			log.Info("server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
