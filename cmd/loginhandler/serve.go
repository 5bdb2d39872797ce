package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"git.sr.ht/~jakintosh/loginhandler/internal/api"
	"git.sr.ht/~jakintosh/loginhandler/internal/database"
	"git.sr.ht/~jakintosh/loginhandler/internal/identity"
	"git.sr.ht/~jakintosh/loginhandler/internal/metrics"
	"git.sr.ht/~jakintosh/loginhandler/internal/service"
	"git.sr.ht/~jakintosh/loginhandler/internal/settings"
	"git.sr.ht/~jakintosh/loginhandler/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the login handler HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := telemetry.Setup(ctx, telemetry.ServiceName, telemetry.Options{
			Endpoint: cfg.OTelEndpoint,
			Enabled:  cfg.OTelEnabled,
		})
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdownTracing(flushCtx); err != nil {
				log.Warn().Err(err).Msg("failed to flush traces")
			}
		}()

		store, err := settings.NewStore(cfg.SettingsPath)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		db, err := database.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		m := metrics.New()
		svc := service.New(
			db.UserStore(),
			identity.NewValidator(nil, store, m),
			store,
			m,
			service.PasswordModeProduction,
		)

		server := &http.Server{
			Addr:              cfg.Addr,
			Handler:           api.New(svc, m.Registry, db).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info().Str("addr", cfg.Addr).Msg("starting server")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			return store.Watch(ctx)
		})
		g.Go(func() error {
			<-ctx.Done()
			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		log.Info().Msg("server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "address to listen on (default :8080)")
	serveCmd.Flags().String("db", "", "sqlite database path")
}
