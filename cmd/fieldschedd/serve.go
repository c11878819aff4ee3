package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fieldservice-backend/internal/api"
	"fieldservice-backend/internal/db"
	"fieldservice-backend/internal/notification"
	"fieldservice-backend/internal/store"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.Log.Env == "production" {
				gin.SetMode(gin.ReleaseMode)
			}

			loc, err := cfg.Scheduler.Location()
			if err != nil {
				return err
			}

			gormDB, err := db.Init(&cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			appStore := store.NewGormStore(gormDB)

			scheduler, err := newScheduler(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			deps := api.Deps{
				Store:     appStore,
				Scheduler: scheduler,
				Location:  loc,
				Logger:    logger,
			}
			if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
				webpushOptions := &webpush.Options{
					VAPIDPublicKey:  cfg.Push.PublicKey,
					VAPIDPrivateKey: cfg.Push.PrivateKey,
					Subscriber:      cfg.Push.Subject,
					TTL:             cfg.Push.TTL,
				}
				pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions, logger)
				pool.Start(ctx)
				deps.Notifier = pool
				deps.WebPush = webpushOptions
			} else {
				logger.Warn("VAPID keys are not configured; booking notifications are disabled")
			}

			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
				Handler: api.NewRouter(deps, cfg.Server),
			}

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
			}()

			select {
			case err := <-serveErr:
				return fmt.Errorf("HTTP server ListenAndServe: %w", err)
			case <-ctx.Done():
			}
			logger.Info("shutdown signal received, stopping services")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("HTTP server Shutdown: %w", err)
			}

			logger.Info("server gracefully stopped")
			return nil
		},
	}
}
