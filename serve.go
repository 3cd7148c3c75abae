package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"redforge/handlers"
	"redforge/services"
)

const shutdownTimeout = 15 * time.Second

func serveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook intake HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	cmd.Flags().String("port", "", "listen port (PORT)")
	cmd.Flags().Duration("tolerance", 0, "maximum signature timestamp age, 0 disables the check (WEBHOOK_TOLERANCE)")
	bindFlag(v, cmd, "port", "port")
	bindFlag(v, cmd, "signature_tolerance", "tolerance")

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, customers, err := setup(ctx, v)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer func() { _ = customers.Close() }()

	log.Info("features",
		zap.Bool("admin_auth", cfg.Features.AdminAuthEnabled),
		zap.Bool("notifications", cfg.Features.NotificationsEnabled),
		zap.String("store_backend", cfg.StoreBackend))

	verifier := services.NewVerifier(cfg.WebhookSecret, cfg.SignatureTolerance)
	if !verifier.Configured() {
		log.Warn("STRIPE_WEBHOOK_SECRET not set; every webhook will be rejected")
	}

	var (
		notifier      services.Notifier = services.NopNotifier{}
		notifications *services.Notifications
	)
	if cfg.Features.NotificationsEnabled {
		notifications = services.NewNotifications(log, services.NotificationsConfig{
			SlackWebhookURL: cfg.SlackWebhookURL,
			SendGridAPIKey:  cfg.SendGridAPIKey,
			FromEmail:       cfg.NotifyFrom,
		})
		notifier = notifications
	}

	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.New(log, verifier, customers, notifier, handlers.Options{
		MaxBodyBytes:     cfg.MaxBodyBytes,
		Version:          Version,
		StripeConfigured: cfg.StripeAPIKey != "",
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(log, h, cfg.Features, cfg.AdminJWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		log.Info("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = group.Wait()
	if notifications != nil {
		notifications.Wait()
	}
	return err
}
