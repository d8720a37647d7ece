// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bloghub/internal/accounts"
	"bloghub/internal/blog"
	"bloghub/internal/cache"
	"bloghub/internal/config"
	"bloghub/internal/database"
	"bloghub/internal/handlers"
	"bloghub/internal/mail"
	"bloghub/internal/middleware"
	"bloghub/internal/resettoken"
	"bloghub/internal/router"
	"bloghub/internal/session"
	"bloghub/internal/storage"
	"bloghub/internal/store"
	"bloghub/internal/token"
)

func newServeCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, !skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply pending migrations on start")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			return err
		}
	}

	// Valkey holds refresh sessions and the revocation list.
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return err
	}
	defer valkeyClient.Close()

	media, mediaDir, err := newMediaStore(cfg)
	if err != nil {
		return err
	}

	var mailer mail.Sender = mail.LogSender{From: cfg.MailFrom}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		slog.Warn("smtp not configured, password reset mail goes to the log")
	}

	accountSvc := accounts.NewService(accounts.Config{
		Users:     store.NewUserStore(db),
		Tokens:    token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Sessions:  session.NewStore(valkeyClient),
		Resets:    resettoken.NewGenerator(cfg.JWTSecret, cfg.ResetTokenTTL),
		Mailer:    mailer,
		PublicURL: cfg.PublicURL,
	})
	blogSvc := blog.NewService(store.NewCategoryStore(db), store.NewPostStore(db), media)

	limiter := middleware.NewRateLimiter(10, time.Minute)
	defer limiter.Stop()

	r := router.New(router.Deps{
		Accounts:          handlers.NewAccounts(accountSvc),
		Blog:              handlers.NewBlog(blogSvc),
		Auth:              accountSvc,
		CredentialLimiter: limiter,
		CORSOrigins:       cfg.CORSOrigins,
		MediaDir:          mediaDir,
		MediaURL:          cfg.MediaURL,
	})

	// Uploads of up to 10 MB need a longer read timeout than plain JSON.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newMediaStore picks S3 when it is configured and the local media
// directory otherwise. The returned directory is empty for S3 so the router
// does not mount it.
func newMediaStore(cfg *config.Config) (storage.Store, string, error) {
	if cfg.HasS3() {
		s3, err := storage.NewS3(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, "", fmt.Errorf("init s3 storage: %w", err)
		}
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		return s3, "", nil
	}

	local, err := storage.NewLocal(cfg.MediaDir, cfg.MediaURL)
	if err != nil {
		return nil, "", err
	}
	slog.Warn("s3 storage not configured, serving media from disk", "dir", local.Root())
	return local, local.Root(), nil
}
