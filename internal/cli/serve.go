package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"homeportal/internal/amqp"
	"homeportal/internal/cache"
	"homeportal/internal/core"
	apphttp "homeportal/internal/http"
	applog "homeportal/internal/log"
	"homeportal/internal/middleware/auth"
	"homeportal/internal/middleware/ratelimit"
	"homeportal/internal/middleware/security"
	"homeportal/internal/services"
)

const (
	shutdownTimeout     = 30 * time.Second
	cacheJanitorEvery   = time.Minute
	rateLimitSweepEvery = 5 * time.Minute
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := SignalContext(cmd.Context())
			defer cancel()
			return runServe(ctx, a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	cfg, logger := a.cfg, a.logger

	repo, err := InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	// Messaging is best effort for the API: a missing broker only disables
	// change notifications.
	var publisher amqp.Publisher
	client, err := InitAMQP(logger, cfg)
	switch {
	case err != nil:
		logger.Warn("AMQP unavailable, change notifications disabled", applog.FieldError, err)
	case client != nil:
		defer client.Close()
		publisher = client
	}
	notifier := services.NewNotifier(publisher, logger)

	users := services.NewUserService(repo)
	household, err := users.Bootstrap(ctx, cfg.AuthEnabled, cfg.DefaultAdminEmail)
	if err != nil {
		return err
	}

	var summaries *cache.LRU[[]core.SummaryBucket]
	var summaryCache cache.Cache[[]core.SummaryBucket]
	if cfg.SummaryCacheTTL > 0 {
		summaries = cache.NewLRU[[]core.SummaryBucket](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
		summaryCache = summaries
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit,
		CleanupInterval:   rateLimitSweepEvery,
	})

	srv := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		MaxUploadBytes: cfg.MaxUploadBytes,
		CORS:           security.DefaultCORSConfig(),
		Headers:        security.DefaultHeadersConfig(),
	}, apphttp.Deps{
		Assets:   services.NewAssetService(repo, summaryCache, notifier, logger),
		Links:    services.NewLinkService(repo, notifier),
		Contacts: services.NewContactService(repo, notifier),
		Todos:    services.NewTodoService(repo, notifier),
		Events:   services.NewEventService(repo, notifier),
		Users:    users,
		Notifier: notifier,
		DB:       repo,
		Auth: auth.New(auth.Config{
			Enabled:     cfg.AuthEnabled,
			SecretKey:   cfg.SecretKey,
			MaxTokenAge: cfg.AccessTokenExpiry,
			Household:   household,
		}, repo),
		Limiter:  limiter,
		Detector: security.NewDetector(),
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting homeportal server",
			"port", cfg.Port,
			"env", cfg.AppEnv,
			"auth_enabled", cfg.AuthEnabled,
			"messaging_enabled", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve on port %s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	if summaries != nil {
		g.Go(func() error {
			return cache.NewJanitor(logger.WithComponent(applog.ComponentCache).Slog(), summaries).Run(gctx, cacheJanitorEvery)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
