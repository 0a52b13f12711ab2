// cmd/functions-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"byteplus-functions/internal/common/aws"
	"byteplus-functions/internal/common/config"
	"byteplus-functions/internal/common/database"
	"byteplus-functions/internal/common/firebase"
	"byteplus-functions/internal/common/logger"
	"byteplus-functions/internal/common/observability"
	badgecount "byteplus-functions/internal/functions/notifications/badge-count"
	"byteplus-functions/internal/functions/notifications/cleanup"
	sendpush "byteplus-functions/internal/functions/notifications/send-push"
	manageusers "byteplus-functions/internal/functions/users/manage-users"
	"byteplus-functions/internal/identity"
	"byteplus-functions/internal/push"
	"byteplus-functions/internal/scheduler"
	"byteplus-functions/internal/server"
	"byteplus-functions/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting functions server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("functions-server")
	defer obs.Shutdown()

	shutdownTracer := observability.InitTracer("functions-server", cfg.Tracing.CollectorURL, zapLog)
	defer shutdownTracer()

	ctx := context.Background()

	// --- Init Firebase clients with retry ---
	var clients *firebase.Clients
	err = retryWithBackoff(func() error {
		var err error
		clients, err = firebase.NewClients(ctx, cfg.Firebase)
		return err
	}, 5, 2*time.Second, zapLog, "Firebase client initialization")
	if err != nil {
		zapLog.Fatal("firebase init failed", zap.Error(err))
	}
	defer clients.Close()

	documentStore := store.NewFirestore(clients.Firestore)
	pushGateway := push.NewFCM(clients.Messaging)
	identityProvider := identity.Provider(identity.NewFirebase(clients.Auth))

	// --- Optional Redis cache ---
	var badgeCache badgecount.Cache
	if cfg.Database.Redis.Enabled {
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis initialization")
		if err != nil {
			zapLog.Fatal("redis init failed", zap.Error(err))
		}
		defer redisClient.Close()
		badgeCache = redisClient
	}

	// --- Optional SES for welcome mail ---
	var sesClient manageusers.SESService
	if cfg.Users.WelcomeEmail.Enabled {
		sesClient, err = aws.NewSESClient(ctx, cfg.Users.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses init failed", zap.Error(err))
		}
	}

	// --- Handlers ---
	dispatcher, err := sendpush.NewHandler(sendpush.HandlerOptions{
		Logger:  log,
		Store:   documentStore,
		Gateway: pushGateway,
	})
	if err != nil {
		zapLog.Fatal("dispatcher init failed", zap.Error(err))
	}

	sweeper, err := cleanup.NewHandler(cleanup.HandlerOptions{
		Config: &cleanup.Config{
			Enabled:       true,
			RetentionDays: cfg.Retention.Days,
			BatchLimit:    cfg.Retention.BatchLimit,
			Schedule:      cfg.Retention.Schedule,
			Timezone:      cfg.Retention.Timezone,
			Timeout:       2 * time.Minute,
		},
		Logger: log,
		Store:  documentStore,
	})
	if err != nil {
		zapLog.Fatal("sweeper init failed", zap.Error(err))
	}

	badgeCounter, err := badgecount.NewHandler(badgecount.HandlerOptions{
		Config: &badgecount.Config{
			Enabled:  true,
			CacheTTL: config.GetDuration(cfg.Badge.CacheTTL),
			Timeout:  10 * time.Second,
		},
		Logger: log,
		Store:  documentStore,
		Cache:  badgeCache,
	})
	if err != nil {
		zapLog.Fatal("badge counter init failed", zap.Error(err))
	}

	userManager, err := manageusers.NewHandler(manageusers.HandlerOptions{
		Config: &manageusers.Config{
			Enabled:             true,
			Timeout:             30 * time.Second,
			WelcomeEmailEnabled: cfg.Users.WelcomeEmail.Enabled,
			FromEmail:           cfg.Users.WelcomeEmail.FromEmail,
			AWSRegion:           cfg.Users.AWS.Region,
		},
		Logger:   log,
		Store:    documentStore,
		Identity: identityProvider,
		SES:      sesClient,
	})
	if err != nil {
		zapLog.Fatal("user manager init failed", zap.Error(err))
	}

	// --- Retention schedule ---
	sched, err := scheduler.New(log, cfg.Retention.Timezone)
	if err != nil {
		zapLog.Fatal("scheduler init failed", zap.Error(err))
	}
	err = sched.AddJob(cfg.Retention.Schedule, cleanup.HandlerName, 2*time.Minute, func(jobCtx context.Context) error {
		start := time.Now()
		output, err := sweeper.Execute(jobCtx)
		obs.RecordDuration(jobCtx, cleanup.HandlerName, time.Since(start))
		if err != nil {
			obs.RecordInvocation(jobCtx, cleanup.HandlerName, "error")
			return err
		}
		obs.RecordInvocation(jobCtx, cleanup.HandlerName, "ok")
		log.Info("retention sweep finished", map[string]interface{}{
			"deleted": output.Deleted,
			"cutoff":  output.Cutoff,
		})
		return nil
	})
	if err != nil {
		zapLog.Fatal("schedule registration failed", zap.Error(err))
	}
	sched.Start()

	// --- HTTP trigger surface ---
	srv := server.New(server.Options{
		Config:   cfg.Server,
		Logger:   log,
		Identity: identityProvider,
		Dispatch: dispatcher,
		Badge:    badgeCounter,
		Users:    userManager,
	})

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Error("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}

	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		zapLog.Warn("scheduled jobs did not finish before shutdown deadline")
	}

	zapLog.Info("Functions server stopped gracefully")
}
