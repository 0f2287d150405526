// Package main запускает HTTP-сервер сервиса клиентской вовлечённости.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/customer-engagement/internal/config"
	"github.com/mmeshcher/customer-engagement/internal/events"
	"github.com/mmeshcher/customer-engagement/internal/handler"
	"github.com/mmeshcher/customer-engagement/internal/middleware"
	"github.com/mmeshcher/customer-engagement/internal/repository"
	"github.com/mmeshcher/customer-engagement/internal/service"
	"github.com/mmeshcher/customer-engagement/internal/sentiment"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := openRepository(cfg)
	if err != nil {
		sugar.Fatalw("store initialization error", "driver", cfg.StoreDriver, "error", err.Error())
	}

	var publisher service.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			sugar.Fatalw("event publisher initialization error", "error", err.Error())
		}
		publisher = kp
	}

	svc := service.NewService(repo, newClassifier(cfg), publisher, cfg.FlagCutoffDate, logger)
	defer func() {
		if err := svc.Close(); err != nil {
			sugar.Warnw("close service resources", "error", err)
		}
	}()

	if cfg.SessionSecret == "" {
		sugar.Warn("SESSION_SECRET is empty, sessions will not survive restart")
	}
	session := middleware.NewSession(cfg.SessionSecret)

	h := handler.NewHandler(svc, logger, session, handler.Options{
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		LegacyErrorStatus: cfg.LegacyErrorStatus,
	})

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting customer engagement server",
			"addr", cfg.RunAddress,
			"env", cfg.AppEnv,
			"production", cfg.IsProduction(),
			"store", cfg.StoreDriver,
			"sentiment", cfg.SentimentProvider,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Errorw("application terminated with error", "error", err)
	}
}

func openRepository(cfg *config.Config) (service.Repository, error) {
	if cfg.StoreDriver == config.StorePostgres {
		return repository.NewPostgresRepository(cfg.DatabaseURI)
	}
	return repository.NewMongoRepository(cfg.MongoURI, cfg.MongoDatabase)
}

func newClassifier(cfg *config.Config) service.Classifier {
	if cfg.SentimentProvider == config.SentimentOpenAI {
		return sentiment.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	return sentiment.NewClient(cfg.SentimentURL, cfg.SentimentAPIToken)
}
