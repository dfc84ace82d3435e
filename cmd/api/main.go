package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/herald-io/herald/internal/config"
	"github.com/herald-io/herald/internal/handler"
	"github.com/herald-io/herald/internal/metrics"
	"github.com/herald-io/herald/internal/notification"
	"github.com/herald-io/herald/internal/queue"
	"github.com/herald-io/herald/internal/router"
	"github.com/herald-io/herald/internal/storage"
	"github.com/herald-io/herald/pkg/logger"
	"github.com/herald-io/herald/pkg/retry"
)

func main() {
	var (
		appCfg   config.App
		httpCfg  config.HTTP
		mongoCfg config.Mongo
		queueCfg config.Queue
		pubCfg   config.Publish
	)
	if err := errors.Join(
		config.Load(&appCfg),
		config.Load(&httpCfg),
		config.Load(&mongoCfg),
		config.Load(&queueCfg),
		config.Load(&pubCfg),
	); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr := logger.New(logger.WithEnvironment(appCfg.Env, appCfg.Service))
	logger.SetAsDefault(logr)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.NewMongo(ctx, mongoCfg)
	if err != nil {
		logr.Error("failed to connect to mongo", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()

	broker, err := queue.DialAMQP(queueCfg.URL, queueCfg.Name, queueCfg.Label)
	if err != nil {
		logr.Error("failed to connect to broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = broker.Close() }()

	store, err := notification.NewMongoStore(db)
	if err != nil {
		logr.Error("failed to create record store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	policy, err := retry.New(pubCfg.MaxAttempts, pubCfg.Backoff)
	if err != nil {
		logr.Error("invalid publish retry settings", slog.String("error", err.Error()))
		os.Exit(1)
	}

	producer, err := notification.NewProducer(store, broker,
		notification.WithPublishRetry(policy),
		notification.WithProducerLogger(logr),
	)
	if err != nil {
		logr.Error("failed to create producer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	nh := handler.NewNotificationHandler(producer, store, logr)
	hh := handler.NewHealthHandler(storage.Healthcheck(db))

	srv := &http.Server{
		Addr:         httpCfg.Addr,
		Handler:      router.New(nh, hh),
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Info("api server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logr.Error("api server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logr.Info("api server shut down gracefully")
}
