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
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/herald-io/herald/internal/config"
	"github.com/herald-io/herald/internal/metrics"
	"github.com/herald-io/herald/internal/notification"
	"github.com/herald-io/herald/internal/queue"
	"github.com/herald-io/herald/internal/storage"
	"github.com/herald-io/herald/internal/worker"
	"github.com/herald-io/herald/pkg/logger"
)

func main() {
	var (
		appCfg    config.App
		mongoCfg  config.Mongo
		queueCfg  config.Queue
		workerCfg config.Worker
	)
	if err := errors.Join(
		config.Load(&appCfg),
		config.Load(&mongoCfg),
		config.Load(&queueCfg),
		config.Load(&workerCfg),
	); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr := logger.New(
		logger.WithEnvironment(appCfg.Env, appCfg.Service),
		logger.WithAttr(slog.String("component", "worker")),
	)
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

	proc, err := notification.NewProcessor(store,
		notification.DefaultRegistry(logr),
		notification.WithProcessorLogger(logr),
	)
	if err != nil {
		logr.Error("failed to create processor", slog.String("error", err.Error()))
		os.Exit(1)
	}

	w, err := worker.New(broker, proc,
		worker.WithLogger(logr),
		worker.WithProcessTimeout(workerCfg.ProcessTimeout),
	)
	if err != nil {
		logr.Error("failed to create worker", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Operational surface: liveness probe and metrics for the worker process.
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())
	opsSrv := &http.Server{Addr: workerCfg.OpsAddr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(w.Run(ctx))
	g.Go(func() error {
		logr.Info("worker ops server listening", slog.String("addr", opsSrv.Addr))
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return opsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logr.Error("worker stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logr.Info("worker shut down gracefully")
}
