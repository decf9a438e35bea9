// HTTP API: кабинеты клиента, продавца и администратора
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/glkeru/loyalty/stamps/internal/api"
	config "github.com/glkeru/loyalty/stamps/internal/config"
	db "github.com/glkeru/loyalty/stamps/internal/db"
	kafka "github.com/glkeru/loyalty/stamps/internal/external/kafka"
	rabbit "github.com/glkeru/loyalty/stamps/internal/external/rabbitmq"
	services "github.com/glkeru/loyalty/stamps/internal/services"
	logs "github.com/glkeru/loyalty/stamps/observability/logger"
	tracing "github.com/glkeru/loyalty/stamps/observability/otel"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	// config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// log
	logger, err := logs.NewLogger(cfg.Log.Level, cfg.Log.Format, "stamps-server")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// tracing
	shutdownTracer, err := tracing.InitTracer(ctx, "stamps-server", cfg.OTelEndpoint, logger)
	if err != nil {
		logger.Fatal("tracer", zap.Error(err))
	}
	defer shutdownTracer()

	// database
	kv, err := db.NewKVStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}
	ledger := db.NewLedgerDB(kv, logger)
	defer ledger.Close(context.Background())
	err = ledger.Initialize(ctx, cfg.Store.Seed)
	if err != nil {
		logger.Fatal("storage init", zap.Error(err))
	}

	// services
	clock := services.SystemClock{}
	serv := services.NewStamps(ledger, clock, services.NewRandomIDs(clock), cfg.Workers, logger)

	// внешние потоки (необязательно)
	if cfg.Kafka.LedgerTopic != "" {
		writer, err := kafka.NewLedgerWriter(cfg.Kafka)
		if err != nil {
			logger.Fatal("kafka", zap.Error(err))
		}
		defer writer.Close()
		serv.Engine.SetLedgerPublisher(writer)
	}
	if cfg.Rabbit.Enabled() {
		notifier, err := rabbit.NewRabbitNotifier(cfg.Rabbit)
		if err != nil {
			logger.Error("rabbitmq notifications disabled", zap.Error(err))
		} else {
			defer notifier.Close()
			serv.Notifier.SetPublisher(notifier)
		}
	}

	// api handlers
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", otelhttp.NewHandler(api.NewHandler(serv, ledger, cfg.Location, logger), "stamps"))
	srv := &http.Server{
		Handler:      mux,
		Addr:         ":" + cfg.Port,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port), zap.String("store", cfg.Store.Backend))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			cancel()
		}
	}()

	// shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	select {
	case <-interrupt:
	case <-ctx.Done():
	}
	timeout, tcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer tcancel()
	err = srv.Shutdown(timeout)
	if err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
