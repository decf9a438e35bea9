// Job - сканы с удаленных терминалов
// Опрос Kafka -> распознавание кода -> начисление штампов
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	config "github.com/glkeru/loyalty/stamps/internal/config"
	db "github.com/glkeru/loyalty/stamps/internal/db"
	kafka "github.com/glkeru/loyalty/stamps/internal/external/kafka"
	rabbit "github.com/glkeru/loyalty/stamps/internal/external/rabbitmq"
	services "github.com/glkeru/loyalty/stamps/internal/services"
	logs "github.com/glkeru/loyalty/stamps/observability/logger"
	tracing "github.com/glkeru/loyalty/stamps/observability/otel"
	"go.uber.org/zap"
)

func main() {
	// config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// log
	logger, err := logs.NewLogger(cfg.Log.Level, cfg.Log.Format, "stamps-scans")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(ctx, "stamps-scans", cfg.OTelEndpoint, logger)
	if err != nil {
		logger.Fatal("tracer", zap.Error(err))
	}
	defer shutdownTracer()

	// kafka
	reader, err := kafka.NewScanReader(cfg.Kafka)
	if err != nil {
		logger.Fatal("kafka", zap.Error(err))
	}
	defer reader.Close()

	// database
	if err = cfg.Store.RequireShared(); err != nil {
		logger.Fatal("storage", zap.Error(err))
	}
	kv, err := db.NewKVStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}
	ledger := db.NewLedgerDB(kv, logger)
	defer ledger.Close(context.Background())
	if err = ledger.Initialize(ctx, cfg.Store.Seed); err != nil {
		logger.Fatal("storage init", zap.Error(err))
	}

	// services
	clock := services.SystemClock{}
	serv := services.NewStamps(ledger, clock, services.NewRandomIDs(clock), cfg.Workers, logger)
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

	// os signals
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		cancel()
	}()

	wg := &sync.WaitGroup{}
	semaphore := make(chan struct{}, cfg.Workers)

	for {
		data, err := reader.ReadScan(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("read scan", zap.Error(err))
			}
			break
		}
		event, err := kafka.ParseScanEvent(data)
		if err != nil {
			logger.Warn("skip scan event", zap.ByteString("event", data), zap.Error(err))
			continue
		}

		semaphore <- struct{}{}
		wg.Add(1)
		go func(event kafka.ScanEvent) {
			defer wg.Done()
			defer func() { <-semaphore }()
			location := event.Location
			if location == "" {
				location = cfg.Location
			}
			// сканы одного клиента упорядочены блокировкой в движке
			var err error
			if event.Code != "" {
				_, err = serv.Engine.Scan(ctx, event.Code, location)
			} else {
				_, err = serv.Engine.AwardStamp(ctx, event.CustomerID, event.Amount, location)
			}
			if err != nil {
				logger.Error("scan", zap.String("code", event.Code), zap.String("customer", event.CustomerID), zap.Error(err))
			}
		}(event)
	}
	wg.Wait()
}
