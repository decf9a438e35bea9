// Job - списание наград по запросам касс
// RabbitMQ redeems -> списание -> confirms
package main

import (
	"context"
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
	logger, err := logs.NewLogger(cfg.Log.Level, cfg.Log.Format, "stamps-redeems")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(ctx, "stamps-redeems", cfg.OTelEndpoint, logger)
	if err != nil {
		logger.Fatal("tracer", zap.Error(err))
	}
	defer shutdownTracer()

	// rabbitmq
	reader, err := rabbit.NewRabbitConsumer(cfg.Rabbit)
	if err != nil {
		logger.Fatal("rabbitmq", zap.Error(err))
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
	notifier, err := rabbit.NewRabbitNotifier(cfg.Rabbit)
	if err != nil {
		logger.Error("rabbitmq notifications disabled", zap.Error(err))
	} else {
		defer notifier.Close()
		serv.Notifier.SetPublisher(notifier)
	}

	// os signals
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		cancel()
	}()

	// workers
	wg := &sync.WaitGroup{}
	wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go worker(ctx, serv.Engine, wg, logger, reader, cfg.Location)
	}
	wg.Wait()
}

// worker for rabbitmq messages
func worker(ctx context.Context, engine *services.AccrualEngine, wg *sync.WaitGroup, logger *zap.Logger, reader *rabbit.RabbitConsumer, location string) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-reader.Msg:
			if !ok {
				return
			}
			req, err := rabbit.ParseRedeemRequest(msg.Body)
			confirm := rabbit.RedeemConfirm{RequestID: req.RequestID, CustomerID: req.CustomerID}
			if err == nil {
				where := location
				if req.Location != "" {
					where = req.Location
				}
				var result *services.AccrualResult
				// повторная доставка отвечает исходным списанием
				result, err = engine.RedeemRequest(ctx, req.RequestID, req.CustomerID, where)
				if err == nil {
					confirm.Success = true
					confirm.Stamps = result.Customer.Stamps
					confirm.RewardsRedeemed = result.Customer.RewardsRedeemed
				}
			}
			if err != nil {
				logger.Error("redeem", zap.String("request", req.RequestID), zap.Error(err))
				confirm.Error = err.Error()
			}

			if req.RequestID != "" {
				if err := reader.Processed(ctx, confirm); err != nil {
					logger.Error("confirm", zap.String("request", req.RequestID), zap.Error(err))
					_ = msg.Nack(false, true)
					continue
				}
			}
			_ = msg.Ack(false)
		}
	}
}
