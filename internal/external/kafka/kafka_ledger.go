package stamps

import (
	"context"
	"encoding/json"
	"fmt"

	config "github.com/glkeru/loyalty/stamps/internal/config"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"github.com/segmentio/kafka-go"
)

// Поток записей журнала. Ключ - клиент, порядок записей клиента сохраняется
type LedgerWriter struct {
	writer *kafka.Writer
}

func NewLedgerWriter(cfg config.Kafka) (*LedgerWriter, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("env KAFKA_SCANS_URL is not set")
	}
	if cfg.LedgerTopic == "" {
		return nil, fmt.Errorf("env KAFKA_LEDGER_TOPIC is not set")
	}
	return &LedgerWriter{&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.LedgerTopic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}}, nil
}

func ledgerMessage(tnx model.Transaction) (kafka.Message, error) {
	value, err := json.Marshal(tnx)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(tnx.CustomerID),
		Value: value,
		Time:  tnx.Timestamp,
	}, nil
}

func (k *LedgerWriter) PublishTransaction(ctx context.Context, tnx model.Transaction) error {
	msg, err := ledgerMessage(tnx)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, msg)
}

func (k *LedgerWriter) Close() error {
	return k.writer.Close()
}
