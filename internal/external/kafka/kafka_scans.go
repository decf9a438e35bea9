package stamps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	config "github.com/glkeru/loyalty/stamps/internal/config"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"github.com/segmentio/kafka-go"
)

// Скан с удаленного терминала: либо код, либо клиент + кол-во штампов
type ScanEvent struct {
	Code       string `json:"code,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
	Amount     int    `json:"amount,omitempty"`
	Location   string `json:"location,omitempty"`
}

func ParseScanEvent(data []byte) (ScanEvent, error) {
	var event ScanEvent
	err := json.Unmarshal(data, &event)
	if err != nil {
		return ScanEvent{}, model.NewValidationError("scan event", err.Error())
	}
	event.Code = strings.TrimSpace(event.Code)
	if event.Code == "" && event.CustomerID == "" {
		return ScanEvent{}, model.NewValidationError("scan event", "code or customerId is required")
	}
	if event.Code == "" && event.Amount == 0 {
		event.Amount = 1
	}
	return event, nil
}

type ScanReader struct {
	reader *kafka.Reader
}

func NewScanReader(cfg config.Kafka) (*ScanReader, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("env KAFKA_SCANS_URL is not set")
	}
	kafkaconfig := kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.ScansTopic,
		GroupID: cfg.GroupID,
	}
	return &ScanReader{kafka.NewReader(kafkaconfig)}, nil
}

// Следующее сообщение. Смещение фиксируется сразу (группа консьюмеров)
func (k *ScanReader) ReadScan(ctx context.Context) ([]byte, error) {
	msg, err := k.reader.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}
	return msg.Value, nil
}

func (k *ScanReader) Close() error {
	return k.reader.Close()
}
