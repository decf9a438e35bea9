package stamps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	config "github.com/glkeru/loyalty/stamps/internal/config"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const queue = "redeems"
const queueout = "confirms"

// Запрос на ручное списание награды (касса)
type RedeemRequest struct {
	RequestID  string `json:"requestId"`
	CustomerID string `json:"customerId"`
	Location   string `json:"location,omitempty"`
}

func ParseRedeemRequest(data []byte) (RedeemRequest, error) {
	var req RedeemRequest
	err := json.Unmarshal(data, &req)
	if err != nil {
		return RedeemRequest{}, model.NewValidationError("redeem request", err.Error())
	}
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		return req, model.NewValidationError("customerId", "is required")
	}
	return req, nil
}

// Ответ кассе
type RedeemConfirm struct {
	RequestID       string `json:"requestId"`
	CustomerID      string `json:"customerId"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	Stamps          int    `json:"stamps"`
	RewardsRedeemed int    `json:"rewardsRedeemed"`
}

type RabbitConsumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	Msg   <-chan amqp.Delivery
	chout *amqp.Channel
}

func declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

func NewRabbitConsumer(cfg config.Rabbit) (rabbit *RabbitConsumer, err error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("env RABBIT_URL is not set")
	}
	conn, err := amqp.Dial(cfg.DSN())
	if err != nil {
		return nil, err
	}
	// канал для входящих
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err = declare(ch, queue); err != nil {
		conn.Close()
		return nil, err
	}
	// не больше сообщений в работе, чем воркеров
	if err = ch.Qos(cfg.Prefetch, 0, false); err != nil {
		conn.Close()
		return nil, err
	}

	// канал для исходящих
	chout, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err = declare(chout, queueout); err != nil {
		conn.Close()
		return nil, err
	}

	msg, err := ch.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &RabbitConsumer{conn, ch, msg, chout}, nil
}

func (r *RabbitConsumer) Close() {
	r.ch.Close()
	r.chout.Close()
	r.conn.Close()
}

// подтверждение списания
func (r *RabbitConsumer) Processed(ctx context.Context, confirm RedeemConfirm) error {
	msg, err := json.Marshal(confirm)
	if err != nil {
		return err
	}
	return r.chout.PublishWithContext(ctx,
		"",       // exchange
		queueout, // routing key
		false,    // mandatory
		false,    // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: confirm.RequestID,
			Body:          msg,
		})
}
