package stamps

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	config "github.com/glkeru/loyalty/stamps/internal/config"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const queuenotify = "notifications"

// Доставка уведомлений во внешний транспорт (push/email шлюз)
type RabbitNotifier struct {
	conn *amqp.Connection
	mu   sync.Mutex // amqp.Channel не потокобезопасен на публикацию
	ch   *amqp.Channel
}

func NewRabbitNotifier(cfg config.Rabbit) (*RabbitNotifier, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("env RABBIT_URL is not set")
	}
	conn, err := amqp.Dial(cfg.DSN())
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err = declare(ch, queuenotify); err != nil {
		conn.Close()
		return nil, err
	}
	return &RabbitNotifier{conn: conn, ch: ch}, nil
}

func notificationMessage(n model.Notification) (amqp.Publishing, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
		Type:         string(n.Type),
		Timestamp:    n.CreatedAt,
		Body:         body,
	}, nil
}

func (r *RabbitNotifier) PublishNotification(ctx context.Context, n model.Notification) error {
	msg, err := notificationMessage(n)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ch.PublishWithContext(ctx, "", queuenotify, false, false, msg)
}

func (r *RabbitNotifier) Close() {
	r.ch.Close()
	r.conn.Close()
}
