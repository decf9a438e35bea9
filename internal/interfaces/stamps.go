package stamps

import (
	"context"
	"encoding/json"
	"time"

	model "github.com/glkeru/loyalty/stamps/internal/models"
)

//go:generate mockgen -destination=./../services/mock_stamps_test.go -package=stamps . AccrualStorage,ResolverStorage

// KV хранилище: коллекции лежат целиком под своими ключами
type KVStore interface {
	Get(ctx context.Context, key string) (string, error) // model.ErrKeyNotFound если ключа нет
	Set(ctx context.Context, key string, value string) error
	SetMany(ctx context.Context, values map[string]string) error // все или ничего, если бэкенд умеет
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close(ctx context.Context) error
}

// Хранилище для движка начислений
type AccrualStorage interface {
	GetCardConfig(ctx context.Context) (model.CardConfig, error)
	GetCustomer(ctx context.Context, id string) (model.Customer, error)
	GetCustomerTransactions(ctx context.Context, customerId string) ([]model.Transaction, error)
	CommitAccrual(ctx context.Context, acc model.Accrual) error
}

// Хранилище для распознавания кодов
type ResolverStorage interface {
	GetCustomer(ctx context.Context, id string) (model.Customer, error)
	GetCustomerByQRCode(ctx context.Context, code string) (model.Customer, error)
	RegisterScan(ctx context.Context, code string, now time.Time) (model.QRCode, error)
}

type CustomerStorage interface {
	GetCustomers(ctx context.Context) ([]model.Customer, error)
	GetCustomer(ctx context.Context, id string) (model.Customer, error)
	GetCustomerByContact(ctx context.Context, contact string) (model.Customer, error)
	AddCustomer(ctx context.Context, customer model.Customer) error
	GetCustomerTransactions(ctx context.Context, customerId string) ([]model.Transaction, error)
	GetTransactions(ctx context.Context) ([]model.Transaction, error)
	GetCardConfig(ctx context.Context) (model.CardConfig, error)
	UpdateCardConfig(ctx context.Context, cfg model.CardConfig) error
	GetNotifications(ctx context.Context, customerId string) ([]model.Notification, error)
}

type QRCodeStorage interface {
	GetQRCodes(ctx context.Context) ([]model.QRCode, error)
	GetQRCode(ctx context.Context, id string) (model.QRCode, error)
	AddQRCode(ctx context.Context, qr model.QRCode) error
	UpdateQRCode(ctx context.Context, id string, update func(qr *model.QRCode) error) (model.QRCode, error)
	DeleteQRCode(ctx context.Context, id string) error
	GetCustomer(ctx context.Context, id string) (model.Customer, error)
}

type NotificationStorage interface {
	GetCustomers(ctx context.Context) ([]model.Customer, error)
	GetCustomer(ctx context.Context, id string) (model.Customer, error)
	GetCardConfig(ctx context.Context) (model.CardConfig, error)
	GetNotifications(ctx context.Context, customerId string) ([]model.Notification, error)
	AddNotifications(ctx context.Context, notifications []model.Notification) error
	MarkNotificationRead(ctx context.Context, id string) error
	GetCampaigns(ctx context.Context) ([]model.Campaign, error)
	AddCampaign(ctx context.Context, campaign model.Campaign) error
}

// Снимок коллекций только для чтения (экспорт, выгрузка карт)
type SnapshotStorage interface {
	Snapshot(ctx context.Context) (map[string]json.RawMessage, error)
}

// Все коллекции журнала (db.LedgerDB)
type LedgerStorage interface {
	AccrualStorage
	ResolverStorage
	CustomerStorage
	QRCodeStorage
	NotificationStorage
	SnapshotStorage
	Close(ctx context.Context) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(prefix string) string
	CustomerCode(customerId string) string
	RegistryCode(t model.QRType) string
}

// Доставка уведомлений во внешний транспорт (необязательно)
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n model.Notification) error
}

// Поток записей журнала во внешний брокер (необязательно)
type LedgerPublisher interface {
	PublishTransaction(ctx context.Context, tnx model.Transaction) error
}
