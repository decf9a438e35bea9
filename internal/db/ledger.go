package stamps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	interf "github.com/glkeru/loyalty/stamps/internal/interfaces"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"go.uber.org/zap"
)

// Ключи коллекций
const (
	KeyPrefix        = "loyalty_"
	keyCustomers     = "loyalty_customers"
	keyTransactions  = "loyalty_transactions"
	keyCardConfig    = "loyalty_card_config"
	keyCampaigns     = "loyalty_campaigns"
	keyNotifications = "loyalty_notifications"
	keyQRCodes       = "loyalty_qr_codes"
)

// Журнал и коллекции поверх KV.
// Каждая операция читает коллекцию целиком, меняет в памяти и пишет целиком,
// поэтому все записи идут под mu.
type LedgerDB struct {
	kv     interf.KVStore
	mu     sync.Mutex
	logger *zap.Logger
}

func NewLedgerDB(kv interf.KVStore, logger *zap.Logger) *LedgerDB {
	return &LedgerDB{kv: kv, logger: logger}
}

func (l *LedgerDB) Close(ctx context.Context) error {
	return l.kv.Close(ctx)
}

func loadList[T any](ctx context.Context, kv interf.KVStore, key string) ([]T, error) {
	data, err := kv.Get(ctx, key)
	if errors.Is(err, model.ErrKeyNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	list := []T{}
	err = json.Unmarshal([]byte(data), &list)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return list, nil
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (l *LedgerDB) save(ctx context.Context, key string, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	err = l.kv.Set(ctx, key, data)
	if err != nil {
		l.logger.Error("KV write error", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Начальное заполнение: пустые коллекции, карта по умолчанию, демо-клиенты
func (l *LedgerDB) Initialize(ctx context.Context, seed bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, key := range []string{keyCustomers, keyTransactions, keyCampaigns, keyNotifications, keyQRCodes} {
		_, err := l.kv.Get(ctx, key)
		if errors.Is(err, model.ErrKeyNotFound) {
			if err := l.kv.Set(ctx, key, "[]"); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	_, err := l.kv.Get(ctx, keyCardConfig)
	if errors.Is(err, model.ErrKeyNotFound) {
		if err := l.save(ctx, keyCardConfig, model.DefaultCardConfig()); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if !seed {
		return nil
	}
	customers, err := loadList[model.Customer](ctx, l.kv, keyCustomers)
	if err != nil {
		return err
	}
	if len(customers) > 0 {
		return nil
	}
	l.logger.Info("seeding demo customers")
	return l.save(ctx, keyCustomers, demoCustomers())
}

func demoCustomers() []model.Customer {
	day := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	return []model.Customer{
		{
			ID:              "cust_001",
			Name:            "Sarah Johnson",
			Email:           "sarah.j@email.com",
			Phone:           "+1 (555) 123-4567",
			Stamps:          8,
			TotalStamps:     23,
			RewardsRedeemed: 2,
			JoinedDate:      day("2024-01-15"),
			LastVisit:       day("2025-01-03"),
			QRCode:          "QR_SARAH_001",
		},
		{
			ID:              "cust_002",
			Name:            "Michael Chen",
			Email:           "mchen@email.com",
			Phone:           "+1 (555) 234-5678",
			Stamps:          5,
			TotalStamps:     15,
			RewardsRedeemed: 1,
			JoinedDate:      day("2024-02-20"),
			LastVisit:       day("2025-01-04"),
			QRCode:          "QR_MICHAEL_002",
		},
	}
}

// Клиенты

func (l *LedgerDB) GetCustomers(ctx context.Context) ([]model.Customer, error) {
	return loadList[model.Customer](ctx, l.kv, keyCustomers)
}

func (l *LedgerDB) findCustomer(ctx context.Context, match func(c model.Customer) bool) (model.Customer, error) {
	customers, err := l.GetCustomers(ctx)
	if err != nil {
		return model.Customer{}, err
	}
	for _, c := range customers {
		if match(c) {
			return c, nil
		}
	}
	return model.Customer{}, model.ErrCustomerNotFound
}

func (l *LedgerDB) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	return l.findCustomer(ctx, func(c model.Customer) bool { return c.ID == id })
}

func (l *LedgerDB) GetCustomerByQRCode(ctx context.Context, code string) (model.Customer, error) {
	return l.findCustomer(ctx, func(c model.Customer) bool { return c.QRCode == code })
}

func (l *LedgerDB) GetCustomerByContact(ctx context.Context, contact string) (model.Customer, error) {
	return l.findCustomer(ctx, func(c model.Customer) bool { return c.Email == contact || c.Phone == contact })
}

func (l *LedgerDB) AddCustomer(ctx context.Context, customer model.Customer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	customers, err := l.GetCustomers(ctx)
	if err != nil {
		return err
	}
	customers = append(customers, customer)
	return l.save(ctx, keyCustomers, customers)
}

// Транзакции (новые в начале)

func (l *LedgerDB) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	return loadList[model.Transaction](ctx, l.kv, keyTransactions)
}

func (l *LedgerDB) GetCustomerTransactions(ctx context.Context, customerId string) ([]model.Transaction, error) {
	tnxs, err := l.GetTransactions(ctx)
	if err != nil {
		return nil, err
	}
	result := []model.Transaction{}
	for _, t := range tnxs {
		if t.CustomerID == customerId {
			result = append(result, t)
		}
	}
	return result, nil
}

// Запись перехода: клиент, транзакция и уведомление одним SetMany.
// Версия клиента в хранилище должна быть ровно на 1 меньше новой.
func (l *LedgerDB) CommitAccrual(ctx context.Context, acc model.Accrual) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	customers, err := l.GetCustomers(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i, c := range customers {
		if c.ID == acc.Customer.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.ErrCustomerNotFound
	}
	if customers[idx].Version+1 != acc.Customer.Version {
		return fmt.Errorf("customer %s: %w", acc.Customer.ID, model.ErrConflict)
	}
	customers[idx] = acc.Customer

	tnxs, err := l.GetTransactions(ctx)
	if err != nil {
		return err
	}
	tnxs = append([]model.Transaction{acc.Transaction}, tnxs...)

	values := make(map[string]string, 3)
	if values[keyCustomers], err = encode(customers); err != nil {
		return err
	}
	if values[keyTransactions], err = encode(tnxs); err != nil {
		return err
	}
	if acc.Notification != nil {
		notifications, err := l.GetNotifications(ctx, "")
		if err != nil {
			return err
		}
		notifications = append([]model.Notification{*acc.Notification}, notifications...)
		if values[keyNotifications], err = encode(notifications); err != nil {
			return err
		}
	}

	err = l.kv.SetMany(ctx, values)
	if err != nil {
		l.logger.Error("commit accrual error",
			zap.String("customer", acc.Customer.ID),
			zap.String("transaction", acc.Transaction.ID),
			zap.Error(err))
	}
	return err
}

// Настройки карты

func (l *LedgerDB) GetCardConfig(ctx context.Context) (model.CardConfig, error) {
	data, err := l.kv.Get(ctx, keyCardConfig)
	if errors.Is(err, model.ErrKeyNotFound) {
		return model.DefaultCardConfig(), nil
	}
	if err != nil {
		return model.CardConfig{}, err
	}
	var cfg model.CardConfig
	err = json.Unmarshal([]byte(data), &cfg)
	if err != nil {
		return model.CardConfig{}, fmt.Errorf("decode %s: %w", keyCardConfig, err)
	}
	return cfg, nil
}

func (l *LedgerDB) UpdateCardConfig(ctx context.Context, cfg model.CardConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save(ctx, keyCardConfig, cfg)
}

// Уведомления

// customerId == "" - все уведомления
func (l *LedgerDB) GetNotifications(ctx context.Context, customerId string) ([]model.Notification, error) {
	notifications, err := loadList[model.Notification](ctx, l.kv, keyNotifications)
	if err != nil || customerId == "" {
		return notifications, err
	}
	result := []model.Notification{}
	for _, n := range notifications {
		if n.CustomerID == customerId {
			result = append(result, n)
		}
	}
	return result, nil
}

func (l *LedgerDB) AddNotifications(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	all, err := l.GetNotifications(ctx, "")
	if err != nil {
		return err
	}
	// последнее добавленное - первым
	head := make([]model.Notification, 0, len(notifications)+len(all))
	for i := len(notifications) - 1; i >= 0; i-- {
		head = append(head, notifications[i])
	}
	return l.save(ctx, keyNotifications, append(head, all...))
}

func (l *LedgerDB) MarkNotificationRead(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	all, err := l.GetNotifications(ctx, "")
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == id {
			if all[i].Read {
				return nil
			}
			all[i].Read = true
			return l.save(ctx, keyNotifications, all)
		}
	}
	return fmt.Errorf("notification %s %w", id, model.ErrNotFound)
}

// Рассылки

func (l *LedgerDB) GetCampaigns(ctx context.Context) ([]model.Campaign, error) {
	return loadList[model.Campaign](ctx, l.kv, keyCampaigns)
}

func (l *LedgerDB) AddCampaign(ctx context.Context, campaign model.Campaign) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	campaigns, err := l.GetCampaigns(ctx)
	if err != nil {
		return err
	}
	return l.save(ctx, keyCampaigns, append([]model.Campaign{campaign}, campaigns...))
}

// QR коды

func (l *LedgerDB) GetQRCodes(ctx context.Context) ([]model.QRCode, error) {
	return loadList[model.QRCode](ctx, l.kv, keyQRCodes)
}

func (l *LedgerDB) GetQRCode(ctx context.Context, id string) (model.QRCode, error) {
	qrs, err := l.GetQRCodes(ctx)
	if err != nil {
		return model.QRCode{}, err
	}
	for _, qr := range qrs {
		if qr.ID == id {
			return qr, nil
		}
	}
	return model.QRCode{}, fmt.Errorf("qr code %s %w", id, model.ErrNotFound)
}

func (l *LedgerDB) AddQRCode(ctx context.Context, qr model.QRCode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	qrs, err := l.GetQRCodes(ctx)
	if err != nil {
		return err
	}
	return l.save(ctx, keyQRCodes, append([]model.QRCode{qr}, qrs...))
}

// Частичное обновление: update меняет запись, ошибка из update отменяет запись
func (l *LedgerDB) UpdateQRCode(ctx context.Context, id string, update func(qr *model.QRCode) error) (model.QRCode, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	qrs, err := l.GetQRCodes(ctx)
	if err != nil {
		return model.QRCode{}, err
	}
	for i := range qrs {
		if qrs[i].ID != id {
			continue
		}
		qr := qrs[i]
		if err := update(&qr); err != nil {
			return model.QRCode{}, err
		}
		qr.ID = id
		qrs[i] = qr
		return qr, l.save(ctx, keyQRCodes, qrs)
	}
	return model.QRCode{}, fmt.Errorf("qr code %s %w", id, model.ErrNotFound)
}

func (l *LedgerDB) DeleteQRCode(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	qrs, err := l.GetQRCodes(ctx)
	if err != nil {
		return err
	}
	filtered := make([]model.QRCode, 0, len(qrs))
	for _, qr := range qrs {
		if qr.ID != id {
			filtered = append(filtered, qr)
		}
	}
	if len(filtered) == len(qrs) {
		return fmt.Errorf("qr code %s %w", id, model.ErrNotFound)
	}
	return l.save(ctx, keyQRCodes, filtered)
}

// Скан кода из реестра: неактивный код не считается
func (l *LedgerDB) RegisterScan(ctx context.Context, code string, now time.Time) (model.QRCode, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	qrs, err := l.GetQRCodes(ctx)
	if err != nil {
		return model.QRCode{}, err
	}
	for i := range qrs {
		if qrs[i].Code != code {
			continue
		}
		if !qrs[i].Usable(now) {
			return qrs[i], fmt.Errorf("qr code %s: %w", code, model.ErrCodeInactive)
		}
		qrs[i].ScansCount++
		return qrs[i], l.save(ctx, keyQRCodes, qrs)
	}
	return model.QRCode{}, fmt.Errorf("qr code %s %w", code, model.ErrNotFound)
}

// Снимок всех коллекций только для чтения (экспорт)
func (l *LedgerDB) Snapshot(ctx context.Context) (map[string]json.RawMessage, error) {
	keys, err := l.kv.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, err
	}
	snapshot := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		data, err := l.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, model.ErrKeyNotFound) {
				continue
			}
			return nil, err
		}
		snapshot[key] = json.RawMessage(data)
	}
	return snapshot, nil
}
