package stamps

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	db "github.com/glkeru/loyalty/stamps/internal/db"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Последовательные ID для проверок
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

func (s *seqIDs) NewID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, s.next())
}

func (s *seqIDs) CustomerCode(customerId string) string {
	return "QR_" + strings.ToUpper(customerId)
}

func (s *seqIDs) RegistryCode(t model.QRType) string {
	return fmt.Sprintf("QR_%s_%d", strings.ToUpper(string(t)), s.next())
}

type testEnv struct {
	ledger    *db.LedgerDB
	clock     *fixedClock
	ids       *seqIDs
	engine    *AccrualEngine
	resolver  *IdentityResolver
	notifier  *Notifier
	registry  *Registry
	customers *CustomerService
	stats     *StatsService
}

func newTestEnv(t *testing.T, stampsRequired int, customers ...model.Customer) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	ledger := db.NewLedgerDB(db.NewMemoryKV(), logger)
	require.NoError(t, ledger.Initialize(ctx, false))
	cfg := model.DefaultCardConfig()
	cfg.StampsRequired = stampsRequired
	require.NoError(t, ledger.UpdateCardConfig(ctx, cfg))
	for _, c := range customers {
		require.NoError(t, ledger.AddCustomer(ctx, c))
	}

	env := &testEnv{
		ledger: ledger,
		clock:  &fixedClock{now: testNow},
		ids:    &seqIDs{},
	}
	env.resolver = NewIdentityResolver(ledger, env.clock, logger)
	env.notifier = NewNotifier(ledger, env.clock, env.ids, 4, logger)
	env.engine = NewAccrualEngine(ledger, env.resolver, env.notifier, env.clock, env.ids, logger)
	env.registry = NewRegistry(ledger, env.clock, env.ids, logger)
	env.customers = NewCustomerService(ledger, env.clock, env.ids, logger)
	env.stats = NewStatsService(ledger, env.clock)
	return env
}

func newCustomer(id string, stamps int) model.Customer {
	return model.Customer{
		ID:         id,
		Name:       "Customer " + id,
		Email:      id + "@example.com",
		Phone:      "+1 555 " + id,
		Stamps:     stamps,
		JoinedDate: testNow.AddDate(0, -1, 0),
		LastVisit:  testNow.AddDate(0, 0, -3),
		QRCode:     "QR_" + strings.ToUpper(id),
	}
}

// Текущая запись клиента из хранилища
func (e *testEnv) customer(t *testing.T, id string) model.Customer {
	t.Helper()
	c, err := e.ledger.GetCustomer(context.Background(), id)
	require.NoError(t, err)
	return c
}

// Публикатор, запоминающий события
type recorder struct {
	mu            sync.Mutex
	transactions  []model.Transaction
	notifications []model.Notification
	err           error
}

func (r *recorder) PublishTransaction(ctx context.Context, tnx model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, tnx)
	return r.err
}

func (r *recorder) PublishNotification(ctx context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
	return r.err
}
