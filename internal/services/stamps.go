package stamps

import (
	interf "github.com/glkeru/loyalty/stamps/internal/interfaces"
	"go.uber.org/zap"
)

// Все сервисы поверх одного хранилища
type Stamps struct {
	Engine    *AccrualEngine
	Resolver  *IdentityResolver
	Customers *CustomerService
	Notifier  *Notifier
	Registry  *Registry
	Stats     *StatsService
}

func NewStamps(db interf.LedgerStorage, clock interf.Clock, ids interf.IDGenerator, workers int, logger *zap.Logger) *Stamps {
	resolver := NewIdentityResolver(db, clock, logger)
	notifier := NewNotifier(db, clock, ids, workers, logger)
	return &Stamps{
		Engine:    NewAccrualEngine(db, resolver, notifier, clock, ids, logger),
		Resolver:  resolver,
		Customers: NewCustomerService(db, clock, ids, logger),
		Notifier:  notifier,
		Registry:  NewRegistry(db, clock, ids, logger),
		Stats:     NewStatsService(db, clock),
	}
}
