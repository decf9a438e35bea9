package stamps

import (
	"context"
	"time"

	interf "github.com/glkeru/loyalty/stamps/internal/interfaces"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"golang.org/x/sync/errgroup"
)

// Сводки для экранов продавца и администратора
type StatsService struct {
	db    interf.CustomerStorage
	clock interf.Clock
}

func NewStatsService(db interf.CustomerStorage, clock interf.Clock) *StatsService {
	return &StatsService{db, clock}
}

type DailySummary struct {
	Date            string              `json:"date"`
	StampsGiven     int                 `json:"stampsGiven"`
	RewardsRedeemed int                 `json:"rewardsRedeemed"`
	Transactions    []model.Transaction `json:"transactions"`
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Итоги текущего дня (UTC)
func (s *StatsService) Today(ctx context.Context) (DailySummary, error) {
	tnxs, err := s.db.GetTransactions(ctx)
	if err != nil {
		return DailySummary{}, err
	}
	now := s.clock.Now()
	summary := DailySummary{Date: now.UTC().Format(dateLayout), Transactions: []model.Transaction{}}
	for _, t := range tnxs {
		if !sameDay(t.Timestamp, now) {
			continue
		}
		summary.Transactions = append(summary.Transactions, t)
		switch t.Type {
		case model.EARN:
			summary.StampsGiven += t.Stamps
		case model.REDEEM:
			summary.RewardsRedeemed++
		}
	}
	return summary, nil
}

type Overview struct {
	Customers       int     `json:"customers"`
	ActiveCustomers int     `json:"activeCustomers"`
	TotalStamps     int     `json:"totalStamps"`
	RewardsRedeemed int     `json:"rewardsRedeemed"`
	AverageStamps   float64 `json:"averageStamps"`
	Transactions    int     `json:"transactions"`
}

func (s *StatsService) Overview(ctx context.Context) (Overview, error) {
	var customers []model.Customer
	var tnxs []model.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		customers, err = s.db.GetCustomers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tnxs, err = s.db.GetTransactions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	o := Overview{Customers: len(customers), Transactions: len(tnxs)}
	current := 0
	for _, c := range customers {
		if c.Stamps > 0 {
			o.ActiveCustomers++
		}
		current += c.Stamps
		o.TotalStamps += c.TotalStamps
		o.RewardsRedeemed += c.RewardsRedeemed
	}
	if len(customers) > 0 {
		o.AverageStamps = float64(current) / float64(len(customers))
	}
	return o, nil
}
