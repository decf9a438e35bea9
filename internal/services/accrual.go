package stamps

import (
	"context"
	"fmt"
	"time"

	interf "github.com/glkeru/loyalty/stamps/internal/interfaces"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("stamps")

// Состояние карты клиента, выводится из stamps и не хранится
type State int

const (
	Accruing    State = iota // stamps < порога
	RewardReady              // stamps >= порога, сразу схлопывается в Accruing
)

func (s State) String() string {
	if s == RewardReady {
		return "reward_ready"
	}
	return "accruing"
}

func Classify(stamps, threshold int) State {
	if stamps >= threshold {
		return RewardReady
	}
	return Accruing
}

// Излишек сверх порога при выдаче награды сгорает (поведение текущей карты).
// Перенос излишка в следующий цикл - true.
const CarryOverSurplus = false

// Больше штампов за одно начисление не выдается
const MaxAward = 1000

func validAmount(field string, amount int) error {
	if amount < 1 {
		return model.NewValidationError(field, "must be at least 1")
	}
	if amount > MaxAward {
		return model.NewValidationError(field, fmt.Sprintf("must be at most %d", MaxAward))
	}
	return nil
}

func leftover(stamps, threshold int) int {
	if !CarryOverSurplus {
		return 0
	}
	return (stamps - threshold) % threshold
}

// Итог перехода
type AccrualResult struct {
	Customer       model.Customer      `json:"customer"`
	Transaction    model.Transaction   `json:"transaction"`
	Notification   *model.Notification `json:"notification,omitempty"`
	Rewarded       bool                `json:"rewarded"`
	Replayed       bool                `json:"replayed,omitempty"` // запрос уже был выполнен ранее
	StampsRequired int                 `json:"stampsRequired"`
}

type ScanResult struct {
	Resolution *Resolution    `json:"resolution"`
	Accrual    *AccrualResult `json:"accrual"`
}

// Движок начислений: единственное место, где меняются счетчики клиента
type AccrualEngine struct {
	db       interf.AccrualStorage
	resolver *IdentityResolver
	notifier *Notifier
	ledger   interf.LedgerPublisher
	clock    interf.Clock
	ids      interf.IDGenerator
	locks    *keyLocker
	logger   *zap.Logger
}

func NewAccrualEngine(db interf.AccrualStorage, resolver *IdentityResolver, notifier *Notifier, clock interf.Clock, ids interf.IDGenerator, logger *zap.Logger) *AccrualEngine {
	return &AccrualEngine{
		db:       db,
		resolver: resolver,
		notifier: notifier,
		clock:    clock,
		ids:      ids,
		locks:    newKeyLocker(),
		logger:   logger,
	}
}

// Публикация транзакций во внешний поток (kafka)
func (e *AccrualEngine) SetLedgerPublisher(p interf.LedgerPublisher) {
	e.ledger = p
}

func (e *AccrualEngine) Log(service string, err error) {
	e.logger.Error("Accrual Engine",
		zap.String("service", service),
		zap.Error(err),
	)
}

func (e *AccrualEngine) cardConfig(ctx context.Context) (model.CardConfig, error) {
	cfg, err := e.db.GetCardConfig(ctx)
	if err != nil {
		return model.CardConfig{}, err
	}
	if cfg.StampsRequired < 1 {
		return model.CardConfig{}, fmt.Errorf("card config: %w", model.NewValidationError("stampsRequired", "must be at least 1"))
	}
	return cfg, nil
}

// Начисление штампов. При достижении порога - сразу награда и сброс
func (e *AccrualEngine) AwardStamp(ctx context.Context, customerId string, amount int, location string) (*AccrualResult, error) {
	ctx, span := tracer.Start(ctx, "AwardStamp")
	defer span.End()
	span.SetAttributes(attribute.String("customer", customerId), attribute.Int("amount", amount))

	if err := validAmount("amount", amount); err != nil {
		return nil, err
	}
	unlock := e.locks.Lock(customerId)
	defer unlock()

	cfg, err := e.cardConfig(ctx)
	if err != nil {
		return nil, err
	}
	customer, err := e.db.GetCustomer(ctx, customerId)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	next, tnx := applyAward(customer, cfg, amount, now)
	result := e.build(next, tnx, cfg, location)

	err = e.commit(ctx, result)
	if err != nil {
		return nil, err
	}
	stampsAwarded.Add(float64(amount))
	if result.Rewarded {
		rewardsRedeemed.WithLabelValues("threshold").Inc()
	}
	return result, nil
}

// Ручное списание награды: только если штампов >= порога
func (e *AccrualEngine) RedeemManually(ctx context.Context, customerId string, location string) (*AccrualResult, error) {
	ctx, span := tracer.Start(ctx, "RedeemManually")
	defer span.End()
	span.SetAttributes(attribute.String("customer", customerId))

	return e.redeem(ctx, customerId, location, "")
}

// Списание по запросу внешней кассы. Повтор с тем же requestId
// возвращает исходную транзакцию и ничего не меняет
func (e *AccrualEngine) RedeemRequest(ctx context.Context, requestId, customerId, location string) (*AccrualResult, error) {
	ctx, span := tracer.Start(ctx, "RedeemRequest")
	defer span.End()
	span.SetAttributes(attribute.String("customer", customerId), attribute.String("request", requestId))

	return e.redeem(ctx, customerId, location, requestId)
}

func (e *AccrualEngine) redeem(ctx context.Context, customerId, location, requestId string) (*AccrualResult, error) {
	unlock := e.locks.Lock(customerId)
	defer unlock()

	cfg, err := e.cardConfig(ctx)
	if err != nil {
		return nil, err
	}
	customer, err := e.db.GetCustomer(ctx, customerId)
	if err != nil {
		return nil, err
	}
	if requestId != "" {
		prev, err := e.findRequest(ctx, customerId, requestId)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			return &AccrualResult{
				Customer:       customer,
				Transaction:    *prev,
				Rewarded:       true,
				Replayed:       true,
				StampsRequired: cfg.StampsRequired,
			}, nil
		}
	}
	if Classify(customer.Stamps, cfg.StampsRequired) != RewardReady {
		return nil, fmt.Errorf("%w: %d more needed", model.ErrInsufficientStamps, cfg.StampsRequired-customer.Stamps)
	}

	next, tnx := applyRedeem(customer, cfg, e.clock.Now())
	tnx.RequestID = requestId
	result := e.build(next, tnx, cfg, location)

	err = e.commit(ctx, result)
	if err != nil {
		return nil, err
	}
	rewardsRedeemed.WithLabelValues("manual").Inc()
	return result, nil
}

// Ранее записанное списание по тому же запросу
func (e *AccrualEngine) findRequest(ctx context.Context, customerId, requestId string) (*model.Transaction, error) {
	tnxs, err := e.db.GetCustomerTransactions(ctx, customerId)
	if err != nil {
		return nil, err
	}
	for _, t := range tnxs {
		if t.Type == model.REDEEM && t.RequestID == requestId {
			return &t, nil
		}
	}
	return nil, nil
}

// Скан кода и начисление штампов за него
func (e *AccrualEngine) Scan(ctx context.Context, code string, location string) (*ScanResult, error) {
	resolution, err := e.resolver.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	accrual, err := e.AwardStamp(ctx, resolution.Customer.ID, resolution.Amount, location)
	if err != nil {
		return &ScanResult{Resolution: resolution}, err
	}
	return &ScanResult{Resolution: resolution, Accrual: accrual}, nil
}

func applyAward(c model.Customer, cfg model.CardConfig, amount int, now time.Time) (model.Customer, model.Transaction) {
	tentative := c.Stamps + amount
	next := c
	next.TotalStamps += amount
	next.LastVisit = now
	next.Version++

	if Classify(tentative, cfg.StampsRequired) == RewardReady {
		next.Stamps = leftover(tentative, cfg.StampsRequired)
		next.RewardsRedeemed++
		return next, model.Transaction{Type: model.REDEEM, Stamps: cfg.StampsRequired, Earned: amount, Timestamp: now}
	}
	next.Stamps = tentative
	return next, model.Transaction{Type: model.EARN, Stamps: amount, Earned: amount, Timestamp: now}
}

func applyRedeem(c model.Customer, cfg model.CardConfig, now time.Time) (model.Customer, model.Transaction) {
	next := c
	next.Stamps = leftover(c.Stamps, cfg.StampsRequired)
	next.RewardsRedeemed++
	next.LastVisit = now
	next.Version++
	return next, model.Transaction{Type: model.REDEEM, Stamps: cfg.StampsRequired, Timestamp: now}
}

func (e *AccrualEngine) build(next model.Customer, tnx model.Transaction, cfg model.CardConfig, location string) *AccrualResult {
	tnx.ID = e.ids.NewID("trans")
	tnx.CustomerID = next.ID
	tnx.CustomerName = next.Name
	tnx.Location = location

	result := &AccrualResult{
		Customer:       next,
		Transaction:    tnx,
		Rewarded:       tnx.Type == model.REDEEM,
		StampsRequired: cfg.StampsRequired,
	}
	if result.Rewarded {
		n := rewardNotification(e.ids.NewID("notif"), next.ID, cfg, tnx.Timestamp)
		result.Notification = &n
	}
	return result
}

// Запись и публикация после успешной записи
func (e *AccrualEngine) commit(ctx context.Context, result *AccrualResult) error {
	err := e.db.CommitAccrual(ctx, model.Accrual{
		Customer:     result.Customer,
		Transaction:  result.Transaction,
		Notification: result.Notification,
	})
	if err != nil {
		e.Log("CommitAccrual", err)
		return err
	}

	if e.ledger != nil {
		if err := e.ledger.PublishTransaction(ctx, result.Transaction); err != nil {
			e.Log("PublishTransaction", err)
		}
	}
	if result.Notification != nil && e.notifier != nil {
		e.notifier.Publish(ctx, *result.Notification)
	}
	return nil
}
