package stamps

import (
	"context"
	"fmt"
	"strings"
	"time"

	interf "github.com/glkeru/loyalty/stamps/internal/interfaces"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Уведомления: награды, личные сообщения и рассылки.
// Отправлено = записано в хранилище, внешний транспорт необязателен.
type Notifier struct {
	db        interf.NotificationStorage
	publisher interf.NotificationPublisher
	clock     interf.Clock
	ids       interf.IDGenerator
	workers   int
	logger    *zap.Logger
}

func NewNotifier(db interf.NotificationStorage, clock interf.Clock, ids interf.IDGenerator, workers int, logger *zap.Logger) *Notifier {
	if workers < 1 {
		workers = 1
	}
	return &Notifier{db: db, clock: clock, ids: ids, workers: workers, logger: logger}
}

func (n *Notifier) SetPublisher(p interf.NotificationPublisher) {
	n.publisher = p
}

func (n *Notifier) Log(service string, err error) {
	n.logger.Error("Notifier",
		zap.String("service", service),
		zap.Error(err),
	)
}

func rewardNotification(id, customerId string, cfg model.CardConfig, at time.Time) model.Notification {
	return model.Notification{
		ID:         id,
		CustomerID: customerId,
		Title:      "Reward Earned!",
		Message:    fmt.Sprintf("Congratulations! You've earned a %s. Your stamps have been reset.", cfg.RewardDescription),
		Type:       model.NotifyReward,
		CreatedAt:  at,
	}
}

// Доставка во внешний транспорт. Ошибка доставки не отменяет запись
func (n *Notifier) Publish(ctx context.Context, notification model.Notification) {
	if n.publisher == nil {
		return
	}
	err := n.publisher.PublishNotification(ctx, notification)
	if err != nil {
		n.Log("Publish", fmt.Errorf("notification %s: %w", notification.ID, err))
	}
}

// Личное сообщение клиенту
func (n *Notifier) Send(ctx context.Context, customerId, title, message string) (model.Notification, error) {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" {
		return model.Notification{}, model.NewValidationError("title", "is required")
	}
	if message == "" {
		return model.Notification{}, model.NewValidationError("message", "is required")
	}
	_, err := n.db.GetCustomer(ctx, customerId)
	if err != nil {
		return model.Notification{}, err
	}

	notification := model.Notification{
		ID:         n.ids.NewID("notif"),
		CustomerID: customerId,
		Title:      title,
		Message:    message,
		Type:       model.NotifyCampaign,
		CreatedAt:  n.clock.Now(),
	}
	err = n.db.AddNotifications(ctx, []model.Notification{notification})
	if err != nil {
		return model.Notification{}, err
	}
	n.Publish(ctx, notification)
	return notification, nil
}

// Запрос на рассылку
type CampaignRequest struct {
	Title   string                `json:"title"`
	Message string                `json:"message"`
	Channel model.CampaignChannel `json:"type"`
	Segment string                `json:"segment"`
	Custom  *model.Segment        `json:"custom,omitempty"` // свои критерии вместо предопределенного сегмента
}

func (r CampaignRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return model.NewValidationError("title", "is required")
	}
	if strings.TrimSpace(r.Message) == "" {
		return model.NewValidationError("message", "is required")
	}
	switch r.Channel {
	case model.ChannelPush, model.ChannelEmail, "":
	default:
		return model.NewValidationError("type", "must be push or email")
	}
	return nil
}

func (r CampaignRequest) segment() (model.Segment, error) {
	if r.Custom != nil {
		if r.Custom.Name == "" {
			r.Custom.Name = "custom"
		}
		return *r.Custom, nil
	}
	name := r.Segment
	if name == "" {
		name = model.SegmentAll
	}
	s, ok := model.Segments[name]
	if !ok {
		return model.Segment{}, model.NewValidationError("segment", fmt.Sprintf("unknown segment %q", name))
	}
	return s, nil
}

func (r CampaignRequest) campaign(id string, status model.CampaignStatus, segment string, at time.Time) model.Campaign {
	channel := r.Channel
	if channel == "" {
		channel = model.ChannelPush
	}
	return model.Campaign{
		ID:      id,
		Title:   strings.TrimSpace(r.Title),
		Message: strings.TrimSpace(r.Message),
		Type:    channel,
		Status:  status,
		Segment: segment,
		SentAt:  at,
	}
}

// Клиенты сегмента. Условия проверяются параллельно, порядок клиентов сохраняется
func (n *Notifier) Audience(ctx context.Context, segment model.Segment) ([]model.Customer, error) {
	customers, err := n.db.GetCustomers(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := n.db.GetCardConfig(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]bool, len(customers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)
	for i, c := range customers {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			ok, err := matchSegment(segment, customerFields(c, cfg))
			if err != nil {
				return model.NewValidationError("segment", err.Error())
			}
			matched[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]model.Customer, 0, len(customers))
	for i, c := range customers {
		if matched[i] {
			result = append(result, c)
		}
	}
	return result, nil
}

// Рассылка: по уведомлению на каждого клиента сегмента + запись кампании
func (n *Notifier) Broadcast(ctx context.Context, req CampaignRequest) (model.Campaign, error) {
	ctx, span := tracer.Start(ctx, "Broadcast")
	defer span.End()

	if err := req.validate(); err != nil {
		return model.Campaign{}, err
	}
	segment, err := req.segment()
	if err != nil {
		return model.Campaign{}, err
	}
	audience, err := n.Audience(ctx, segment)
	if err != nil {
		return model.Campaign{}, err
	}

	now := n.clock.Now()
	notifications := make([]model.Notification, 0, len(audience))
	for _, c := range audience {
		notifications = append(notifications, model.Notification{
			ID:         n.ids.NewID("notif"),
			CustomerID: c.ID,
			Title:      strings.TrimSpace(req.Title),
			Message:    strings.TrimSpace(req.Message),
			Type:       model.NotifyCampaign,
			CreatedAt:  now,
		})
	}
	err = n.db.AddNotifications(ctx, notifications)
	if err != nil {
		n.Log("Broadcast", err)
		return model.Campaign{}, err
	}

	campaign := req.campaign(n.ids.NewID("camp"), model.CampaignSent, segment.Name, now)
	campaign.Recipients = len(notifications)
	err = n.db.AddCampaign(ctx, campaign)
	if err != nil {
		n.Log("Broadcast", err)
		return model.Campaign{}, err
	}

	for _, notification := range notifications {
		n.Publish(ctx, notification)
	}
	return campaign, nil
}

// Отложенная рассылка: только запись кампании, без уведомлений
func (n *Notifier) Schedule(ctx context.Context, req CampaignRequest, at time.Time) (model.Campaign, error) {
	if err := req.validate(); err != nil {
		return model.Campaign{}, err
	}
	segment, err := req.segment()
	if err != nil {
		return model.Campaign{}, err
	}
	if !at.After(n.clock.Now()) {
		return model.Campaign{}, model.NewValidationError("sentAt", "must be in the future")
	}
	campaign := req.campaign(n.ids.NewID("camp"), model.CampaignScheduled, segment.Name, at)
	err = n.db.AddCampaign(ctx, campaign)
	if err != nil {
		return model.Campaign{}, err
	}
	return campaign, nil
}

func (n *Notifier) Campaigns(ctx context.Context) ([]model.Campaign, error) {
	return n.db.GetCampaigns(ctx)
}

func (n *Notifier) List(ctx context.Context, customerId string) ([]model.Notification, error) {
	return n.db.GetNotifications(ctx, customerId)
}

func (n *Notifier) UnreadCount(ctx context.Context, customerId string) (int, error) {
	notifications, err := n.db.GetNotifications(ctx, customerId)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, notification := range notifications {
		if !notification.Read {
			count++
		}
	}
	return count, nil
}

func (n *Notifier) MarkRead(ctx context.Context, id string) error {
	return n.db.MarkNotificationRead(ctx, id)
}
