package stamps

import "time"

// Клиент: идентификация + состояние накопления
type Customer struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Stamps          int       `json:"stamps"`          // текущие штампы, 0 <= stamps < StampsRequired
	TotalStamps     int       `json:"totalStamps"`     // всего начислено за все время
	RewardsRedeemed int       `json:"rewardsRedeemed"` // всего получено наград
	JoinedDate      time.Time `json:"joinedDate"`
	LastVisit       time.Time `json:"lastVisit"`
	QRCode          string    `json:"qrCode"`  // персональный код клиента
	Version         int64     `json:"version"` // версия записи, растет при каждом изменении счетчиков
}

// Настройки карты лояльности (одна на программу)
type CardConfig struct {
	ID                string `json:"id"`
	BusinessName      string `json:"businessName"`
	BackgroundColor   string `json:"backgroundColor"`
	TextColor         string `json:"textColor"`
	LogoURL           string `json:"logoUrl,omitempty"`
	StampsRequired    int    `json:"stampsRequired"`
	RewardDescription string `json:"rewardDescription"`
	StampIcon         string `json:"stampIcon"`
}

func DefaultCardConfig() CardConfig {
	return CardConfig{
		ID:                "card_default",
		BusinessName:      "Coffee Haven",
		BackgroundColor:   "#10b981",
		TextColor:         "#ffffff",
		StampsRequired:    10,
		RewardDescription: "Free Coffee",
		StampIcon:         "☕",
	}
}

type TransactionType string

const (
	EARN   TransactionType = "earn"
	REDEEM TransactionType = "redeem"
)

// Транзакция - неизменяемая запись журнала
type Transaction struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customerId"`
	CustomerName string          `json:"customerName,omitempty"`
	Type         TransactionType `json:"type"`
	Stamps       int             `json:"stamps"` // earn: начислено, redeem: списано (= StampsRequired)
	Earned       int             `json:"earned"` // сколько штампов принес скан (0 для ручного списания)
	Timestamp    time.Time       `json:"timestamp"`
	Location     string          `json:"location,omitempty"`
	RequestID    string          `json:"requestId,omitempty"` // запрос внешней кассы, повтор не списывает второй раз
}

type QRType string

const (
	QRCustomer QRType = "customer"
	QRCampaign QRType = "campaign"
	QRCard     QRType = "card"
	QREvent    QRType = "event"
)

func (t QRType) Valid() bool {
	switch t {
	case QRCustomer, QRCampaign, QRCard, QREvent:
		return true
	}
	return false
}

// QR код из реестра (выпускается администратором)
type QRCode struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Type          QRType     `json:"type"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	AssignedTo    string     `json:"assignedTo,omitempty"` // ID клиента
	CardID        string     `json:"cardId,omitempty"`
	StampsPerScan int        `json:"stampsPerScan"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	ScansCount    int        `json:"scansCount"`
}

// Активен ли код на момент now
func (q QRCode) Usable(now time.Time) bool {
	if !q.IsActive {
		return false
	}
	if q.ExpiresAt != nil && !now.Before(*q.ExpiresAt) {
		return false
	}
	return true
}

// Штампов за один скан, не меньше 1
func (q QRCode) Amount() int {
	if q.StampsPerScan < 1 {
		return 1
	}
	return q.StampsPerScan
}

type NotificationType string

const (
	NotifyCampaign NotificationType = "campaign"
	NotifyReward   NotificationType = "reward"
	NotifySystem   NotificationType = "system"
)

type Notification struct {
	ID         string           `json:"id"`
	CustomerID string           `json:"customerId"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	Read       bool             `json:"read"`
	CreatedAt  time.Time        `json:"createdAt"`
}

type CampaignChannel string

const (
	ChannelPush  CampaignChannel = "push"
	ChannelEmail CampaignChannel = "email"
)

type CampaignStatus string

const (
	CampaignSent      CampaignStatus = "sent"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignDraft     CampaignStatus = "draft"
)

// Маркетинговая рассылка
type Campaign struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	Type       CampaignChannel `json:"type"`
	Status     CampaignStatus  `json:"status"`
	Segment    string          `json:"segment"`
	Recipients int             `json:"recipients"`
	OpenRate   float64         `json:"openRate"`
	SentAt     time.Time       `json:"sentAt"`
}

// Результат одного перехода: пишется в хранилище одним блоком
type Accrual struct {
	Customer     Customer
	Transaction  Transaction
	Notification *Notification
}
