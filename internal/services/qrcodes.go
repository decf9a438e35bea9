package stamps

import (
	"context"
	"strings"
	"time"

	interf "github.com/glkeru/loyalty/stamps/internal/interfaces"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"go.uber.org/zap"
)

// Реестр QR кодов, которые выпускает администратор
type Registry struct {
	db     interf.QRCodeStorage
	clock  interf.Clock
	ids    interf.IDGenerator
	logger *zap.Logger
}

func NewRegistry(db interf.QRCodeStorage, clock interf.Clock, ids interf.IDGenerator, logger *zap.Logger) *Registry {
	return &Registry{db, clock, ids, logger}
}

// Поля формы. nil - не менять (при обновлении)
type QRCodeInput struct {
	Type          *model.QRType `json:"type"`
	Name          *string       `json:"name"`
	Description   *string       `json:"description"`
	AssignedTo    *string       `json:"assignedTo"`
	CardID        *string       `json:"cardId"`
	StampsPerScan *int          `json:"stampsPerScan"`
	ExpiresAt     *time.Time    `json:"expiresAt"`
	IsActive      *bool         `json:"isActive"`
}

func (r *Registry) apply(ctx context.Context, qr *model.QRCode, in QRCodeInput) error {
	if in.Type != nil {
		if !in.Type.Valid() {
			return model.NewValidationError("type", "must be customer, campaign, card or event")
		}
		qr.Type = *in.Type
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return model.NewValidationError("name", "is required")
		}
		qr.Name = name
	}
	if in.Description != nil {
		qr.Description = strings.TrimSpace(*in.Description)
	}
	if in.AssignedTo != nil {
		assigned := strings.TrimSpace(*in.AssignedTo)
		if assigned != "" {
			_, err := r.db.GetCustomer(ctx, assigned)
			if err != nil {
				return err
			}
		}
		qr.AssignedTo = assigned
	}
	if in.CardID != nil {
		qr.CardID = *in.CardID
	}
	if in.StampsPerScan != nil {
		if err := validAmount("stampsPerScan", *in.StampsPerScan); err != nil {
			return err
		}
		qr.StampsPerScan = *in.StampsPerScan
	}
	if in.ExpiresAt != nil {
		if in.ExpiresAt.IsZero() {
			qr.ExpiresAt = nil
		} else {
			at := *in.ExpiresAt
			qr.ExpiresAt = &at
		}
	}
	if in.IsActive != nil {
		qr.IsActive = *in.IsActive
	}
	return nil
}

// Новый код: активен, 1 штамп за скан по умолчанию
func (r *Registry) Create(ctx context.Context, in QRCodeInput) (model.QRCode, error) {
	if in.Name == nil {
		return model.QRCode{}, model.NewValidationError("name", "is required")
	}
	qr := model.QRCode{
		Type:          model.QRCustomer,
		StampsPerScan: 1,
		IsActive:      true,
		CreatedAt:     r.clock.Now(),
	}
	err := r.apply(ctx, &qr, in)
	if err != nil {
		return model.QRCode{}, err
	}
	qr.ID = r.ids.NewID("qr")
	qr.Code = r.ids.RegistryCode(qr.Type)

	err = r.db.AddQRCode(ctx, qr)
	if err != nil {
		r.logger.Error("Registry", zap.String("service", "Create"), zap.Error(err))
		return model.QRCode{}, err
	}
	return qr, nil
}

// Код, scansCount и дата создания не меняются
func (r *Registry) Update(ctx context.Context, id string, in QRCodeInput) (model.QRCode, error) {
	return r.db.UpdateQRCode(ctx, id, func(qr *model.QRCode) error {
		return r.apply(ctx, qr, in)
	})
}

func (r *Registry) Toggle(ctx context.Context, id string) (model.QRCode, error) {
	return r.db.UpdateQRCode(ctx, id, func(qr *model.QRCode) error {
		qr.IsActive = !qr.IsActive
		return nil
	})
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	return r.db.DeleteQRCode(ctx, id)
}

func (r *Registry) Get(ctx context.Context, id string) (model.QRCode, error) {
	return r.db.GetQRCode(ctx, id)
}

// Поиск по названию или коду без учета регистра
func (r *Registry) List(ctx context.Context, search string) ([]model.QRCode, error) {
	qrs, err := r.db.GetQRCodes(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return qrs, nil
	}
	result := []model.QRCode{}
	for _, qr := range qrs {
		if strings.Contains(strings.ToLower(qr.Name), search) || strings.Contains(strings.ToLower(qr.Code), search) {
			result = append(result, qr)
		}
	}
	return result, nil
}

type RegistryStats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Assigned   int `json:"assigned"`
	TotalScans int `json:"totalScans"`
}

func (r *Registry) Stats(ctx context.Context) (RegistryStats, error) {
	qrs, err := r.db.GetQRCodes(ctx)
	if err != nil {
		return RegistryStats{}, err
	}
	now := r.clock.Now()
	stats := RegistryStats{Total: len(qrs)}
	for _, qr := range qrs {
		if qr.Usable(now) {
			stats.Active++
		}
		if qr.AssignedTo != "" {
			stats.Assigned++
		}
		stats.TotalScans += qr.ScansCount
	}
	return stats, nil
}
