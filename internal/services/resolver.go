package stamps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	interf "github.com/glkeru/loyalty/stamps/internal/interfaces"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Результат распознавания кода
type Resolution struct {
	Customer model.Customer `json:"customer"`
	QRCode   *model.QRCode  `json:"qrCode,omitempty"` // nil для персонального кода
	Amount   int            `json:"amount"`           // штампов за скан
}

type IdentityResolver struct {
	db     interf.ResolverStorage
	clock  interf.Clock
	logger *zap.Logger
}

func NewIdentityResolver(db interf.ResolverStorage, clock interf.Clock, logger *zap.Logger) *IdentityResolver {
	return &IdentityResolver{db, clock, logger}
}

// Код клиента или код из реестра -> клиент.
// Штампы не меняются, у кода из реестра растет только scansCount.
func (r *IdentityResolver) Resolve(ctx context.Context, code string) (*Resolution, error) {
	ctx, span := tracer.Start(ctx, "Resolve")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, model.NewValidationError("code", "is required")
	}
	span.SetAttributes(attribute.String("code", code))

	// персональный код
	customer, err := r.db.GetCustomerByQRCode(ctx, code)
	if err == nil {
		scansTotal.WithLabelValues("customer").Inc()
		return &Resolution{Customer: customer, Amount: 1}, nil
	}
	if !errors.Is(err, model.ErrCustomerNotFound) {
		return nil, err
	}

	// код из реестра
	qr, err := r.db.RegisterScan(ctx, code, r.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			scansTotal.WithLabelValues("unknown").Inc()
			return nil, fmt.Errorf("code %q: %w", code, model.ErrCustomerNotFound)
		case errors.Is(err, model.ErrCodeInactive):
			scansTotal.WithLabelValues("inactive").Inc()
		default:
			r.logger.Error("Resolve", zap.String("code", code), zap.Error(err))
		}
		return nil, err
	}
	scansTotal.WithLabelValues("registry").Inc()

	if qr.AssignedTo == "" {
		return nil, fmt.Errorf("code %q is not assigned: %w", code, model.ErrCustomerNotFound)
	}
	customer, err = r.db.GetCustomer(ctx, qr.AssignedTo)
	if err != nil {
		return nil, fmt.Errorf("code %q: %w", code, err)
	}
	return &Resolution{Customer: customer, QRCode: &qr, Amount: qr.Amount()}, nil
}
