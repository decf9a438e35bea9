package stamps

import (
	"context"
	"testing"
	"time"

	model "github.com/glkeru/loyalty/stamps/internal/models"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 10, newCustomer("c1", 0))

	qr, err := env.registry.Create(ctx, QRCodeInput{Name: ptr(" Front desk "), Description: ptr("Counter sticker")})
	require.NoError(t, err)
	require.Equal(t, "Front desk", qr.Name)
	require.Equal(t, model.QRCustomer, qr.Type)
	require.Equal(t, 1, qr.StampsPerScan)
	require.True(t, qr.IsActive)
	require.Equal(t, 0, qr.ScansCount)
	require.Contains(t, qr.Code, "QR_CUSTOMER_")
	require.True(t, testNow.Equal(qr.CreatedAt))

	invalid := []QRCodeInput{
		{},
		{Name: ptr("  ")},
		{Name: ptr("x"), Type: ptr(model.QRType("coupon"))},
		{Name: ptr("x"), StampsPerScan: ptr(0)},
		{Name: ptr("x"), StampsPerScan: ptr(MaxAward + 1)},
	}
	for _, in := range invalid {
		_, err := env.registry.Create(ctx, in)
		require.ErrorIs(t, err, model.ErrValidation)
	}
	_, err = env.registry.Create(ctx, QRCodeInput{Name: ptr("x"), AssignedTo: ptr("ghost")})
	require.ErrorIs(t, err, model.ErrCustomerNotFound)

	qrs, err := env.registry.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, qrs, 1)
}

func TestRegistryUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 10, newCustomer("c1", 0))
	qr, err := env.registry.Create(ctx, QRCodeInput{Name: ptr("Promo"), AssignedTo: ptr("c1")})
	require.NoError(t, err)
	_, err = env.engine.Scan(ctx, qr.Code, "")
	require.NoError(t, err)

	expires := testNow.Add(48 * time.Hour)
	updated, err := env.registry.Update(ctx, qr.ID, QRCodeInput{
		Type:          ptr(model.QREvent),
		StampsPerScan: ptr(3),
		AssignedTo:    ptr(""),
		ExpiresAt:     &expires,
	})
	require.NoError(t, err)
	require.Equal(t, qr.Code, updated.Code)
	require.Equal(t, qr.ID, updated.ID)
	require.Equal(t, "Promo", updated.Name)
	require.Equal(t, model.QREvent, updated.Type)
	require.Equal(t, 3, updated.StampsPerScan)
	require.Empty(t, updated.AssignedTo)
	require.Equal(t, 1, updated.ScansCount)
	require.NotNil(t, updated.ExpiresAt)

	// ошибка проверки не меняет запись
	_, err = env.registry.Update(ctx, qr.ID, QRCodeInput{Name: ptr(""), StampsPerScan: ptr(5)})
	require.ErrorIs(t, err, model.ErrValidation)
	stored, err := env.registry.Get(ctx, qr.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stored.StampsPerScan)

	_, err = env.registry.Update(ctx, "qr_missing", QRCodeInput{Name: ptr("x")})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestRegistryToggleAndDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 10)
	qr, err := env.registry.Create(ctx, QRCodeInput{Name: ptr("Card")})
	require.NoError(t, err)

	off, err := env.registry.Toggle(ctx, qr.ID)
	require.NoError(t, err)
	require.False(t, off.IsActive)
	on, err := env.registry.Toggle(ctx, qr.ID)
	require.NoError(t, err)
	require.True(t, on.IsActive)

	require.NoError(t, env.registry.Delete(ctx, qr.ID))
	_, err = env.registry.Get(ctx, qr.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
	require.ErrorIs(t, env.registry.Delete(ctx, qr.ID), model.ErrNotFound)
}

func TestRegistryListAndStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 10, newCustomer("c1", 0))

	a, err := env.registry.Create(ctx, QRCodeInput{Name: ptr("Summer campaign"), Type: ptr(model.QRCampaign), AssignedTo: ptr("c1")})
	require.NoError(t, err)
	b, err := env.registry.Create(ctx, QRCodeInput{Name: ptr("Loyalty card"), Type: ptr(model.QRCard)})
	require.NoError(t, err)
	_, err = env.registry.Create(ctx, QRCodeInput{Name: ptr("Old event"), Type: ptr(model.QREvent), ExpiresAt: ptr(testNow.Add(-time.Hour))})
	require.NoError(t, err)

	_, err = env.engine.Scan(ctx, a.Code, "")
	require.NoError(t, err)
	_, err = env.engine.Scan(ctx, a.Code, "")
	require.NoError(t, err)
	_, err = env.registry.Toggle(ctx, b.ID)
	require.NoError(t, err)

	found, err := env.registry.List(ctx, "SUMMER")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, a.ID, found[0].ID)

	found, err = env.registry.List(ctx, "qr_card")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, b.ID, found[0].ID)

	all, err := env.registry.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	stats, err := env.registry.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, RegistryStats{Total: 3, Active: 1, Assigned: 1, TotalScans: 2}, stats)
}
