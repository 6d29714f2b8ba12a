package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitewave/go-food-ordering-api/internal/model"
)

func TestPaymentService_ApplyProviderStatus_CreatesRowOnFirstReport(t *testing.T) {
	paymentRepo := newMockPaymentRepo()
	orderRepo := newMockOrderRepo()
	svc := NewPaymentService(paymentRepo, orderRepo, "UZS")
	ctx := context.Background()

	order := seedOrder(t, orderRepo, uuid.New(), model.OrderStatusPending)

	err := svc.ApplyProviderStatus(ctx, order.ID, model.PaymentStatusPaid, "ext-123", "")
	require.NoError(t, err)

	payment, err := paymentRepo.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, model.PaymentStatusPaid, payment.Status)
	assert.Equal(t, "ext-123", payment.ExternalPaymentID)
	assert.Equal(t, "UZS", payment.Currency)
	assert.True(t, order.TotalAmount.Equal(payment.Amount))

	stored, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, "ext-123", stored.PaymentID)
}

func TestPaymentService_ApplyProviderStatus_UpdatesExistingRow(t *testing.T) {
	paymentRepo := newMockPaymentRepo()
	orderRepo := newMockOrderRepo()
	svc := NewPaymentService(paymentRepo, orderRepo, "UZS")
	ctx := context.Background()

	order := seedOrder(t, orderRepo, uuid.New(), model.OrderStatusPending)

	require.NoError(t, svc.ApplyProviderStatus(ctx, order.ID, model.PaymentStatusPending, "ext-123", ""))
	require.NoError(t, svc.ApplyProviderStatus(ctx, order.ID, model.PaymentStatusFailed, "ext-123", "card declined"))

	require.Len(t, paymentRepo.payments, 1)
	payment, err := paymentRepo.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, payment.Status)
	assert.Equal(t, "card declined", payment.FailureReason)
}

func TestPaymentService_ApplyProviderStatus_UnknownOrder(t *testing.T) {
	svc := NewPaymentService(newMockPaymentRepo(), newMockOrderRepo(), "UZS")
	err := svc.ApplyProviderStatus(context.Background(), uuid.New(), model.PaymentStatusPaid, "", "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPaymentService_ForOrder_OwnershipEnforced(t *testing.T) {
	paymentRepo := newMockPaymentRepo()
	orderRepo := newMockOrderRepo()
	svc := NewPaymentService(paymentRepo, orderRepo, "UZS")
	ctx := context.Background()
	userID := uuid.New()

	order := seedOrder(t, orderRepo, userID, model.OrderStatusPending)
	require.NoError(t, svc.ApplyProviderStatus(ctx, order.ID, model.PaymentStatusPaid, "ext-1", ""))

	payment, err := svc.ForOrder(ctx, order.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, payment)

	_, err = svc.ForOrder(ctx, order.ID, uuid.New())
	assert.ErrorIs(t, err, ErrOrderAccessDenied)
}
