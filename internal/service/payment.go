package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bitewave/go-food-ordering-api/internal/model"
	"github.com/bitewave/go-food-ordering-api/internal/repository"
)

type PaymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	currency    string
}

func NewPaymentService(paymentRepo repository.PaymentRepository, orderRepo repository.OrderRepository, currency string) *PaymentService {
	return &PaymentService{paymentRepo: paymentRepo, orderRepo: orderRepo, currency: currency}
}

// ApplyProviderStatus records a payment status reported by the
// provider webhook and mirrors it onto the order. The first report for
// an order creates its payment row.
func (s *PaymentService) ApplyProviderStatus(ctx context.Context, orderID uuid.UUID, status model.PaymentStatus, externalID, failureReason string) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("apply payment status: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}

	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("apply payment status: %w", err)
	}
	if payment == nil {
		payment = &model.Payment{
			OrderID:           orderID,
			PaymentMethod:     order.PaymentMethod,
			Amount:            order.TotalAmount,
			Currency:          s.currency,
			Status:            status,
			ExternalPaymentID: externalID,
			FailureReason:     failureReason,
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return fmt.Errorf("apply payment status: %w", err)
		}
	} else if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, status, externalID, failureReason); err != nil {
		return fmt.Errorf("apply payment status: %w", err)
	}

	if err := s.orderRepo.UpdatePaymentStatus(ctx, orderID, status, externalID); err != nil {
		return fmt.Errorf("apply payment status: %w", err)
	}
	return nil
}

func (s *PaymentService) ForOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Payment, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return payment, nil
}
