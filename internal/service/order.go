package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bitewave/go-food-ordering-api/internal/model"
	"github.com/bitewave/go-food-ordering-api/internal/repository"
)

type OrderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// GetForUser loads an order and enforces ownership.
func (s *OrderService) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) HistoryForUser(ctx context.Context, orderID, userID uuid.UUID) ([]model.OrderStatusHistory, error) {
	if _, err := s.GetForUser(ctx, orderID, userID); err != nil {
		return nil, err
	}
	history, err := s.orderRepo.ListHistory(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	return history, nil
}

// Transition moves an order along the status machine under a row lock,
// stamps the matching timestamp and appends a history row, all in one
// transaction.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, target model.OrderStatus, actorID *uuid.UUID, comment string) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("transition order: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.orderRepo.LockForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("transition order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, target)
	}
	if target == model.OrderStatusCancelled {
		if order.Status.RequiresCancellationReason() && comment == "" {
			return nil, ErrCancellationReasonRequired
		}
		order.CancellationReason = comment
	}

	now := time.Now()
	stampStatusTime(order, target, now)
	order.Status = target

	if err := s.orderRepo.UpdateStatusTx(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("transition order: %w", err)
	}
	history := &model.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    target,
		Comment:   comment,
		ChangedBy: actorID,
	}
	if err := s.orderRepo.InsertHistoryTx(ctx, tx, history); err != nil {
		return nil, fmt.Errorf("transition order: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("transition order: %w", err)
	}
	return order, nil
}

// Cancel is the customer-facing transition to cancelled, with the
// ownership check the admin path does not need.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID uuid.UUID, reason string) (*model.Order, error) {
	if _, err := s.GetForUser(ctx, orderID, userID); err != nil {
		return nil, err
	}
	return s.Transition(ctx, orderID, model.OrderStatusCancelled, &userID, reason)
}

func stampStatusTime(order *model.Order, target model.OrderStatus, now time.Time) {
	switch target {
	case model.OrderStatusConfirmed:
		order.ConfirmedAt = &now
	case model.OrderStatusReady:
		order.PreparedAt = &now
	case model.OrderStatusDelivering, model.OrderStatusPickedUp:
		order.DispatchedAt = &now
	case model.OrderStatusDelivered, model.OrderStatusCompleted:
		order.CompletedAt = &now
	case model.OrderStatusCancelled, model.OrderStatusRefunded, model.OrderStatusFailed:
		order.CancelledAt = &now
	}
}
