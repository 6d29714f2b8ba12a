package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bitewave/go-food-ordering-api/internal/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, externalID, failureReason string) error
}

type pgPaymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &pgPaymentRepo{pool: pool}
}

func (r *pgPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	p.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payments (id, order_id, payment_method, payment_provider, amount, currency,
			status, external_payment_id, failure_reason, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		p.ID, p.OrderID, p.PaymentMethod, p.PaymentProvider, p.Amount, p.Currency,
		p.Status, p.ExternalPaymentID, p.FailureReason,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *pgPaymentRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	p := &model.Payment{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, order_id, payment_method, payment_provider, amount, currency, status,
			external_payment_id, failure_reason, created_at, updated_at, processed_at
		 FROM payments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1`, orderID,
	).Scan(&p.ID, &p.OrderID, &p.PaymentMethod, &p.PaymentProvider, &p.Amount, &p.Currency,
		&p.Status, &p.ExternalPaymentID, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt, &p.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *pgPaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, externalID, failureReason string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE payments SET status = $2, external_payment_id = $3, failure_reason = $4,
			processed_at = CASE WHEN $2 IN ('paid', 'failed', 'refunded') THEN NOW() ELSE processed_at END,
			updated_at = NOW()
		 WHERE id = $1`,
		id, status, externalID, failureReason)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
