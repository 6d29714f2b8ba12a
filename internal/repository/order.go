package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/model"
)

type OrderRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CreateTx(ctx context.Context, tx pgx.Tx, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	CountCompletedByUser(ctx context.Context, userID uuid.UUID) (int, error)
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, order *model.Order) error
	InsertHistoryTx(ctx context.Context, tx pgx.Tx, h *model.OrderStatusHistory) error
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, paymentID string) error
	SetBonusEarned(ctx context.Context, tx pgx.Tx, id uuid.UUID, earned decimal.Decimal) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const orderColumns = `id, order_number, user_id, branch_id, order_type, status, address_id,
	subtotal, delivery_fee, service_fee, packaging_fee, discount_amount, bonus_used,
	total_amount, tips_amount, promo_code, promo_discount_amount, bonus_earned,
	payment_method, payment_status, payment_id, customer_comment, cancellation_reason,
	created_at, updated_at, confirmed_at, prepared_at, dispatched_at, completed_at, cancelled_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.BranchID, &o.OrderType, &o.Status, &o.AddressID,
		&o.Subtotal, &o.DeliveryFee, &o.ServiceFee, &o.PackagingFee, &o.DiscountAmount,
		&o.BonusUsed, &o.TotalAmount, &o.TipsAmount, &o.PromoCode, &o.PromoDiscountAmount,
		&o.BonusEarned, &o.PaymentMethod, &o.PaymentStatus, &o.PaymentID,
		&o.CustomerComment, &o.CancellationReason,
		&o.CreatedAt, &o.UpdatedAt, &o.ConfirmedAt, &o.PreparedAt, &o.DispatchedAt,
		&o.CompletedAt, &o.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// CreateTx persists the order, its frozen item snapshots, and the
// initial status-history row in the caller's transaction.
func (r *pgOrderRepo) CreateTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	order.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO orders (id, order_number, user_id, branch_id, order_type, status, address_id,
			subtotal, delivery_fee, service_fee, packaging_fee, discount_amount, bonus_used,
			total_amount, tips_amount, promo_code, promo_discount_amount, bonus_earned,
			payment_method, payment_status, payment_id, customer_comment, cancellation_reason,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		order.ID, order.OrderNumber, order.UserID, order.BranchID, order.OrderType, order.Status,
		order.AddressID, order.Subtotal, order.DeliveryFee, order.ServiceFee, order.PackagingFee,
		order.DiscountAmount, order.BonusUsed, order.TotalAmount, order.TipsAmount,
		order.PromoCode, order.PromoDiscountAmount, order.BonusEarned,
		order.PaymentMethod, order.PaymentStatus, order.PaymentID,
		order.CustomerComment, order.CancellationReason,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New()
		item.OrderID = order.ID
		options, err := json.Marshal(item.SelectedOptions)
		if err != nil {
			return fmt.Errorf("marshal item options: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, product_description,
				product_price, quantity, options_modifier, unit_price, subtotal, selected_options, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())`,
			item.ID, item.OrderID, item.ProductID, item.ProductName, item.ProductDescription,
			item.ProductPrice, item.Quantity, item.OptionsModifier, item.UnitPrice, item.Subtotal,
			options)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return r.InsertHistoryTx(ctx, tx, &model.OrderStatusHistory{
		OrderID: order.ID,
		Status:  order.Status,
	})
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, product_name, product_description, product_price,
			quantity, options_modifier, unit_price, subtotal, selected_options, created_at
		 FROM order_items WHERE order_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		var options []byte
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.ProductDescription, &item.ProductPrice, &item.Quantity, &item.OptionsModifier,
			&item.UnitPrice, &item.Subtotal, &options, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &item.SelectedOptions); err != nil {
				return nil, fmt.Errorf("unmarshal item options: %w", err)
			}
		}
		order.Items = append(order.Items, item)
	}
	return order, nil
}

func (r *pgOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (r *pgOrderRepo) CountCompletedByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1 AND status IN ('delivered', 'completed')`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed orders: %w", err)
	}
	return count, nil
}

func (r *pgOrderRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return order, nil
}

// UpdateStatusTx writes the status, the per-state timestamps, and the
// cancellation reason in one statement.
func (r *pgOrderRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	_, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, cancellation_reason = $3, confirmed_at = $4,
			prepared_at = $5, dispatched_at = $6, completed_at = $7, cancelled_at = $8,
			updated_at = NOW()
		 WHERE id = $1`,
		order.ID, order.Status, order.CancellationReason,
		order.ConfirmedAt, order.PreparedAt, order.DispatchedAt, order.CompletedAt, order.CancelledAt)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) InsertHistoryTx(ctx context.Context, tx pgx.Tx, h *model.OrderStatusHistory) error {
	h.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO order_status_history (id, order_id, status, comment, changed_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`,
		h.ID, h.OrderID, h.Status, h.Comment, h.ChangedBy,
	).Scan(&h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) ListHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, status, comment, changed_by, created_at
		 FROM order_status_history WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()

	var history []model.OrderStatusHistory
	for rows.Next() {
		var h model.OrderStatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Comment, &h.ChangedBy, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		history = append(history, h)
	}
	return history, nil
}

func (r *pgOrderRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, paymentID string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_status = $2, payment_id = $3, updated_at = NOW() WHERE id = $1`,
		id, status, paymentID)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) SetBonusEarned(ctx context.Context, tx pgx.Tx, id uuid.UUID, earned decimal.Decimal) error {
	_, err := tx.Exec(ctx,
		`UPDATE orders SET bonus_earned = $2, updated_at = NOW() WHERE id = $1`, id, earned)
	if err != nil {
		return fmt.Errorf("set bonus earned: %w", err)
	}
	return nil
}
