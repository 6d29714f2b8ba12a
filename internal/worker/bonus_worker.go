package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/model"
	"github.com/bitewave/go-food-ordering-api/internal/repository"
	"github.com/bitewave/go-food-ordering-api/internal/service"
)

const (
	orderQueueName = "order.created"
	dlxExchange    = "order.created.dlx"
	dlqQueueName   = "order.created.dlq"
	idempotencyTTL = 24 * time.Hour
)

// BonusWorker consumes order-created events and accrues bonus for each
// order exactly once. Accrual is deliberately off the checkout path: a
// broker or worker outage delays the grant but never blocks an order.
type BonusWorker struct {
	channel        *amqp.Channel
	orderRepo      repository.OrderRepository
	userRepo       repository.UserRepository
	restaurantRepo repository.RestaurantRepository
	bonusSvc       *service.BonusService
	redisClient    *redis.Client
	log            *slog.Logger
	done           chan struct{}
}

func NewBonusWorker(
	ch *amqp.Channel,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	restaurantRepo repository.RestaurantRepository,
	bonusSvc *service.BonusService,
	redisClient *redis.Client,
	log *slog.Logger,
) *BonusWorker {
	return &BonusWorker{
		channel:        ch,
		orderRepo:      orderRepo,
		userRepo:       userRepo,
		restaurantRepo: restaurantRepo,
		bonusSvc:       bonusSvc,
		redisClient:    redisClient,
		log:            log,
		done:           make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderQueueName,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *BonusWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(orderQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("bonus worker started")
	return nil
}

func (w *BonusWorker) Stop() { close(w.done) }

func (w *BonusWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(msg.Body, &orderMsg); err != nil {
		w.log.Error("unmarshal order message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", orderMsg.OrderID, "user_id", orderMsg.UserID)

	// Redelivered messages must not double-grant.
	idempotencyKey := "bonus_earned:" + orderMsg.OrderID.String()
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("bonus already accrued, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.accrueBonus(ctx, orderMsg.OrderID); err != nil {
		log.Error("accrue bonus failed", "error", err)
		_ = msg.Nack(false, false) // → DLQ
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("bonus accrued")
}

func (w *BonusWorker) accrueBonus(ctx context.Context, orderID uuid.UUID) error {
	order, err := w.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", orderID)
	}

	user, err := w.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user not found: %s", order.UserID)
	}

	branch, err := w.restaurantRepo.GetBranchByID(ctx, order.BranchID)
	if err != nil {
		return fmt.Errorf("get branch: %w", err)
	}
	if branch == nil {
		return fmt.Errorf("branch not found: %s", order.BranchID)
	}

	rules, err := w.bonusSvc.Rules(ctx)
	if err != nil {
		return fmt.Errorf("list bonus rules: %w", err)
	}

	// Checkout increments the counter before the event is published,
	// so the user's very first order sees TotalOrders == 1.
	firstOrder := user.TotalOrders <= 1
	earned := service.ComputeOrderEarn(rules, order, branch.RestaurantID, firstOrder)
	if len(earned) == 0 {
		return nil
	}

	tx, err := w.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	total := decimal.Zero
	for i := range earned {
		if err := w.bonusSvc.EarnTx(ctx, tx, order.UserID, earned[i].Amount, &earned[i].Rule, &order.ID, now); err != nil {
			return fmt.Errorf("earn bonus: %w", err)
		}
		total = total.Add(earned[i].Amount)
	}
	if err := w.orderRepo.SetBonusEarned(ctx, tx, order.ID, total); err != nil {
		return fmt.Errorf("set bonus earned: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
