package worker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bitewave/go-food-ordering-api/internal/model"
)

// OrderPublisher pushes order-created events onto the bonus accrual
// queue.
type OrderPublisher struct {
	channel *amqp.Channel
}

func NewOrderPublisher(ch *amqp.Channel) *OrderPublisher {
	return &OrderPublisher{channel: ch}
}

func (p *OrderPublisher) PublishOrderCreated(ctx context.Context, msg model.OrderMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal order message: %w", err)
	}
	err = p.channel.PublishWithContext(ctx, "", orderQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish order created: %w", err)
	}
	return nil
}
