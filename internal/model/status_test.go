package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_HappyPaths(t *testing.T) {
	delivery := []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivering, OrderStatusDelivered}
	for i := 0; i < len(delivery)-1; i++ {
		assert.True(t, delivery[i].CanTransitionTo(delivery[i+1]),
			"%s -> %s should be legal", delivery[i], delivery[i+1])
	}

	pickup := []OrderStatus{OrderStatusReady, OrderStatusPickedUp, OrderStatusCompleted}
	for i := 0; i < len(pickup)-1; i++ {
		assert.True(t, pickup[i].CanTransitionTo(pickup[i+1]))
	}
}

func TestOrderStatus_NoSkippingOrRewinding(t *testing.T) {
	assert.False(t, OrderStatusPending.CanTransitionTo(OrderStatusPreparing))
	assert.False(t, OrderStatusPending.CanTransitionTo(OrderStatusDelivered))
	assert.False(t, OrderStatusConfirmed.CanTransitionTo(OrderStatusPending))
	assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusDelivering))
}

func TestOrderStatus_CancellationWindow(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusCancelled))
	assert.True(t, OrderStatusConfirmed.CanTransitionTo(OrderStatusCancelled))
	assert.True(t, OrderStatusPreparing.CanTransitionTo(OrderStatusCancelled))

	// Once the order is ready, it can only move forward.
	assert.False(t, OrderStatusReady.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusDelivering.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusCancelled))
}

func TestOrderStatus_Terminal(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusDelivered, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed} {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusReady.IsTerminal())
}

func TestOrderStatus_RequiresCancellationReason(t *testing.T) {
	assert.True(t, OrderStatusPreparing.RequiresCancellationReason())
	assert.False(t, OrderStatusPending.RequiresCancellationReason())
	assert.False(t, OrderStatusConfirmed.RequiresCancellationReason())
}
