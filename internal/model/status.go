package model

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusPreparing  OrderStatus = "preparing"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusPickedUp   OrderStatus = "picked_up"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

// statusTransitions is the full set of legal lifecycle moves. Anything
// not listed here is rejected and leaves the order unchanged.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed},
	OrderStatusConfirmed:  {OrderStatusPreparing, OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed},
	OrderStatusPreparing:  {OrderStatusReady, OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed},
	OrderStatusReady:      {OrderStatusDelivering, OrderStatusPickedUp},
	OrderStatusDelivering: {OrderStatusDelivered},
	OrderStatusPickedUp:   {OrderStatusCompleted},
}

// CanTransitionTo reports whether target is a legal next state.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range statusTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// RequiresCancellationReason reports whether cancelling from s needs an
// explicit reason. Once the kitchen has started, a silent cancel is not
// acceptable.
func (s OrderStatus) RequiresCancellationReason() bool {
	return s == OrderStatusPreparing
}
