package model

import "github.com/google/uuid"

// OrderMessage is published after a checkout commits and drives the
// asynchronous bonus-earn step.
type OrderMessage struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
}
