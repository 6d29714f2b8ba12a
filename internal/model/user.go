package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a chat-platform customer. Identity verification happens
// upstream; the backend only ever sees an already-authenticated
// telegram id. BonusBalance is a cached read model of the bonus
// ledger and is rewritten from the ledger on every ledger mutation.
type User struct {
	ID                  uuid.UUID
	TelegramID          int64
	Username            string
	FirstName           string
	LastName            string
	Phone               string
	LanguageCode        string
	TotalOrders         int
	TotalSpent          decimal.Decimal
	BonusBalance        decimal.Decimal
	BonusPercentAllowed int
	ReferralCode        string
	IsActive            bool
	IsBlocked           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

type UserAddress struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Alias     string
	Address   string
	City      string
	Comment   string
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
