package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusCanceled  PaymentStatus = "canceled"
)

// Payment is one external purchase keyed by the provider-issued payment id.
// For Telegram Stars invoices the id is minted locally and carried as the
// invoice payload; for crypto invoices it is the provider uuid.
type Payment struct {
	ID          string
	UserID      int64
	PackageCode string
	Stars       int
	Amount      decimal.Decimal
	Status      PaymentStatus
	ReferrerID  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Terminal reports whether the payment has reached a final state.
// Terminal payments are immutable; re-delivered notifications are no-ops.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusSucceeded || p.Status == PaymentStatusCanceled
}
