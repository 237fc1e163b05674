package domain

import "time"

// Referral tracks who-referred-whom. At most one row per (referrer, referee)
// pair, and the reward flips to true exactly once, linked to the payment that
// funded it.
type Referral struct {
	ReferrerID int64
	RefereeID  int64
	Rewarded   bool
	PaymentID  *string
	CreatedAt  time.Time
	RewardedAt *time.Time
}
