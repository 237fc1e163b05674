package domain

import "time"

type User struct {
	TelegramID    int64
	Username      string
	FirstSeen     time.Time
	LastSeen      time.Time
	DailyFreeUsed int
	LastResetDate time.Time
	PremiumUntil  *time.Time
	StarsBalance  int
	ReferredBy    *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsPremiumOn reports whether the premium window covers the given UTC date.
// The expiry date is inclusive.
func (u *User) IsPremiumOn(day time.Time) bool {
	if u.PremiumUntil == nil {
		return false
	}
	return !u.PremiumUntil.Before(day)
}
