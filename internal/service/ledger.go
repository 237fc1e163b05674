package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clipmint/reelsbot/internal/domain"
	"github.com/clipmint/reelsbot/internal/repository"
)

// CostMode is the branch of the decision policy an Allow was taken on.
type CostMode int

const (
	CostNone     CostMode = iota // premium window, commits nothing
	CostFreeSlot                 // consumes one daily free slot
	CostStar                     // consumes one star
)

// Decision is the outcome of an entitlement check. A denial is a normal
// outcome, not an error; Used/Quota/Balance let the caller render exact
// counters.
type Decision struct {
	UserID  int64
	Allowed bool
	Mode    CostMode
	Used    int
	Quota   int
	Balance int
}

// LedgerService is the single authority on whether a generation request may
// proceed and how it is paid for. Decisions and commits are split so a failed
// generation never spends entitlement.
type LedgerService struct {
	store repository.Store
	quota int
	now   func() time.Time
}

func NewLedgerService(store repository.Store, dailyFreeQuota int) *LedgerService {
	return &LedgerService{store: store, quota: dailyFreeQuota, now: time.Now}
}

func (s *LedgerService) today() time.Time {
	t := s.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Authorize ensures the user record exists, lazily resets the daily counter on
// a UTC day boundary and evaluates the decision policy in order: premium
// window, free slot, star balance.
func (s *LedgerService) Authorize(ctx context.Context, userID int64) (Decision, error) {
	today := s.today()

	if _, err := s.store.CreateUserIfAbsent(ctx, userID, "", nil, today); err != nil {
		return Decision{}, fmt.Errorf("ensure user: %w", err)
	}
	if _, err := s.store.ResetDailyIfStale(ctx, userID, today); err != nil {
		return Decision{}, fmt.Errorf("daily reset: %w", err)
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("get user: %w", err)
	}

	d := Decision{
		UserID:  userID,
		Used:    u.DailyFreeUsed,
		Quota:   s.quota,
		Balance: u.StarsBalance,
	}

	switch {
	case u.IsPremiumOn(today):
		d.Allowed = true
		d.Mode = CostNone
	case u.DailyFreeUsed < s.quota:
		d.Allowed = true
		d.Mode = CostFreeSlot
	case u.StarsBalance > 0:
		d.Allowed = true
		d.Mode = CostStar
	}
	return d, nil
}

// Commit applies the cost of an allowed decision after the paid-for work
// succeeded. Premium decisions commit nothing. If another request consumed the
// last free slot between Authorize and Commit, the commit falls through to a
// star before giving up.
func (s *LedgerService) Commit(ctx context.Context, d Decision) error {
	if !d.Allowed {
		return domain.ErrQuotaExhausted
	}

	switch d.Mode {
	case CostNone:
		return nil
	case CostFreeSlot:
		ok, err := s.store.ConsumeFreeSlot(ctx, d.UserID, s.quota)
		if err != nil {
			return fmt.Errorf("consume free slot: %w", err)
		}
		if ok {
			return nil
		}
		fallthrough
	case CostStar:
		ok, err := s.store.ConsumeStar(ctx, d.UserID)
		if err != nil {
			return fmt.Errorf("consume star: %w", err)
		}
		if !ok {
			return domain.ErrQuotaExhausted
		}
		return nil
	}
	return nil
}

// CreditStars adds delta (positive for a top-up) to the user's balance and
// returns the new balance. A delta that would drive the balance negative
// fails with ErrInvalidAmount.
func (s *LedgerService) CreditStars(ctx context.Context, userID int64, delta int) (int, error) {
	if _, err := s.store.CreateUserIfAbsent(ctx, userID, "", nil, s.today()); err != nil {
		return 0, fmt.Errorf("ensure user: %w", err)
	}
	return s.store.AddStars(ctx, userID, delta)
}

// ExtendPremium extends the premium window by the given days. An unexpired
// window is extended from its current expiry, so repeated purchases stack
// instead of resetting remaining time.
func (s *LedgerService) ExtendPremium(ctx context.Context, userID int64, days int) (time.Time, error) {
	today := s.today()

	if _, err := s.store.CreateUserIfAbsent(ctx, userID, "", nil, today); err != nil {
		return time.Time{}, fmt.Errorf("ensure user: %w", err)
	}

	var newUntil time.Time
	err := s.store.WithTx(ctx, func(q repository.Querier) error {
		u, err := q.GetUserForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		base := today
		if u.PremiumUntil != nil && u.PremiumUntil.After(today) {
			base = *u.PremiumUntil
		}
		newUntil = base.AddDate(0, 0, days)

		return q.SetPremiumUntil(ctx, userID, newUntil)
	})
	if err != nil {
		return time.Time{}, err
	}
	return newUntil, nil
}

// extendPremiumTx is the same stacking rule for callers already inside a
// storage transaction (payment settlement).
func (s *LedgerService) extendPremiumTx(ctx context.Context, q repository.Querier, userID int64, days int) (time.Time, error) {
	today := s.today()

	u, err := q.GetUserForUpdate(ctx, userID)
	if err != nil {
		return time.Time{}, fmt.Errorf("lock user: %w", err)
	}

	base := today
	if u.PremiumUntil != nil && u.PremiumUntil.After(today) {
		base = *u.PremiumUntil
	}
	newUntil := base.AddDate(0, 0, days)

	if err := q.SetPremiumUntil(ctx, userID, newUntil); err != nil {
		return time.Time{}, err
	}
	return newUntil, nil
}

// Snapshot returns the user's current ledger state after the lazy daily reset,
// for status displays.
func (s *LedgerService) Snapshot(ctx context.Context, userID int64) (domain.User, bool, error) {
	today := s.today()

	if _, err := s.store.CreateUserIfAbsent(ctx, userID, "", nil, today); err != nil {
		return domain.User{}, false, fmt.Errorf("ensure user: %w", err)
	}
	if _, err := s.store.ResetDailyIfStale(ctx, userID, today); err != nil {
		return domain.User{}, false, fmt.Errorf("daily reset: %w", err)
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, false, err
	}
	return u, u.IsPremiumOn(today), nil
}

// Quota returns the configured daily free quota.
func (s *LedgerService) Quota() int {
	return s.quota
}

// SweepStale resets the daily counter for every stale user. Advisory only:
// Authorize performs the same reset lazily per user.
func (s *LedgerService) SweepStale(ctx context.Context) (int64, error) {
	return s.store.ResetAllStale(ctx, s.today())
}
