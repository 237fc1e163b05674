package service

import (
	"context"
	"sync"
	"time"

	"github.com/clipmint/reelsbot/internal/domain"
	"github.com/clipmint/reelsbot/internal/repository"
)

// memStore is an in-memory Store for unit tests. A single mutex serializes
// every operation, and WithTx holds it for the whole callback, which matches
// the row-lock serialization the SQL store provides. There is no rollback;
// tests do not exercise aborted transactions.
type memStore struct {
	mu sync.Mutex
	d  memData
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{d: memData{
		users:     make(map[int64]*domain.User),
		payments:  make(map[string]*domain.Payment),
		referrals: make(map[[2]int64]*domain.Referral),
		history:   make(map[int64][]domain.HistoryEntry),
	}}
}

func (s *memStore) WithTx(_ context.Context, fn func(repository.Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.d)
}

// memData holds the tables and implements Querier without locking. memStore
// wraps every method with the mutex.
type memData struct {
	users     map[int64]*domain.User
	payments  map[string]*domain.Payment
	referrals map[[2]int64]*domain.Referral
	history   map[int64][]domain.HistoryEntry
	nextHist  int64
}

func (d *memData) CreateUserIfAbsent(_ context.Context, telegramID int64, username string, referredBy *int64, today time.Time) (bool, error) {
	if _, ok := d.users[telegramID]; ok {
		return false, nil
	}
	d.users[telegramID] = &domain.User{
		TelegramID:    telegramID,
		Username:      username,
		ReferredBy:    referredBy,
		LastResetDate: today,
		FirstSeen:     today,
		LastSeen:      today,
		CreatedAt:     today,
	}
	return true, nil
}

func (d *memData) GetUser(_ context.Context, telegramID int64) (domain.User, error) {
	u, ok := d.users[telegramID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *u, nil
}

func (d *memData) GetUserForUpdate(ctx context.Context, telegramID int64) (domain.User, error) {
	return d.GetUser(ctx, telegramID)
}

func (d *memData) UpdateUserSeen(_ context.Context, telegramID int64, username string, today time.Time) error {
	if u, ok := d.users[telegramID]; ok {
		if username != "" {
			u.Username = username
		}
		u.LastSeen = today
	}
	return nil
}

func (d *memData) ResetDailyIfStale(_ context.Context, telegramID int64, today time.Time) (bool, error) {
	u, ok := d.users[telegramID]
	if !ok || !u.LastResetDate.Before(today) {
		return false, nil
	}
	u.DailyFreeUsed = 0
	u.LastResetDate = today
	return true, nil
}

func (d *memData) ResetAllStale(_ context.Context, today time.Time) (int64, error) {
	var n int64
	for _, u := range d.users {
		if u.LastResetDate.Before(today) {
			u.DailyFreeUsed = 0
			u.LastResetDate = today
			n++
		}
	}
	return n, nil
}

func (d *memData) ConsumeFreeSlot(_ context.Context, telegramID int64, quota int) (bool, error) {
	u, ok := d.users[telegramID]
	if !ok || u.DailyFreeUsed >= quota {
		return false, nil
	}
	u.DailyFreeUsed++
	return true, nil
}

func (d *memData) ConsumeStar(_ context.Context, telegramID int64) (bool, error) {
	u, ok := d.users[telegramID]
	if !ok || u.StarsBalance <= 0 {
		return false, nil
	}
	u.StarsBalance--
	return true, nil
}

func (d *memData) AddStars(_ context.Context, telegramID int64, delta int) (int, error) {
	u, ok := d.users[telegramID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	if u.StarsBalance+delta < 0 {
		return 0, domain.ErrInvalidAmount
	}
	u.StarsBalance += delta
	return u.StarsBalance, nil
}

func (d *memData) SetPremiumUntil(_ context.Context, telegramID int64, until time.Time) error {
	u, ok := d.users[telegramID]
	if !ok {
		return domain.ErrUserNotFound
	}
	t := until
	u.PremiumUntil = &t
	return nil
}

func (d *memData) SetReferrer(_ context.Context, telegramID, referrerID int64) (bool, error) {
	u, ok := d.users[telegramID]
	if !ok || u.ReferredBy != nil || telegramID == referrerID {
		return false, nil
	}
	id := referrerID
	u.ReferredBy = &id
	return true, nil
}

func (d *memData) CountUsers(_ context.Context) (int64, error) {
	return int64(len(d.users)), nil
}

func (d *memData) CreatePayment(_ context.Context, p domain.Payment) error {
	cp := p
	d.payments[p.ID] = &cp
	return nil
}

func (d *memData) GetPayment(_ context.Context, id string) (domain.Payment, error) {
	p, ok := d.payments[id]
	if !ok {
		return domain.Payment{}, domain.ErrUnknownPayment
	}
	return *p, nil
}

func (d *memData) GetPaymentForUpdate(ctx context.Context, id string) (domain.Payment, error) {
	return d.GetPayment(ctx, id)
}

func (d *memData) SetPaymentStatus(_ context.Context, id string, status domain.PaymentStatus) error {
	p, ok := d.payments[id]
	if !ok {
		return domain.ErrUnknownPayment
	}
	p.Status = status
	return nil
}

func (d *memData) GetPendingPaymentByUser(_ context.Context, userID int64) (*domain.Payment, error) {
	var latest *domain.Payment
	for _, p := range d.payments {
		if p.UserID == userID && p.Status == domain.PaymentStatusPending {
			if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
				latest = p
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (d *memData) CreateReferralIfAbsent(_ context.Context, referrerID, refereeID int64) error {
	key := [2]int64{referrerID, refereeID}
	if _, ok := d.referrals[key]; !ok {
		d.referrals[key] = &domain.Referral{ReferrerID: referrerID, RefereeID: refereeID}
	}
	return nil
}

func (d *memData) MarkReferralRewarded(_ context.Context, referrerID, refereeID int64, paymentID string) (bool, error) {
	r, ok := d.referrals[[2]int64{referrerID, refereeID}]
	if !ok || r.Rewarded {
		return false, nil
	}
	r.Rewarded = true
	id := paymentID
	r.PaymentID = &id
	now := time.Now()
	r.RewardedAt = &now
	return true, nil
}

func (d *memData) GetReferral(_ context.Context, referrerID, refereeID int64) (*domain.Referral, error) {
	r, ok := d.referrals[[2]int64{referrerID, refereeID}]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (d *memData) CountReferrals(_ context.Context, referrerID int64) (total, rewarded int64, err error) {
	for _, r := range d.referrals {
		if r.ReferrerID != referrerID {
			continue
		}
		total++
		if r.Rewarded {
			rewarded++
		}
	}
	return total, rewarded, nil
}

func (d *memData) AddHistory(_ context.Context, userID int64, niche, ideas string, keep int) error {
	d.nextHist++
	entries := append(d.history[userID], domain.HistoryEntry{
		ID:        d.nextHist,
		UserID:    userID,
		Niche:     niche,
		Ideas:     ideas,
		CreatedAt: time.Now(),
	})
	if len(entries) > keep {
		entries = entries[len(entries)-keep:]
	}
	d.history[userID] = entries
	return nil
}

func (d *memData) ListHistory(_ context.Context, userID int64, limit int) ([]domain.HistoryEntry, error) {
	entries := d.history[userID]
	out := make([]domain.HistoryEntry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

// Locked wrappers so memStore itself satisfies Querier.

func (s *memStore) CreateUserIfAbsent(ctx context.Context, telegramID int64, username string, referredBy *int64, today time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.CreateUserIfAbsent(ctx, telegramID, username, referredBy, today)
}

func (s *memStore) GetUser(ctx context.Context, telegramID int64) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.GetUser(ctx, telegramID)
}

func (s *memStore) GetUserForUpdate(ctx context.Context, telegramID int64) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.GetUserForUpdate(ctx, telegramID)
}

func (s *memStore) UpdateUserSeen(ctx context.Context, telegramID int64, username string, today time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.UpdateUserSeen(ctx, telegramID, username, today)
}

func (s *memStore) ResetDailyIfStale(ctx context.Context, telegramID int64, today time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.ResetDailyIfStale(ctx, telegramID, today)
}

func (s *memStore) ResetAllStale(ctx context.Context, today time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.ResetAllStale(ctx, today)
}

func (s *memStore) ConsumeFreeSlot(ctx context.Context, telegramID int64, quota int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.ConsumeFreeSlot(ctx, telegramID, quota)
}

func (s *memStore) ConsumeStar(ctx context.Context, telegramID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.ConsumeStar(ctx, telegramID)
}

func (s *memStore) AddStars(ctx context.Context, telegramID int64, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.AddStars(ctx, telegramID, delta)
}

func (s *memStore) SetPremiumUntil(ctx context.Context, telegramID int64, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.SetPremiumUntil(ctx, telegramID, until)
}

func (s *memStore) SetReferrer(ctx context.Context, telegramID, referrerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.SetReferrer(ctx, telegramID, referrerID)
}

func (s *memStore) CountUsers(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.CountUsers(ctx)
}

func (s *memStore) CreatePayment(ctx context.Context, p domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.CreatePayment(ctx, p)
}

func (s *memStore) GetPayment(ctx context.Context, id string) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.GetPayment(ctx, id)
}

func (s *memStore) GetPaymentForUpdate(ctx context.Context, id string) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.GetPaymentForUpdate(ctx, id)
}

func (s *memStore) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.SetPaymentStatus(ctx, id, status)
}

func (s *memStore) GetPendingPaymentByUser(ctx context.Context, userID int64) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.GetPendingPaymentByUser(ctx, userID)
}

func (s *memStore) CreateReferralIfAbsent(ctx context.Context, referrerID, refereeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.CreateReferralIfAbsent(ctx, referrerID, refereeID)
}

func (s *memStore) MarkReferralRewarded(ctx context.Context, referrerID, refereeID int64, paymentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.MarkReferralRewarded(ctx, referrerID, refereeID, paymentID)
}

func (s *memStore) GetReferral(ctx context.Context, referrerID, refereeID int64) (*domain.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.GetReferral(ctx, referrerID, refereeID)
}

func (s *memStore) CountReferrals(ctx context.Context, referrerID int64) (total, rewarded int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.CountReferrals(ctx, referrerID)
}

func (s *memStore) AddHistory(ctx context.Context, userID int64, niche, ideas string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.AddHistory(ctx, userID, niche, ideas, keep)
}

func (s *memStore) ListHistory(ctx context.Context, userID int64, limit int) ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.ListHistory(ctx, userID, limit)
}
