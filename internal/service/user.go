package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clipmint/reelsbot/internal/domain"
	"github.com/clipmint/reelsbot/internal/repository"
)

type UserService struct {
	store repository.Store
	now   func() time.Time
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store, now: time.Now}
}

func (s *UserService) today() time.Time {
	t := s.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FindOrCreate loads the user, creating a zero-value record on first contact.
// Creation is idempotent under concurrent first contact: the insert is
// ON CONFLICT DO NOTHING and the subsequent read always sees one row.
func (s *UserService) FindOrCreate(ctx context.Context, telegramID int64, username string) (*domain.User, bool, error) {
	today := s.today()

	created, err := s.store.CreateUserIfAbsent(ctx, telegramID, username, nil, today)
	if err != nil {
		return nil, false, err
	}

	if !created {
		if err := s.store.UpdateUserSeen(ctx, telegramID, username, today); err != nil {
			return nil, false, err
		}
	}

	u, err := s.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, false, fmt.Errorf("get user: %w", err)
	}
	return &u, created, nil
}

// AttachReferrer records the referral relationship from a /start deep link.
// First write wins, self-referrals are ignored, and the unrewarded referral
// row is created eagerly so /referral stats see it before any payment.
func (s *UserService) AttachReferrer(ctx context.Context, telegramID, referrerID int64) (bool, error) {
	if referrerID == telegramID {
		return false, nil
	}

	// The referrer must exist; a dangling id in a forged deep link is ignored.
	if _, err := s.store.GetUser(ctx, referrerID); err != nil {
		if err == domain.ErrUserNotFound {
			return false, nil
		}
		return false, err
	}

	set, err := s.store.SetReferrer(ctx, telegramID, referrerID)
	if err != nil {
		return false, err
	}
	if set {
		if err := s.store.CreateReferralIfAbsent(ctx, referrerID, telegramID); err != nil {
			return false, err
		}
	}
	return set, nil
}

func (s *UserService) Get(ctx context.Context, telegramID int64) (*domain.User, error) {
	u, err := s.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	return s.store.CountUsers(ctx)
}

func (s *UserService) ReferralStats(ctx context.Context, referrerID int64) (total, rewarded int64, err error) {
	return s.store.CountReferrals(ctx, referrerID)
}
