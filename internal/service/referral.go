package service

import (
	"context"
	"fmt"

	"github.com/clipmint/reelsbot/internal/domain"
	"github.com/clipmint/reelsbot/internal/repository"
)

// ReferralService pays a referrer exactly one bonus for exactly one successful
// payment made by each distinct referee.
type ReferralService struct {
	store repository.Store
	bonus int
}

func NewReferralService(store repository.Store, bonusStars int) *ReferralService {
	return &ReferralService{store: store, bonus: bonusStars}
}

// RewardResult reports whether a settlement paid a referral bonus.
type RewardResult struct {
	Rewarded   bool
	ReferrerID int64
	Bonus      int
}

// rewardTx runs inside the settlement transaction so the bonus credit commits
// or aborts together with the payment transition. The NOT-rewarded guard on
// the referral row makes the bonus fire at most once per referee no matter
// how many payments they make.
func (s *ReferralService) rewardTx(ctx context.Context, q repository.Querier, p domain.Payment) (RewardResult, error) {
	referee, err := q.GetUser(ctx, p.UserID)
	if err != nil {
		return RewardResult{}, fmt.Errorf("load referee: %w", err)
	}
	if referee.ReferredBy == nil {
		return RewardResult{}, nil
	}
	referrerID := *referee.ReferredBy

	// The row usually exists from the /start deep link; create it lazily when
	// the relationship is first observed at payment time.
	if err := q.CreateReferralIfAbsent(ctx, referrerID, p.UserID); err != nil {
		return RewardResult{}, err
	}

	flipped, err := q.MarkReferralRewarded(ctx, referrerID, p.UserID, p.ID)
	if err != nil {
		return RewardResult{}, err
	}
	if !flipped {
		return RewardResult{}, nil
	}

	if _, err := q.AddStars(ctx, referrerID, s.bonus); err != nil {
		return RewardResult{}, fmt.Errorf("credit referrer: %w", err)
	}

	return RewardResult{Rewarded: true, ReferrerID: referrerID, Bonus: s.bonus}, nil
}

// Bonus returns the configured bonus amount in stars.
func (s *ReferralService) Bonus() int {
	return s.bonus
}
