package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipmint/reelsbot/internal/domain"
)

func setupReferralPair(t *testing.T) (*PaymentService, *UserService, *memStore, int64, int64) {
	t.Helper()
	store := newMemStore()
	ledger := NewLedgerService(store, 1)
	ledger.now = fixedClock(day1)
	referrals := NewReferralService(store, 5)
	payments := NewPaymentService(store, ledger, referrals, nil)
	users := NewUserService(store)
	users.now = fixedClock(day1)

	referrer, referee := int64(1), int64(2)
	ctx := context.Background()
	_, _, err := users.FindOrCreate(ctx, referrer, "inviter")
	require.NoError(t, err)
	_, _, err = users.FindOrCreate(ctx, referee, "invited")
	require.NoError(t, err)

	set, err := users.AttachReferrer(ctx, referee, referrer)
	require.NoError(t, err)
	require.True(t, set)

	return payments, users, store, referrer, referee
}

func TestReferralBonusPaidOncePerReferee(t *testing.T) {
	ctx := context.Background()
	payments, _, store, referrer, referee := setupReferralPair(t)

	first, err := payments.InitiateStars(ctx, referee, mustPackage(t, "stars_5"))
	require.NoError(t, err)
	second, err := payments.InitiateStars(ctx, referee, mustPackage(t, "stars_5"))
	require.NoError(t, err)

	res, err := payments.Settle(ctx, first, domain.PaymentStatusSucceeded)
	require.NoError(t, err)
	assert.True(t, res.Reward.Rewarded)
	assert.Equal(t, referrer, res.Reward.ReferrerID)
	assert.Equal(t, 5, res.Reward.Bonus)

	// The second payment settles normally but pays no second bonus.
	res, err = payments.Settle(ctx, second, domain.PaymentStatusSucceeded)
	require.NoError(t, err)
	assert.False(t, res.Reward.Rewarded)

	u, err := store.GetUser(ctx, referrer)
	require.NoError(t, err)
	assert.Equal(t, 5, u.StarsBalance)

	ref, err := store.GetReferral(ctx, referrer, referee)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.True(t, ref.Rewarded)
	require.NotNil(t, ref.PaymentID)
	assert.Equal(t, first, *ref.PaymentID)
}

func TestReferralCanceledPaymentPaysNothing(t *testing.T) {
	ctx := context.Background()
	payments, _, store, referrer, referee := setupReferralPair(t)

	id, err := payments.InitiateStars(ctx, referee, mustPackage(t, "stars_5"))
	require.NoError(t, err)

	res, err := payments.Settle(ctx, id, domain.PaymentStatusCanceled)
	require.NoError(t, err)
	assert.False(t, res.Reward.Rewarded)

	u, err := store.GetUser(ctx, referrer)
	require.NoError(t, err)
	assert.Equal(t, 0, u.StarsBalance)

	ref, err := store.GetReferral(ctx, referrer, referee)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.False(t, ref.Rewarded)
}

func TestNoReferrerNoReward(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ledger := NewLedgerService(store, 1)
	ledger.now = fixedClock(day1)
	payments := NewPaymentService(store, ledger, NewReferralService(store, 5), nil)

	_, err := ledger.CreditStars(ctx, 3, 0)
	require.NoError(t, err)

	id, err := payments.InitiateStars(ctx, 3, mustPackage(t, "stars_5"))
	require.NoError(t, err)

	res, err := payments.Settle(ctx, id, domain.PaymentStatusSucceeded)
	require.NoError(t, err)
	assert.False(t, res.Reward.Rewarded)
}

func TestAttachReferrerRules(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	users := NewUserService(store)
	users.now = fixedClock(day1)

	_, _, err := users.FindOrCreate(ctx, 1, "a")
	require.NoError(t, err)
	_, _, err = users.FindOrCreate(ctx, 2, "b")
	require.NoError(t, err)
	_, _, err = users.FindOrCreate(ctx, 3, "c")
	require.NoError(t, err)

	// Self-referral is ignored.
	set, err := users.AttachReferrer(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, set)

	// A dangling referrer id from a forged link is ignored.
	set, err = users.AttachReferrer(ctx, 1, 999)
	require.NoError(t, err)
	assert.False(t, set)

	// First write wins.
	set, err = users.AttachReferrer(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, set)
	set, err = users.AttachReferrer(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, set)

	u, err := users.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, u.ReferredBy)
	assert.Equal(t, int64(2), *u.ReferredBy)

	total, rewarded, err := users.ReferralStats(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(0), rewarded)
}
