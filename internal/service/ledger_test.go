package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipmint/reelsbot/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var day1 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestLedger(quota int) (*LedgerService, *memStore) {
	store := newMemStore()
	l := NewLedgerService(store, quota)
	l.now = fixedClock(day1)
	return l, store
}

func TestAuthorizeFreeSlot(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(1)

	d, err := l.Authorize(ctx, 100)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, CostFreeSlot, d.Mode)
	assert.Equal(t, 0, d.Used)
	assert.Equal(t, 1, d.Quota)

	require.NoError(t, l.Commit(ctx, d))

	d2, err := l.Authorize(ctx, 100)
	require.NoError(t, err)
	assert.False(t, d2.Allowed)
	assert.Equal(t, 1, d2.Used)
	assert.Equal(t, 0, d2.Balance)
}

func TestAuthorizeDenyNoError(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(0)

	d, err := l.Authorize(ctx, 200)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	err = l.Commit(ctx, d)
	assert.ErrorIs(t, err, domain.ErrQuotaExhausted)
}

func TestQuotaNeverExceededConcurrently(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(3)

	_, err := l.Authorize(ctx, 300)
	require.NoError(t, err)

	var wg sync.WaitGroup
	granted := make(chan CostMode, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Authorize(ctx, 300)
			if err != nil || !d.Allowed {
				return
			}
			if err := l.Commit(ctx, d); err == nil {
				granted <- d.Mode
			}
		}()
	}
	wg.Wait()
	close(granted)

	var count int
	for range granted {
		count++
	}
	assert.LessOrEqual(t, count, 3)

	u, err := store.GetUser(ctx, 300)
	require.NoError(t, err)
	assert.LessOrEqual(t, u.DailyFreeUsed, 3)
	assert.GreaterOrEqual(t, u.StarsBalance, 0)
}

func TestDailyResetOncePerBoundary(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(1)

	d, err := l.Authorize(ctx, 400)
	require.NoError(t, err)
	require.NoError(t, l.Commit(ctx, d))

	d, err = l.Authorize(ctx, 400)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	// Next UTC day: the counter resets exactly once.
	l.now = fixedClock(day1.AddDate(0, 0, 1))

	d, err = l.Authorize(ctx, 400)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, CostFreeSlot, d.Mode)
	assert.Equal(t, 0, d.Used)
	require.NoError(t, l.Commit(ctx, d))

	// A second request the same day must not reset again.
	d, err = l.Authorize(ctx, 400)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	u, err := store.GetUser(ctx, 400)
	require.NoError(t, err)
	assert.Equal(t, 1, u.DailyFreeUsed)
}

func TestStarFallbackAfterQuota(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(1)

	_, err := l.CreditStars(ctx, 500, 5)
	require.NoError(t, err)

	d, err := l.Authorize(ctx, 500)
	require.NoError(t, err)
	require.Equal(t, CostFreeSlot, d.Mode)
	require.NoError(t, l.Commit(ctx, d))

	d, err = l.Authorize(ctx, 500)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, CostStar, d.Mode)
	assert.Equal(t, 5, d.Balance)
	require.NoError(t, l.Commit(ctx, d))

	u, err := store.GetUser(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, 4, u.StarsBalance)
}

func TestCommitFreeSlotFallsThroughToStar(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(1)

	_, err := l.CreditStars(ctx, 600, 1)
	require.NoError(t, err)

	d, err := l.Authorize(ctx, 600)
	require.NoError(t, err)
	require.Equal(t, CostFreeSlot, d.Mode)

	// Another request spends the last free slot between Authorize and Commit.
	ok, err := store.ConsumeFreeSlot(ctx, 600, 1)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Commit(ctx, d))

	u, err := store.GetUser(ctx, 600)
	require.NoError(t, err)
	assert.Equal(t, 1, u.DailyFreeUsed)
	assert.Equal(t, 0, u.StarsBalance)
}

func TestPremiumCostsNothing(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(1)

	_, err := l.ExtendPremium(ctx, 700, 7)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		d, err := l.Authorize(ctx, 700)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, CostNone, d.Mode)
		require.NoError(t, l.Commit(ctx, d))
	}

	u, err := store.GetUser(ctx, 700)
	require.NoError(t, err)
	assert.Equal(t, 0, u.DailyFreeUsed)
	assert.Equal(t, 0, u.StarsBalance)
}

func TestPremiumInclusiveExpiry(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(0)

	until, err := l.ExtendPremium(ctx, 800, 7)
	require.NoError(t, err)

	// On the expiry date itself premium is still active.
	l.now = fixedClock(until)
	d, err := l.Authorize(ctx, 800)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, CostNone, d.Mode)

	// The day after it is gone.
	l.now = fixedClock(until.AddDate(0, 0, 1))
	d, err = l.Authorize(ctx, 800)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestPremiumStacks(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(1)

	first, err := l.ExtendPremium(ctx, 900, 7)
	require.NoError(t, err)
	assert.Equal(t, day1.Truncate(24*time.Hour).AddDate(0, 0, 7), first)

	second, err := l.ExtendPremium(ctx, 900, 7)
	require.NoError(t, err)
	assert.Equal(t, first.AddDate(0, 0, 7), second)
}

func TestPremiumExpiredExtendsFromToday(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(1)

	first, err := l.ExtendPremium(ctx, 1000, 7)
	require.NoError(t, err)

	// Long after expiry a new purchase starts from today, not the old expiry.
	l.now = fixedClock(day1.AddDate(0, 2, 0))
	second, err := l.ExtendPremium(ctx, 1000, 7)
	require.NoError(t, err)
	assert.True(t, second.After(first.AddDate(0, 0, 7)))
}

func TestCreditStarsRejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(1)

	balance, err := l.CreditStars(ctx, 1100, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	_, err = l.CreditStars(ctx, 1100, -10)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	balance, err = l.CreditStars(ctx, 1100, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestSweepStale(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(1)

	for _, id := range []int64{1, 2, 3} {
		d, err := l.Authorize(ctx, id)
		require.NoError(t, err)
		require.NoError(t, l.Commit(ctx, d))
	}

	l.now = fixedClock(day1.AddDate(0, 0, 1))
	n, err := l.SweepStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	u, err := store.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, u.DailyFreeUsed)

	// A second sweep on the same day is a no-op.
	n, err = l.SweepStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
