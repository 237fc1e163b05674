package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipmint/reelsbot/internal/domain"
)

// Querier is the set of row-level operations the services build on. Each
// method is atomic on its own; multi-row transitions run through Store.WithTx.
type Querier interface {
	// users
	CreateUserIfAbsent(ctx context.Context, telegramID int64, username string, referredBy *int64, today time.Time) (bool, error)
	GetUser(ctx context.Context, telegramID int64) (domain.User, error)
	GetUserForUpdate(ctx context.Context, telegramID int64) (domain.User, error)
	UpdateUserSeen(ctx context.Context, telegramID int64, username string, today time.Time) error
	ResetDailyIfStale(ctx context.Context, telegramID int64, today time.Time) (bool, error)
	ResetAllStale(ctx context.Context, today time.Time) (int64, error)
	ConsumeFreeSlot(ctx context.Context, telegramID int64, quota int) (bool, error)
	ConsumeStar(ctx context.Context, telegramID int64) (bool, error)
	AddStars(ctx context.Context, telegramID int64, delta int) (int, error)
	SetPremiumUntil(ctx context.Context, telegramID int64, until time.Time) error
	SetReferrer(ctx context.Context, telegramID, referrerID int64) (bool, error)
	CountUsers(ctx context.Context) (int64, error)

	// payments
	CreatePayment(ctx context.Context, p domain.Payment) error
	GetPayment(ctx context.Context, id string) (domain.Payment, error)
	GetPaymentForUpdate(ctx context.Context, id string) (domain.Payment, error)
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error
	GetPendingPaymentByUser(ctx context.Context, userID int64) (*domain.Payment, error)

	// referrals
	CreateReferralIfAbsent(ctx context.Context, referrerID, refereeID int64) error
	MarkReferralRewarded(ctx context.Context, referrerID, refereeID int64, paymentID string) (bool, error)
	GetReferral(ctx context.Context, referrerID, refereeID int64) (*domain.Referral, error)
	CountReferrals(ctx context.Context, referrerID int64) (total, rewarded int64, err error)

	// history
	AddHistory(ctx context.Context, userID int64, niche, ideas string, keep int) error
	ListHistory(ctx context.Context, userID int64, limit int) ([]domain.HistoryEntry, error)
}

// Store is a Querier whose multi-statement transitions can be grouped into a
// single storage transaction.
type Store interface {
	Querier
	WithTx(ctx context.Context, fn func(Querier) error) error
}

// SQLStore is the PostgreSQL-backed Store.
type SQLStore struct {
	pool *pgxpool.Pool
	*Queries
}

func NewStore(pool *pgxpool.Pool) *SQLStore {
	return &SQLStore{pool: pool, Queries: &Queries{db: pool}}
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Queries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
