package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipmint/reelsbot/internal/domain"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so the same queries run both
// standalone and inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

const userColumns = `telegram_id, username, first_seen, last_seen, daily_free_used,
	last_reset_date, premium_until, stars_balance, referred_by, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.TelegramID, &u.Username, &u.FirstSeen, &u.LastSeen, &u.DailyFreeUsed,
		&u.LastResetDate, &u.PremiumUntil, &u.StarsBalance, &u.ReferredBy, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (q *Queries) CreateUserIfAbsent(ctx context.Context, telegramID int64, username string, referredBy *int64, today time.Time) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`INSERT INTO users (telegram_id, username, first_seen, last_seen, last_reset_date, referred_by)
		 VALUES ($1, $2, $3, $3, $3, $4)
		 ON CONFLICT (telegram_id) DO NOTHING`,
		telegramID, username, today, referredBy)
	if err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *Queries) GetUser(ctx context.Context, telegramID int64) (domain.User, error) {
	return scanUser(q.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
}

func (q *Queries) GetUserForUpdate(ctx context.Context, telegramID int64) (domain.User, error) {
	return scanUser(q.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1 FOR UPDATE`, telegramID))
}

func (q *Queries) UpdateUserSeen(ctx context.Context, telegramID int64, username string, today time.Time) error {
	_, err := q.db.Exec(ctx,
		`UPDATE users SET last_seen = $2, username = $3, updated_at = now() WHERE telegram_id = $1`,
		telegramID, today, username)
	if err != nil {
		return fmt.Errorf("update user seen: %w", err)
	}
	return nil
}

func (q *Queries) ResetDailyIfStale(ctx context.Context, telegramID int64, today time.Time) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE users SET daily_free_used = 0, last_reset_date = $2, updated_at = now()
		 WHERE telegram_id = $1 AND last_reset_date <> $2`,
		telegramID, today)
	if err != nil {
		return false, fmt.Errorf("reset daily quota: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *Queries) ResetAllStale(ctx context.Context, today time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE users SET daily_free_used = 0, last_reset_date = $1, updated_at = now()
		 WHERE last_reset_date <> $1`, today)
	if err != nil {
		return 0, fmt.Errorf("sweep daily quota: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ConsumeFreeSlot increments the daily counter, guarded so the counter never
// exceeds the quota under concurrent commits.
func (q *Queries) ConsumeFreeSlot(ctx context.Context, telegramID int64, quota int) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE users SET daily_free_used = daily_free_used + 1, updated_at = now()
		 WHERE telegram_id = $1 AND daily_free_used < $2`,
		telegramID, quota)
	if err != nil {
		return false, fmt.Errorf("consume free slot: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ConsumeStar decrements the balance, guarded so it never goes negative.
func (q *Queries) ConsumeStar(ctx context.Context, telegramID int64) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE users SET stars_balance = stars_balance - 1, updated_at = now()
		 WHERE telegram_id = $1 AND stars_balance > 0`,
		telegramID)
	if err != nil {
		return false, fmt.Errorf("consume star: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *Queries) AddStars(ctx context.Context, telegramID int64, delta int) (int, error) {
	var balance int
	err := q.db.QueryRow(ctx,
		`UPDATE users SET stars_balance = stars_balance + $2, updated_at = now()
		 WHERE telegram_id = $1 AND stars_balance + $2 >= 0
		 RETURNING stars_balance`,
		telegramID, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := q.GetUser(ctx, telegramID); getErr != nil {
				return 0, getErr
			}
			return 0, domain.ErrInvalidAmount
		}
		return 0, fmt.Errorf("add stars: %w", err)
	}
	return balance, nil
}

func (q *Queries) SetPremiumUntil(ctx context.Context, telegramID int64, until time.Time) error {
	_, err := q.db.Exec(ctx,
		`UPDATE users SET premium_until = $2, updated_at = now() WHERE telegram_id = $1`,
		telegramID, until)
	if err != nil {
		return fmt.Errorf("set premium: %w", err)
	}
	return nil
}

// SetReferrer records who referred the user. First write wins; self-referrals
// never match.
func (q *Queries) SetReferrer(ctx context.Context, telegramID, referrerID int64) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE users SET referred_by = $2, updated_at = now()
		 WHERE telegram_id = $1 AND referred_by IS NULL AND telegram_id <> $2`,
		telegramID, referrerID)
	if err != nil {
		return false, fmt.Errorf("set referrer: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

const paymentColumns = `id, user_id, package_code, stars, amount, status, referrer_id, created_at, updated_at`

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.PackageCode, &p.Stars, &p.Amount, &p.Status,
		&p.ReferrerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Payment{}, domain.ErrUnknownPayment
		}
		return domain.Payment{}, fmt.Errorf("scan payment: %w", err)
	}
	return p, nil
}

func (q *Queries) CreatePayment(ctx context.Context, p domain.Payment) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO payments (id, user_id, package_code, stars, amount, status, referrer_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.UserID, p.PackageCode, p.Stars, p.Amount, p.Status, p.ReferrerID)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (q *Queries) GetPayment(ctx context.Context, id string) (domain.Payment, error) {
	return scanPayment(q.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (q *Queries) GetPaymentForUpdate(ctx context.Context, id string) (domain.Payment, error) {
	return scanPayment(q.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
}

func (q *Queries) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	_, err := q.db.Exec(ctx,
		`UPDATE payments SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	return nil
}

func (q *Queries) GetPendingPaymentByUser(ctx context.Context, userID int64) (*domain.Payment, error) {
	p, err := scanPayment(q.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE user_id = $1 AND status = 'pending'
		 ORDER BY created_at DESC LIMIT 1`, userID))
	if err != nil {
		if errors.Is(err, domain.ErrUnknownPayment) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (q *Queries) CreateReferralIfAbsent(ctx context.Context, referrerID, refereeID int64) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO referrals (referrer_id, referee_id)
		 VALUES ($1, $2)
		 ON CONFLICT (referrer_id, referee_id) DO NOTHING`,
		referrerID, refereeID)
	if err != nil {
		return fmt.Errorf("create referral: %w", err)
	}
	return nil
}

// MarkReferralRewarded flips the reward flag. The NOT rewarded guard makes the
// flip happen at most once per referee.
func (q *Queries) MarkReferralRewarded(ctx context.Context, referrerID, refereeID int64, paymentID string) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE referrals SET rewarded = TRUE, payment_id = $3, rewarded_at = now()
		 WHERE referrer_id = $1 AND referee_id = $2 AND NOT rewarded`,
		referrerID, refereeID, paymentID)
	if err != nil {
		return false, fmt.Errorf("mark referral rewarded: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *Queries) GetReferral(ctx context.Context, referrerID, refereeID int64) (*domain.Referral, error) {
	var r domain.Referral
	err := q.db.QueryRow(ctx,
		`SELECT referrer_id, referee_id, rewarded, payment_id, created_at, rewarded_at
		 FROM referrals WHERE referrer_id = $1 AND referee_id = $2`,
		referrerID, refereeID).
		Scan(&r.ReferrerID, &r.RefereeID, &r.Rewarded, &r.PaymentID, &r.CreatedAt, &r.RewardedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get referral: %w", err)
	}
	return &r, nil
}

func (q *Queries) CountReferrals(ctx context.Context, referrerID int64) (total, rewarded int64, err error) {
	err = q.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE rewarded)
		 FROM referrals WHERE referrer_id = $1`, referrerID).
		Scan(&total, &rewarded)
	if err != nil {
		return 0, 0, fmt.Errorf("count referrals: %w", err)
	}
	return total, rewarded, nil
}

func (q *Queries) AddHistory(ctx context.Context, userID int64, niche, ideas string, keep int) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO history (user_id, niche, ideas) VALUES ($1, $2, $3)`,
		userID, niche, ideas)
	if err != nil {
		return fmt.Errorf("add history: %w", err)
	}

	_, err = q.db.Exec(ctx,
		`DELETE FROM history WHERE user_id = $1 AND id NOT IN (
		     SELECT id FROM history WHERE user_id = $1 ORDER BY id DESC LIMIT $2
		 )`, userID, keep)
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

func (q *Queries) ListHistory(ctx context.Context, userID int64, limit int) ([]domain.HistoryEntry, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, user_id, niche, ideas, created_at FROM history
		 WHERE user_id = $1 ORDER BY id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Niche, &e.Ideas, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
