package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clipmint/reelsbot/internal/config"
	"github.com/clipmint/reelsbot/internal/domain"
	"github.com/clipmint/reelsbot/internal/repository"
)

// PaymentService turns external payment notifications into exactly-once ledger
// effects. All idempotence lives in Settle; webhook, successful-payment update
// and the manual reconciliation poll all funnel into it.
type PaymentService struct {
	store     repository.Store
	ledger    *LedgerService
	referrals *ReferralService
	cryptomus *CryptomusClient
}

func NewPaymentService(store repository.Store, ledger *LedgerService, referrals *ReferralService, cryptomus *CryptomusClient) *PaymentService {
	return &PaymentService{
		store:     store,
		ledger:    ledger,
		referrals: referrals,
		cryptomus: cryptomus,
	}
}

// InitiateStars creates a pending payment for a Telegram Stars invoice and
// returns the minted payment id, which travels as the invoice payload.
func (s *PaymentService) InitiateStars(ctx context.Context, userID int64, pkg config.Package) (string, error) {
	id := uuid.New().String()

	p := domain.Payment{
		ID:          id,
		UserID:      userID,
		PackageCode: pkg.Code,
		Stars:       pkg.Stars,
		Amount:      decimal.NewFromFloat(float64(pkg.PriceXTR) * config.XTRToDollarRate),
		Status:      domain.PaymentStatusPending,
		ReferrerID:  s.referrerOf(ctx, userID),
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return "", err
	}
	return id, nil
}

// InitiateCrypto creates a provider invoice and the matching pending payment
// keyed by the provider uuid. The credited star count is derived from the USD
// amount.
func (s *PaymentService) InitiateCrypto(ctx context.Context, userID int64, amountUSD float64) (*CryptomusInvoice, error) {
	if s.cryptomus == nil {
		return nil, fmt.Errorf("crypto payments disabled")
	}

	inv, err := s.cryptomus.CreateInvoice(ctx, amountUSD)
	if err != nil {
		return nil, err
	}

	stars := int(amountUSD / config.XTRToDollarRate)
	p := domain.Payment{
		ID:          inv.InvoiceID,
		UserID:      userID,
		PackageCode: "crypto_topup",
		Stars:       stars,
		Amount:      decimal.NewFromFloat(amountUSD),
		Status:      domain.PaymentStatusPending,
		ReferrerID:  s.referrerOf(ctx, userID),
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	return inv, nil
}

// SettleResult is a settled payment plus whatever side effects the transition
// produced, so the caller can render notifications without reloading state.
type SettleResult struct {
	Payment      domain.Payment
	Replay       bool   // the payment was already terminal; nothing changed
	PremiumUntil string // set when the package extended the premium window
	Reward       RewardResult
}

// Settle is the single state-transition function for a payment id. Replays of
// a terminal status return the stored record unchanged; the succeeded
// transition marks the record, credits the owner and rewards the referrer in
// one storage transaction.
func (s *PaymentService) Settle(ctx context.Context, paymentID string, status domain.PaymentStatus) (*SettleResult, error) {
	if status != domain.PaymentStatusSucceeded && status != domain.PaymentStatusCanceled {
		return nil, fmt.Errorf("settle to non-terminal status %q", status)
	}

	var res SettleResult
	err := s.store.WithTx(ctx, func(q repository.Querier) error {
		p, err := q.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		if p.Terminal() {
			res.Payment = p
			res.Replay = true
			return nil
		}

		if err := q.SetPaymentStatus(ctx, paymentID, status); err != nil {
			return err
		}
		p.Status = status
		res.Payment = p

		if status == domain.PaymentStatusCanceled {
			return nil
		}

		if pkg, ok := config.PackageByCode(p.PackageCode); ok && pkg.Days > 0 {
			until, err := s.ledger.extendPremiumTx(ctx, q, p.UserID, pkg.Days)
			if err != nil {
				return err
			}
			res.PremiumUntil = until.Format("2006-01-02")
		} else if p.Stars > 0 {
			if _, err := q.AddStars(ctx, p.UserID, p.Stars); err != nil {
				return fmt.Errorf("credit stars: %w", err)
			}
		}

		reward, err := s.referrals.rewardTx(ctx, q, p)
		if err != nil {
			return err
		}
		res.Reward = reward
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !res.Replay {
		slog.Info("payment settled",
			"payment_id", paymentID,
			"status", status,
			"user_id", res.Payment.UserID,
			"stars", res.Payment.Stars,
			"rewarded_referrer", res.Reward.Rewarded,
		)
	}
	return &res, nil
}

// Poll asks the provider for the payment's current status and settles it if
// terminal. Manual reconciliation path for lost webhooks; network errors are
// returned for the caller to retry, since settlement is idempotent.
func (s *PaymentService) Poll(ctx context.Context, paymentID string) (*SettleResult, error) {
	if s.cryptomus == nil {
		return nil, fmt.Errorf("crypto payments disabled")
	}

	status, err := s.cryptomus.PaymentStatus(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	switch status {
	case domain.PaymentStatusSucceeded, domain.PaymentStatusCanceled:
		return s.Settle(ctx, paymentID, status)
	default:
		p, err := s.store.GetPayment(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		return &SettleResult{Payment: p}, nil
	}
}

func (s *PaymentService) PendingPayment(ctx context.Context, userID int64) (*domain.Payment, error) {
	return s.store.GetPendingPaymentByUser(ctx, userID)
}

// referrerOf captures the referrer at payment creation time, mirroring the
// user record for reconciliation queries. Best effort; the reward itself reads
// the user row at settlement.
func (s *PaymentService) referrerOf(ctx context.Context, userID int64) *int64 {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil
	}
	return u.ReferredBy
}
