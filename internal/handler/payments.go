package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/clipmint/reelsbot/internal/domain"
	"github.com/clipmint/reelsbot/internal/metrics"
	"github.com/clipmint/reelsbot/internal/middleware"
	tg "github.com/clipmint/reelsbot/internal/telegram"
)

// Cryptomus handlers

func (h *Handler) handleCryptoAmount(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	answerCallback(ctx, b, update)

	amtStr := strings.TrimPrefix(update.CallbackQuery.Data, "crypto_amt_")
	amount, err := strconv.ParseFloat(amtStr, 64)
	if err != nil || amount <= 0 {
		return
	}

	userID := update.CallbackQuery.From.ID
	chatID := callbackChatID(update)

	inv, err := h.payments.InitiateCrypto(ctx, userID, amount)
	if err != nil {
		slog.Error("create crypto invoice", "error", err, "user_id", userID)
		h.tgLogger.LogError(err, "create crypto invoice")
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "⚠️ Не удалось создать счёт, попробуйте позже.",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      fmt.Sprintf("💰 Счёт на *$%.2f* создан. Оплати по ссылке, затем нажми «Проверить».", amount),
		ParseMode: models.ParseModeMarkdown,
		ReplyMarkup: tg.InlineKeyboard(
			tg.ButtonRow(tg.URLButton("Оплатить", inv.PaymentURL)),
			tg.ButtonRow(tg.InlineButton("🔄 Проверить оплату", "crypto_check")),
		),
	})
}

// handleCryptoCheck polls the provider for the user's pending invoice. The
// webhook is the primary settlement path; this is the manual fallback.
func (h *Handler) handleCryptoCheck(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	answerCallback(ctx, b, update)

	userID := update.CallbackQuery.From.ID
	chatID := callbackChatID(update)

	pending, err := h.payments.PendingPayment(ctx, userID)
	if err != nil || pending == nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Активных счетов не найдено.",
		})
		return
	}

	res, err := h.payments.Poll(ctx, pending.ID)
	if err != nil {
		slog.Error("poll crypto payment", "error", err, "payment_id", pending.ID)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "⚠️ Не удалось проверить оплату, попробуйте через минуту.",
		})
		return
	}

	switch {
	case res.Payment.Status == domain.PaymentStatusPending:
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "⏳ Оплата ещё не поступила. Попробуй проверить чуть позже.",
		})
	case res.Payment.Status == domain.PaymentStatusCanceled:
		if !res.Replay {
			metrics.PaymentsSettledTotal.WithLabelValues(string(res.Payment.Status)).Inc()
		}
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Счёт отменён или истёк.",
		})
	default:
		if res.Replay {
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "✅ Этот платёж уже зачислен.",
			})
			return
		}
		metrics.PaymentsSettledTotal.WithLabelValues(string(res.Payment.Status)).Inc()
		h.notifySettled(ctx, b, chatID, res, "Cryptomus")
	}
}

// handleCheckStatus shows the caller's current entitlement state.
func (h *Handler) handleCheckStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	answerCallback(ctx, b, update)

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	chatID := callbackChatID(update)

	snap, premium, err := h.ledger.Snapshot(ctx, user.TelegramID)
	if err != nil {
		slog.Error("snapshot failed", "error", err, "user_id", user.TelegramID)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 *Твой статус*\n\n")
	if premium && snap.PremiumUntil != nil {
		sb.WriteString(fmt.Sprintf("💎 Премиум до *%s*\n", snap.PremiumUntil.Format("02.01.2006")))
	} else {
		sb.WriteString(fmt.Sprintf("Бесплатные генерации: *%d/%d*\n", snap.DailyFreeUsed, h.ledger.Quota()))
	}
	sb.WriteString(fmt.Sprintf("Баланс: *%d* ⭐", snap.StarsBalance))

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      sb.String(),
		ParseMode: models.ParseModeMarkdown,
	})
}
