package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/clipmint/reelsbot/internal/config"
	"github.com/clipmint/reelsbot/internal/domain"
	"github.com/clipmint/reelsbot/internal/metrics"
	"github.com/clipmint/reelsbot/internal/middleware"
	"github.com/clipmint/reelsbot/internal/service"
	tg "github.com/clipmint/reelsbot/internal/telegram"
)

func (h *Handler) handlePremium(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendPremiumMenu(ctx, b, update.Message.Chat.ID)
}

func (h *Handler) handlePremiumCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	answerCallback(ctx, b, update)
	h.sendPremiumMenu(ctx, b, callbackChatID(update))
}

func (h *Handler) sendPremiumMenu(ctx context.Context, b *bot.Bot, chatID int64) {
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString("💎 *Премиум и Stars*\n\n")
	if until := user.PremiumUntil; until != nil {
		sb.WriteString(fmt.Sprintf("Премиум активен до *%s*\n", until.Format("02.01.2006")))
	}
	sb.WriteString(fmt.Sprintf("Баланс: *%d* ⭐\n\nВыберите пакет:", user.StarsBalance))

	var rows [][]models.InlineKeyboardButton
	for _, pkg := range config.Packages {
		rows = append(rows, tg.ButtonRow(
			tg.InlineButton(fmt.Sprintf("%s — %d ⭐", pkg.Title, pkg.PriceXTR), "buy_"+pkg.Code),
		))
	}
	for _, amt := range config.CryptomusPaymentAmounts {
		rows = append(rows, tg.ButtonRow(
			tg.InlineButton(fmt.Sprintf("💰 Крипта $%.0f", amt), fmt.Sprintf("crypto_amt_%.0f", amt)),
		))
	}
	rows = append(rows, tg.ButtonRow(tg.InlineButton("📊 Мой статус", "check_status")))

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: tg.InlineKeyboard(rows...),
	})
}

func (h *Handler) handleBuy(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	answerCallback(ctx, b, update)

	code := strings.TrimPrefix(update.CallbackQuery.Data, "buy_")
	pkg, ok := config.PackageByCode(code)
	if !ok {
		return
	}

	userID := update.CallbackQuery.From.ID
	paymentID, err := h.payments.InitiateStars(ctx, userID, pkg)
	if err != nil {
		slog.Error("initiate stars payment", "error", err, "user_id", userID)
		h.tgLogger.LogError(err, "initiate stars payment")
		return
	}

	b.SendInvoice(ctx, &bot.SendInvoiceParams{
		ChatID:      userID,
		Title:       pkg.Title,
		Description: invoiceDescription(pkg),
		Payload:     paymentID,
		Currency:    "XTR",
		Prices: []models.LabeledPrice{
			{Label: pkg.Title, Amount: pkg.PriceXTR},
		},
	})
}

func invoiceDescription(pkg config.Package) string {
	if pkg.Days > 0 {
		return fmt.Sprintf("Безлимитные генерации на %d дней", pkg.Days)
	}
	return fmt.Sprintf("Пополнение баланса на %d ⭐", pkg.Stars)
}

func (h *Handler) HandlePreCheckout(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.PreCheckoutQuery == nil {
		return
	}
	b.AnswerPreCheckoutQuery(ctx, &bot.AnswerPreCheckoutQueryParams{
		PreCheckoutQueryID: update.PreCheckoutQuery.ID,
		OK:                 true,
	})
}

// HandleSuccessfulPayment should be called from the default message handler.
// The invoice payload is the payment id; everything else flows through Settle.
func (h *Handler) HandleSuccessfulPayment(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.SuccessfulPayment == nil {
		return
	}

	payload := update.Message.SuccessfulPayment.InvoicePayload
	chatID := update.Message.Chat.ID

	res, err := h.payments.Settle(ctx, payload, domain.PaymentStatusSucceeded)
	if err != nil {
		slog.Error("settle stars payment", "error", err, "payment_id", payload)
		h.tgLogger.LogError(err, "settle stars payment")
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "⚠️ Платёж получен, но не удалось зачислить. Напишите в поддержку, средства не потеряны.",
		})
		return
	}
	if res.Replay {
		return
	}
	metrics.PaymentsSettledTotal.WithLabelValues(string(res.Payment.Status)).Inc()

	h.notifySettled(ctx, b, chatID, res, "Telegram Stars")
}

// notifySettled renders the settlement outcome to the payer and, best effort,
// pings the rewarded referrer.
func (h *Handler) notifySettled(ctx context.Context, b *bot.Bot, chatID int64, res *service.SettleResult, method string) {
	var text string
	switch {
	case res.PremiumUntil != "":
		text = fmt.Sprintf("✅ Премиум активирован до *%s*! Генерации без лимита.", res.PremiumUntil)
	default:
		text = fmt.Sprintf("✅ Зачислено *%d* ⭐!", res.Payment.Stars)
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})

	h.tgLogger.LogBalanceTopUp(res.Payment.UserID, res.Payment.Stars, method)

	if res.Reward.Rewarded {
		metrics.ReferralRewardsTotal.Inc()
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: res.Reward.ReferrerID,
			Text:   fmt.Sprintf("🎁 Твой приглашённый сделал первую покупку, тебе начислено %d ⭐!", res.Reward.Bonus),
		})
	}
}
