package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Register registers all command and callback handlers on the bot instance.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, h.handleHelp)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/ideas", bot.MatchTypePrefix, h.handleIdeas)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/plan", bot.MatchTypePrefix, h.handlePlan)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/trends", bot.MatchTypePrefix, h.handleTrends)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypePrefix, h.handleHistory)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/premium", bot.MatchTypePrefix, h.handlePremium)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/referral", bot.MatchTypePrefix, h.handleReferral)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/stats", bot.MatchTypePrefix, h.handleStats)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admin", bot.MatchTypePrefix, h.handleAdmin)

	// Main keyboard callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "more", bot.MatchTypeExact, h.handleMoreCallback)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "plan", bot.MatchTypeExact, h.handlePlanCallback)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "trends", bot.MatchTypeExact, h.handleTrendsCallback)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "history", bot.MatchTypeExact, h.handleHistoryCallback)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "premium", bot.MatchTypeExact, h.handlePremiumCallback)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "refresh", bot.MatchTypeExact, h.handleRefresh)

	// Payment callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "buy_", bot.MatchTypePrefix, h.handleBuy)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "check_status", bot.MatchTypeExact, h.handleCheckStatus)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "crypto_check", bot.MatchTypeExact, h.handleCryptoCheck)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "crypto_amt_", bot.MatchTypePrefix, h.handleCryptoAmount)

	// Note: PreCheckoutQuery and SuccessfulPayment are routed via the default
	// handler in main.go.
}

// answerCallback acknowledges a callback query so the button stops spinning.
func answerCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
		})
	}
}

// callbackChatID extracts the chat of the message the pressed button hangs on.
func callbackChatID(update *models.Update) int64 {
	if update.CallbackQuery == nil {
		return 0
	}
	if msg := update.CallbackQuery.Message.Message; msg != nil {
		return msg.Chat.ID
	}
	return 0
}
