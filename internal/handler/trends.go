package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (h *Handler) handleTrends(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendTrends(ctx, b, update.Message.Chat.ID)
}

func (h *Handler) handleTrendsCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	answerCallback(ctx, b, update)
	h.sendTrends(ctx, b, callbackChatID(update))
}

func (h *Handler) sendTrends(ctx context.Context, b *bot.Bot, chatID int64) {
	tips := h.trends.Tips(ctx)

	var sb strings.Builder
	sb.WriteString("📈 Что сейчас залетает в Reels:\n\n")
	for _, tip := range tips {
		sb.WriteString("• ")
		sb.WriteString(tip)
		sb.WriteString("\n")
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ReplyMarkup: mainKeyboard(),
	})
}
