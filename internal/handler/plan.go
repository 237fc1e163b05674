package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/clipmint/reelsbot/internal/service"
	tg "github.com/clipmint/reelsbot/internal/telegram"
)

func (h *Handler) handlePlan(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	niche := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/plan"))
	if niche == "" {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    update.Message.Chat.ID,
			Text:      "Использование: `/plan ниша`",
			ParseMode: models.ParseModeMarkdown,
		})
		return
	}

	h.sendPlan(ctx, b, update.Message.Chat.ID, niche)
}

func (h *Handler) handlePlanCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	answerCallback(ctx, b, update)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    callbackChatID(update),
		Text:      "Пришли команду `/plan ниша` и я соберу контент\\-план на неделю 📅",
		ParseMode: models.ParseModeMarkdown,
	})
}

// sendPlan is free: the plan is assembled from local templates and never
// touches the quota.
func (h *Handler) sendPlan(ctx context.Context, b *bot.Bot, chatID int64, niche string) {
	plan := service.BuildWeekPlan(niche)
	tg.SendLongMessage(ctx, b, chatID, plan, mainKeyboard())
}
