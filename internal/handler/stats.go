package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/clipmint/reelsbot/internal/middleware"
)

func (h *Handler) handleStats(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	snap, premium, err := h.ledger.Snapshot(ctx, user.TelegramID)
	if err != nil {
		slog.Error("snapshot failed", "error", err, "user_id", user.TelegramID)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 *Статистика*\n\n")
	sb.WriteString(fmt.Sprintf("Бесплатные сегодня: *%d/%d*\n", snap.DailyFreeUsed, h.ledger.Quota()))
	sb.WriteString(fmt.Sprintf("Баланс: *%d* ⭐\n", snap.StarsBalance))
	if premium && snap.PremiumUntil != nil {
		sb.WriteString(fmt.Sprintf("💎 Премиум до *%s*\n", snap.PremiumUntil.Format("02.01.2006")))
	}

	if h.cfg.IsAdmin(user.TelegramID) {
		if total, err := h.userService.CountUsers(ctx); err == nil {
			sb.WriteString(fmt.Sprintf("\nВсего пользователей: *%d*", total))
		}
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        sb.String(),
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: mainKeyboard(),
	})
}
