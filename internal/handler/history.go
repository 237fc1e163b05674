package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/clipmint/reelsbot/internal/middleware"
	tg "github.com/clipmint/reelsbot/internal/telegram"
)

func (h *Handler) handleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendHistory(ctx, b, update.Message.Chat.ID)
}

func (h *Handler) handleHistoryCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	answerCallback(ctx, b, update)
	h.sendHistory(ctx, b, callbackChatID(update))
}

func (h *Handler) sendHistory(ctx context.Context, b *bot.Bot, chatID int64) {
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	entries, err := h.history.Recent(ctx, user.TelegramID)
	if err != nil {
		slog.Error("history fetch failed", "error", err, "user_id", user.TelegramID)
		return
	}
	if len(entries) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        "История пока пуста. Напиши нишу и я сгенерирую первые идеи!",
			ReplyMarkup: mainKeyboard(),
		})
		return
	}

	var sb strings.Builder
	sb.WriteString("🗂 Последние запросы:\n\n")
	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, e.Niche, e.CreatedAt.Format("02.01 15:04")))
	}
	sb.WriteString("\nНажми «Обновить» под выдачей, чтобы перегенерировать последнюю нишу.")

	tg.SendLongMessage(ctx, b, chatID, sb.String(), mainKeyboard())
}
