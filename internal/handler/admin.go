package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/clipmint/reelsbot/internal/middleware"
)

// handleAdmin serves the operator subcommands:
//
//	/admin grant <user_id> <days>   extend a user's premium window
//	/admin stars <user_id> <delta>  adjust a user's stars balance
func (h *Handler) handleAdmin(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil || !h.cfg.IsAdmin(user.TelegramID) {
		return
	}

	chatID := update.Message.Chat.ID
	parts := strings.Fields(update.Message.Text)
	if len(parts) < 4 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Использование:\n/admin grant <user_id> <days>\n/admin stars <user_id> <delta>",
		})
		return
	}

	targetID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Некорректный user_id.",
		})
		return
	}
	amount, err := strconv.Atoi(parts[3])
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Некорректное число.",
		})
		return
	}

	switch parts[1] {
	case "grant":
		if amount <= 0 {
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "❌ Количество дней должно быть больше нуля.",
			})
			return
		}
		until, err := h.ledger.ExtendPremium(ctx, targetID, amount)
		if err != nil {
			slog.Error("admin grant premium", "error", err, "target_id", targetID)
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   fmt.Sprintf("❌ Ошибка: %v", err),
			})
			return
		}
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("✅ Премиум для %d продлён до %s.", targetID, until.Format("02.01.2006")),
		})

	case "stars":
		balance, err := h.ledger.CreditStars(ctx, targetID, amount)
		if err != nil {
			slog.Error("admin credit stars", "error", err, "target_id", targetID)
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   fmt.Sprintf("❌ Ошибка: %v", err),
			})
			return
		}
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("✅ Баланс %d изменён на %+d, теперь %d ⭐.", targetID, amount, balance),
		})

	default:
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Неизвестная подкоманда. Доступны: grant, stars.",
		})
	}
}
