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
	tg "github.com/clipmint/reelsbot/internal/telegram"
)

const welcomeText = "👋 Привет! Я сгенерирую идеи для Reels/TikTok — просто напиши нишу, например: _фитнес_.\n" +
	"Бесплатно: %d генераций в день. Можно купить Stars или оформить Премиум.\n\n" +
	"Команды: /ideas, /plan, /trends, /history, /premium, /referral, /stats, /help"

const helpText = "🆘 Напиши нишу одним сообщением. Примеры: _фитнес_, _барбер_, _репетитор по матеше_.\n" +
	"/ideas <ниша> — идеи\n/plan <ниша> — план на 7 дней\n/trends — тренд-подсказки\n" +
	"/history — последние генерации\n/premium — купить Stars/Премиум\n" +
	"/referral — реферальная программа\n/stats — статистика"

func mainKeyboard() *models.InlineKeyboardMarkup {
	return tg.InlineKeyboard(
		tg.ButtonRow(
			tg.InlineButton("🎯 Ещё идеи", "more"),
			tg.InlineButton("📅 План 7 дней", "plan"),
		),
		tg.ButtonRow(
			tg.InlineButton("🔥 Тренды", "trends"),
			tg.InlineButton("⭐ Премиум", "premium"),
		),
		tg.ButtonRow(
			tg.InlineButton("💾 История", "history"),
		),
	)
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	chatID := update.Message.Chat.ID

	// Referral deep link: /start r_<referrer id>
	payload := ""
	if parts := strings.SplitN(update.Message.Text, " ", 2); len(parts) > 1 {
		payload = parts[1]
	}
	if strings.HasPrefix(payload, "r_") {
		referrerID, err := strconv.ParseInt(strings.TrimPrefix(payload, "r_"), 10, 64)
		if err == nil {
			attached, err := h.userService.AttachReferrer(ctx, user.TelegramID, referrerID)
			if err != nil {
				slog.Error("attach referrer failed", "error", err, "user_id", user.TelegramID)
			} else if attached {
				slog.Info("referral attached", "referrer_id", referrerID, "referee_id", user.TelegramID)
			}
		}
	}

	if middleware.IsNewUser(ctx) {
		h.tgLogger.LogRegistration(user.TelegramID, user.Username, payload)
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        fmt.Sprintf(welcomeText, h.ledger.Quota()),
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: mainKeyboard(),
	})
}

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        helpText,
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: mainKeyboard(),
	})
}
