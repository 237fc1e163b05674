package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/clipmint/reelsbot/internal/middleware"
)

// handleReferral shows the user's invite link and referral stats. The link
// carries the inviter's id in the start payload.
func (h *Handler) handleReferral(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	total, rewarded, err := h.userService.ReferralStats(ctx, user.TelegramID)
	if err != nil {
		slog.Error("referral stats failed", "error", err, "user_id", user.TelegramID)
		return
	}

	link := fmt.Sprintf("https://t.me/%s?start=r_%d", h.botUsername, user.TelegramID)

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text: fmt.Sprintf(
			"🎁 *Реферальная программа*\n\n"+
				"Приглашай друзей по ссылке и получай *%d* ⭐ за первую покупку каждого:\n\n"+
				"`%s`\n\n"+
				"Приглашено: *%d*\nС покупкой: *%d*",
			h.cfg.ReferralBonusStars, link, total, rewarded,
		),
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: mainKeyboard(),
	})
}
