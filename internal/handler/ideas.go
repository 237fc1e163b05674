package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/clipmint/reelsbot/internal/config"
	"github.com/clipmint/reelsbot/internal/metrics"
	"github.com/clipmint/reelsbot/internal/middleware"
	"github.com/clipmint/reelsbot/internal/service"
	tg "github.com/clipmint/reelsbot/internal/telegram"
)

func (h *Handler) handleIdeas(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	niche := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/ideas"))
	if niche == "" {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      update.Message.Chat.ID,
			Text:        "Использование: `/ideas ниша`",
			ParseMode:   models.ParseModeMarkdown,
			ReplyMarkup: mainKeyboard(),
		})
		return
	}

	h.generate(ctx, b, update.Message.Chat.ID, niche, true)
}

// HandleText treats any non-command private text as a niche.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	niche := strings.TrimSpace(update.Message.Text)
	if niche == "" {
		return
	}

	h.generate(ctx, b, update.Message.Chat.ID, niche, true)
}

func (h *Handler) handleMoreCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	answerCallback(ctx, b, update)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      callbackChatID(update),
		Text:        "Напиши нишу одним сообщением, и я пришлю ещё идеи ✍️",
		ReplyMarkup: mainKeyboard(),
	})
}

// handleRefresh regenerates the user's latest niche bypassing the cache. The
// fresh result overwrites the cached entry.
func (h *Handler) handleRefresh(ctx context.Context, b *bot.Bot, update *models.Update) {
	answerCallback(ctx, b, update)

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	chatID := callbackChatID(update)

	entries, err := h.history.Recent(ctx, user.TelegramID)
	if err != nil || len(entries) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Сначала сгенерируй идеи — напиши нишу одним сообщением.",
		})
		return
	}

	h.generate(ctx, b, chatID, entries[0].Niche, false)
}

// generate runs the full entitlement → cache → provider → commit pipeline.
func (h *Handler) generate(ctx context.Context, b *bot.Bot, chatID int64, niche string, useCache bool) {
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	decision, err := h.ledger.Authorize(ctx, user.TelegramID)
	if err != nil {
		slog.Error("authorize failed", "error", err, "user_id", user.TelegramID)
		h.tgLogger.LogError(err, "authorize")
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "⚠️ Временная ошибка, попробуйте ещё раз.",
		})
		return
	}

	if !decision.Allowed {
		metrics.DenialsTotal.Inc()
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text: fmt.Sprintf(
				"Лимит бесплатных генераций на сегодня исчерпан (%d/%d). "+
					"Твой баланс Stars: %d. Нажми /premium чтобы пополнить или оформить премиум.",
				decision.Used, decision.Quota, decision.Balance,
			),
			ReplyMarkup: mainKeyboard(),
		})
		return
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	defer stopTyping()

	var ideas string
	if useCache {
		cached, ok, err := h.cache.Get(ctx, niche)
		if err != nil {
			slog.Warn("cache get failed", "error", err, "niche", niche)
		}
		if ok {
			ideas = cached
			metrics.CacheHitsTotal.Inc()
			metrics.GenerationsTotal.WithLabelValues("cache").Inc()
		} else {
			metrics.CacheMissesTotal.Inc()
		}
	}

	if ideas == "" {
		res, err := h.generator.Ideas(ctx, niche, config.IdeasPerRequest)
		if err != nil {
			// Cancellation or hard failure: nothing was committed, the
			// entitlement stays unspent.
			slog.Error("generation failed", "error", err, "niche", niche)
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "⚠️ Не получилось сгенерировать, попробуйте ещё раз.",
			})
			return
		}
		ideas = res.Text
		metrics.GenerationsTotal.WithLabelValues(string(res.Source)).Inc()

		if err := h.cache.Put(ctx, niche, ideas); err != nil {
			slog.Warn("cache put failed", "error", err, "niche", niche)
		}
	}

	if err := h.history.Add(ctx, user.TelegramID, niche, ideas); err != nil {
		slog.Warn("history add failed", "error", err, "user_id", user.TelegramID)
	}

	rows := append(
		[][]models.InlineKeyboardButton{tg.ButtonRow(tg.InlineButton("🔄 Обновить", "refresh"))},
		mainKeyboard().InlineKeyboard...,
	)
	markup := tg.InlineKeyboard(rows...)
	if err := tg.SendLongMessage(ctx, b, chatID, ideas, markup); err != nil {
		slog.Error("send ideas failed", "error", err, "chat_id", chatID)
		return
	}

	if err := h.ledger.Commit(ctx, decision); err != nil {
		slog.Error("commit failed", "error", err, "user_id", user.TelegramID)
		h.tgLogger.LogError(err, "ledger commit")
		return
	}

	if decision.Mode == service.CostStar {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "✅ Списана 1 ⭐ за дополнительную генерацию.",
		})
	}
}
