package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"

	"github.com/clipmint/reelsbot/internal/config"
)

type LogType string

const (
	LogTypeError        LogType = "error"
	LogTypeBalanceTopUp LogType = "balance_topup"
	LogTypeRegistration LogType = "registration"
)

// TelegramLogger mirrors operational events into a Telegram log chat with
// per-type forum topics. Delivery is best effort.
type TelegramLogger struct {
	bot *bot.Bot
	cfg *config.Config
}

func NewTelegramLogger(b *bot.Bot, cfg *config.Config) *TelegramLogger {
	return &TelegramLogger{bot: b, cfg: cfg}
}

func (l *TelegramLogger) Log(logType LogType, message string) {
	if l.cfg.LogTelegramChatID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := l.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       "Markdown",
		MessageThreadID: l.getTopicID(logType),
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(err error, context string) {
	msg := fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`\n*Time:* %s",
		context, err.Error(), time.Now().Format("2006-01-02 15:04:05"))
	l.Log(LogTypeError, msg)
}

func (l *TelegramLogger) LogRegistration(telegramID int64, username string, referredBy string) {
	msg := fmt.Sprintf("👤 *New Registration*\n\n*ID:* `%d`\n*Username:* @%s", telegramID, username)
	if referredBy != "" {
		msg += fmt.Sprintf("\n*Referred by:* %s", referredBy)
	}
	l.Log(LogTypeRegistration, msg)
}

func (l *TelegramLogger) LogBalanceTopUp(telegramID int64, stars int, method string) {
	msg := fmt.Sprintf("💰 *Balance Top-Up*\n\n*User:* `%d`\n*Stars:* %d\n*Method:* %s",
		telegramID, stars, method)
	l.Log(LogTypeBalanceTopUp, msg)
}

func (l *TelegramLogger) getTopicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeRegistration:
		return l.cfg.LogTopicRegistration
	case LogTypeBalanceTopUp:
		return l.cfg.LogTopicBalanceTopUp
	default:
		return 0
	}
}
