package handler

import (
	"github.com/go-telegram/bot"

	"github.com/clipmint/reelsbot/internal/config"
	"github.com/clipmint/reelsbot/internal/service"
	"github.com/clipmint/reelsbot/internal/telegram"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot         *bot.Bot
	cfg         *config.Config
	userService *service.UserService
	ledger      *service.LedgerService
	payments    *service.PaymentService
	cache       *service.IdeaCache
	generator   *service.Generator
	trends      *service.TrendsService
	history     *service.HistoryService
	tgLogger    *telegram.TelegramLogger
	botUsername string
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot         *bot.Bot
	Cfg         *config.Config
	UserService *service.UserService
	Ledger      *service.LedgerService
	Payments    *service.PaymentService
	Cache       *service.IdeaCache
	Generator   *service.Generator
	Trends      *service.TrendsService
	History     *service.HistoryService
	TgLogger    *telegram.TelegramLogger
	BotUsername string
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:         deps.Bot,
		cfg:         deps.Cfg,
		userService: deps.UserService,
		ledger:      deps.Ledger,
		payments:    deps.Payments,
		cache:       deps.Cache,
		generator:   deps.Generator,
		trends:      deps.Trends,
		history:     deps.History,
		tgLogger:    deps.TgLogger,
		botUsername: deps.BotUsername,
	}
}
