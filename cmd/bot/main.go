package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	reelsbot "github.com/clipmint/reelsbot"
	"github.com/clipmint/reelsbot/internal/admin"
	"github.com/clipmint/reelsbot/internal/config"
	"github.com/clipmint/reelsbot/internal/handler"
	"github.com/clipmint/reelsbot/internal/middleware"
	"github.com/clipmint/reelsbot/internal/repository"
	"github.com/clipmint/reelsbot/internal/service"
	"github.com/clipmint/reelsbot/internal/telegram"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(reelsbot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Redis (content cache + rate limiting)
	rdb, err := repository.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Initialize store and services
	store := repository.NewStore(pool)

	var cryptomus *service.CryptomusClient
	if cfg.CryptomusEnabled {
		cryptomus = service.NewCryptomusClient(cfg.CryptomusMerchantID, cfg.CryptomusAPIKey, cfg.CryptomusURL)
	}

	userService := service.NewUserService(store)
	ledger := service.NewLedgerService(store, cfg.DailyFreeQuota)
	referralService := service.NewReferralService(store, cfg.ReferralBonusStars)
	paymentService := service.NewPaymentService(store, ledger, referralService, cryptomus)
	ideaCache := service.NewIdeaCache(rdb)
	generator := service.NewGenerator(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.ModelName)
	trendsService := service.NewTrendsService(cfg.TrendsURL)
	historyService := service.NewHistoryService(store)

	rateLimiter := middleware.NewRateLimiter(rdb)

	// Handler pointer for use in default handler closure
	var h *handler.Handler

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.RateLimit(rateLimiter, cfg.RateLimitPerMinute),
			middleware.UserLoader(userService),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			if update.PreCheckoutQuery != nil {
				h.HandlePreCheckout(ctx, b, update)
				return
			}
			if update.Message != nil && update.Message.SuccessfulPayment != nil {
				h.HandleSuccessfulPayment(ctx, b, update)
				return
			}
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}

	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	// Initialize telegram logger
	tgLogger := telegram.NewTelegramLogger(b, cfg)

	// Initialize handler
	h = handler.New(handler.Deps{
		Bot:         b,
		Cfg:         cfg,
		UserService: userService,
		Ledger:      ledger,
		Payments:    paymentService,
		Cache:       ideaCache,
		Generator:   generator,
		Trends:      trendsService,
		History:     historyService,
		TgLogger:    tgLogger,
		BotUsername: me.Username,
	})

	// Register all handlers
	h.Register()

	// Default text handler: any plain private message is a niche request
	b.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.SuccessfulPayment != nil {
			return
		}
		// Skip commands
		if len(update.Message.Text) > 0 && update.Message.Text[0] == '/' {
			return
		}
		if update.Message.Chat.Type == "private" {
			h.HandleText(ctx, b, update)
		}
	})

	// Start ops HTTP server (health, metrics, payment webhook)
	opsServer := admin.NewServer(cfg.AdminAddr, cfg.AdminUser, cfg.AdminPassword, logger, userService, ledger, paymentService, cryptomus)
	go func() {
		if err := opsServer.Run(ctx); err != nil {
			slog.Error("ops server failed", "error", err)
		}
	}()

	// Start daily quota sweep goroutine
	go func() {
		ticker := time.NewTicker(config.DailySweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := ledger.SweepStale(context.Background()); err != nil {
					slog.Error("daily sweep failed", "error", err)
				} else if n > 0 {
					slog.Info("daily quota sweep", "reset_users", n)
				}
			}
		}
	}()

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID)
	b.Start(ctx)

	// Graceful shutdown
	slog.Info("bot stopped gracefully")
}
