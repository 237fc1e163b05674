package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Redis (content cache + rate limiting)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Generation provider (OpenAI-compatible). Empty key switches to local templates.
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	ModelName     string `env:"MODEL_NAME" envDefault:"gpt-4o-mini"`

	// Entitlements
	DailyFreeQuota     int `env:"DAILY_FREE_QUOTA" envDefault:"1"`
	ReferralBonusStars int `env:"REFERRAL_BONUS_STARS" envDefault:"5"`

	// Payment: Cryptomus (crypto)
	CryptomusEnabled    bool   `env:"CRYPTOMUS_ENABLED" envDefault:"false"`
	CryptomusMerchantID string `env:"CRYPTOMUS_MERCHANT_ID"`
	CryptomusAPIKey     string `env:"CRYPTOMUS_API_KEY"`
	CryptomusURL        string `env:"CRYPTOMUS_API_URL" envDefault:"https://api.cryptomus.com/v1"`

	// Admin
	AdminIDs      []int64 `env:"ADMIN_IDS" envSeparator:","`
	AdminAddr     string  `env:"ADMIN_ADDR" envDefault:":8080"`
	AdminUser     string  `env:"ADMIN_USER" envDefault:"admin"`
	AdminPassword string  `env:"ADMIN_PASSWORD"`

	// Trends scraper; empty URL keeps the built-in tips.
	TrendsURL string `env:"TRENDS_URL"`

	// Rate limiting (messages per minute per chat)
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"6"`

	// Telegram logging
	LogTelegramChatID    int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError        int   `env:"LOG_TOPIC_ERROR"`
	LogTopicBalanceTopUp int   `env:"LOG_TOPIC_BALANCE_TOPUP"`
	LogTopicRegistration int   `env:"LOG_TOPIC_REGISTRATION"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}
