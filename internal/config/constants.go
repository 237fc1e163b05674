package config

import "time"

const (
	// Telegram limits
	MaxTelegramMessageLen = 4096

	// AI request timeout
	RequestTimeout = 90 * time.Second

	// Trends cache duration
	TrendsCacheDuration = 1 * time.Hour

	// Telegram Stars conversion rate
	XTRToDollarRate = 0.013

	// Ideas per generation
	IdeasPerRequest = 3

	// History retention
	HistoryKeep = 50
	HistoryShow = 10

	// Premium package
	PremiumDays     = 7
	PremiumPriceXTR = 30

	// Daily-reset sweep interval (advisory; Authorize resets lazily anyway)
	DailySweepInterval = 10 * time.Minute
)

// Package is a purchasable bundle: either a stars top-up or a premium window.
type Package struct {
	Code     string
	Title    string
	Stars    int // credited units for stars packages
	PriceXTR int // invoice amount in Telegram Stars
	Days     int // premium days, 0 for stars packages
}

// Packages lists everything purchasable through Telegram Stars invoices.
var Packages = []Package{
	{Code: "stars_5", Title: "5 ⭐ пакет", Stars: 5, PriceXTR: 5},
	{Code: "stars_20", Title: "20 ⭐ пакет", Stars: 20, PriceXTR: 20},
	{Code: "premium_7d", Title: "Премиум 7 дней", PriceXTR: PremiumPriceXTR, Days: PremiumDays},
}

// PackageByCode returns the package definition for a code, or false.
func PackageByCode(code string) (Package, bool) {
	for _, p := range Packages {
		if p.Code == code {
			return p, true
		}
	}
	return Package{}, false
}

// CryptomusPaymentAmounts in USD.
var CryptomusPaymentAmounts = []float64{1, 5, 10, 30}
