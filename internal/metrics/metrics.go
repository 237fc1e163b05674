package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsbot_generations_total",
			Help: "Total number of idea generations by source (ai, local, cache).",
		},
		[]string{"source"},
	)

	DenialsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reelsbot_denials_total",
			Help: "Total number of generation requests denied for exhausted entitlement.",
		},
	)

	PaymentsSettledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsbot_payments_settled_total",
			Help: "Total number of payment settlements by terminal status.",
		},
		[]string{"status"},
	)

	ReferralRewardsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reelsbot_referral_rewards_total",
			Help: "Total number of referral bonuses paid.",
		},
	)

	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reelsbot_cache_hits_total",
			Help: "Total number of idea cache hits.",
		},
	)

	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reelsbot_cache_misses_total",
			Help: "Total number of idea cache misses.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		GenerationsTotal,
		DenialsTotal,
		PaymentsSettledTotal,
		ReferralRewardsTotal,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}
