package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal tracks Ads API requests per account and method
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimizer_api_requests_total",
			Help: "Total number of Ads API requests",
		},
		[]string{"account", "method"},
	)

	// APIErrorsTotal tracks Ads API errors per account and error class
	APIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimizer_api_errors_total",
			Help: "Total number of Ads API errors",
		},
		[]string{"account", "class"},
	)

	// APIRetriesTotal tracks retry attempts per account
	APIRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimizer_api_retries_total",
			Help: "Total number of Ads API retry attempts",
		},
		[]string{"account"},
	)

	// APILatency tracks Ads API call latency
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optimizer_api_latency_seconds",
			Help:    "Ads API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"account", "method"},
	)

	// RateLimitWait tracks time spent waiting on the token bucket
	RateLimitWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optimizer_rate_limit_wait_seconds",
			Help:    "Time spent waiting for a rate limit token",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"account"},
	)

	// ModelTrainScore tracks the R2 score of the last training run
	ModelTrainScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optimizer_model_train_score",
			Help: "R2 score on the training split of the last run",
		},
		[]string{"account", "model"},
	)

	// ModelTestScore tracks the held-out R2 score of the last training run
	ModelTestScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optimizer_model_test_score",
			Help: "R2 score on the test split of the last run",
		},
		[]string{"account", "model"},
	)

	// RecommendationsTotal tracks generated recommendations per account
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimizer_recommendations_total",
			Help: "Total number of recommendations generated",
		},
		[]string{"account"},
	)

	// CampaignHealthScore tracks the latest health score per campaign
	CampaignHealthScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optimizer_campaign_health_score",
			Help: "Latest overall health score per campaign",
		},
		[]string{"account", "campaign"},
	)

	// SyncRowsTotal tracks metrics rows mirrored by the sync worker
	SyncRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimizer_sync_rows_total",
			Help: "Total number of metrics rows written by the sync worker",
		},
		[]string{"account"},
	)

	// SyncLastRun tracks the unix time of the last successful sync
	SyncLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optimizer_sync_last_run_timestamp",
			Help: "Unix timestamp of the last successful metrics sync",
		},
		[]string{"account"},
	)
)
