package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "readingbot_webhook_requests_total",
		Help: "Total number of inbound Slack webhook requests by route and outcome",
	}, []string{"route", "outcome"})

	EventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "readingbot_events_handled_total",
		Help: "Total number of Slack events dispatched by type",
	}, []string{"type"})

	SavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "readingbot_saves_total",
		Help: "Total number of save attempts by label and status",
	}, []string{"label", "status"})

	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "readingbot_queries_total",
		Help: "Total number of archive queries by source and status",
	}, []string{"source", "status"})

	QueryResultCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "readingbot_query_result_count",
		Help:    "Number of articles returned per query",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "readingbot_rate_limit_rejections_total",
		Help: "Total number of requests rejected by the rate limiter",
	})

	ArchiveRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "readingbot_archive_request_duration_seconds",
		Help:    "Duration of archive API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	ChatRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "readingbot_chat_request_duration_seconds",
		Help:    "Duration of Slack Web API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "readingbot_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	NewslettersPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "readingbot_newsletters_posted_total",
		Help: "The total number of newsletters posted",
	}, []string{"status"})

	NewsletterArticles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "readingbot_newsletter_articles",
		Help: "Number of articles selected for the latest newsletter",
	})

	ArticleSummaries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "readingbot_article_summaries_total",
		Help: "Article summaries used in newsletters by source",
	}, []string{"source"})
)

// Metric label values shared across packages.
const (
	StatusOK    = "ok"
	StatusError = "error"

	SummarySourceCache     = "cache"
	SummarySourceGenerated = "generated"
	SummarySourceFailed    = "failed"
)
