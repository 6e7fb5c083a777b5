package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are registered on the default registry and exposed on /metrics.
var (
	// Model training
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_training_runs_total",
			Help: "Training passes by model and outcome",
		},
		[]string{"model", "result"}, // model: content, collaborative, hybrid; result: success, failure, skipped
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movierec_training_duration_seconds",
			Help:    "Wall time of a training pass",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	TrainedItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movierec_trained_items",
			Help: "Size of the last trained model (movies for content, users for collaborative)",
		},
		[]string{"model"},
	)

	// Recommendation serving
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_recommendations_total",
			Help: "Recommendation requests by serving method",
		},
		[]string{"method"},
	)

	ChatMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_chat_messages_total",
			Help: "Processed chat messages by parsed intent",
		},
		[]string{"intent"},
	)

	RatingsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movierec_ratings_submitted_total",
			Help: "Accepted rating upserts",
		},
	)

	// Metadata provider
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_provider_requests_total",
			Help: "Metadata provider calls by operation and outcome",
		},
		[]string{"operation", "result"}, // result: cache_hit, success, failure, rejected
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movierec_circuit_breaker_state",
			Help: "0 closed, 1 half-open, 2 open",
		},
		[]string{"name"},
	)

	// Movie cache maintenance
	MovieCachePurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movierec_movie_cache_purged_total",
			Help: "Expired movie cache rows removed",
		},
	)

	WorkerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_worker_runs_total",
			Help: "Background job executions by worker and outcome",
		},
		[]string{"worker", "result"},
	)
)
