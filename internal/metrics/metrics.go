// Package metrics registers the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpenAI request metrics
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetscribe_api_requests_total",
		Help: "Total number of OpenAI API calls by operation",
	}, []string{"operation"})
	APIFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetscribe_api_failures_total",
		Help: "Total number of failed OpenAI API calls by operation",
	}, []string{"operation"})
	APIRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetscribe_api_retries_total",
		Help: "Total number of retried OpenAI API attempts",
	})
	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetscribe_rate_limit_hits_total",
		Help: "Total number of 429 responses received from the API",
	})
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meetscribe_api_request_duration_seconds",
		Help:    "Duration of OpenAI API calls by operation",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"operation"})

	// Credential pool metrics
	ActiveKeyRequests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "meetscribe_key_active_requests",
		Help: "In-flight requests per API key slot",
	}, []string{"key_index"})
	BlockedKeys = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetscribe_keys_blocked",
		Help: "Number of API keys currently blocked after rate limiting",
	})

	// Audio chunking metrics
	ChunksGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetscribe_chunks_generated_total",
		Help: "Total number of audio chunks written by the splitter",
	})
	ChunkSizeBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetscribe_chunk_size_bytes",
		Help:    "Size of generated audio chunks",
		Buckets: prometheus.ExponentialBuckets(1024*1024, 2, 8),
	})

	// Meeting processing metrics
	MeetingsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetscribe_meetings_processed_total",
		Help: "Total number of meetings processed to completion",
	})
	MeetingProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetscribe_meeting_processing_duration_seconds",
		Help:    "End-to-end duration of meeting processing",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// HTTP API metrics
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetscribe_http_requests_total",
		Help: "Total number of HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meetscribe_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by method and path",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)
