package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks finished logical requests by outcome
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vocalyze_requests_total",
			Help: "Total number of logical API requests",
		},
		[]string{"method", "outcome"},
	)

	// RetriesTotal tracks retry attempts by error kind
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vocalyze_request_retries_total",
			Help: "Total number of request retries",
		},
		[]string{"kind"},
	)

	// RequestDuration tracks end-to-end request latency
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vocalyze_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// UploadBytesTotal tracks bytes handed to the upload endpoint
	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vocalyze_upload_bytes_total",
			Help: "Total number of bytes uploaded",
		},
	)

	// ConnectionState tracks the monitor state (0=unknown, 1=checking,
	// 2=connected, 3=disconnected)
	ConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vocalyze_connection_state",
			Help: "Current connection monitor state",
		},
	)

	// ProbeLatency tracks health probe latency
	ProbeLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vocalyze_health_probe_duration_seconds",
			Help:    "Health probe latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
