// Package metrics defines and registers all custom Prometheus metrics for the
// Rupa marketplace API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rupagen"

// Result label values shared by the counters below.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// ── Account metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Labels:
//   - role: the requested role ("CULTURAL_PARTNER", "LICENSE_BUYER", "ADMIN" or "invalid")
//   - result: "success" or the HTTP status class of the failure (e.g. "400")
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by role and result.",
	},
	[]string{"role", "result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "locked" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Upload metrics ────────────────────────────────────────────────────────────

// UploadsTotal counts uploads to the object store.
// Labels:
//   - kind: "generic" or "user_document"
//   - result: "success" or "error"
var UploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of file uploads, by kind and result.",
	},
	[]string{"kind", "result"},
)

// UploadBytes observes the size of uploaded files.
var UploadBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upload_size_bytes",
		Help:      "Size of files received for upload.",
		Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 7), // 16KiB … 64MiB
	},
)

// ── Upstream metrics ──────────────────────────────────────────────────────────

// UpstreamCallsTotal counts calls to the chat service and image model.
// Labels:
//   - upstream: "chat" or "image"
//   - result: "success" or "error"
var UpstreamCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_calls_total",
		Help:      "Total number of calls to studio upstream services.",
	},
	[]string{"upstream", "result"},
)

// UpstreamDuration measures studio upstream latency as seen by the API.
// Label:
//   - upstream: "chat" or "image"
var UpstreamDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_duration_seconds",
		Help:      "Duration of studio upstream calls.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 40, 60},
	},
	[]string{"upstream"},
)

// Result maps an error to the success/error label value.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
