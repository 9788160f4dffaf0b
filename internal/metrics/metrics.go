// Package metrics defines all custom Prometheus metrics for the education
// CRM API. It is the single source of truth for metric names, labels, and
// help strings. Collectors are registered with the default registry via
// promauto at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "educrm"

// LoginsTotal counts login attempts by outcome ("success" or "failure").
// Failure is deliberately not split by cause: wrong password and unknown
// email are one bucket, matching the uniform API behaviour.
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by outcome.",
	},
	[]string{"outcome"},
)

// RegistrationsTotal counts completed registrations by role.
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of successful registrations, by role.",
	},
	[]string{"role"},
)

// AuthFailuresTotal counts requests rejected by the session gate.
// Label:
//   - reason: "missing_token" or "invalid_token"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected before handler execution.",
	},
	[]string{"reason"},
)

// AuthzDenialsTotal counts authorization policy denials after successful
// authentication. Label:
//   - resource: "user", "course", or "enrollment"
var AuthzDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_denials_total",
		Help:      "Total number of operations denied by the authorization policy.",
	},
	[]string{"resource"},
)

// AIGenerationDuration measures end-to-end latency of AI completions.
// Label:
//   - kind: "recommend", "syllabus", or "generate"
var AIGenerationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ai_generation_duration_seconds",
		Help:      "Duration of AI text generation requests.",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
	},
	[]string{"kind"},
)
