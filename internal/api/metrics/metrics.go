// Package metrics defines the custom Prometheus metrics of the admin console.
// HTTP request metrics come from echoprometheus; these cover the auth flows.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/atenas/admin-console/internal/core/domain"
)

const namespace = "atenas"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Labels:
//   - result: "success", "invalid_credentials" or "error"
//   - remember: "true" when the persistent tier was requested
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result", "remember"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success", "terms_not_accepted", "email_exists", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionRestoresTotal counts startup restores.
// Label:
//   - outcome: "restored", "absent", "expired" or "invalid"
var SessionRestoresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_restores_total",
		Help:      "Total number of session restores, by outcome.",
	},
	[]string{"outcome"},
)

// SessionActive is 1 while a user is signed in.
var SessionActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_active",
		Help:      "1 while a user is signed in, 0 otherwise.",
	},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts guard evaluations.
// Labels:
//   - gate: the failed gate ("authenticated", "role=ADMIN") or "none"
//   - allowed: "true" or "false"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of guard decisions, by failed gate and result.",
	},
	[]string{"gate", "allowed"},
)

// ── User management metrics ──────────────────────────────────────────────────

// UserMutationsTotal counts admin create/update/delete calls.
// Labels:
//   - op: "create", "update" or "delete"
//   - result: "success" or an error label from ResultLabel
var UserMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_mutations_total",
		Help:      "Total number of admin user mutations, by operation and result.",
	},
	[]string{"op", "result"},
)

// ResultLabel maps err to a low-cardinality label value.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrEmailExists):
		return "email_exists"
	case errors.Is(err, domain.ErrTermsNotAccepted):
		return "terms_not_accepted"
	case errors.Is(err, domain.ErrSelfDelete):
		return "self_delete"
	case errors.Is(err, domain.ErrInvalidRole):
		return "invalid_role"
	case domain.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
