// Package metrics defines and registers all custom Prometheus metrics for the
// sanctum API. It is the single source of truth for metric names, labels, and
// help strings.
//
// All metrics register themselves with the default Prometheus registry at
// init time via promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sanctum"

// ── Identity metrics ──────────────────────────────────────────────────────────

// IdentityResolutionsTotal counts credential resolution attempts.
// Label:
//   - outcome: "ok", "anonymous", "unauthenticated", or "provider_error"
var IdentityResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_resolutions_total",
		Help:      "Total number of credential resolution attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ── Profile metrics ───────────────────────────────────────────────────────────

// GiftClaimsTotal counts successful newbie gift claims.
// Label:
//   - role: the claimant's role at claim time (determines the reward amount)
var GiftClaimsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gift_claims_total",
		Help:      "Total number of newbie gifts claimed, by claimant role.",
	},
	[]string{"role"},
)

// ── Shop metrics ──────────────────────────────────────────────────────────────

// CheckoutsTotal counts checkout attempts.
// Label:
//   - outcome: "ok", "empty_cart", "insufficient_funds", "conflict", or "error"
var CheckoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Total number of checkout attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ── Earn-game metrics ─────────────────────────────────────────────────────────

// GamePlaysTotal counts completed earn-game plays.
// Labels:
//   - game: "lucky_wheel", "mining", or "mystery_box"
//   - tier: the reward tier rolled (e.g. "legendary", "common", "crit")
var GamePlaysTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "game_plays_total",
		Help:      "Total number of earn-game plays, by game and reward tier.",
	},
	[]string{"game", "tier"},
)

// GameLogQueueDepth tracks the current number of play records waiting in each
// dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var GameLogQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "game_log_queue_depth",
		Help:      "Current number of play records pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
