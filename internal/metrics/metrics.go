// Package metrics declares the Prometheus collectors exposed on /metrics.
//
// Collectors are registered with the default registry at init time; other packages
// record through the helpers below rather than touching the collectors directly.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// GuardDecisions counts panel page requests by guard outcome.
	// Labels:
	//   - decision: "allow", "login", "redirect", "denied"
	GuardDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_guard_decisions_total",
			Help: "Total number of panel guard decisions",
		},
		[]string{"decision"},
	)

	// PlayerMounts tracks how many browsers currently hold a player event stream
	PlayerMounts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "player_mounts",
			Help: "Number of mounted players (open player event streams)",
		},
	)

	// StreamListeners tracks how many clients are receiving relayed audio
	StreamListeners = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_listeners",
			Help: "Number of clients receiving the relayed live stream",
		},
	)

	// PlaybackToggles counts play/pause requests.
	// Labels:
	//   - outcome: "playing", "paused", "rejected"
	PlaybackToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "player_toggles_total",
			Help: "Total number of play/pause toggles",
		},
		[]string{"outcome"},
	)

	// MetadataUpdates counts now-playing updates applied to the player
	MetadataUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "player_metadata_updates_total",
			Help: "Total number of metadata messages applied to the player",
		},
	)

	// APIRequestDuration measures calls to the news API.
	// Labels:
	//   - method: HTTP method
	//   - status: response status code, or "error" if no response was received
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "news_api_request_duration_seconds",
			Help:    "Duration of requests to the news API in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "status"},
	)

	// DraftSaves counts draft autosave writes.
	// Labels:
	//   - outcome: "success", "error"
	DraftSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_draft_saves_total",
			Help: "Total number of article draft saves",
		},
		[]string{"outcome"},
	)
)

// RecordGuardDecision counts a single guard outcome
func RecordGuardDecision(decision string) {
	GuardDecisions.WithLabelValues(decision).Inc()
}

// RecordAPIRequest observes a completed news API call; status is 0 if the request
// never produced a response
func RecordAPIRequest(method string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	APIRequestDuration.WithLabelValues(method, label).Observe(d.Seconds())
}

// RecordDraftSave counts a draft write
func RecordDraftSave(err error) {
	if err != nil {
		DraftSaves.WithLabelValues("error").Inc()
		return
	}
	DraftSaves.WithLabelValues("success").Inc()
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
