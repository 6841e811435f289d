// Package metrics exposes shield decision metrics for Prometheus scraping:
// verdict counters, bot classification counters, an auto-block counter, and
// a bot-score distribution histogram.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vajra-security/shield/pkg/botscore"
	"github.com/vajra-security/shield/pkg/shield"
)

// Metrics owns a private registry so embedding applications don't collide
// with the default global one.
type Metrics struct {
	registry *prometheus.Registry

	verdictsTotal        *prometheus.CounterVec
	classificationsTotal *prometheus.CounterVec
	autoBlocksTotal      prometheus.Counter
	ruleMatchesTotal     *prometheus.CounterVec
	botScore             prometheus.Histogram
}

// New creates a Metrics with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		verdictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shield",
			Name:      "verdicts_total",
			Help:      "Admission verdicts by outcome (allow/challenge/block).",
		}, []string{"verdict"}),
		classificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shield",
			Name:      "classifications_total",
			Help:      "Bot score classifications (human/suspicious/bot).",
		}, []string{"classification"}),
		autoBlocksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shield",
			Name:      "auto_blocks_total",
			Help:      "IPs blocked by the auto-block policy.",
		}),
		ruleMatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shield",
			Name:      "rule_matches_total",
			Help:      "Firewall rule matches by rule ID.",
		}, []string{"rule_id"}),
		botScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shield",
			Name:      "bot_score",
			Help:      "Distribution of computed bot scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11), // 0..100
		}),
	}

	registry.MustRegister(
		m.verdictsTotal,
		m.classificationsTotal,
		m.autoBlocksTotal,
		m.ruleMatchesTotal,
		m.botScore,
	)

	return m
}

// ObserveVerdict counts one admission verdict.
func (m *Metrics) ObserveVerdict(v shield.Verdict) {
	m.verdictsTotal.WithLabelValues(string(v)).Inc()
}

// ObserveScore records one bot score and its classification.
func (m *Metrics) ObserveScore(s botscore.Score) {
	m.botScore.Observe(float64(s.Value))
	m.classificationsTotal.WithLabelValues(string(s.Classification)).Inc()
}

// ObserveRuleMatch counts a firewall rule firing.
func (m *Metrics) ObserveRuleMatch(ruleID string) {
	m.ruleMatchesTotal.WithLabelValues(ruleID).Inc()
}

// ObserveAutoBlock counts one auto-block decision that blocked.
func (m *Metrics) ObserveAutoBlock() {
	m.autoBlocksTotal.Inc()
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for callers that attach their
// own collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
