// Package metrics exposes Prometheus collectors for the scoring pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors for the analysis pipeline
type Metrics struct {
	analysesTotal  *prometheus.CounterVec
	rulesFired     *prometheus.CounterVec
	aiCalls        *prometheus.CounterVec
	aiSkips        *prometheus.CounterVec
	aiTokens       prometheus.Counter
	dailyCost      prometheus.Gauge
	ruleDuration   prometheus.Histogram
	aiCallDuration prometheus.Histogram
}

// New creates and registers the pipeline metrics on the default registry
func New() *Metrics {
	return &Metrics{
		analysesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishing_detector_analyses_total",
				Help: "Total number of completed analyses by rule label",
			},
			[]string{"label"},
		),
		rulesFired: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishing_detector_rules_fired_total",
				Help: "Total number of rule triggers by rule ID",
			},
			[]string{"rule"},
		),
		aiCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishing_detector_ai_calls_total",
				Help: "Total number of external AI calls by outcome",
			},
			[]string{"outcome"},
		),
		aiSkips: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishing_detector_ai_skips_total",
				Help: "Total number of skipped AI invocations by reason",
			},
			[]string{"reason"},
		),
		aiTokens: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "phishing_detector_ai_tokens_total",
				Help: "Total tokens consumed by external AI calls",
			},
		),
		dailyCost: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "phishing_detector_daily_cost_dollars",
				Help: "Cost charged against the daily budget",
			},
		),
		ruleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "phishing_detector_rule_analysis_seconds",
				Help:    "Rule engine analysis latency",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
			},
		),
		aiCallDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "phishing_detector_ai_call_seconds",
				Help:    "External AI call latency",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ObserveAnalysis records a completed analysis
func (m *Metrics) ObserveAnalysis(label string, ruleSeconds float64) {
	m.analysesTotal.WithLabelValues(label).Inc()
	m.ruleDuration.Observe(ruleSeconds)
}

// ObserveRuleFired records a single rule trigger
func (m *Metrics) ObserveRuleFired(ruleID string) {
	m.rulesFired.WithLabelValues(ruleID).Inc()
}

// ObserveAICall records an external AI call outcome
func (m *Metrics) ObserveAICall(outcome string, seconds float64, tokens int) {
	m.aiCalls.WithLabelValues(outcome).Inc()
	m.aiCallDuration.Observe(seconds)
	if tokens > 0 {
		m.aiTokens.Add(float64(tokens))
	}
}

// ObserveAISkip records a skipped AI invocation
func (m *Metrics) ObserveAISkip(reason string) {
	m.aiSkips.WithLabelValues(reason).Inc()
}

// SetDailyCost updates the charged daily cost gauge
func (m *Metrics) SetDailyCost(dollars float64) {
	m.dailyCost.Set(dollars)
}
