// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-objlifecycle.
//
// go-objlifecycle is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package lifecycle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated during a run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg          *prometheus.Registry
	listed       *prometheus.CounterVec
	candidates   *prometheus.CounterVec
	actions      *prometheus.CounterVec
	bytes        *prometheus.CounterVec
	ruleDuration *prometheus.HistogramVec
	rules        *prometheus.CounterVec
	lastRun      prometheus.Gauge
}

// NewMetrics registers the lifecycle collectors on reg. A nil reg gets a
// fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		reg: reg,
		listed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "objlifecycle",
			Name:      "objects_listed_total",
			Help:      "Objects returned by bucket listings, per rule.",
		}, []string{"rule"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "objlifecycle",
			Name:      "candidates_total",
			Help:      "Objects that matched a rule.",
		}, []string{"rule"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "objlifecycle",
			Name:      "actions_total",
			Help:      "Lifecycle actions by outcome.",
		}, []string{"rule", "action", "outcome"}), // outcome = planned | succeeded | failed | partial_move
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "objlifecycle",
			Name:      "bytes_total",
			Help:      "Bytes of objects successfully moved or deleted.",
		}, []string{"rule", "action"}),
		ruleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "objlifecycle",
			Name:      "rule_duration_seconds",
			Help:      "Wall time spent evaluating and executing a rule.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"rule"}),
		rules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "objlifecycle",
			Name:      "rules_total",
			Help:      "Rule passes by final status.",
		}, []string{"rule", "status"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "objlifecycle",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}

	reg.MustRegister(m.listed, m.candidates, m.actions, m.bytes, m.ruleDuration, m.rules, m.lastRun)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) observeRule(name string, status RuleStatus, listed, candidates int, dur time.Duration) {
	if m == nil {
		return
	}
	m.listed.WithLabelValues(name).Add(float64(listed))
	m.candidates.WithLabelValues(name).Add(float64(candidates))
	m.ruleDuration.WithLabelValues(name).Observe(dur.Seconds())
	m.rules.WithLabelValues(name, string(status)).Inc()
}

func (m *Metrics) observeResult(res ActionResult) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(res.Rule, string(res.Action), string(res.Outcome)).Inc()
	if res.Outcome == OutcomeSucceeded {
		m.bytes.WithLabelValues(res.Rule, string(res.Action)).Add(float64(res.Size))
	}
}

func (m *Metrics) observeRun(finished time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
