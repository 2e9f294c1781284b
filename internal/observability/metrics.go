// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/holomush/glyphmark/pkg/markup"
)

// outputFailures counts failed writes of rendered output. It is package-level
// so encoders can record failures without holding a Metrics.
var outputFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "glyphmark_output_failures_total",
		Help: "Total number of rendered output write failures by format",
	},
	[]string{"format"},
)

// RecordOutputFailure increments the output failure counter.
func RecordOutputFailure(format string) {
	outputFailures.WithLabelValues(format).Inc()
}

// Metrics holds the markup engine metrics.
type Metrics struct {
	ParsesTotal     *prometheus.CounterVec
	ParseDuration   prometheus.Histogram
	GlyphsTotal     prometheus.Counter
	DirectivesTotal *prometheus.CounterVec
	FallbacksTotal  *prometheus.CounterVec
}

// NewMetrics creates the engine metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ParsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glyphmark_parses_total",
				Help: "Total number of parsed strings by source",
			},
			[]string{"source"},
		),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "glyphmark_parse_duration_seconds",
			Help:    "Histogram of markup parse latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		GlyphsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glyphmark_glyphs_total",
			Help: "Total number of glyphs produced",
		}),
		DirectivesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glyphmark_directives_total",
				Help: "Total number of executed commands by command and channel",
			},
			[]string{"command", "channel"},
		),
		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glyphmark_fallbacks_total",
				Help: "Total number of commands emitted as literal text by reason",
			},
			[]string{"reason"},
		),
	}

	reg.MustRegister(m.ParsesTotal)
	reg.MustRegister(m.ParseDuration)
	reg.MustRegister(m.GlyphsTotal)
	reg.MustRegister(m.DirectivesTotal)
	reg.MustRegister(m.FallbacksTotal)
	reg.MustRegister(outputFailures)

	return m
}

// RecordParse records one completed Parse call.
func (m *Metrics) RecordParse(source string, duration time.Duration, glyphs int) {
	m.ParsesTotal.WithLabelValues(source).Inc()
	m.ParseDuration.Observe(duration.Seconds())
	m.GlyphsTotal.Add(float64(glyphs))
}

// Observer returns a markup.Observer that counts commands.
func (m *Metrics) Observer() markup.Observer {
	return metricsObserver{m: m}
}

type metricsObserver struct {
	m *Metrics
}

func (o metricsObserver) Executed(name string, d markup.Directive) {
	o.m.DirectivesTotal.WithLabelValues(name, d.Channel().String()).Inc()
}

func (o metricsObserver) Fallback(_ string, err error) {
	o.m.FallbacksTotal.WithLabelValues(FallbackReason(err)).Inc()
}

// FallbackReason returns the error code of a fallback error, or "unknown".
func FallbackReason(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok && code != "" {
			return code
		}
	}
	return "unknown"
}
