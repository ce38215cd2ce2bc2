package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nao1215/puzzlecrawl/internal/remote"
)

const metricsNamespace = "puzzlecrawl"

// Metrics holds the crawl collectors and the registry they belong to.
type Metrics struct {
	registry *prometheus.Registry

	// FetchesTotal counts Fetch calls.
	// Labels: source (cache, network), result (success, error)
	FetchesTotal *prometheus.CounterVec

	// FetchWaitSeconds measures time spent waiting for the rate limiter.
	FetchWaitSeconds prometheus.Histogram

	// StoreWritesTotal counts artifact writes.
	// Labels: kind (input, answer), result (created, unchanged, collision)
	StoreWritesTotal *prometheus.CounterVec

	// AnswersMissingTotal counts puzzle parts without an announced answer.
	AnswersMissingTotal prometheus.Counter

	// CrawlStopsTotal counts how crawl sub-modes ended.
	// Labels: mode (inputs, answers), reason (not_available, error, last_year, canceled)
	CrawlStopsTotal *prometheus.CounterVec
}

// New creates Metrics on a fresh private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "fetch",
				Name:      "requests_total",
				Help:      "Page fetches by source and result",
			},
			[]string{"source", "result"},
		),

		FetchWaitSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "fetch",
				Name:      "wait_seconds",
				Help:      "Time spent waiting for the rate limiter before a network request",
				Buckets:   []float64{0, 1, 2.5, 5, 7.5, 10, 12.5, 15, 20},
			},
		),

		StoreWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "store",
				Name:      "writes_total",
				Help:      "Artifact writes by kind and result",
			},
			[]string{"kind", "result"},
		),

		AnswersMissingTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "answers_missing_total",
				Help:      "Puzzle parts whose page announced no answer",
			},
		),

		CrawlStopsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "crawl",
				Name:      "stops_total",
				Help:      "Crawl sub-mode endings by mode and reason",
			},
			[]string{"mode", "reason"},
		),
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveFetch implements remote.Observer.
func (m *Metrics) ObserveFetch(_ context.Context, event remote.FetchEvent) {
	result := "success"
	if event.Err != nil {
		result = "error"
	}
	m.FetchesTotal.WithLabelValues(string(event.Source), result).Inc()
	if event.Source == remote.SourceNetwork {
		m.FetchWaitSeconds.Observe(event.Waited.Seconds())
	}
}

// ObserveWrite counts an artifact write.
func (m *Metrics) ObserveWrite(kind, result string) {
	m.StoreWritesTotal.WithLabelValues(kind, result).Inc()
}

// ObserveMissingAnswer counts an unsolved part.
func (m *Metrics) ObserveMissingAnswer() {
	m.AnswersMissingTotal.Inc()
}

// ObserveStop counts a sub-mode ending.
func (m *Metrics) ObserveStop(mode, reason string) {
	m.CrawlStopsTotal.WithLabelValues(mode, reason).Inc()
}

// WriteTextfile writes every collector in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
