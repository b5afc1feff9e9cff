package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

/*
Board metrics:

- VotesToggled counts vote writes by outcome (created, replaced, removed).
- FeedEvents counts change-feed events received from Postgres, by table and
  operation.
- FeedSubscriptions is the number of live change-feed subscribers
  (websocket clients plus internal sinks).
- FeedDropped counts events dropped because a subscriber was too slow.

They are registered on the registry given to New so tests can use a fresh
one.
*/

type Metrics struct {
	VotesToggled      *prometheus.CounterVec
	FeedEvents        *prometheus.CounterVec
	FeedSubscriptions prometheus.Gauge
	FeedDropped       prometheus.Counter
}

func New(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		VotesToggled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "votes",
				Name:      "toggled_total",
				Help:      "Total number of vote toggles by resulting action",
			},
			[]string{"action"},
		),
		FeedEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "feed",
				Name:      "events_total",
				Help:      "Total number of change-feed events received",
			},
			[]string{"table", "type"},
		),
		FeedSubscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "feed",
				Name:      "subscriptions",
				Help:      "Number of active change-feed subscriptions",
			},
		),
		FeedDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "feed",
				Name:      "dropped_total",
				Help:      "Total number of events dropped for slow subscribers",
			},
		),
	}
	reg.MustRegister(m.VotesToggled, m.FeedEvents, m.FeedSubscriptions, m.FeedDropped)
	return m
}
