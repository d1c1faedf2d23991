package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the server. A nil *Metrics is
// valid and records nothing, which keeps handler tests free of the global
// registry.
type Metrics struct {
	PlaylistsGenerated prometheus.Counter
	PlaylistsExported  prometheus.Counter
	HistoryWrites      prometheus.Counter
	HistoryWriteErrors prometheus.Counter
	UpstreamErrors     prometheus.Counter
	SearchDuration     prometheus.Histogram
}

// NewMetrics registers and returns the server metrics. Call once.
func NewMetrics() *Metrics {
	return &Metrics{
		PlaylistsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soniq_playlists_generated_total",
			Help: "The total number of mood playlists generated",
		}),
		PlaylistsExported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soniq_playlists_exported_total",
			Help: "The total number of playlists exported to Spotify",
		}),
		HistoryWrites: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soniq_history_writes_total",
			Help: "The total number of history entries written",
		}),
		HistoryWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soniq_history_write_errors_total",
			Help: "The total number of failed history writes",
		}),
		UpstreamErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soniq_upstream_errors_total",
			Help: "The total number of Spotify API failures",
		}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "soniq_search_duration_seconds",
			Help:    "The duration of catalog search calls in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) incPlaylistsGenerated() {
	if m != nil {
		m.PlaylistsGenerated.Inc()
	}
}

func (m *Metrics) incPlaylistsExported() {
	if m != nil {
		m.PlaylistsExported.Inc()
	}
}

func (m *Metrics) incHistoryWrites() {
	if m != nil {
		m.HistoryWrites.Inc()
	}
}

func (m *Metrics) incHistoryWriteErrors() {
	if m != nil {
		m.HistoryWriteErrors.Inc()
	}
}

func (m *Metrics) incUpstreamErrors() {
	if m != nil {
		m.UpstreamErrors.Inc()
	}
}

func (m *Metrics) observeSearchDuration(seconds float64) {
	if m != nil {
		m.SearchDuration.Observe(seconds)
	}
}
