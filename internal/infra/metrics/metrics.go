// Package metrics provides Prometheus counters for the player core.
// There is no HTTP endpoint; counters are exported through a node_exporter
// textfile written by WriteTextfile.
package metrics

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sequencing metrics
var (
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oldplayer_decisions_total",
			Help: "Total number of playback decisions by kind",
		},
		[]string{"kind"}, // "play", "switch", "stop"
	)

	ShuffleRegenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oldplayer_shuffle_regenerations_total",
			Help: "Total number of shuffle order regenerations by trigger",
		},
		[]string{"reason"},
	)

	MetadataUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oldplayer_metadata_updates_total",
			Help: "Total number of resolved metadata updates by outcome",
		},
		[]string{"result"}, // "applied", "unchanged", "stale"
	)
)

// Store metrics
var (
	StoreLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oldplayer_store_loads_total",
			Help: "Total number of playlist store loads by result",
		},
		[]string{"result"}, // "ok", "missing", "corrupt"
	)

	StoreSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oldplayer_store_saves_total",
			Help: "Total number of playlist store saves by status",
		},
		[]string{"status"}, // "ok", "error"
	)

	PlaylistsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oldplayer_playlists",
			Help: "Number of playlists in the store",
		},
	)
)

// WriteTextfile writes all registered metrics to path in the Prometheus text format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}
