package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Home listing sources.
const (
	HomeSourceGeo   = "geo"
	HomeSourceCache = "cache"
	HomeSourceLive  = "live"
	HomeSourceEmpty = "empty"
)

// Snapshot cache read outcomes.
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheError   = "error"
	CacheTimeout = "timeout"
)

// DiscoveryMetrics counts which tier served each listing and how the snapshot cache behaved.
type DiscoveryMetrics struct {
	homeSource       *prometheus.CounterVec
	snapshotCache    *prometheus.CounterVec
	snapshotWrite    *prometheus.CounterVec
	upstreamFailures *prometheus.CounterVec
}

// NewDiscoveryMetrics registers the discovery metrics; a nil registerer yields no-op metrics.
func NewDiscoveryMetrics(reg prometheus.Registerer) *DiscoveryMetrics {
	if reg == nil {
		return &DiscoveryMetrics{}
	}
	homeSource := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_home_source_total",
		Help: "Home listings served, by the tier that produced them.",
	}, []string{"source"})
	snapshotCache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_snapshot_cache_total",
		Help: "Home snapshot cache reads, by outcome.",
	}, []string{"result"})
	snapshotWrite := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_snapshot_write_total",
		Help: "Home snapshot cache writes, by outcome.",
	}, []string{"result"})
	upstreamFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_upstream_failures_total",
		Help: "Swallowed upstream failures, by collaborator.",
	}, []string{"kind"})
	reg.MustRegister(homeSource, snapshotCache, snapshotWrite, upstreamFailures)
	return &DiscoveryMetrics{
		homeSource:       homeSource,
		snapshotCache:    snapshotCache,
		snapshotWrite:    snapshotWrite,
		upstreamFailures: upstreamFailures,
	}
}

func (m *DiscoveryMetrics) IncHomeSource(source string) {
	if m == nil || m.homeSource == nil {
		return
	}
	m.homeSource.WithLabelValues(normalizeLabel(source)).Inc()
}

func (m *DiscoveryMetrics) IncSnapshotCache(result string) {
	if m == nil || m.snapshotCache == nil {
		return
	}
	m.snapshotCache.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncSnapshotWrite records a snapshot write; err decides the outcome label.
func (m *DiscoveryMetrics) IncSnapshotWrite(err error) {
	if m == nil || m.snapshotWrite == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.snapshotWrite.WithLabelValues(result).Inc()
}

func (m *DiscoveryMetrics) IncUpstreamFailure(kind string) {
	if m == nil || m.upstreamFailures == nil {
		return
	}
	m.upstreamFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}
