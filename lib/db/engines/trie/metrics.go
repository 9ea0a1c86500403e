package trie

import "github.com/rcrowley/go-metrics"

// engineMetrics tracks counters describing the shape of trie activity that
// GetInfo's byte/entry counts alone don't capture: how much of the traffic
// is fresh inserts versus overwrites, how many deletes have run, and how
// much work the background sweep has reclaimed.
type engineMetrics struct {
	inserts     metrics.Counter
	overwrites  metrics.Counter
	deletes     metrics.Counter
	gcReclaimed metrics.Counter
}

func newEngineMetrics() *engineMetrics {
	return &engineMetrics{
		inserts:     metrics.NewCounter(),
		overwrites:  metrics.NewCounter(),
		deletes:     metrics.NewCounter(),
		gcReclaimed: metrics.NewCounter(),
	}
}

// snapshot returns a plain-value copy suitable for embedding in
// DatabaseInfo.Metadata; metrics.Counter values are live and would keep
// mutating after GetInfo returns otherwise.
func (m *engineMetrics) snapshot() map[string]int64 {
	return map[string]int64{
		"inserts":      m.inserts.Count(),
		"overwrites":   m.overwrites.Count(),
		"deletes":      m.deletes.Count(),
		"gc_reclaimed": m.gcReclaimed.Count(),
	}
}
