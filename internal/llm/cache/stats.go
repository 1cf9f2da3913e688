package cache

// Stats holds hit, miss and error counters for the cache middleware along
// with the Redis connection pool state.
type Stats struct {
	Hits    int64
	Misses  int64
	Errors  int64
	HitRate float64

	PoolTotalConns uint32
	PoolIdleConns  uint32
	PoolTimeouts   uint32
}

// GaugeSink receives the cache gauges. llm.Metrics satisfies it.
type GaugeSink interface {
	SetGauge(name string, tags map[string]string, value float64)
}

// Gauge names published after every cached request.
const (
	GaugeHits           = "llm.cache.hits"
	GaugeMisses         = "llm.cache.misses"
	GaugeErrors         = "llm.cache.errors"
	GaugeHitRate        = "llm.cache.hit_rate"
	GaugePoolTotalConns = "llm.cache.pool.total_conns"
	GaugePoolIdleConns  = "llm.cache.pool.idle_conns"
	GaugePoolTimeouts   = "llm.cache.pool.timeouts"
)

// snapshot returns current cache counters.
func (c *cacheMiddleware) snapshot() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	stats := Stats{
		Hits:    hits,
		Misses:  misses,
		Errors:  c.errors.Load(),
		HitRate: hitRate,
	}

	if c.client != nil {
		poolStats := c.client.PoolStats()
		stats.PoolTotalConns = poolStats.TotalConns
		stats.PoolIdleConns = poolStats.IdleConns
		stats.PoolTimeouts = poolStats.Timeouts
	}

	return stats
}

// publish pushes a snapshot to the gauge sink, if one is set.
func (c *cacheMiddleware) publish() {
	if c.gauges == nil {
		return
	}
	s := c.snapshot()
	c.gauges.SetGauge(GaugeHits, nil, float64(s.Hits))
	c.gauges.SetGauge(GaugeMisses, nil, float64(s.Misses))
	c.gauges.SetGauge(GaugeErrors, nil, float64(s.Errors))
	c.gauges.SetGauge(GaugeHitRate, nil, s.HitRate)
	c.gauges.SetGauge(GaugePoolTotalConns, nil, float64(s.PoolTotalConns))
	c.gauges.SetGauge(GaugePoolIdleConns, nil, float64(s.PoolIdleConns))
	c.gauges.SetGauge(GaugePoolTimeouts, nil, float64(s.PoolTimeouts))
}
