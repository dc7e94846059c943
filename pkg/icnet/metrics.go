package icnet

import "github.com/prometheus/client_golang/prometheus"

// StatsCollector exposes a GlobalStats as prometheus metrics. Every read
// produces const metrics from the current counter values, so the collector
// can be registered before evaluation and gathered afterwards.
type StatsCollector struct {
	stats *GlobalStats

	interactions *prometheus.Desc
	binds        *prometheus.Desc
	connects     *prometheus.Desc
	allocs       *prometheus.Desc
	frees        *prometheus.Desc
}

var _ prometheus.Collector = (*StatsCollector)(nil)

// NewStatsCollector wraps the given counters.
func NewStatsCollector(stats *GlobalStats) *StatsCollector {
	return &StatsCollector{
		stats: stats,
		interactions: prometheus.NewDesc(
			"combnet_interactions_total",
			"Rewrite rules applied, partitioned by rule.",
			[]string{"rule"}, nil,
		),
		binds: prometheus.NewDesc(
			"combnet_binds_total",
			"Wire-to-agent bind operations.",
			nil, nil,
		),
		connects: prometheus.NewDesc(
			"combnet_connects_total",
			"Wire-to-wire connect operations.",
			nil, nil,
		),
		allocs: prometheus.NewDesc(
			"combnet_slots_allocated_total",
			"Store slots allocated during evaluation.",
			[]string{"kind"}, nil,
		),
		frees: prometheus.NewDesc(
			"combnet_slots_freed_total",
			"Store slots freed during evaluation.",
			[]string{"kind"}, nil,
		),
	}
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.interactions
	ch <- c.binds
	ch <- c.connects
	ch <- c.allocs
	ch <- c.frees
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats.Snapshot()
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	counter(c.interactions, s.AnniEraEra, "anni_era_era")
	counter(c.interactions, s.AnniLamLam, "anni_lam_lam")
	counter(c.interactions, s.AnniAppApp, "anni_app_app")
	counter(c.interactions, s.AnniDupDup, "anni_dup_dup")
	counter(c.interactions, s.CommEraLam, "comm_era_lam")
	counter(c.interactions, s.CommEraApp, "comm_era_app")
	counter(c.interactions, s.CommEraDup, "comm_era_dup")
	counter(c.interactions, s.CommAppLam, "comm_app_lam")
	counter(c.interactions, s.CommAppDup, "comm_app_dup")
	counter(c.interactions, s.CommLamDup, "comm_lam_dup")
	counter(c.interactions, s.CommDupDup, "comm_dup_dup")

	counter(c.binds, s.Binds)
	counter(c.connects, s.Connects)

	counter(c.allocs, s.AllocCells, "cell")
	counter(c.allocs, s.AllocWires, "wire")
	counter(c.frees, s.FreedCells, "cell")
	counter(c.frees, s.FreedWires, "wire")
}
