package stats

import (
	"github.com/jgivc/musicsync/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "musicsync"

// Collector exposes a Stats snapshot to Prometheus. Every scrape reads one
// consistent snapshot.
type Collector struct {
	stats *Stats

	discovered *prometheus.Desc
	items      *prometheus.Desc
	bytes      *prometheus.Desc
}

func NewCollector(stats *Stats) *Collector {
	return &Collector{
		stats: stats,
		discovered: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "items_discovered"),
			"Number of remote items discovered in this run.",
			nil, nil,
		),
		items: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "items_total"),
			"Number of processed items by outcome.",
			[]string{"outcome"}, nil,
		),
		bytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "downloaded_bytes_total"),
			"Bytes committed to disk in this run.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.discovered
	ch <- c.items
	ch <- c.bytes
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.discovered, prometheus.GaugeValue, float64(snap.Total))
	ch <- prometheus.MustNewConstMetric(c.items, prometheus.CounterValue, float64(snap.Downloaded), entity.OutcomeDownloaded.String())
	ch <- prometheus.MustNewConstMetric(c.items, prometheus.CounterValue, float64(snap.Skipped), entity.OutcomeSkipped.String())
	ch <- prometheus.MustNewConstMetric(c.items, prometheus.CounterValue, float64(snap.Failed), entity.OutcomeFailed.String())
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.CounterValue, float64(snap.Bytes))
}
