package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
)

// RouterSnapshot is the exported state of one router.
type RouterSnapshot struct {
	Name     string
	Up       bool
	Snapshot *luci.Snapshot
}

// SnapshotSource returns the current state of every router.
type SnapshotSource func() []RouterSnapshot

// SnapshotCollector turns router snapshots into gauges at scrape time.
type SnapshotCollector struct {
	source SnapshotSource

	upDesc    *prometheus.Desc
	valueDesc *prometheus.Desc
	infoDesc  *prometheus.Desc
}

// NewSnapshotCollector creates a collector reading from src.
func NewSnapshotCollector(src SnapshotSource) *SnapshotCollector {
	return &SnapshotCollector{
		source: src,
		upDesc: prometheus.NewDesc(
			"openwrt_router_up",
			"Whether the last poll of the router succeeded",
			[]string{"router"}, nil,
		),
		valueDesc: prometheus.NewDesc(
			"openwrt_router_value",
			"Numeric value from the last good snapshot",
			[]string{"router", "key"}, nil,
		),
		infoDesc: prometheus.NewDesc(
			"openwrt_router_info",
			"Device identity of the router",
			[]string{"router", "name", "model", "sw_version", "mode"}, nil,
		),
	}
}

func (c *SnapshotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.upDesc
	ch <- c.valueDesc
	ch <- c.infoDesc
}

func (c *SnapshotCollector) Collect(ch chan<- prometheus.Metric) {
	for _, rs := range c.source() {
		up := 0.0
		if rs.Up {
			up = 1
		}
		emit(ch, c.upDesc, up, rs.Name)

		snap := rs.Snapshot
		if snap == nil {
			continue
		}

		id := snap.Identity
		emit(ch, c.infoDesc, 1, rs.Name, id.Name, id.Model, id.SWVersion, string(snap.Mode))

		keys := make([]string, 0, len(snap.Values))
		for k := range snap.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, ok := snap.Values.Float(k)
			if !ok {
				continue
			}
			emit(ch, c.valueDesc, v, rs.Name, k)
		}
	}
}

// emit drops a sample whose labels the registry would reject, such as
// invalid UTF-8 coming from a router page.
func emit(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labels ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labels...)
	if err != nil {
		return
	}
	ch <- m
}
