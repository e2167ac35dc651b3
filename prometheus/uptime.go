package prometheus

import (
	"time"

	timesrc "github.com/datarhei/jsondir/time"

	"github.com/prometheus/client_golang/prometheus"
)

type uptimeCollector struct {
	name  string
	start time.Time
	clock timesrc.Source

	uptimeDesc *prometheus.Desc
}

// NewUptimeCollector returns a collector for the number of seconds since it has been created.
func NewUptimeCollector(name string, clock timesrc.Source) prometheus.Collector {
	if clock == nil {
		clock = &timesrc.StdSource{}
	}

	return &uptimeCollector{
		name:  name,
		start: clock.Now(),
		clock: clock,
		uptimeDesc: prometheus.NewDesc(
			"jsondir_uptime_seconds",
			"Number of seconds the server is up",
			[]string{"name"}, nil),
	}
}

func (c *uptimeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.uptimeDesc
}

func (c *uptimeCollector) Collect(ch chan<- prometheus.Metric) {
	uptime := c.clock.Now().Sub(c.start).Seconds()

	ch <- prometheus.MustNewConstMetric(c.uptimeDesc, prometheus.CounterValue, uptime, c.name)
}
