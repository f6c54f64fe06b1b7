// Package lfmetrics exports lflist activity as Prometheus metrics.
package lfmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ansiwen/golflist/pkg/lflist"
)

const (
	metricsNamespace = "lflist"
)

// Collector implements lflist.Observer for one list, identified by the
// "list" label.
type Collector struct {
	inserts  *prometheus.CounterVec
	removals prometheus.Counter
	retries  *prometheus.CounterVec
	length   prometheus.GaugeFunc
}

var _ lflist.Observer = (*Collector)(nil)

// New registers the list's metrics with reg. size is polled on scrape for
// the length gauge and may be nil.
func New(reg prometheus.Registerer, list string, size func() int) (*Collector, error) {
	labels := prometheus.Labels{"list": list}
	c := &Collector{
		inserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "inserts_total",
			Help:        "Elements linked into the list, by insert path",
			ConstLabels: labels,
		}, []string{"op"}),
		removals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "removals_total",
			Help:        "Elements removed from the list",
			ConstLabels: labels,
		}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "cas_retries_total",
			Help:        "Lost compare-and-swap attempts that were retried, by step",
			ConstLabels: labels,
		}, []string{"op"}),
	}
	collectors := []prometheus.Collector{c.inserts, c.removals, c.retries}
	if size != nil {
		c.length = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "length",
			Help:        "Current value of the list's element counter",
			ConstLabels: labels,
		}, func() float64 {
			return float64(size())
		})
		collectors = append(collectors, c.length)
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) Inserted(op lflist.Op) {
	c.inserts.WithLabelValues(string(op)).Inc()
}

func (c *Collector) Removed() {
	c.removals.Inc()
}

func (c *Collector) Retried(op lflist.Op) {
	c.retries.WithLabelValues(string(op)).Inc()
}
