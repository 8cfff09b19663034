package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the process's prometheus registry and implements
// the poller's CycleMetrics interface.
type Collector struct {
	reg *prometheus.Registry

	CycleDuration      prometheus.Histogram
	FetchErrors        *prometheus.CounterVec
	SnapshotsPublished prometheus.Counter
	EligibleRoutes     prometheus.Gauge
	BestTotalMinutes   prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "commute_cycle_duration_seconds",
			Help:    "Duration of full poll cycles.",
			Buckets: prometheus.DefBuckets,
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commute_fetch_errors_total",
			Help: "Feed fetch or parse failures.",
		}, []string{"feed_id"}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commute_snapshots_published_total",
			Help: "Snapshots handed to the display sink.",
		}),
		EligibleRoutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "commute_eligible_routes",
			Help: "Routes with status OK in the latest cycle.",
		}),
		BestTotalMinutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "commute_best_total_minutes",
			Help: "Door-to-door minutes of the best route, 0 when none.",
		}),
	}

	reg.MustRegister(
		c.CycleDuration,
		c.FetchErrors,
		c.SnapshotsPublished,
		c.EligibleRoutes,
		c.BestTotalMinutes,
	)

	return c
}

func (c *Collector) CycleObserve(d time.Duration) {
	c.CycleDuration.Observe(d.Seconds())
}

func (c *Collector) FetchErrorInc(feedID string) {
	c.FetchErrors.WithLabelValues(feedID).Inc()
}

func (c *Collector) SnapshotPublished(eligible int, bestTotalMin int) {
	c.SnapshotsPublished.Inc()
	c.EligibleRoutes.Set(float64(eligible))
	c.BestTotalMinutes.Set(float64(bestTotalMin))
}

// Serve starts an HTTP server exposing /metrics on addr. The caller
// owns shutdown.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
