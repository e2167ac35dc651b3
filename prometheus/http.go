package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPObserver records the outcome of requests and directory listings.
type HTTPObserver interface {
	// ObserveRequest records a finished request.
	ObserveRequest(method string, status int, duration time.Duration)

	// ObserveListing records a directory listing with the number of items. Failed
	// listings are recorded with ok set to false.
	ObserveListing(items int, ok bool)
}

// HTTPCollector is a prometheus.Collector for the HTTP server.
type HTTPCollector interface {
	prometheus.Collector
	HTTPObserver
}

type httpCollector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	listings *prometheus.CounterVec
	items    prometheus.Histogram
}

// NewHTTPCollector returns a new HTTPCollector for the server with the given name.
func NewHTTPCollector(name string) HTTPCollector {
	labels := prometheus.Labels{"name": name}

	return &httpCollector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "jsondir_http_requests_total",
			Help:        "Number of HTTP requests by method and status code",
			ConstLabels: labels,
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "jsondir_http_request_duration_seconds",
			Help:        "Duration of HTTP requests by method",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method"}),
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "jsondir_listings_total",
			Help:        "Number of directory listings by result",
			ConstLabels: labels,
		}, []string{"result"}),
		items: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "jsondir_listing_items",
			Help:        "Number of items per directory listing",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func (c *httpCollector) Describe(ch chan<- *prometheus.Desc) {
	c.requests.Describe(ch)
	c.duration.Describe(ch)
	c.listings.Describe(ch)
	c.items.Describe(ch)
}

func (c *httpCollector) Collect(ch chan<- prometheus.Metric) {
	c.requests.Collect(ch)
	c.duration.Collect(ch)
	c.listings.Collect(ch)
	c.items.Collect(ch)
}

// ObserveRequest records the request. Methods other than GET, HEAD and OPTIONS
// are recorded as OTHER, such that clients can't create arbitrary label values.
func (c *httpCollector) ObserveRequest(method string, status int, duration time.Duration) {
	method = methodLabel(method)

	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method).Observe(duration.Seconds())
}

func (c *httpCollector) ObserveListing(items int, ok bool) {
	if !ok {
		c.listings.WithLabelValues("unavailable").Inc()
		return
	}

	c.listings.WithLabelValues("ok").Inc()
	c.items.Observe(float64(items))
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return method
	}

	return "OTHER"
}
